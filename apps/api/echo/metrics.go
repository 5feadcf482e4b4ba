package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnpulse_risk_predictions_total",
		Help: "Number of single-student risk predictions served, by risk level.",
	}, []string{"level"})

	bulkUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnpulse_risk_bulk_updates_total",
		Help: "Number of population-wide risk update runs.",
	})

	alertsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnpulse_risk_alerts_sent_total",
		Help: "Number of high-risk alert emails delivered.",
	})
)

func metricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
