package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/learnpulse/backend/core"
	"github.com/learnpulse/backend/core/risk"
	"github.com/learnpulse/backend/core/student"
)

type riskApi struct {
	scorer   *risk.Scorer
	updater  *risk.BulkUpdater
	validate *validator.Validate
}

func registerRiskAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	scorer *risk.Scorer,
	updater *risk.BulkUpdater,
	validate *validator.Validate,
) {
	api := riskApi{scorer: scorer, updater: updater, validate: validate}

	rg := g.Group("/risk", jwt)
	rg.POST("/predict", api.predict, staffMiddleware())
	rg.POST("/update-all", api.updateAll, adminMiddleware())
}

// Handlers

func (api *riskApi) predict(ctx echo.Context) error {
	var data PredictRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PredictRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.scorer.Score(data.GPA, float64(data.Attendance), data.marks())
	if err != nil {
		return errors.Wrap(err, "scoring student")
	}
	predictionsTotal.WithLabelValues(string(res.Level)).Inc()

	return ctx.JSON(http.StatusOK, PredictResponse{
		StudentID:  data.StudentID,
		Score:      res.Score,
		Level:      res.Level,
		Confidence: res.Confidence,
		Factors:    res.Factors,
	})
}

func (api *riskApi) updateAll(ctx echo.Context) error {
	summary, err := api.updater.UpdateAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "updating all student risks")
	}
	bulkUpdatesTotal.Inc()
	alertsSentTotal.Add(float64(summary.Alerted))

	if summary.Failures == nil {
		summary.Failures = []risk.Failure{}
	}
	return ctx.JSON(http.StatusOK, UpdateAllResponse{
		Message:  fmt.Sprintf("Updated %d students", summary.Updated),
		Updated:  summary.Updated,
		Alerted:  summary.Alerted,
		Failures: summary.Failures,
	})
}

type (
	// MarkEntry is one internal-assessment record in a prediction request.
	MarkEntry struct {
		Subject     string   `json:"subject"`
		Marks       float64  `json:"marks" validate:"gte=0"`
		MaxMarks    float64  `json:"max_marks" validate:"omitempty,gt=0"`
		AvgInternal *float64 `json:"avgInternal" validate:"omitempty,gte=0"`
		HasUPC      bool     `json:"hasUPC"`
		UPCDays     *float64 `json:"upc_days" validate:"omitempty,gte=0"`
	}

	PredictRequest struct {
		StudentID  string      `json:"student_id"`
		GPA        float64     `json:"gpa" validate:"gte=0,lte=10"`
		Attendance int         `json:"attendance" validate:"gte=0,lte=100"`
		Marks      []MarkEntry `json:"marks" validate:"omitempty,dive"`
	}

	PredictResponse struct {
		StudentID  string            `json:"student_id,omitempty"`
		Score      float64           `json:"risk_score"`
		Level      risk.Level        `json:"risk_level"`
		Confidence float64           `json:"confidence"`
		Factors    map[string]string `json:"factors"`
	}

	UpdateAllResponse struct {
		Message  string         `json:"message"`
		Updated  int            `json:"updated"`
		Alerted  int            `json:"alerted"`
		Failures []risk.Failure `json:"failures"`
	}
)

func (pr *PredictRequest) Validate(validate *validator.Validate) error {
	pr.StudentID = core.CleanString(pr.StudentID, false)
	return validate.Struct(pr)
}

// marks converts the wire entries into domain marks for feature extraction.
func (pr *PredictRequest) marks() []student.Mark {
	if len(pr.Marks) == 0 {
		return nil
	}
	marks := make([]student.Mark, 0, len(pr.Marks))
	for _, me := range pr.Marks {
		m := student.Mark{
			StudentID: pr.StudentID,
			Subject:   me.Subject,
			Marks:     me.Marks,
			MaxMarks:  me.MaxMarks,
			HasUPC:    me.HasUPC,
		}
		if m.MaxMarks == 0 {
			m.MaxMarks = student.DefaultMaxMarks
		}
		if me.AvgInternal != nil {
			m.AvgInternal = null.Float64From(*me.AvgInternal)
		}
		if me.UPCDays != nil {
			m.UPCDays = null.Float64From(*me.UPCDays)
		}
		marks = append(marks, m)
	}
	return marks
}
