package risk

import (
	"fmt"
	"net/mail"

	"github.com/learnpulse/backend/core"
)

// EmailAlerter delivers high-risk alerts to the configured staff mailbox
// using the riskalert email template.
type EmailAlerter struct {
	conf    *core.Config
	mailSvc core.EmailService
	logger  core.Logger
}

var _ Alerter = (*EmailAlerter)(nil)

func NewEmailAlerter(conf *core.Config, mailSvc core.EmailService, logger core.Logger) *EmailAlerter {
	return &EmailAlerter{
		conf:    conf,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (a *EmailAlerter) SendAlert(name, roll, dept string, score float64, level Level) bool {
	if a.conf.AlertRecipientEmail == "" {
		a.logger.Warn("no alert recipient email configured; dropping alert for " + name)
		return false
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: a.conf.AlertRecipientEmail}},
		Subject:      fmt.Sprintf("High Risk Alert: %s (%s)", name, roll),
		TemplateName: "riskalert",
		TemplateData: map[string]interface{}{
			"StudentName": name,
			"Roll":        roll,
			"Dept":        dept,
			"RiskScore":   score,
			"RiskLevel":   string(level),
			"IsHigh":      level == LevelHigh,
		},
	}
	if err := a.mailSvc.SendMessage(msg); err != nil {
		a.logger.Error(fmt.Sprintf("sending risk alert for %s: %v", name, err), err)
		return false
	}
	return true
}
