// Package notify emails a run summary once a run finishes.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"limitedseller/internal/pipeline"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("limitedseller/notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.To) > 0
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func send(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

type Mailer struct {
	Smtp SmtpConfig
	send sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{Smtp: config, send: send}
}

// ReportEmail renders the summary of a run.
func ReportEmail(from string, to []string, report pipeline.RunReport) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("limitedseller <%s>", from)
	mail.To = to
	mail.Subject = fmt.Sprintf("Listed %d of %d limiteds", report.Listed, report.Candidates-report.FilteredOut)

	var body strings.Builder
	body.WriteString(report.Summary())
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "Run %s took %s.\n", report.RunID, report.Duration().Round(time.Millisecond))

	failures := report.FailuresByReason()
	if len(failures) > 0 {
		body.WriteString("\nFailures:\n")
		for _, o := range report.Outcomes {
			if o.Reason == pipeline.ReasonNone {
				continue
			}
			fmt.Fprintf(&body, "- %s (%d): %s", o.Item.Name, o.Item.ID, o.Reason)
			if o.Detail != "" {
				fmt.Fprintf(&body, ", %s", o.Detail)
			}
			body.WriteString("\n")
		}
	}
	mail.Text = []byte(body.String())
	return mail
}

// SendReport mails the run summary, servers that do not support AUTH are
// retried without credentials.
func (m Mailer) SendReport(ctx context.Context, report pipeline.RunReport) error {
	_, span := tracer.Start(ctx, "notify:SendReport")
	defer span.End()

	mail := ReportEmail(m.Smtp.EmailAddress, m.Smtp.To, report)
	addr := fmt.Sprintf("%s:%d", m.Smtp.Server, m.Smtp.Port)

	err := m.send(mail, addr, smtp.PlainAuth("", m.Smtp.EmailAddress, m.Smtp.Password, m.Smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
