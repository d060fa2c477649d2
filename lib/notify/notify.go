// Package notify emails finished audit exports over SMTP.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config}
}

// Enabled reports whether an smtp server is configured at all.
func (m Mailer) Enabled() bool {
	return m.config.Server != ""
}

// Report is one finished run to deliver.
type Report struct {
	To          string
	Tool        string
	SessionID   string
	SessionName string
	Summary     string
	CsvName     string
	Csv         []byte
}

func (m Mailer) SendReport(ctx context.Context, report Report) error {
	ctx, span := tracer.Start(ctx, "SendReport")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("SiteTester <%s>", m.config.EmailAddress)
	mail.To = []string{report.To}
	mail.Subject = fmt.Sprintf("%s audit finished: %s", report.Tool, report.SessionName)

	body := fmt.Sprintf(`The %q audit session %s has finished.

%s

The full results are attached as CSV.`, report.SessionName, report.SessionID, report.Summary)
	mail.Text = []byte(body)

	if len(report.Csv) > 0 {
		_, err := mail.Attach(bytes.NewReader(report.Csv), report.CsvName, "text/csv")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach csv")
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		// local relays without auth, common in dev setups
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
