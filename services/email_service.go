package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/resend/resend-go/v3"
)

var (
	client     *resend.Client
	clientOnce = sync.Once{}
)

// Notifier delivers a single transactional email.
type Notifier interface {
	Send(ctx context.Context, to, subject, bodyText string, companyID *uuid.UUID) error
}

// emailSender is the part of the Resend client the service calls.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	sender emailSender
}

func NewEmailService(logger *gecho.Logger, cfg *structs.Config) *EmailService {
	return &EmailService{
		logger: logger,
		cfg:    cfg,
		sender: getEmailClient(cfg.Email.ApiKey).Emails,
	}
}

func getEmailClient(apiKey string) *resend.Client {
	clientOnce.Do(func() {
		client = resend.NewClient(apiKey)
	})
	return client
}

// Send wraps bodyText in the HTML layout and hands it to Resend, bounded by EMAIL_SEND_TIMEOUT.
func (es *EmailService) Send(ctx context.Context, to, subject, bodyText string, companyID *uuid.UUID) error {
	if es.cfg.Email.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, es.cfg.Email.SendTimeout)
		defer cancel()
	}

	params := &resend.SendEmailRequest{
		From:    es.cfg.Email.From,
		To:      []string{to},
		Subject: subject,
		Html:    renderEmailHTML(subject, bodyText, es.cfg.Email.SupportEmail),
		Text:    bodyText,
	}
	if companyID != nil {
		params.Tags = []resend.Tag{{Name: "company_id", Value: companyID.String()}}
	}

	if _, err := es.sender.SendWithContext(ctx, params); err != nil {
		es.logger.Error("Failed to send email", gecho.Field("error", err), gecho.Field("to", to), gecho.Field("subject", subject))
		return err
	}

	es.logger.Debug("Email sent", gecho.Field("to", to), gecho.Field("subject", subject))
	return nil
}

func renderEmailHTML(title, bodyText, supportEmail string) string {
	paragraphs := strings.Split(strings.TrimSpace(bodyText), "\n\n")
	var body strings.Builder
	for _, p := range paragraphs {
		escaped := html.EscapeString(strings.TrimSpace(p))
		fmt.Fprintf(&body, "<p>%s</p>\n", strings.ReplaceAll(escaped, "\n", "<br>"))
	}

	return fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.header { background-color: #1f6feb; color: white; padding: 20px; text-align: center; }
				.content { padding: 20px; background-color: #f9f9f9; word-break: break-word; }
				.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
			</style>
		</head>
		<body>
			<div class="container">
				<div class="header">
					<h1>%s</h1>
				</div>
				<div class="content">
					%s
				</div>
				<div class="footer">
					<p>Questions? Contact us at %s</p>
				</div>
			</div>
		</body>
		</html>
	`, html.EscapeString(title), body.String(), html.EscapeString(supportEmail))
}
