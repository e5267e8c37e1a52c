// Package notify sends report-completion emails through SendGrid. The
// notifier is optional; with no recipient or API key configured it is
// simply absent.
package notify

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailNotifier struct {
	apiKey   string
	fromName string
	fromAddr string
	to       string
}

// FromEnv builds a notifier from EMAIL_API_KEY, FROM_NAME, FROM_ADDRESS,
// and REPORT_NOTIFY_TO. It returns nil when the key or recipient is unset.
func FromEnv() *EmailNotifier {
	apiKey := os.Getenv("EMAIL_API_KEY")
	to := os.Getenv("REPORT_NOTIFY_TO")
	if apiKey == "" || to == "" {
		return nil
	}

	return &EmailNotifier{
		apiKey:   apiKey,
		fromName: os.Getenv("FROM_NAME"),
		fromAddr: os.Getenv("FROM_ADDRESS"),
		to:       to,
	}
}

func (n *EmailNotifier) ReportCompleted(reportID string, stores int, took time.Duration) error {
	subject := fmt.Sprintf("Store report %s is ready", reportID)
	body := fmt.Sprintf(
		"Report %s completed with %d stores in %s.\nDownload it from /get_report/%s.",
		reportID, stores, took.Round(time.Second), reportID,
	)

	from := mail.NewEmail(n.fromName, n.fromAddr)
	toEmail := mail.NewEmail("", n.to)
	email := mail.NewSingleEmail(from, subject, toEmail, body, body)

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	log.Printf("Report notification sent to %s (status: %d)", n.to, response.StatusCode)
	return nil
}
