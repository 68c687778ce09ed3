// Package mail sends transactional email through Resend.
package mail

import (
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(to, subject, html string) error
}

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
