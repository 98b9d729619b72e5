// Package mailer sends the site's transactional email: admin login codes,
// buyer enquiries and new-listing alerts.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type Message struct {
	To      []string
	Bcc     []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Resend delivers mail through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	from   string
}

func NewResend(apiKey, from string) *Resend {
	return &Resend{client: resend.NewClient(apiKey), from: from}
}

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 && len(msg.Bcc) == 0 {
		return "", errors.New("mailer: message has no recipients")
	}
	req := &resend.SendEmailRequest{
		From:    r.from,
		To:      msg.To,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		req.ReplyTo = msg.ReplyTo
	}
	sent, err := r.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("sending %q: %w", msg.Subject, err)
	}
	return sent.Id, nil
}
