// Package notify emails alert subscribers when a listing is published.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/mailer"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

// bccBatchSize caps the Bcc list of a single alert email.
const bccBatchSize = 50

type SubscriberLister interface {
	ListActive(ctx context.Context) ([]models.AlertSubscriber, error)
}

type Alerts struct {
	Subscribers SubscriberLister
	Sender      mailer.Sender
	Site        *site.Site
	BaseURL     string
	// Placeholder is the visible To address; subscribers are always Bcc'd.
	Placeholder string
	Logger      *zap.Logger
}

// NewProperty emails every active subscriber about p, Bcc'd in batches of
// bccBatchSize. A failed batch does not stop the rest; the returned count
// only includes recipients of accepted batches.
func (a *Alerts) NewProperty(ctx context.Context, p *models.Property) (int, error) {
	subs, err := a.Subscribers.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing subscribers: %w", err)
	}
	if len(subs) == 0 {
		a.Logger.Debug("no alert subscribers", zap.String("property", p.ID.Hex()))
		return 0, nil
	}

	emails := make([]string, 0, len(subs))
	for _, s := range subs {
		emails = append(emails, s.Email)
	}

	location := p.Location
	if location == "" {
		location = p.City
	}
	msg, err := mailer.AlertMessage(a.Placeholder, nil, mailer.AlertData{
		Brand:    a.Site.Brand,
		Region:   a.Site.Region,
		Title:    p.Title,
		Location: location,
		Price:    seo.FormatINR(p.Price),
		Area:     p.BuiltupArea,
		Category: a.Site.CategoryLabel(p.Category),
		URL:      strings.TrimRight(a.BaseURL, "/") + seo.PropertyPath(p),
	})
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for start := 0; start < len(emails); start += bccBatchSize {
		batch := emails[start:min(start+bccBatchSize, len(emails))]
		msg.Bcc = batch
		id, err := a.Sender.Send(ctx, msg)
		if err != nil {
			a.Logger.Warn("property alert batch failed",
				zap.String("property", p.ID.Hex()),
				zap.Int("offset", start),
				zap.Int("recipients", len(batch)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("sending alert for %s: %w", p.ID.Hex(), err))
			continue
		}
		sent += len(batch)
		a.Logger.Info("property alert sent",
			zap.String("property", p.ID.Hex()),
			zap.Int("recipients", len(batch)),
			zap.String("messageId", id),
		)
	}
	return sent, errors.Join(errs...)
}

// Test sends a sample alert to a single address.
func (a *Alerts) Test(ctx context.Context, to string) (string, error) {
	msg, err := mailer.AlertMessage(to, nil, mailer.AlertData{
		Brand:    a.Site.Brand,
		Region:   a.Site.Region,
		Title:    "Test alert",
		Location: "Rishikesh",
		Price:    seo.FormatINR(0),
		Category: "Test",
		URL:      strings.TrimRight(a.BaseURL, "/") + "/",
	})
	if err != nil {
		return "", err
	}
	msg.Subject = a.Site.Brand + " - test alert"
	return a.Sender.Send(ctx, msg)
}
