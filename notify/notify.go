// Package notify delivers run digests. Transports are interchangeable and
// the monitor retries delivery, so a Send that fails must be safe to repeat.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storewatch/config"
)

type Notifier interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

// Multi fans a digest out to every configured transport. Delivery is
// best-effort per transport; the first failure is returned after all
// transports have been tried.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Send(ctx context.Context, subject, body string) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, subject, body); err != nil {
			log.Printf("notify: %s delivery failed: %v", n.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
		}
	}
	return firstErr
}

// FromConfig builds the configured notifier stack. The configuration has
// already been validated, so at least one transport is present.
func FromConfig(cfg config.NotifierConfig) Notifier {
	var notifiers []Notifier
	if cfg.SMTPUser != "" && cfg.ToAddress != "" {
		notifiers = append(notifiers, NewEmail(cfg))
	} else if cfg.SMTPUser != "" || cfg.ToAddress != "" {
		log.Printf("notify: email disabled, needs both SMTP_USER and TO_ADDRESS")
	}
	if cfg.SlackWebhook != "" {
		notifiers = append(notifiers, NewSlack(cfg.SlackWebhook))
	}

	names := make([]string, len(notifiers))
	for i, n := range notifiers {
		names[i] = n.Name()
	}
	log.Printf("notify: delivery via %s", strings.Join(names, ", "))

	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return NewMulti(notifiers...)
}
