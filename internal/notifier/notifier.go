// Package notifier delivers thread reports by email.
package notifier

import (
	"fmt"

	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/digest"
	"github.com/ibeckermayer/threadreader/internal/notifier/providers"
)

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// Notifier sends reports to a fixed recipient
type Notifier struct {
	sender Sender
	to     string
}

// New creates a notifier that sends to the given address
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates a notifier based on configuration. It returns nil
// without error when email is disabled.
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.ToAddr == "" {
		return nil, fmt.Errorf("email enabled but to_address is empty")
	}

	var sender Sender
	switch cfg.Provider {
	case "smtp", "":
		sender = providers.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromAddr)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendReport emails a report. Reports without unread comments are skipped
// and reported as not sent.
func (n *Notifier) SendReport(r *digest.Report) (bool, error) {
	if r.UnreadCount == 0 {
		return false, nil
	}
	if err := n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody); err != nil {
		return false, err
	}
	return true, nil
}
