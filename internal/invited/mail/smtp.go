package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/openoak/invited/internal/invited/domain"
)

// SMTPConfig holds the mail-transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // default sender address
}

// SMTPNotifier delivers invitation emails over SMTP. It implements
// service.Notifier.
type SMTPNotifier struct {
	client       *gomail.Client
	from         string
	site         SiteInfo
	validityDays int
}

func NewSMTPNotifier(cfg SMTPConfig, site SiteInfo, validityDays int) (*SMTPNotifier, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPNotifier{
		client:       client,
		from:         cfg.From,
		site:         site,
		validityDays: validityDays,
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, inv domain.Invitation, inviter domain.User) error {
	subject, body, err := BuildMessage(n.site, inv, inviter, n.validityDays)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(inv.InvitedEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	return nil
}
