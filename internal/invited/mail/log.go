package mail

import (
	"context"
	"log/slog"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/pkg/slogx"
)

// LogNotifier renders the invitation email and logs it instead of
// sending. Used when no SMTP host is configured (development).
type LogNotifier struct {
	Site         SiteInfo
	ValidityDays int
}

func (n *LogNotifier) Send(ctx context.Context, inv domain.Invitation, inviter domain.User) error {
	subject, body, err := BuildMessage(n.Site, inv, inviter, n.ValidityDays)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("invitation email (smtp not configured)",
		slog.String("to", inv.InvitedEmail),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}
