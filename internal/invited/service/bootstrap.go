package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/pkg/cryptox"
	"github.com/openoak/invited/pkg/idx"
	"github.com/openoak/invited/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapInvalid      = errors.New("invalid bootstrap request")
)

// BootstrapData describes the initial staff account and the groups new
// members can be invited into.
type BootstrapData struct {
	Username string
	Email    string
	Password string
	Groups   []string // group names to create
}

// BootstrapService creates the first staff account on an empty store.
// Every later account enters through an invitation.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	req BootstrapData,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Refuse once any user exists.
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.User{}, err
	} else if bootstrapped {
		log.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.User{}, ErrBootstrapAlready
	}

	// 2. Validate the provided token.
	if s.Token == "" || token != s.Token {
		log.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return domain.User{}, ErrBootstrapInvalid
	}

	// 3. Hash the password.
	passwordHash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash bootstrap password", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Create groups and the staff user in a transaction.
	now := time.Now().UTC()
	staff := domain.User{
		ID:           idx.New().String(),
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Staff:        true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, name := range req.Groups {
			group := domain.Group{
				ID:        idx.New().String(),
				Name:      name,
				CreatedAt: now,
			}
			if err := tx.Groups().CreateGroup(ctx, group); err != nil {
				log.Error("failed to create group",
					slog.String("group_name", name),
					slog.Any("error", err),
				)
				return err
			}
		}

		return tx.Users().CreateUser(ctx, staff)
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("system bootstrapped",
		slog.String("user_id", staff.ID),
		slog.String("username", staff.Username),
		slog.Int("groups", len(req.Groups)),
	)

	return staff, nil
}
