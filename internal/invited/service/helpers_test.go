package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/internal/invited/store/drivers/sqlite"
	"github.com/openoak/invited/pkg/cryptox"
	"github.com/openoak/invited/pkg/idx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "invited-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, username, email string, staff bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Staff:        staff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedGroup(t *testing.T, st store.Store, name string) domain.Group {
	t.Helper()

	g := domain.Group{
		ID:        idx.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Groups().CreateGroup(context.Background(), g))
	return g
}

// recordingNotifier captures sent invitations; Err makes Send fail.
type recordingNotifier struct {
	Sent []domain.Invitation
	Err  error
}

func (n *recordingNotifier) Send(_ context.Context, inv domain.Invitation, _ domain.User) error {
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, inv)
	return nil
}

func newInvitationService(st store.Store, perUser int) (*InvitationService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	svc := &InvitationService{
		Store:    st,
		Quota:    &QuotaPolicy{Store: st, PerUser: perUser},
		Notifier: notifier,
		Validity: 7 * 24 * time.Hour,
	}
	return svc, notifier
}
