package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/mail"
	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/internal/invited/store/drivers/sqlite"
	"github.com/openoak/invited/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "invited-http-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testServer struct {
	*httptest.Server
	invitations *service.InvitationService
	notifier    *recordingNotifier
}

type recordingNotifier struct {
	Sent []domain.Invitation
}

func (n *recordingNotifier) Send(_ context.Context, inv domain.Invitation, _ domain.User) error {
	n.Sent = append(n.Sent, inv)
	return nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	notifier := &recordingNotifier{}
	quota := &service.QuotaPolicy{Store: st, PerUser: 0}
	invitations := &service.InvitationService{
		Store:    st,
		Quota:    quota,
		Notifier: notifier,
		Validity: 7 * 24 * time.Hour,
	}
	sessions := &service.SessionService{
		Store:  st,
		Secret: []byte("router-test-secret"),
		Issuer: "invited-test",
		TTL:    time.Hour,
	}
	bootstrap := &service.BootstrapService{Store: st, Token: "letmein"}

	router := NewRouter("test", st, slog.Default())
	router.InvitationService = invitations
	router.SessionService = sessions
	router.BootstrapService = bootstrap
	router.Quota = quota
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, invitations: invitations, notifier: notifier}
}

func (s *testServer) postJSON(t *testing.T, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, path, token string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func TestRegistrationFlow(t *testing.T) {
	srv := newTestServer(t)

	var (
		staffToken  string
		inviteCode  string
		memberToken string
	)

	t.Run("bootstrap the first staff account", func(t *testing.T) {
		resp, body := srv.postJSON(t, "/v1/bootstrap", "", BootstrapRequest{
			Token:    "letmein",
			Username: "admin",
			Email:    "admin@example.org",
			Password: "hunter22",
			Groups:   []string{"members"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

		created := decode[BootstrapResponse](t, body)
		assert.Equal(t, "admin", created.Username)

		resp, _ = srv.postJSON(t, "/v1/bootstrap", "", BootstrapRequest{
			Token: "letmein", Username: "again", Email: "a@b.org", Password: "x",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		resp, body := srv.postForm(t, "/v1/sessions", url.Values{
			"username": {"admin"}, "password": {"hunter22"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

		login := decode[LoginResponse](t, body)
		assert.True(t, login.Staff)
		require.NotEmpty(t, login.SessionToken)
		staffToken = login.SessionToken

		resp, _ = srv.postForm(t, "/v1/sessions", url.Values{
			"username": {"admin"}, "password": {"wrong"},
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invitations require a session", func(t *testing.T) {
		resp, _ := srv.postJSON(t, "/v1/invitations", "", InviteRequest{Email: "x@example.org"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, _ = srv.postJSON(t, "/v1/invitations", "not-a-token", InviteRequest{Email: "x@example.org"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create an invitation", func(t *testing.T) {
		resp, body := srv.postJSON(t, "/v1/invitations", staffToken, InviteRequest{
			Email: "Friend@Example.org",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

		created := decode[InviteResponse](t, body)
		assert.True(t, created.EmailSent)
		assert.Equal(t, "friend@example.org", created.Invitation.InvitedEmail)
		require.NotEmpty(t, created.Invitation.Code)
		inviteCode = created.Invitation.Code

		require.Len(t, srv.notifier.Sent, 1)

		resp, _ = srv.postJSON(t, "/v1/invitations", staffToken, InviteRequest{
			Email: "friend@example.org",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("remaining shows the staff allowance", func(t *testing.T) {
		resp, body := srv.get(t, "/v1/invitations/remaining", staffToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		remaining := decode[RemainingResponse](t, body)
		assert.True(t, remaining.Unlimited)
		assert.Equal(t, service.StaffAllowance, remaining.Remaining)
	})

	t.Run("preview the invitation", func(t *testing.T) {
		resp, body := srv.get(t, "/v1/invitations/"+inviteCode, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		preview := decode[PreviewResponse](t, body)
		assert.Equal(t, "friend@example.org", preview.InvitedEmail)

		resp, _ = srv.get(t, "/v1/invitations/deadbeef", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("redeem the invitation", func(t *testing.T) {
		resp, body := srv.postForm(t, "/v1/invitations/"+inviteCode+"/redeem", url.Values{
			"username": {"friend"}, "password": {"s3cretpass"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

		redeemed := decode[RedeemResponse](t, body)
		assert.Equal(t, "friend", redeemed.Username)
		assert.Equal(t, "friend@example.org", redeemed.Email, "email comes from the invitation")
		require.NotEmpty(t, redeemed.SessionToken)
		memberToken = redeemed.SessionToken

		// The code is spent now.
		resp, _ = srv.postForm(t, "/v1/invitations/"+inviteCode+"/redeem", url.Values{
			"username": {"other"}, "password": {"s3cretpass"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("the new member is logged in but not staff", func(t *testing.T) {
		resp, body := srv.get(t, "/v1/invitations/remaining", memberToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		remaining := decode[RemainingResponse](t, body)
		assert.True(t, remaining.Unlimited, "no per-user limit configured")

		resp, _ = srv.get(t, "/v1/invitations", memberToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "listing is staff only")
	})

	t.Run("staff list and purge", func(t *testing.T) {
		resp, body := srv.get(t, "/v1/invitations", staffToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		list := decode[InvitationListResponse](t, body)
		require.Len(t, list.Invitations, 1)
		assert.True(t, list.Invitations[0].Used)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/invitations/purge", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+staffToken)
		resp, body = srv.do(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		purge := decode[PurgeResponse](t, body)
		assert.Zero(t, purge.Deleted, "nothing expired yet")
	})

	t.Run("health endpoints", func(t *testing.T) {
		resp, body := srv.get(t, "/livez", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decode[HealthResponse](t, body).Status)

		resp, body = srv.get(t, "/readyz", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		health := decode[HealthResponse](t, body)
		require.NotNil(t, health.Checks)
		assert.Equal(t, "ok", health.Checks.Database)
	})
}

func TestMailNotifierSatisfiesServiceInterface(t *testing.T) {
	var _ service.Notifier = (*mail.LogNotifier)(nil)
	var _ service.Notifier = (*mail.SMTPNotifier)(nil)
}
