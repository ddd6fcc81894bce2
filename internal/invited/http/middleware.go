package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/pkg/httpx"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyStaff  ctxKey = "staff"
)

func userIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}

func staffFromCtx(ctx context.Context) bool {
	v, ok := ctx.Value(ctxKeyStaff).(bool)
	return ok && v
}

// RequireSession verifies the bearer session token and injects the
// caller's identity into the request context.
func RequireSession(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := sessions.Verify(raw)
			if err != nil {
				writeBearerError(w, "session verification failed")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxKeyStaff, claims.Staff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff rejects callers whose session lacks the staff flag.
// Must run inside RequireSession.
func RequireStaff() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !staffFromCtx(r.Context()) {
				httpx.WriteError(w, http.StatusForbidden,
					"forbidden", "Staff access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
