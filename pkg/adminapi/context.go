package adminapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/deenmate/sync-core/pkg/admission"
	"github.com/deenmate/sync-core/pkg/auth"
	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

type ctxKey string

const ctxKeyUser ctxKey = "adminapi.user"

// requireAuth extracts a Bearer access token, verifies it, loads the
// full admin user record, and stores it on the request context. Every
// route except /health, /ready, /metrics and the public auth trio is
// wrapped in this.
func requireAuth(tokens *auth.TokenIssuer, store userLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeErr(w, errs.NewAuthError("missing bearer token"))
				return
			}
			token := strings.TrimPrefix(header, prefix)

			claims, err := tokens.VerifyAccess(token)
			if err != nil {
				writeErr(w, err)
				return
			}

			user, err := store.GetAdminUserByID(r.Context(), claims.UserID)
			if err != nil || user == nil {
				writeErr(w, errs.NewAuthError("user no longer exists"))
				return
			}
			if !user.Active {
				writeErr(w, errs.NewAuthError("account is inactive"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userLookup is the narrow slice of storage.Admin requireAuth needs.
type userLookup interface {
	GetAdminUserByID(ctx context.Context, id string) (*types.AdminUser, error)
}

// currentUser returns the authenticated user attached by requireAuth.
// Only ever nil if called from a route outside the authenticated
// group, which would be a routing bug.
func currentUser(r *http.Request) *types.AdminUser {
	u, _ := r.Context().Value(ctxKeyUser).(*types.AdminUser)
	return u
}

// requirePermission wraps a handler so it 403s unless the
// authenticated user holds the named permission.
func requirePermission(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || !user.HasPermission(permission) {
			writeErr(w, errs.NewForbiddenError("missing required permission: "+permission))
			return
		}
		next(w, r)
	}
}

func actionContext(r *http.Request) auth.ActionContext {
	return auth.ActionContext{IP: admission.ClientIP(r), UserAgent: r.UserAgent()}
}

// auditMeta returns the ip/userAgent pointer pair Auditor.Record takes,
// nil when the request carries no value for it.
func auditMeta(r *http.Request) (ip, userAgent *string) {
	if v := admission.ClientIP(r); v != "" {
		ip = &v
	}
	if v := r.UserAgent(); v != "" {
		userAgent = &v
	}
	return ip, userAgent
}
