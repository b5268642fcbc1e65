package auth

import (
	"context"
	"strings"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/metrics"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

// Service implements the admin login/refresh/password lifecycle.
type Service struct {
	gateway    storage.Admin
	tokens     *TokenIssuer
	audit      *Auditor
	bcryptCost int
}

// NewService wires the repository, token issuer, and auditor.
func NewService(gateway storage.Admin, tokens *TokenIssuer, audit *Auditor, bcryptCost int) *Service {
	return &Service{gateway: gateway, tokens: tokens, audit: audit, bcryptCost: bcryptCost}
}

// ActionContext carries the request metadata every audited action
// needs, beyond its business parameters.
type ActionContext struct {
	IP        string
	UserAgent string
}

func (a ActionContext) ipPtr() *string {
	if a.IP == "" {
		return nil
	}
	return &a.IP
}

func (a ActionContext) uaPtr() *string {
	if a.UserAgent == "" {
		return nil
	}
	return &a.UserAgent
}

// LoginResult is what Login returns on success.
type LoginResult struct {
	Tokens TokenPair
	User   *types.AdminUser
}

// Login verifies credentials with a constant-time bcrypt compare, and
// on success touches last-login and issues a fresh token pair. On
// failure it always records an audit entry (action LOGIN) before
// returning, and never logs the attempted password.
func (s *Service) Login(ctx context.Context, email, password string, ac ActionContext) (*LoginResult, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	userID := (*string)(nil)

	user, err := s.gateway.GetAdminUserByEmail(ctx, normalizedEmail)
	if err != nil || user == nil {
		s.audit.Record(ctx, userID, types.ActionLogin, "admin_user", nil,
			map[string]interface{}{"email": normalizedEmail, "result": "failure"}, ac.ipPtr(), ac.uaPtr())
		metrics.AuthLoginAttemptsTotal.WithLabelValues("bad_credentials").Inc()
		return nil, errs.NewAuthError("invalid email or password")
	}
	userID = &user.ID

	if !user.Active {
		s.audit.Record(ctx, userID, types.ActionLogin, "admin_user", userID,
			map[string]interface{}{"result": "failure", "reason": "inactive"}, ac.ipPtr(), ac.uaPtr())
		metrics.AuthLoginAttemptsTotal.WithLabelValues("disabled_user").Inc()
		return nil, errs.NewAuthError("account is inactive")
	}

	if !VerifyPassword(user.PasswordHash, password) {
		s.audit.Record(ctx, userID, types.ActionLogin, "admin_user", userID,
			map[string]interface{}{"result": "failure"}, ac.ipPtr(), ac.uaPtr())
		metrics.AuthLoginAttemptsTotal.WithLabelValues("bad_credentials").Inc()
		return nil, errs.NewAuthError("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.gateway.UpdateAdminUser(ctx, user); err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStorage, "failed to update last login")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, types.ActionLogin, "admin_user", userID,
		map[string]interface{}{"result": "success"}, ac.ipPtr(), ac.uaPtr())
	metrics.AuthLoginAttemptsTotal.WithLabelValues("success").Inc()

	return &LoginResult{Tokens: pair, User: user}, nil
}

// Refresh validates a refresh token, rejects reuse of a superseded
// one, and issues a new rotated pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.gateway.GetAdminUserByID(ctx, userID)
	if err != nil || user == nil {
		return nil, errs.NewAuthError("user no longer exists")
	}
	if !user.Active {
		return nil, errs.NewAuthError("account is inactive")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: user}, nil
}

// ChangePassword verifies the current password before enforcing the
// full policy on the new one; used for a user changing their own
// password.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string, ac ActionContext) error {
	user, err := s.gateway.GetAdminUserByID(ctx, userID)
	if err != nil || user == nil {
		return errs.NewNotFoundError("admin user")
	}

	if !VerifyPassword(user.PasswordHash, currentPassword) {
		return errs.NewAuthError("current password is incorrect")
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, types.ActionChangePassword, "admin_user", &user.ID, nil, ac.ipPtr(), ac.uaPtr())
	return nil
}

// ResetPassword is operator-initiated: it skips the current-password
// check but still enforces the full policy. Callers must verify the
// acting operator holds delete:users or update:users before calling
// this; that authorization check belongs to the admin API layer.
func (s *Service) ResetPassword(ctx context.Context, targetUserID, newPassword string, actingOperatorID string, ac ActionContext) error {
	user, err := s.gateway.GetAdminUserByID(ctx, targetUserID)
	if err != nil || user == nil {
		return errs.NewNotFoundError("admin user")
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}

	s.tokens.Revoke(user.ID)
	actor := actingOperatorID
	s.audit.Record(ctx, &actor, types.ActionResetPassword, "admin_user", &user.ID, nil, ac.ipPtr(), ac.uaPtr())
	return nil
}

func (s *Service) setPassword(ctx context.Context, user *types.AdminUser, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.gateway.UpdateAdminUser(ctx, user); err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "failed to update password")
	}
	return nil
}
