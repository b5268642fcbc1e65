package auth

import (
	"context"
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

type fakeAdminGateway struct {
	usersByID    map[string]*types.AdminUser
	usersByEmail map[string]*types.AdminUser
	auditEntries []*types.AuditLogEntry
}

func newFakeAdminGateway() *fakeAdminGateway {
	return &fakeAdminGateway{
		usersByID:    make(map[string]*types.AdminUser),
		usersByEmail: make(map[string]*types.AdminUser),
	}
}

func (f *fakeAdminGateway) put(u *types.AdminUser) {
	f.usersByID[u.ID] = u
	f.usersByEmail[u.Email] = u
}

func (f *fakeAdminGateway) CreateAdminUser(ctx context.Context, u *types.AdminUser) error {
	f.put(u)
	return nil
}
func (f *fakeAdminGateway) GetAdminUserByID(ctx context.Context, id string) (*types.AdminUser, error) {
	u, ok := f.usersByID[id]
	if !ok {
		return nil, errs.NewNotFoundError("admin user")
	}
	return u, nil
}
func (f *fakeAdminGateway) GetAdminUserByEmail(ctx context.Context, email string) (*types.AdminUser, error) {
	u, ok := f.usersByEmail[email]
	if !ok {
		return nil, errs.NewNotFoundError("admin user")
	}
	return u, nil
}
func (f *fakeAdminGateway) ListAdminUsers(ctx context.Context) ([]*types.AdminUser, error) {
	out := make([]*types.AdminUser, 0, len(f.usersByID))
	for _, u := range f.usersByID {
		out = append(out, u)
	}
	return out, nil
}
func (f *fakeAdminGateway) UpdateAdminUser(ctx context.Context, u *types.AdminUser) error {
	f.put(u)
	return nil
}
func (f *fakeAdminGateway) DeleteAdminUser(ctx context.Context, id string) error {
	if u, ok := f.usersByID[id]; ok {
		delete(f.usersByEmail, u.Email)
	}
	delete(f.usersByID, id)
	return nil
}

func (f *fakeAdminGateway) AppendAuditLog(ctx context.Context, e *types.AuditLogEntry) error {
	f.auditEntries = append(f.auditEntries, e)
	return nil
}
func (f *fakeAdminGateway) ListAuditLog(ctx context.Context, limit, offset int) ([]*types.AuditLogEntry, error) {
	return f.auditEntries, nil
}

func newTestService(t *testing.T) (*Service, *fakeAdminGateway) {
	t.Helper()
	gw := newFakeAdminGateway()
	hash, err := HashPassword("StrongPass1!", 4)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	gw.put(&types.AdminUser{
		ID: "u1", Email: "admin@example.test", PasswordHash: hash,
		Role: types.RoleSuperAdmin, Active: true,
	})

	tokens := NewTokenIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute, 7*24*time.Hour)
	svc := NewService(gw, tokens, NewAuditor(gw), 4)
	return svc, gw
}

func TestLoginSucceedsAndIssuesTokens(t *testing.T) {
	svc, gw := newTestService(t)
	res, err := svc.Login(context.Background(), "Admin@Example.test", "StrongPass1!", ActionContext{IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Error("expected both tokens to be issued")
	}
	if res.User.LastLoginAt == nil {
		t.Error("expected last login to be touched")
	}

	found := false
	for _, e := range gw.auditEntries {
		if e.Action == types.ActionLogin && e.Detail["result"] == "success" {
			found = true
		}
	}
	if !found {
		t.Error("expected a successful LOGIN audit entry")
	}
}

func TestLoginFailsOnWrongPassword(t *testing.T) {
	svc, gw := newTestService(t)
	_, err := svc.Login(context.Background(), "admin@example.test", "WrongPass1!", ActionContext{})
	if !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error, got %v", err)
	}

	found := false
	for _, e := range gw.auditEntries {
		if e.Action == types.ActionLogin && e.Detail["result"] == "failure" {
			found = true
		}
	}
	if !found {
		t.Error("expected a failure LOGIN audit entry")
	}
}

func TestLoginFailsOnInactiveUser(t *testing.T) {
	svc, gw := newTestService(t)
	u := gw.usersByID["u1"]
	u.Active = false
	gw.put(u)

	_, err := svc.Login(context.Background(), "admin@example.test", "StrongPass1!", ActionContext{})
	if !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error for inactive user, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Login(context.Background(), "admin@example.test", "StrongPass1!", ActionContext{})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if refreshed.Tokens.RefreshToken == res.Tokens.RefreshToken {
		t.Error("expected a new refresh token")
	}

	if _, err := svc.Refresh(context.Background(), res.Tokens.RefreshToken); !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected reused refresh token to be rejected, got %v", err)
	}
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.ChangePassword(context.Background(), "u1", "WrongCurrent1!", "NewStrong2@", ActionContext{})
	if !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error for wrong current password, got %v", err)
	}
}

func TestChangePasswordEnforcesPolicyOnNew(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.ChangePassword(context.Background(), "u1", "StrongPass1!", "weak", ActionContext{})
	if !errs.IsType(err, errs.ErrorTypeValidation) {
		t.Errorf("expected validation error for weak new password, got %v", err)
	}
}

func TestChangePasswordSucceeds(t *testing.T) {
	svc, gw := newTestService(t)
	if err := svc.ChangePassword(context.Background(), "u1", "StrongPass1!", "NewStrong2@", ActionContext{}); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	if !VerifyPassword(gw.usersByID["u1"].PasswordHash, "NewStrong2@") {
		t.Error("new password should verify against updated hash")
	}
}

func TestResetPasswordSkipsCurrentPasswordCheck(t *testing.T) {
	svc, gw := newTestService(t)
	if err := svc.ResetPassword(context.Background(), "u1", "OperatorSet3#", "operator-1", ActionContext{}); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}
	if !VerifyPassword(gw.usersByID["u1"].PasswordHash, "OperatorSet3#") {
		t.Error("reset password should verify against updated hash")
	}
}
