package auth

import (
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

func testUser() *types.AdminUser {
	return &types.AdminUser{ID: "u1", Email: "admin@example.test", Role: types.RoleSuperAdmin}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	iss := NewTokenIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute, 7*24*time.Hour)
	pair, err := iss.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair() error: %v", err)
	}

	claims, err := iss.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess() error: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != string(types.RoleSuperAdmin) {
		t.Errorf("claims = %+v, want UserID=u1 Role=super_admin", claims)
	}
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	iss := NewTokenIssuer("0123456789abcdef0123456789abcdef", -1*time.Minute, 7*24*time.Hour)
	pair, err := iss.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair() error: %v", err)
	}
	_, err = iss.VerifyAccess(pair.AccessToken)
	if !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error for expired token, got %v", err)
	}
}

func TestRefreshTokenRotationRejectsReuse(t *testing.T) {
	iss := NewTokenIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute, 7*24*time.Hour)
	user := testUser()
	first, err := iss.IssuePair(user)
	if err != nil {
		t.Fatalf("IssuePair() error: %v", err)
	}

	userID, err := iss.VerifyRefresh(first.RefreshToken)
	if err != nil || userID != "u1" {
		t.Fatalf("first VerifyRefresh() = %q, %v", userID, err)
	}

	second, err := iss.IssuePair(user)
	if err != nil {
		t.Fatalf("second IssuePair() error: %v", err)
	}

	if _, err := iss.VerifyRefresh(first.RefreshToken); !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected superseded refresh token to be rejected, got %v", err)
	}
	if _, err := iss.VerifyRefresh(second.RefreshToken); err != nil {
		t.Errorf("expected current refresh token to verify, got %v", err)
	}
}

func TestVerifyAccessRejectsTamperedSignature(t *testing.T) {
	iss := NewTokenIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute, 7*24*time.Hour)
	pair, err := iss.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair() error: %v", err)
	}
	tampered := pair.AccessToken + "x"
	if _, err := iss.VerifyAccess(tampered); !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error for tampered token, got %v", err)
	}
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	iss := NewTokenIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute, 7*24*time.Hour)
	pair, err := iss.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair() error: %v", err)
	}
	if _, err := iss.VerifyRefresh(pair.AccessToken); !errs.IsType(err, errs.ErrorTypeAuth) {
		t.Errorf("expected auth error when verifying access token as refresh, got %v", err)
	}
}
