package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// claims is the signed payload common to both token kinds; Type
// discriminates which verifier accepts it so an access token can
// never be replayed where a refresh token is expected and vice versa.
type claims struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenID   string    `json:"tokenId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AccessClaims is what a verified access token resolves to.
type AccessClaims struct {
	UserID string
	Email  string
	Role   string
}

// TokenIssuer signs and verifies opaque bearer tokens with an HMAC
// server secret, and tracks the single currently-valid refresh token
// per user so a rotated-out refresh token is permanently rejected.
// This tracking is in-process state, grounded on the same
// map-guarded-by-RWMutex shape as a join-token registry; a process
// restart invalidates all outstanding refresh tokens, which is an
// accepted tradeoff for a single control-plane process.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu         sync.RWMutex
	activeJTIs map[string]string // userID -> current valid refresh token ID
}

// NewTokenIssuer builds an issuer from the configured signing secret.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		activeJTIs: make(map[string]string),
	}
}

// TokenPair is the bearer pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair creates a fresh access+refresh pair for user and records
// the refresh token's ID as the only one currently valid for them,
// superseding any previously issued refresh token.
func (i *TokenIssuer) IssuePair(user *types.AdminUser) (TokenPair, error) {
	jti, err := newTokenID()
	if err != nil {
		return TokenPair{}, err
	}

	access, err := i.sign(claims{
		Type:      tokenTypeAccess,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		ExpiresAt: time.Now().Add(i.accessTTL),
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := i.sign(claims{
		Type:      tokenTypeRefresh,
		UserID:    user.ID,
		TokenID:   jti,
		ExpiresAt: time.Now().Add(i.refreshTTL),
	})
	if err != nil {
		return TokenPair{}, err
	}

	i.mu.Lock()
	i.activeJTIs[user.ID] = jti
	i.mu.Unlock()

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token's signature, type, and
// expiry and returns its claims.
func (i *TokenIssuer) VerifyAccess(token string) (*AccessClaims, error) {
	c, err := i.verify(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &AccessClaims{UserID: c.UserID, Email: c.Email, Role: c.Role}, nil
}

// VerifyRefresh validates a refresh token's signature, type, expiry,
// and that it is still the active (non-rotated-out) token for its
// user. Reuse of a superseded refresh token is always rejected.
func (i *TokenIssuer) VerifyRefresh(token string) (userID string, err error) {
	c, err := i.verify(token, tokenTypeRefresh)
	if err != nil {
		return "", err
	}

	i.mu.RLock()
	current, ok := i.activeJTIs[c.UserID]
	i.mu.RUnlock()
	if !ok || !constantTimeEqual(current, c.TokenID) {
		return "", errs.NewAuthError("refresh token has been superseded")
	}
	return c.UserID, nil
}

// Revoke invalidates the active refresh token for a user, used when
// an operator deactivates or deletes an account.
func (i *TokenIssuer) Revoke(userID string) {
	i.mu.Lock()
	delete(i.activeJTIs, userID)
	i.mu.Unlock()
}

func (i *TokenIssuer) sign(c claims) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeInternal, "failed to marshal token claims")
	}
	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	sig := i.hmac(encodedPayload)
	return encodedPayload + "." + sig, nil
}

func (i *TokenIssuer) verify(token, wantType string) (*claims, error) {
	encodedPayload, sig, ok := splitToken(token)
	if !ok {
		return nil, errs.NewAuthError("malformed token")
	}

	expected := i.hmac(encodedPayload)
	if !constantTimeEqual(expected, sig) {
		return nil, errs.NewAuthError("invalid token signature")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, errs.NewAuthError("malformed token")
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, errs.NewAuthError("malformed token")
	}

	if c.Type != wantType {
		return nil, errs.NewAuthError("unexpected token type")
	}
	if time.Now().After(c.ExpiresAt) {
		return nil, errs.NewAuthError("token expired")
	}
	return &c, nil
}

func (i *TokenIssuer) hmac(data string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func splitToken(token string) (payload, sig string, ok bool) {
	for idx := len(token) - 1; idx >= 0; idx-- {
		if token[idx] == '.' {
			return token[:idx], token[idx+1:], true
		}
	}
	return "", "", false
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeInternal, "failed to generate token id")
	}
	return hex.EncodeToString(b), nil
}
