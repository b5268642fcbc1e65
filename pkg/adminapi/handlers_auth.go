package adminapi

import (
	"net/http"

	"github.com/deenmate/sync-core/pkg/auth"
	"github.com/deenmate/sync-core/pkg/errs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type tokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         userSummary `json:"user,omitempty"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErr(w, errs.NewValidationError("email and password are required"))
		return
	}

	result, err := h.deps.AuthService.Login(r.Context(), req.Email, req.Password, actionContext(r))
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, tokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         userSummary{ID: result.User.ID, Email: result.User.Email, Role: string(result.User.Role)},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeErr(w, errs.NewValidationError("refreshToken is required"))
		return
	}

	result, err := h.deps.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, tokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         userSummary{ID: result.User.ID, Email: result.User.Email, Role: string(result.User.Role)},
	})
}

func (h *handlers) passwordRequirements(w http.ResponseWriter, r *http.Request) {
	writeOK(w, auth.PasswordRequirements())
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	user := currentUser(r)
	if err := h.deps.AuthService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword, actionContext(r)); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "password changed")
}
