package adminapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deenmate/sync-core/pkg/auth"
	"github.com/deenmate/sync-core/pkg/errs"
	"github.com/deenmate/sync-core/pkg/types"
)

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.Gateway.ListAdminUsers(r.Context())
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list admin users"))
		return
	}
	writeOK(w, users)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.deps.Gateway.GetAdminUserByID(r.Context(), id)
	if err != nil || user == nil {
		writeErr(w, errs.NewNotFoundError("admin user"))
		return
	}
	writeOK(w, user)
}

type createUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Email == "" {
		writeErr(w, errs.NewValidationError("email is required"))
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeErr(w, err)
		return
	}
	role := types.Role(req.Role)
	if role == "" {
		role = types.RoleViewer
	}

	hash, err := auth.HashPassword(req.Password, h.deps.BcryptCost)
	if err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now()
	user := &types.AdminUser{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.deps.Gateway.CreateAdminUser(r.Context(), user); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "create admin user"))
		return
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionCreateUser, "admin_user", &user.ID,
		map[string]interface{}{"email": user.Email, "role": string(user.Role)}, ip, ua)

	writeData(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	Active    *bool   `json:"active"`
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	user, err := h.deps.Gateway.GetAdminUserByID(r.Context(), id)
	if err != nil || user == nil {
		writeErr(w, errs.NewNotFoundError("admin user"))
		return
	}

	wasActiveSuperAdmin := user.Role == types.RoleSuperAdmin && user.Active

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = types.Role(*req.Role)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	stillActiveSuperAdmin := user.Role == types.RoleSuperAdmin && user.Active
	if wasActiveSuperAdmin && !stillActiveSuperAdmin {
		if err := h.ensureAnotherActiveSuperAdmin(r.Context(), user.ID); err != nil {
			writeErr(w, err)
			return
		}
	}

	if req.Active != nil && !user.Active {
		h.deps.Tokens.Revoke(user.ID)
	}
	user.UpdatedAt = time.Now()

	if err := h.deps.Gateway.UpdateAdminUser(r.Context(), user); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "update admin user"))
		return
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionUpdateUser, "admin_user", &user.ID, nil, ip, ua)

	writeOK(w, user)
}

type updatePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (h *handlers) updateUserPermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updatePermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	user, err := h.deps.Gateway.GetAdminUserByID(r.Context(), id)
	if err != nil || user == nil {
		writeErr(w, errs.NewNotFoundError("admin user"))
		return
	}
	user.Permissions = req.Permissions
	user.UpdatedAt = time.Now()

	if err := h.deps.Gateway.UpdateAdminUser(r.Context(), user); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "update admin user permissions"))
		return
	}

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionUpdateUser, "admin_user", &user.ID,
		map[string]interface{}{"permissions": req.Permissions}, ip, ua)

	writeOK(w, user)
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *handlers) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	actor := currentUser(r)
	if err := h.deps.AuthService.ResetPassword(r.Context(), id, req.NewPassword, actor.ID, actionContext(r)); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "password reset")
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	target, err := h.deps.Gateway.GetAdminUserByID(r.Context(), id)
	if err != nil || target == nil {
		writeErr(w, errs.NewNotFoundError("admin user"))
		return
	}
	if target.Role == types.RoleSuperAdmin && target.Active {
		if err := h.ensureAnotherActiveSuperAdmin(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
	}

	if err := h.deps.Gateway.DeleteAdminUser(r.Context(), id); err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "delete admin user"))
		return
	}
	h.deps.Tokens.Revoke(id)

	actor := currentUser(r)
	ip, ua := auditMeta(r)
	h.deps.Auditor.Record(r.Context(), &actor.ID, types.ActionDeleteUser, "admin_user", &id, nil, ip, ua)

	writeMessage(w, http.StatusOK, "user deleted")
}

type userStatsResponse struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	ByRole   map[string]int `json:"byRole"`
	Inactive int            `json:"inactive"`
}

func (h *handlers) userStats(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.Gateway.ListAdminUsers(r.Context())
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list admin users"))
		return
	}

	stats := userStatsResponse{ByRole: make(map[string]int)}
	for _, u := range users {
		stats.Total++
		if u.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByRole[string(u.Role)]++
	}
	writeOK(w, stats)
}

// ensureAnotherActiveSuperAdmin enforces the invariant that at least one
// active super_admin always exists. excludeID is the user about to be
// deactivated, demoted, or deleted, so it is not counted against itself.
func (h *handlers) ensureAnotherActiveSuperAdmin(ctx context.Context, excludeID string) error {
	users, err := h.deps.Gateway.ListAdminUsers(ctx)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeStorage, "list admin users")
	}
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		if u.Role == types.RoleSuperAdmin && u.Active {
			return nil
		}
	}
	return errs.NewConflictError("cannot remove the last active super_admin")
}

func (h *handlers) auditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagingParams(r, 50, 200)
	entries, err := h.deps.Gateway.ListAuditLog(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, errs.Wrap(err, errs.ErrorTypeStorage, "list audit log"))
		return
	}
	writeOK(w, entries)
}
