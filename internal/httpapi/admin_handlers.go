package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"taskora.org/internal/audit"
	"taskora.org/internal/auth"
)

type adminUpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	var filter auth.UserFilter
	q := r.URL.Query()
	if role := strings.TrimSpace(q.Get("role")); role != "" {
		filter.Role = &role
	}
	if prefix := strings.TrimSpace(q.Get("username")); prefix != "" {
		filter.UsernamePrefix = &prefix
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "is_active must be a boolean")
			return
		}
		filter.IsActive = &active
	}
	users, err := a.auth.ListUsers(r.Context(), identity, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleAdminUserScoped routes /admin/users/{id} and /admin/users/{id}/todos.
func (a *API) handleAdminUserScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/users/"), "/")
	parts := strings.Split(path, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "Resource not found.")
		return
	}
	switch {
	case len(parts) == 1:
		a.handleAdminUserByID(w, r, identity, id)
	case len(parts) == 2 && parts[1] == "todos":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		list, err := a.todos.AdminListByOwner(r.Context(), identity, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	default:
		writeError(w, r, http.StatusNotFound, "Resource not found.")
	}
}

func (a *API) handleAdminUserByID(w http.ResponseWriter, r *http.Request, identity auth.Identity, id int64) {
	switch r.Method {
	case http.MethodGet:
		user, err := a.auth.GetUser(r.Context(), identity, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req adminUpdateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), identity, id, auth.UserUpdate{
			Username:    req.Username,
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Role:        req.Role,
			IsActive:    req.IsActive,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.user.updated", map[string]any{
			"target_user_id": user.ID,
		})
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := a.auth.DeleteUser(r.Context(), identity, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		// The SQL store cascades this; the in-memory store needs it explicit.
		if err := a.todos.AdminPurgeOwner(r.Context(), identity, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.user.deleted", map[string]any{
			"target_user_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleAdminTodoByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/admin/todos/")
	if !ok {
		return
	}
	item, err := a.todos.AdminGet(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
