package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"taskora.org/internal/audit"
	"taskora.org/internal/todo"
)

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	Complete    *bool   `json:"complete"`
}

func (a *API) handleTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.todos.List(r.Context(), identity)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createTodoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.todos.Create(r.Context(), identity, todo.CreateRequest{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Complete:    req.Complete,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "todo.created", map[string]any{
			"todo_id": created.ID,
		})
		w.Header().Set("Location", fmt.Sprintf("/todos/%d", created.ID))
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Todo created successfully.",
		})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTodoByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/todos/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := a.todos.Get(r.Context(), identity, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		var req updateTodoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		item, err := a.todos.Update(r.Context(), identity, id, todo.Update{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Complete:    req.Complete,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "todo.updated", map[string]any{
			"todo_id": item.ID,
		})
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := a.todos.Delete(r.Context(), identity, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "todo.deleted", map[string]any{
			"todo_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// pathID parses the numeric id that follows prefix. An unparseable id is a
// 404, matching how a missing resource looks.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "Resource not found.")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "Resource not found.")
		return 0, false
	}
	return id, true
}
