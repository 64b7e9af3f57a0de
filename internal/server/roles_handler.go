package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	permissiondomain "identity-service/internal/permission/domain"
	roledomain "identity-service/internal/role/domain"
	rolerepo "identity-service/internal/role/repository"
)

// RolesHandler serves the administrative role CRUD and permission
// assignment endpoints.
type RolesHandler struct {
	repo rolerepo.Repository
}

func NewRolesHandler(repo rolerepo.Repository) *RolesHandler {
	return &RolesHandler{repo: repo}
}

type roleNameRequest struct {
	Name string `json:"name"`
}

type rolePermissionsRequest struct {
	PermissionIDs []int64 `json:"permissionIds"`
}

type permissionResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type roleResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	IsActive    bool                 `json:"isActive"`
	Permissions []permissionResponse `json:"permissions"`
}

func rolePayload(role *roledomain.Role) roleResponse {
	perms := make([]permissionResponse, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		perms = append(perms, permissionPayload(p))
	}
	return roleResponse{ID: role.ID, Name: role.Name, IsActive: role.IsActive, Permissions: perms}
}

func permissionPayload(p permissiondomain.Permission) permissionResponse {
	return permissionResponse{ID: p.ID, Name: p.Name, IsActive: p.IsActive}
}

// urlID parses the numeric {id} route parameter. Writes a 400 and
// returns false on failure.
func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.repo.List(r.Context())
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, rolePayload(&roles[i]))
	}
	WriteSuccess(w, r, http.StatusOK, "roles", out)
}

func (h *RolesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	role, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if role == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "role not found")
		return
	}
	WriteSuccess(w, r, http.StatusOK, "role", rolePayload(role))
}

func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleNameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	role := &roledomain.Role{Name: req.Name, IsActive: true}
	if err := role.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), role); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusCreated, "role created", rolePayload(role))
}

func (h *RolesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req roleNameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	role, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if role == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "role not found")
		return
	}
	role.Name = req.Name
	if err := role.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), role); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, "role updated", rolePayload(role))
}

func (h *RolesHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "role disabled")
}

func (h *RolesHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "role enabled")
}

func (h *RolesHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	role, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if role == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "role not found")
		return
	}
	if err := h.repo.SetActive(r.Context(), id, active); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, message, map[string]string{"message": message})
}

// AssignPermissions handles POST /admin/roles/{id}/permissions.
func (h *RolesHandler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	h.changePermissions(w, r, h.repo.AssignPermissions, "permissions assigned")
}

// RemovePermissions handles DELETE /admin/roles/{id}/permissions.
func (h *RolesHandler) RemovePermissions(w http.ResponseWriter, r *http.Request) {
	h.changePermissions(w, r, h.repo.RemovePermissions, "permissions removed")
}

func (h *RolesHandler) changePermissions(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, roleID int64, permissionIDs []int64) error,
	message string,
) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req rolePermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if len(req.PermissionIDs) == 0 {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "permissionIds is required")
		return
	}
	role, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if role == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "role not found")
		return
	}
	if err := apply(r.Context(), id, req.PermissionIDs); err != nil {
		WriteInternal(w, r, err)
		return
	}
	updated, err := h.repo.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, message, rolePayload(updated))
}
