package server

import (
	"net/http"

	permissiondomain "identity-service/internal/permission/domain"
	permissionrepo "identity-service/internal/permission/repository"
)

// PermissionsHandler serves the administrative permission CRUD endpoints.
type PermissionsHandler struct {
	repo permissionrepo.Repository
}

func NewPermissionsHandler(repo permissionrepo.Repository) *PermissionsHandler {
	return &PermissionsHandler{repo: repo}
}

type permissionNameRequest struct {
	Name string `json:"name"`
}

func (h *PermissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.repo.List(r.Context())
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionPayload(p))
	}
	WriteSuccess(w, r, http.StatusOK, "permissions", out)
}

func (h *PermissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	perm, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if perm == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "permission not found")
		return
	}
	WriteSuccess(w, r, http.StatusOK, "permission", permissionPayload(*perm))
}

func (h *PermissionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req permissionNameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	perm := &permissiondomain.Permission{Name: req.Name, IsActive: true}
	if err := perm.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), perm); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusCreated, "permission created", permissionPayload(*perm))
}

func (h *PermissionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req permissionNameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	perm, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if perm == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "permission not found")
		return
	}
	perm.Name = req.Name
	if err := perm.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), perm); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, "permission updated", permissionPayload(*perm))
}

func (h *PermissionsHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "permission disabled")
}

func (h *PermissionsHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "permission enabled")
}

func (h *PermissionsHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	perm, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if perm == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "permission not found")
		return
	}
	if err := h.repo.SetActive(r.Context(), id, active); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, message, map[string]string{"message": message})
}
