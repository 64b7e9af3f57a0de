package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"identity-service/internal/security"
	userdomain "identity-service/internal/user/domain"
	userrepo "identity-service/internal/user/repository"
)

// UsersHandler serves the administrative user CRUD endpoints.
type UsersHandler struct {
	repo   userrepo.Repository
	hasher *security.Hasher
}

func NewUsersHandler(repo userrepo.Repository, hasher *security.Hasher) *UsersHandler {
	return &UsersHandler{repo: repo, hasher: hasher}
}

type createUserRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	RoleIDs   []int64 `json:"roleIds"`
}

type updateUserRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	RoleIDs   *[]int64 `json:"roleIds"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	out := make([]profileResponse, 0, len(users))
	for i := range users {
		out = append(out, profilePayload(&users[i]))
	}
	WriteSuccess(w, r, http.StatusOK, "users", out)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if user == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	WriteSuccess(w, r, http.StatusOK, "user", profilePayload(user))
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	if req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "password is required")
		return
	}
	hash, err := h.hasher.Hash([]byte(req.Password))
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	user := &userdomain.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := user.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), user, req.RoleIDs); err != nil {
		WriteInternal(w, r, err)
		return
	}
	created, err := h.repo.GetByID(r.Context(), user.ID)
	if err != nil || created == nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusCreated, "user created", profilePayload(created))
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	user, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if user == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if err := user.Validate(); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), user); err != nil {
		WriteInternal(w, r, err)
		return
	}
	if req.RoleIDs != nil {
		if err := h.repo.ReplaceRoles(r.Context(), user.ID, *req.RoleIDs); err != nil {
			WriteInternal(w, r, err)
			return
		}
	}
	updated, err := h.repo.GetByID(r.Context(), user.ID)
	if err != nil || updated == nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, "user updated", profilePayload(updated))
}

func (h *UsersHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "user disabled")
}

func (h *UsersHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "user enabled")
}

func (h *UsersHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id := chi.URLParam(r, "id")
	user, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if user == nil {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	if err := h.repo.SetActive(r.Context(), id, active); err != nil {
		WriteInternal(w, r, err)
		return
	}
	WriteSuccess(w, r, http.StatusOK, message, map[string]string{"message": message})
}
