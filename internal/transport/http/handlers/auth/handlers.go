package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *auth.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRoutes mounts the authenticated account and user routes. Login is
// mounted separately so it can carry its own rate limit.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/auth/me", h.handleMe)
	r.With(middleware.RequireAuth).Post("/auth/password", h.handleChangePassword)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage, h.Perms))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Delete("/{userID}", h.handleDeleteUser)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Username, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		shared.WriteError(w, err, "login_failed", requestID)
		return
	}
	api.Success(w, session, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	perms := auth.RolePermissions[user.Role]
	api.Success(w, map[string]any{
		"id":          user.UserID,
		"username":    user.Username,
		"role":        user.Role,
		"permissions": perms,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload auth.PasswordChange
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload); err != nil {
		shared.WriteError(w, err, "password_change_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "user.password_change", audit.EntityUser, user.UserID, nil)
	api.Success(w, map[string]string{"status": "password_changed"}, requestID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		shared.WriteError(w, err, "user_list_failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload auth.NewUser
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, err, "user_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "user.create", audit.EntityUser, user.ID, map[string]string{"username": user.Username, "role": user.Role})
	api.Created(w, user, requestID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteUser(r.Context(), actor.UserID, chi.URLParam(r, "userID")); err != nil {
		shared.WriteError(w, err, "user_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "user.delete", audit.EntityUser, chi.URLParam(r, "userID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}
