package leavehandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/leave"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermLeaveRead, h.Perms)
	write := middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)

	r.Route("/leave-types", func(r chi.Router) {
		r.With(read).Get("/", h.handleListTypes)
		r.With(write).Post("/", h.handleCreateType)
		r.With(write).Delete("/{typeID}", h.handleDeleteType)
	})
	r.Route("/leaves", func(r chi.Router) {
		r.With(read).Get("/", h.handleListRecent)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/plan", h.handlePlan)
		r.With(read).Get("/calendar", h.handleCalendar)
		r.With(read).Get("/on-leave", h.handleOnLeave)
		r.With(read).Get("/{leaveID}", h.handleGet)
		r.With(write).Put("/{leaveID}", h.handleUpdate)
		r.With(write).Delete("/{leaveID}", h.handleDelete)
	})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		shared.WriteError(w, err, "leave_type_list_failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload leave.LeaveType
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	lt, err := h.Service.CreateType(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, err, "leave_type_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "leave_type.create", audit.EntityLeaveType, lt.ID, map[string]any{"name": lt.Name, "daysPerYear": lt.DaysPerYear})
	api.Created(w, lt, requestID)
}

func (h *Handler) handleDeleteType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Service.DeleteType(r.Context(), chi.URLParam(r, "typeID")); err != nil {
		shared.WriteError(w, err, "leave_type_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "leave_type.delete", audit.EntityLeaveType, chi.URLParam(r, "typeID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	leaves, err := h.Service.ListRecent(r.Context(), shared.ParseLimit(r, defaultRecentLimit, maxRecentLimit))
	if err != nil {
		shared.WriteError(w, err, "leave_list_failed", requestID)
		return
	}
	api.Success(w, leaves, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload leave.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	l, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, err, "leave_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "leave.create", audit.EntityLeave, l.ID, map[string]any{"employeeId": l.EmployeeID, "days": l.Days})
	api.Created(w, l, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	l, err := h.Service.Get(r.Context(), chi.URLParam(r, "leaveID"))
	if err != nil {
		shared.WriteError(w, err, "leave_get_failed", requestID)
		return
	}
	api.Success(w, l, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload leave.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	l, err := h.Service.Update(r.Context(), chi.URLParam(r, "leaveID"), payload)
	if err != nil {
		shared.WriteError(w, err, "leave_update_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "leave.update", audit.EntityLeave, l.ID, map[string]any{"employeeId": l.EmployeeID, "days": l.Days})
	api.Success(w, l, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "leaveID")); err != nil {
		shared.WriteError(w, err, "leave_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "leave.delete", audit.EntityLeave, chi.URLParam(r, "leaveID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := v.Int("year", r.URL.Query().Get("year"), time.Now().Year(), 1900, 9999)
	if v.Reject(w, requestID) {
		return
	}
	plan, err := h.Service.Plan(r.Context(), year, r.URL.Query().Get("name"))
	if err != nil {
		shared.WriteError(w, err, "leave_plan_failed", requestID)
		return
	}
	api.Success(w, plan, requestID)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	now := time.Now()
	v := shared.NewValidator()
	year := v.Int("year", r.URL.Query().Get("year"), now.Year(), 1900, 9999)
	month := v.Int("month", r.URL.Query().Get("month"), int(now.Month()), 1, 12)
	if v.Reject(w, requestID) {
		return
	}
	cal, err := h.Service.Calendar(r.Context(), year, time.Month(month))
	if err != nil {
		shared.WriteError(w, err, "leave_calendar_failed", requestID)
		return
	}
	api.Success(w, cal, requestID)
}

func (h *Handler) handleOnLeave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	day := v.Date("date", r.URL.Query().Get("date"))
	if v.Reject(w, requestID) {
		return
	}
	leaves, err := h.Service.OnLeave(r.Context(), day)
	if err != nil {
		shared.WriteError(w, err, "on_leave_failed", requestID)
		return
	}
	api.Success(w, leaves, requestID)
}
