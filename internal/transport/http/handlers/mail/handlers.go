package mailhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/mail"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Handler struct {
	Service   *mail.Service
	Perms     middleware.PermissionStore
	MaxUpload int64
	Audit     *audit.Service
}

func NewHandler(service *mail.Service, perms middleware.PermissionStore, maxUpload int64) *Handler {
	return &Handler{Service: service, Perms: perms, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermMailRead, h.Perms)
	write := middleware.RequirePermission(auth.PermMailWrite, h.Perms)

	r.Route("/mail", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/totals", h.handleTotals)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{entryID}", h.handleGet)
		r.With(write).Put("/{entryID}", h.handleUpdate)
		r.With(write).Delete("/{entryID}", h.handleDelete)
		r.With(read).Get("/{entryID}/attachment", h.handleAttachment)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entries, err := h.Service.List(r.Context(), mail.Filter{
		Direction: r.URL.Query().Get("direction"),
		Query:     r.URL.Query().Get("q"),
	})
	if err != nil {
		shared.WriteError(w, err, "mail_list_failed", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.Totals(r.Context())
	if err != nil {
		shared.WriteError(w, err, "mail_totals_failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, totals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entry, err := h.Service.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		shared.WriteError(w, err, "mail_get_failed", requestID)
		return
	}
	api.Success(w, entry, requestID)
}

// readInput accepts a JSON body, or a multipart form with the entry as JSON
// in "data" and an optional attachment in "file".
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request, requestID string) (mail.Input, *shared.Upload, bool) {
	var payload mail.Input
	if !shared.IsMultipart(r) {
		return payload, nil, shared.DecodeJSON(w, r, &payload, requestID)
	}
	if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
		return payload, nil, false
	}
	if err := shared.FormJSON(r, "data", &payload); err != nil {
		shared.WriteError(w, err, "mail_invalid_form", requestID)
		return payload, nil, false
	}
	upload, err := shared.FormFile(r, "file")
	if err != nil {
		shared.WriteError(w, err, "mail_invalid_form", requestID)
		return payload, nil, false
	}
	return payload, upload, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payload, upload, ok := h.readInput(w, r, requestID)
	if !ok {
		return
	}
	defer upload.Close()

	var entry mail.Entry
	var err error
	if upload != nil {
		entry, err = h.Service.Create(r.Context(), payload, user.Username, upload.Name, upload.Reader)
	} else {
		entry, err = h.Service.Create(r.Context(), payload, user.Username, "", nil)
	}
	if err != nil {
		shared.WriteError(w, err, "mail_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "mail.create", audit.EntityMail, entry.ID, map[string]string{"orderNumber": entry.OrderNumber})
	api.Created(w, entry, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	payload, upload, ok := h.readInput(w, r, requestID)
	if !ok {
		return
	}
	defer upload.Close()

	var entry mail.Entry
	var err error
	if upload != nil {
		entry, err = h.Service.Update(r.Context(), chi.URLParam(r, "entryID"), payload, upload.Name, upload.Reader)
	} else {
		entry, err = h.Service.Update(r.Context(), chi.URLParam(r, "entryID"), payload, "", nil)
	}
	if err != nil {
		shared.WriteError(w, err, "mail_update_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "mail.update", audit.EntityMail, entry.ID, nil)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		shared.WriteError(w, err, "mail_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "mail.delete", audit.EntityMail, chi.URLParam(r, "entryID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleAttachment(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.Service.OpenAttachment(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		shared.WriteError(w, err, "mail_attachment_failed", middleware.GetRequestID(r.Context()))
		return
	}
	shared.ServeFile(w, rc, name)
}
