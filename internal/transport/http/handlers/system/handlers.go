package systemhandler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/system"
	"cityhr/internal/platform/jobs"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Handler struct {
	Service   *system.Service
	Jobs      *jobs.Service
	Metrics   *metrics.Collector
	Perms     middleware.PermissionStore
	MaxUpload int64
	Audit     *audit.Service
}

func NewHandler(service *system.Service, jobsSvc *jobs.Service, collector *metrics.Collector, perms middleware.PermissionStore, maxUpload int64) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Metrics: collector, Perms: perms, MaxUpload: maxUpload}
}

type restoreRequest struct {
	Name string `json:"name"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/info", h.handleInfo)
		r.With(middleware.RequirePermission(auth.PermSystemBackup, h.Perms)).Get("/backups", h.handleListBackups)
		r.With(middleware.RequirePermission(auth.PermSystemBackup, h.Perms)).Post("/backup", h.handleBackup)
		r.With(middleware.RequirePermission(auth.PermSystemRestore, h.Perms)).Post("/restore", h.handleRestore)
		if h.Metrics != nil {
			r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Get("/metrics", h.handleMetrics)
		}
	})
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	info, err := h.Service.Info(r.Context())
	if err != nil {
		shared.WriteError(w, err, "system_info_failed", requestID)
		return
	}
	api.Success(w, info, requestID)
}

func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	backups, err := h.Service.ListBackups()
	if err != nil {
		shared.WriteError(w, err, "backup_list_failed", requestID)
		return
	}
	api.Success(w, backups, requestID)
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobBackup, user.Username, func(ctx context.Context) (any, error) {
		return h.Service.Backup(ctx)
	})
	if err != nil {
		shared.WriteError(w, err, "backup_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "database.backup", audit.EntityDatabase, "", result)
	api.Created(w, result, requestID)
}

// handleRestore accepts either a JSON body naming a file in the backup
// directory or a multipart upload in the "file" field.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !shared.IsMultipart(r) {
		var payload restoreRequest
		if !shared.DecodeJSON(w, r, &payload, requestID) {
			return
		}
		result, err := h.Service.RestoreNamed(payload.Name)
		if err != nil {
			shared.WriteError(w, err, "restore_failed", requestID)
			return
		}
		shared.Audit(r, h.Audit, "database.restore", audit.EntityDatabase, "", result)
		api.Success(w, result, requestID)
		return
	}

	if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
		return
	}
	upload, err := shared.FormFile(r, "file")
	if err != nil {
		shared.WriteError(w, err, "restore_failed", requestID)
		return
	}
	if upload == nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "file", Reason: "is required"}})
		return
	}
	defer upload.Close()

	tmp, err := os.CreateTemp("", "cityhr-restore-*.db")
	if err != nil {
		shared.WriteError(w, apperr.ErrIO, "restore_failed", requestID)
		return
	}
	defer os.Remove(tmp.Name())
	_, copyErr := io.Copy(tmp, upload.Reader)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		shared.WriteError(w, apperr.ErrIO, "restore_failed", requestID)
		return
	}

	result, err := h.Service.Restore(tmp.Name())
	if err != nil {
		shared.WriteError(w, err, "restore_failed", requestID)
		return
	}
	result.Source = upload.Name
	shared.Audit(r, h.Audit, "database.restore", audit.EntityDatabase, "", result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}
