package reportshandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/reports"
	"cityhr/internal/platform/jobs"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Jobs    *jobs.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, jobsSvc *jobs.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/statistics", h.handleStatistics)
		r.Get("/annual-leave", h.handleAnnualLeave)
		r.Post("/", h.handleGenerate)
		r.Get("/files/{name}", h.handleDownload)
		r.Get("/jobs", h.handleListJobs)
		r.Get("/jobs/{runID}", h.handleGetJob)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context())
	if err != nil {
		shared.WriteError(w, err, "dashboard_failed", requestID)
		return
	}
	api.Success(w, dashboard, requestID)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := v.Int("year", r.URL.Query().Get("year"), time.Now().Year(), 1900, 9999)
	if v.Reject(w, requestID) {
		return
	}
	stats, err := h.Service.Statistics(r.Context(), year)
	if err != nil {
		shared.WriteError(w, err, "statistics_failed", requestID)
		return
	}
	api.Success(w, stats, requestID)
}

func (h *Handler) handleAnnualLeave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := v.Int("year", r.URL.Query().Get("year"), time.Now().Year(), 1900, 9999)
	if v.Reject(w, requestID) {
		return
	}
	rows, err := h.Service.AnnualLeave(r.Context(), year)
	if err != nil {
		shared.WriteError(w, err, "annual_leave_failed", requestID)
		return
	}
	api.Success(w, rows, requestID)
}

// handleGenerate writes a report file. With ?async=true the work is queued
// and the job run ID is returned for polling.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload reports.Request
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload, err := reports.Normalize(payload)
	if err != nil {
		shared.WriteError(w, err, "report_generation_failed", requestID)
		return
	}
	run := func(ctx context.Context) (any, error) {
		return h.Service.Generate(ctx, payload)
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		runID, err := h.Jobs.Enqueue(r.Context(), jobs.JobReport, user.Username, run)
		if err != nil {
			shared.WriteError(w, err, "report_enqueue_failed", requestID)
			return
		}
		api.Accepted(w, map[string]string{"jobId": runID, "status": jobs.StatusQueued}, requestID)
		return
	}

	result, err := h.Jobs.RunNow(r.Context(), jobs.JobReport, user.Username, run)
	if err != nil {
		shared.WriteError(w, err, "report_generation_failed", requestID)
		return
	}
	api.Created(w, result, requestID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := h.Service.Open(name)
	if err != nil {
		shared.WriteError(w, err, "report_open_failed", middleware.GetRequestID(r.Context()))
		return
	}
	shared.ServeFile(w, f, name)
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runs, err := h.Jobs.List(r.Context(), jobs.JobReport, shared.ParseLimit(r, 20, 200))
	if err != nil {
		shared.WriteError(w, err, "job_list_failed", requestID)
		return
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	run, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		shared.WriteError(w, err, "job_get_failed", requestID)
		return
	}
	api.Success(w, run, requestID)
}
