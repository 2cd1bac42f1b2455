package corehandler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/domain/audit"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/core"
	"cityhr/internal/domain/leave"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Handler struct {
	Employees *core.Service
	Leaves    *leave.Service
	Perms     middleware.PermissionStore
	MaxUpload int64
	Audit     *audit.Service
}

func NewHandler(employees *core.Service, leaves *leave.Service, perms middleware.PermissionStore, maxUpload int64) *Handler {
	return &Handler{Employees: employees, Leaves: leaves, Perms: perms, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)

	r.Route("/employees", func(r chi.Router) {
		r.With(read).Get("/", h.handleListEmployees)
		r.With(write).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetEmployee)
			r.With(write).Put("/", h.handleUpdateEmployee)
			r.With(write).Delete("/", h.handleDeleteEmployee)

			r.With(read).Get("/photo", h.handleGetPhoto)
			r.With(write).Put("/photo", h.handleUploadPhoto)

			r.With(read).Get("/career-acts", h.handleListCareerActs)
			r.With(write).Post("/career-acts", h.handleCreateCareerAct)
			r.With(write).Delete("/career-acts/{actID}", h.handleDeleteCareerAct)
			r.With(read).Get("/career-acts/{actID}/document", h.handleCareerActDocument)

			r.With(read).Get("/documents", h.handleListDocuments)
			r.With(write).Post("/documents", h.handleUploadDocument)
			r.With(write).Put("/documents/{documentID}", h.handleUpdateDocument)
			r.With(write).Delete("/documents/{documentID}", h.handleDeleteDocument)
			r.With(read).Get("/documents/{documentID}/file", h.handleDownloadDocument)

			r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/leaves", h.handleLeaveHistory)
			r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances", h.handleBalances)
		})
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employees, err := h.Employees.List(r.Context(), core.EmployeeFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		shared.WriteError(w, err, "employee_list_failed", requestID)
		return
	}
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user)
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Employees.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, "employee_get_failed", requestID)
		return
	}
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, requestID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload core.EmployeeInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	emp, err := h.Employees.Create(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, err, "employee_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "employee.create", audit.EntityEmployee, emp.ID, map[string]string{"matricule": emp.Matricule})
	core.FilterEmployeeFields(&emp, user)
	api.Created(w, emp, requestID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload core.EmployeeInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload.KeepSensitive = user.Role != auth.RoleAdmin
	emp, err := h.Employees.Update(r.Context(), chi.URLParam(r, "employeeID"), payload)
	if err != nil {
		shared.WriteError(w, err, "employee_update_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "employee.update", audit.EntityEmployee, emp.ID, nil)
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, requestID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Employees.Delete(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
		shared.WriteError(w, err, "employee_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "employee.delete", audit.EntityEmployee, chi.URLParam(r, "employeeID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
		return
	}
	upload, err := shared.FormFile(r, "photo")
	if err != nil {
		shared.WriteError(w, err, "photo_upload_failed", requestID)
		return
	}
	if upload == nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "photo", Reason: "is required"}})
		return
	}
	defer upload.Close()
	emp, err := h.Employees.UploadPhoto(r.Context(), chi.URLParam(r, "employeeID"), upload.Name, upload.Reader)
	if err != nil {
		shared.WriteError(w, err, "photo_upload_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "employee.photo", audit.EntityEmployee, emp.ID, nil)
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, requestID)
}

func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.Employees.OpenPhoto(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, "photo_open_failed", middleware.GetRequestID(r.Context()))
		return
	}
	shared.ServeFile(w, rc, name)
}

func (h *Handler) handleListCareerActs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	acts, err := h.Employees.ListCareerActs(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, "career_act_list_failed", requestID)
		return
	}
	api.Success(w, acts, requestID)
}

// handleCreateCareerAct accepts a JSON body, or a multipart form with the act
// as JSON in "data" and an optional scan in "file".
func (h *Handler) handleCreateCareerAct(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload core.CareerActInput
	var upload *shared.Upload
	if shared.IsMultipart(r) {
		if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
			return
		}
		if err := shared.FormJSON(r, "data", &payload); err != nil {
			shared.WriteError(w, err, "career_act_create_failed", requestID)
			return
		}
		var err error
		if upload, err = shared.FormFile(r, "file"); err != nil {
			shared.WriteError(w, err, "career_act_create_failed", requestID)
			return
		}
		defer upload.Close()
	} else if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	var act core.CareerAct
	var err error
	if upload != nil {
		act, err = h.Employees.CreateCareerAct(r.Context(), chi.URLParam(r, "employeeID"), payload, upload.Name, upload.Reader)
	} else {
		act, err = h.Employees.CreateCareerAct(r.Context(), chi.URLParam(r, "employeeID"), payload, "", nil)
	}
	if err != nil {
		shared.WriteError(w, err, "career_act_create_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "career_act.create", audit.EntityCareerAct, act.ID, map[string]string{"employeeId": act.EmployeeID, "actNumber": act.ActNumber})
	api.Created(w, act, requestID)
}

func (h *Handler) handleDeleteCareerAct(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Employees.DeleteCareerAct(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "actID")); err != nil {
		shared.WriteError(w, err, "career_act_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "career_act.delete", audit.EntityCareerAct, chi.URLParam(r, "actID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleCareerActDocument(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.Employees.OpenCareerActDocument(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "actID"))
	if err != nil {
		shared.WriteError(w, err, "career_act_document_failed", middleware.GetRequestID(r.Context()))
		return
	}
	shared.ServeFile(w, rc, name)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	docs, err := h.Employees.ListDocuments(r.Context(), chi.URLParam(r, "employeeID"), r.URL.Query().Get("category"))
	if err != nil {
		shared.WriteError(w, err, "document_list_failed", requestID)
		return
	}
	api.Success(w, docs, requestID)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
		return
	}
	upload, err := shared.FormFile(r, "file")
	if err != nil {
		shared.WriteError(w, err, "document_upload_failed", requestID)
		return
	}
	in := core.DocumentInput{Name: r.FormValue("name"), Category: r.FormValue("category")}
	var doc core.Document
	if upload == nil {
		doc, err = h.Employees.UploadDocument(r.Context(), chi.URLParam(r, "employeeID"), in, "", nil)
	} else {
		defer upload.Close()
		doc, err = h.Employees.UploadDocument(r.Context(), chi.URLParam(r, "employeeID"), in, upload.Name, upload.Reader)
	}
	if err != nil {
		shared.WriteError(w, err, "document_upload_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "document.create", audit.EntityDocument, doc.ID, map[string]string{"employeeId": doc.EmployeeID, "name": doc.Name})
	api.Created(w, doc, requestID)
}

func (h *Handler) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload core.DocumentInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	doc, err := h.Employees.UpdateDocument(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "documentID"), payload)
	if err != nil {
		shared.WriteError(w, err, "document_update_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "document.update", audit.EntityDocument, doc.ID, nil)
	api.Success(w, doc, requestID)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Employees.DeleteDocument(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "documentID")); err != nil {
		shared.WriteError(w, err, "document_delete_failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "document.delete", audit.EntityDocument, chi.URLParam(r, "documentID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	rc, doc, err := h.Employees.OpenDocument(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, err, "document_open_failed", middleware.GetRequestID(r.Context()))
		return
	}
	shared.ServeFile(w, rc, filepath.Base(doc.FilePath))
}

func (h *Handler) handleLeaveHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	leaves, err := h.Leaves.EmployeeHistory(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, "leave_history_failed", requestID)
		return
	}
	api.Success(w, leaves, requestID)
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year := v.Int("year", r.URL.Query().Get("year"), time.Now().Year(), 1900, 9999)
	if v.Reject(w, requestID) {
		return
	}
	balances, err := h.Leaves.Balances(r.Context(), chi.URLParam(r, "employeeID"), year)
	if err != nil {
		shared.WriteError(w, err, "balance_failed", requestID)
		return
	}
	api.Success(w, balances, requestID)
}
