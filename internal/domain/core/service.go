package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/dates"
	cryptoutil "cityhr/internal/platform/crypto"
	"cityhr/internal/platform/storage"
	"cityhr/internal/platform/textmatch"
)

var photoExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

type Service struct {
	store  *Store
	crypto *cryptoutil.Service
	files  storage.Store
	now    func() time.Time
}

func NewService(store *Store, crypto *cryptoutil.Service, files storage.Store) *Service {
	if crypto == nil {
		crypto, _ = cryptoutil.New("")
	}
	return &Service{store: store, crypto: crypto, files: files, now: time.Now}
}

// List returns employees ordered by last then first name. The query matches
// matricule, first or last name ignoring case and accents.
func (s *Service) List(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	status := strings.TrimSpace(filter.Status)
	if status != "" && !slices.Contains(Statuses, status) {
		return nil, apperr.Invalid("status", "must be one of "+strings.Join(Statuses, ", "))
	}
	all, err := s.store.ListEmployees(ctx, status)
	if err != nil {
		return nil, err
	}
	q := strings.TrimSpace(filter.Query)
	out := make([]Employee, 0, len(all))
	for _, e := range all {
		if q != "" && !textmatch.ContainsAny(q, e.Matricule, e.FirstName, e.LastName, e.FullName(), e.LastName+" "+e.FirstName) {
			continue
		}
		if err := s.open(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if err := s.open(&e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountEmployees(ctx)
}

func (s *Service) Create(ctx context.Context, in EmployeeInput) (Employee, error) {
	e, err := buildEmployee(in)
	if err != nil {
		return Employee{}, err
	}
	exists, err := s.store.MatriculeExists(ctx, e.Matricule)
	if err != nil {
		return Employee{}, err
	}
	if exists {
		return Employee{}, apperr.Invalid("matricule", "already exists")
	}
	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.seal(&e); err != nil {
		return Employee{}, err
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return s.Get(ctx, e.ID)
}

// Update edits an employee in place. The matricule cannot change once set.
// A sensitive field sent back in its masked form keeps its stored value.
func (s *Service) Update(ctx context.Context, id string, in EmployeeInput) (Employee, error) {
	current, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if m := strings.TrimSpace(in.Matricule); m == "" {
		in.Matricule = current.Matricule
	} else if m != current.Matricule {
		return Employee{}, apperr.Invalid("matricule", "cannot be changed")
	}
	e, err := buildEmployee(in)
	if err != nil {
		return Employee{}, err
	}
	if err := s.open(&current); err != nil {
		return Employee{}, err
	}
	e.BankDetails = keepSensitive(in.KeepSensitive, e.BankDetails, current.BankDetails)
	e.SocialSecurityNo = keepSensitive(in.KeepSensitive, e.SocialSecurityNo, current.SocialSecurityNo)
	e.ID = current.ID
	e.UpdatedAt = s.now().UTC()
	if err := s.seal(&e); err != nil {
		return Employee{}, err
	}
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes the employee with its leaves, career acts and documents,
// then the attached files. File removal failures are only logged.
func (s *Service) Delete(ctx context.Context, id string) error {
	refs, err := s.store.AttachedFiles(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	for _, ref := range refs {
		s.removeFile(ctx, ref)
	}
	return nil
}

func (s *Service) UploadPhoto(ctx context.Context, id, filename string, r io.Reader) (Employee, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(photoExtensions, ext) {
		return Employee{}, apperr.Invalid("photo", "must be a jpg, jpeg, png, gif or bmp image")
	}
	current, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	ref, err := s.files.Save(ctx, storage.AreaPhotos, storage.Name("emp", id, filename, s.now()), r)
	if err != nil {
		return Employee{}, err
	}
	if err := s.store.SetPhoto(ctx, id, ref); err != nil {
		s.removeFile(ctx, ref)
		return Employee{}, err
	}
	if current.PhotoPath != "" && current.PhotoPath != ref {
		s.removeFile(ctx, current.PhotoPath)
	}
	return s.Get(ctx, id)
}

// OpenPhoto returns the photo content and its stored name.
func (s *Service) OpenPhoto(ctx context.Context, id string) (io.ReadCloser, string, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if e.PhotoPath == "" {
		return nil, "", fmt.Errorf("%w: employee %s has no photo", apperr.ErrNotFound, id)
	}
	rc, err := s.files.Open(ctx, e.PhotoPath)
	return rc, filepath.Base(e.PhotoPath), err
}

func (s *Service) ListCareerActs(ctx context.Context, employeeID string) ([]CareerAct, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListCareerActs(ctx, employeeID)
}

// CreateCareerAct records an act; filename and r may be empty when no scan is
// attached.
func (s *Service) CreateCareerAct(ctx context.Context, employeeID string, in CareerActInput, filename string, r io.Reader) (CareerAct, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return CareerAct{}, err
	}
	var issues apperr.Fields
	act := CareerAct{
		EmployeeID: employeeID,
		ActNumber:  strings.TrimSpace(in.ActNumber),
		Nature:     strings.TrimSpace(in.Nature),
		Subject:    strings.TrimSpace(in.Subject),
	}
	if act.ActNumber == "" {
		issues.Add("actNumber", "is required")
	}
	if !slices.Contains(Natures, act.Nature) {
		issues.Add("nature", "must be one of "+strings.Join(Natures, ", "))
	}
	act.ActDate = requiredDate(&issues, "actDate", in.ActDate)
	act.EffectiveDate = optionalDate(&issues, "effectiveDate", in.EffectiveDate)
	if err := issues.Err(); err != nil {
		return CareerAct{}, err
	}
	act.ID = uuid.NewString()
	act.CreatedAt = s.now().UTC()
	if r != nil && filename != "" {
		ref, err := s.files.Save(ctx, storage.AreaDocuments, storage.Name("act", employeeID, filename, s.now()), r)
		if err != nil {
			return CareerAct{}, err
		}
		act.DocumentPath = ref
	}
	if err := s.store.CreateCareerAct(ctx, act); err != nil {
		if act.DocumentPath != "" {
			s.removeFile(ctx, act.DocumentPath)
		}
		return CareerAct{}, err
	}
	return act, nil
}

func (s *Service) DeleteCareerAct(ctx context.Context, employeeID, id string) error {
	act, err := s.store.GetCareerAct(ctx, employeeID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCareerAct(ctx, employeeID, id); err != nil {
		return err
	}
	if act.DocumentPath != "" {
		s.removeFile(ctx, act.DocumentPath)
	}
	return nil
}

func (s *Service) OpenCareerActDocument(ctx context.Context, employeeID, id string) (io.ReadCloser, string, error) {
	act, err := s.store.GetCareerAct(ctx, employeeID, id)
	if err != nil {
		return nil, "", err
	}
	if act.DocumentPath == "" {
		return nil, "", fmt.Errorf("%w: career act %s has no document", apperr.ErrNotFound, id)
	}
	rc, err := s.files.Open(ctx, act.DocumentPath)
	return rc, filepath.Base(act.DocumentPath), err
}

func (s *Service) ListDocuments(ctx context.Context, employeeID, category string) ([]Document, error) {
	if category != "" && !slices.Contains(Categories, category) {
		return nil, apperr.Invalid("category", "must be one of "+strings.Join(Categories, ", "))
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, employeeID, category)
}

func (s *Service) UploadDocument(ctx context.Context, employeeID string, in DocumentInput, filename string, r io.Reader) (Document, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return Document{}, err
	}
	doc, err := validateDocument(in)
	if err != nil {
		return Document{}, err
	}
	if r == nil || filename == "" {
		return Document{}, apperr.Invalid("file", "is required")
	}
	ref, err := s.files.Save(ctx, storage.AreaDocuments, storage.Name("doc", employeeID, filename, s.now()), r)
	if err != nil {
		return Document{}, err
	}
	doc.ID = uuid.NewString()
	doc.EmployeeID = employeeID
	doc.FilePath = ref
	doc.UploadedAt = s.now().UTC()
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		s.removeFile(ctx, ref)
		return Document{}, err
	}
	return doc, nil
}

// UpdateDocument renames or recategorises a document. The file is untouched.
func (s *Service) UpdateDocument(ctx context.Context, employeeID, id string, in DocumentInput) (Document, error) {
	current, err := s.store.GetDocument(ctx, employeeID, id)
	if err != nil {
		return Document{}, err
	}
	doc, err := validateDocument(in)
	if err != nil {
		return Document{}, err
	}
	current.Name = doc.Name
	current.Category = doc.Category
	if err := s.store.UpdateDocument(ctx, current); err != nil {
		return Document{}, err
	}
	return current, nil
}

func (s *Service) DeleteDocument(ctx context.Context, employeeID, id string) error {
	doc, err := s.store.GetDocument(ctx, employeeID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, employeeID, id); err != nil {
		return err
	}
	s.removeFile(ctx, doc.FilePath)
	return nil
}

func (s *Service) OpenDocument(ctx context.Context, employeeID, id string) (io.ReadCloser, Document, error) {
	doc, err := s.store.GetDocument(ctx, employeeID, id)
	if err != nil {
		return nil, Document{}, err
	}
	rc, err := s.files.Open(ctx, doc.FilePath)
	return rc, doc, err
}

func (s *Service) removeFile(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.files.Delete(ctx, ref); err != nil {
		slog.Warn("attached file removal failed", "err", err, "ref", ref)
	}
}

func keepSensitive(keep bool, incoming, current string) string {
	if keep || (incoming != "" && incoming == maskTail(current)) {
		return current
	}
	return incoming
}

func (s *Service) seal(e *Employee) error {
	var err error
	if e.BankDetails, err = s.crypto.SealString(e.BankDetails); err != nil {
		return err
	}
	e.SocialSecurityNo, err = s.crypto.SealString(e.SocialSecurityNo)
	return err
}

func (s *Service) open(e *Employee) error {
	var err error
	if e.BankDetails, err = s.crypto.OpenString(e.BankDetails); err != nil {
		return fmt.Errorf("employee %s bank details: %w", e.ID, err)
	}
	if e.SocialSecurityNo, err = s.crypto.OpenString(e.SocialSecurityNo); err != nil {
		return fmt.Errorf("employee %s social security number: %w", e.ID, err)
	}
	return nil
}

func validateDocument(in DocumentInput) (Document, error) {
	var issues apperr.Fields
	doc := Document{Name: strings.TrimSpace(in.Name), Category: strings.TrimSpace(in.Category)}
	if doc.Name == "" {
		issues.Add("name", "is required")
	}
	if !slices.Contains(Categories, doc.Category) {
		issues.Add("category", "must be one of "+strings.Join(Categories, ", "))
	}
	return doc, issues.Err()
}

func buildEmployee(in EmployeeInput) (Employee, error) {
	var issues apperr.Fields
	e := Employee{
		Matricule:        strings.TrimSpace(in.Matricule),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Gender:           strings.TrimSpace(in.Gender),
		BirthPlace:       strings.TrimSpace(in.BirthPlace),
		NationalID:       strings.TrimSpace(in.NationalID),
		Nationality:      strings.TrimSpace(in.Nationality),
		Address:          strings.TrimSpace(in.Address),
		Phone:            strings.TrimSpace(in.Phone),
		Email:            strings.TrimSpace(in.Email),
		MaritalStatus:    strings.TrimSpace(in.MaritalStatus),
		Dependents:       in.Dependents,
		SocialSecurityNo: strings.TrimSpace(in.SocialSecurityNo),
		BankDetails:      strings.TrimSpace(in.BankDetails),
		EngagementType:   strings.TrimSpace(in.EngagementType),
		DecisionNumber:   strings.TrimSpace(in.DecisionNumber),
		Division:         strings.TrimSpace(in.Division),
		JobTitle:         strings.TrimSpace(in.JobTitle),
		Status:           strings.TrimSpace(in.Status),
	}
	if e.Matricule == "" {
		issues.Add("matricule", "is required")
	}
	if e.FirstName == "" {
		issues.Add("firstName", "is required")
	}
	if e.LastName == "" {
		issues.Add("lastName", "is required")
	}
	if e.JobTitle == "" {
		issues.Add("jobTitle", "is required")
	}
	if e.Dependents < 0 {
		issues.Add("dependents", "must be zero or more")
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if !slices.Contains(Statuses, e.Status) {
		issues.Add("status", "must be one of "+strings.Join(Statuses, ", "))
	}
	if e.Email != "" && !strings.Contains(e.Email, "@") {
		issues.Add("email", "is not a valid address")
	}
	e.HireDate = requiredDate(&issues, "hireDate", in.HireDate)
	e.BirthDate = optionalDate(&issues, "birthDate", in.BirthDate)
	e.ContractStart = optionalDate(&issues, "contractStart", in.ContractStart)
	e.ContractEnd = optionalDate(&issues, "contractEnd", in.ContractEnd)
	if !e.ContractStart.IsZero() && !e.ContractEnd.IsZero() && e.ContractEnd.Before(e.ContractStart) {
		issues.Add("contractEnd", "must not be before the contract start")
	}
	return e, issues.Err()
}

func requiredDate(issues *apperr.Fields, field, raw string) dates.Date {
	if strings.TrimSpace(raw) == "" {
		issues.Add(field, "is required")
		return dates.Date{}
	}
	return optionalDate(issues, field, raw)
}

func optionalDate(issues *apperr.Fields, field, raw string) dates.Date {
	d, err := dates.Parse(raw)
	if err != nil {
		issues.Add(field, "must be a date in dd/mm/yyyy format")
	}
	return d
}
