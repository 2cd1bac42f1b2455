package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
	"cityhr/internal/platform/db"
)

type Store struct {
	DB *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{DB: conn}
}

const employeeColumns = `id, matricule, first_name, last_name, gender, birth_date, birth_place,
    national_id, nationality, address, phone, email, marital_status, dependents,
    social_security_no, bank_details, hire_date, engagement_type, decision_number,
    contract_start, contract_end, division, job_title, status, photo_path, created_at, updated_at`

func (s *Store) ListEmployees(ctx context.Context, status string) ([]Employee, error) {
	out := []Employee{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(`
    SELECT `+employeeColumns+`
    FROM employees
    WHERE (? = '' OR status = ?)
    ORDER BY last_name, first_name
  `), status, status)
	return out, err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	var out Employee
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind("SELECT "+employeeColumns+" FROM employees WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: employee %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) MatriculeExists(ctx context.Context, matricule string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM employees WHERE matricule = ?"), matricule)
	return count > 0, err
}

func (s *Store) CountEmployees(ctx context.Context) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, "SELECT COUNT(1) FROM employees")
	return count, err
}

func (s *Store) CreateEmployee(ctx context.Context, e Employee) error {
	_, err := s.DB.NamedExecContext(ctx, `
    INSERT INTO employees (`+employeeColumns+`)
    VALUES (:id, :matricule, :first_name, :last_name, :gender, :birth_date, :birth_place,
      :national_id, :nationality, :address, :phone, :email, :marital_status, :dependents,
      :social_security_no, :bank_details, :hire_date, :engagement_type, :decision_number,
      :contract_start, :contract_end, :division, :job_title, :status, :photo_path, :created_at, :updated_at)
  `, e)
	return err
}

// UpdateEmployee rewrites every editable column. Matricule, photo and
// creation time are left alone.
func (s *Store) UpdateEmployee(ctx context.Context, e Employee) error {
	res, err := s.DB.NamedExecContext(ctx, `
    UPDATE employees SET
      first_name = :first_name, last_name = :last_name, gender = :gender, birth_date = :birth_date,
      birth_place = :birth_place, national_id = :national_id, nationality = :nationality,
      address = :address, phone = :phone, email = :email, marital_status = :marital_status,
      dependents = :dependents, social_security_no = :social_security_no, bank_details = :bank_details,
      hire_date = :hire_date, engagement_type = :engagement_type, decision_number = :decision_number,
      contract_start = :contract_start, contract_end = :contract_end, division = :division,
      job_title = :job_title, status = :status, updated_at = :updated_at
    WHERE id = :id
  `, e)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: employee %s", apperr.ErrNotFound, e.ID)
	}
	return nil
}

func (s *Store) SetPhoto(ctx context.Context, id, ref string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind("UPDATE employees SET photo_path = ? WHERE id = ?"), ref, id)
	return err
}

// AttachedFiles lists every stored file referenced by the employee's records.
func (s *Store) AttachedFiles(ctx context.Context, id string) ([]string, error) {
	refs := []string{}
	err := s.DB.SelectContext(ctx, &refs, s.DB.Rebind(`
    SELECT photo_path FROM employees WHERE id = ? AND photo_path <> ''
    UNION ALL
    SELECT file_path FROM documents WHERE employee_id = ? AND file_path <> ''
    UNION ALL
    SELECT document_path FROM career_acts WHERE employee_id = ? AND document_path <> ''
  `), id, id, id)
	return refs, err
}

// DeleteEmployee removes the employee and everything hanging off it in one
// transaction.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM leaves WHERE employee_id = ?",
			"DELETE FROM career_acts WHERE employee_id = ?",
			"DELETE FROM documents WHERE employee_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM employees WHERE id = ?"), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: employee %s", apperr.ErrNotFound, id)
		}
		return nil
	})
}

func (s *Store) ListCareerActs(ctx context.Context, employeeID string) ([]CareerAct, error) {
	out := []CareerAct{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(`
    SELECT id, employee_id, act_number, nature, subject, act_date, effective_date, document_path, created_at
    FROM career_acts
    WHERE employee_id = ?
    ORDER BY act_date DESC, created_at DESC
  `), employeeID)
	return out, err
}

func (s *Store) GetCareerAct(ctx context.Context, employeeID, id string) (CareerAct, error) {
	var out CareerAct
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(`
    SELECT id, employee_id, act_number, nature, subject, act_date, effective_date, document_path, created_at
    FROM career_acts
    WHERE employee_id = ? AND id = ?
  `), employeeID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return CareerAct{}, fmt.Errorf("%w: career act %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) CreateCareerAct(ctx context.Context, a CareerAct) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO career_acts (id, employee_id, act_number, nature, subject, act_date, effective_date, document_path, created_at)
    VALUES (?,?,?,?,?,?,?,?,?)
  `), a.ID, a.EmployeeID, a.ActNumber, a.Nature, a.Subject, a.ActDate, a.EffectiveDate, a.DocumentPath, a.CreatedAt)
	return err
}

func (s *Store) DeleteCareerAct(ctx context.Context, employeeID, id string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM career_acts WHERE employee_id = ? AND id = ?"), employeeID, id)
	return err
}

func (s *Store) ListDocuments(ctx context.Context, employeeID, category string) ([]Document, error) {
	out := []Document{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(`
    SELECT id, employee_id, category, name, file_path, uploaded_at
    FROM documents
    WHERE employee_id = ? AND (? = '' OR category = ?)
    ORDER BY uploaded_at DESC
  `), employeeID, category, category)
	return out, err
}

func (s *Store) GetDocument(ctx context.Context, employeeID, id string) (Document, error) {
	var out Document
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(`
    SELECT id, employee_id, category, name, file_path, uploaded_at
    FROM documents
    WHERE employee_id = ? AND id = ?
  `), employeeID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) CreateDocument(ctx context.Context, d Document) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO documents (id, employee_id, category, name, file_path, uploaded_at)
    VALUES (?,?,?,?,?,?)
  `), d.ID, d.EmployeeID, d.Category, d.Name, d.FilePath, d.UploadedAt)
	return err
}

func (s *Store) UpdateDocument(ctx context.Context, d Document) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    UPDATE documents SET name = ?, category = ? WHERE employee_id = ? AND id = ?
  `), d.Name, d.Category, d.EmployeeID, d.ID)
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, employeeID, id string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM documents WHERE employee_id = ? AND id = ?"), employeeID, id)
	return err
}
