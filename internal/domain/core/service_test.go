package core

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/apperr"
	cryptoutil "cityhr/internal/platform/crypto"
	"cityhr/internal/platform/db/dbtest"
	"cityhr/internal/platform/storage"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fixture struct {
	svc  *Service
	conn *sqlx.DB
	root string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Seeded(t)
	root := t.TempDir()
	files, err := storage.NewLocal(root)
	require.NoError(t, err)
	crypto, err := cryptoutil.New(testKey)
	require.NoError(t, err)
	svc := NewService(NewStore(conn), crypto, files)
	svc.now = func() time.Time { return time.Date(2024, time.July, 1, 9, 30, 0, 0, time.UTC) }
	return fixture{svc: svc, conn: conn, root: root}
}

func validInput(matricule, first, last string) EmployeeInput {
	return EmployeeInput{
		Matricule: matricule,
		FirstName: first,
		LastName:  last,
		HireDate:  "01/09/2015",
		JobTitle:  "Administrateur",
		Division:  "Ressources humaines",
	}
}

func TestCreateAndGetEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("M001", "Jean", "Dupont")
	in.BirthDate = "15/03/1980"
	in.BankDetails = "CCP 0012345 67"
	in.Dependents = 2
	e, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, "01/09/2015", e.HireDate.Display())
	assert.Equal(t, "15/03/1980", e.BirthDate.Display())
	assert.True(t, e.ContractEnd.IsZero())
	assert.Equal(t, "CCP 0012345 67", e.BankDetails)

	var raw string
	require.NoError(t, f.conn.Get(&raw, f.conn.Rebind("SELECT bank_details FROM employees WHERE id = ?"), e.ID))
	assert.True(t, strings.HasPrefix(raw, cryptoutil.Prefix), "bank details must be sealed at rest")

	_, err = f.svc.Create(ctx, validInput("M001", "Autre", "Personne"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateEmployeeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, EmployeeInput{})
	var fields *apperr.FieldsError
	require.ErrorAs(t, err, &fields)
	names := map[string]bool{}
	for _, issue := range fields.Issues {
		names[issue.Field] = true
	}
	for _, field := range []string{"matricule", "firstName", "lastName", "jobTitle", "hireDate"} {
		assert.True(t, names[field], "expected issue for %s", field)
	}

	in := validInput("M002", "Marie", "Curie")
	in.BirthDate = "31/02/1990"
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = validInput("M002", "Marie", "Curie")
	in.Dependents = -1
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = validInput("M002", "Marie", "Curie")
	in.Status = "fired"
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateKeepsMatricule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, validInput("M001", "Jean", "Dupont"))
	require.NoError(t, err)

	in := validInput("", "Jean", "Dupont-Martin")
	in.Status = StatusRetired
	updated, err := f.svc.Update(ctx, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "M001", updated.Matricule)
	assert.Equal(t, "Dupont-Martin", updated.LastName)
	assert.Equal(t, StatusRetired, updated.Status)

	_, err = f.svc.Update(ctx, e.ID, validInput("M999", "Jean", "Dupont"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Update(ctx, uuid.NewString(), validInput("", "Jean", "Dupont"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdatePreservesSensitiveFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := validInput("M001", "Jean", "Dupont")
	in.SocialSecurityNo = "1850775123456"
	in.BankDetails = "FR7630001007941234567890185"
	e, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	// A caller that only saw masked values sends them back unchanged.
	masked := in
	masked.Matricule = ""
	masked.Phone = "0601020304"
	masked.SocialSecurityNo = maskTail(in.SocialSecurityNo)
	masked.BankDetails = maskTail(in.BankDetails)
	updated, err := f.svc.Update(ctx, e.ID, masked)
	require.NoError(t, err)
	assert.Equal(t, "0601020304", updated.Phone)
	assert.Equal(t, in.SocialSecurityNo, updated.SocialSecurityNo)
	assert.Equal(t, in.BankDetails, updated.BankDetails)

	// Omitted fields are kept when the caller may not edit them.
	restricted := validInput("", "Jean", "Dupont")
	restricted.KeepSensitive = true
	updated, err = f.svc.Update(ctx, e.ID, restricted)
	require.NoError(t, err)
	assert.Equal(t, in.SocialSecurityNo, updated.SocialSecurityNo)
	assert.Equal(t, in.BankDetails, updated.BankDetails)

	cleared := validInput("", "Jean", "Dupont")
	cleared.SocialSecurityNo = "2850775999999"
	updated, err = f.svc.Update(ctx, e.ID, cleared)
	require.NoError(t, err)
	assert.Equal(t, "2850775999999", updated.SocialSecurityNo)
	assert.Empty(t, updated.BankDetails)
}

func TestListSearchIsAccentInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, in := range []EmployeeInput{
		validInput("M001", "Hélène", "Bérard"),
		validInput("M002", "Jean", "Dupont"),
		validInput("M003", "Anne", "Abadie"),
	} {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Abadie", all[0].LastName)

	found, err := f.svc.List(ctx, EmployeeFilter{Query: "helene"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "M001", found[0].Matricule)

	found, err = f.svc.List(ctx, EmployeeFilter{Query: "m002"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = f.svc.List(ctx, EmployeeFilter{Status: "unknown"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, validInput("M001", "Jean", "Dupont"))
	require.NoError(t, err)

	doc, err := f.svc.UploadDocument(ctx, e.ID, DocumentInput{Name: "Diplôme", Category: CategoryDiplomas}, "diplome.pdf", bytes.NewBufferString("%PDF"))
	require.NoError(t, err)
	act, err := f.svc.CreateCareerAct(ctx, e.ID, CareerActInput{ActNumber: "A-12", Nature: NatureNomination, ActDate: "01/09/2015"}, "arrete.pdf", bytes.NewBufferString("%PDF"))
	require.NoError(t, err)
	_, err = f.svc.UploadPhoto(ctx, e.ID, "portrait.png", bytes.NewBufferString("png"))
	require.NoError(t, err)

	var typeID string
	require.NoError(t, f.conn.Get(&typeID, "SELECT id FROM leave_types LIMIT 1"))
	now := time.Now().UTC()
	_, err = f.conn.Exec(f.conn.Rebind(`
    INSERT INTO leaves (id, employee_id, leave_type_id, start_date, end_date, days_count, status, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?)
  `), uuid.NewString(), e.ID, typeID, "2024-07-01", "2024-07-05", 5, "approved", now, now)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, e.ID))

	for _, table := range []string{"employees", "leaves", "career_acts", "documents"} {
		var count int
		require.NoError(t, f.conn.Get(&count, "SELECT COUNT(1) FROM "+table))
		assert.Zero(t, count, "table %s", table)
	}
	for _, ref := range []string{doc.FilePath, act.DocumentPath} {
		_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(ref)))
		assert.True(t, os.IsNotExist(err), "file %s should be removed", ref)
	}
	assert.ErrorIs(t, f.svc.Delete(ctx, e.ID), apperr.ErrNotFound)
}

func TestPhotoUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, validInput("M001", "Jean", "Dupont"))
	require.NoError(t, err)

	_, err = f.svc.UploadPhoto(ctx, e.ID, "cv.pdf", bytes.NewBufferString("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	updated, err := f.svc.UploadPhoto(ctx, e.ID, "portrait.JPG", bytes.NewBufferString("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "photos/emp_"+e.ID+"_20240701_093000_portrait.JPG", updated.PhotoPath)

	rc, name, err := f.svc.OpenPhoto(ctx, e.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg bytes", string(data))
	assert.Equal(t, "emp_"+e.ID+"_20240701_093000_portrait.JPG", name)
}

func TestCareerActsAndDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, validInput("M001", "Jean", "Dupont"))
	require.NoError(t, err)

	_, err = f.svc.CreateCareerAct(ctx, e.ID, CareerActInput{Nature: "demotion", ActDate: "bad"}, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	older, err := f.svc.CreateCareerAct(ctx, e.ID, CareerActInput{ActNumber: "A-1", Nature: NatureNomination, ActDate: "01/09/2015"}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, older.DocumentPath)
	_, err = f.svc.CreateCareerAct(ctx, e.ID, CareerActInput{ActNumber: "A-2", Nature: NaturePromotion, ActDate: "01/01/2020", EffectiveDate: "01/02/2020"}, "", nil)
	require.NoError(t, err)

	acts, err := f.svc.ListCareerActs(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "A-2", acts[0].ActNumber)
	assert.Equal(t, "01/02/2020", acts[0].EffectiveDate.Display())

	require.NoError(t, f.svc.DeleteCareerAct(ctx, e.ID, older.ID))
	assert.ErrorIs(t, f.svc.DeleteCareerAct(ctx, e.ID, older.ID), apperr.ErrNotFound)

	_, err = f.svc.UploadDocument(ctx, e.ID, DocumentInput{Name: "Note", Category: "misc"}, "note.txt", bytes.NewBufferString("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	doc, err := f.svc.UploadDocument(ctx, e.ID, DocumentInput{Name: "Note de service", Category: CategoryServiceNote}, "note.txt", bytes.NewBufferString("contenu"))
	require.NoError(t, err)
	assert.Equal(t, "documents/doc_"+e.ID+"_20240701_093000_note.txt", doc.FilePath)

	renamed, err := f.svc.UpdateDocument(ctx, e.ID, doc.ID, DocumentInput{Name: "Note 12", Category: CategoryCorrespondence})
	require.NoError(t, err)
	assert.Equal(t, "Note 12", renamed.Name)

	notes, err := f.svc.ListDocuments(ctx, e.ID, CategoryServiceNote)
	require.NoError(t, err)
	assert.Empty(t, notes)
	letters, err := f.svc.ListDocuments(ctx, e.ID, CategoryCorrespondence)
	require.NoError(t, err)
	require.Len(t, letters, 1)

	rc, got, err := f.svc.OpenDocument(ctx, e.ID, doc.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "contenu", string(data))
	assert.Equal(t, "Note 12", got.Name)

	require.NoError(t, f.svc.DeleteDocument(ctx, e.ID, doc.ID))
	_, err = os.Stat(filepath.Join(f.root, "documents", filepath.Base(doc.FilePath)))
	assert.True(t, os.IsNotExist(err))
}
