package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/core"
	"cityhr/internal/domain/leave"
	"cityhr/internal/domain/mail"
	"cityhr/internal/platform/db/dbtest"
	"cityhr/internal/platform/export"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/platform/storage"
)

type fixture struct {
	svc    *Service
	leaves *leave.Service
	ids    map[string]string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.Seeded(t)
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	employees := core.NewService(core.NewStore(conn), nil, files)
	leaveStore := leave.NewStore(conn)
	leaves := leave.NewService(leaveStore)
	mailSvc := mail.NewService(mail.NewStore(conn), files)

	svc := NewService(NewStore(conn), employees, leaveStore, mailSvc, t.TempDir(), 30)
	svc.Metrics = metrics.New()
	svc.now = func() time.Time { return time.Date(2024, time.July, 3, 10, 0, 0, 0, time.UTC) }

	ids := map[string]string{}
	for _, in := range []core.EmployeeInput{
		{Matricule: "M001", FirstName: "Jean", LastName: "Dupont", BirthDate: "15/07/1980", HireDate: "01/09/2015", JobTitle: "Secrétaire", Division: "Administration", EngagementType: "Titulaire"},
		{Matricule: "M002", FirstName: "Marie", LastName: "Curie", BirthDate: "07/11/1985", HireDate: "01/02/2018", JobTitle: "Comptable", Division: "Finances", EngagementType: "Contractuel"},
		{Matricule: "M003", FirstName: "Paul", LastName: "Martin", BirthDate: "02/07/1955", HireDate: "01/01/1990", JobTitle: "Chauffeur", Division: "Administration", EngagementType: "Titulaire", Status: core.StatusRetired},
	} {
		e, err := employees.Create(ctx, in)
		require.NoError(t, err)
		ids[in.Matricule] = e.ID
	}

	types, err := leaves.ListTypes(ctx)
	require.NoError(t, err)
	for _, lt := range types {
		ids[lt.Name] = lt.ID
	}
	for _, in := range []leave.Input{
		{EmployeeID: ids["M001"], LeaveTypeID: ids["Congé Annuel"], StartDate: "01/07/2024", EndDate: "05/07/2024"},
		{EmployeeID: ids["M001"], LeaveTypeID: ids["Congé Maladie"], StartDate: "10/02/2024", EndDate: "12/02/2024"},
		{EmployeeID: ids["M002"], LeaveTypeID: ids["Congé Annuel"], StartDate: "01/03/2024", EndDate: "04/04/2024"},
		{EmployeeID: ids["M002"], LeaveTypeID: ids["Congé Annuel"], StartDate: "20/07/2024", EndDate: "25/07/2024", Status: leave.StatusPlanned},
	} {
		_, err := leaves.Create(ctx, in)
		require.NoError(t, err)
	}

	_, err = mailSvc.Create(ctx, mail.Input{
		OrderNumber: "1/2024", Direction: mail.DirectionIncoming, MailDate: "02/07/2024",
		Correspondent: "Préfecture", Subject: "Circulaire",
	}, "admin", "", nil)
	require.NoError(t, err)

	return fixture{svc: svc, leaves: leaves, ids: ids}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.ActiveEmployees)
	assert.Equal(t, 1, d.OnLeaveToday)
	assert.Equal(t, 1, d.OnLeaveThisMonth, "planned leaves are not counted")
	assert.Equal(t, 1, d.BirthdaysThisMonth, "retired staff are not counted")
	assert.Equal(t, 3, d.LeavesThisYear)
	assert.Equal(t, 1, d.IncomingMail)
	assert.Equal(t, 0, d.OutgoingMail)
	assert.Contains(t, d.Alerts, "1 anniversaire(s) ce mois")
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.Statistics(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEmployees)
	assert.Equal(t, 2, stats.ActiveEmployees)
	assert.Equal(t, 66.7, stats.ActivityRate)
	assert.Equal(t, 3, stats.LeaveCount)
	assert.Equal(t, 43, stats.LeaveDays)
	require.Len(t, stats.ByDivision, 2)
	assert.Equal(t, 50.0, stats.ByDivision[0].Percentage)
}

func TestAnnualLeave(t *testing.T) {
	f := newFixture(t)

	rows, err := f.svc.AnnualLeave(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byMatricule := map[string]AnnualLeaveRow{}
	for _, r := range rows {
		byMatricule[r.Matricule] = r
	}
	jean := byMatricule["M001"]
	assert.Equal(t, 2, jean.LeaveCount)
	assert.Equal(t, 8, jean.TotalDays)
	assert.Equal(t, 22, jean.Remaining)
	assert.False(t, jean.Negative)
	assert.Contains(t, jean.Details, "Congé Maladie: 3 jours")

	marie := byMatricule["M002"]
	assert.Equal(t, 35, marie.TotalDays)
	assert.Equal(t, -5, marie.Remaining)
	assert.True(t, marie.Negative)
}

func TestBuildFlagsNegativeBalances(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Build(context.Background(), Request{Kind: KindAnnualLeave, Year: 2024})
	require.NoError(t, err)
	require.Len(t, r.Sections, 2)
	table := r.Sections[1].Table
	require.NotNil(t, table)
	flagged := 0
	for _, row := range table.Rows {
		if row.Flagged {
			flagged++
			assert.Equal(t, "M002", row.Cells[0])
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestBuildEmployeeSheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.Build(ctx, Request{Kind: KindEmployeeSheet, EmployeeID: f.ids["M001"]})
	require.NoError(t, err)
	assert.Equal(t, "Fiche individuelle - Jean Dupont", r.Title)
	require.Len(t, r.Sections, 4)
	assert.Len(t, r.Sections[3].Table.Rows, 2)

	_, err = f.svc.Build(ctx, Request{Kind: KindEmployeeSheet, EmployeeID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGenerateAndOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, kind := range Kinds {
		for _, format := range export.Formats {
			req := Request{Kind: kind, Format: format, EmployeeID: f.ids["M002"]}
			g, err := f.svc.Generate(ctx, req)
			require.NoError(t, err, "%s/%s", kind, format)
			assert.Equal(t, kind+"_20240703_100000."+format, g.FileName)

			file, err := f.svc.Open(g.FileName)
			require.NoError(t, err)
			info, err := file.Stat()
			file.Close()
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	}
	assert.Equal(t, uint64(len(Kinds)*len(export.Formats)), f.svc.Metrics.Snapshot()[metrics.ReportsGenerated])
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, Request{Kind: "payslips", Format: "pdf"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Generate(ctx, Request{Kind: KindStaffList, Format: "docx"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Generate(ctx, Request{Kind: KindEmployeeSheet, Format: "pdf"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOpenRejectsPaths(t *testing.T) {
	f := newFixture(t)
	outside := filepath.Join(filepath.Dir(f.svc.ReportsDir), "secret.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	for _, name := range []string{"", "../secret.pdf", ".hidden", "a/b.pdf"} {
		_, err := f.svc.Open(name)
		assert.ErrorIs(t, err, apperr.ErrValidation, name)
	}
	_, err := f.svc.Open("staff_list_20000101_000000.pdf")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
