package reports

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/core"
	"cityhr/internal/domain/dates"
	"cityhr/internal/domain/leave"
	"cityhr/internal/domain/mail"
	"cityhr/internal/platform/export"
	"cityhr/internal/platform/metrics"
)

const (
	orgName          = "Mairie - Service du personnel"
	sheetLeaveLimit  = 10
	defaultAllotment = 30
)

type Service struct {
	Store      *Store
	Employees  *core.Service
	Leaves     leave.StoreAPI
	Mail       *mail.Service
	Metrics    *metrics.Collector
	ReportsDir string
	Allotment  int
	now        func() time.Time
}

func NewService(store *Store, employees *core.Service, leaves leave.StoreAPI, mailSvc *mail.Service, reportsDir string, allotment int) *Service {
	if allotment <= 0 {
		allotment = defaultAllotment
	}
	return &Service{
		Store:      store,
		Employees:  employees,
		Leaves:     leaves,
		Mail:       mailSvc,
		ReportsDir: reportsDir,
		Allotment:  allotment,
		now:        time.Now,
	}
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	today := dates.FromTime(s.now())
	monthStart, monthEnd := dates.MonthBounds(today.Year(), today.Month())
	yearStart, yearEnd := dates.YearBounds(today.Year())

	var d Dashboard
	var err error
	if d.ActiveEmployees, err = s.Store.CountEmployees(ctx, core.StatusActive); err != nil {
		return Dashboard{}, err
	}
	if d.OnLeaveToday, err = s.Store.EmployeesOnLeave(ctx, today, today); err != nil {
		return Dashboard{}, err
	}
	if d.OnLeaveThisMonth, err = s.Store.EmployeesOnLeave(ctx, monthStart, monthEnd); err != nil {
		return Dashboard{}, err
	}
	if d.BirthdaysThisMonth, err = s.Store.BirthdaysInMonth(ctx, today.Month()); err != nil {
		return Dashboard{}, err
	}
	if d.LeavesThisYear, err = s.Store.LeavesStartingBetween(ctx, yearStart, yearEnd); err != nil {
		return Dashboard{}, err
	}
	totals, err := s.Mail.Totals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	d.IncomingMail, d.OutgoingMail = totals.Incoming, totals.Outgoing
	d.Alerts = Alerts(d)
	return d, nil
}

func (s *Service) Statistics(ctx context.Context, year int) (Statistics, error) {
	employees, err := s.Employees.List(ctx, core.EmployeeFilter{})
	if err != nil {
		return Statistics{}, err
	}
	leaves, err := s.yearLeaves(ctx, year)
	if err != nil {
		return Statistics{}, err
	}
	return BuildStatistics(employees, leaves, year), nil
}

func (s *Service) AnnualLeave(ctx context.Context, year int) ([]AnnualLeaveRow, error) {
	employees, err := s.Employees.List(ctx, core.EmployeeFilter{Status: core.StatusActive})
	if err != nil {
		return nil, err
	}
	leaves, err := s.yearLeaves(ctx, year)
	if err != nil {
		return nil, err
	}
	return AnnualLeaveRows(employees, leaves, year, s.Allotment), nil
}

func (s *Service) yearLeaves(ctx context.Context, year int) ([]leave.Leave, error) {
	from, to := dates.YearBounds(year)
	return s.Leaves.ListStartingBetween(ctx, from, to, leave.StatusApproved)
}

// Normalize trims the request and checks kind, format and the employee
// reference of an employee sheet.
func Normalize(req Request) (Request, error) {
	req.Kind = strings.TrimSpace(req.Kind)
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	var issues apperr.Fields
	if !slices.Contains(Kinds, req.Kind) {
		issues.Add("kind", "must be one of "+strings.Join(Kinds, ", "))
	}
	if !export.ValidFormat(req.Format) {
		issues.Add("format", "must be pdf or xlsx")
	}
	if req.Kind == KindEmployeeSheet && req.EmployeeID == "" {
		issues.Add("employeeId", "is required for an employee sheet")
	}
	return req, issues.Err()
}

// Generate builds the requested report and writes it to the reports
// directory.
func (s *Service) Generate(ctx context.Context, req Request) (Generated, error) {
	req, err := Normalize(req)
	if err != nil {
		return Generated{}, err
	}
	if req.Year == 0 {
		req.Year = s.now().Year()
	}

	report, err := s.Build(ctx, req)
	if err != nil {
		return Generated{}, err
	}
	path, err := export.Write(report, req.Format, s.ReportsDir)
	if err != nil {
		return Generated{}, err
	}
	s.Metrics.Inc(metrics.ReportsGenerated)
	slog.Info("report generated", "kind", req.Kind, "format", req.Format, "file", filepath.Base(path))
	return Generated{
		Kind:        req.Kind,
		Format:      req.Format,
		FileName:    filepath.Base(path),
		Path:        path,
		GeneratedAt: report.GeneratedAt,
	}, nil
}

// Build assembles the report content without writing it.
func (s *Service) Build(ctx context.Context, req Request) (export.Report, error) {
	switch req.Kind {
	case KindStaffList:
		return s.staffList(ctx)
	case KindEmployeeSheet:
		return s.employeeSheet(ctx, req.EmployeeID)
	case KindAnnualLeave:
		return s.annualLeave(ctx, req.Year)
	case KindStatistics:
		return s.statistics(ctx, req.Year)
	}
	return export.Report{}, apperr.Invalid("kind", "is not a known report")
}

// Open returns a previously generated report file. name must be a bare
// file name.
func (s *Service) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, apperr.Invalid("name", "is not a report file name")
	}
	f, err := os.Open(filepath.Join(s.ReportsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: report %s", apperr.ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return f, nil
}

func (s *Service) staffList(ctx context.Context) (export.Report, error) {
	employees, err := s.Employees.List(ctx, core.EmployeeFilter{})
	if err != nil {
		return export.Report{}, err
	}
	table := &export.Table{Columns: []export.Column{
		{Title: "Matricule", Width: 22},
		{Title: "Nom complet"},
		{Title: "Fonction"},
		{Title: "Division"},
		{Title: "Date d'embauche", Width: 28},
		{Title: "Engagement"},
		{Title: "Statut", Width: 22},
		{Title: "Téléphone", Width: 26},
		{Title: "Email"},
	}}
	for _, e := range employees {
		table.Rows = append(table.Rows, export.Row{Cells: []string{
			e.Matricule, e.FullName(), e.JobTitle, e.Division, e.HireDate.Display(),
			e.EngagementType, statusLabel(e.Status), e.Phone, e.Email,
		}})
	}
	return export.Report{
		Kind:        KindStaffList,
		Title:       "Liste du personnel",
		Subtitle:    orgName,
		Landscape:   true,
		GeneratedAt: s.now(),
		Sections: []export.Section{
			{Fields: []export.Field{{Label: "Effectif total", Value: strconv.Itoa(len(employees))}}},
			{Table: table},
		},
	}, nil
}

func (s *Service) employeeSheet(ctx context.Context, employeeID string) (export.Report, error) {
	e, err := s.Employees.Get(ctx, employeeID)
	if err != nil {
		return export.Report{}, err
	}
	acts, err := s.Employees.ListCareerActs(ctx, employeeID)
	if err != nil {
		return export.Report{}, err
	}
	history, err := s.Leaves.ListByEmployee(ctx, employeeID)
	if err != nil {
		return export.Report{}, err
	}
	if len(history) > sheetLeaveLimit {
		history = history[:sheetLeaveLimit]
	}

	identity := export.Section{Title: "Identité", Fields: []export.Field{
		{Label: "Matricule", Value: e.Matricule},
		{Label: "Nom", Value: e.LastName},
		{Label: "Prénom", Value: e.FirstName},
		{Label: "Sexe", Value: e.Gender},
		{Label: "Date de naissance", Value: e.BirthDate.Display()},
		{Label: "Lieu de naissance", Value: e.BirthPlace},
		{Label: "N° CNI", Value: e.NationalID},
		{Label: "Nationalité", Value: e.Nationality},
		{Label: "Situation familiale", Value: e.MaritalStatus},
		{Label: "Personnes à charge", Value: strconv.Itoa(e.Dependents)},
		{Label: "Adresse", Value: e.Address},
		{Label: "Téléphone", Value: e.Phone},
		{Label: "Email", Value: e.Email},
	}}
	contract := export.Section{Title: "Situation administrative", Fields: []export.Field{
		{Label: "Fonction", Value: e.JobTitle},
		{Label: "Division", Value: e.Division},
		{Label: "Date d'embauche", Value: e.HireDate.Display()},
		{Label: "Type d'engagement", Value: e.EngagementType},
		{Label: "N° de décision", Value: e.DecisionNumber},
		{Label: "Début de contrat", Value: e.ContractStart.Display()},
		{Label: "Fin de contrat", Value: e.ContractEnd.Display()},
		{Label: "Statut", Value: statusLabel(e.Status)},
	}}
	career := &export.Table{Columns: []export.Column{
		{Title: "N° acte", Width: 28}, {Title: "Nature", Width: 30}, {Title: "Objet"}, {Title: "Date", Width: 24}, {Title: "Effet", Width: 24},
	}}
	for _, a := range acts {
		career.Rows = append(career.Rows, export.Row{Cells: []string{
			a.ActNumber, natureLabel(a.Nature), a.Subject, a.ActDate.Display(), a.EffectiveDate.Display(),
		}})
	}
	leaves := &export.Table{Columns: []export.Column{
		{Title: "Type"}, {Title: "Début", Width: 26}, {Title: "Fin", Width: 26}, {Title: "Jours", Width: 18}, {Title: "Statut", Width: 26},
	}}
	for _, l := range history {
		leaves.Rows = append(leaves.Rows, export.Row{Cells: []string{
			l.LeaveTypeName, l.StartDate.Display(), l.EndDate.Display(), strconv.Itoa(l.Days), leaveStatusLabel(l.Status),
		}})
	}
	return export.Report{
		Kind:        KindEmployeeSheet,
		Title:       "Fiche individuelle - " + e.FullName(),
		Subtitle:    orgName,
		GeneratedAt: s.now(),
		Sections: []export.Section{
			identity,
			contract,
			{Title: "Historique de carrière", Table: career},
			{Title: "Derniers congés", Table: leaves},
		},
	}, nil
}

func (s *Service) annualLeave(ctx context.Context, year int) (export.Report, error) {
	rows, err := s.AnnualLeave(ctx, year)
	if err != nil {
		return export.Report{}, err
	}
	table := &export.Table{Columns: []export.Column{
		{Title: "Matricule", Width: 24}, {Title: "Employé"}, {Title: "Nb congés", Width: 22}, {Title: "Total jours", Width: 24}, {Title: "Détails"}, {Title: "Solde restant", Width: 28},
	}}
	negatives := 0
	for _, r := range rows {
		if r.Negative {
			negatives++
		}
		table.Rows = append(table.Rows, export.Row{
			Cells:   []string{r.Matricule, r.Name, strconv.Itoa(r.LeaveCount), strconv.Itoa(r.TotalDays), r.Details, strconv.Itoa(r.Remaining)},
			Flagged: r.Negative,
		})
	}
	return export.Report{
		Kind:        KindAnnualLeave,
		Title:       fmt.Sprintf("Rapport annuel des congés - %d", year),
		Subtitle:    orgName,
		Landscape:   true,
		GeneratedAt: s.now(),
		Sections: []export.Section{
			{Fields: []export.Field{
				{Label: "Droit annuel", Value: fmt.Sprintf("%d jours", s.Allotment)},
				{Label: "Agents actifs", Value: strconv.Itoa(len(rows))},
				{Label: "Soldes négatifs", Value: strconv.Itoa(negatives)},
			}},
			{Table: table},
		},
	}, nil
}

func (s *Service) statistics(ctx context.Context, year int) (export.Report, error) {
	stats, err := s.Statistics(ctx, year)
	if err != nil {
		return export.Report{}, err
	}
	groupTable := func(groups []GroupCount, title string) *export.Table {
		t := &export.Table{Columns: []export.Column{{Title: title}, {Title: "Effectif", Width: 30}, {Title: "Pourcentage", Width: 34}}}
		for _, g := range groups {
			t.Rows = append(t.Rows, export.Row{Cells: []string{g.Key, strconv.Itoa(g.Count), fmt.Sprintf("%.1f %%", g.Percentage)}})
		}
		return t
	}
	return export.Report{
		Kind:        KindStatistics,
		Title:       fmt.Sprintf("Statistiques RH - %d", year),
		Subtitle:    orgName,
		GeneratedAt: s.now(),
		Sections: []export.Section{
			{Title: "Effectifs", Fields: []export.Field{
				{Label: "Total employés", Value: strconv.Itoa(stats.TotalEmployees)},
				{Label: "Employés actifs", Value: strconv.Itoa(stats.ActiveEmployees)},
				{Label: "Taux d'activité", Value: fmt.Sprintf("%.1f %%", stats.ActivityRate)},
			}},
			{Title: "Répartition par division", Table: groupTable(stats.ByDivision, "Division")},
			{Title: "Répartition par type d'engagement", Table: groupTable(stats.ByEngagementType, "Type d'engagement")},
			{Title: "Congés", Fields: []export.Field{
				{Label: "Nombre de congés", Value: strconv.Itoa(stats.LeaveCount)},
				{Label: "Total jours", Value: strconv.Itoa(stats.LeaveDays)},
				{Label: "Moyenne par congé", Value: fmt.Sprintf("%.1f jours", stats.AverageLeaveDays)},
			}},
		},
	}, nil
}

var (
	statusLabels = map[string]string{
		core.StatusActive:    "Actif",
		core.StatusOnLeave:   "En congé",
		core.StatusSuspended: "Suspendu",
		core.StatusRetired:   "Retraité",
		core.StatusResigned:  "Démissionnaire",
	}
	natureLabels = map[string]string{
		core.NatureNomination: "Nomination",
		core.NaturePromotion:  "Promotion",
		core.NatureMutation:   "Mutation",
		core.NatureSanction:   "Sanction",
		core.NatureTraining:   "Formation",
		core.NatureOther:      "Autre",
	}
	leaveStatusLabels = map[string]string{
		leave.StatusApproved:  "Approuvé",
		leave.StatusPlanned:   "Planifié",
		leave.StatusCancelled: "Annulé",
	}
)

func label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return key
}

func statusLabel(s string) string      { return label(statusLabels, s) }
func natureLabel(s string) string      { return label(natureLabels, s) }
func leaveStatusLabel(s string) string { return label(leaveStatusLabels, s) }
