package core

import (
	"time"

	"cityhr/internal/domain/dates"
)

const (
	StatusActive    = "active"
	StatusOnLeave   = "on_leave"
	StatusSuspended = "suspended"
	StatusRetired   = "retired"
	StatusResigned  = "resigned"
)

var Statuses = []string{StatusActive, StatusOnLeave, StatusSuspended, StatusRetired, StatusResigned}

type Employee struct {
	ID               string     `db:"id" json:"id"`
	Matricule        string     `db:"matricule" json:"matricule"`
	FirstName        string     `db:"first_name" json:"firstName"`
	LastName         string     `db:"last_name" json:"lastName"`
	Gender           string     `db:"gender" json:"gender"`
	BirthDate        dates.Date `db:"birth_date" json:"birthDate"`
	BirthPlace       string     `db:"birth_place" json:"birthPlace"`
	NationalID       string     `db:"national_id" json:"nationalId"`
	Nationality      string     `db:"nationality" json:"nationality"`
	Address          string     `db:"address" json:"address"`
	Phone            string     `db:"phone" json:"phone"`
	Email            string     `db:"email" json:"email"`
	MaritalStatus    string     `db:"marital_status" json:"maritalStatus"`
	Dependents       int        `db:"dependents" json:"dependents"`
	SocialSecurityNo string     `db:"social_security_no" json:"socialSecurityNo"`
	BankDetails      string     `db:"bank_details" json:"bankDetails"`
	HireDate         dates.Date `db:"hire_date" json:"hireDate"`
	EngagementType   string     `db:"engagement_type" json:"engagementType"`
	DecisionNumber   string     `db:"decision_number" json:"decisionNumber"`
	ContractStart    dates.Date `db:"contract_start" json:"contractStart"`
	ContractEnd      dates.Date `db:"contract_end" json:"contractEnd"`
	Division         string     `db:"division" json:"division"`
	JobTitle         string     `db:"job_title" json:"jobTitle"`
	Status           string     `db:"status" json:"status"`
	PhotoPath        string     `db:"photo_path" json:"photoPath"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeInput is the create/update payload. Dates use dd/mm/yyyy.
type EmployeeInput struct {
	Matricule        string `json:"matricule"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Gender           string `json:"gender"`
	BirthDate        string `json:"birthDate"`
	BirthPlace       string `json:"birthPlace"`
	NationalID       string `json:"nationalId"`
	Nationality      string `json:"nationality"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	MaritalStatus    string `json:"maritalStatus"`
	Dependents       int    `json:"dependents"`
	SocialSecurityNo string `json:"socialSecurityNo"`
	BankDetails      string `json:"bankDetails"`
	HireDate         string `json:"hireDate"`
	EngagementType   string `json:"engagementType"`
	DecisionNumber   string `json:"decisionNumber"`
	ContractStart    string `json:"contractStart"`
	ContractEnd      string `json:"contractEnd"`
	Division         string `json:"division"`
	JobTitle         string `json:"jobTitle"`
	Status           string `json:"status"`

	// KeepSensitive leaves the stored bank details and social security
	// number untouched on update.
	KeepSensitive bool `json:"-"`
}

type EmployeeFilter struct {
	Query  string
	Status string
}

const (
	NatureNomination = "nomination"
	NaturePromotion  = "promotion"
	NatureMutation   = "mutation"
	NatureSanction   = "sanction"
	NatureTraining   = "training"
	NatureOther      = "other"
)

var Natures = []string{NatureNomination, NaturePromotion, NatureMutation, NatureSanction, NatureTraining, NatureOther}

type CareerAct struct {
	ID            string     `db:"id" json:"id"`
	EmployeeID    string     `db:"employee_id" json:"employeeId"`
	ActNumber     string     `db:"act_number" json:"actNumber"`
	Nature        string     `db:"nature" json:"nature"`
	Subject       string     `db:"subject" json:"subject"`
	ActDate       dates.Date `db:"act_date" json:"actDate"`
	EffectiveDate dates.Date `db:"effective_date" json:"effectiveDate"`
	DocumentPath  string     `db:"document_path" json:"documentPath"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

type CareerActInput struct {
	ActNumber     string `json:"actNumber"`
	Nature        string `json:"nature"`
	Subject       string `json:"subject"`
	ActDate       string `json:"actDate"`
	EffectiveDate string `json:"effectiveDate"`
}

const (
	CategoryDecision       = "decision"
	CategoryCorrespondence = "correspondence"
	CategoryServiceNote    = "service_note"
	CategoryCivilStatus    = "civil_status"
	CategoryDiplomas       = "diplomas"
	CategoryOther          = "other"
)

var Categories = []string{CategoryDecision, CategoryCorrespondence, CategoryServiceNote, CategoryCivilStatus, CategoryDiplomas, CategoryOther}

type Document struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employeeId"`
	Category   string    `db:"category" json:"category"`
	Name       string    `db:"name" json:"name"`
	FilePath   string    `db:"file_path" json:"filePath"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploadedAt"`
}

type DocumentInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}
