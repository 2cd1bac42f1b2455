package mail

import (
	"time"

	"cityhr/internal/domain/dates"
)

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

var Directions = []string{DirectionIncoming, DirectionOutgoing}

// Entry is one line of the mail register.
type Entry struct {
	ID            string     `db:"id" json:"id"`
	OrderNumber   string     `db:"order_number" json:"orderNumber"`
	Direction     string     `db:"direction" json:"direction"`
	Pieces        int        `db:"pieces" json:"pieces"`
	MailDate      dates.Date `db:"mail_date" json:"mailDate"`
	Correspondent string     `db:"correspondent" json:"correspondent"`
	Subject       string     `db:"subject" json:"subject"`
	ArchiveNumber string     `db:"archive_number" json:"archiveNumber"`
	Observation   string     `db:"observation" json:"observation"`
	FilePath      string     `db:"file_path" json:"filePath"`
	CreatedBy     string     `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

type Input struct {
	OrderNumber   string `json:"orderNumber"`
	Direction     string `json:"direction"`
	Pieces        int    `json:"pieces"`
	MailDate      string `json:"mailDate"`
	Correspondent string `json:"correspondent"`
	Subject       string `json:"subject"`
	ArchiveNumber string `json:"archiveNumber"`
	Observation   string `json:"observation"`
}

type Filter struct {
	Direction string
	Query     string
}

type Totals struct {
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
}
