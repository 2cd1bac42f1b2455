// Package audit records who changed what in the HR records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	EntityEmployee  = "employee"
	EntityCareerAct = "career_act"
	EntityDocument  = "document"
	EntityLeave     = "leave"
	EntityLeaveType = "leave_type"
	EntityMail      = "mail"
	EntityUser      = "user"
	EntityDatabase  = "database"
)

type Event struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actorId"`
	ActorName  string    `db:"actor_name" json:"actorName"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entityType"`
	EntityID   string    `db:"entity_id" json:"entityId"`
	RequestID  string    `db:"request_id" json:"requestId"`
	IP         string    `db:"ip" json:"ip"`
	Details    string    `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Entry is what callers supply to Record. Details is marshalled to JSON.
type Entry struct {
	ActorID    string
	ActorName  string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Details    any
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
}

type Service struct {
	DB  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *Service {
	return &Service{DB: db, now: time.Now}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	var details string
	if e.Details != nil {
		payload, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("audit details: %w", err)
		}
		details = string(payload)
	}
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO audit_events (id, actor_id, actor_name, action, entity_type, entity_id, request_id, ip, details, created_at)
    VALUES (?,?,?,?,?,?,?,?,?,?)
  `), uuid.NewString(), e.ActorID, e.ActorName, e.Action, e.EntityType, e.EntityID, e.RequestID, e.IP, details, s.now().UTC())
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.GetContext(ctx, &total, s.DB.Rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns matching events newest first. Details are omitted unless
// includeDetails is set.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := "id, actor_id, actor_name, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		cols += ", details"
	}
	query, args := buildBaseQuery("SELECT "+cols, filter)
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	out := []Event{}
	if err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filter.EntityID)
	}
	if filter.Actor != "" {
		query += " AND (actor_id = ? OR actor_name = ?)"
		args = append(args, filter.Actor, filter.Actor)
	}
	return query, args
}
