package mail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
)

type Store struct {
	DB *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{DB: conn}
}

const entryColumns = `id, order_number, direction, pieces, mail_date, correspondent, subject,
    archive_number, observation, file_path, created_by, created_at, updated_at`

func (s *Store) List(ctx context.Context, direction string) ([]Entry, error) {
	out := []Entry{}
	err := s.DB.SelectContext(ctx, &out, s.DB.Rebind(`
    SELECT `+entryColumns+`
    FROM mail_entries
    WHERE (? = '' OR direction = ?)
    ORDER BY mail_date DESC, created_at DESC
  `), direction, direction)
	return out, err
}

func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	var out Entry
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind("SELECT "+entryColumns+" FROM mail_entries WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: mail entry %s", apperr.ErrNotFound, id)
	}
	return out, err
}

// OrderNumberTaken reports whether another entry than exceptID uses number.
func (s *Store) OrderNumberTaken(ctx context.Context, number, exceptID string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM mail_entries WHERE order_number = ? AND id <> ?"), number, exceptID)
	return count > 0, err
}

func (s *Store) Create(ctx context.Context, e Entry) error {
	_, err := s.DB.NamedExecContext(ctx, `
    INSERT INTO mail_entries (`+entryColumns+`)
    VALUES (:id, :order_number, :direction, :pieces, :mail_date, :correspondent, :subject,
      :archive_number, :observation, :file_path, :created_by, :created_at, :updated_at)
  `, e)
	return err
}

func (s *Store) Update(ctx context.Context, e Entry) error {
	res, err := s.DB.NamedExecContext(ctx, `
    UPDATE mail_entries SET
      order_number = :order_number, direction = :direction, pieces = :pieces, mail_date = :mail_date,
      correspondent = :correspondent, subject = :subject, archive_number = :archive_number,
      observation = :observation, file_path = :file_path, updated_at = :updated_at
    WHERE id = :id
  `, e)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: mail entry %s", apperr.ErrNotFound, e.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM mail_entries WHERE id = ?"), id)
	return err
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var rows []struct {
		Direction string `db:"direction"`
		Count     int    `db:"total"`
	}
	if err := s.DB.SelectContext(ctx, &rows, "SELECT direction, COUNT(1) AS total FROM mail_entries GROUP BY direction"); err != nil {
		return Totals{}, err
	}
	var out Totals
	for _, r := range rows {
		switch r.Direction {
		case DirectionIncoming:
			out.Incoming = r.Count
		case DirectionOutgoing:
			out.Outgoing = r.Count
		}
	}
	return out, nil
}
