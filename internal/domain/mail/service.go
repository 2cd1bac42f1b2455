package mail

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
	"cityhr/internal/platform/storage"
	"cityhr/internal/platform/textmatch"
)

type Service struct {
	store *Store
	files storage.Store
	now   func() time.Time
}

func NewService(store *Store, files storage.Store) *Service {
	return &Service{store: store, files: files, now: time.Now}
}

// List returns the register newest first. Query matches order number,
// correspondent, subject or archive number.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	direction := strings.TrimSpace(filter.Direction)
	if direction != "" && !slices.Contains(Directions, direction) {
		return nil, apperr.Invalid("direction", "must be incoming or outgoing")
	}
	entries, err := s.store.List(ctx, direction)
	if err != nil {
		return nil, err
	}
	q := strings.TrimSpace(filter.Query)
	if q == "" {
		return entries, nil
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if textmatch.ContainsAny(q, e.OrderNumber, e.Correspondent, e.Subject, e.ArchiveNumber) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Totals(ctx context.Context) (Totals, error) {
	return s.store.Totals(ctx)
}

// Create registers a mail item. filename and r are optional.
func (s *Service) Create(ctx context.Context, in Input, createdBy, filename string, r io.Reader) (Entry, error) {
	e, err := s.validate(ctx, in, "")
	if err != nil {
		return Entry{}, err
	}
	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.CreatedBy = createdBy
	e.CreatedAt = now
	e.UpdatedAt = now
	if r != nil && filename != "" {
		if e.FilePath, err = s.saveAttachment(ctx, e.OrderNumber, filename, r); err != nil {
			return Entry{}, err
		}
	}
	if err := s.store.Create(ctx, e); err != nil {
		s.removeFile(ctx, e.FilePath)
		return Entry{}, err
	}
	return e, nil
}

// Update edits an entry. The current attachment is kept unless a new one is
// supplied, in which case the old file is removed.
func (s *Service) Update(ctx context.Context, id string, in Input, filename string, r io.Reader) (Entry, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	e, err := s.validate(ctx, in, id)
	if err != nil {
		return Entry{}, err
	}
	e.ID = current.ID
	e.CreatedBy = current.CreatedBy
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = s.now().UTC()
	e.FilePath = current.FilePath
	replaced := false
	if r != nil && filename != "" {
		if e.FilePath, err = s.saveAttachment(ctx, e.OrderNumber, filename, r); err != nil {
			return Entry{}, err
		}
		replaced = true
	}
	if err := s.store.Update(ctx, e); err != nil {
		if replaced {
			s.removeFile(ctx, e.FilePath)
		}
		return Entry{}, err
	}
	if replaced && current.FilePath != "" && current.FilePath != e.FilePath {
		s.removeFile(ctx, current.FilePath)
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(ctx, current.FilePath)
	return nil
}

func (s *Service) OpenAttachment(ctx context.Context, id string) (io.ReadCloser, string, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if e.FilePath == "" {
		return nil, "", fmt.Errorf("%w: mail entry %s has no attachment", apperr.ErrNotFound, id)
	}
	rc, err := s.files.Open(ctx, e.FilePath)
	return rc, filepath.Base(e.FilePath), err
}

func (s *Service) saveAttachment(ctx context.Context, orderNumber, filename string, r io.Reader) (string, error) {
	return s.files.Save(ctx, storage.AreaMail, storage.Name("courrier", orderNumber, filename, s.now()), r)
}

func (s *Service) removeFile(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.files.Delete(ctx, ref); err != nil {
		slog.Warn("mail attachment removal failed", "err", err, "ref", ref)
	}
}

func (s *Service) validate(ctx context.Context, in Input, exceptID string) (Entry, error) {
	var issues apperr.Fields
	e := Entry{
		OrderNumber:   strings.TrimSpace(in.OrderNumber),
		Direction:     strings.TrimSpace(in.Direction),
		Pieces:        in.Pieces,
		Correspondent: strings.TrimSpace(in.Correspondent),
		Subject:       strings.TrimSpace(in.Subject),
		ArchiveNumber: strings.TrimSpace(in.ArchiveNumber),
		Observation:   strings.TrimSpace(in.Observation),
	}
	if e.OrderNumber == "" {
		issues.Add("orderNumber", "is required")
	}
	if !slices.Contains(Directions, e.Direction) {
		issues.Add("direction", "must be incoming or outgoing")
	}
	if e.Pieces == 0 {
		e.Pieces = 1
	}
	if e.Pieces < 1 {
		issues.Add("pieces", "must be at least 1")
	}
	if e.Correspondent == "" {
		issues.Add("correspondent", "is required")
	}
	if e.Subject == "" {
		issues.Add("subject", "is required")
	}
	d, err := dates.Parse(in.MailDate)
	if err != nil || d.IsZero() {
		issues.Add("mailDate", "must be a date in dd/mm/yyyy format")
	}
	e.MailDate = d
	if err := issues.Err(); err != nil {
		return Entry{}, err
	}
	taken, err := s.store.OrderNumberTaken(ctx, e.OrderNumber, exceptID)
	if err != nil {
		return Entry{}, err
	}
	if taken {
		return Entry{}, apperr.Invalid("orderNumber", "already exists")
	}
	return e, nil
}
