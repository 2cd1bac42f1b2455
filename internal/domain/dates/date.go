// Package dates holds the single civil-date representation used across the
// application. Users type and read dates as dd/mm/yyyy; the store keeps
// yyyy-mm-dd so that lexical order equals chronological order.
package dates

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DisplayLayout = "02/01/2006"
	StorageLayout = "2006-01-02"

	// displayInput accepts one or two digit day and month.
	displayInput = "2/1/2006"

	secondsPerDay = 24 * 60 * 60
)

// timestampLayouts are the full timestamps a store driver may hand back for a
// date column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

var ErrInvalidDateFormat = errors.New("invalid date format")

// Date is a calendar day with no time-of-day and no zone. The zero value is
// the absent date and is stored as NULL.
type Date struct {
	t time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FromTime(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return New(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return FromTime(time.Now())
}

// ParseDisplay parses dd/mm/yyyy and rejects impossible calendar dates.
func ParseDisplay(s string) (Date, error) {
	value := strings.TrimSpace(s)
	if value == "" || strings.Count(value, "/") != 2 {
		return Date{}, fmt.Errorf("%w: %q, expected dd/mm/yyyy", ErrInvalidDateFormat, s)
	}
	parsed, err := time.Parse(displayInput, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q, expected dd/mm/yyyy", ErrInvalidDateFormat, s)
	}
	return FromTime(parsed), nil
}

func ParseStorage(s string) (Date, error) {
	value := strings.TrimSpace(s)
	parsed, err := time.Parse(StorageLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q, expected yyyy-mm-dd", ErrInvalidDateFormat, s)
	}
	return FromTime(parsed), nil
}

// Parse accepts either the display or the storage format. Empty input yields
// the zero Date.
func Parse(s string) (Date, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return Date{}, nil
	}
	if strings.Contains(value, "/") {
		return ParseDisplay(value)
	}
	if len(value) > len(StorageLayout) {
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return FromTime(parsed), nil
			}
		}
		return Date{}, fmt.Errorf("%w: %q, expected yyyy-mm-dd", ErrInvalidDateFormat, s)
	}
	return ParseStorage(value)
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// DaysSince returns the number of whole days from o to d.
func (d Date) DaysSince(o Date) int {
	return int((d.t.Unix() - o.t.Unix()) / secondsPerDay)
}

func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DisplayLayout)
}

func (d Date) Storage() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(StorageLayout)
}

func (d Date) String() string {
	return d.Display()
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(year int, month time.Month) (Date, Date) {
	first := New(year, month, 1)
	return first, Date{t: first.t.AddDate(0, 1, -1)}
}

// YearBounds returns 1 January and 31 December of year.
func YearBounds(year int) (Date, Date) {
	return New(year, time.January, 1), New(year, time.December, 31)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Display())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDateFormat, string(data))
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as yyyy-mm-dd text.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Storage(), nil
}

// Scan reads dates written by any version of the store, including rows that
// hold the display format.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("dates: cannot scan %T", src)
	}
}
