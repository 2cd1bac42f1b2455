package shared

import (
	"cityhr/internal/domain/dates"
)

// Date parses an optional query date. Display, storage and RFC3339 forms are
// accepted; an empty value yields the zero date.
func (v *Validator) Date(field, raw string) dates.Date {
	d, err := dates.Parse(raw)
	if err != nil {
		v.Add(field, "must be a date in dd/mm/yyyy format")
		return dates.Date{}
	}
	return d
}
