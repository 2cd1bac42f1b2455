package shared

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"cityhr/internal/apperr"
	"cityhr/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects query and path parameter problems. Payload validation
// happens in the domain services.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(strings.TrimSpace(candidate)) {
			return
		}
	}
	v.Add(field, reason)
}

// Int parses raw as an integer in [lo, hi]. An empty raw yields fallback.
func (v *Validator) Int(field, raw string, fallback, lo, hi int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		v.Add(field, "must be a number between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
		return fallback
	}
	return n
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}

// issuesFrom flattens the field errors carried by err.
func issuesFrom(err error) []ValidationIssue {
	var many *apperr.FieldsError
	if errors.As(err, &many) {
		out := make([]ValidationIssue, 0, len(many.Issues))
		for _, issue := range many.Issues {
			out = append(out, ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		return out
	}
	var one *apperr.FieldError
	if errors.As(err, &one) {
		return []ValidationIssue{{Field: one.Field, Reason: one.Reason}}
	}
	return nil
}
