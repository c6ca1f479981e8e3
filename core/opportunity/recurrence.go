package opportunity

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"github.com/trezcool/bolingo/core"
)

// maxOccurrenceRange bounds how far a recurrence may be expanded in one call.
const maxOccurrenceRange = 366 * 24 * time.Hour

var (
	ErrInvalidDateRange  = core.NewCodedValidationError("INVALID_DATE_RANGE", "end date must be after start date")
	errInvalidRecurrence = errors.New("invalid recurrence pattern")
	errMissingRecurrence = errors.New("a recurrence pattern is required for recurring opportunities")
	errOccurrenceRange   = errors.New("occurrence range must be at most one year and end after it starts")
)

func checkDateRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func checkRecurrence(isRecurring bool, pattern string) error {
	if !isRecurring {
		return nil
	}
	if pattern == "" {
		return core.NewValidationError(errMissingRecurrence, core.FieldError{Field: "recurrence_pattern", Error: errMissingRecurrence.Error()})
	}
	if _, err := parseRule(pattern); err != nil {
		return core.NewValidationError(errInvalidRecurrence, core.FieldError{Field: "recurrence_pattern", Error: err.Error()})
	}
	return nil
}

func parseRule(pattern string) (*rrule.RRule, error) {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "RRULE:")
	rule, err := rrule.StrToRRule(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "parsing rrule")
	}
	return rule, nil
}

// Occurrences expands opp between from and to (inclusive). A non-recurring Opportunity has a single
// occurrence, returned only if it starts within the range. Every occurrence keeps the original duration.
func Occurrences(opp Opportunity, from, to time.Time) ([]Occurrence, error) {
	if !to.After(from) || to.Sub(from) > maxOccurrenceRange {
		return nil, core.NewValidationError(errOccurrenceRange)
	}

	duration := opp.EndDate.Sub(opp.StartDate)
	if !opp.IsRecurring || !opp.RecurrencePattern.Valid {
		if opp.StartDate.Before(from) || opp.StartDate.After(to) {
			return []Occurrence{}, nil
		}
		return []Occurrence{{StartDate: opp.StartDate, EndDate: opp.EndDate}}, nil
	}

	rule, err := parseRule(opp.RecurrencePattern.String)
	if err != nil {
		return nil, core.NewValidationError(errInvalidRecurrence)
	}
	rule.DTStart(opp.StartDate)

	starts := rule.Between(from, to, true)
	occs := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		occs = append(occs, Occurrence{StartDate: s.UTC(), EndDate: s.Add(duration).UTC()})
	}
	return occs, nil
}
