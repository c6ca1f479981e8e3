package volunteer

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
)

type (
	Weekday  string
	TimeSlot string

	// Availability maps a weekday to the time slots a volunteer can usually help in.
	// A day with no slots still counts as declared.
	Availability map[Weekday][]TimeSlot
)

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"

	Morning   TimeSlot = "morning"
	Afternoon TimeSlot = "afternoon"
	Evening   TimeSlot = "evening"
)

var (
	weekdays  = map[Weekday]bool{Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true, Saturday: true, Sunday: true}
	timeSlots = map[TimeSlot]bool{Morning: true, Afternoon: true, Evening: true}
)

// IsSet reports whether any weekday has been declared.
func (a Availability) IsSet() bool { return len(a) > 0 }

// Validate rejects unknown weekdays and time slots.
func (a Availability) Validate() error {
	var flds []core.FieldError
	days := make([]string, 0, len(a))
	for day := range a {
		days = append(days, string(day))
	}
	sort.Strings(days)

	for _, d := range days {
		day := Weekday(d)
		if !weekdays[day] {
			flds = append(flds, core.FieldError{Field: "availability." + d, Error: fmt.Sprintf("%q is not a weekday", d)})
			continue
		}
		for _, slot := range a[day] {
			if !timeSlots[slot] {
				flds = append(flds, core.FieldError{
					Field: "availability." + d,
					Error: fmt.Sprintf("%q is not a time slot (morning, afternoon, evening)", slot),
				})
			}
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid availability"), flds...)
	}
	return nil
}

// Value stores Availability as a JSON object; nil is stored as NULL.
func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan reads Availability from a JSON column.
func (a *Availability) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into Availability", src)
	}
	if len(data) == 0 || string(data) == "null" {
		*a = nil
		return nil
	}
	return json.Unmarshal(data, a)
}
