package opportunity

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestSpotsRemaining(t *testing.T) {
	for n := 0; n <= 6; n++ {
		assert.Nil(t, SpotsRemaining(null.Int{}, n), "unlimited, n=%d", n)
		assert.False(t, IsFull(null.Int{}, n))

		spots := SpotsRemaining(null.IntFrom(4), n)
		require.NotNil(t, spots)
		want := 4 - n
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, *spots, "n=%d", n)
		assert.Equal(t, n >= 4, IsFull(null.IntFrom(4), n), "n=%d", n)
	}
}

func TestNewOpportunity_Validate(t *testing.T) {
	validate := newValidator()
	start := time.Date(2030, 5, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		no      NewOpportunity
		wantErr error // checked with errors.Cause when set
		invalid bool
	}{
		{name: "blank title", no: NewOpportunity{Title: "   ", StartDate: start, EndDate: start.Add(time.Hour)}, invalid: true},
		{name: "no dates", no: NewOpportunity{Title: "Cleanup"}, invalid: true},
		{name: "end before start", no: NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(-time.Hour)}, wantErr: ErrInvalidDateRange},
		{name: "end equals start", no: NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start}, wantErr: ErrInvalidDateRange},
		{name: "zero capacity", no: NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(time.Hour), MaxVolunteers: core.IntPtr(0)}, invalid: true},
		{
			name:    "recurring without pattern",
			no:      NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(time.Hour), IsRecurring: true},
			invalid: true,
		},
		{
			name:    "recurring with a bad pattern",
			no:      NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(time.Hour), IsRecurring: true, RecurrencePattern: "FREQ=SOMETIMES"},
			invalid: true,
		},
		{name: "valid", no: NewOpportunity{Title: " Cleanup ", StartDate: start, EndDate: start.Add(time.Hour), MaxVolunteers: core.IntPtr(10)}},
		{
			name: "valid recurring",
			no:   NewOpportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(time.Hour), IsRecurring: true, RecurrencePattern: "RRULE:FREQ=WEEKLY;BYDAY=SA"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.no.Validate(validate)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.invalid:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateOpportunity_Validate(t *testing.T) {
	validate := newValidator()
	start := time.Date(2030, 5, 4, 9, 0, 0, 0, time.UTC)
	orig := Opportunity{Title: "Cleanup", StartDate: start, EndDate: start.Add(3 * time.Hour), MaxVolunteers: null.IntFrom(5)}

	at := func(d time.Duration) *time.Time {
		t := start.Add(d)
		return &t
	}
	tests := []struct {
		name    string
		uo      UpdateOpportunity
		wantErr bool
	}{
		{name: "nothing", uo: UpdateOpportunity{}},
		{name: "start after the current end", uo: UpdateOpportunity{StartDate: at(4 * time.Hour)}, wantErr: true},
		{name: "end before the current start", uo: UpdateOpportunity{EndDate: at(-time.Hour)}, wantErr: true},
		{name: "both moved later", uo: UpdateOpportunity{StartDate: at(4 * time.Hour), EndDate: at(6 * time.Hour)}},
		{name: "start earlier", uo: UpdateOpportunity{StartDate: at(-time.Hour)}},
		{name: "blank title", uo: UpdateOpportunity{Title: core.StringPtr(" ")}, wantErr: true},
		{name: "turned recurring without pattern", uo: UpdateOpportunity{IsRecurring: core.BoolPtr(true)}, wantErr: true},
		{
			name: "turned recurring",
			uo:   UpdateOpportunity{IsRecurring: core.BoolPtr(true), RecurrencePattern: core.StringPtr("FREQ=DAILY;COUNT=3")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.uo.Validate(orig, validate)
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}

	t.Run("merged dates error code", func(t *testing.T) {
		uo := UpdateOpportunity{EndDate: at(0)}
		assert.Equal(t, ErrInvalidDateRange, errors.Cause(uo.Validate(orig, validate)))
	})
}

func TestUpdateOpportunity_apply(t *testing.T) {
	opp := Opportunity{Title: "Cleanup", MaxVolunteers: null.IntFrom(5), RecurrencePattern: null.StringFrom("FREQ=DAILY")}

	UpdateOpportunity{MaxVolunteers: core.IntPtr(8), Location: core.StringPtr("Park")}.apply(&opp)
	assert.Equal(t, null.IntFrom(8), opp.MaxVolunteers)
	assert.Equal(t, "Park", opp.Location)
	assert.Equal(t, "Cleanup", opp.Title)

	UpdateOpportunity{UnlimitedCapacity: true, MaxVolunteers: core.IntPtr(3), RecurrencePattern: core.StringPtr("")}.apply(&opp)
	assert.False(t, opp.MaxVolunteers.Valid)
	assert.False(t, opp.RecurrencePattern.Valid)
}
