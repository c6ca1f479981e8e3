package hours

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bolingo/core"
)

func TestNewHours_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })

	tests := []struct {
		name    string
		nh      NewHours
		wantErr bool
	}{
		{name: "no opportunity", nh: NewHours{Hours: 2, Date: now}, wantErr: true},
		{name: "zero hours", nh: NewHours{OpportunityID: "o1", Date: now}, wantErr: true},
		{name: "rounds to zero", nh: NewHours{OpportunityID: "o1", Hours: 0.004, Date: now}, wantErr: true},
		{name: "negative hours", nh: NewHours{OpportunityID: "o1", Hours: -1, Date: now}, wantErr: true},
		{name: "more than a day", nh: NewHours{OpportunityID: "o1", Hours: 24.5, Date: now}, wantErr: true},
		{name: "no date", nh: NewHours{OpportunityID: "o1", Hours: 2}, wantErr: true},
		{name: "tomorrow", nh: NewHours{OpportunityID: "o1", Hours: 2, Date: now.Add(time.Hour)}, wantErr: true},
		{name: "today", nh: NewHours{OpportunityID: "o1", Hours: 2, Date: now.Add(-23 * time.Hour)}},
		{name: "full day", nh: NewHours{OpportunityID: " o1 ", Hours: 24, Date: now.AddDate(0, -1, 0), Notes: "  long one "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nh.Validate(validate)
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestUpdateHours_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name      string
		hours     float64
		wantErr   bool
		wantHours float64
	}{
		{name: "rounds to zero", hours: 0.004, wantErr: true},
		{name: "more than a day", hours: 24.01, wantErr: true},
		{name: "smallest quantity", hours: 0.006, wantHours: 0.01},
		{name: "rounded", hours: 1.234, wantHours: 1.23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hrs := tt.hours
			uh := UpdateHours{Hours: &hrs}
			err := uh.Validate(validate)
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
			if !tt.wantErr {
				assert.Equal(t, tt.wantHours, *uh.Hours)
			}
		})
	}
}

func TestUpdateHours_apply(t *testing.T) {
	h := Record{Hours: 1, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	hrs := 2.456
	UpdateHours{Hours: &hrs}.apply(&h)
	assert.Equal(t, 2.46, h.Hours)
	assert.False(t, h.Notes.Valid)

	d := time.Date(2024, 3, 2, 17, 45, 0, 0, time.FixedZone("WAT", 3600))
	UpdateHours{Date: &d, Notes: core.StringPtr("drove the van")}.apply(&h)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), h.Date)
	assert.Equal(t, "drove the van", h.Notes.String)

	UpdateHours{Notes: core.StringPtr("")}.apply(&h)
	assert.False(t, h.Notes.Valid)
	assert.Equal(t, 2.46, h.Hours)
}
