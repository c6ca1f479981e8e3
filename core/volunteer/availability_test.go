package volunteer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/core"
)

func TestAvailability_Validate(t *testing.T) {
	tests := []struct {
		name       string
		a          Availability
		wantFields []string
	}{
		{name: "nil"},
		{name: "empty", a: Availability{}},
		{name: "valid", a: Availability{Monday: {Morning, Evening}, Sunday: {}}},
		{name: "unknown day", a: Availability{"funday": {Morning}}, wantFields: []string{"availability.funday"}},
		{name: "capitalized day", a: Availability{"Monday": {Morning}}, wantFields: []string{"availability.Monday"}},
		{
			name:       "unknown slots",
			a:          Availability{Friday: {"night", Afternoon}, Tuesday: {"noon"}},
			wantFields: []string{"availability.friday", "availability.tuesday"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "Validate() error = %v", err)
			flds := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				flds = append(flds, f.Field)
			}
			assert.Equal(t, tt.wantFields, flds)
		})
	}
}

func TestAvailability_IsSet(t *testing.T) {
	assert.False(t, Availability(nil).IsSet())
	assert.False(t, Availability{}.IsSet())
	assert.True(t, Availability{Saturday: nil}.IsSet())
}

func TestAvailability_ValueScan(t *testing.T) {
	v, err := Availability(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	a := Availability{Wednesday: {Afternoon}}
	v, err = a.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"wednesday":["afternoon"]}`, string(v.([]byte)))

	var scanned Availability
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, a, scanned)
	require.NoError(t, scanned.Scan("{}"))
	assert.False(t, scanned.IsSet())
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	assert.Error(t, scanned.Scan(42))
}
