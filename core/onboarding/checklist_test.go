package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bolingo/core/volunteer"
)

func TestBuildChecklist(t *testing.T) {
	monday := volunteer.Availability{volunteer.Monday: {volunteer.Morning}}

	tests := []struct {
		name           string
		phone, bio     string
		availability   volunteer.Availability
		skills         int
		interests      int
		mediaRelease   bool
		want           Checklist
		wantCompletion int
	}{
		{name: "empty", want: Checklist{}, wantCompletion: 0},
		{name: "phone only", phone: "555-1234", want: Checklist{}, wantCompletion: 0},
		{name: "blank bio", phone: "555-1234", bio: "   ", want: Checklist{}, wantCompletion: 0},
		{
			name:           "profile filled",
			phone:          "555-1234",
			bio:            "hi",
			want:           Checklist{ProfileFilled: true},
			wantCompletion: 20,
		},
		{
			name:           "empty availability object",
			availability:   volunteer.Availability{},
			want:           Checklist{},
			wantCompletion: 0,
		},
		{
			name:           "day without slots",
			availability:   volunteer.Availability{volunteer.Sunday: {}},
			want:           Checklist{AvailabilitySet: true},
			wantCompletion: 20,
		},
		{
			name:           "skills & interests",
			skills:         3,
			interests:      1,
			want:           Checklist{SkillsAdded: true, InterestsAdded: true},
			wantCompletion: 40,
		},
		{
			name:           "all but media release",
			phone:          "555-1234",
			bio:            "hi",
			availability:   monday,
			skills:         1,
			interests:      1,
			want:           Checklist{ProfileFilled: true, AvailabilitySet: true, SkillsAdded: true, InterestsAdded: true},
			wantCompletion: 80,
		},
		{
			name:           "complete",
			phone:          "555-1234",
			bio:            "hi",
			availability:   monday,
			skills:         1,
			interests:      1,
			mediaRelease:   true,
			want:           Checklist{ProfileFilled: true, AvailabilitySet: true, SkillsAdded: true, InterestsAdded: true, MediaRelease: true},
			wantCompletion: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildChecklist(tt.phone, tt.bio, tt.availability, tt.skills, tt.interests, tt.mediaRelease)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCompletion, CompletionFromChecklist(got))
		})
	}
}

func TestCompletionFromChecklist_eachItemIsWorth20(t *testing.T) {
	// every subset of the five items
	for mask := 0; mask < 1<<checklistItems; mask++ {
		base := Checklist{
			ProfileFilled:   mask&1 != 0,
			AvailabilitySet: mask&2 != 0,
			SkillsAdded:     mask&4 != 0,
			InterestsAdded:  mask&8 != 0,
			MediaRelease:    mask&16 != 0,
		}
		if base.SkillsAdded {
			continue
		}
		withSkill := base
		withSkill.SkillsAdded = true

		before, after := CompletionFromChecklist(base), CompletionFromChecklist(withSkill)
		assert.Equal(t, 20*base.completed(), before, "mask %05b", mask)
		assert.Equal(t, before+20, after, "mask %05b", mask)
	}
}

func TestStatusFromFacts(t *testing.T) {
	f := Facts{VolunteerID: "v1", UserID: "u1", Name: "Vee", Email: "vee@test.cd", SkillsCount: 1, MediaRelease: true}

	st := StatusFromFacts(f)
	assert.Equal(t, "v1", st.VolunteerID)
	assert.Equal(t, "u1", st.UserID)
	assert.Equal(t, 40, st.CompletionPercentage)
	assert.False(t, st.OnboardingComplete)
	assert.Equal(t, st, StatusFromFacts(f), "deterministic")
}
