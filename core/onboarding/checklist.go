package onboarding

import (
	"math"
	"strings"

	"github.com/trezcool/bolingo/core/volunteer"
)

const checklistItems = 5

// Checklist holds the facts that make a volunteer ready to be scheduled.
type Checklist struct {
	ProfileFilled   bool `json:"profile_filled"` // phone and bio
	AvailabilitySet bool `json:"availability_set"`
	SkillsAdded     bool `json:"skills_added"`
	InterestsAdded  bool `json:"interests_added"`
	MediaRelease    bool `json:"media_release"`
}

func (c Checklist) completed() int {
	n := 0
	for _, done := range []bool{c.ProfileFilled, c.AvailabilitySet, c.SkillsAdded, c.InterestsAdded, c.MediaRelease} {
		if done {
			n++
		}
	}
	return n
}

// BuildChecklist derives the Checklist of a volunteer from their profile fields.
func BuildChecklist(
	phone, bio string,
	availability volunteer.Availability,
	skillsCount, interestsCount int,
	mediaRelease bool,
) Checklist {
	return Checklist{
		ProfileFilled:   strings.TrimSpace(phone) != "" && strings.TrimSpace(bio) != "",
		AvailabilitySet: availability.IsSet(),
		SkillsAdded:     skillsCount > 0,
		InterestsAdded:  interestsCount > 0,
		MediaRelease:    mediaRelease,
	}
}

// CompletionFromChecklist returns the share of completed items, as a rounded percentage.
func CompletionFromChecklist(c Checklist) int {
	return int(math.Round(100 * float64(c.completed()) / checklistItems))
}
