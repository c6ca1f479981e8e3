package volunteer

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

// Volunteer is the profile attached to a user with the volunteer role.
type Volunteer struct {
	ID                    string       `json:"id" db:"id"`
	UserID                string       `json:"user_id" db:"user_id"`
	Name                  string       `json:"name" db:"name"`   // users.name
	Email                 string       `json:"email" db:"email"` // users.email
	Phone                 null.String  `json:"phone" db:"phone"`
	Bio                   null.String  `json:"bio" db:"bio"`
	Availability          Availability `json:"availability" db:"availability"`
	MediaRelease          bool         `json:"media_release" db:"media_release"`
	EmergencyContactName  null.String  `json:"emergency_contact_name" db:"emergency_contact_name"`
	EmergencyContactPhone null.String  `json:"emergency_contact_phone" db:"emergency_contact_phone"`
	CreatedAt             time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt             time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

// UpdateProfile holds the profile fields a volunteer may change. Nil fields are left untouched.
type UpdateProfile struct {
	Phone                 *string       `json:"phone" validate:"omitempty,max=32"`
	Bio                   *string       `json:"bio" validate:"omitempty,max=2000"`
	Availability          *Availability `json:"availability"`
	MediaRelease          *bool         `json:"media_release"`
	EmergencyContactName  *string       `json:"emergency_contact_name" validate:"omitempty,max=255"`
	EmergencyContactPhone *string       `json:"emergency_contact_phone" validate:"omitempty,max=32"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.Phone, up.Bio, up.EmergencyContactName, up.EmergencyContactPhone} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Availability != nil {
		return up.Availability.Validate()
	}
	return nil
}

// apply copies the provided fields onto v. Blank strings clear the field.
func (up UpdateProfile) apply(v *Volunteer) {
	setStr := func(dst *null.String, src *string) {
		if src == nil {
			return
		}
		if *src == "" {
			*dst = null.String{}
			return
		}
		*dst = null.StringFrom(*src)
	}
	setStr(&v.Phone, up.Phone)
	setStr(&v.Bio, up.Bio)
	setStr(&v.EmergencyContactName, up.EmergencyContactName)
	setStr(&v.EmergencyContactPhone, up.EmergencyContactPhone)
	if up.Availability != nil {
		v.Availability = *up.Availability
	}
	if up.MediaRelease != nil {
		v.MediaRelease = *up.MediaRelease
	}
}

type QueryFilter struct {
	Search string `query:"search"` // case-insensitive match on name or email
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
