package user

import "errors"

// Capability is something a caller may be allowed to do.
type Capability string

const (
	CapManageUsers          Capability = "manage_users"
	CapManageOpportunities  Capability = "manage_opportunities"
	CapViewRsvps            Capability = "view_rsvps"
	CapVerifyHours          Capability = "verify_hours"
	CapManageCatalog        Capability = "manage_catalog"
	CapSendCommunications   Capability = "send_communications"
	CapViewOnboarding       Capability = "view_onboarding"
	CapVolunteerSelfService Capability = "volunteer_self_service"
)

var ErrForbidden = errors.New("permission denied")

// capabilities is the single source of truth for role based access.
var capabilities = map[Capability][]string{
	CapManageUsers:          {RoleAdmin},
	CapManageOpportunities:  {RoleStaff, RoleAdmin},
	CapViewRsvps:            {RoleStaff, RoleAdmin},
	CapVerifyHours:          {RoleStaff, RoleAdmin},
	CapManageCatalog:        {RoleStaff, RoleAdmin},
	CapSendCommunications:   {RoleStaff, RoleAdmin},
	CapViewOnboarding:       {RoleStaff, RoleAdmin},
	CapVolunteerSelfService: {RoleVolunteer},
}

// Can reports whether role holds capability. Unknown capabilities are denied.
func Can(role string, capability Capability) bool {
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden unless role holds capability.
func Authorize(role string, capability Capability) error {
	if !Can(role, capability) {
		return ErrForbidden
	}
	return nil
}

// CapabilitiesOf lists every capability held by role.
func CapabilitiesOf(role string) []Capability {
	caps := make([]Capability, 0, len(capabilities))
	for c := range capabilities {
		if Can(role, c) {
			caps = append(caps, c)
		}
	}
	return caps
}
