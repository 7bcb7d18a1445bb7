package registration

import "strings"

type Role string

const (
	RoleRescuer         Role = "rescuer"
	RoleHouseholdLead   Role = "household_lead"
	RoleBrgyCaptain     Role = "brgy_captain"
	RoleHouseholdMember Role = "household_member"
	RoleAdmin           Role = "admin"
)

// ParseRole normalizes and checks the role against the closed enumeration.
func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleRescuer, RoleHouseholdLead, RoleBrgyCaptain, RoleHouseholdMember, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Registerable reports whether the role may be taken through signup. Admin
// accounts are provisioned out of band.
func (r Role) Registerable() bool {
	return r != RoleAdmin
}

// Relationship labels a household member may claim against its lead.
var relationships = map[string]bool{
	"spouse":   true,
	"child":    true,
	"parent":   true,
	"sibling":  true,
	"relative": true,
	"other":    true,
}

func validRelationship(rel string) bool {
	return relationships[strings.ToLower(strings.TrimSpace(rel))]
}
