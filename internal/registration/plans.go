package registration

import (
	"context"
	"math"
	"strconv"
	"strings"

	"handa/internal/models"
)

// Input is the registration payload after HTTP binding. Exactly one of the
// role payloads is consulted, selected by Role.
type Input struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string

	Rescuer         *RescuerInput
	HouseholdLead   *HouseholdLeadInput
	HouseholdMember *HouseholdMemberInput
	BrgyCaptain     *BrgyCaptainInput
}

type RescuerInput struct {
	IDNumber     string
	Organization string
}

type HouseholdLeadInput struct {
	FamilyMembers int
	// Coordinates arrive either as two discrete fields or as a single
	// "lat,lng" string; the discrete form wins when present.
	Latitude       string
	Longitude      string
	GPSCoordinates string
	BarangayID     *uint
}

type HouseholdMemberInput struct {
	HouseholdCode string
	Relationship  string
}

type BrgyCaptainInput struct {
	IDNumber     string
	Organization string
	BarangayID   uint
}

// rolePlan is the closed set of role-specific signup paths. Adding a role
// means adding a variant here, and the switch in planFor stops compiling
// until it is handled.
type rolePlan interface {
	validate(fields map[string]string)
	// create persists the role profile for user and returns its key. Partial
	// writes it made itself must be undone before returning an error, since
	// the orchestrator's compensation only covers the identity record.
	create(ctx context.Context, s Stores, user *models.User) (uint, error)
	// undo reverses a successful create, including its side effects, when a
	// later step fails outside a transaction.
	undo(ctx context.Context, s Stores) error
	// attach links the created profile onto the identity record so the caller
	// sees it in the signup response.
	attach(user *models.User)
	// afterCommit runs once the registration has fully succeeded.
	afterCommit(o *Orchestrator)
}

func planFor(role Role, in Input) (rolePlan, *Failure) {
	switch role {
	case RoleRescuer:
		if in.Rescuer == nil {
			return nil, validationFailed(map[string]string{"rescuer": "rescuer details are required"})
		}
		return &rescuerPlan{in: *in.Rescuer}, nil
	case RoleHouseholdLead:
		if in.HouseholdLead == nil {
			return nil, validationFailed(map[string]string{"household_lead": "household details are required"})
		}
		return &leadPlan{in: *in.HouseholdLead}, nil
	case RoleHouseholdMember:
		if in.HouseholdMember == nil {
			return nil, validationFailed(map[string]string{"household_member": "member details are required"})
		}
		return &memberPlan{in: *in.HouseholdMember}, nil
	case RoleBrgyCaptain:
		if in.BrgyCaptain == nil {
			return nil, validationFailed(map[string]string{"brgy_captain": "captain details are required"})
		}
		return &captainPlan{in: *in.BrgyCaptain}, nil
	case RoleAdmin:
		return nil, failf(KindUnsupportedRole, "admin accounts cannot self-register")
	}
	return nil, failf(KindUnsupportedRole, "unknown role %q", role)
}

// --- rescuer ---

type rescuerPlan struct {
	in      RescuerInput
	created *models.Rescuer
}

func (p *rescuerPlan) validate(fields map[string]string) {
	if strings.TrimSpace(p.in.IDNumber) == "" {
		fields["id_number"] = "id_number is required for rescuer role"
	}
	if strings.TrimSpace(p.in.Organization) == "" {
		fields["organization"] = "organization is required for rescuer role"
	}
}

func (p *rescuerPlan) create(ctx context.Context, s Stores, user *models.User) (uint, error) {
	existing, err := s.Rescuers.FindByIDNumber(ctx, p.in.IDNumber)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, Duplicate("rescuer id_number already registered")
	}
	rescuer := &models.Rescuer{
		UserID:       user.ID,
		IDNumber:     p.in.IDNumber,
		Organization: p.in.Organization,
		Phone:        user.Phone,
	}
	if err := s.Rescuers.Create(ctx, rescuer); err != nil {
		return 0, err
	}
	p.created = rescuer
	return rescuer.ID, nil
}

func (p *rescuerPlan) undo(ctx context.Context, s Stores) error {
	if p.created == nil {
		return nil
	}
	return s.Rescuers.DeleteByID(ctx, p.created.ID)
}

func (p *rescuerPlan) attach(user *models.User) {
	user.Rescuer = p.created
}

func (p *rescuerPlan) afterCommit(o *Orchestrator) {}

// --- household lead ---

type leadPlan struct {
	in      HouseholdLeadInput
	created *models.HouseholdLead
}

func (p *leadPlan) validate(fields map[string]string) {
	if p.in.FamilyMembers < 1 {
		fields["family_members"] = "family_members must be at least 1"
	}
}

func (p *leadPlan) create(ctx context.Context, s Stores, user *models.User) (uint, error) {
	lat, lng, ferr := parseCoordinates(p.in.Latitude, p.in.Longitude, p.in.GPSCoordinates)
	if ferr != nil {
		return 0, ferr
	}
	if p.in.BarangayID != nil {
		brgy, err := s.Barangays.FindByID(ctx, *p.in.BarangayID)
		if err != nil {
			return 0, err
		}
		if brgy == nil {
			return 0, failf(KindReferenceNotFound, "barangay %d does not exist", *p.in.BarangayID)
		}
	}
	lead := &models.HouseholdLead{
		UserID:        user.ID,
		FamilyMembers: p.in.FamilyMembers,
		TotalMembers:  1, // the lead counts as the first member
		IsFull:        1 >= p.in.FamilyMembers,
		Latitude:      lat,
		Longitude:     lng,
		BarangayID:    p.in.BarangayID,
	}
	if err := s.Leads.Create(ctx, lead); err != nil {
		return 0, err
	}
	p.created = lead
	return lead.ID, nil
}

func (p *leadPlan) undo(ctx context.Context, s Stores) error {
	if p.created == nil {
		return nil
	}
	return s.Leads.DeleteByID(ctx, p.created.ID)
}

func (p *leadPlan) attach(user *models.User) {
	user.HouseholdLead = p.created
}

func (p *leadPlan) afterCommit(o *Orchestrator) {}

// --- household member ---

type memberPlan struct {
	in      HouseholdMemberInput
	created *models.HouseholdMember
	leadID  uint

	// captured during create for the post-commit notification
	leadUserID uint
	code       string
	memberName string
}

func (p *memberPlan) validate(fields map[string]string) {
	if strings.TrimSpace(p.in.HouseholdCode) == "" {
		fields["household_code"] = "household_code is required for household_member role"
	}
	if !validRelationship(p.in.Relationship) {
		fields["relationship"] = "relationship must be one of spouse, child, parent, sibling, relative, other"
	}
}

func (p *memberPlan) create(ctx context.Context, s Stores, user *models.User) (uint, error) {
	lead, err := s.Leads.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(p.in.HouseholdCode)))
	if err != nil {
		return 0, err
	}
	if lead == nil {
		return 0, failf(KindReferenceNotFound, "household with code %q does not exist", p.in.HouseholdCode)
	}
	if lead.IsFull || lead.TotalMembers >= lead.FamilyMembers {
		return 0, failf(KindHouseholdFull, "household has reached its declared capacity")
	}

	code, err := NewVerificationCode()
	if err != nil {
		return 0, err
	}
	member := &models.HouseholdMember{
		UserID:           user.ID,
		HouseholdLeadID:  lead.ID,
		Relationship:     strings.ToLower(strings.TrimSpace(p.in.Relationship)),
		VerificationCode: code,
		IsVerified:       false,
	}
	if err := s.Members.Create(ctx, member); err != nil {
		return 0, err
	}

	// The capacity check above is only advisory: two concurrent member
	// signups for the same lead may both pass it. The conditional increment
	// is the authoritative gate.
	ok, err := s.Leads.IncrementMembers(ctx, lead.ID)
	if err != nil {
		_ = s.Members.DeleteByID(ctx, member.ID)
		return 0, err
	}
	if !ok {
		_ = s.Members.DeleteByID(ctx, member.ID)
		return 0, failf(KindHouseholdFull, "household has reached its declared capacity")
	}

	p.created = member
	p.leadID = lead.ID
	p.leadUserID = lead.UserID
	p.code = code
	p.memberName = user.Name
	return member.ID, nil
}

// undo releases the counter slot as well as the member row, keeping the
// capacity invariant intact.
func (p *memberPlan) undo(ctx context.Context, s Stores) error {
	if p.created == nil {
		return nil
	}
	if err := s.Members.DeleteByID(ctx, p.created.ID); err != nil {
		return err
	}
	return s.Leads.DecrementMembers(ctx, p.leadID)
}

func (p *memberPlan) attach(user *models.User) {
	user.HouseholdMember = p.created
}

func (p *memberPlan) afterCommit(o *Orchestrator) {
	o.notify(p.leadUserID, "New household member pending",
		p.memberName+" registered as a member of your household. Verification code: "+p.code)
}

// --- barangay captain ---

type captainPlan struct {
	in      BrgyCaptainInput
	created *models.BrgyCaptain
}

func (p *captainPlan) validate(fields map[string]string) {
	if strings.TrimSpace(p.in.IDNumber) == "" {
		fields["id_number"] = "id_number is required for brgy_captain role"
	}
	if strings.TrimSpace(p.in.Organization) == "" {
		fields["organization"] = "organization is required for brgy_captain role"
	}
	if p.in.BarangayID == 0 {
		fields["barangay_id"] = "barangay_id is required for brgy_captain role"
	}
}

func (p *captainPlan) create(ctx context.Context, s Stores, user *models.User) (uint, error) {
	existing, err := s.Captains.FindByIDNumber(ctx, p.in.IDNumber)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, Duplicate("captain id_number already registered")
	}
	brgy, err := s.Barangays.FindByID(ctx, p.in.BarangayID)
	if err != nil {
		return 0, err
	}
	if brgy == nil {
		return 0, failf(KindReferenceNotFound, "barangay %d does not exist", p.in.BarangayID)
	}
	if brgy.CaptainID != nil {
		return 0, Duplicate("barangay already has an assigned captain")
	}

	cpt := &models.BrgyCaptain{
		UserID:       user.ID,
		IDNumber:     p.in.IDNumber,
		Organization: p.in.Organization,
		BarangayID:   p.in.BarangayID,
	}
	if err := s.Captains.Create(ctx, cpt); err != nil {
		return 0, err
	}
	ok, err := s.Barangays.SetCaptain(ctx, brgy.ID, cpt.ID)
	if err != nil {
		_ = s.Captains.DeleteByID(ctx, cpt.ID)
		return 0, err
	}
	if !ok {
		_ = s.Captains.DeleteByID(ctx, cpt.ID)
		return 0, Duplicate("barangay already has an assigned captain")
	}
	p.created = cpt
	return cpt.ID, nil
}

// undo releases the barangay assignment before dropping the captain row.
func (p *captainPlan) undo(ctx context.Context, s Stores) error {
	if p.created == nil {
		return nil
	}
	if err := s.Barangays.ClearCaptain(ctx, p.in.BarangayID, p.created.ID); err != nil {
		return err
	}
	return s.Captains.DeleteByID(ctx, p.created.ID)
}

func (p *captainPlan) attach(user *models.User) {
	user.BrgyCaptain = p.created
}

func (p *captainPlan) afterCommit(o *Orchestrator) {}

// parseCoordinates accepts either two discrete fields or a single "lat,lng"
// string. Both values must parse to finite numbers.
func parseCoordinates(latStr, lngStr, gps string) (float64, float64, *Failure) {
	if latStr != "" || lngStr != "" {
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err1 != nil || err2 != nil || !finite(lat) || !finite(lng) {
			return 0, 0, failf(KindInvalidLocation, "latitude and longitude must be finite numbers")
		}
		return lat, lng, nil
	}
	if gps != "" {
		parts := strings.Split(gps, ",")
		if len(parts) != 2 {
			return 0, 0, failf(KindInvalidLocation, "gps_coordinates must be \"lat,lng\"")
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil || !finite(lat) || !finite(lng) {
			return 0, 0, failf(KindInvalidLocation, "gps_coordinates must hold two finite numbers")
		}
		return lat, lng, nil
	}
	return 0, 0, failf(KindInvalidLocation, "household location is required")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
