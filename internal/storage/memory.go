package storage

import (
	"context"
	"strings"
	"sync"

	"handa/internal/models"
	"handa/internal/registration"
)

// Memory keeps every collection in process, guarded by one mutex. It backs
// the registration tests and deliberately does not implement
// registration.TxRunner, which puts the orchestrator on its delete-based
// compensation path.
type Memory struct {
	mu     sync.Mutex
	nextID uint

	users     map[uint]*models.User
	leads     map[uint]*models.HouseholdLead
	members   map[uint]*models.HouseholdMember
	rescuers  map[uint]*models.Rescuer
	captains  map[uint]*models.BrgyCaptain
	barangays map[uint]*models.Barangay
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[uint]*models.User),
		leads:     make(map[uint]*models.HouseholdLead),
		members:   make(map[uint]*models.HouseholdMember),
		rescuers:  make(map[uint]*models.Rescuer),
		captains:  make(map[uint]*models.BrgyCaptain),
		barangays: make(map[uint]*models.Barangay),
	}
}

func (m *Memory) Stores() registration.Stores {
	return registration.Stores{
		Identities: memIdentities{m},
		Leads:      memLeads{m},
		Members:    memMembers{m},
		Rescuers:   memRescuers{m},
		Captains:   memCaptains{m},
		Barangays:  memBarangays{m},
	}
}

func (m *Memory) nextKey() uint {
	m.nextID++
	return m.nextID
}

// AddBarangay seeds a barangay record, assigning its key.
func (m *Memory) AddBarangay(b *models.Barangay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextKey()
	cp := *b
	m.barangays[b.ID] = &cp
}

// --- identities ---

type memIdentities struct{ m *Memory }

func (s memIdentities) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memIdentities) Create(_ context.Context, u *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return registration.Duplicate("email already in use")
		}
	}
	u.ID = s.m.nextKey()
	cp := *u
	s.m.users[u.ID] = &cp
	return nil
}

func (s memIdentities) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.users, id)
	return nil
}

func (s memIdentities) UpdateLinkedProfile(_ context.Context, id, profileID uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if u, ok := s.m.users[id]; ok {
		u.ProfileID = profileID
	}
	return nil
}

// --- household leads ---

type memLeads struct{ m *Memory }

func (s memLeads) Create(_ context.Context, l *models.HouseholdLead) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l.ID = s.m.nextKey()
	if l.HouseholdCode == "" {
		code, err := registration.NewVerificationCode()
		if err != nil {
			return err
		}
		l.HouseholdCode = "HH" + code
	}
	cp := *l
	s.m.leads[l.ID] = &cp
	return nil
}

func (s memLeads) FindByID(_ context.Context, id uint) (*models.HouseholdLead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if l, ok := s.m.leads[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (s memLeads) FindByCode(_ context.Context, code string) (*models.HouseholdLead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, l := range s.m.leads {
		if strings.EqualFold(l.HouseholdCode, code) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memLeads) FindByOwner(_ context.Context, userID uint) (*models.HouseholdLead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, l := range s.m.leads {
		if l.UserID == userID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memLeads) IncrementMembers(_ context.Context, id uint) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.m.leads[id]
	if !ok || l.TotalMembers >= l.FamilyMembers {
		return false, nil
	}
	l.TotalMembers++
	l.IsFull = l.TotalMembers >= l.FamilyMembers
	return true, nil
}

func (s memLeads) DecrementMembers(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if l, ok := s.m.leads[id]; ok {
		if l.TotalMembers > 0 {
			l.TotalMembers--
		}
		l.IsFull = l.TotalMembers >= l.FamilyMembers
	}
	return nil
}

func (s memLeads) UpdateCapacity(_ context.Context, id uint, familyMembers int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if l, ok := s.m.leads[id]; ok {
		l.FamilyMembers = familyMembers
		l.IsFull = l.TotalMembers >= familyMembers
	}
	return nil
}

func (s memLeads) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.leads, id)
	return nil
}

// --- household members ---

type memMembers struct{ m *Memory }

func (s memMembers) Create(_ context.Context, mem *models.HouseholdMember) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	mem.ID = s.m.nextKey()
	cp := *mem
	s.m.members[mem.ID] = &cp
	return nil
}

func (s memMembers) FindByID(_ context.Context, id uint) (*models.HouseholdMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if mem, ok := s.m.members[id]; ok {
		cp := *mem
		return &cp, nil
	}
	return nil, nil
}

func (s memMembers) FindByOwner(_ context.Context, userID uint) (*models.HouseholdMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, mem := range s.m.members {
		if mem.UserID == userID {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memMembers) ListByLead(_ context.Context, leadID uint) ([]models.HouseholdMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.HouseholdMember
	for _, mem := range s.m.members {
		if mem.HouseholdLeadID == leadID {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (s memMembers) MarkVerified(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if mem, ok := s.m.members[id]; ok {
		mem.IsVerified = true
		mem.VerificationCode = ""
	}
	return nil
}

func (s memMembers) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.members, id)
	return nil
}

// --- rescuers ---

type memRescuers struct{ m *Memory }

func (s memRescuers) Create(_ context.Context, r *models.Rescuer) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.rescuers {
		if existing.IDNumber == r.IDNumber {
			return registration.Duplicate("rescuer id_number already registered")
		}
	}
	r.ID = s.m.nextKey()
	cp := *r
	s.m.rescuers[r.ID] = &cp
	return nil
}

func (s memRescuers) FindByIDNumber(_ context.Context, idNumber string) (*models.Rescuer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.rescuers {
		if r.IDNumber == idNumber {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memRescuers) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.rescuers, id)
	return nil
}

// --- barangay captains ---

type memCaptains struct{ m *Memory }

func (s memCaptains) Create(_ context.Context, cpt *models.BrgyCaptain) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.captains {
		if existing.IDNumber == cpt.IDNumber {
			return registration.Duplicate("captain id_number already registered")
		}
	}
	cpt.ID = s.m.nextKey()
	cp := *cpt
	s.m.captains[cpt.ID] = &cp
	return nil
}

func (s memCaptains) FindByIDNumber(_ context.Context, idNumber string) (*models.BrgyCaptain, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, cpt := range s.m.captains {
		if cpt.IDNumber == idNumber {
			cp := *cpt
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memCaptains) DeleteByID(_ context.Context, id uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.captains, id)
	return nil
}

// --- barangays ---

type memBarangays struct{ m *Memory }

func (s memBarangays) FindByID(_ context.Context, id uint) (*models.Barangay, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if b, ok := s.m.barangays[id]; ok {
		cp := *b
		if b.CaptainID != nil {
			cid := *b.CaptainID
			cp.CaptainID = &cid
		}
		return &cp, nil
	}
	return nil, nil
}

func (s memBarangays) SetCaptain(_ context.Context, barangayID, captainID uint) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.barangays[barangayID]
	if !ok || b.CaptainID != nil {
		return false, nil
	}
	b.CaptainID = &captainID
	return true, nil
}

func (s memBarangays) ClearCaptain(_ context.Context, barangayID, captainID uint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if b, ok := s.m.barangays[barangayID]; ok && b.CaptainID != nil && *b.CaptainID == captainID {
		b.CaptainID = nil
	}
	return nil
}
