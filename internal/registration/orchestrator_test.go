package registration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handa/internal/models"
	"handa/internal/registration"
	"handa/internal/storage"
)

type sentMessage struct {
	UserID  uint
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) Send(userID uint, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{UserID: userID, Subject: subject, Body: body})
	return nil
}

func (f *fakeNotifier) sentTo(userID uint) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(identityID uint, role registration.Role, profileID uint) (string, error) {
	return fmt.Sprintf("tok-%d-%s-%d", identityID, role, profileID), nil
}

func newTestOrchestrator(t *testing.T) (*registration.Orchestrator, *storage.Memory, *fakeNotifier) {
	t.Helper()
	mem := storage.NewMemory()
	notifier := &fakeNotifier{}
	orch := registration.New(mem.Stores(), nil, notifier, fakeIssuer{})
	return orch, mem, notifier
}

func leadInput(email string, familyMembers int) registration.Input {
	return registration.Input{
		Name:     "Maria Santos",
		Email:    email,
		Password: "secret123",
		Role:     "household_lead",
		HouseholdLead: &registration.HouseholdLeadInput{
			FamilyMembers: familyMembers,
			Latitude:      "14.5",
			Longitude:     "121.0",
		},
	}
}

func memberInput(email, householdCode string) registration.Input {
	return registration.Input{
		Name:     "Jose Santos",
		Email:    email,
		Password: "secret123",
		Role:     "household_member",
		HouseholdMember: &registration.HouseholdMemberInput{
			HouseholdCode: householdCode,
			Relationship:  "child",
		},
	}
}

func requireKind(t *testing.T, err error, kind registration.Kind) *registration.Failure {
	t.Helper()
	require.Error(t, err)
	f, ok := registration.AsFailure(err)
	require.True(t, ok, "expected a registration failure, got %v", err)
	require.Equal(t, kind, f.Kind)
	return f
}

func TestRegisterHouseholdLead(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	res, err := orch.Register(ctx, leadInput("maria@example.com", 4))
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotZero(t, res.ProfileID)

	lead, err := mem.Stores().Leads.FindByID(ctx, res.ProfileID)
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, 1, lead.TotalMembers)
	assert.False(t, lead.IsFull)
	assert.NotEmpty(t, lead.HouseholdCode)
	assert.Equal(t, 14.5, lead.Latitude)
	assert.Equal(t, 121.0, lead.Longitude)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, res.ProfileID, user.ProfileID)
	assert.Equal(t, "household_lead", user.Role)

	// The created profile rides along on the result so the caller learns the
	// household code without a second request.
	require.NotNil(t, res.User.HouseholdLead)
	assert.Equal(t, lead.HouseholdCode, res.User.HouseholdLead.HouseholdCode)
}

func TestRegisterLeadOfOneIsImmediatelyFull(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	res, err := orch.Register(ctx, leadInput("solo@example.com", 1))
	require.NoError(t, err)

	lead, err := mem.Stores().Leads.FindByID(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.True(t, lead.IsFull)
}

func TestRegisterLeadAcceptsGPSCoordinateString(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	in := leadInput("gps@example.com", 3)
	in.HouseholdLead.Latitude = ""
	in.HouseholdLead.Longitude = ""
	in.HouseholdLead.GPSCoordinates = "14.676, 121.0437"

	res, err := orch.Register(ctx, in)
	require.NoError(t, err)

	lead, err := mem.Stores().Leads.FindByID(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.InDelta(t, 14.676, lead.Latitude, 1e-9)
	assert.InDelta(t, 121.0437, lead.Longitude, 1e-9)
}

func TestRegisterLeadInvalidLocationCompensates(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	in := leadInput("badloc@example.com", 3)
	in.HouseholdLead.Latitude = ""
	in.HouseholdLead.Longitude = ""
	in.HouseholdLead.GPSCoordinates = "not,valid"

	_, err := orch.Register(ctx, in)
	requireKind(t, err, registration.KindInvalidLocation)

	// Compensation removed the identity record.
	user, err := mem.Stores().Identities.FindByEmail(ctx, "badloc@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterLeadUnknownBarangay(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	missing := uint(99)
	in := leadInput("nobrgy@example.com", 3)
	in.HouseholdLead.BarangayID = &missing

	_, err := orch.Register(ctx, in)
	requireKind(t, err, registration.KindReferenceNotFound)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "nobrgy@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterRejectsUnknownAndAdminRoles(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	for _, role := range []string{"mayor", "", "admin"} {
		in := leadInput("role@example.com", 3)
		in.Role = role
		_, err := orch.Register(ctx, in)
		requireKind(t, err, registration.KindUnsupportedRole)
	}

	user, err := mem.Stores().Identities.FindByEmail(ctx, "role@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterValidationListsEveryMissingField(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	in := registration.Input{
		Email:   "rescuer@example.com",
		Role:    "rescuer",
		Rescuer: &registration.RescuerInput{},
	}
	_, err := orch.Register(ctx, in)
	f := requireKind(t, err, registration.KindValidationFailed)
	assert.Contains(t, f.Fields, "name")
	assert.Contains(t, f.Fields, "password")
	assert.Contains(t, f.Fields, "id_number")
	assert.Contains(t, f.Fields, "organization")

	user, err := mem.Stores().Identities.FindByEmail(ctx, "rescuer@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orch.Register(ctx, leadInput("dup@example.com", 3))
	require.NoError(t, err)

	in := registration.Input{
		Name:     "Other Person",
		Email:    "dup@example.com",
		Password: "secret123",
		Role:     "rescuer",
		Rescuer:  &registration.RescuerInput{IDNumber: "R-100", Organization: "MDRRMO"},
	}
	_, err = orch.Register(ctx, in)
	requireKind(t, err, registration.KindDuplicateResource)

	// The original identity is untouched.
	user, err := mem.Stores().Identities.FindByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "household_lead", user.Role)
}

func TestRegisterRescuerDuplicateIDNumber(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	rescuer := func(email string) registration.Input {
		return registration.Input{
			Name:     "Rico Reyes",
			Email:    email,
			Password: "secret123",
			Role:     "rescuer",
			Rescuer:  &registration.RescuerInput{IDNumber: "R-200", Organization: "BFP"},
		}
	}

	_, err := orch.Register(ctx, rescuer("first@example.com"))
	require.NoError(t, err)

	_, err = orch.Register(ctx, rescuer("second@example.com"))
	requireKind(t, err, registration.KindDuplicateResource)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "second@example.com")
	require.NoError(t, err)
	assert.Nil(t, user, "failed signup must not leave an identity behind")
}

func TestRegisterCaptainAssignsBarangay(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	brgy := &models.Barangay{Name: "San Roque", Latitude: 14.6, Longitude: 121.1}
	mem.AddBarangay(brgy)

	captain := func(email, idNumber string) registration.Input {
		return registration.Input{
			Name:     "Cap Cruz",
			Email:    email,
			Password: "secret123",
			Role:     "brgy_captain",
			BrgyCaptain: &registration.BrgyCaptainInput{
				IDNumber:     idNumber,
				Organization: "Barangay Council",
				BarangayID:   brgy.ID,
			},
		}
	}

	res, err := orch.Register(ctx, captain("cap@example.com", "C-1"))
	require.NoError(t, err)

	got, err := mem.Stores().Barangays.FindByID(ctx, brgy.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CaptainID)
	assert.Equal(t, res.ProfileID, *got.CaptainID)

	// A second captain for the same barangay is rejected and the assignment
	// is unchanged.
	_, err = orch.Register(ctx, captain("cap2@example.com", "C-2"))
	requireKind(t, err, registration.KindDuplicateResource)

	got, err = mem.Stores().Barangays.FindByID(ctx, brgy.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ProfileID, *got.CaptainID)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "cap2@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterMemberScenario(t *testing.T) {
	orch, mem, notifier := newTestOrchestrator(t)
	ctx := context.Background()

	leadRes, err := orch.Register(ctx, leadInput("lead@example.com", 2))
	require.NoError(t, err)
	lead, err := mem.Stores().Leads.FindByID(ctx, leadRes.ProfileID)
	require.NoError(t, err)

	// Member A fills the household.
	_, err = orch.Register(ctx, memberInput("a@example.com", lead.HouseholdCode))
	require.NoError(t, err)

	lead, err = mem.Stores().Leads.FindByID(ctx, leadRes.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, 2, lead.TotalMembers)
	assert.True(t, lead.IsFull)

	// The lead was told about the pending member.
	msgs := notifier.sentTo(leadRes.User.ID)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Body, "Verification code: ")

	// Member B bounces off the full household, leaving no identity.
	_, err = orch.Register(ctx, memberInput("b@example.com", lead.HouseholdCode))
	requireKind(t, err, registration.KindHouseholdFull)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterMemberUnknownHousehold(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orch.Register(ctx, memberInput("lost@example.com", "NOSUCHCODE"))
	requireKind(t, err, registration.KindReferenceNotFound)

	user, err := mem.Stores().Identities.FindByEmail(ctx, "lost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegisterMemberBadRelationship(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)

	in := memberInput("rel@example.com", "whatever")
	in.HouseholdMember.Relationship = "acquaintance"
	_, err := orch.Register(context.Background(), in)
	f := requireKind(t, err, registration.KindValidationFailed)
	assert.Contains(t, f.Fields, "relationship")
}

func TestConcurrentMemberRegistrationsNeverOvershoot(t *testing.T) {
	orch, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	const capacity = 4 // lead + 3 members
	const attempts = 10

	leadRes, err := orch.Register(ctx, leadInput("race-lead@example.com", capacity))
	require.NoError(t, err)
	lead, err := mem.Stores().Leads.FindByID(ctx, leadRes.ProfileID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := orch.Register(ctx, memberInput(fmt.Sprintf("racer%d@example.com", i), lead.HouseholdCode))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, fulls := 0, 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		f, ok := registration.AsFailure(err)
		require.True(t, ok, "unexpected error: %v", err)
		require.Equal(t, registration.KindHouseholdFull, f.Kind)
		fulls++
	}
	assert.Equal(t, capacity-1, successes)
	assert.Equal(t, attempts-(capacity-1), fulls)

	lead, err = mem.Stores().Leads.FindByID(ctx, leadRes.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, capacity, lead.TotalMembers)
	assert.True(t, lead.IsFull)
}

type failingDeleteIdentities struct {
	registration.IdentityStore
}

func (failingDeleteIdentities) DeleteByID(ctx context.Context, id uint) error {
	return errors.New("storage offline")
}

func TestCompensationFailureIsSurfaced(t *testing.T) {
	mem := storage.NewMemory()
	stores := mem.Stores()
	stores.Identities = failingDeleteIdentities{stores.Identities}
	orch := registration.New(stores, nil, nil, fakeIssuer{})

	// Member signup against a missing household fails after the identity
	// write, and the compensating delete is broken.
	_, err := orch.Register(context.Background(), memberInput("stuck@example.com", "NOSUCHCODE"))
	requireKind(t, err, registration.KindCompensationFailure)

	// The orphan identity is observable, as the failure promises.
	user, ferr := stores.Identities.FindByEmail(context.Background(), "stuck@example.com")
	require.NoError(t, ferr)
	assert.NotNil(t, user)
}

type failingLinkIdentities struct {
	registration.IdentityStore
}

func (failingLinkIdentities) UpdateLinkedProfile(ctx context.Context, id, profileID uint) error {
	return errors.New("link write lost")
}

// A failure after the profile has committed must roll the profile back too,
// not just the identity, or the member row and counter slot leak.
func TestCompensationRollsBackCommittedProfile(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	seedOrch := registration.New(mem.Stores(), nil, nil, fakeIssuer{})
	leadRes, err := seedOrch.Register(ctx, leadInput("undo-lead@example.com", 3))
	require.NoError(t, err)
	lead, err := mem.Stores().Leads.FindByID(ctx, leadRes.ProfileID)
	require.NoError(t, err)

	stores := mem.Stores()
	stores.Identities = failingLinkIdentities{stores.Identities}
	orch := registration.New(stores, nil, nil, fakeIssuer{})

	_, err = orch.Register(ctx, memberInput("undo-member@example.com", lead.HouseholdCode))
	require.Error(t, err)

	// Identity, member profile and the counter slot are all released.
	user, ferr := stores.Identities.FindByEmail(ctx, "undo-member@example.com")
	require.NoError(t, ferr)
	assert.Nil(t, user)

	members, err := mem.Stores().Members.ListByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	lead, err = mem.Stores().Leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, lead.TotalMembers)
	assert.False(t, lead.IsFull)
}

type passthroughTx struct {
	stores registration.Stores
	calls  int
}

func (p *passthroughTx) RunInTx(ctx context.Context, fn func(registration.Stores) error) error {
	p.calls++
	return fn(p.stores)
}

func TestRegisterUsesTransactionWhenAvailable(t *testing.T) {
	mem := storage.NewMemory()
	tx := &passthroughTx{stores: mem.Stores()}
	orch := registration.New(mem.Stores(), tx, nil, fakeIssuer{})

	_, err := orch.Register(context.Background(), leadInput("txn@example.com", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
}
