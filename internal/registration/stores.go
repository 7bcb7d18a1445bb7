package registration

import (
	"context"

	"handa/internal/models"
)

// Store collaborators. Lookup methods return (nil, nil) when no record
// matches; errors are reserved for storage faults.

type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	DeleteByID(ctx context.Context, id uint) error
	UpdateLinkedProfile(ctx context.Context, id, profileID uint) error
}

type LeadStore interface {
	Create(ctx context.Context, l *models.HouseholdLead) error
	FindByID(ctx context.Context, id uint) (*models.HouseholdLead, error)
	FindByCode(ctx context.Context, code string) (*models.HouseholdLead, error)
	FindByOwner(ctx context.Context, userID uint) (*models.HouseholdLead, error)
	// IncrementMembers adds one to TotalMembers and recomputes IsFull in a
	// single conditional update. Returns false when the household was already
	// at capacity and no row changed.
	IncrementMembers(ctx context.Context, id uint) (bool, error)
	// DecrementMembers subtracts one, floored at zero, and recomputes IsFull
	// in the same update.
	DecrementMembers(ctx context.Context, id uint) error
	// UpdateCapacity sets FamilyMembers and recomputes IsFull against the
	// current TotalMembers in the same update. TotalMembers is not altered.
	UpdateCapacity(ctx context.Context, id uint, familyMembers int) error
	DeleteByID(ctx context.Context, id uint) error
}

type MemberStore interface {
	Create(ctx context.Context, m *models.HouseholdMember) error
	FindByID(ctx context.Context, id uint) (*models.HouseholdMember, error)
	FindByOwner(ctx context.Context, userID uint) (*models.HouseholdMember, error)
	ListByLead(ctx context.Context, leadID uint) ([]models.HouseholdMember, error)
	// MarkVerified sets IsVerified and clears the stored code in one update.
	MarkVerified(ctx context.Context, id uint) error
	DeleteByID(ctx context.Context, id uint) error
}

type RescuerStore interface {
	Create(ctx context.Context, r *models.Rescuer) error
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Rescuer, error)
	DeleteByID(ctx context.Context, id uint) error
}

type CaptainStore interface {
	Create(ctx context.Context, cpt *models.BrgyCaptain) error
	FindByIDNumber(ctx context.Context, idNumber string) (*models.BrgyCaptain, error)
	DeleteByID(ctx context.Context, id uint) error
}

type BarangayStore interface {
	FindByID(ctx context.Context, id uint) (*models.Barangay, error)
	// SetCaptain assigns captainID if the barangay has no captain yet.
	// Returns false when one is already assigned.
	SetCaptain(ctx context.Context, barangayID, captainID uint) (bool, error)
	// ClearCaptain removes the assignment, but only if captainID still holds it.
	ClearCaptain(ctx context.Context, barangayID, captainID uint) error
}

type Stores struct {
	Identities IdentityStore
	Leads      LeadStore
	Members    MemberStore
	Rescuers   RescuerStore
	Captains   CaptainStore
	Barangays  BarangayStore
}

// TxRunner runs fn against transactional views of the stores so that the
// identity and profile writes commit or roll back together. When the backing
// store provides one, the delete-based compensation path is never taken.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(Stores) error) error
}

// Notifier delivers fire-and-forget messages. Send errors are logged by the
// orchestrator and never surfaced to callers.
type Notifier interface {
	Send(userID uint, subject, body string) error
}

// TokenIssuer mints the opaque session credential returned on signup.
type TokenIssuer interface {
	Issue(identityID uint, role Role, profileID uint) (string, error)
}
