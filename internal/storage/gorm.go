package storage

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"handa/internal/models"
	"handa/internal/registration"
)

// Gorm wires the registration store contracts to Postgres through GORM. It
// also implements registration.TxRunner, so the orchestrator takes the
// transactional path and never needs delete-based compensation.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Stores() registration.Stores {
	return gormStores(g.db)
}

func (g *Gorm) RunInTx(ctx context.Context, fn func(registration.Stores) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormStores(tx))
	})
}

func gormStores(db *gorm.DB) registration.Stores {
	return registration.Stores{
		Identities: gormIdentities{db},
		Leads:      gormLeads{db},
		Members:    gormMembers{db},
		Rescuers:   gormRescuers{db},
		Captains:   gormCaptains{db},
		Barangays:  gormBarangays{db},
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// --- identities ---

type gormIdentities struct{ db *gorm.DB }

func (s gormIdentities) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s gormIdentities) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return registration.Duplicate("email already in use")
		}
		return err
	}
	return nil
}

// DeleteByID removes the row outright rather than soft-deleting: a
// compensated identity must release its email for re-registration.
func (s gormIdentities) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.User{}, id).Error
}

func (s gormIdentities) UpdateLinkedProfile(ctx context.Context, id, profileID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("profile_id", profileID).Error
}

// --- household leads ---

type gormLeads struct{ db *gorm.DB }

func (s gormLeads) Create(ctx context.Context, l *models.HouseholdLead) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s gormLeads) FindByID(ctx context.Context, id uint) (*models.HouseholdLead, error) {
	var lead models.HouseholdLead
	err := s.db.WithContext(ctx).First(&lead, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s gormLeads) FindByCode(ctx context.Context, code string) (*models.HouseholdLead, error) {
	var lead models.HouseholdLead
	err := s.db.WithContext(ctx).Where("household_code = ?", code).First(&lead).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s gormLeads) FindByOwner(ctx context.Context, userID uint) (*models.HouseholdLead, error) {
	var lead models.HouseholdLead
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&lead).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// IncrementMembers relies on a single conditional UPDATE so that two racing
// member signups cannot both pass the capacity check: column references on
// the right-hand side read the pre-update row, and the WHERE clause admits at
// most as many increments as there are free slots.
func (s gormLeads) IncrementMembers(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.HouseholdLead{}).
		Where("id = ? AND total_members < family_members", id).
		Updates(map[string]interface{}{
			"total_members": gorm.Expr("total_members + 1"),
			"is_full":       gorm.Expr("total_members + 1 >= family_members"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s gormLeads) DecrementMembers(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.HouseholdLead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_members": gorm.Expr("GREATEST(total_members - 1, 0)"),
			"is_full":       gorm.Expr("GREATEST(total_members - 1, 0) >= family_members"),
		}).Error
}

func (s gormLeads) UpdateCapacity(ctx context.Context, id uint, familyMembers int) error {
	return s.db.WithContext(ctx).Model(&models.HouseholdLead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"family_members": familyMembers,
			"is_full":        gorm.Expr("total_members >= ?", familyMembers),
		}).Error
}

func (s gormLeads) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.HouseholdLead{}, id).Error
}

// --- household members ---

type gormMembers struct{ db *gorm.DB }

func (s gormMembers) Create(ctx context.Context, m *models.HouseholdMember) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s gormMembers) FindByID(ctx context.Context, id uint) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := s.db.WithContext(ctx).First(&member, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s gormMembers) FindByOwner(ctx context.Context, userID uint) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s gormMembers) ListByLead(ctx context.Context, leadID uint) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := s.db.WithContext(ctx).Where("household_lead_id = ?", leadID).
		Preload("User").Find(&members).Error
	return members, err
}

func (s gormMembers) MarkVerified(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.HouseholdMember{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified":       true,
			"verification_code": "",
		}).Error
}

func (s gormMembers) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.HouseholdMember{}, id).Error
}

// --- rescuers ---

type gormRescuers struct{ db *gorm.DB }

func (s gormRescuers) Create(ctx context.Context, r *models.Rescuer) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isDuplicate(err) {
			return registration.Duplicate("rescuer id_number already registered")
		}
		return err
	}
	return nil
}

func (s gormRescuers) FindByIDNumber(ctx context.Context, idNumber string) (*models.Rescuer, error) {
	var rescuer models.Rescuer
	err := s.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&rescuer).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rescuer, nil
}

func (s gormRescuers) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.Rescuer{}, id).Error
}

// --- barangay captains ---

type gormCaptains struct{ db *gorm.DB }

func (s gormCaptains) Create(ctx context.Context, cpt *models.BrgyCaptain) error {
	if err := s.db.WithContext(ctx).Create(cpt).Error; err != nil {
		if isDuplicate(err) {
			return registration.Duplicate("captain id_number already registered")
		}
		return err
	}
	return nil
}

func (s gormCaptains) FindByIDNumber(ctx context.Context, idNumber string) (*models.BrgyCaptain, error) {
	var captain models.BrgyCaptain
	err := s.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&captain).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &captain, nil
}

func (s gormCaptains) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.BrgyCaptain{}, id).Error
}

// --- barangays ---

type gormBarangays struct{ db *gorm.DB }

func (s gormBarangays) FindByID(ctx context.Context, id uint) (*models.Barangay, error) {
	var brgy models.Barangay
	err := s.db.WithContext(ctx).First(&brgy, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &brgy, nil
}

// SetCaptain only writes when no captain is assigned yet, so two racing
// captain signups for the same barangay cannot both win.
func (s gormBarangays) SetCaptain(ctx context.Context, barangayID, captainID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Barangay{}).
		Where("id = ? AND captain_id IS NULL", barangayID).
		Update("captain_id", captainID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s gormBarangays) ClearCaptain(ctx context.Context, barangayID, captainID uint) error {
	return s.db.WithContext(ctx).Model(&models.Barangay{}).
		Where("id = ? AND captain_id = ?", barangayID, captainID).
		Update("captain_id", nil).Error
}
