package models

import (
	"crypto/rand"
	"math/big"

	"gorm.io/gorm"
)

// HouseholdLead is the profile of the person who registered a household.
// The lead always counts as the first member, so TotalMembers starts at 1.
// Invariant: TotalMembers <= FamilyMembers and IsFull == (TotalMembers >= FamilyMembers)
// after every write; any path that touches one of the pair must recompute the other
// in the same update.
type HouseholdLead struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	FamilyMembers int  `json:"family_members"`
	TotalMembers  int  `json:"total_members" gorm:"default:1"`
	IsFull        bool `json:"is_full" gorm:"default:false"`

	// Short code members quote when joining the household.
	HouseholdCode string `json:"household_code" gorm:"uniqueIndex"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	BarangayID *uint     `json:"barangay_id"`
	Barangay   *Barangay `gorm:"foreignKey:BarangayID" json:"barangay,omitempty"`

	Members []HouseholdMember `gorm:"foreignKey:HouseholdLeadID" json:"members,omitempty"`
}

// BeforeCreate assigns the household code if the caller did not set one.
func (h *HouseholdLead) BeforeCreate(tx *gorm.DB) error {
	if h.HouseholdCode == "" {
		code, err := randomCode(8)
		if err != nil {
			return err
		}
		h.HouseholdCode = code
	}
	return nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
