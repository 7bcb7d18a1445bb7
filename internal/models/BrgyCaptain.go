package models

import "gorm.io/gorm"

// BrgyCaptain is cross-referenced from its Barangay: the captain points at the
// barangay and the barangay's CaptainID points back. At most one active captain
// may be assigned to a barangay.
type BrgyCaptain struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex"` // Foreign key to User
	User   User `gorm:"foreignKey:UserID" json:"-"`

	IDNumber     string `json:"id_number" gorm:"uniqueIndex"`
	Organization string `json:"organization"`

	BarangayID uint     `json:"barangay_id" gorm:"index"`
	Barangay   Barangay `gorm:"foreignKey:BarangayID" json:"-"`
}
