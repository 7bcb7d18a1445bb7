package models

import "gorm.io/gorm"

type HouseholdMember struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex"` // Foreign key to User
	User   User `gorm:"foreignKey:UserID" json:"-"`

	HouseholdLeadID uint          `json:"household_lead_id" gorm:"index"`
	HouseholdLead   HouseholdLead `gorm:"foreignKey:HouseholdLeadID" json:"-"`

	Relationship string `json:"relationship"` // "spouse", "child", "parent", "sibling", "relative", "other"

	// One-time code the lead relays to the member; cleared once verified.
	VerificationCode string `json:"-"`
	IsVerified       bool   `json:"is_verified" gorm:"default:false"`
}
