package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "rescuer", "household_lead", "brgy_captain", "household_member", "admin"

	Verified bool `json:"verified" gorm:"default:false"`
	Active   bool `json:"active" gorm:"default:true"`

	// Key of the role-specific profile record, set once the profile exists.
	ProfileID uint `json:"profile_id"`

	// Role-specific relations
	HouseholdLead   *HouseholdLead   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"household_lead,omitempty"`
	HouseholdMember *HouseholdMember `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"household_member,omitempty"`
	Rescuer         *Rescuer         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"rescuer,omitempty"`
	BrgyCaptain     *BrgyCaptain     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"brgy_captain,omitempty"`
}
