package models

import "gorm.io/gorm"

type Rescuer struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex"` // Foreign key to User
	User   User `gorm:"foreignKey:UserID" json:"-"`

	IDNumber     string `json:"id_number" gorm:"uniqueIndex"`
	Organization string `json:"organization"`
	Phone        string `json:"phone"`
}
