package models

import "gorm.io/gorm"

// EvacuationCenter capacity figures: occupancy percentage and available
// capacity are derived in API responses, never stored.
type EvacuationCenter struct {
	gorm.Model
	Name             string  `json:"name"`
	BarangayID       uint    `json:"barangay_id" gorm:"index"`
	Capacity         int     `json:"capacity"`
	CurrentOccupancy int     `json:"current_occupancy" gorm:"default:0"`
	ContactPerson    string  `json:"contact_person"`
	ContactNumber    string  `json:"contact_number"`
	IsActive         bool    `json:"is_active" gorm:"default:true"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}
