package models

import (
	"gorm.io/gorm"
)

// Barangay is an administrative area grouping households, evacuation centers
// and an assigned captain.
type Barangay struct {
	gorm.Model

	Name      string  `json:"name" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Boundary stored as WKB; the API accepts and returns GeoJSON.
	Boundary []byte `gorm:"type:bytea" json:"-"`

	// Assigned captain profile, at most one per barangay.
	CaptainID *uint `json:"captain_id"`

	EvacuationCenters []EvacuationCenter `gorm:"foreignKey:BarangayID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"evacuation_centers,omitempty"`
	Households        []HouseholdLead    `gorm:"foreignKey:BarangayID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"households,omitempty"`
}
