package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"handa/internal/models"
)

type CenterController struct {
	DB *gorm.DB
}

// centerResponse adds the derived occupancy figures to the stored record.
type centerResponse struct {
	models.EvacuationCenter
	OccupancyPercent  float64 `json:"occupancy_percent"`
	AvailableCapacity int     `json:"available_capacity"`
}

func toCenterResponse(ec models.EvacuationCenter) centerResponse {
	pct := 0.0
	if ec.Capacity > 0 {
		pct = float64(ec.CurrentOccupancy) / float64(ec.Capacity) * 100
	}
	avail := ec.Capacity - ec.CurrentOccupancy
	if avail < 0 {
		avail = 0
	}
	return centerResponse{EvacuationCenter: ec, OccupancyPercent: pct, AvailableCapacity: avail}
}

// CreateCenter registers a new evacuation center (admin only).
func (e *CenterController) CreateCenter(c *gin.Context) {
	var input struct {
		Name          string  `json:"name" binding:"required"`
		BarangayID    uint    `json:"barangay_id" binding:"required"`
		Capacity      int     `json:"capacity" binding:"required,min=1"`
		ContactPerson string  `json:"contact_person"`
		ContactNumber string  `json:"contact_number"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid center input: "+err.Error())
		return
	}

	var brgy models.Barangay
	if err := e.DB.First(&brgy, input.BarangayID).Error; err != nil {
		respondError(c, http.StatusNotFound, "Barangay not found")
		return
	}

	center := models.EvacuationCenter{
		Name:          input.Name,
		BarangayID:    input.BarangayID,
		Capacity:      input.Capacity,
		ContactPerson: input.ContactPerson,
		ContactNumber: input.ContactNumber,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		IsActive:      true,
	}
	if err := e.DB.Create(&center).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create center: "+err.Error())
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"center": toCenterResponse(center)})
}

// ListCenters lists evacuation centers, optionally filtered by barangay.
func (e *CenterController) ListCenters(c *gin.Context) {
	query := e.DB.Model(&models.EvacuationCenter{})
	if brgyID := c.Query("barangay_id"); brgyID != "" {
		query = query.Where("barangay_id = ?", brgyID)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var centers []models.EvacuationCenter
	if err := query.Find(&centers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing centers: "+err.Error())
		return
	}
	out := make([]centerResponse, 0, len(centers))
	for _, ec := range centers {
		out = append(out, toCenterResponse(ec))
	}
	respondOK(c, http.StatusOK, gin.H{"centers": out})
}

// GetCenter retrieves one center by ID.
func (e *CenterController) GetCenter(c *gin.Context) {
	var center models.EvacuationCenter
	if err := e.DB.First(&center, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "Center not found")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"center": toCenterResponse(center)})
}

// UpdateOccupancy sets the current occupancy. Occupancy may not go negative
// or exceed capacity.
func (e *CenterController) UpdateOccupancy(c *gin.Context) {
	var center models.EvacuationCenter
	if err := e.DB.First(&center, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "Center not found")
		return
	}

	var body struct {
		CurrentOccupancy *int `json:"current_occupancy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if *body.CurrentOccupancy < 0 || *body.CurrentOccupancy > center.Capacity {
		respondError(c, http.StatusBadRequest, "occupancy must be between 0 and capacity")
		return
	}

	center.CurrentOccupancy = *body.CurrentOccupancy
	if err := e.DB.Save(&center).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update occupancy")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"center": toCenterResponse(center)})
}

// UpdateCenter modifies center details.
func (e *CenterController) UpdateCenter(c *gin.Context) {
	var center models.EvacuationCenter
	if err := e.DB.First(&center, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "Center not found")
		return
	}

	var input struct {
		Name          *string  `json:"name"`
		Capacity      *int     `json:"capacity"`
		ContactPerson *string  `json:"contact_person"`
		ContactNumber *string  `json:"contact_number"`
		IsActive      *bool    `json:"is_active"`
		Latitude      *float64 `json:"latitude"`
		Longitude     *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if input.Name != nil {
		center.Name = *input.Name
	}
	if input.Capacity != nil {
		if *input.Capacity < 1 {
			respondError(c, http.StatusBadRequest, "capacity must be at least 1")
			return
		}
		center.Capacity = *input.Capacity
	}
	if input.ContactPerson != nil {
		center.ContactPerson = *input.ContactPerson
	}
	if input.ContactNumber != nil {
		center.ContactNumber = *input.ContactNumber
	}
	if input.IsActive != nil {
		center.IsActive = *input.IsActive
	}
	if input.Latitude != nil {
		center.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		center.Longitude = *input.Longitude
	}

	if err := e.DB.Save(&center).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update center")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"center": toCenterResponse(center)})
}

// DeleteCenter removes a center by ID.
func (e *CenterController) DeleteCenter(c *gin.Context) {
	if err := e.DB.Delete(&models.EvacuationCenter{}, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete center")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Center deleted"})
}
