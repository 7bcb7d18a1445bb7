package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"handa/internal/models"
)

type MapController struct {
	DB *gorm.DB
}

// Overview returns everything the map screen renders: barangays with their
// boundaries, evacuation centers with derived occupancy, and household
// markers.
func (m *MapController) Overview(c *gin.Context) {
	var brgys []models.Barangay
	if err := m.DB.Find(&brgys).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not fetch barangays")
		return
	}
	var centers []models.EvacuationCenter
	if err := m.DB.Where("is_active = ?", true).Find(&centers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not fetch centers")
		return
	}
	var leads []models.HouseholdLead
	if err := m.DB.Find(&leads).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not fetch households")
		return
	}

	brgyOut := make([]barangayResponse, 0, len(brgys))
	for _, b := range brgys {
		brgyOut = append(brgyOut, toBarangayResponse(b))
	}
	centerOut := make([]centerResponse, 0, len(centers))
	for _, ec := range centers {
		centerOut = append(centerOut, toCenterResponse(ec))
	}
	households := make([]gin.H, 0, len(leads))
	for _, l := range leads {
		households = append(households, gin.H{
			"ID":            l.ID,
			"latitude":      l.Latitude,
			"longitude":     l.Longitude,
			"total_members": l.TotalMembers,
			"is_full":       l.IsFull,
			"barangay_id":   l.BarangayID,
		})
	}

	respondOK(c, http.StatusOK, gin.H{
		"barangays":  brgyOut,
		"centers":    centerOut,
		"households": households,
	})
}

// NearestCenter returns the closest active evacuation center to the supplied
// coordinates.
func (m *MapController) NearestCenter(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		respondError(c, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}

	var centers []models.EvacuationCenter
	if err := m.DB.Where("is_active = ?", true).Find(&centers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not fetch centers")
		return
	}
	if len(centers) == 0 {
		respondError(c, http.StatusNotFound, "No active evacuation centers")
		return
	}

	best := 0
	bestDist := math.Inf(1)
	for i, ec := range centers {
		d := haversineKm(lat, lng, ec.Latitude, ec.Longitude)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	respondOK(c, http.StatusOK, gin.H{
		"center":      toCenterResponse(centers[best]),
		"distance_km": bestDist,
	})
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
