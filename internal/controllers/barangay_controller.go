package controllers

import (
	"encoding/binary"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"handa/internal/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

type BarangayController struct {
	DB *gorm.DB
}

// barangayResponse mirrors models.Barangay with the boundary rendered as a
// GeoJSON string for API output.
type barangayResponse struct {
	ID        uint      `json:"ID"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Boundary  string    `json:"boundary,omitempty"`
	CaptainID *uint     `json:"captain_id"`

	EvacuationCenters []centerResponse `json:"evacuation_centers,omitempty"`
}

func toBarangayResponse(b models.Barangay) barangayResponse {
	boundary, _ := wkbToGeoJSON(b.Boundary)
	resp := barangayResponse{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Name:      b.Name,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		Boundary:  boundary,
		CaptainID: b.CaptainID,
	}
	for _, ec := range b.EvacuationCenters {
		resp.EvacuationCenters = append(resp.EvacuationCenters, toCenterResponse(ec))
	}
	return resp
}

// parseBoundary parses a GeoJSON string into a geom.T and returns WKB bytes.
func parseBoundary(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// wkbToGeoJSON converts stored WKB bytes back into a GeoJSON string.
func wkbToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateBarangay registers a new barangay (admin only).
func (b *BarangayController) CreateBarangay(c *gin.Context) {
	var input struct {
		Name      string  `json:"name" binding:"required"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Boundary  string  `json:"boundary"` // GeoJSON
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	boundary, err := parseBoundary(input.Boundary)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid boundary GeoJSON: "+err.Error())
		return
	}

	brgy := models.Barangay{
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Boundary:  boundary,
	}
	if err := b.DB.Create(&brgy).Error; err != nil {
		logrus.WithError(err).Error("CreateBarangay: insert failed")
		respondError(c, http.StatusInternalServerError, "Could not create barangay")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"barangay": toBarangayResponse(brgy)})
}

// GetBarangay retrieves a barangay with its evacuation centers.
func (b *BarangayController) GetBarangay(c *gin.Context) {
	id := c.Param("id")
	var brgy models.Barangay
	if err := b.DB.Preload("EvacuationCenters").First(&brgy, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "Barangay not found")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"barangay": toBarangayResponse(brgy)})
}

// ListBarangays lists all barangays.
func (b *BarangayController) ListBarangays(c *gin.Context) {
	var brgys []models.Barangay
	if err := b.DB.Find(&brgys).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not fetch barangays")
		return
	}
	out := make([]barangayResponse, 0, len(brgys))
	for _, brgy := range brgys {
		out = append(out, toBarangayResponse(brgy))
	}
	respondOK(c, http.StatusOK, gin.H{"barangays": out})
}

// UpdateBarangay modifies name, coordinates or boundary.
func (b *BarangayController) UpdateBarangay(c *gin.Context) {
	id := c.Param("id")
	var brgy models.Barangay
	if err := b.DB.First(&brgy, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "Barangay not found")
		return
	}

	var input struct {
		Name      *string  `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Boundary  *string  `json:"boundary"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if input.Name != nil {
		brgy.Name = *input.Name
	}
	if input.Latitude != nil {
		brgy.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		brgy.Longitude = *input.Longitude
	}
	if input.Boundary != nil {
		boundary, err := parseBoundary(*input.Boundary)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid boundary GeoJSON: "+err.Error())
			return
		}
		brgy.Boundary = boundary
	}

	if err := b.DB.Save(&brgy).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Could not update barangay")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"barangay": toBarangayResponse(brgy)})
}

// DeleteBarangay removes a barangay. A barangay with an assigned captain must
// be unassigned first.
func (b *BarangayController) DeleteBarangay(c *gin.Context) {
	id := c.Param("id")
	var brgy models.Barangay
	if err := b.DB.First(&brgy, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "Barangay not found")
		return
	}
	if brgy.CaptainID != nil {
		respondError(c, http.StatusBadRequest, "Barangay has an assigned captain")
		return
	}
	if err := b.DB.Delete(&brgy).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete barangay")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Barangay deleted"})
}
