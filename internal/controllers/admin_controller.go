package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"handa/internal/models"
	"handa/internal/registration"
)

type AdminController struct {
	Reg *registration.Orchestrator
	DB  *gorm.DB
}

func (a *AdminController) ListHouseholds(c *gin.Context) {
	var leads []models.HouseholdLead
	if err := a.DB.Preload("User").Preload("Barangay").Find(&leads).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing households: "+err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"households": leads})
}

func (a *AdminController) ListRescuers(c *gin.Context) {
	var rescuers []models.Rescuer
	if err := a.DB.Preload("User").Find(&rescuers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing rescuers: "+err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"rescuers": rescuers})
}

func (a *AdminController) ListCaptains(c *gin.Context) {
	var captains []models.BrgyCaptain
	if err := a.DB.Preload("User").Preload("Barangay").Find(&captains).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing captains: "+err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"captains": captains})
}

func (a *AdminController) ListMembers(c *gin.Context) {
	var members []models.HouseholdMember
	query := a.DB.Preload("User")
	if leadID := c.Query("household_lead_id"); leadID != "" {
		query = query.Where("household_lead_id = ?", leadID)
	}
	if err := query.Find(&members).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing members: "+err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"members": members})
}

// DeleteHousehold removes a lead profile and its identity. Households with
// registered members cannot be deleted until the members are removed.
func (a *AdminController) DeleteHousehold(c *gin.Context) {
	leadID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid household ID format")
		return
	}
	if err := a.Reg.RemoveHousehold(c.Request.Context(), uint(leadID)); err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "household removed"})
}
