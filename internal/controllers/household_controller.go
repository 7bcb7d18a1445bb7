package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"handa/internal/models"
	"handa/internal/registration"
)

type HouseholdController struct {
	Reg *registration.Orchestrator
	DB  *gorm.DB
}

// GetMyHousehold returns the authenticated lead's profile with its members.
func (h *HouseholdController) GetMyHousehold(c *gin.Context) {
	leadID := claimUint(c, "profile_id")

	var lead models.HouseholdLead
	if err := h.DB.Preload("Members").Preload("Members.User").First(&lead, leadID).Error; err != nil {
		respondError(c, http.StatusNotFound, "household not found")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"household": lead})
}

// ListMembers lists the member profiles of the authenticated lead.
func (h *HouseholdController) ListMembers(c *gin.Context) {
	leadID := claimUint(c, "profile_id")

	members, err := h.Reg.Members(c.Request.Context(), leadID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"members": members})
}

// UpdateCapacity changes the household's declared capacity. IsFull is
// recomputed in the same update; shrinking below the current member count
// marks the household full.
func (h *HouseholdController) UpdateCapacity(c *gin.Context) {
	leadID := claimUint(c, "profile_id")

	var body struct {
		FamilyMembers int `json:"family_members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := h.Reg.UpdateCapacity(c.Request.Context(), leadID, body.FamilyMembers)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"household": lead})
}

// RemoveMember removes a member profile and its identity and releases its
// slot on the household counter.
func (h *HouseholdController) RemoveMember(c *gin.Context) {
	leadID := claimUint(c, "profile_id")

	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid member ID format")
		return
	}

	if err := h.Reg.RemoveMember(c.Request.Context(), leadID, uint(memberID)); err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "member removed"})
}

// VerifyMember checks a supplied one-time code against a member profile.
// Members may only verify their own profile; the lead may verify any of its
// members.
func (h *HouseholdController) VerifyMember(c *gin.Context) {
	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid member ID format")
		return
	}

	role, _ := c.Get("role")
	profileID := claimUint(c, "profile_id")
	switch role {
	case string(registration.RoleHouseholdMember):
		if profileID != uint(memberID) {
			respondError(c, http.StatusForbidden, "members may only verify their own profile")
			return
		}
	case string(registration.RoleHouseholdLead):
		// lead verifies on behalf of a member; ownership is checked below
		member, err := h.Reg.Members(c.Request.Context(), profileID)
		if err != nil {
			respondFailure(c, err)
			return
		}
		owned := false
		for _, m := range member {
			if m.ID == uint(memberID) {
				owned = true
				break
			}
		}
		if !owned {
			respondError(c, http.StatusForbidden, "member does not belong to your household")
			return
		}
	default:
		respondError(c, http.StatusForbidden, "insufficient permissions")
		return
	}

	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.Reg.VerifyMember(c.Request.Context(), uint(memberID), body.Code)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"member": member})
}
