package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
	"handa/internal/middleware"
)

func HouseholdRoutes(r *gin.Engine, h *controllers.HouseholdController) {
	household := r.Group("/household")
	household.Use(middleware.RequireAuthWithRole("household_lead"))
	{
		household.GET("/", h.GetMyHousehold)
		household.GET("/members", h.ListMembers)
		household.PATCH("/capacity", h.UpdateCapacity)
		household.DELETE("/members/:id", h.RemoveMember)
	}

	// Verification is open to the member itself as well as the lead; the
	// controller checks ownership.
	verify := r.Group("/household/members/:id/verify")
	verify.Use(middleware.RequireAuth())
	{
		verify.POST("", h.VerifyMember)
	}
}
