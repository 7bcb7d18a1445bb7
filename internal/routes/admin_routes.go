package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
	"handa/internal/middleware"
)

func AdminRoutes(r *gin.Engine, a *controllers.AdminController) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/households", a.ListHouseholds)
		admin.GET("/rescuers", a.ListRescuers)
		admin.GET("/captains", a.ListCaptains)
		admin.GET("/members", a.ListMembers)
		admin.DELETE("/households/:id", a.DeleteHousehold)
	}
}
