package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
	"handa/internal/middleware"
)

func CenterRoutes(r *gin.Engine, e *controllers.CenterController) {
	centers := r.Group("/centers")
	centers.Use(middleware.RequireAuth())
	{
		centers.GET("", e.ListCenters)
		centers.GET("/:id", e.GetCenter)
	}

	admin := r.Group("/centers")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.POST("", e.CreateCenter)
		admin.PUT("/:id", e.UpdateCenter)
		admin.PATCH("/:id/occupancy", e.UpdateOccupancy)
		admin.DELETE("/:id", e.DeleteCenter)
	}
}
