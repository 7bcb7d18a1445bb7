package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
	"handa/internal/middleware"
)

func BarangayRoutes(r *gin.Engine, b *controllers.BarangayController) {
	// Listings are public: signup needs barangays before authentication.
	r.GET("/barangays", b.ListBarangays)
	r.GET("/barangays/:id", b.GetBarangay)

	admin := r.Group("/barangays")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.POST("", b.CreateBarangay)
		admin.PUT("/:id", b.UpdateBarangay)
		admin.DELETE("/:id", b.DeleteBarangay)
	}
}
