package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
	"handa/internal/middleware"
)

func MapRoutes(r *gin.Engine, m *controllers.MapController) {
	maps := r.Group("/map")
	maps.Use(middleware.RequireAuth())
	{
		maps.GET("/overview", m.Overview)
		maps.GET("/nearest-center", m.NearestCenter)
	}
}
