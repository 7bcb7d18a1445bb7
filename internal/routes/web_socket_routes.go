package routes

import (
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, w *controllers.WSController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/notifications", w.Notifications)
	}
}
