package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"handa/internal/controllers"
)

// Deps carries the constructed controllers into the route tables.
type Deps struct {
	Auth      *controllers.AuthController
	Household *controllers.HouseholdController
	Barangay  *controllers.BarangayController
	Center    *controllers.CenterController
	Map       *controllers.MapController
	Admin     *controllers.AdminController
	WS        *controllers.WSController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Request logging middleware
	r.Use(ginlog.SetLogger())

	AuthRoutes(r, d.Auth)
	HouseholdRoutes(r, d.Household)
	BarangayRoutes(r, d.Barangay)
	CenterRoutes(r, d.Center)
	MapRoutes(r, d.Map)
	AdminRoutes(r, d.Admin)
	WebSocketRoutes(r, d.WS)

	return r
}
