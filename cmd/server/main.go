package main

import (
	"log"
	"net/http"
	"os"

	"handa/internal/config"
	"handa/internal/controllers"
	"handa/internal/logger"
	"handa/internal/middleware"
	"handa/internal/notify"
	"handa/internal/registration"
	"handa/internal/routes"
	"handa/internal/storage"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Notification hub lives for the whole process
	hub := notify.NewHub()
	defer hub.Close()

	store := storage.NewGorm(config.DB)
	orch := registration.New(store.Stores(), store, notify.Notifier{Hub: hub}, middleware.TokenIssuer{})

	r := routes.SetupRouter(routes.Deps{
		Auth:      &controllers.AuthController{Reg: orch, DB: config.DB, Hub: hub},
		Household: &controllers.HouseholdController{Reg: orch, DB: config.DB},
		Barangay:  &controllers.BarangayController{DB: config.DB},
		Center:    &controllers.CenterController{DB: config.DB},
		Map:       &controllers.MapController{DB: config.DB},
		Admin:     &controllers.AdminController{Reg: orch, DB: config.DB},
		WS:        &controllers.WSController{Hub: hub},
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := ":" + port()
	log.Printf("server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}
