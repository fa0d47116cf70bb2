package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/gorilla/mux"

	"github.com/infinirdc/resto-op/helper"
	middleware "github.com/infinirdc/resto-op/middlewares"
	routes "github.com/infinirdc/resto-op/routes"
)

// LoadEnv loads environment variables from the .env file
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func main() {
	// Load environment variables
	LoadEnv()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	router := mux.NewRouter()

	// Public Routes (No Authentication)
	routes.PublicRoutes(router)
	routes.MenuPublicRoutes(router)

	// Apply Authentication Middleware to Protected Routes
	securedRoutes := router.PathPrefix("/").Subrouter()
	securedRoutes.Use(middleware.Authentication)
	routes.UserProtectedRoutes(securedRoutes)
	routes.IngredientProtectedRoutes(securedRoutes)
	routes.MenuProtectedRoutes(securedRoutes)
	routes.OrderProtectedRoutes(securedRoutes)

	helper.Log.Info().Str("port", port).Msg("server running")
	if err := http.ListenAndServe(":"+port, router); err != nil {
		helper.Log.Fatal().Err(err).Msg("server stopped")
	}
}
