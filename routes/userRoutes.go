package routes

import (
	controller "github.com/infinirdc/resto-op/controllers"

	"github.com/gorilla/mux"
)

func PublicRoutes(router *mux.Router) {
	router.HandleFunc("/users/signup", controller.SignUp).Methods("POST")
	router.HandleFunc("/users/login", controller.Login).Methods("POST")
	router.HandleFunc("/auth/anonymous", controller.AnonymousSignIn).Methods("POST")
}

func UserProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/users", controller.GetUsers).Methods("GET")
	router.HandleFunc("/users/{user_id}", controller.GetUser).Methods("GET")
	router.HandleFunc("/users/logout", controller.Logout).Methods("POST")
}
