package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	controller "github.com/infinirdc/resto-op/controllers"
)

// MenuPublicRoutes serves the ordering page: the availability-annotated menu
// and its realtime feed need no sign-in.
func MenuPublicRoutes(router *mux.Router) {
	router.HandleFunc("/public/menu", controller.GetPublicMenu).Methods(http.MethodGet)
	router.HandleFunc("/public/menu/feed", controller.PublicMenuFeed).Methods(http.MethodGet)
}

func MenuProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/admin/menu", controller.GetMenuItems).Methods(http.MethodGet)
	router.HandleFunc("/admin/menu", controller.CreateMenuItem).Methods(http.MethodPost)
	router.HandleFunc("/admin/menu/{item_id}", controller.GetMenuItem).Methods(http.MethodGet)
	router.HandleFunc("/admin/menu/{item_id}", controller.UpdateMenuItem).Methods(http.MethodPut)
	router.HandleFunc("/admin/menu/{item_id}", controller.DeleteMenuItem).Methods(http.MethodDelete)
}
