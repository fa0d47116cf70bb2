package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	controller "github.com/infinirdc/resto-op/controllers"
)

func IngredientProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/admin/ingredients", controller.GetIngredients).Methods(http.MethodGet)
	router.HandleFunc("/admin/ingredients", controller.CreateIngredient).Methods(http.MethodPost)
	router.HandleFunc("/admin/ingredients/feed", controller.IngredientsFeed).Methods(http.MethodGet)
	router.HandleFunc("/admin/ingredients/{ingredient_id}", controller.GetIngredient).Methods(http.MethodGet)
	router.HandleFunc("/admin/ingredients/{ingredient_id}", controller.UpdateIngredient).Methods(http.MethodPatch)
	router.HandleFunc("/admin/ingredients/{ingredient_id}", controller.DeleteIngredient).Methods(http.MethodDelete)
}
