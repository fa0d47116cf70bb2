package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	controller "github.com/infinirdc/resto-op/controllers"
)

// OrderProtectedRoutes covers the public checkout (anonymous actors sign in
// first), the waiter POS, and the admin order views.
func OrderProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/public/orders", controller.Checkout).Methods(http.MethodPost)

	router.HandleFunc("/pos/tables/{table}/ticket", controller.GetTableTicket).Methods(http.MethodGet)
	router.HandleFunc("/pos/tables/{table}/orders", controller.SendToKitchen).Methods(http.MethodPost)
	router.HandleFunc("/pos/tables/{table}/pay", controller.PayBill).Methods(http.MethodPost)

	router.HandleFunc("/admin/orders", controller.GetOrders).Methods(http.MethodGet)
	router.HandleFunc("/admin/orders/feed", controller.OrdersFeed).Methods(http.MethodGet)
	router.HandleFunc("/admin/orders/{order_id}", controller.GetOrderById).Methods(http.MethodGet)
	router.HandleFunc("/admin/orders/{order_id}/status", controller.UpdateOrderStatus).Methods(http.MethodPatch)
}
