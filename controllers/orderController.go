package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/infinirdc/resto-op/config"
	"github.com/infinirdc/resto-op/core"
	"github.com/infinirdc/resto-op/helper"
	"github.com/infinirdc/resto-op/ledger"
	"github.com/infinirdc/resto-op/models"
)

var orderCollection *mongo.Collection = database.OpenCollection(database.Client, "orders")

// reserver is the one stock reservation transaction shared by the public
// checkout and the POS billing flow.
var reserver = core.NewReserver(store, helper.Log)

// errTicketChanged signals that an order on the ticket moved (e.g. was paid
// from another terminal) between loading the ticket and settling it.
var errTicketChanged = errors.New("ticket changed, refresh and retry")

var openStatuses = []string{models.StatusPending, models.StatusInPreparation}

type cartLine struct {
	Item_id string `json:"item_id" validate:"required"`
	Qty     int    `json:"qty" validate:"required,gt=0"`
}

type checkoutRequest struct {
	Client_name  string     `json:"client_name" validate:"required,min=1,max=100"`
	Client_phone string     `json:"client_phone" validate:"required,min=4,max=30"`
	Items        []cartLine `json:"items" validate:"required,min=1,dive"`
}

type kitchenRequest struct {
	Items []cartLine `json:"items" validate:"required,min=1,dive"`
	Note  *string    `json:"note,omitempty"`
}

// loadCatalog reads the whole menu into an id-keyed map for demand resolution.
func loadCatalog(ctx context.Context) (map[string]models.MenuItem, error) {
	cursor, err := menuCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	catalog := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		catalog[item.Item_id] = item
	}
	return catalog, nil
}

// buildTicket turns a cart into line item snapshots plus the purchased-item
// references the resolver consumes. Unknown item ids are rejected here;
// inside the resolver they would just contribute nothing.
func buildTicket(lines []cartLine, catalog map[string]models.MenuItem) ([]models.LineItem, []core.PurchasedItem, float64, error) {
	items := make([]models.LineItem, 0, len(lines))
	purchased := make([]core.PurchasedItem, 0, len(lines))
	var total float64

	for _, line := range lines {
		menuItem, ok := catalog[line.Item_id]
		if !ok {
			return nil, nil, 0, errors.New("unknown menu item " + line.Item_id)
		}
		items = append(items, models.LineItem{
			Item_id: line.Item_id,
			Name:    *menuItem.Name,
			Price:   *menuItem.Price,
			Qty:     line.Qty,
		})
		purchased = append(purchased, core.PurchasedItem{ItemID: line.Item_id, Qty: line.Qty})
		total += *menuItem.Price * float64(line.Qty)
	}
	return items, purchased, total, nil
}

func writeReservationError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var short *core.InsufficientStockError
	switch {
	case errors.As(err, &short):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       false,
			"message":       "An item just ran out of stock. The menu has been refreshed.",
			"ingredient_id": short.IngredientID,
		})
	case errors.Is(err, errTicketChanged):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "The ticket changed while settling. Refresh and retry.",
		})
	case errors.Is(err, ledger.ErrConflict):
		helper.Log.Error().Err(err).Msg("reservation contention exhausted retries")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "The order could not be processed. Please try again.",
		})
	case errors.Is(err, ledger.ErrUnavailable):
		helper.Log.Error().Err(err).Msg("ledger unavailable")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Service temporarily unavailable.",
		})
	default:
		helper.Log.Error().Err(err).Msg("reservation failed")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "The order could not be processed.",
		})
	}
}

// Checkout places a public online order: verify and deduct ingredient stock,
// create the order — one atomic unit.
func Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if validationErr := validate.Struct(req); validationErr != nil {
		http.Error(w, `{"success": false, "message": "Missing client details or empty cart"}`, http.StatusBadRequest)
		return
	}

	catalog, err := loadCatalog(ctx)
	if err != nil {
		helper.Log.Error().Err(err).Msg("failed to load menu catalog")
		http.Error(w, `{"success": false, "message": "Error retrieving menu"}`, http.StatusInternalServerError)
		return
	}

	items, purchased, total, err := buildTicket(req.Items, catalog)
	if err != nil {
		http.Error(w, `{"success": false, "message": "Cart references an unknown menu item"}`, http.StatusBadRequest)
		return
	}

	demand := core.AggregateDemand(purchased, catalog)

	// online orders are labeled with the client's first name, POS-style
	firstName := req.Client_name
	if fields := strings.Fields(req.Client_name); len(fields) > 0 {
		firstName = fields[0]
	}
	table := "Online-" + firstName

	orderId, err := reserver.Reserve(ctx, demand, func(tx ledger.Tx) (string, error) {
		oid := primitive.NewObjectID()
		now := time.Now().UTC()
		doc := ledger.Document{
			"order_id":   oid.Hex(),
			"table":      table,
			"client":     bson.M{"name": req.Client_name, "phone": req.Client_phone},
			"items":      items,
			"total":      total,
			"status":     models.StatusPending,
			"channel":    models.ChannelOnline,
			"created_at": now,
			"updated_at": now,
		}
		if err := tx.Write("orders", oid.Hex(), doc); err != nil {
			return "", err
		}
		return oid.Hex(), nil
	})
	if err != nil {
		writeReservationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order placed successfully",
		"data": map[string]interface{}{
			"order_id": orderId,
			"table":    table,
			"total":    total,
		},
	})
}

// SendToKitchen creates an in-house order for a table. No stock effect; stock
// is reserved at billing time.
func SendToKitchen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	table := mux.Vars(r)["table"]
	if table == "" {
		http.Error(w, `{"success": false, "message": "Invalid table"}`, http.StatusBadRequest)
		return
	}

	var req kitchenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if validationErr := validate.Struct(req); validationErr != nil {
		http.Error(w, `{"success": false, "message": "Empty ticket"}`, http.StatusBadRequest)
		return
	}

	catalog, err := loadCatalog(ctx)
	if err != nil {
		helper.Log.Error().Err(err).Msg("failed to load menu catalog")
		http.Error(w, `{"success": false, "message": "Error retrieving menu"}`, http.StatusInternalServerError)
		return
	}

	items, _, total, err := buildTicket(req.Items, catalog)
	if err != nil {
		http.Error(w, `{"success": false, "message": "Ticket references an unknown menu item"}`, http.StatusBadRequest)
		return
	}

	var order models.Order
	order.Created_at = time.Now()
	order.Updated_at = time.Now()
	order.ID = primitive.NewObjectID()
	order.Order_id = order.ID.Hex()
	order.Table = table
	order.Items = items
	order.Note = req.Note
	order.Total = total
	order.Status = models.StatusPending
	order.Channel = models.ChannelInHouse

	if _, err := orderCollection.InsertOne(ctx, order); err != nil {
		helper.Log.Error().Err(err).Str("table", table).Msg("order creation failed")
		http.Error(w, `{"success": false, "message": "Order creation failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order sent to kitchen",
		"data":    order,
	})
}

func openOrdersForTable(ctx context.Context, table string) ([]models.Order, error) {
	cursor, err := orderCollection.Find(ctx, bson.M{
		"table":  table,
		"status": bson.M{"$in": openStatuses},
	})
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetTableTicket combines a table's open orders into one ticket view.
func GetTableTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	table := mux.Vars(r)["table"]

	orders, err := openOrdersForTable(ctx, table)
	if err != nil {
		helper.Log.Error().Err(err).Str("table", table).Msg("failed to load ticket")
		http.Error(w, `{"success": false, "message": "Error retrieving ticket"}`, http.StatusInternalServerError)
		return
	}

	// merge line items across orders for display
	merged := map[string]*models.LineItem{}
	var seen []string
	var total float64
	for _, o := range orders {
		total += o.Total
		for _, line := range o.Items {
			if existing, ok := merged[line.Item_id]; ok {
				existing.Qty += line.Qty
			} else {
				copied := line
				merged[line.Item_id] = &copied
				seen = append(seen, line.Item_id)
			}
		}
	}
	combined := make([]models.LineItem, 0, len(merged))
	for _, id := range seen {
		combined = append(combined, *merged[id])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Ticket retrieved successfully",
		"data": map[string]interface{}{
			"table":  table,
			"orders": orders,
			"items":  combined,
			"total":  total,
		},
	})
}

// PayBill settles a table: deduct ingredient stock for everything on the open
// orders and flip them to PAID — one atomic unit. Recipes are resolved against
// the current menu catalog at billing time, not at order creation; a recipe
// edited while a ticket is open changes what gets deducted here.
func PayBill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	table := mux.Vars(r)["table"]

	orders, err := openOrdersForTable(ctx, table)
	if err != nil {
		helper.Log.Error().Err(err).Str("table", table).Msg("failed to load open orders")
		http.Error(w, `{"success": false, "message": "Error retrieving open orders"}`, http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		http.Error(w, `{"success": false, "message": "No open orders for this table"}`, http.StatusBadRequest)
		return
	}

	catalog, err := loadCatalog(ctx)
	if err != nil {
		helper.Log.Error().Err(err).Msg("failed to load menu catalog")
		http.Error(w, `{"success": false, "message": "Error retrieving menu"}`, http.StatusInternalServerError)
		return
	}

	var purchased []core.PurchasedItem
	var total float64
	orderIds := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIds = append(orderIds, o.Order_id)
		total += o.Total
		for _, line := range o.Items {
			purchased = append(purchased, core.PurchasedItem{ItemID: line.Item_id, Qty: line.Qty})
		}
	}

	demand := core.AggregateDemand(purchased, catalog)

	_, err = reserver.Reserve(ctx, demand, func(tx ledger.Tx) (string, error) {
		now := time.Now().UTC()
		for _, id := range orderIds {
			doc, err := tx.Read("orders", id)
			if err != nil {
				return "", err
			}
			status, _ := doc["status"].(string)
			if status != models.StatusPending && status != models.StatusInPreparation {
				return "", errTicketChanged
			}
			err = tx.UpdateFields("orders", id, ledger.Document{
				"status":     models.StatusPaid,
				"updated_at": now,
			})
			if err != nil {
				return "", err
			}
		}
		return table, nil
	})
	if err != nil {
		writeReservationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Payment recorded, stock deducted",
		"data": map[string]interface{}{
			"table":     table,
			"order_ids": orderIds,
			"total":     total,
		},
	})
}

// Get all orders with pagination (admin)
func GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	recordPerPage, err := strconv.Atoi(r.URL.Query().Get("recordPerPage"))
	if err != nil || recordPerPage < 1 {
		recordPerPage = 10
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	startIndex := (page - 1) * recordPerPage

	match := bson.D{}
	if status := r.URL.Query().Get("status"); status != "" {
		match = append(match, bson.E{Key: "status", Value: status})
	}

	totalOrders, err := orderCollection.CountDocuments(ctx, match)
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving total order count"}`, http.StatusInternalServerError)
		return
	}

	matchStage := bson.D{{Key: "$match", Value: match}}
	skipStage := bson.D{{Key: "$skip", Value: startIndex}}
	limitStage := bson.D{{Key: "$limit", Value: int64(recordPerPage)}}
	projectStage := bson.D{
		{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "order_id", Value: 1},
			{Key: "table", Value: 1},
			{Key: "items", Value: 1},
			{Key: "total", Value: 1},
			{Key: "status", Value: 1},
			{Key: "channel", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "updated_at", Value: 1},
		}},
	}

	cursor, err := orderCollection.Aggregate(ctx, mongo.Pipeline{matchStage, skipStage, limitStage, projectStage})
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving orders"}`, http.StatusInternalServerError)
		return
	}

	var allOrders []bson.M
	if err = cursor.All(ctx, &allOrders); err != nil {
		http.Error(w, `{"success": false, "message": "Error decoding order data"}`, http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"success": true,
		"message": "Orders retrieved successfully",
		"data":    allOrders,
		"pagination": map[string]interface{}{
			"current_page":     page,
			"records_per_page": recordPerPage,
			"total_orders":     totalOrders,
			"total_pages":      (totalOrders + int64(recordPerPage) - 1) / int64(recordPerPage),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func GetOrderById(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	orderId := mux.Vars(r)["order_id"]

	var order models.Order
	err := orderCollection.FindOne(ctx, bson.M{"order_id": orderId}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, `{"success": false, "message": "Order not found"}`, http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving order"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order retrieved successfully",
		"data":    order,
	})
}

// UpdateOrderStatus moves an order between kitchen states. PAID is written
// only by the billing transaction and is rejected here.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	orderId := mux.Vars(r)["order_id"]

	var requestBody struct {
		Status string `json:"status" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if requestBody.Status == models.StatusPaid {
		http.Error(w, `{"success": false, "message": "Orders are marked paid by the billing flow"}`, http.StatusBadRequest)
		return
	}

	validStatuses := map[string]bool{
		models.StatusPending:       true,
		models.StatusInPreparation: true,
	}
	if !validStatuses[requestBody.Status] {
		http.Error(w, `{"success": false, "message": "Invalid order status"}`, http.StatusBadRequest)
		return
	}

	// The open-status check and the write run in one atomic unit: a billing
	// transaction settling this order concurrently can never be overwritten
	// back to an open state.
	err := core.TransitionStatus(ctx, store, orderId, requestBody.Status)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, `{"success": false, "message": "Order not found"}`, http.StatusNotFound)
		return
	case errors.Is(err, core.ErrOrderClosed):
		http.Error(w, `{"success": false, "message": "Order is already paid"}`, http.StatusConflict)
		return
	case errors.Is(err, ledger.ErrConflict):
		http.Error(w, `{"success": false, "message": "Order changed while updating. Retry."}`, http.StatusConflict)
		return
	case errors.Is(err, ledger.ErrUnavailable):
		helper.Log.Error().Err(err).Str("order_id", orderId).Msg("ledger unavailable")
		http.Error(w, `{"success": false, "message": "Service temporarily unavailable"}`, http.StatusServiceUnavailable)
		return
	case err != nil:
		helper.Log.Error().Err(err).Str("order_id", orderId).Msg("order status update failed")
		http.Error(w, `{"success": false, "message": "Failed to update order status"}`, http.StatusInternalServerError)
		return
	}

	var order models.Order
	err = orderCollection.FindOne(ctx, bson.M{"order_id": orderId}).Decode(&order)
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving updated order"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order status updated successfully",
		"data":    order,
	})
}

// Realtime orders feed for the admin console
func OrdersFeed(w http.ResponseWriter, r *http.Request) {
	streamCollectionFeed(w, r, "orders")
}
