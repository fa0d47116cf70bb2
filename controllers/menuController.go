package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/infinirdc/resto-op/config"
	"github.com/infinirdc/resto-op/core"
	"github.com/infinirdc/resto-op/helper"
	"github.com/infinirdc/resto-op/models"
)

var menuCollection *mongo.Collection = database.OpenCollection(database.Client, "menu")

// checkRecipeIngredients verifies every recipe line references a known
// ingredient before the item is saved. One query covers the whole recipe.
func checkRecipeIngredients(ctx context.Context, recipe []models.RecipeLine) error {
	ids := models.DistinctIngredientIDs(recipe)
	if len(ids) == 0 {
		return nil
	}
	count, err := ingredientCollection.CountDocuments(ctx, bson.M{"ingredient_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return fmt.Errorf("recipe references %d unknown ingredient(s)", int64(len(ids))-count)
	}
	return nil
}

// Create a menu item (admin)
func CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if validationErr := validate.Struct(item); validationErr != nil {
		http.Error(w, `{"success": false, "message": "Invalid menu item data"}`, http.StatusBadRequest)
		return
	}

	if err := checkRecipeIngredients(ctx, item.Recipe); err != nil {
		http.Error(w, `{"success": false, "message": "Recipe references an unknown ingredient"}`, http.StatusBadRequest)
		return
	}

	if item.Recipe == nil {
		item.Recipe = []models.RecipeLine{}
	}

	item.Created_at = time.Now()
	item.Updated_at = time.Now()
	item.ID = primitive.NewObjectID()
	item.Item_id = item.ID.Hex()

	if _, err := menuCollection.InsertOne(ctx, item); err != nil {
		helper.Log.Error().Err(err).Msg("menu item creation failed")
		http.Error(w, `{"success": false, "message": "Menu item creation failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Menu item created successfully",
		"data":    item,
	})
}

// Get all menu items with pagination (admin)
func GetMenuItems(w http.ResponseWriter, r *http.Request) {
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

	totalItems, err := menuCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving total menu item count"}`, http.StatusInternalServerError)
		return
	}

	matchStage := bson.D{{Key: "$match", Value: bson.D{}}}
	skipStage := bson.D{{Key: "$skip", Value: startIndex}}
	limitStage := bson.D{{Key: "$limit", Value: int64(recordPerPage)}}
	projectStage := bson.D{
		{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "item_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "price", Value: 1},
			{Key: "recipe", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "updated_at", Value: 1},
		}},
	}

	result, err := menuCollection.Aggregate(ctx, mongo.Pipeline{matchStage, skipStage, limitStage, projectStage})
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving menu items"}`, http.StatusInternalServerError)
		return
	}

	var allItems []bson.M
	if err = result.All(ctx, &allItems); err != nil {
		http.Error(w, `{"success": false, "message": "Error decoding menu data"}`, http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"success": true,
		"message": "Menu items retrieved successfully",
		"data":    allItems,
		"pagination": map[string]interface{}{
			"current_page":     page,
			"records_per_page": recordPerPage,
			"total_items":      totalItems,
			"total_pages":      (totalItems + int64(recordPerPage) - 1) / int64(recordPerPage),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Get a single menu item (admin edit round-trip)
func GetMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	itemId := mux.Vars(r)["item_id"]

	var item models.MenuItem
	if err := menuCollection.FindOne(ctx, bson.M{"item_id": itemId}).Decode(&item); err != nil {
		http.Error(w, `{"success": false, "message": "Menu item not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Menu item retrieved successfully",
		"data":    item,
	})
}

// Update a menu item (admin, full replace of name/price/recipe)
func UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	itemId := mux.Vars(r)["item_id"]

	var existing models.MenuItem
	err := menuCollection.FindOne(ctx, bson.M{"item_id": itemId}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, `{"success": false, "message": "Menu item not found"}`, http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving menu item"}`, http.StatusInternalServerError)
		return
	}

	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if validationErr := validate.Struct(item); validationErr != nil {
		http.Error(w, `{"success": false, "message": "Invalid menu item data"}`, http.StatusBadRequest)
		return
	}

	if err := checkRecipeIngredients(ctx, item.Recipe); err != nil {
		http.Error(w, `{"success": false, "message": "Recipe references an unknown ingredient"}`, http.StatusBadRequest)
		return
	}

	if item.Recipe == nil {
		item.Recipe = []models.RecipeLine{}
	}

	item.ID = existing.ID
	item.Item_id = existing.Item_id
	item.Created_at = existing.Created_at
	item.Updated_at = time.Now()

	if _, err := menuCollection.ReplaceOne(ctx, bson.M{"item_id": itemId}, item); err != nil {
		helper.Log.Error().Err(err).Str("item_id", itemId).Msg("menu item update failed")
		http.Error(w, `{"success": false, "message": "Menu item update failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Menu item updated successfully",
		"data":    item,
	})
}

// Delete a menu item (admin)
func DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	itemId := mux.Vars(r)["item_id"]

	var item models.MenuItem
	err := menuCollection.FindOne(ctx, bson.M{"item_id": itemId}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, `{"success": false, "message": "Menu item not found"}`, http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving menu item"}`, http.StatusInternalServerError)
		return
	}

	result, err := menuCollection.DeleteOne(ctx, bson.M{"item_id": itemId})
	if err != nil || result.DeletedCount == 0 {
		http.Error(w, `{"success": false, "message": "Error deleting menu item"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Menu item deleted successfully",
		"data":    item,
	})
}

// buildPublicMenu annotates every menu item with an advisory "available" flag
// computed against the current stock snapshot. The flag greys items out in the
// ordering page; the reservation transaction is the authority.
func buildPublicMenu(ctx context.Context) ([]map[string]interface{}, error) {
	cursor, err := menuCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	snapshot, err := stockSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	annotated := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		annotated = append(annotated, map[string]interface{}{
			"item_id":   item.Item_id,
			"name":      item.Name,
			"price":     item.Price,
			"recipe":    item.Recipe,
			"available": core.IsOrderable(item, snapshot),
		})
	}
	return annotated, nil
}

func stockSnapshot(ctx context.Context) (map[string]float64, error) {
	cursor, err := ingredientCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var ingredients []models.Ingredient
	if err := cursor.All(ctx, &ingredients); err != nil {
		return nil, err
	}

	snapshot := make(map[string]float64, len(ingredients))
	for _, ing := range ingredients {
		if ing.Stock != nil {
			snapshot[ing.Ingredient_id] = *ing.Stock
		}
	}
	return snapshot, nil
}

// Public menu with availability flags
func GetPublicMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	annotated, err := buildPublicMenu(ctx)
	if err != nil {
		helper.Log.Error().Err(err).Msg("failed to build public menu")
		http.Error(w, `{"success": false, "message": "Error retrieving menu"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Menu retrieved successfully",
		"data":    annotated,
	})
}

// Realtime public menu feed. Menu and stock changes both refresh availability,
// so the ordering page greys items out as the kitchen runs dry.
func PublicMenuFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"success": false, "message": "Streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	menuSub, err := store.Subscribe(r.Context(), "menu")
	if err != nil {
		helper.Log.Error().Err(err).Msg("menu subscription failed")
		http.Error(w, `{"success": false, "message": "Feed unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	defer menuSub.Cancel()

	stockSub, err := store.Subscribe(r.Context(), "ingredients")
	if err != nil {
		helper.Log.Error().Err(err).Msg("stock subscription failed")
		http.Error(w, `{"success": false, "message": "Feed unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	defer stockSub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func() bool {
		annotated, err := buildPublicMenu(r.Context())
		if err != nil {
			helper.Log.Error().Err(err).Msg("public menu feed refresh failed")
			return false
		}
		payload, err := json.Marshal(annotated)
		if err != nil {
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return true
	}

	if !emit() {
		return
	}

	for {
		select {
		case _, open := <-menuSub.C:
			if !open {
				return
			}
		case _, open := <-stockSub.C:
			if !open {
				return
			}
		case <-r.Context().Done():
			return
		}
		if !emit() {
			return
		}
	}
}
