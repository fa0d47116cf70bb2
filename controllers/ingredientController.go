package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/infinirdc/resto-op/config"
	"github.com/infinirdc/resto-op/helper"
	"github.com/infinirdc/resto-op/ledger"
	"github.com/infinirdc/resto-op/models"
)

var ingredientCollection *mongo.Collection = database.OpenCollection(database.Client, "ingredients")
var validate = validator.New()

// store is the Ledger handle used for the transactional paths and the
// realtime feeds. Plain CRUD goes through the collections directly.
var store ledger.Store = ledger.NewMongo(database.Client, database.DatabaseName(), database.AppID(), helper.Log)

// Create an ingredient (admin stock entry)
func CreateIngredient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	var ingredient models.Ingredient
	if err := json.NewDecoder(r.Body).Decode(&ingredient); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if validationErr := validate.Struct(ingredient); validationErr != nil {
		http.Error(w, `{"success": false, "message": "Invalid ingredient data"}`, http.StatusBadRequest)
		return
	}

	ingredient.Created_at = time.Now()
	ingredient.Updated_at = time.Now()
	ingredient.ID = primitive.NewObjectID()
	ingredient.Ingredient_id = ingredient.ID.Hex()

	if _, err := ingredientCollection.InsertOne(ctx, ingredient); err != nil {
		helper.Log.Error().Err(err).Msg("ingredient creation failed")
		http.Error(w, `{"success": false, "message": "Ingredient creation failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Ingredient created successfully",
		"data":    ingredient,
	})
}

// Get all ingredients with pagination
func GetIngredients(w http.ResponseWriter, r *http.Request) {
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

	totalIngredients, err := ingredientCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving total ingredient count"}`, http.StatusInternalServerError)
		return
	}

	matchStage := bson.D{{Key: "$match", Value: bson.D{}}}
	skipStage := bson.D{{Key: "$skip", Value: startIndex}}
	limitStage := bson.D{{Key: "$limit", Value: int64(recordPerPage)}}
	projectStage := bson.D{
		{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "ingredient_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "unit", Value: 1},
			{Key: "stock", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "updated_at", Value: 1},
		}},
	}

	result, err := ingredientCollection.Aggregate(ctx, mongo.Pipeline{matchStage, skipStage, limitStage, projectStage})
	if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving ingredients"}`, http.StatusInternalServerError)
		return
	}

	var allIngredients []bson.M
	if err = result.All(ctx, &allIngredients); err != nil {
		http.Error(w, `{"success": false, "message": "Error decoding ingredient data"}`, http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"success": true,
		"message": "Ingredients retrieved successfully",
		"data":    allIngredients,
		"pagination": map[string]interface{}{
			"current_page":      page,
			"records_per_page":  recordPerPage,
			"total_ingredients": totalIngredients,
			"total_pages":       (totalIngredients + int64(recordPerPage) - 1) / int64(recordPerPage),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Get a single ingredient
func GetIngredient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	params := mux.Vars(r)
	ingredientId := params["ingredient_id"]

	var ingredient models.Ingredient
	if err := ingredientCollection.FindOne(ctx, bson.M{"ingredient_id": ingredientId}).Decode(&ingredient); err != nil {
		http.Error(w, `{"success": false, "message": "Ingredient not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Ingredient retrieved successfully",
		"data":    ingredient,
	})
}

// Update an ingredient (admin stock entry: rename, change unit, set stock).
// This path is deliberately not transactional against open tickets; the
// reservation transaction re-reads stock inside its own atomic unit.
func UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	ingredientId := mux.Vars(r)["ingredient_id"]

	var ingredient models.Ingredient
	if err := json.NewDecoder(r.Body).Decode(&ingredient); err != nil {
		http.Error(w, `{"success": false, "message": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	updateObj := bson.D{}

	if ingredient.Name != nil {
		updateObj = append(updateObj, bson.E{Key: "name", Value: ingredient.Name})
	}
	if ingredient.Unit != nil {
		updateObj = append(updateObj, bson.E{Key: "unit", Value: ingredient.Unit})
	}
	if ingredient.Stock != nil {
		if *ingredient.Stock < 0 {
			http.Error(w, `{"success": false, "message": "Stock cannot be negative"}`, http.StatusBadRequest)
			return
		}
		updateObj = append(updateObj, bson.E{Key: "stock", Value: ingredient.Stock})
	}

	if len(updateObj) == 0 {
		http.Error(w, `{"success": false, "message": "No fields to update"}`, http.StatusBadRequest)
		return
	}

	updateObj = append(updateObj, bson.E{Key: "updated_at", Value: time.Now()})

	result, err := ingredientCollection.UpdateOne(ctx, bson.M{"ingredient_id": ingredientId}, bson.D{{Key: "$set", Value: updateObj}})
	if err != nil {
		helper.Log.Error().Err(err).Str("ingredient_id", ingredientId).Msg("ingredient update failed")
		http.Error(w, `{"success": false, "message": "Ingredient update failed"}`, http.StatusInternalServerError)
		return
	}

	if result.MatchedCount == 0 {
		http.Error(w, `{"success": false, "message": "Ingredient not found"}`, http.StatusNotFound)
		return
	}

	var updatedIngredient models.Ingredient
	if err := ingredientCollection.FindOne(ctx, bson.M{"ingredient_id": ingredientId}).Decode(&updatedIngredient); err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving updated ingredient"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Ingredient updated successfully",
		"data":    updatedIngredient,
	})
}

// Delete an ingredient. Recipes referencing it are not checked; the item they
// belong to simply stops being orderable and any reservation naming it aborts.
func DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Second)
	defer cancel()

	ingredientId := mux.Vars(r)["ingredient_id"]

	var ingredient models.Ingredient
	err := ingredientCollection.FindOne(ctx, bson.M{"ingredient_id": ingredientId}).Decode(&ingredient)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, `{"success": false, "message": "Ingredient not found"}`, http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, `{"success": false, "message": "Error retrieving ingredient"}`, http.StatusInternalServerError)
		return
	}

	result, err := ingredientCollection.DeleteOne(ctx, bson.M{"ingredient_id": ingredientId})
	if err != nil || result.DeletedCount == 0 {
		http.Error(w, `{"success": false, "message": "Error deleting ingredient"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Ingredient deleted successfully",
		"data":    ingredient,
	})
}

// Realtime stock feed for the admin console
func IngredientsFeed(w http.ResponseWriter, r *http.Request) {
	streamCollectionFeed(w, r, "ingredients")
}
