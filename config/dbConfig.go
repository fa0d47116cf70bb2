package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoadEnv loads environment variables from the .env file
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func DBinstance() *mongo.Client {
	// Load environment variables
	LoadEnv()

	MongoDb := os.Getenv("DB")
	if MongoDb == "" {
		log.Fatal("MONGO_DB_URI is not set in the environment variables")
	}

	fmt.Println("Connecting to MongoDB...")

	client, err := mongo.NewClient(options.Client().ApplyURI(MongoDb))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Connected to MongoDB")
	return client
}

var Client *mongo.Client = DBinstance()

// AppID is the deployment namespace. Every logical collection lives under it so
// several deployments can share one cluster without seeing each other's data.
func AppID() string {
	appID := os.Getenv("APP_ID")
	if appID == "" {
		appID = "default"
	}
	return appID
}

func DatabaseName() string {
	return "RestoOp"
}

// OpenCollection returns a handle on a namespaced logical collection.
func OpenCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DatabaseName()).Collection(AppID() + "_" + collectionName)
}
