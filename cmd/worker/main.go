package main

import (
	"context"
	"log"
	"time"

	"booklib-backend/infrastructure/config"
	"booklib-backend/infrastructure/di"
	"booklib-backend/interfaces/worker"

	"github.com/aws/aws-lambda-go/lambda"
)

// handler processes queued metadata fetch messages
var handler *worker.Handler

// init runs during cold start
func init() {
	coldStartTime := time.Now()
	log.Println("Worker cold start initiated")

	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, _, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	handler = worker.NewHandler(container.Metadata, container.Logger)

	log.Printf("Worker cold start completed in %v", time.Since(coldStartTime))
}

// main is the entry point for the worker Lambda function
func main() {
	lambda.Start(handler.HandleBatch)
}
