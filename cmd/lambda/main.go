package main

import (
	"context"
	"log"
	"time"

	"booklib-backend/infrastructure/config"
	"booklib-backend/infrastructure/di"
	"booklib-backend/interfaces/gateway"

	"github.com/aws/aws-lambda-go/lambda"
)

// Global variables for Lambda lifecycle management
var (
	// bridge translates API Gateway events into HTTP requests
	bridge *gateway.Bridge

	// container holds the dependency injection container
	container *di.Container
)

// init runs during cold start
func init() {
	coldStartTime := time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container. The cleanup function is dropped:
	// the Lambda runtime reclaims everything when the sandbox dies.
	container, _, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	bridge = gateway.NewBridge(container.Handler, container.Logger)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(bridge.Invoke)
}
