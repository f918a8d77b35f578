//go:build lambda

package main

import (
	"context"
	"os"
	"pnoti/internal/api"
	"pnoti/internal/backends"
	"pnoti/internal/config"
	"pnoti/internal/logging"
	"pnoti/internal/pending"
	"pnoti/internal/pub"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("The .env file not found.")
	}

	settings, err := config.Load("")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logging.Configure(settings.Log)

	ctx := context.Background()
	store, _, err := backends.RegistryBackend(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to initialize registry store: %v", err)
	}
	publisher, _, err := pub.FromSettings(ctx, settings.Publisher, settings.DDB.Region)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	var opts []pending.Option
	if publisher != nil {
		opts = append(opts, pending.WithPublisher(publisher))
	}
	handler := &api.SQSHandler{Svc: pending.NewService(store, opts...)}

	// Start Lambda runtime
	lambda.Start(handler.HandleSQSEvent)
}
