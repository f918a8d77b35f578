package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"pnoti/internal/api"
	"pnoti/internal/backends"
	"pnoti/internal/config"
	"pnoti/internal/logging"
	"pnoti/internal/pending"
	"pnoti/internal/pub"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default $PNOTI_CONFIG or config.yml)")
	flag.Parse()

	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logging.Configure(settings.Log)

	ctx := context.Background()
	store, closeStore, err := backends.RegistryBackend(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to initialize registry store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.WithError(err).Warn("failed to close registry store")
		}
	}()

	publisher, closePub, err := pub.FromSettings(ctx, settings.Publisher, settings.DDB.Region)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}
	defer func() {
		_ = closePub()
	}()

	var opts []pending.Option
	if publisher != nil {
		opts = append(opts, pending.WithPublisher(publisher))
	}
	svc := pending.NewService(store, opts...)

	stop, done := api.RunServerInterruptible(settings.Port, svc)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigs:
		log.WithField("signal", sig.String()).Info("shutting down")
		stop <- struct{}{}
		err = <-done
	case err = <-done:
	}
	if err != nil {
		log.WithError(err).Error("server stopped")
	}
}
