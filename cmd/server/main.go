package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/server"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file merged into the environment")
	port := flag.String("port", "", "Server port (overrides PORT)")
	nodeURL := flag.String("node", "", "Node API URL (overrides NODE_URL)")
	view := flag.String("view", "", "Default view context (overrides BRIDGE_VIEW)")
	gateway := flag.Bool("gateway", false, "Serve as a read-only gateway")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *nodeURL != "" {
		cfg.Node.URL = *nodeURL
	}
	if *view != "" {
		cfg.Bridge.View = *view
	}
	if *gateway {
		cfg.Bridge.Gateway = true
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during close: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
	log.Println("Server stopped")
}
