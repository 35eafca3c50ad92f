package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ascod-toast-classifier/internal/config"
	"github.com/ascod-toast-classifier/internal/logging"
	"github.com/ascod-toast-classifier/internal/mcp"
	"github.com/ascod-toast-classifier/internal/service"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// stdout carries the MCP protocol
	loggingCfg := cfg.Logging
	loggingCfg.Output = "stderr"
	logger := logging.New(loggingCfg)

	analyzer, err := service.BuildAnalyzer(cfg.Classifier, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build analyzer")
	}

	mcpServer, err := mcp.NewServer(cfg.MCP, analyzer, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("ASCOD/TOAST MCP server stopped")
}
