package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yumikyo/proposal-g/config"
	httpDelivery "github.com/yumikyo/proposal-g/internal/delivery/http"
	"github.com/yumikyo/proposal-g/internal/domain"
	"github.com/yumikyo/proposal-g/internal/infrastructure/catalog"
	"github.com/yumikyo/proposal-g/internal/infrastructure/gemini"
	"github.com/yumikyo/proposal-g/internal/infrastructure/storage"
	"github.com/yumikyo/proposal-g/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Proposal-G Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	store := catalog.NewStore(cfg.Catalog.Path, catalog.Columns{
		ID:    cfg.Catalog.IDColumn,
		Name:  cfg.Catalog.NameColumn,
		Price: cfg.Catalog.PriceColumn,
		Unit:  cfg.Catalog.UnitColumn,
	})
	if snapshot, err := store.Load(); err != nil {
		log.Printf("WARNING: catalog %s could not be loaded: %v (serving an empty catalog)", cfg.Catalog.Path, err)
	} else {
		log.Printf("Catalog loaded: %d products from %s", len(snapshot.Entries), snapshot.Source)
	}

	// Without an API key the server still serves catalog and reconcile
	// endpoints; only photo uploads are refused.
	var recognizer domain.RecognitionClient
	if cfg.Gemini.APIKey != "" {
		client := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)

		// Enable debug mode in development environment
		if cfg.Gemini.Debug || cfg.Server.Environment == "development" {
			client.SetDebug(true)
			log.Printf("Gemini client debug mode enabled")
		}

		recognizer = client
		log.Printf("Gemini API configured: model=%s", cfg.Gemini.Model)
	} else {
		log.Printf("WARNING: Gemini API key NOT CONFIGURED - menu photo recognition will be unavailable")
	}

	proposals := storage.NewMemoryStore(cfg.Proposals.TTL)
	log.Printf("Proposal TTL: %s", cfg.Proposals.TTL)

	// Initialize usecase layer
	proposalService := usecase.NewProposalService(
		store,
		recognizer,
		proposals,
		usecase.ProposalServiceConfig{
			DefaultThreshold: cfg.Matching.Threshold,
		},
	)

	log.Printf("Matching: threshold=%d", cfg.Matching.Threshold)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(proposalService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
