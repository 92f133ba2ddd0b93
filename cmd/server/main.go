package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duragraph/mediagraph/cmd/server/config"
	"github.com/duragraph/mediagraph/internal/application/service"
	"github.com/duragraph/mediagraph/internal/domain/batch"
	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	"github.com/duragraph/mediagraph/internal/infrastructure/backend"
	"github.com/duragraph/mediagraph/internal/infrastructure/blobstore"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
	"github.com/duragraph/mediagraph/internal/infrastructure/httpapi"
	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
	"github.com/duragraph/mediagraph/internal/infrastructure/persistence/postgres"
	"github.com/duragraph/mediagraph/internal/pkg/eventbus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fmt.Println("mediagraph server")
	fmt.Printf("server: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("database: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer postgres.Close(pool)
	fmt.Println("database connected")

	metrics := monitoring.NewMetrics("mediagraph")

	// Domain events recorded by the graph aggregate are published here after
	// each successful save; stale propagation is worth a log line since it
	// explains why a later run re-executes nodes a client thought were
	// cached.
	domainBus := eventbus.New()
	domainBus.Subscribe("graph.node_marked_stale", func(ctx context.Context, e eventbus.Event) error {
		if ev, ok := e.(graph.NodeMarkedStale); ok {
			log.Printf("graph %s: node %s marked stale", ev.GraphID, ev.NodeID)
		}
		return nil
	})
	for _, eventType := range []string{
		"graph.defined", "graph.node_added", "graph.edge_added",
		"graph.node_removed", "graph.node_marked_stale",
	} {
		domainBus.Subscribe(eventType, func(ctx context.Context, e eventbus.Event) error {
			metrics.RecordEventPublished(e.EventType())
			return nil
		})
	}

	graphRepo := postgres.NewGraphRepository(pool, domainBus)

	for nodeType, capacity := range cfg.Concurrency {
		entry := batch.DefaultTypeConfigs[nodeType]
		entry.Capacity = capacity
		batch.DefaultTypeConfigs[nodeType] = entry
	}

	store, err := blobstore.New(cfg.BlobStore.BasePath)
	if err != nil {
		log.Fatalf("failed to initialize blob store: %v", err)
	}
	fmt.Printf("blob store ready at %s\n", cfg.BlobStore.BasePath)

	geminiClient, err := backend.NewGeminiClient(ctx, cfg.Backends.GeminiAPIKey)
	if err != nil {
		log.Fatalf("failed to initialize gemini client: %v", err)
	}

	textProviders := map[string]backend.TextGenerator{"gemini": geminiClient}
	if cfg.Backends.AnthropicAPIKey != "" {
		textProviders["anthropic"] = backend.NewAnthropicClient(cfg.Backends.AnthropicAPIKey)
	}
	if cfg.Backends.OpenAIAPIKey != "" {
		textProviders["openai"] = backend.NewOpenAIClient(cfg.Backends.OpenAIAPIKey)
	}

	genBackend := &backend.MultiProviderBackend{
		TextProviders: textProviders,
		Multimodal:    geminiClient,
	}

	deps := handler.Deps{Backend: genBackend, Store: store}

	bus := eventstream.NewBus()
	defer bus.Close()

	graphRunner := service.NewGraphRunner(graphRepo, deps, bus, metrics)
	batchRunner := service.NewBatchRunner(graphRepo, deps, bus, metrics)

	e := httpapi.New(graphRunner, batchRunner, bus, metrics, version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		fmt.Printf("listening on %s\n", addr)
		if err := e.Start(addr); err != nil {
			log.Printf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	fmt.Println("shutdown complete")
}
