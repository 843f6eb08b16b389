package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chipforge/internal/config"
	"chipforge/internal/handler"
	"chipforge/internal/hub"
	"chipforge/internal/loader"
	"chipforge/internal/repository/sqlite"
	"chipforge/internal/service"
	"chipforge/internal/watcher"
)

func main() {
	// Command line flags; set flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	strict := flag.Bool("strict", false, "Report connectivity findings as errors")
	watch := flag.String("watch", "", "Comma-separated design files to import and re-import on change")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting chipforge server...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "db":
			cfg.Database.Path = *dbPath
		case "strict":
			cfg.ERC.Strict = strict
		}
	})
	if *watch != "" {
		cfg.Watch.Paths = append(cfg.Watch.Paths, strings.Split(*watch, ",")...)
	}
	log.Printf("Config:\n%s", cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub
	sseHub := hub.New()
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	designSvc := service.NewDesignService(repo, eventBus, cfg.EffectiveERCOptions(), cfg.Validate.Workers)

	if len(cfg.Watch.Paths) > 0 {
		for _, path := range cfg.Watch.Paths {
			syncDesignFile(ctx, designSvc, path)
		}
		w := watcher.New(func(path string) {
			syncDesignFile(ctx, designSvc, path)
		}, cfg.Watch.Paths...).WithDebounce(cfg.Watch.Debounce.Duration())
		go func() {
			if err := w.Watch(ctx); err != nil && err != context.Canceled {
				log.Printf("Watcher stopped: %v", err)
			}
		}()
	}

	mux := handler.Routes(handler.NewDesignHandler(designSvc), sseHub)

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	// No WriteTimeout: /events streams for the life of the client
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop the watcher and close SSE streams so Shutdown is not held open
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	eventBus.Unsubscribe(eventChan)
	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg, found, err := config.Load()
		if err == nil && found != "" {
			log.Printf("Using config %s", found)
		}
		return cfg, err
	}
	cfg, _, err := config.LoadFromPath(path)
	return cfg, err
}

// syncDesignFile imports a design file, replacing any stored copy, and re-runs the ERC
func syncDesignFile(ctx context.Context, svc *service.DesignService, path string) {
	design, err := loader.LoadFile(path)
	if err != nil {
		log.Printf("Failed to load %s: %v", path, err)
		return
	}

	if _, err := svc.ImportDesign(ctx, design, "replace"); err != nil {
		log.Printf("Failed to import %s: %v", path, err)
		return
	}

	report, err := svc.Validate(ctx, design.ID)
	if err != nil {
		log.Printf("Failed to validate %s: %v", design.ID, err)
		return
	}
	log.Printf("ERC %s: %d errors, %d warnings", design.ID, len(report.Result.Errors), len(report.Result.Warnings))
}
