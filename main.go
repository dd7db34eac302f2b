package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cinelog/api"
	"cinelog/config"
	"cinelog/handlers"
	"cinelog/internal/database"
	"cinelog/services/catalog"
	"cinelog/services/ratings"
	"cinelog/services/recommend"
	"cinelog/services/users"
	"cinelog/services/watchlist"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("cinelog backend starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("CINELOG_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	userSvc, err := users.NewService(settings.Cache.Directory)
	if err != nil {
		log.Fatalf("failed to init users service: %v", err)
	}
	watchlistSvc, err := watchlist.NewService(settings.Cache.Directory)
	if err != nil {
		log.Fatalf("failed to init watchlist service: %v", err)
	}

	ratingSvc := ratings.NewService(db.Connection())
	ratingSvc.SetWatchlist(watchlistSvc)

	engine := recommend.NewEngine(ratingSvc)

	catalogSvc := catalog.NewService(
		settings.Metadata.TMDBAPIKey,
		settings.Metadata.Language,
		settings.Cache.Directory,
		settings.Cache.MetadataTTLHours,
	)
	if settings.Metadata.TMDBAPIKey == "" {
		log.Println("no TMDB API key configured; catalog endpoints will return 503 until one is set via /api/settings")
	}

	settingsHandler := handlers.NewSettingsHandler(cfgManager)
	settingsHandler.SetCatalogService(catalogSvc)

	r := mux.NewRouter()
	api.Register(
		r,
		settingsHandler,
		handlers.NewUsersHandler(userSvc),
		handlers.NewWatchlistHandler(watchlistSvc, userSvc),
		handlers.NewRatingsHandler(ratingSvc, userSvc),
		handlers.NewRecommendationsHandler(engine, userSvc),
		handlers.NewCatalogHandler(catalogSvc),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("shutdown complete")
}
