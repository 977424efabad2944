package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"leetmate/agent/internal/api"
	"leetmate/agent/internal/coalescer"
	"leetmate/agent/internal/config"
	"leetmate/agent/internal/database"
	"leetmate/agent/internal/llm"
	"leetmate/agent/internal/model"
	"leetmate/agent/internal/monitor"
	"leetmate/agent/internal/relay"
	"leetmate/agent/internal/repository"
	"leetmate/agent/internal/service"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)
	logConfigSource()

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return 1
	}
	defer cleanup()

	provider := llm.NewGeminiClient(cfg.GeminiModel, cfg.GeminiAPIKey)
	chatService := service.NewChatService(store, provider, cfg.EnableThinking)

	// The hub and monitor reference each other: inbound page traffic drives
	// the monitor, and the monitor's emissions go back out through the hub.
	var mon *monitor.Monitor
	hub := relay.NewHub(relay.Handlers{
		OnSnapshot:     func(path, html string) { mon.OnSnapshot(path, html) },
		OnCode:         func(code string) { mon.OnCode(code) },
		OnRunTriggered: func() { mon.TriggerRunCheck() },
	})

	sink := func(update *model.UnifiedUpdate) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := chatService.RecordProblemUpdate(ctx, update); err != nil {
			slog.Error("Failed to cache problem update", "slug", update.ProblemSlug, "error", err)
		}
		hub.BroadcastProblemUpdate(update)
	}
	mon = monitor.New(coalescer.New(), sink, monitor.Options{
		Debounce:        cfg.Debounce(),
		PollInterval:    cfg.PollInterval(),
		PollMaxAttempts: cfg.PollMaxAttempts,
	})

	chatHandler := api.NewChatHandler(chatService, hub)
	router := api.NewRouter(chatHandler, hub)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting agent", "port", cfg.AppPort)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	// Teardown order: stop accepting work, then release timers and sockets.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown was not clean", "error", err)
	}
	mon.Close()
	hub.Close()

	return 0
}

// buildStore picks the persistence backend: Redis when an address is
// configured, SQLite otherwise.
func buildStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		return repository.NewRedisStore(rdb), func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis connection", "error", err)
			}
		}, nil
	}

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Connected to SQLite database", "path", cfg.DatabasePath)
	return repository.NewSQLiteStore(db), func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}, nil
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
