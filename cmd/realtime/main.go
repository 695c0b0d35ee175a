package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"platewire/internal/core/ports"
	"platewire/internal/core/services"
	httphandlers "platewire/internal/handlers/http"
	"platewire/internal/infrastructure/monitoring"
	memoryrepo "platewire/internal/infrastructure/repositories/memory"
	redisrepo "platewire/internal/infrastructure/repositories/redis"
	"platewire/internal/realtime/dispatch"
	"platewire/internal/realtime/handlers"
	"platewire/internal/realtime/room"
	"platewire/internal/realtime/server"
	"platewire/pkg/config"
	"platewire/pkg/logger"
	"platewire/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/platewire/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "platewire",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: os.Getenv("PLATEWIRE_ENV"),
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	collector := monitoring.NewCollector(registry)

	// Presence storage: redis when configured, in-process otherwise.
	var presence ports.PresenceRepository
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(cfg)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		presence = redisrepo.NewPresenceRepository(client)
		log.Infow("using redis presence repository", "address", cfg.Redis.Address)
	} else {
		presence = memoryrepo.NewPresenceRepository()
	}

	rooms := room.NewManager(presence, collector, zapLogger)

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// In-memory read models; a deployment wires these to the main backend.
	orderQueries := memoryrepo.NewOrderQueryRepository()
	tableQueries := memoryrepo.NewTableQueryRepository()
	inventoryQueries := memoryrepo.NewInventoryQueryRepository()

	registryDispatch := dispatch.NewRegistry(collector, zapLogger)
	handlers.NewOrderHandler(rooms, orderQueries, zapLogger).Register(registryDispatch)
	handlers.NewTableHandler(rooms, tableQueries, zapLogger).Register(registryDispatch)
	handlers.NewInventoryHandler(rooms, inventoryQueries, zapLogger).Register(registryDispatch)
	handlers.NewUserHandler(rooms, zapLogger).Register(registryDispatch)

	wsServer := server.NewWebSocketServer(rooms, authService, registryDispatch, cfg, zapLogger)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	authHandler := httphandlers.NewAuthHandler(authService, rooms, cfg.Auth.TokenTTL)
	authHandler.SetupRoutes(router)

	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))
	router.GET("/health", monitoring.NewHealthHandler(rooms))
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
		log.Info("prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("starting platewire realtime server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("server shutdown gracefully")
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Info("platewire realtime server stopped")
}
