package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/reliefgrid/triage-platform/internal/alerts"
	"github.com/reliefgrid/triage-platform/internal/anomaly"
	"github.com/reliefgrid/triage-platform/internal/api"
	"github.com/reliefgrid/triage-platform/internal/chatbot"
	"github.com/reliefgrid/triage-platform/internal/config"
	"github.com/reliefgrid/triage-platform/internal/ingestion"
	"github.com/reliefgrid/triage-platform/internal/logging"
	"github.com/reliefgrid/triage-platform/internal/orchestrator"
	"github.com/reliefgrid/triage-platform/internal/prediction"
	"github.com/reliefgrid/triage-platform/internal/sitrep"
	"github.com/reliefgrid/triage-platform/internal/store"
	"github.com/reliefgrid/triage-platform/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	predictor := prediction.NewClient()
	alertDispatcher := alerts.NewDispatcher(cfg.Alerts, st)
	anomalyDetector := anomaly.NewDetector(st, cfg.Anomaly)
	broadcaster := stream.NewBroadcaster()
	sitrepGenerator := sitrep.NewGenerator(st)

	usgs := ingestion.NewUSGSAdapter(cfg.Sources.USGSURL, cfg.Sources.USGSMinMagnitude)
	gdacs := ingestion.NewGDACSAdapter(cfg.Sources.GDACSURL)
	firms := ingestion.NewFIRMSAdapter(cfg.Sources.FIRMSBaseURL, cfg.Sources.FIRMSAPIKey)
	weather := ingestion.NewOpenWeatherMapAdapter(cfg.Sources.WeatherURL, cfg.Sources.WeatherAPIKey)
	social := ingestion.NewSocialAdapter(cfg.Sources.SocialBearerToken, cfg.Sources.SocialKeywords, cfg.Sources.SocialKeywordWeights)

	orch := orchestrator.New(cfg, st, predictor, alertDispatcher, anomalyDetector, broadcaster, sitrepGenerator,
		usgs, gdacs, firms, weather, social)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)

	sessions := newSessionStore(cfg.Redis)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5))

	handler := api.NewHandler(st, orch, sessions, sitrepGenerator, broadcaster)
	handler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	orch.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// newSessionStore picks the chatbot session backend: the in-memory map
// for a single instance, or Redis when the deployment runs more than
// one API replica behind a load balancer.
func newSessionStore(cfg config.RedisConfig) chatbot.SessionStore {
	if !cfg.Enabled {
		return chatbot.NewStore()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	slog.Info("chatbot sessions backed by redis", "addr", cfg.Addr)
	return chatbot.NewRedisStore(client)
}
