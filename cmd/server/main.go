package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"adroute-backend/internal/config"
	"adroute-backend/internal/database"
	"adroute-backend/internal/handlers"
	"adroute-backend/internal/logger"
	"adroute-backend/internal/middleware"
	"adroute-backend/internal/models"
	"adroute-backend/internal/projection"
	"adroute-backend/internal/services"
	"adroute-backend/internal/services/directions"
	"adroute-backend/internal/services/tracking"
	"adroute-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("❌ FATAL ERROR: configuration invalid")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFile)

	logrus.Info("═══════════════════════════════════════════════════════════════════")
	logrus.Info("🚀 ADROUTE BACKEND SERVER STARTING")
	logrus.Info("═══════════════════════════════════════════════════════════════════")

	if cfg.JWTSecret == "" {
		logrus.Fatal("❌ FATAL ERROR: APP_JWT_SECRET environment variable is required")
	}

	logrus.Info("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("❌ FATAL ERROR: Database connection failed")
	}
	defer db.Close()

	logrus.Info("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("❌ FATAL ERROR: Database migrations failed")
	}

	if err := database.SeedDemo(db); err != nil {
		logrus.WithError(err).Fatal("❌ FATAL ERROR: Demo seeding failed")
	}

	// Push notifications are optional; a nil notifier disables them
	var notifier handlers.RouteStatusNotifier
	if fcm, err := newFCMService(ctx, cfg); err != nil {
		logrus.WithError(err).Warn("⚠️  Failed to initialize FCM (push notifications disabled)")
	} else {
		notifier = fcm
		logrus.Info("✅ Firebase Cloud Messaging initialized")
	}

	store := database.NewStore(db)

	wsHub := websocket.NewHub(nil)
	throttle := tracking.NewThrottle()
	go throttle.RunCleanup(ctx, 10*time.Minute, time.Hour)
	ingestor := tracking.NewIngestor(store, wsHub, throttle)
	wsHub.SetIngestor(ingestor)
	go wsHub.Run(ctx)
	logrus.Info("✅ WebSocket hub started")

	var lookup projection.DirectionsLookup
	if cfg.DirectionsEnabled {
		client := directions.NewClient(cfg.DirectionsBaseURL)
		go client.Cache().RunCleanup(ctx, time.Hour)
		lookup = client
		logrus.WithField("base_url", cfg.DirectionsBaseURL).Info("🚶 Walking directions enabled")
	} else {
		logrus.Info("📏 Walking directions disabled, fixed routes use straight lines")
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.HealthCheck(db, wsHub))
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint (token via query param or Authorization header)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.APIRateLimit, time.Minute))
		r.Use(middleware.Auth(cfg.JWTSecret))

		// Profile
		r.Get("/profile", handlers.GetProfile(db))
		r.Patch("/profile", handlers.UpdateProfile(db))
		r.Delete("/profile", handlers.DeleteProfile(db))
		r.Post("/fcm-token", handlers.RegisterFCMToken(db))
		r.Post("/logs/diagnostic", handlers.ReceiveDiagnosticLog())

		// Routes
		r.Get("/routes", handlers.GetRoutes(db))
		r.Post("/routes", handlers.CreateRoute(db))
		r.Get("/routes/{id}", handlers.GetRoute(db))
		r.Patch("/routes/{id}", handlers.UpdateRoute(db))
		r.Delete("/routes/{id}", handlers.DeleteRoute(db))
		r.Post("/routes/{id}/tracking/start", handlers.StartRouteTracking(store))
		r.Get("/routes/{id}/track", handlers.GetRouteTrack(db))

		// Active schedules and the map overlay
		r.Get("/active-routes", handlers.GetActiveRoutes(store))
		r.Get("/active-routes/map", handlers.GetActiveRoutesMap(store, lookup, wsHub))
		r.Get("/active-routes/map.geojson", handlers.GetActiveRoutesGeoJSON(store, lookup))

		// Display-unit telemetry
		r.With(middleware.RequireRole(models.RoleEmployee, models.RoleAdmin)).
			Post("/schedules/{id}/sessions", handlers.IngestScreenSession(ingestor))

		// Back office
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Patch("/admin/routes/{id}/status", handlers.AdminUpdateRouteStatus(db, wsHub, notifier))
			r.Post("/admin/schedules", handlers.AdminCreateSchedule(db))
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Info("═══════════════════════════════════════════════════════════════════")
		logrus.Infof("🚀 Server starting on http://localhost:%s", cfg.Port)
		logrus.Info("═══════════════════════════════════════════════════════════════════")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).WithField("port", cfg.Port).Fatal("❌ FATAL ERROR: Server failed to start")
		}
	}()

	<-ctx.Done()
	logrus.Info("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("❌ Graceful shutdown failed")
	}
	<-wsHub.Done()
	logrus.Info("👋 Server stopped")
}

// newFCMService prefers base64 credentials (cloud deployments) over a credentials file
func newFCMService(ctx context.Context, cfg *config.Config) (*services.FCMService, error) {
	if cfg.FirebaseCredentialsBase64 != "" {
		return services.NewFCMServiceFromBase64(ctx, cfg.FirebaseCredentialsBase64)
	}
	return services.NewFCMService(ctx, cfg.FirebaseCredentialsFile)
}
