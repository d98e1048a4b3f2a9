package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"twofold-chess/internal/config"
	"twofold-chess/internal/db"
	"twofold-chess/internal/history"
	"twofold-chess/internal/httpapi"
	"twofold-chess/internal/middleware"
	"twofold-chess/internal/obslog"
	"twofold-chess/internal/session"
	"twofold-chess/internal/transport"
	"twofold-chess/internal/viewerauth"
)

func main() {
	logger := obslog.InitFromEnv()
	defer logger.Sync()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		logger.Fatal("config_load_failed", zap.Error(err))
	}

	logger.Info("starting_twofold_server", zap.String("environment", cfg.Environment))

	mongodb, err := db.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database, logger)
	if err != nil {
		logger.Fatal("mongodb_connect_failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()
	logger.Info("mongodb_connected", zap.String("database", cfg.MongoDB.Database))

	// Viewer auth (Google OAuth, scoped to history viewing only).
	jwtService := viewerauth.NewJWTService(cfg.ViewerJWT.Secret, cfg.ViewerJWT.TTLMin)
	googleOAuth := viewerauth.NewGoogleOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	oauthStates := viewerauth.NewStateStore(mongodb)

	// History sink.
	historySink := history.NewSink(mongodb, logger)

	// Transport + session server.
	hub := transport.NewHub(logger)
	sessionOpts := session.Options{
		ReconnectWindow: time.Duration(cfg.Session.ReconnectWindowSec) * time.Second,
		GCInterval:      time.Duration(cfg.Session.GCIntervalSec) * time.Second,
		IdleTimeout:     time.Duration(cfg.Session.IdleTimeoutSec) * time.Second,
	}
	manager := session.NewManager(hub, historySink, logger, sessionOpts)
	manager.StartGC()
	defer manager.StopGC()

	wsServer := transport.NewServer(hub, manager, logger)

	// HTTP handlers.
	authHandler := httpapi.NewAuthHandler(googleOAuth, jwtService, oauthStates, cfg.Frontend.URL, logger)
	gameHistoryHandler := httpapi.NewGameHistoryHandler(historySink)
	adminHandler := httpapi.NewAdminHandler(manager, cfg.Debug.AdminKeyHash, cfg.IsProduction)
	healthHandler := httpapi.NewHealthHandler(mongodb)

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	router := mux.NewRouter()
	router.Use(middleware.SecurityHeaders())

	router.Handle("/ws/rooms/{roomId}",
		rateLimiter.IPRateLimitMiddleware(middleware.WebSocketUpgradeLimit)(http.HandlerFunc(wsServer.ServeWS)))

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/google/login", authHandler.Login).Methods("GET")
	api.HandleFunc("/auth/google/callback", authHandler.Callback).Methods("GET")

	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.Use(jwtService.RequireViewerAuth)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")

	api.Handle("/games",
		rateLimiter.IPRateLimitMiddleware(middleware.GameCreationLimit)(http.HandlerFunc(gameHistoryHandler.RecordManual))).Methods("POST")

	gamesAPI := api.PathPrefix("/games").Subrouter()
	gamesAPI.Use(jwtService.RequireViewerAuth)
	gamesAPI.HandleFunc("", gameHistoryHandler.List).Methods("GET")

	api.HandleFunc("/reset", adminHandler.ResetRoom).Methods("POST")
	api.HandleFunc("/debug/setup/{scenario}", adminHandler.InstallScenario).Methods("POST")

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/detailed", healthHandler.Detailed).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server_error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server_shutdown_error", zap.Error(err))
	}

	logger.Info("server_stopped")
}
