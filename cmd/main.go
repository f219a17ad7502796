package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/yamlrg/connect/config"
	"github.com/yamlrg/connect/db"
	"github.com/yamlrg/connect/handlers"
	"github.com/yamlrg/connect/realtime"
	"github.com/yamlrg/connect/repositories"
	"github.com/yamlrg/connect/routes"
	"github.com/yamlrg/connect/services"
	"github.com/yamlrg/connect/storage"
)

// schedulerInterval is how often elapsed events are swept to completed.
const schedulerInterval = time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	arrangementRepo := repositories.NewPostgresArrangementRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)

	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	eventService := services.NewEventService(eventRepo, logger)
	sessionService := services.NewSessionService(participantRepo, eventRepo)
	signupService := services.NewSignupService(participantRepo, userRepo, eventRepo)
	inviteService := services.NewInviteService(participantRepo, emailService, logger)
	assignmentService := services.NewAssignmentService(participantRepo, arrangementRepo, hub, logger)
	exportService := services.NewExportService(assignmentService, participantRepo, userRepo, uploader)
	logger.Info("services initialized")

	// Sweep upcoming events past their start time into completed.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()

		if err := eventService.CompleteElapsedEvents(context.Background()); err != nil {
			logger.Error("event sweep failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := eventService.CompleteElapsedEvents(context.Background()); err != nil {
				logger.Error("event sweep failed", slog.Any("error", err))
			}
		}
	}()

	router := routes.InitRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		User:       handlers.NewUserHandler(userService),
		Session:    handlers.NewSessionHandler(sessionService, assignmentService),
		Assignment: handlers.NewAssignmentHandler(assignmentService, exportService),
		Signup:     handlers.NewSignupHandler(signupService, inviteService),
		Event:      handlers.NewEventHandler(eventService),
		WebSocket:  handlers.NewWebSocketHandler(hub, logger),
	}, []byte(cfg.JWTSecretKey))
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
