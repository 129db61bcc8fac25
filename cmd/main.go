package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user_service/internal/config"
	"user_service/internal/events"
	"user_service/internal/http_server/handlers/avatar"
	"user_service/internal/http_server/handlers/channel"
	"user_service/internal/http_server/handlers/login"
	"user_service/internal/http_server/handlers/logout"
	"user_service/internal/http_server/handlers/password"
	"user_service/internal/http_server/handlers/profile"
	"user_service/internal/http_server/handlers/refresh"
	"user_service/internal/http_server/handlers/register"
	"user_service/internal/http_server/middleware/authn"
	"user_service/internal/lib/jwt"
	s3media "user_service/internal/media/s3"
	"user_service/internal/storage/mongodb"
	"user_service/internal/user"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting user service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := mongodb.New(ctx, cfg.Mongo)
	if err != nil {
		log.Error("failed to connect mongodb", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close(context.Background())

	mediaStore, err := s3media.New(ctx, cfg.Media)
	if err != nil {
		log.Error("failed to set up media store", slog.String("err", err.Error()))
		os.Exit(1)
	}

	publisher, err := events.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer publisher.Close()

	tokenManager := jwt.NewManager(cfg.Tokens)

	userService := user.New(log, storage, storage, mediaStore, publisher, tokenManager)

	router := setupRouter(log, cfg, userService, tokenManager, storage)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("User service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	userService *user.Service,
	tokenManager *jwt.Manager,
	provider authn.UserProvider,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	validate := validator.New()

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", register.New(log, validate, userService))
		r.Post("/login", login.New(log, validate, userService, cfg.Tokens))
		r.Post("/refresh-token", refresh.New(log, userService, cfg.Tokens))

		r.Group(func(r chi.Router) {
			r.Use(authn.New(log, tokenManager, provider))

			r.Post("/logout", logout.New(log, userService))
			r.Post("/change-password", password.New(log, validate, userService))
			r.Get("/current-user", profile.Current(log))
			r.Patch("/update-account", profile.Update(log, validate, userService))
			r.Patch("/avatar", avatar.New(log, userService))
			r.Patch("/cover-image", avatar.NewCover(log, userService))
			r.Get("/c/{username}", channel.New(log, userService))
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
