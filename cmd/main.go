// Command eventhub runs the event lifecycle and registration API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mvenault/eventhub/internal/auth"
	"github.com/mvenault/eventhub/internal/config"
	"github.com/mvenault/eventhub/internal/database"
	"github.com/mvenault/eventhub/internal/handler"
	"github.com/mvenault/eventhub/internal/model"
	"github.com/mvenault/eventhub/internal/repository"
	"github.com/mvenault/eventhub/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogMode)
	defer logger.Sync()
	log := logger.Sugar()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}

func newLogger(mode string) *zap.Logger {
	if mode == "dev" {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return l
	}
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Infow("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	// Repositories.
	eventRepo := repository.NewEventRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewRefreshTokenRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	tagRepo := repository.NewTagRepository(pool)

	// Services.
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL)
	eventSvc := service.NewEventService(eventRepo, categoryRepo, tagRepo, registrationRepo)
	registrationSvc := service.NewRegistrationService(registrationRepo, eventSvc)
	categorySvc := service.NewCategoryService(categoryRepo)
	tagSvc := service.NewTagService(tagRepo)
	userSvc := service.NewUserService(userRepo)
	authSvc := service.NewAuthService(userRepo, tokenRepo, tm, cfg.RefreshTTL, log)

	// Handlers.
	eventHandler := handler.NewEventHandler(eventSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	tagHandler := handler.NewTagHandler(tagSvc)
	userHandler := handler.NewUserHandler(userSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	authn := handler.NewAuth(tm, userRepo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(log))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/upcoming", eventHandler.Upcoming)
		r.Get("/slug/{slug}", eventHandler.GetBySlug)
		r.Get("/{id}", eventHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Use(handler.RequireRoles(model.RoleOrganizer, model.RoleAdmin))
			r.Get("/my-events", eventHandler.MyEvents)
			r.Post("/", eventHandler.Create)
			r.Patch("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
		})
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Post("/", registrationHandler.Create)
		r.Get("/my-registrations", registrationHandler.MyRegistrations)
		r.Get("/event/{eventId}", registrationHandler.EventRegistrations)
		r.Get("/event/{eventId}/is-registered", registrationHandler.IsRegistered)
		r.Delete("/event/{eventId}", registrationHandler.Delete)
		r.Patch("/event/{eventId}/user/{userId}", registrationHandler.UpdateStatus)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.List)
		r.Get("/{id}", categoryHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Use(handler.RequireRoles(model.RoleAdmin))
			r.Post("/", categoryHandler.Create)
			r.Patch("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", tagHandler.List)
		r.Get("/{id}", tagHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Use(handler.RequireRoles(model.RoleAdmin))
			r.Post("/", tagHandler.Create)
			r.Patch("/{id}", tagHandler.Update)
			r.Delete("/{id}", tagHandler.Delete)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Get("/me", userHandler.Me)
		r.Patch("/{id}", userHandler.Update)
		r.Delete("/{id}", userHandler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireRoles(model.RoleAdmin))
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
