package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Windi-Fikriyansyah/civic_be/internal/config"
	"github.com/Windi-Fikriyansyah/civic_be/internal/db"
	"github.com/Windi-Fikriyansyah/civic_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/civic_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/geocode"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/issue"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/profile"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/token"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	tokens, err := token.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		return err
	}

	var uploader storage.Uploader
	if cfg.SupabaseURL != "" {
		uploader = storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey)
		log.Info("storage: supabase", "url", cfg.SupabaseURL)
	} else {
		uploader = storage.NewLocalStorage(cfg.UploadDir, cfg.AppBaseURL)
		log.Info("storage: local disk", "dir", cfg.UploadDir)
	}

	var geocoder geocode.Geocoder
	if !cfg.GeocodeDisabled {
		geocoder = geocode.NewNominatimService(cfg.GeocodeBaseURL, cfg.GeocodeTimeout)
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	var notifier realtime.Notifier = realtime.HubNotifier{Hub: hub}
	if cfg.RedisAddr != "" {
		rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		go func() {
			if err := realtime.Subscribe(ctx, rdb, realtime.NotificationChannel, hub, log, nil); err != nil {
				log.Error("realtime: redis subscription ended", "err", err)
			}
		}()
		notifier = realtime.NewRedisNotifier(rdb)
		log.Info("realtime: redis relay enabled", "addr", cfg.RedisAddr)
	}

	users := repository.NewUserRepository(gdb)
	pros := repository.NewProUserRepository(gdb)
	issues := repository.NewIssueRepository(gdb)
	requests := repository.NewIssueRequestRepository(gdb)

	authSvc := auth.NewAuthService(users, pros, tokens, uploader, cfg.MaxUploadBytes, log)
	issueSvc := issue.NewIssueService(issues, requests, uploader, geocoder, notifier, cfg.MaxUploadBytes, log)
	profileSvc := profile.NewProfileService(users, pros)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(log),
		// five images of up to MaxUploadBytes plus form fields
		BodyLimit: int(cfg.MaxUploadBytes)*(5+1) + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	if cfg.SupabaseURL == "" {
		app.Static("/uploads", filepath.Clean(cfg.UploadDir))
	}

	deps := handlers.Deps{
		Auth:     handlers.NewAuthHandler(authSvc),
		Issues:   handlers.NewIssueHandler(issueSvc),
		Profiles: handlers.NewProfileHandler(profileSvc),
		Realtime: handlers.NewRealtimeHandler(hub, tokens, log),
		Tokens:   tokens,
		Users:    users,
	}
	if cfg.GoogleEnabled() {
		deps.Google = &handlers.GoogleOAuthHandler{
			Auth:            authSvc,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
		}
	}
	handlers.SetupRoutes(app, deps)

	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(":" + cfg.AppPort)
	}()
	log.Info("listening", "port", cfg.AppPort)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
