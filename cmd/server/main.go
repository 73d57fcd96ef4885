package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request id + panic recovery

	"github.com/iliyamo/odwyaty/internal/allocator"
	"github.com/iliyamo/odwyaty/internal/attendance"
	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/config" // Internal config loader
	"github.com/iliyamo/odwyaty/internal/database"
	"github.com/iliyamo/odwyaty/internal/handler"
	"github.com/iliyamo/odwyaty/internal/logger"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/queue"
	"github.com/iliyamo/odwyaty/internal/registration"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/router" // Internal router setup
	"github.com/iliyamo/odwyaty/internal/telemetry"
	"github.com/iliyamo/odwyaty/internal/validator"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Env, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	params := database.Params{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName}
	if cfg.AutoMigrate {
		if err := migrate(params); err != nil {
			return err
		}
		log.Info("migrations applied")
	}
	db, err := database.Open(params)
	if err != nil {
		return err
	}
	defer db.Close()

	// repositories
	members := repository.NewMemberRepo(db)
	events := repository.NewEventRepo(db)
	attendances := repository.NewAttendanceRepo(db)
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)
	settings := repository.NewSettingsRepo(db)
	stats := repository.NewStatsRepo(db)
	counters := repository.NewCounterRepo(db)

	bootCtx, cancelBoot := context.WithTimeout(ctx, 15*time.Second)
	defer cancelBoot()
	added, err := repository.NewGovernorateRepo(db).Sync(bootCtx)
	if err != nil {
		return err
	}
	if added > 0 {
		log.Info("governorate registry extended", "added", added, "version", catalog.Version)
	}
	if cfg.AdminPassword != "" {
		created, err := admins.EnsureSeed(bootCtx, cfg.AdminEmail, cfg.AdminPassword, "", cfg.BcryptCost)
		if err != nil {
			return err
		}
		if created {
			log.Info("bootstrap admin created", "email", cfg.AdminEmail)
		}
	}
	cancelBoot()

	// infrastructure
	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}
	publisher := queue.NewPublisher(cfg.AMQPURL, log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Close(sctx); err != nil {
			log.Warn("publisher backlog not drained", "error", err)
		}
	}()
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.AMQPURL, cfg.ActivityLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", "error", err)
			}
		}()
	}

	// domain
	registry := catalog.NewRegistry(cfg.EntityNames)
	validate := validator.New(registry)
	alloc := allocator.New(counters, registry, log)
	registrations := registration.NewService(members, alloc, settings, publisher, validate, cfg.AppURL, log)
	recorder := attendance.NewRecorder(events, members, attendances, log)

	cacheCfg := config.LoadCacheConfig()
	limits := config.LoadRateLimits()
	guards := router.Guards{
		PublicLimit: middleware.NewTokenBucket(limits.Public, rdb, log),
		ScanLimit:   middleware.NewTokenBucket(limits.Scan, rdb, log),
		Cache:       middleware.NewRedisCache(cacheCfg, rdb, log),
		Maintenance: middleware.Maintenance(func() bool { return cfg.MaintenanceMode }),
	}
	settingsHandler := handler.NewSettingsHandler(settings, validate, func(ctx context.Context) error {
		return middleware.InvalidateCache(ctx, rdb, cacheCfg.Prefix)
	}, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.Tracing(cfg.ServiceName))
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins, tokens, log), cfg.JWTSecret)
	router.RegisterPublic(e, router.Public{
		Register: handler.NewRegisterHandler(registrations, log),
		Members:  handler.NewMemberPublicHandler(cfg, members, log),
		Settings: settingsHandler,
		Catalog:  registry,
	}, guards, cfg.JWTSecret)
	router.RegisterAdmin(e, router.Admin{
		Attendance: handler.NewAttendanceHandler(recorder, publisher, attendances, events, admins, log),
		Events:     handler.NewEventHandler(events, validate, log),
		Members:    handler.NewMemberHandler(members, registrations, validate, log),
		Users:      handler.NewUserHandler(admins, validate, cfg.BcryptCost, log),
		Settings:   settingsHandler,
		Stats:      handler.NewStatsHandler(stats, log),
	}, guards, cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

// migrate applies the embedded migrations over a dedicated multi-statement
// connection.
func migrate(p database.Params) error {
	p.MultiStatements = true
	db, err := database.Open(p)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.MigrateUp(db)
}
