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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	specpkg "github.com/userix/userix/api"
	"github.com/userix/userix/internal/api"
	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/class"
	"github.com/userix/userix/internal/config"
	"github.com/userix/userix/internal/database"
	"github.com/userix/userix/internal/metrics"
	"github.com/userix/userix/internal/seed"
	"github.com/userix/userix/internal/student"
	"github.com/userix/userix/internal/teacher"
	"github.com/userix/userix/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations applied")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		cancelStartup()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
		Strict: cfg.JWTStrictSecret,
	})
	if err != nil {
		cancelStartup()
		slog.Error("failed to configure token issuer", "error", err)
		os.Exit(1)
	}

	pool := db.Pool()
	tenants := tenant.NewRepository(pool)
	classes := class.NewRepository(pool)
	students := student.NewRepository(pool)
	teachers := teacher.NewRepository(pool)
	authService := auth.NewService(auth.NewRepository(pool), auth.NewBcryptHasher(cfg.BcryptCost), issuer)

	if _, err := authService.Bootstrap(startupCtx, auth.BootstrapAdmin{
		Email:     cfg.BootstrapAdminEmail,
		Password:  cfg.BootstrapAdminPassword,
		FirstName: cfg.BootstrapAdminFirstName,
		LastName:  cfg.BootstrapAdminLastName,
	}); err != nil {
		cancelStartup()
		slog.Error("failed to bootstrap system admin", "error", err)
		os.Exit(1)
	}

	if cfg.SeedFile != "" {
		if err := applySeed(startupCtx, cfg.SeedFile, tenants, authService); err != nil {
			cancelStartup()
			slog.Error("failed to apply seed file", "error", err, "path", cfg.SeedFile)
			os.Exit(1)
		}
	}
	cancelStartup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	loginLimiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig(cfg.LoginRatePerMinute, cfg.LoginBurst))
	defer loginLimiter.Stop()

	router := api.NewRouter(api.RouterDeps{
		DBPinger:       db,
		Version:        cfg.Version,
		AuthService:    authService,
		Tenants:        tenants,
		Classes:        classes,
		Students:       students,
		Teachers:       teachers,
		Collector:      collector,
		Gatherer:       reg,
		OpenAPISpec:    specpkg.OpenAPISpec,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		TrustedProxies: trustedProxies,
		LoginLimiter:   loginLimiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting userix server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

func applySeed(ctx context.Context, path string, tenants tenant.Repository, admins seed.AdminProvisioner) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	res, err := seed.NewSeeder(tenants, admins).Apply(ctx, f)
	if err != nil {
		return err
	}

	slog.Info("seed file applied",
		"tenantsCreated", res.TenantsCreated,
		"tenantsSkipped", res.TenantsSkipped,
		"adminsCreated", res.AdminsCreated,
		"adminsSkipped", res.AdminsSkipped,
	)
	return nil
}
