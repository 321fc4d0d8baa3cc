// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/blogo/internal/auth"
	"github.com/olegiv/blogo/internal/cache"
	"github.com/olegiv/blogo/internal/config"
	"github.com/olegiv/blogo/internal/demo"
	"github.com/olegiv/blogo/internal/handler"
	"github.com/olegiv/blogo/internal/logging"
	"github.com/olegiv/blogo/internal/mail"
	"github.com/olegiv/blogo/internal/middleware"
	"github.com/olegiv/blogo/internal/render"
	"github.com/olegiv/blogo/internal/scheduler"
	"github.com/olegiv/blogo/internal/service"
	"github.com/olegiv/blogo/internal/session"
	"github.com/olegiv/blogo/internal/storage"
	"github.com/olegiv/blogo/internal/store"
	"github.com/olegiv/blogo/internal/version"
	"github.com/olegiv/blogo/internal/ws"
	"github.com/olegiv/blogo/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Blogo - Blog and Chat Platform\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_DB_PATH          SQLite database path (default: ./data/blogo.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_BASE_URL         Public base URL for links in mail (default: http://localhost:8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_SMTP_HOST        SMTP relay host (mail is logged when unset)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_ADMIN_EMAIL      Administrator account and contact-form recipient\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGO_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/blogo\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("blogo %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Demo instances wipe their data periodically and reseed below.
	if cfg.DoSeed {
		if _, err := demo.ResetIfNeeded(cfg.DBPath, cfg.UploadsDir, dbDir); err != nil {
			return fmt.Errorf("demo reset: %w", err)
		}
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed canonical roles and the administrator account
	ctx := context.Background()
	queries := store.New(db)
	if err := queries.SeedRoles(ctx); err != nil {
		return fmt.Errorf("seeding roles: %w", err)
	}
	if cfg.AdminEmail != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		if _, err := queries.EnsureAdmin(ctx, store.EnsureAdminParams{
			Email:        cfg.AdminEmail,
			Username:     "admin",
			PasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("ensuring admin account: %w", err)
		}
	}
	if cfg.DoSeed {
		if err := store.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Role permission cache: Redis when configured, in-memory otherwise
	cacheConfig := cache.DefaultConfig()
	cacheConfig.RedisURL = cfg.RedisURL
	cacheConfig.Prefix = cfg.CachePrefix
	cacheConfig.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	cacher, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	roles := cache.NewRoleCache(cacher, queries)
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// Initialize template renderer from the embedded templates
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Outbound mail: SMTP when configured, logged otherwise
	var mailer mail.Mailer
	if cfg.MailEnabled() {
		mailer, err = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Sender:   cfg.MailSender,
		})
		if err != nil {
			return fmt.Errorf("initializing mailer: %w", err)
		}
		slog.Info("mail delivery enabled", "host", cfg.SMTPHost)
	} else {
		mailer = mail.NewLogMailer()
		slog.Info("mail delivery disabled, messages will be logged")
	}

	// Image upload storage
	uploads, err := storage.NewUploadStore(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("initializing upload store: %w", err)
	}

	// Signed single-purpose tokens for confirmation and reset links
	tokens := auth.NewTokenIssuer([]byte(cfg.SessionSecret))

	eventService := service.NewEventService(db)

	// Chat hub: one fan-out loop per active room
	hub := ws.NewHub()

	// Weekly digest and event log retention jobs
	sched := scheduler.New(db, logger, mailer, eventService, cfg.BaseURL)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	// CSRF protection for all form posts; the websocket endpoint is
	// exempt since it carries no form state.
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	r.Use(middleware.SkipCSRF("/ws/"))
	r.Use(middleware.CSRF(csrfConfig))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	globalRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)
	r.Use(globalRateLimiter.Middleware())

	h := handler.Handlers{
		Auth:    handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, tokens, mailer, cfg.BaseURL),
		Home:    handler.NewHomeHandler(db, renderer, roles, mailer, cfg.AdminEmail, cfg.PostsPerPage),
		Posts:   handler.NewPostHandler(db, renderer, roles, uploads),
		Comment: handler.NewCommentHandler(db, renderer, roles),
		Follow:  handler.NewFollowHandler(db, renderer, cfg.FollowersPerPage),
		Users:   handler.NewUserHandler(db, renderer, roles, cfg.UsersPerPage),
		Rooms:   handler.NewRoomHandler(db, renderer, roles, hub, handler.RoomsPerPage),
		Admin:   handler.NewAdminHandler(db, renderer),
		SEO:     handler.NewSEOHandler(db, cfg.BaseURL, cfg.AdminEmail),
	}
	handler.Register(r, h, sessionManager, db, roles, eventService, loginProtection)

	// Static assets and uploaded images
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
