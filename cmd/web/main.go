package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/config"
	"github.com/AdamBeresnev/pitch-league/internal/db"
	"github.com/AdamBeresnev/pitch-league/internal/i18n"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/service"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
)

const sessionsTable = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	database, err := db.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.DatabaseDriver, cfg.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	sessionManager, err := newSessionManager(database, cfg)
	if err != nil {
		slog.Error("failed to set up sessions", "error", err)
		os.Exit(1)
	}

	app, sweeper := newApplication(database, cfg, sessionManager, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweeper.run(ctx, cfg.SweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// newSessionManager keeps sessions in the database for sqlite and in memory otherwise.
func newSessionManager(database *sqlx.DB, cfg *config.Config) (*scs.SessionManager, error) {
	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	if cfg.DatabaseDriver != "sqlite3" {
		sessionManager.Store = memstore.New()
		return sessionManager, nil
	}
	if _, err := database.Exec(sessionsTable); err != nil {
		return nil, err
	}
	sessionManager.Store = sqlite3store.New(database.DB)
	return sessionManager, nil
}

func newApplication(database *sqlx.DB, cfg *config.Config, sessionManager *scs.SessionManager, logger *slog.Logger) (*application, *sweeper) {
	stores := service.NewStores(database)
	notifier := notify.NewNotifier(stores.Notifications, i18n.NewTranslator(cfg.Locale), cfg.Locale, logger)
	opts := []service.Option{service.WithLogger(logger), service.WithLocation(cfg.Location)}

	app := &application{
		sessions:   sessionManager,
		stores:     stores,
		venues:     service.NewVenueService(database, stores, opts...),
		slots:      service.NewSlotService(database, stores, notifier, opts...),
		challenges: service.NewChallengeService(database, stores, notifier, opts...),
		teams:      service.NewTeamService(stores, notifier, opts...),
		games:      service.NewGameService(stores, opts...),
		users:      service.NewUserService(stores, opts...),
	}
	sw := &sweeper{
		reminders:  service.NewReminderService(stores, notifier, cfg.ReminderLead, opts...),
		challenges: app.challenges,
		slots:      app.slots,
		logger:     logger,
	}
	return app, sw
}
