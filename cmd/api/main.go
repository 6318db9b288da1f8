package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"hezora/internal/config"
	"hezora/internal/db"
	"hezora/internal/domain"
	"hezora/internal/httpserver"
	"hezora/internal/notify"
	"hezora/internal/observability"
	bookrepo "hezora/internal/repository/book"
	orderrepo "hezora/internal/repository/order"
	catalogsvc "hezora/internal/service/catalog"
	cartsvc "hezora/internal/service/cart"
	checkoutsvc "hezora/internal/service/checkout"
	"hezora/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	tracerProvider, shutdownTracing, err := observability.InitTracing(ctx, "hezora-api", cfg.TracesExporter, logger)
	if err != nil {
		logger.Fatalf("init tracing: %v", err)
	}

	sessions, err := newSessionStore(ctx, cfg, dbpool)
	if err != nil {
		logger.Fatalf("init session store: %v", err)
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Fatalf("init notifier: %v", err)
	}
	defer closeNotifier()

	bookRepo := bookrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	catalogService := catalogsvc.New(bookRepo, cfg.MediaRoot)
	cartService := cartsvc.New(bookRepo)
	policy := domain.ParseReconcilePolicy(cfg.CheckoutPolicy)
	checkoutService := checkoutsvc.NewTraced(checkoutsvc.New(cartService, orderRepo, notifier, checkoutsvc.Options{
		Policy:        policy,
		CurrencyLabel: cfg.CurrencyLabel,
		FromEmail:     cfg.FromEmail,
		NotifyTimeout: cfg.NotifyTimeout,
		Logger:        logger,
	}), tracerProvider)
	logger.Printf("checkout policy=%s notify=%s sessions=%s", policy, cfg.NotifyMode, cfg.SessionStore)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:        catalogService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Sessions:       sessions,
		Cookie:         session.CookieOptions{TTL: cfg.SessionTTL, Secure: cfg.SessionCookieSecure},
		CORSOrigins:    cfg.CORSOrigins,
		TracerProvider: tracerProvider,
		ServiceName:    "hezora-api",
		Debug:          cfg.LogLevel == "debug",
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("flush traces: %v", err)
	}
}

func newSessionStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (session.Store, error) {
	switch cfg.SessionStore {
	case "memory":
		return session.NewMemoryStore(cfg.SessionTTL), nil
	case "postgres":
		gdb, err := db.ConnectGorm(ctx, pool.Config().ConnString())
		if err != nil {
			return nil, err
		}
		return session.NewPostgresStore(gdb, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}

func newNotifier(cfg config.Config, logger *log.Logger) (notify.Sender, func(), error) {
	noop := func() {}
	switch cfg.NotifyMode {
	case "log":
		return notify.NewLog(logger), noop, nil
	case "smtp":
		return notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			Timeout:  cfg.NotifyTimeout,
		}), noop, nil
	case "queue":
		pool, err := notify.NewChannelPool(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Channels, logger)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewQueue(pool, cfg.RabbitMQ.Queue), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown NOTIFY_MODE %q", cfg.NotifyMode)
	}
}
