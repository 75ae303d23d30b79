package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/curepoint/pharmacy/internal/es"
	"github.com/curepoint/pharmacy/internal/httpserver"
	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/mykafka"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/search"
	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/pkg/config"
	pkgdb "github.com/curepoint/pharmacy/pkg/db"
	"github.com/curepoint/pharmacy/pkg/logging"
	loggingmw "github.com/curepoint/pharmacy/pkg/middleware/logging"
	"github.com/curepoint/pharmacy/pkg/middleware/ratelimit"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.MustServe()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(db, models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := &repo.GormRepo{DB: db}

	var events service.Publisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	catalog := &service.CatalogService{Repo: r, Events: events}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(esCtx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		esCancel()
		if err != nil {
			// SQL search still works without the index.
			logger.Error("es_unavailable", "error", err)
		} else {
			idx := &search.MedicineIndex{ES: client, IndexName: cfg.ESIndex}
			catalog.Index = idx
			syncSearchIndex(catalog, idx, logger)
		}
	}

	carts := &service.CartService{Repo: r}
	orders := &service.OrderService{
		Repo:             r,
		Carts:            carts,
		Events:           events,
		OnlineBranchID:   cfg.OnlineBranchID,
		OnlineEmployeeID: cfg.OnlineEmployeeID,
	}
	sales := &service.SalesService{Repo: r, Events: events}

	loginLimiter, err := ratelimit.New(cfg.LoginRate)
	if err != nil {
		log.Fatalf("login rate: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		DB:           db,
		Sessions:     session.NewStore(cfg.SessionSecret, cfg.SessionSecure),
		Auth:         &httpserver.AuthHTTP{Svc: &service.AccountService{Repo: r}},
		Catalog:      &httpserver.CatalogHTTP{Svc: catalog},
		Cart:         &httpserver.CartHTTP{Carts: carts, Orders: orders},
		Employee:     &httpserver.EmployeeHTTP{Catalog: catalog, Orders: orders, Sales: sales},
		Admin:        &httpserver.AdminHTTP{Branches: &service.BranchService{Repo: r}},
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("server_stopped")
}

// syncSearchIndex creates the index if needed and backfills it from the
// database. Failures leave search on its SQL fallback.
func syncSearchIndex(catalog *service.CatalogService, idx *search.MedicineIndex, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Error("es_ensure_index_error", "index", idx.IndexName, "error", err)
		return
	}
	n, err := catalog.Reindex(ctx)
	if err != nil {
		logger.Error("es_reindex_error", "index", idx.IndexName, "indexed", n, "error", err)
		return
	}
	logger.Info("es_reindexed", "index", idx.IndexName, "indexed", n)
}
