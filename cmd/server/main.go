package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"vaultbank/internal/auth/resolver"
	authservice "vaultbank/internal/auth/service"
	authstore "vaultbank/internal/auth/store"
	userstore "vaultbank/internal/auth/store/user"
	"vaultbank/internal/auth/token"
	httptransport "vaultbank/internal/http"
	"vaultbank/internal/ledger/events"
	ledgermetrics "vaultbank/internal/ledger/metrics"
	"vaultbank/internal/ledger/ports"
	ledgerservice "vaultbank/internal/ledger/service"
	ledgermemory "vaultbank/internal/ledger/store/memory"
	ledgerpostgres "vaultbank/internal/ledger/store/postgres"
	"vaultbank/internal/platform/config"
	"vaultbank/internal/platform/httpserver"
	"vaultbank/internal/platform/logger"
	"vaultbank/internal/platform/middleware"
	platformredis "vaultbank/internal/platform/redis"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		users       authstore.UserStore
		ledgerStore ports.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		users = userstore.NewPostgres(db)
		ledgerStore = ledgerpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memUsers := userstore.New()
		users = memUsers
		ledgerStore = ledgermemory.New(memUsers)
	}

	sinks := events.Fanout{events.NewLogNotifier(log)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, events.NewRedisNotifier(redisClient.Client, cfg.Redis.Channel, log))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier, err := events.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to build kafka producer", "error", err)
			os.Exit(1)
		}
		defer kafkaNotifier.Close()
		sinks = append(sinks, kafkaNotifier)
	}

	tokens := token.NewService(cfg.JWTSigningKey, "vaultbank", cfg.TokenTTL)
	res := resolver.New(users, cfg.AdminEmail, resolver.WithLogger(log))
	auth := authservice.New(users, res, tokens, authservice.WithLogger(log))

	metrics := ledgermetrics.New()
	ledger, err := ledgerservice.New(ledgerStore,
		ledgerservice.WithLogger(log),
		ledgerservice.WithNotifier(sinks),
		ledgerservice.WithMetrics(metrics),
		ledgerservice.WithDefaultCurrency(cfg.DefaultCurrency),
	)
	if err != nil {
		log.Error("failed to build ledger service", "error", err)
		os.Exit(1)
	}

	gate := middleware.NewGate(tokens, res, cfg.CookieName, log,
		middleware.WithFailureCounter(metrics.AuthFailures))
	handler := httptransport.NewHandler(auth, ledger, gate, cfg.CookieName)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting vaultbank", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
