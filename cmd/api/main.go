package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/application/analysis"
	appbilling "github.com/bryanwahyu/design-alchemist/internal/application/billing"
	appquota "github.com/bryanwahyu/design-alchemist/internal/application/quota"
	"github.com/bryanwahyu/design-alchemist/internal/config"
	"github.com/bryanwahyu/design-alchemist/internal/domain/account"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
	domidentity "github.com/bryanwahyu/design-alchemist/internal/domain/identity"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
	"github.com/bryanwahyu/design-alchemist/internal/infra/ai/gemini"
	"github.com/bryanwahyu/design-alchemist/internal/infra/ai/offline"
	"github.com/bryanwahyu/design-alchemist/internal/infra/ai/openai"
	rediscache "github.com/bryanwahyu/design-alchemist/internal/infra/cache/redis"
	mysqlp "github.com/bryanwahyu/design-alchemist/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/design-alchemist/internal/infra/db/postgres"
	"github.com/bryanwahyu/design-alchemist/internal/infra/httpserver"
	"github.com/bryanwahyu/design-alchemist/internal/infra/identity"
	"github.com/bryanwahyu/design-alchemist/internal/infra/memory"
	"github.com/bryanwahyu/design-alchemist/internal/infra/payment/simulated"
	"github.com/bryanwahyu/design-alchemist/internal/infra/payment/stripe"
	minioStore "github.com/bryanwahyu/design-alchemist/internal/infra/storage"
	"github.com/bryanwahyu/design-alchemist/internal/logging"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "design-alchemist: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the persistence ports picked by database.driver
type stores struct {
	quota    quota.Store
	accounts account.Repository
	ledger   ledger.Repository
	revoked  domidentity.RevocationList
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	logger, err := logging.New(cfg.Server.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := application.SystemClock{}
	health := map[string]middleware.HealthChecker{}

	st, closeDB, err := openStores(ctx, cfg, clock, health)
	if err != nil {
		return err
	}
	defer closeDB()

	// redis menggantikan quota + revocation store kalau aktif
	if cfg.Redis.Enabled {
		client, err := rediscache.Connect(ctx, rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("redis connect error: %w", err)
		}
		defer client.Close()
		st.quota = rediscache.NewQuotaStore(client, cfg.Redis.Prefix)
		st.revoked = rediscache.NewRevocationList(client, cfg.Redis.Prefix)
		health["redis"] = rediscache.HealthChecker{Client: client}
	}

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	provider, err := identity.NewLocalProvider(st.accounts, st.revoked, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("identity init error: %w", err)
	}

	quotaSvc := appquota.NewService(st.quota, cfg.Quota.FreeTierLimit, logger.Named("quota"))

	payments, err := newPaymentProvider(cfg, clock)
	if err != nil {
		return err
	}
	var billingSvc *appbilling.Service
	if payments != nil {
		billingSvc = appbilling.NewService(payments, quotaSvc, logger.Named("billing"))
	}

	// init minio (opsional)
	var archive ledger.ReportArchive
	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: cfg.Archive.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		archive = store
		health["minio"] = store
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate, cfg.RateLimit.Interval)
	defer limiter.Stop()

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis:       analysis.NewService(engine, logger.Named("analysis")),
		Quota:          quotaSvc,
		Billing:        billingSvc,
		Identity:       provider,
		Ledger:         st.ledger,
		Archive:        archive,
		Health:         health,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger.Named("http"),
		Clock:          clock,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// two sequential model calls must fit
		WriteTimeout: 2*cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("db", cfg.Database.Driver),
			zap.String("ai", cfg.AI.Provider),
			zap.String("billing", cfg.Billing.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, clock application.Clock, health map[string]middleware.HealthChecker) (stores, func(), error) {
	noop := func() {}
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return stores{}, noop, fmt.Errorf("mysql connect error: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := mysqlp.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return stores{}, noop, err
			}
		}
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return stores{
			quota:    mysqlp.NewQuotaRepository(db),
			accounts: mysqlp.NewAccountRepository(db),
			ledger:   mysqlp.NewLedgerRepository(db),
			revoked:  memory.NewRevocationList(clock),
		}, func() { _ = db.Close() }, nil
	case "postgres":
		db, err = pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return stores{}, noop, fmt.Errorf("postgres connect error: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := pgp.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return stores{}, noop, err
			}
		}
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return stores{
			quota:    pgp.NewQuotaRepository(db),
			accounts: pgp.NewAccountRepository(db),
			ledger:   pgp.NewLedgerRepository(db),
			revoked:  memory.NewRevocationList(clock),
		}, func() { _ = db.Close() }, nil
	default:
		return stores{
			quota:    memory.NewQuotaStore(clock),
			accounts: memory.NewAccountRepository(),
			ledger:   memory.NewLedgerRepository(),
			revoked:  memory.NewRevocationList(clock),
		}, noop, nil
	}
}

func newEngine(ctx context.Context, cfg *config.Config) (ai.Engine, error) {
	switch cfg.AI.Provider {
	case "openai":
		oc := goopenai.DefaultConfig(cfg.AI.APIKey)
		if cfg.AI.BaseURL != "" {
			oc.BaseURL = cfg.AI.BaseURL
		}
		c := openai.NewClientWithConfig(oc, cfg.AI.Model)
		c.Timeout = cfg.AI.Timeout
		c.MaxTokens = cfg.AI.MaxTokens
		return c, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.AI.APIKey, Model: cfg.AI.Model, BaseURL: cfg.AI.BaseURL})
		if err != nil {
			return nil, err
		}
		c.Timeout = cfg.AI.Timeout
		c.MaxTokens = cfg.AI.MaxTokens
		return c, nil
	default:
		return offline.New(), nil
	}
}

func newPaymentProvider(cfg *config.Config, clock application.Clock) (billing.Provider, error) {
	switch cfg.Billing.Provider {
	case "stripe":
		return stripe.NewProvider(stripe.Options{
			SecretKey:     cfg.Billing.SecretKey,
			WebhookSecret: cfg.Billing.WebhookSecret,
			PriceID:       cfg.Billing.PriceID,
			SuccessURL:    cfg.Billing.SuccessURL,
			CancelURL:     cfg.Billing.CancelURL,
		})
	case "none":
		return nil, nil
	default:
		return simulated.NewProvider(cfg.Billing.SuccessURL, clock), nil
	}
}
