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

	"moniftar/internal/audit"
	authhandler "moniftar/internal/auth/handler"
	authservice "moniftar/internal/auth/service"
	"moniftar/internal/auth/store/revocation"
	"moniftar/internal/auth/token"
	directoryhandler "moniftar/internal/directory/handler"
	directoryservice "moniftar/internal/directory/service"
	distributionhandler "moniftar/internal/distribution/handler"
	distributionservice "moniftar/internal/distribution/service"
	membershiphandler "moniftar/internal/membership/handler"
	membershipservice "moniftar/internal/membership/service"
	"moniftar/internal/notify"
	"moniftar/internal/platform/config"
	"moniftar/internal/platform/httpserver"
	"moniftar/internal/platform/logger"
	"moniftar/internal/platform/metrics"
	"moniftar/internal/platform/postgres"
	"moniftar/internal/platform/redis"
	"moniftar/internal/ratelimit/middleware"
	"moniftar/internal/ratelimit/models"
	"moniftar/internal/ratelimit/store/bucket"
	"moniftar/internal/storage"
	"moniftar/internal/storage/memory"
	pgstore "moniftar/internal/storage/postgres"
	httptransport "moniftar/internal/transport/http"
	voucherhandler "moniftar/internal/voucher/handler"
	voucherservice "moniftar/internal/voucher/service"
	"moniftar/pkg/platform/circuit"
)

const (
	auditBuffer            = 1024
	auditTopicPartitions   = 3
	auditTopicReplication  = 1
	notifyFailureThreshold = 5
	notifyCooldown         = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "moniftar: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	reg := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httptransport.HealthCheck{}

	runner, closeStore, err := openStore(ctx, cfg.Database, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = redisClient.Health
	}
	revocations, buckets := openRedisStores(redisClient, log)
	limiter := middleware.New(buckets, log, middleware.WithMetrics(middleware.NewMetrics(reg)))

	publisher, closeAudit, err := openAudit(ctx, cfg.Kafka, log, checks)
	if err != nil {
		return err
	}
	defer closeAudit()

	sender := newNotifier(cfg, log, reg)
	jwt := token.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.TTL)
	zone := cfg.Location()

	members := membershipservice.New(runner, sender,
		membershipservice.WithLogger(log),
		membershipservice.WithAuditPublisher(publisher),
		membershipservice.WithMetrics(membershipservice.NewMetrics(reg)),
	)
	directory := directoryservice.New(runner, members, sender,
		directoryservice.WithLogger(log),
		directoryservice.WithAuditPublisher(publisher),
		directoryservice.WithDefaultCapacity(cfg.ListCapacity),
	)
	vouchers := voucherservice.New(runner, sender,
		voucherservice.WithLogger(log),
		voucherservice.WithAuditPublisher(publisher),
		voucherservice.WithMetrics(voucherservice.NewMetrics(reg)),
		voucherservice.WithLocation(zone),
		voucherservice.WithPublicBaseURL(cfg.PublicBaseURL),
	)
	distributions := distributionservice.New(runner, vouchers, sender,
		distributionservice.WithLogger(log),
		distributionservice.WithAuditPublisher(publisher),
		distributionservice.WithMetrics(distributionservice.NewMetrics(reg)),
		distributionservice.WithLocation(zone),
	)
	accounts := authservice.New(runner, jwt, revocations, sender,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(authservice.NewMetrics(reg)),
	)

	if cfg.Bootstrap.Enabled() {
		v, created, err := accounts.BootstrapAdmin(ctx, cfg.Bootstrap.AdminPhone, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.InfoContext(ctx, "bootstrap admin ready", "volunteer_code", v.Code, "created", created)
	}

	publicLimit := models.Policy{Limit: cfg.RateLimit.PublicLimit, Window: cfg.RateLimit.PublicWindow}
	apiLimit := models.Policy{Limit: cfg.RateLimit.APILimit, Window: cfg.RateLimit.APIWindow}
	routerCfg := httptransport.Config{
		Logger:           log,
		Registry:         reg,
		Tokens:           token.NewJWTServiceAdapter(jwt),
		Revocations:      revocations,
		RequestTimeout:   cfg.Server.RequestTimeout,
		Checks:           checks,
		PublicMiddleware: []func(http.Handler) http.Handler{limiter.ByIP("public", publicLimit)},
		APIMiddleware:    []func(http.Handler) http.Handler{limiter.ByVolunteer("api", apiLimit)},
	}
	router := httptransport.NewRouter(routerCfg,
		authhandler.New(accounts, log),
		directoryhandler.New(directory, log),
		membershiphandler.New(members, log),
		distributionhandler.New(distributions, log),
		voucherhandler.New(vouchers, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting moniftar", "addr", cfg.Server.Addr, "timezone", zone.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger, checks map[string]httptransport.HealthCheck) (storage.Runner, func(), error) {
	if cfg.URL == "" {
		log.Warn("no database configured, using the in-memory store")
		return memory.New(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	checks["postgres"] = db.PingContext
	return pgstore.New(db), func() { _ = db.Close() }, nil
}

type revocationList interface {
	authservice.TokenRevoker
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// openRedisStores backs token revocation and rate limit buckets with Redis
// when configured, in-process maps otherwise.
func openRedisStores(client *redis.Client, log *slog.Logger) (revocationList, middleware.BucketStore) {
	if client == nil {
		log.Warn("no redis configured, token revocations and rate limits are kept in memory")
		return revocation.NewInMemoryTRL(), bucket.NewInMemoryBucketStore()
	}
	return revocation.NewRedisTRL(client.Client), bucket.NewRedisBucketStore(client.Client)
}

func openAudit(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, checks map[string]httptransport.HealthCheck) (*audit.Publisher, func(), error) {
	var sink audit.Sink = audit.NewLogSink(log)
	closeSink := func() {}
	if cfg.Enabled() {
		kafka, err := audit.NewKafkaSink(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := kafka.EnsureTopic(ctx, auditTopicPartitions, auditTopicReplication); err != nil {
			kafka.Close()
			return nil, nil, fmt.Errorf("ensure audit topic: %w", err)
		}
		checks["kafka"] = kafka.Ping
		sink = kafka
		closeSink = kafka.Close
	} else {
		log.Warn("no kafka brokers configured, audit events are only logged")
	}

	publisher := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(auditBuffer),
		audit.WithLogger(log),
	)
	return publisher, func() {
		publisher.Close()
		closeSink()
	}, nil
}

func newNotifier(cfg config.Config, log *slog.Logger, reg prometheus.Registerer) *notify.Notifier {
	m := notify.NewMetrics(reg)
	var gateway notify.Gateway
	if cfg.Notify.Console || !cfg.Twilio.Enabled() {
		log.Warn("notifications are written to the log instead of Twilio")
		gateway = notify.NewConsoleGateway(log)
	} else {
		twilio := notify.NewTwilioGateway(cfg.Twilio.BaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.Timeout)
		breaker := circuit.New("twilio",
			circuit.WithFailureThreshold(notifyFailureThreshold),
			circuit.WithCooldown(notifyCooldown),
		)
		gateway = notify.NewGuardedGateway(twilio, breaker, log, m)
	}
	return notify.NewNotifier(gateway,
		notify.WithLogger(log),
		notify.WithMetrics(m),
		notify.WithConcurrency(cfg.Notify.Concurrency),
	)
}
