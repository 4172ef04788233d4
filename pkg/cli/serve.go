package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskboard/pkg/api"
	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/cache"
	"github.com/platinummonkey/taskboard/pkg/config"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/storage"
	"github.com/platinummonkey/taskboard/pkg/todos"
	"github.com/platinummonkey/taskboard/pkg/ui"
)

const limiterCleanupInterval = time.Minute

func newServeCommand() *Command {
	cmd := &Command{
		Name:        "serve",
		Description: "Run the API, UI and health servers",
		Flags:       flag.NewFlagSet("serve", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		return runServe()
	}
	return cmd
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newProcessLogger(cfg.Observability.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.run(ctx)
}

// app is a fully wired server process
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	logger *observability.Logger

	db        *sql.DB
	redis     *redis.Client
	otel      *observability.OTelProviders
	registry  *prometheus.Registry
	metrics   *observability.Metrics
	auth      *auth.Service
	audit     *audit.DBLogger // nil when auditing is off
	listCache *cache.ListCache
	limiter   *middleware.RateLimiter // local limiter, nil when Redis backs it

	apiServer    *http.Server
	healthServer *http.Server
	scheduler    *cron.Cron
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		log:    log,
		logger: observability.NewLogger(cfg.Observability.LogLevel, os.Stdout),
	}
	if err := a.wire(ctx); err != nil {
		if closeErr := a.close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to release resources after startup error")
		}
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) (err error) {
	cfg, log := a.cfg, a.log

	if a.db, err = openDatabase(ctx, cfg.Storage, log); err != nil {
		return err
	}

	if cfg.Storage.RedisURL != "" {
		if a.redis, err = storage.NewRedisClient(ctx, cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("redis connected")
	}

	if a.otel, err = observability.InitOTel(ctx, cfg.Observability.OTel(), a.logger); err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = observability.NewMetrics(a.registry)
	}

	a.auth = auth.NewService(auth.NewStore(a.db), cfg.Auth.SessionTTL)

	var (
		store    todos.Store = todos.NewSQLStore(a.db, a.metrics)
		notifier todos.ListNotifier
	)
	if cfg.Storage.CacheEnabled {
		a.listCache = cache.New(store, a.redis, cache.Config{
			Size: cfg.Storage.L1CacheSize,
			TTL:  cfg.Storage.CacheTTL,
		}, a.metrics)
		store, notifier = a.listCache, a.listCache
	}
	todoService := todos.NewService(store, auth.ContextResolver{}, notifier, a.metrics)
	if cfg.Audit.Enabled {
		if a.audit, err = audit.NewDBLogger(a.db); err != nil {
			return err
		}
		todoService.SetAuditLogger(a.audit)
	}

	var oidcProvider *auth.OIDCProvider
	if cfg.Auth.OIDC.Enabled() {
		if oidcProvider, err = auth.NewOIDCProvider(ctx, cfg.Auth.OIDC, a.auth); err != nil {
			return err
		}
		log.WithField("issuer", cfg.Auth.OIDC.IssuerURL).Info("OIDC login enabled")
	}

	limiter := a.newLimiter()
	server := api.NewServer(api.Options{
		Auth:         a.auth,
		Todos:        todoService,
		OIDC:         oidcProvider,
		Limiter:      limiter,
		Metrics:      a.metrics,
		Logger:       a.logger,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
	})
	server.RegisterRoutes(ui.NewHandler(a.auth, todoService, limiter, cfg.Auth.CookieName, cfg.Auth.CookieSecure, oidcProvider != nil))

	a.apiServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	a.healthServer = &http.Server{
		Addr:              cfg.Server.HealthAddr(),
		Handler:           a.healthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.scheduler = cron.New()
	if _, err = a.scheduler.AddFunc(cfg.Auth.CleanupSchedule, func() { a.cleanupSessions(ctx) }); err != nil {
		return fmt.Errorf("invalid session cleanup schedule %q: %w", cfg.Auth.CleanupSchedule, err)
	}
	if a.audit != nil {
		if _, err = a.scheduler.AddFunc(cfg.Audit.PruneSchedule, func() { a.pruneAudit(ctx) }); err != nil {
			return fmt.Errorf("invalid audit prune schedule %q: %w", cfg.Audit.PruneSchedule, err)
		}
	}

	return nil
}

// newLimiter throttles login and registration. With Redis the window is
// shared by every instance.
func (a *app) newLimiter() middleware.Limiter {
	cfg := middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.Auth.RateLimit,
		Burst:             a.cfg.Auth.RateBurst,
	}
	if a.redis != nil {
		return middleware.NewDistributedRateLimiter(a.redis, cfg, "")
	}
	a.limiter = middleware.NewRateLimiter(cfg)
	return a.limiter
}

func (a *app) healthHandler() http.Handler {
	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, observability.NewHealthChecker(a.db, a.redis, a.cfg.Observability.OTelServiceVersion))
	if a.metrics != nil {
		observability.RegisterMetricsEndpoint(mux, a.registry)
	}
	return mux
}

func (a *app) cleanupSessions(ctx context.Context) {
	removed, err := a.auth.CleanupExpiredSessions(ctx)
	if err != nil {
		a.log.WithError(err).Error("session cleanup failed")
		return
	}
	a.metrics.RecordSessionsCleaned(removed)
	if removed > 0 {
		a.log.WithField("removed", removed).Info("expired sessions removed")
	}
}

func (a *app) pruneAudit(ctx context.Context) {
	removed, err := a.audit.Prune(ctx, a.cfg.Audit.Retention)
	if err != nil {
		a.log.WithError(err).Error("audit prune failed")
		return
	}
	if removed > 0 {
		a.log.WithField("removed", removed).Info("old audit events removed")
	}
}

// run serves until ctx is done or a server fails, then shuts down
func (a *app) run(ctx context.Context) error {
	shutdown := observability.NewShutdownManager(a.logger, a.cfg.Server.ShutdownTimeout)
	shutdown.RegisterServer(a.apiServer)
	shutdown.RegisterServer(a.healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		select {
		case <-a.scheduler.Stop().Done():
		case <-ctx.Done():
		}
		return a.close()
	})

	g, gctx := errgroup.WithContext(ctx)
	gctx = observability.WithLogger(gctx, a.logger)

	g.Go(func() error { return listen(a.apiServer, a.log, "api") })
	g.Go(func() error { return listen(a.healthServer, a.log, "health") })
	if a.listCache != nil {
		g.Go(func() error { return a.listCache.Run(gctx) })
	}
	if a.limiter != nil {
		a.limiter.StartCleanup(gctx, limiterCleanupInterval)
	}
	g.Go(func() error { return shutdown.WaitForShutdown(gctx) })

	a.scheduler.Start()
	a.log.WithFields(logrus.Fields{
		"addr":        a.apiServer.Addr,
		"health_addr": a.healthServer.Addr,
		"cache":       a.listCache != nil,
		"redis":       a.redis != nil,
	}).Info("taskboard started")

	err := g.Wait()
	a.log.Info("taskboard stopped")
	return err
}

func listen(server *http.Server, log *logrus.Logger, name string) error {
	log.WithField("addr", server.Addr).Infof("%s server listening", name)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// close releases every external resource. It is safe to call on a partly
// built app.
func (a *app) close() error {
	var errs []error
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.otel.Shutdown(ctx, a.logger))
		cancel()
		a.otel = nil
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}
