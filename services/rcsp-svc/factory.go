// services/rcsp-svc/factory.go
package rcspsvc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rcsp/pkg/audit"
	"rcsp/pkg/cache"
	"rcsp/pkg/config"
	"rcsp/pkg/logger"
	"rcsp/pkg/metrics"
	"rcsp/pkg/telemetry"
	"rcsp/services/rcsp-svc/internal/service"
)

// Runtime собранные по конфигурации зависимости решателя.
// Close освобождает их в обратном порядке.
type Runtime struct {
	Config  *config.Config
	Service *service.RCSPService
	Journal audit.Logger

	closers []func(context.Context) error
}

// NewRuntime инициализирует логгер, телеметрию, метрики, кэш и журнал и создаёт сервис.
// Недоступный кэш или OTLP коллектор не мешают решению: сервис работает без них.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	log := logger.WithService(cfg.App.Name)
	rt := &Runtime{Config: cfg}

	if cfg.Tracing.Enabled {
		serviceName := cfg.Tracing.ServiceName
		if serviceName == "" {
			serviceName = cfg.App.Name
		}
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     true,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: serviceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warn("Failed to init telemetry", "error", err)
		} else {
			rt.closers = append(rt.closers, tp.Shutdown)
			log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem).SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	if cfg.Metrics.Enabled {
		srv := metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", "error", err)
			}
		}()
		rt.closers = append(rt.closers, srv.Shutdown)
		log.Info("Metrics server started", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	var solverCache *cache.SolverCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			solverCache = cache.NewSolverCache(baseCache, cfg.Cache.DefaultTTL)
			rt.closers = append(rt.closers, func(context.Context) error { return baseCache.Close() })
			log.Info("Solver cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	journal, err := audit.New(audit.FromConfig(&cfg.Audit))
	if err != nil {
		log.Warn("Failed to open audit journal, continuing without it", "error", err)
		journal = &audit.NoopLogger{}
	} else if cfg.Audit.Enabled {
		rt.closers = append(rt.closers, func(context.Context) error { return journal.Close() })
		log.Info("Audit journal enabled", "backend", cfg.Audit.Backend, "path", cfg.Audit.FilePath)
	}
	rt.Journal = journal

	rt.Service = service.NewRCSPService(cfg.App.Version, cfg.Solver, solverCache).WithJournal(journal)
	return rt, nil
}

// Close останавливает метрики, кэш, журнал и телеметрию
func (r *Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
