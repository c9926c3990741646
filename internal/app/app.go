package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/config"
	"github.com/five82/dram/internal/logger"
	"github.com/five82/dram/internal/metrics"
	"github.com/five82/dram/internal/recommend"
)

// Options configure every dram command.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses prefs.toml next to the config file
	// Overrides are config keys set by flags or the environment.
	Overrides map[string]string
	// Progress reports catalog download progress. Only the CLI commands use it.
	Progress func(total int64) io.Writer
	// Stdout receives CLI output. Nil means os.Stdout.
	Stdout io.Writer
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

// LoadConfig reads the config file, applies overrides and validates the result.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err = cfg.With(opts.Overrides)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runtime holds the collaborators shared by every command.
type runtime struct {
	cfg         config.Config
	logger      *zap.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	recommender recommend.Recommender
}

// setup builds the shared collaborators. The browser owns the terminal, so it
// logs to the configured file; one-shot commands log to stderr.
func setup(opts Options, interactive bool) (*runtime, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	logPath := ""
	if interactive {
		logPath = cfg.LogFile
	}
	log, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Path:   logPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	mode, err := recommend.ParseUnbounded(cfg.UnboundedPrice)
	if err != nil {
		return nil, err
	}
	client, err := recommend.NewClient(cfg.ServiceURL,
		recommend.WithTimeout(cfg.RequestTimeout),
		recommend.WithUnbounded(mode, cfg.UnboundedValue),
	)
	if err != nil {
		return nil, fmt.Errorf("init recommendation client: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	log.Debug("runtime ready",
		zap.String("catalog", cfg.Catalog),
		zap.String("service_url", client.Endpoint()),
		zap.Duration("request_timeout", cfg.RequestTimeout),
		zap.String("unbounded_price", cfg.UnboundedPrice),
	)

	return &runtime{
		cfg:         cfg,
		logger:      log,
		registry:    registry,
		metrics:     m,
		recommender: recommend.NewInstrumented(client, m, log),
	}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}

// loadCatalog fetches the configured catalog and records the outcome.
func (r *runtime) loadCatalog(ctx context.Context, progress func(total int64) io.Writer) (*catalog.Store, error) {
	log := logger.FromContext(ctx)
	var opts []catalog.Option
	if progress != nil {
		opts = append(opts, catalog.WithProgress(progress))
	}

	log.Debug("loading catalog", zap.String("source", r.cfg.Catalog))
	store, err := catalog.Load(ctx, r.cfg.Catalog, opts...)
	if err != nil {
		r.metrics.ObserveCatalog(0, err)
		log.Error("catalog load failed", zap.String("source", r.cfg.Catalog), zap.Error(err))
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	r.metrics.ObserveCatalog(store.Len(), nil)
	log.Info("catalog loaded", zap.String("source", store.Source()), zap.Int("records", store.Len()))
	return store, nil
}
