package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/config"
	"github.com/five82/dram/internal/logger"
	"github.com/five82/dram/internal/metrics"
	"github.com/five82/dram/internal/prefs"
	"github.com/five82/dram/internal/ui"
)

// Browse runs the interactive recommender until the user quits or ctx is
// cancelled.
func Browse(ctx context.Context, opts Options) error {
	rt, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(logger.WithLogger(ctx, rt.logger))
	defer cancel()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = config.PrefsPath(opts.ConfigPath)
	}
	userPrefs, _ := prefs.Load(prefsPath)
	theme := userPrefs.Theme
	if rt.cfg.Theme != "" {
		theme = rt.cfg.Theme
	}

	// The metrics handler runs on its own goroutine, so readiness is tracked
	// here instead of reading the UI's controller.
	var catalogReady atomic.Bool
	if rt.cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(rt.cfg.MetricsAddr, metrics.NewRouter(rt.registry, catalogReady.Load), rt.logger)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				rt.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	load := func(ctx context.Context) (*catalog.Store, error) {
		store, err := rt.loadCatalog(ctx, nil)
		if err != nil {
			return nil, err
		}
		catalogReady.Store(true)
		return store, nil
	}

	maxPrice := rt.cfg.DefaultMaxPrice
	logPath := rt.cfg.LogFile
	rt.logger.Info("starting browser", zap.String("theme", theme), zap.String("prefs", prefsPath))
	return ui.Run(ui.Options{
		Context:     ctx,
		Recommender: rt.recommender,
		LoadCatalog: load,
		Metrics:     rt.metrics,
		Logger:      rt.logger,
		MaxPrice:    &maxPrice,
		ThemeName:   theme,
		PrefsPath:   prefsPath,
		LogPath:     logPath,
	})
}
