// Package daemon runs the long-lived fire detection service.
// Package daemon 运行常驻的火灾检测服务。
package daemon

import (
	"context"
	"time"

	"github.com/livp123/firesense/internal/api"
	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/source"
	"github.com/livp123/firesense/internal/utils/logger"
)

const shutdownTimeout = 5 * time.Second

// Run starts the service and blocks until shutdown. It returns an error only
// when startup fails.
// Run 启动服务并阻塞直到关闭，仅在启动失败时返回错误。
func Run(ctx context.Context, opts *DaemonOptions) error {
	if opts == nil {
		opts = &DaemonOptions{}
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	pidPath := opts.PidPath
	if pidPath == "" {
		pidPath = config.GetPidPath()
	}

	if err := managePidFile(ctx, pidPath); err != nil {
		return err
	}
	defer removePidFile(ctx, pidPath)

	cm := config.NewConfigManager(configPath)
	if err := cm.LoadConfig(); err != nil {
		return err
	}
	cfg := cm.GetConfig()
	logger.Init(cfg.Logging)
	defer logger.Sync()
	log := logger.Get(ctx)

	a, err := app.New(ctx, cfg, opts.AppOptions...)
	if err != nil {
		return err
	}
	defer a.Close()

	exporter := metrics.NewExporter(cfg.Metrics)
	if err := exporter.Start(ctx); err != nil {
		log.Warnf("⚠️  Failed to start metrics exporter: %v", err)
	}

	var server *api.Server
	if cfg.Web.Enabled {
		server = api.NewServer(a, cfg.Web)
		go func() {
			if err := server.Start(); err != nil {
				log.Errorf("❌ API server error: %v", err)
			}
		}()
	}

	src := opts.Source
	if src == nil {
		src, err = source.New(cfg.Source)
		if err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.Run(runCtx, src); err != nil {
			log.Errorf("❌ %v", err)
		}
	}()

	log.Info("🛡️ FireSense is running.")

	// Without the API there is nothing left to serve once the source ends.
	var finished <-chan struct{}
	if server == nil {
		finished = done
	}
	waitForSignal(ctx, opts.Signals, finished, func() error {
		return reload(ctx, cm, a)
	})

	cancel()
	src.Close()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("⚠️  API shutdown: %v", err)
		}
	}
	if err := exporter.Stop(shutdownCtx); err != nil {
		log.Warnf("⚠️  Metrics shutdown: %v", err)
	}
	log.Info("👋 FireSense stopped.")
	return nil
}
