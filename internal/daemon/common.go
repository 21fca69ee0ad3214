package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/utils/fileutil"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// managePidFile refuses to start when the recorded process is alive and
// replaces stale PID files.
// managePidFile 在记录的进程存活时拒绝启动，并替换过期的 PID 文件。
func managePidFile(ctx context.Context, path string) error {
	pid, err := fileutil.ReadPID(path)
	if err != nil {
		return err
	}
	if pid > 0 && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w: pid %d (%s)", fserrors.ErrDaemonAlreadyRunning, pid, path)
	}
	if pid > 0 {
		logger.Get(ctx).Warnf("⚠️  Replacing stale PID file %s (pid %d)", path, pid)
	}
	if err := fileutil.WritePID(path); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func removePidFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Get(ctx).Warnf("⚠️  Failed to remove PID file: %v", err)
	}
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// reload re-reads the config through cm and applies alert rules and log
// level. Pipeline changes need a restart and are only reported.
// reload 通过 cm 重新读取配置并应用告警规则和日志级别，流水线变更需要重启。
func reload(ctx context.Context, cm config.Configurable, a *app.App) error {
	if _, err := cm.ReloadConfig(); err != nil {
		return err
	}
	if err := a.ReloadAlerts(*cm.GetAlertsConfig()); err != nil {
		return err
	}
	logger.SetLevel(cm.GetLoggingConfig().Level)

	if p := cm.GetPipelineConfig(); p.Threshold != a.Status().Threshold {
		logger.Get(ctx).Warnf("⚠️  pipeline.threshold changed to %v, restart to apply (running with %v)",
			p.Threshold, a.Status().Threshold)
	}
	return nil
}

// waitForSignal blocks until SIGINT/SIGTERM, ctx is done or done closes.
// SIGHUP reloads.
// waitForSignal 阻塞直到收到退出信号、ctx 结束或 done 关闭，SIGHUP 触发重载。
func waitForSignal(ctx context.Context, sig chan os.Signal, done <-chan struct{}, reloadFunc func() error) {
	log := logger.Get(ctx)
	if sig == nil {
		sig = make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sig)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("👋 Context canceled, shutting down...")
			return
		case <-done:
			return
		case s := <-sig:
			if s == syscall.SIGHUP {
				log.Info("🔄 Received SIGHUP, reloading configuration...")
				if err := reloadFunc(); err != nil {
					log.Errorf("❌ Failed to reload config: %v", err)
					continue
				}
				log.Info("✅ Configuration reloaded")
				continue
			}
			log.Info("👋 Daemon shutting down...")
			return
		}
	}
}
