package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/sink"
	"github.com/livp123/firesense/internal/utils/fileutil"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	reports []*report.Report
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) snapshot() []*report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*report.Report(nil), s.reports...)
}

func writeConfig(t *testing.T, path string, mutate func(c *config.GlobalConfig)) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Source.Interval = "1ms"
	cfg.Source.Loop = false
	cfg.Sinks.Console.Enabled = false
	cfg.Metrics.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.SaveGlobalConfig(path, cfg))
}

// TestRun_DrainsSource tests the daemon stops once a finite source ends
// TestRun_DrainsSource 测试有限数据源结束后守护进程退出
func TestRun_DrainsSource(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	pidPath := filepath.Join(dir, "run", "firesense.pid")
	writeConfig(t, cfgPath, nil)

	rec := &recordingSink{}
	err := Run(context.Background(), &DaemonOptions{
		ConfigPath: cfgPath,
		PidPath:    pidPath,
		AppOptions: []app.Option{app.WithSinks(sink.NewFanout(rec))},
	})
	require.NoError(t, err)

	reports := rec.snapshot()
	require.Len(t, reports, 6)
	assert.Equal(t, "Normal Conditions", reports[0].Label)
	assert.False(t, reports[0].Fire)
	assert.True(t, reports[3].Fire)

	_, err = os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err), "pid file removed on exit")
}

// TestRun_ReloadAndStop tests SIGHUP reloads alert rules and SIGTERM stops
// TestRun_ReloadAndStop 测试 SIGHUP 重载告警规则，SIGTERM 停止
func TestRun_ReloadAndStop(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, cfgPath, func(c *config.GlobalConfig) {
		c.Source.Loop = true
		c.Source.Interval = "5ms"
		c.Engine.Type = config.EngineStub
		c.Engine.StubProbability = 0.92
	})

	rec := &recordingSink{}
	sig := make(chan os.Signal, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- Run(context.Background(), &DaemonOptions{
			ConfigPath: cfgPath,
			PidPath:    filepath.Join(dir, "firesense.pid"),
			AppOptions: []app.Option{app.WithSinks(sink.NewFanout(rec))},
			Signals:    sig,
		})
	}()

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 5*time.Second, 5*time.Millisecond)

	writeConfig(t, cfgPath, func(c *config.GlobalConfig) {
		c.Alerts.Enabled = true
		c.Alerts.Rules = []config.AlertRule{{Name: "reloaded", Expr: "Fire", Action: "event"}}
	})
	sig <- syscall.SIGHUP

	require.Eventually(t, func() bool {
		reports := rec.snapshot()
		last := reports[len(reports)-1]
		return len(last.Alerts) == 1 && last.Alerts[0] == "reloaded"
	}, 5*time.Second, 5*time.Millisecond)

	sig <- syscall.SIGTERM
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

// TestReload_ConfigManager tests reload applies alerts from the manager and
// leaves the pipeline untouched.
// TestReload_ConfigManager 测试重载通过配置管理器应用告警规则且不改动流水线。
func TestReload_ConfigManager(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, cfgPath, func(c *config.GlobalConfig) {
		c.Engine.Type = config.EngineStub
		c.Engine.StubProbability = 0.92
	})

	cm := config.NewConfigManager(cfgPath)
	require.NoError(t, cm.LoadConfig())
	a, err := app.New(context.Background(), cm.GetConfig(), app.WithSinks(sink.NewFanout()))
	require.NoError(t, err)
	defer a.Close()

	writeConfig(t, cfgPath, func(c *config.GlobalConfig) {
		c.Pipeline.Threshold = 0.95
		c.Alerts.Enabled = true
		c.Alerts.Rules = []config.AlertRule{{Name: "hot", Expr: "Temperature > 60", Action: "event"}}
		c.Logging.Level = "debug"
	})
	require.NoError(t, reload(context.Background(), cm, a))

	assert.Len(t, cm.GetAlertsConfig().Rules, 1)
	assert.Equal(t, 0.95, cm.GetPipelineConfig().Threshold)
	assert.Equal(t, 0.45, a.Status().Threshold, "threshold needs a restart")

	rep, err := a.Cycle(context.Background(), "hot", normalizer.NewFeatureVector(80, 15, 1200, 0.30, 990))
	require.NoError(t, err)
	assert.Equal(t, []string{"hot"}, rep.Alerts)
	assert.Equal(t, "FIRE", rep.Decision)

	// A broken file keeps the running rules
	// 配置文件损坏时保留当前规则
	require.NoError(t, os.WriteFile(cfgPath, []byte("pipeline:\n  threshold: 2\n"), 0644))
	assert.Error(t, reload(context.Background(), cm, a))
	rep, err = a.Cycle(context.Background(), "hot", normalizer.NewFeatureVector(80, 15, 1200, 0.30, 990))
	require.NoError(t, err)
	assert.Equal(t, []string{"hot"}, rep.Alerts)
	logger.SetLevel("info")
}

func TestRun_ConfigurationError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("pipeline:\n  threshold: 2\n"), 0644))

	err := Run(context.Background(), &DaemonOptions{ConfigPath: cfgPath, PidPath: filepath.Join(dir, "p.pid")})
	require.Error(t, err)
	assert.True(t, fserrors.IsConfiguration(err), "%v", err)
}

// TestManagePidFile tests live and stale PID files
// TestManagePidFile 测试存活与过期的 PID 文件
func TestManagePidFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "firesense.pid")

	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0644))
	err := managePidFile(ctx, path)
	assert.ErrorIs(t, err, fserrors.ErrDaemonAlreadyRunning)

	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0644))
	require.NoError(t, managePidFile(ctx, path))
	pid, err := fileutil.ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	removePidFile(ctx, path)
	removePidFile(ctx, path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWaitForSignal_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waitForSignal(ctx, make(chan os.Signal), nil, func() error { return nil })
}
