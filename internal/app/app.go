// Package app wires the engine, pipeline, alerts and sinks into one
// inference service.
// Package app 将引擎、流水线、告警和输出端组装为一个推理服务。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livp123/firesense/internal/alert"
	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/engine"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/objstore"
	"github.com/livp123/firesense/internal/pipeline"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/sink"
	"github.com/livp123/firesense/internal/source"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// Status is a snapshot of the running service.
// Status 是运行中服务的快照。
type Status struct {
	Engine    string         `json:"engine"`
	Model     string         `json:"model"`
	Schema    uint8          `json:"schema"`
	Inputs    int            `json:"inputs"`
	Outputs   int            `json:"outputs"`
	Input     bridge.Params  `json:"input_quantization"`
	Output    bridge.Params  `json:"output_quantization"`
	Threshold float64        `json:"threshold"`
	ArenaSize int            `json:"arena_size"`
	Cycles    uint64         `json:"cycles"`
	Alerts    int            `json:"alert_rules"`
	StartedAt time.Time      `json:"started_at"`
	Last      *report.Report `json:"last,omitempty"`
}

// Option customizes New.
type Option func(*options)

type options struct {
	engine engine.Engine
	store  model.ObjectStore
	sinks  *sink.Fanout
}

// WithEngine replaces the engine selected in config.
func WithEngine(e engine.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithObjectStore sets the store used for s3:// model sources.
func WithObjectStore(s model.ObjectStore) Option {
	return func(o *options) { o.store = s }
}

// WithSinks replaces the sinks built from config.
func WithSinks(f *sink.Fanout) Option {
	return func(o *options) { o.sinks = f }
}

// App runs inference cycles and publishes their reports.
// App 执行推理周期并发布报告。
type App struct {
	cfg        *config.GlobalConfig
	engineName string
	infer      *pipeline.InferenceContext
	alerts     *alert.Engine
	sinks      *sink.Fanout
	startedAt  time.Time
	cycles     atomic.Uint64

	mu   sync.RWMutex
	last *report.Report
}

// New builds the service. Any error is a configuration error and must halt
// startup.
// New 构建服务，任何错误均为配置错误，必须终止启动。
func New(ctx context.Context, cfg *config.GlobalConfig, opts ...Option) (*App, error) {
	log := logger.Get(ctx)
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cal, err := cfg.Pipeline.CalibrationParams()
	if err != nil {
		return nil, err
	}

	eng, name := o.engine, "custom"
	if eng == nil {
		eng, name, err = BuildEngine(cfg.Engine)
		if err != nil {
			return nil, err
		}
	}

	store := o.store
	if store == nil && cfg.ObjectStore.Enabled && model.IsRemote(cfg.Engine.Model) {
		s, err := NewObjectStore(cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fserrors.ErrConfiguration, err)
		}
		store = s
	}

	data, err := model.Fetch(ctx, cfg.Engine.Model, store)
	if err != nil {
		return nil, asConfiguration(err)
	}

	arena := cfg.Engine.ArenaSize
	if arena <= 0 {
		arena = engine.DefaultArenaSize
	}
	infer, err := pipeline.NewInferenceContext(pipeline.Options{
		Calibration:   cal,
		Threshold:     cfg.Pipeline.Threshold,
		ArenaSize:     arena,
		InvokeRetries: cfg.Pipeline.InvokeRetries,
	}, eng, data)
	if err != nil {
		return nil, err
	}
	h := infer.Model()
	metrics.SetModelInfo(h.SchemaVersion(), h.InputSize(), h.OutputSize())

	var rules []config.AlertRule
	if cfg.Alerts.Enabled {
		rules = cfg.Alerts.Rules
	}
	alerts, err := alert.NewEngine(rules)
	if err != nil {
		return nil, err
	}

	sinks := o.sinks
	if sinks == nil {
		sinks, err = sink.FromConfig(ctx, cfg.Sinks)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fserrors.ErrConfiguration, err)
		}
	}

	log.Infof("✅ Inference engine initialized (engine=%s model=%s input=%s output=%s)",
		name, cfg.Engine.Model, infer.InputParams(), infer.OutputParams())

	return &App{
		cfg:        cfg,
		engineName: name,
		infer:      infer,
		alerts:     alerts,
		sinks:      sinks,
		startedAt:  time.Now().UTC(),
	}, nil
}

// BuildEngine creates the engine named in cfg.
// BuildEngine 创建配置中指定的引擎。
func BuildEngine(cfg config.EngineConfig) (engine.Engine, string, error) {
	switch cfg.Type {
	case "", config.EngineTinyML:
		return engine.NewTinyMLEngine(), config.EngineTinyML, nil
	case config.EngineStub:
		return engine.NewStubEngine(cfg.StubProbability), config.EngineStub, nil
	default:
		return nil, "", fserrors.NewConfigError("engine.type", cfg.Type)
	}
}

// NewObjectStore connects to the configured S3-compatible endpoint.
func NewObjectStore(cfg config.ObjectStoreConfig) (*objstore.Store, error) {
	return objstore.New(objstore.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Region:    cfg.Region,
	})
}

func asConfiguration(err error) error {
	if fserrors.IsConfiguration(err) {
		return err
	}
	return fmt.Errorf("%w: %w", fserrors.ErrConfiguration, err)
}

// Cycle runs one reading through the pipeline, evaluates alerts and
// publishes the report. The report is returned even when err is not nil.
// Cycle 执行一次完整周期，出错时同样返回报告。
func (a *App) Cycle(ctx context.Context, label string, raw normalizer.FeatureVector) (*report.Report, error) {
	res, err := a.infer.Infer(ctx, raw)
	metrics.ObserveCycle(res, err)
	a.cycles.Add(1)

	rep := report.New(label, res, err)
	a.alerts.Evaluate(ctx, rep)
	a.sinks.Publish(ctx, rep)

	a.mu.Lock()
	a.last = rep
	a.mu.Unlock()
	return rep, err
}

// Run drains src until it is exhausted or ctx is done. Per-cycle errors are
// logged and the loop continues.
// Run 持续读取数据源直到耗尽或 ctx 结束，单周期错误只记录不中断。
func (a *App) Run(ctx context.Context, src source.Source) error {
	log := logger.Get(ctx)
	log.Infof("🚀 Reading from source %s", src.Name())
	for {
		sample, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			log.Infof("ℹ️  Source %s exhausted", src.Name())
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}

		rep, err := a.Cycle(ctx, sample.Label, sample.Readings)
		switch {
		case err == nil:
			log.Debugf("Cycle %s: %s p=%.4f", rep.Label, rep.Decision, rep.Probability)
		case fserrors.IsInvocation(err):
			log.Warnf("⚠️  Invoke failed for %s: %v", sample.Label, err)
		default:
			log.Warnf("⚠️  Cycle %s rejected: %v", sample.Label, err)
		}
	}
}

// ReloadAlerts swaps the alert rules. On error the old rules stay active.
// ReloadAlerts 替换告警规则，出错时保留旧规则。
func (a *App) ReloadAlerts(cfg config.AlertsConfig) error {
	var rules []config.AlertRule
	if cfg.Enabled {
		rules = cfg.Rules
	}
	return a.alerts.UpdateRules(rules)
}

// Last returns the most recent report, or nil.
func (a *App) Last() *report.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Status returns a snapshot for the API.
func (a *App) Status() Status {
	h := a.infer.Model()
	opts := a.infer.Options()
	return Status{
		Engine:    a.engineName,
		Model:     a.cfg.Engine.Model,
		Schema:    h.SchemaVersion(),
		Inputs:    h.InputSize(),
		Outputs:   h.OutputSize(),
		Input:     a.infer.InputParams(),
		Output:    a.infer.OutputParams(),
		Threshold: opts.Threshold,
		ArenaSize: opts.ArenaSize,
		Cycles:    a.cycles.Load(),
		Alerts:    len(a.alerts.Rules()),
		StartedAt: a.startedAt,
		Last:      a.Last(),
	}
}

// Close releases the sinks.
func (a *App) Close() error {
	return a.sinks.Close()
}
