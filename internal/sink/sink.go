// Package sink publishes inference reports to the outside world.
// Package sink 将推理报告发布到外部。
package sink

import (
	"context"
	"errors"
	"os"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/utils/logger"
)

// Sink receives every report produced by the inference loop.
// Sink 接收推理循环产生的每个报告。
type Sink interface {
	Name() string
	Publish(ctx context.Context, r *report.Report) error
	Close() error
}

// Fanout publishes to every sink in order. A failing sink never stops the
// others or the cycle.
// Fanout 按顺序发布到所有输出端，单个失败不影响其他输出端。
type Fanout struct {
	sinks []Sink
}

// NewFanout wraps sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Sinks returns the wrapped sinks.
func (f *Fanout) Sinks() []Sink { return f.sinks }

// Publish sends r to all sinks and returns how many failed.
// Publish 将 r 发送到所有输出端，返回失败数量。
func (f *Fanout) Publish(ctx context.Context, r *report.Report) int {
	failed := 0
	for _, s := range f.sinks {
		if err := s.Publish(ctx, r); err != nil {
			failed++
			metrics.RecordSinkError(s.Name())
			logger.Get(ctx).Warnf("[WARN]  Sink %s failed to publish %s: %v", s.Name(), r.ID, err)
		}
	}
	return failed
}

// Close closes every sink.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the enabled sinks.
// FromConfig 构建启用的输出端。
func FromConfig(ctx context.Context, cfg config.SinksConfig) (*Fanout, error) {
	var sinks []Sink
	if cfg.Console.Enabled {
		sinks = append(sinks, NewConsole(os.Stdout, cfg.Console.Format))
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafka(cfg.Kafka))
	}
	if cfg.Redis.Enabled {
		r, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, r)
	}
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Get(ctx).Infof("[SINK] Sinks enabled: %v", names)
	return NewFanout(sinks...), nil
}
