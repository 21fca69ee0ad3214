// Package source produces sensor readings for the inference loop.
// Package source 为推理循环产生传感器读数。
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/normalizer"
)

// Sample is one labelled set of raw readings.
// Sample 是一组带标签的原始读数。
type Sample struct {
	Label    string
	Readings normalizer.FeatureVector
	Time     time.Time
}

// Source yields samples until it is exhausted (io.EOF) or ctx is done.
// Source 持续产生样本，直到耗尽（io.EOF）或 ctx 结束。
type Source interface {
	Name() string
	Next(ctx context.Context) (Sample, error)
	Close() error
}

// New builds the source selected in cfg.
// New 根据配置构建数据源。
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "", config.SourceScenario:
		return NewScenarioSource(ScenarioOptions{
			Interval: config.ParseDuration(cfg.Interval, DefaultInterval),
			Loop:     cfg.Loop,
			Count:    cfg.Count,
		}), nil
	case config.SourceTail:
		return NewTailSource(TailOptions{
			Path:      cfg.Path,
			FromStart: cfg.FromStart,
			Poll:      cfg.Poll,
			Count:     cfg.Count,
		})
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
