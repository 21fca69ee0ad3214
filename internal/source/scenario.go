package source

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/livp123/firesense/internal/normalizer"
)

// DefaultInterval is the delay between demonstration readings.
const DefaultInterval = 3 * time.Second

// Scenario is a named canned reading.
type Scenario struct {
	Name     string
	Readings normalizer.FeatureVector
}

// Scenarios returns the six demonstration scenarios in order.
// Scenarios 按顺序返回六个演示场景。
func Scenarios() []Scenario {
	return []Scenario{
		{"Normal Conditions", normalizer.NewFeatureVector(20.0, 45.0, 380.0, 0.008, 1013.0)},
		{"High Temperature", normalizer.NewFeatureVector(45.0, 30.0, 450.0, 0.05, 1010.0)},
		{"High CO2 + Hydrogen", normalizer.NewFeatureVector(35.0, 60.0, 800.0, 0.15, 1008.0)},
		{"Extreme Fire Conditions", normalizer.NewFeatureVector(80.0, 15.0, 1200.0, 0.30, 990.0)},
		{"Cold + High Humidity", normalizer.NewFeatureVector(5.0, 80.0, 350.0, 0.002, 1020.0)},
		{"Moderate Fire Indicators", normalizer.NewFeatureVector(32.0, 55.0, 550.0, 0.08, 1012.0)},
	}
}

// ScenarioOptions controls the demonstration driver.
type ScenarioOptions struct {
	Interval time.Duration
	Loop     bool
	// Count stops the source after N samples, 0 means unlimited.
	Count int
}

// ScenarioSource replays the demonstration scenarios.
// ScenarioSource 回放演示场景。
type ScenarioSource struct {
	opts      ScenarioOptions
	scenarios []Scenario

	mu      sync.Mutex
	next    int
	emitted int
	closed  bool
}

// NewScenarioSource creates a source over the built-in scenarios.
func NewScenarioSource(opts ScenarioOptions) *ScenarioSource {
	return &ScenarioSource{opts: opts, scenarios: Scenarios()}
}

func (s *ScenarioSource) Name() string { return "scenario" }

// Next returns the next scenario, waiting Interval between samples.
// Next 返回下一个场景，样本之间等待 Interval。
func (s *ScenarioSource) Next(ctx context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Sample{}, io.EOF
	}
	if s.opts.Count > 0 && s.emitted >= s.opts.Count {
		return Sample{}, io.EOF
	}
	if s.next >= len(s.scenarios) {
		if !s.opts.Loop {
			return Sample{}, io.EOF
		}
		s.next = 0
	}
	if s.emitted > 0 {
		if err := sleep(ctx, s.opts.Interval); err != nil {
			return Sample{}, err
		}
	} else if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	sc := s.scenarios[s.next]
	s.next++
	s.emitted++
	return Sample{Label: sc.Name, Readings: sc.Readings, Time: time.Now()}, nil
}

func (s *ScenarioSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
