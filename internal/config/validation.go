package config

import (
	"fmt"
	"time"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/normalizer"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// Validate checks the configuration for errors. Every failure is a
// configuration error.
// Validate 检查配置是否存在错误，所有失败均为配置错误。
func (c *GlobalConfig) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config error: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config error: %w", err)
	}
	if model.IsRemote(c.Engine.Model) && !c.ObjectStore.Enabled {
		return fserrors.NewConfigError("engine.model", c.Engine.Model+" requires object_store.enabled")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config error: %w", err)
	}
	if err := c.Sinks.Validate(); err != nil {
		return fmt.Errorf("sinks config error: %w", err)
	}
	if err := c.Alerts.Validate(); err != nil {
		return fmt.Errorf("alerts config error: %w", err)
	}
	if c.ObjectStore.Enabled && c.ObjectStore.Endpoint == "" {
		return fserrors.NewConfigError("object_store.endpoint", "")
	}
	if c.Web.Enabled {
		if err := validatePort("web.port", c.Web.Port); err != nil {
			return err
		}
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config error: %w", err)
	}
	return nil
}

// CalibrationParams converts the calibration lists into validated constants.
// CalibrationParams 将校准列表转换为已验证的常量。
func (c *PipelineConfig) CalibrationParams() (normalizer.Calibration, error) {
	return normalizer.NewCalibration(c.Calibration.Mean, c.Calibration.Std)
}

func (c *PipelineConfig) Validate() error {
	if !bridge.ValidThreshold(c.Threshold) {
		return fmt.Errorf("%w: %w: %v must be in (0, 1)", fserrors.ErrConfiguration, fserrors.ErrThresholdInvalid, c.Threshold)
	}
	if c.InvokeRetries < 0 {
		return fserrors.NewConfigError("pipeline.invoke_retries", c.InvokeRetries)
	}
	_, err := c.CalibrationParams()
	return err
}

func (c *EngineConfig) Validate() error {
	switch c.Type {
	case EngineTinyML:
	case EngineStub:
		if c.StubProbability < 0 || c.StubProbability > 1 {
			return fserrors.NewConfigError("engine.stub_probability", c.StubProbability)
		}
	default:
		return fserrors.NewConfigError("engine.type", c.Type)
	}
	if c.ArenaSize <= 0 {
		return fserrors.NewConfigError("engine.arena_size", c.ArenaSize)
	}
	if model.IsRemote(c.Model) {
		if _, _, err := model.ParseS3URI(c.Model); err != nil {
			return fserrors.NewConfigError("engine.model", c.Model)
		}
	}
	return nil
}

func (c *SourceConfig) Validate() error {
	switch c.Type {
	case SourceScenario:
	case SourceTail:
		if c.Path == "" {
			return fserrors.NewConfigError("source.path", "")
		}
	default:
		return fserrors.NewConfigError("source.type", c.Type)
	}
	if c.Count < 0 {
		return fserrors.NewConfigError("source.count", c.Count)
	}
	return validateDuration("source.interval", c.Interval)
}

func (c *SinksConfig) Validate() error {
	switch c.Console.Format {
	case "", "text", "json":
	default:
		return fserrors.NewConfigError("sinks.console.format", c.Console.Format)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fserrors.NewConfigError("sinks.kafka.brokers", "[]")
		}
		if c.Kafka.Topic == "" {
			return fserrors.NewConfigError("sinks.kafka.topic", "")
		}
		if err := validateDuration("sinks.kafka.batch_timeout", c.Kafka.BatchTimeout); err != nil {
			return err
		}
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fserrors.NewConfigError("sinks.redis.addr", "")
		}
		if c.Redis.HistorySize < 0 {
			return fserrors.NewConfigError("sinks.redis.history_size", c.Redis.HistorySize)
		}
		if err := validateDuration("sinks.redis.ttl", c.Redis.TTL); err != nil {
			return err
		}
	}
	return nil
}

func (c *AlertsConfig) Validate() error {
	names := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" {
			return fserrors.NewConfigError(fmt.Sprintf("alerts.rules[%d].name", i), "")
		}
		if names[r.Name] {
			return fserrors.NewConfigError(fmt.Sprintf("alerts.rules[%d].name", i), r.Name+" (duplicate)")
		}
		names[r.Name] = true
		if r.Expr == "" {
			return fserrors.NewConfigError(fmt.Sprintf("alerts.rules[%d].expr", i), "")
		}
		switch r.Action {
		case "", ActionLog, ActionEvent:
		default:
			return fserrors.NewConfigError(fmt.Sprintf("alerts.rules[%d].action", i), r.Action)
		}
	}
	return nil
}

func (c *MetricsConfig) Validate() error {
	if c.ServerEnabled {
		if err := validatePort("metrics.port", c.Port); err != nil {
			return err
		}
	}
	if c.PushEnabled {
		if c.PushGatewayAddr == "" {
			return fserrors.NewConfigError("metrics.push_gateway_addr", "")
		}
		if err := validateDuration("metrics.push_interval", c.PushInterval); err != nil {
			return err
		}
	}
	if c.TextfileEnabled && c.TextfilePath == "" {
		return fserrors.NewConfigError("metrics.textfile_path", "")
	}
	return nil
}

func validatePort(field string, port int) error {
	if port <= 0 || port > 65535 {
		return fserrors.NewConfigError(field, port)
	}
	return nil
}

func validateDuration(field, s string) error {
	if s == "" {
		return nil
	}
	if d, err := time.ParseDuration(s); err != nil || d < 0 {
		return fserrors.NewConfigError(field, s)
	}
	return nil
}

// ParseDuration returns d parsed, or def when s is empty or invalid.
// ParseDuration 解析时长，为空或无效时返回默认值。
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
