package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks every startup-fatal error.
	// ErrConfiguration 标记所有启动时致命错误。
	ErrConfiguration = errors.New("configuration error")

	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrCalibrationInvalid   = errors.New("invalid calibration")
	ErrThresholdInvalid     = errors.New("invalid threshold")
	ErrSchemaMismatch       = errors.New("model schema mismatch")
	ErrInvalidModel         = errors.New("invalid model")
	ErrAllocationFailed     = errors.New("tensor allocation failed")
	ErrNotAllocated         = errors.New("tensors not allocated")
	ErrInvalidRule          = errors.New("invalid alert rule")
	ErrInvalidReading       = errors.New("invalid sensor reading")
	ErrInvokeFailed         = errors.New("invoke failed")
	ErrFileNotFound         = errors.New("file not found")
	ErrDaemonAlreadyRunning = errors.New("daemon already running")
	ErrTimeout              = errors.New("operation timeout")
	ErrCanceled             = errors.New("operation canceled")
)

// NewConfigError reports an invalid configuration field. It is a ConfigurationError.
// NewConfigError 报告无效的配置字段，属于配置错误。
func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: %w: field=%s value=%v", ErrConfiguration, ErrConfigInvalid, field, value)
}

// NewCalibrationError reports a calibration constant that would break standardization.
// NewCalibrationError 报告会破坏标准化的校准常量。
func NewCalibrationError(feature string, reason string) error {
	return fmt.Errorf("%w: %w: feature=%s: %s", ErrConfiguration, ErrCalibrationInvalid, feature, reason)
}

// NewSchemaError reports a model whose schema version the engine does not support.
// NewSchemaError 报告引擎不支持的模型 schema 版本。
func NewSchemaError(got, want uint8) error {
	return fmt.Errorf("%w: %w: model schema %d not equal to %d", ErrConfiguration, ErrSchemaMismatch, got, want)
}

// NewModelError reports a malformed model file.
// NewModelError 报告格式错误的模型文件。
func NewModelError(reason string) error {
	return fmt.Errorf("%w: %w: %s", ErrConfiguration, ErrInvalidModel, reason)
}

// NewAllocationError reports an arena that cannot hold the model tensors.
// NewAllocationError 报告无法容纳模型张量的 arena。
func NewAllocationError(required, available int) error {
	return fmt.Errorf("%w: %w: need %d bytes, arena has %d", ErrConfiguration, ErrAllocationFailed, required, available)
}

// NewRuleError reports an alert rule whose expression does not compile.
// NewRuleError 报告表达式无法编译的告警规则。
func NewRuleError(name string, err error) error {
	return fmt.Errorf("%w: %w: rule=%s: %v", ErrConfiguration, ErrInvalidRule, name, err)
}

// NewInvokeError wraps a per-cycle engine failure. It is recoverable.
// NewInvokeError 包装单个周期的引擎失败，可恢复。
func NewInvokeError(cause error) error {
	if cause == nil {
		return ErrInvokeFailed
	}
	return fmt.Errorf("%w: %w", ErrInvokeFailed, cause)
}

func NewReadingError(line string, reason error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidReading, line, reason)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

// IsConfiguration reports whether err must halt startup.
// IsConfiguration 判断错误是否必须终止启动。
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvocation reports whether err is a recoverable per-cycle engine failure.
// IsInvocation 判断错误是否为可恢复的单周期引擎失败。
func IsInvocation(err error) bool {
	return errors.Is(err, ErrInvokeFailed)
}
