package config

import (
	"github.com/livp123/firesense/internal/runtime"
	"github.com/livp123/firesense/internal/utils/logger"
)

// Configurable represents the interface for configuration management
// Configurable 表示配置管理的接口
type Configurable interface {
	LoadConfig() error
	ReloadConfig() (*GlobalConfig, error)
	SaveConfig() error
	GetConfig() *GlobalConfig
	UpdateConfig(*GlobalConfig)

	GetPipelineConfig() *PipelineConfig
	GetAlertsConfig() *AlertsConfig
	GetLoggingConfig() *logger.LoggingConfig

	GetConfigPath() string
	Validate() error
}

var _ Configurable = (*ConfigManager)(nil)

// GetConfigPath returns the configuration file path
// If runtime.ConfigPath is set (e.g., via CLI flag or test), it takes precedence.
// GetConfigPath 返回配置文件路径
// 如果 runtime.ConfigPath 已设置（例如通过 CLI 标志或测试），则优先使用它。
func GetConfigPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return DefaultConfigPath
}

// GetPidPath returns the daemon PID file path.
// GetPidPath 返回守护进程 PID 文件路径。
func GetPidPath() string {
	if runtime.PidPath != "" {
		return runtime.PidPath
	}
	return DefaultPidPath
}
