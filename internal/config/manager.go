package config

import (
	"sync"

	"github.com/livp123/firesense/internal/utils/logger"
)

// ConfigManager handles all configuration-related operations in a centralized manner
// ConfigManager 以集中方式处理所有配置相关操作
type ConfigManager struct {
	configPath string
	mutex      sync.RWMutex
	config     *GlobalConfig
}

// NewConfigManager creates a new configuration manager instance
// NewConfigManager 创建新的配置管理器实例
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// LoadConfig loads the configuration from the specified path, falling back
// to defaults when the file does not exist.
// LoadConfig 从指定路径加载配置，文件不存在时使用默认值。
func (cm *ConfigManager) LoadConfig() error {
	cfg, err := LoadOrDefault(cm.configPath)
	if err != nil {
		return err
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.config = cfg
	return nil
}

// ReloadConfig re-reads the file. On error the current configuration is kept.
// ReloadConfig 重新读取文件，出错时保留当前配置。
func (cm *ConfigManager) ReloadConfig() (*GlobalConfig, error) {
	cfg, err := LoadOrDefault(cm.configPath)
	if err != nil {
		return nil, err
	}

	cm.mutex.Lock()
	cm.config = cfg
	cm.mutex.Unlock()

	cp := *cfg
	return &cp, nil
}

// SaveConfig saves the current configuration to the specified path
// SaveConfig 将当前配置保存到指定路径
func (cm *ConfigManager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return SaveGlobalConfig(cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration
// GetConfig 返回当前配置的副本
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	cfgCopy := *cm.config
	return &cfgCopy
}

// UpdateConfig updates the current configuration
// UpdateConfig 更新当前配置
func (cm *ConfigManager) UpdateConfig(newConfig *GlobalConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.config = newConfig
}

// GetPipelineConfig returns the pipeline configuration
// GetPipelineConfig 返回流水线配置
func (cm *ConfigManager) GetPipelineConfig() *PipelineConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	c := cm.config.Pipeline
	return &c
}

// GetAlertsConfig returns the alerts configuration
// GetAlertsConfig 返回告警配置
func (cm *ConfigManager) GetAlertsConfig() *AlertsConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	c := cm.config.Alerts
	return &c
}

// GetLoggingConfig returns the logging configuration
// GetLoggingConfig 返回日志配置
func (cm *ConfigManager) GetLoggingConfig() *logger.LoggingConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	c := cm.config.Logging
	return &c
}

// GetConfigPath returns the configuration file path
// GetConfigPath 返回配置文件路径
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Validate validates the current configuration
// Validate 验证当前配置
func (cm *ConfigManager) Validate() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return cm.config.Validate()
}
