package config

import (
	"github.com/livp123/firesense/internal/utils/logger"
)

// GlobalConfig is the root of config.yaml.
// GlobalConfig 是 config.yaml 的根结构。
type GlobalConfig struct {
	Pipeline    PipelineConfig       `yaml:"pipeline"`
	Engine      EngineConfig         `yaml:"engine"`
	Source      SourceConfig         `yaml:"source"`
	Sinks       SinksConfig          `yaml:"sinks"`
	Alerts      AlertsConfig         `yaml:"alerts"`
	ObjectStore ObjectStoreConfig    `yaml:"object_store"`
	Web         WebConfig            `yaml:"web"`
	Metrics     MetricsConfig        `yaml:"metrics"`
	Logging     logger.LoggingConfig `yaml:"logging"`
}

// PipelineConfig holds the numeric contract of an inference cycle.
// PipelineConfig 保存推理周期的数值约定。
type PipelineConfig struct {
	Threshold     float64           `yaml:"threshold"`
	InvokeRetries int               `yaml:"invoke_retries"`
	Calibration   CalibrationConfig `yaml:"calibration"`
}

// CalibrationConfig lists per-feature mean and std in the order
// temperature, humidity, co2, hydrogen, pressure.
// CalibrationConfig 按特征顺序列出均值和标准差。
type CalibrationConfig struct {
	Mean []float64 `yaml:"mean"`
	Std  []float64 `yaml:"std"`
}

// EngineConfig selects the inference engine and model.
// EngineConfig 选择推理引擎和模型。
type EngineConfig struct {
	Type string `yaml:"type"`
	// Model is "builtin", a file path or s3://bucket/key / 模型来源
	Model           string  `yaml:"model"`
	ArenaSize       int     `yaml:"arena_size"`
	StubProbability float64 `yaml:"stub_probability"`
}

// SourceConfig selects where readings come from.
// SourceConfig 选择读数来源。
type SourceConfig struct {
	Type      string `yaml:"type"`
	Interval  string `yaml:"interval"`
	Loop      bool   `yaml:"loop"`
	Count     int    `yaml:"count"`
	Path      string `yaml:"path"`
	FromStart bool   `yaml:"from_start"`
	Poll      bool   `yaml:"poll"`
}

// SinksConfig defines where reports are published.
// SinksConfig 定义报告发布的位置。
type SinksConfig struct {
	Console ConsoleSinkConfig `yaml:"console"`
	Kafka   KafkaSinkConfig   `yaml:"kafka"`
	Redis   RedisSinkConfig   `yaml:"redis"`
}

type ConsoleSinkConfig struct {
	Enabled bool `yaml:"enabled"`
	// Format: text or json / 输出格式
	Format string `yaml:"format"`
}

type KafkaSinkConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	BatchTimeout string   `yaml:"batch_timeout"`
}

type RedisSinkConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	Prefix      string `yaml:"prefix"`
	TTL         string `yaml:"ttl"`
	HistorySize int    `yaml:"history_size"`
}

// AlertsConfig holds expression rules evaluated against every report.
// AlertsConfig 保存针对每个报告求值的表达式规则。
type AlertsConfig struct {
	Enabled bool        `yaml:"enabled"`
	Rules   []AlertRule `yaml:"rules"`
}

// AlertRule is a named boolean expression.
// AlertRule 是具名布尔表达式。
type AlertRule struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
	// Action: log or event / 动作
	Action string `yaml:"action"`
}

// ObjectStoreConfig points at an S3-compatible endpoint for model files.
// ObjectStoreConfig 指向存放模型文件的 S3 兼容端点。
type ObjectStoreConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// WebConfig defines the HTTP API.
// WebConfig 定义 HTTP API。
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Token   string `yaml:"token"`
}

// MetricsConfig defines the configuration for metrics collection.
// MetricsConfig 定义指标收集配置。
type MetricsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServerEnabled   bool   `yaml:"server_enabled"`
	Port            int    `yaml:"port"`
	PushEnabled     bool   `yaml:"push_enabled"`
	PushGatewayAddr string `yaml:"push_gateway_addr"`
	PushInterval    string `yaml:"push_interval"`
	TextfileEnabled bool   `yaml:"textfile_enabled"`
	TextfilePath    string `yaml:"textfile_path"`
}
