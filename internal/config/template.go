package config

import (
	"github.com/livp123/firesense/internal/utils/logger"
)

// DefaultConfigTemplate defines the default configuration file structure with bilingual comments.
// It unmarshals to exactly DefaultConfig().
// DefaultConfigTemplate 定义带双语注释的默认配置文件结构。
const DefaultConfigTemplate = `# FireSense Configuration File / FireSense 配置文件
#

# Pipeline: numeric contract of each inference cycle.
# 流水线：每个推理周期的数值约定。
pipeline:
  # FIRE is reported when probability is strictly greater than threshold, 0 < threshold < 1.
  # 当概率严格大于阈值时判定为火灾，0 < threshold < 1。
  threshold: 0.45

  # Extra invoke attempts after an engine failure. A failed output is never decoded.
  # 引擎失败后的额外重试次数，失败的输出不会被解码。
  invoke_retries: 0

  # StandardScaler constants: temperature, humidity, co2, hydrogen, pressure.
  # 标准化常量：温度、湿度、二氧化碳、氢气、气压。
  calibration:
    mean: [24.5, 52.3, 405.0, 0.012, 1010.5]
    std: [2.1, 5.0, 50.0, 0.005, 10.0]

# Engine Configuration / 引擎配置
engine:
  # Engine type: tinyml (int8 interpreter) or stub (fixed probability).
  # 引擎类型：tinyml（int8 解释器）或 stub（固定概率）。
  type: "tinyml"

  # Model source: builtin, a file path, or s3://bucket/key (needs object_store).
  # 模型来源：builtin、文件路径或 s3://bucket/key（需要 object_store）。
  model: "builtin"

  # Tensor arena size in bytes, fixed at startup.
  # 张量 arena 大小（字节），启动时固定。
  arena_size: 30720

  # Probability returned by the stub engine.
  # stub 引擎返回的概率。
  stub_probability: 0.5

# Source Configuration / 数据源配置
source:
  # scenario: built-in test scenarios; tail: follow a CSV file.
  # scenario：内置测试场景；tail：跟踪 CSV 文件。
  type: "scenario"
  interval: "3s"
  loop: true
  # Stop after N readings, 0 means unlimited / 读取 N 条后停止，0 表示不限制
  count: 0
  # CSV lines: temperature,humidity,co2,hydrogen,pressure[,label]
  # CSV 行格式：温度,湿度,二氧化碳,氢气,气压[,标签]
  path: ""
  from_start: false
  poll: false

# Sinks: where reports are published / 输出端：报告发布位置
sinks:
  console:
    enabled: true
    # text (serial layout) or json / text（串口格式）或 json
    format: "text"
  kafka:
    enabled: false
    brokers: []
    topic: "firesense.reports"
    batch_timeout: "100ms"
  redis:
    enabled: false
    addr: "localhost:6379"
    password: ""
    db: 0
    prefix: "firesense"
    ttl: "1h"
    history_size: 100

# Alerts: expressions evaluated against every report.
# Fields: Fire, Probability, Confidence, Temperature, Humidity, CO2, Hydrogen, Pressure, Label.
# 告警：针对每个报告求值的表达式。
alerts:
  enabled: false
  rules: []
  #  - name: "hydrogen_spike"
  #    expr: "Hydrogen > 0.1 && Probability > 0.3"
  #    action: "log"

# Object Store (S3 compatible) for model files / 模型文件的对象存储（兼容 S3）
object_store:
  enabled: false
  endpoint: "localhost:9000"
  access_key: ""
  secret_key: ""
  use_ssl: false
  region: ""

# Web API / Web API
web:
  enabled: false
  port: 11911
  # Bearer token, empty disables auth / Bearer 令牌，为空则不鉴权
  token: ""

# Metrics Configuration / 指标配置
metrics:
  enabled: true
  # Dedicated /metrics server when web API is disabled / Web API 关闭时的独立 /metrics 服务
  server_enabled: false
  port: 11912
  push_enabled: false
  push_gateway_addr: ""
  push_interval: "15s"
  textfile_enabled: false
  textfile_path: "/var/lib/node_exporter/textfile_collector/firesense.prom"

# Logging Configuration / 日志配置
logging:
  enabled: false
  level: "info"
  format: "console"
  path: "/var/log/firesense/firesense.log"
  stdout: false
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true
`

// DefaultConfig returns the configuration used when no file exists.
// DefaultConfig 返回无配置文件时使用的配置。
func DefaultConfig() *GlobalConfig {
	return &GlobalConfig{
		Pipeline: PipelineConfig{
			Threshold:     0.45,
			InvokeRetries: 0,
			Calibration: CalibrationConfig{
				Mean: []float64{24.5, 52.3, 405.0, 0.012, 1010.5},
				Std:  []float64{2.1, 5.0, 50.0, 0.005, 10.0},
			},
		},
		Engine: EngineConfig{
			Type:            EngineTinyML,
			Model:           "builtin",
			ArenaSize:       30 * 1024,
			StubProbability: 0.5,
		},
		Source: SourceConfig{
			Type:     SourceScenario,
			Interval: "3s",
			Loop:     true,
		},
		Sinks: SinksConfig{
			Console: ConsoleSinkConfig{Enabled: true, Format: "text"},
			Kafka: KafkaSinkConfig{
				Brokers:      []string{},
				Topic:        "firesense.reports",
				BatchTimeout: "100ms",
			},
			Redis: RedisSinkConfig{
				Addr:        "localhost:6379",
				Prefix:      "firesense",
				TTL:         "1h",
				HistorySize: 100,
			},
		},
		Alerts: AlertsConfig{Rules: []AlertRule{}},
		ObjectStore: ObjectStoreConfig{
			Endpoint: "localhost:9000",
		},
		Web: WebConfig{Port: 11911},
		Metrics: MetricsConfig{
			Enabled:      true,
			Port:         11912,
			PushInterval: "15s",
			TextfilePath: "/var/lib/node_exporter/textfile_collector/firesense.prom",
		},
		Logging: logger.LoggingConfig{
			Level:      "info",
			Format:     "console",
			Path:       "/var/log/firesense/firesense.log",
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
	}
}
