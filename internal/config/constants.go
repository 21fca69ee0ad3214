package config

const (
	// DefaultConfigPath is the standard location for the firesense configuration file.
	// DefaultConfigPath 是 firesense 配置文件的标准位置。
	DefaultConfigPath = "/etc/firesense/config.yaml"

	// DefaultPidPath is the location of the daemon PID file.
	// DefaultPidPath 是守护进程 PID 文件的位置。
	DefaultPidPath = "/var/run/firesense.pid"

	// DefaultEnvFile is loaded, if present, before environment overrides apply.
	// DefaultEnvFile 在应用环境变量覆盖前加载（如果存在）。
	DefaultEnvFile = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FIRESENSE_"

	EngineTinyML = "tinyml"
	EngineStub   = "stub"

	SourceScenario = "scenario"
	SourceTail     = "tail"

	ActionLog   = "log"
	ActionEvent = "event"
)
