package runtime

// ConfigPath stores the path to the configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的配置文件路径。
var ConfigPath string

// EnvFile stores the dotenv file provided via CLI flags.
// EnvFile 存储通过 CLI 标志提供的 dotenv 文件路径。
var EnvFile string

// PidPath overrides the daemon PID file location.
// PidPath 覆盖守护进程 PID 文件位置。
var PidPath string
