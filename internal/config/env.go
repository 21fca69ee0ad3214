package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
// LoadEnvFile 从 path 加载环境变量，不覆盖已设置的变量；文件不存在不是错误。
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fserrors.NewConfigError("env_file", err.Error())
	}
	return nil
}

// ApplyEnv overrides cfg from FIRESENSE_* variables.
// ApplyEnv 使用 FIRESENSE_* 环境变量覆盖配置。
func ApplyEnv(cfg *GlobalConfig, lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			var out []string
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			*dst = out
		}
	}
	var firstErr error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil && firstErr == nil {
				firstErr = fserrors.NewConfigError(EnvPrefix+name, v)
			}
			if err == nil {
				*dst = n
			}
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil && firstErr == nil {
				firstErr = fserrors.NewConfigError(EnvPrefix+name, v)
			}
			if err == nil {
				*dst = f
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil && firstErr == nil {
				firstErr = fserrors.NewConfigError(EnvPrefix+name, v)
			}
			if err == nil {
				*dst = b
			}
		}
	}

	float("THRESHOLD", &cfg.Pipeline.Threshold)
	num("INVOKE_RETRIES", &cfg.Pipeline.InvokeRetries)
	str("ENGINE", &cfg.Engine.Type)
	str("MODEL", &cfg.Engine.Model)
	num("ARENA_SIZE", &cfg.Engine.ArenaSize)
	str("SOURCE", &cfg.Source.Type)
	str("SOURCE_PATH", &cfg.Source.Path)
	str("INTERVAL", &cfg.Source.Interval)

	if _, ok := lookup(EnvPrefix + "KAFKA_BROKERS"); ok {
		cfg.Sinks.Kafka.Enabled = true
	}
	list("KAFKA_BROKERS", &cfg.Sinks.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Sinks.Kafka.Topic)

	if _, ok := lookup(EnvPrefix + "REDIS_ADDR"); ok {
		cfg.Sinks.Redis.Enabled = true
	}
	str("REDIS_ADDR", &cfg.Sinks.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Sinks.Redis.Password)
	num("REDIS_DB", &cfg.Sinks.Redis.DB)

	if _, ok := lookup(EnvPrefix + "S3_ENDPOINT"); ok {
		cfg.ObjectStore.Enabled = true
	}
	str("S3_ENDPOINT", &cfg.ObjectStore.Endpoint)
	str("S3_ACCESS_KEY", &cfg.ObjectStore.AccessKey)
	str("S3_SECRET_KEY", &cfg.ObjectStore.SecretKey)
	flag("S3_USE_SSL", &cfg.ObjectStore.UseSSL)

	str("WEB_TOKEN", &cfg.Web.Token)
	str("LOG_LEVEL", &cfg.Logging.Level)

	return firstErr
}
