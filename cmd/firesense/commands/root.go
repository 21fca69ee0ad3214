package commands

import (
	"fmt"
	"os"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/runtime"
	"github.com/livp123/firesense/internal/utils/logger"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "firesense",
	Short: "Quantized on-device fire detection",
	// Short: 量化的设备端火灾检测
	Long: `firesense standardizes environmental sensor readings, runs a quantized
int8 fire model and reports FIRE / NO_FIRE with a confidence.
firesense 标准化环境传感器读数，运行 int8 量化火灾模型并报告是否起火及置信度。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env before the config so FIRESENSE_* overrides apply
		// 先加载 .env，使 FIRESENSE_* 覆盖生效
		envFile := runtime.EnvFile
		if envFile == "" {
			envFile = config.DefaultEnvFile
		}
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		globalCfg, err := config.LoadOrDefault(config.GetConfigPath())
		if err != nil {
			// Commands that need the config report the error themselves
			// 需要配置的命令会自行报告错误
			logger.Init(logger.LoggingConfig{Level: "info"})
		} else {
			logger.Init(globalCfg.Logging)
		}

		ctx := logger.WithContext(cmd.Context(), logger.Get(cmd.Context()))
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Config file path
	// 配置文件路径
	RootCmd.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))
	RootCmd.PersistentFlags().StringVar(&runtime.EnvFile, "env-file", "", fmt.Sprintf("Path to dotenv file (default: %s)", config.DefaultEnvFile))
	RootCmd.PersistentFlags().StringVar(&runtime.PidPath, "pid-file", "", fmt.Sprintf("Path to PID file (default: %s)", config.DefaultPidPath))

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(demoCmd)
	RootCmd.AddCommand(inferCmd)
	RootCmd.AddCommand(modelCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)

	RootCmd.CompletionOptions.DisableDescriptions = true
}

// loadConfig loads the effective configuration for a command.
func loadConfig() (*config.GlobalConfig, error) {
	return config.LoadOrDefault(config.GetConfigPath())
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
