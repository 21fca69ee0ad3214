package commands

import (
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/daemon"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the detection daemon",
	// Short: 启动检测守护进程
	Long: `Start the detection daemon: source -> pipeline -> alerts -> sinks, with
the HTTP API and metrics. SIGHUP reloads alert rules and the log level.
启动检测守护进程，SIGHUP 重载告警规则和日志级别。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.Run(cmd.Context(), &daemon.DaemonOptions{
			ConfigPath: config.GetConfigPath(),
			PidPath:    config.GetPidPath(),
		})
	},
}
