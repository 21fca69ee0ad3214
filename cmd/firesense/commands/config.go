package commands

import (
	"fmt"
	"strconv"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/config"
	fserrors "github.com/livp123/firesense/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Short: 管理配置文件
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		if err := config.InitConfig(path, configInitForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration written to %s\n", path)
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm := config.NewConfigManager(config.GetConfigPath())
		if err := cm.LoadConfig(); err != nil {
			return err
		}
		if err := cm.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration %s is valid\n", cm.GetConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm := config.NewConfigManager(config.GetConfigPath())
		if err := cm.LoadConfig(); err != nil {
			return err
		}
		out, err := yaml.Marshal(cm.GetConfig())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configSetThresholdCmd = &cobra.Command{
	Use:   "set-threshold <value>",
	Short: "Update pipeline.threshold, keeping file comments",
	// Short: 更新 pipeline.threshold 并保留文件注释
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("%w: %v", fserrors.ErrThresholdInvalid, err)
		}
		if !bridge.ValidThreshold(threshold) {
			return fmt.Errorf("%w: %v", fserrors.ErrThresholdInvalid, threshold)
		}

		cm := config.NewConfigManager(config.GetConfigPath())
		if err := cm.LoadConfig(); err != nil {
			return err
		}
		cfg := cm.GetConfig()
		cfg.Pipeline.Threshold = threshold
		cm.UpdateConfig(cfg)
		if err := cm.SaveConfig(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Threshold set to %g\n", threshold)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetThresholdCmd)
}
