package commands

import (
	"fmt"
	"path/filepath"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/utils/fileutil"
	"github.com/livp123/firesense/internal/utils/logger"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect, export and publish quantized models",
	// Short: 检查、导出和发布量化模型
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [source]",
	Short: "Print the layout of a model (default: engine.model)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		src := cfg.Engine.Model
		if len(args) == 1 {
			src = args[0]
		}
		data, err := fetchModel(cmd, src)
		if err != nil {
			return err
		}
		m, err := model.Unmarshal(data)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source: %s (%d bytes)\n", displaySource(src), len(data))
		fmt.Fprint(out, m.Describe())
		fmt.Fprintf(out, "arena: %d bytes required\n", model.RequiredArena(m))
		return nil
	},
}

var modelExportFrom string

var modelExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write a model to a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := fetchModel(cmd, modelExportFrom)
		if err != nil {
			return err
		}
		if _, err := model.Unmarshal(data); err != nil {
			return err
		}
		path := filepath.Clean(args[0])
		if err := fileutil.AtomicWriteFile(path, data, 0644); err != nil {
			return err
		}
		logger.Get(cmd.Context()).Infof("✅ Model exported to %s (%d bytes)", path, len(data))
		return nil
	},
}

var modelPushCmd = &cobra.Command{
	Use:     "push <file> <s3://bucket/key>",
	Short:   "Upload a model file to the object store",
	Example: `  firesense model push fire.fsnn s3://models/fire.fsnn`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.ObjectStore.Enabled {
			return fmt.Errorf("object_store is disabled in %s", config.GetConfigPath())
		}
		data, err := model.Fetch(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		store, err := app.NewObjectStore(cfg.ObjectStore)
		if err != nil {
			return err
		}
		if err := model.Push(cmd.Context(), args[1], data, store); err != nil {
			return err
		}
		logger.Get(cmd.Context()).Infof("✅ Model pushed to %s", args[1])
		return nil
	},
}

// fetchModel resolves src, connecting to the object store only for s3 sources.
func fetchModel(cmd *cobra.Command, src string) ([]byte, error) {
	var store model.ObjectStore
	if model.IsRemote(src) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		s, err := app.NewObjectStore(cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return model.Fetch(cmd.Context(), src, store)
}

func displaySource(src string) string {
	if src == "" {
		return model.BuiltinSource
	}
	return src
}

func init() {
	modelExportCmd.Flags().StringVar(&modelExportFrom, "from", model.BuiltinSource, "Model source: builtin, a file path or s3://bucket/key")

	modelCmd.AddCommand(modelInspectCmd)
	modelCmd.AddCommand(modelExportCmd)
	modelCmd.AddCommand(modelPushCmd)
}
