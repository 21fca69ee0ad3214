package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/sink"
	"github.com/spf13/cobra"
)

var inferOpts struct {
	label string
	json  bool
	stub  float64
}

var inferCmd = &cobra.Command{
	Use:   "infer <temperature> <humidity> <co2> <hydrogen> <pressure>",
	Short: "Run one reading through the pipeline",
	// Short: 对单个读数执行一次推理
	Example: `  firesense infer 80 15 1200 0.30 990
  firesense infer --json --label kitchen 35 60 800 0.15 1008`,
	Args: cobra.ExactArgs(normalizer.NumFeatures),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]float64, len(args))
		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", normalizer.Feature(i), arg, err)
			}
			values[i] = v
		}
		raw, err := normalizer.FromSlice(values)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("stub") {
			cfg.Engine.Type = config.EngineStub
			cfg.Engine.StubProbability = inferOpts.stub
		}

		// Results go to stdout only; configured sinks are for the daemon
		// 结果只输出到标准输出，配置的输出端仅用于守护进程
		a, err := app.New(cmd.Context(), cfg, app.WithSinks(sink.NewFanout()))
		if err != nil {
			return err
		}
		defer a.Close()

		rep, cycleErr := a.Cycle(cmd.Context(), inferOpts.label, raw)
		out := cmd.OutOrStdout()
		if inferOpts.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
		} else if err := report.WriteText(out, rep); err != nil {
			return err
		}
		return cycleErr
	},
}

func init() {
	inferCmd.Flags().StringVar(&inferOpts.label, "label", "cli", "Label for the reading")
	inferCmd.Flags().BoolVar(&inferOpts.json, "json", false, "Print the report as JSON")
	inferCmd.Flags().Float64Var(&inferOpts.stub, "stub", 0.5, "Use the stub engine with this fire probability")
}
