package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/sink"
	"github.com/livp123/firesense/internal/source"
	"github.com/spf13/cobra"
)

var demoOpts struct {
	interval time.Duration
	loop     bool
	count    int
	json     bool
	stub     float64
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the six built-in test scenarios",
	// Short: 运行六个内置测试场景
	Long: `Run the built-in test scenarios through the pipeline and print each
report to stdout.
将内置测试场景送入流水线并在标准输出打印每个报告。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("stub") {
			cfg.Engine.Type = config.EngineStub
			cfg.Engine.StubProbability = demoOpts.stub
		}

		format := sink.FormatText
		if demoOpts.json {
			format = sink.FormatJSON
		}
		out := cmd.OutOrStdout()
		a, err := app.New(cmd.Context(), cfg, app.WithSinks(sink.NewFanout(sink.NewConsole(out, format))))
		if err != nil {
			return err
		}
		defer a.Close()

		if !demoOpts.json {
			if err := report.WriteBanner(out); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDemo(ctx, a, source.ScenarioOptions{
			Interval: demoOpts.interval,
			Loop:     demoOpts.loop,
			Count:    demoOpts.count,
		})
	},
}

func runDemo(ctx context.Context, a *app.App, opts source.ScenarioOptions) error {
	src := source.NewScenarioSource(opts)
	defer src.Close()
	return a.Run(ctx, src)
}

func init() {
	demoCmd.Flags().DurationVar(&demoOpts.interval, "interval", source.DefaultInterval, "Delay between scenarios")
	demoCmd.Flags().BoolVar(&demoOpts.loop, "loop", false, "Repeat the scenarios forever")
	demoCmd.Flags().IntVar(&demoOpts.count, "count", 0, "Stop after N readings (0 = unlimited)")
	demoCmd.Flags().BoolVar(&demoOpts.json, "json", false, "Print reports as JSON lines")
	demoCmd.Flags().Float64Var(&demoOpts.stub, "stub", 0.5, "Use the stub engine with this fire probability")
}
