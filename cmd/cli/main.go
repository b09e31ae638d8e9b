package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"martisim/adapters/excel"
	"martisim/adapters/report"
	"martisim/adapters/rng"
	"martisim/domain/trial"
	"martisim/internal/config"
	"martisim/internal/container"
	"martisim/ports"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "martisim",
		Short:         "Martingale betting simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newTrialCmd(),
		newModesCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

type runOptions struct {
	seed       int64
	workers    int
	trials     int
	sampleSize int
	modesFile  string
	xlsx       string
	markdown   string
	detailed   bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate every mode and print the per-mode summary",
		Long: `Simulate every configured mode and print one summary block per mode.

Settings come from the environment (SIM_SEED, SIM_WORKERS, SIM_TRIALS,
MODES_FILE, EXPORT_XLSX, EXPORT_MARKDOWN, ...) and flags override them.

Example: martisim run --seed 42 --trials 500 --xlsx balances.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg, opts.detailed)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Base seed for reproducible runs (default: OS entropy)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent trials (default: SIM_WORKERS or CPU count)")
	cmd.Flags().IntVar(&opts.trials, "trials", 0, "Trials per mode, overriding every mode")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "Trials per mode whose full balance series is kept")
	cmd.Flags().StringVar(&opts.modesFile, "modes-file", "", "YAML file defining the modes (default: built-in modes)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Write balance trajectories to this workbook")
	cmd.Flags().StringVar(&opts.markdown, "markdown", "", "Write a markdown report to this file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "Add distribution and streak lines to each block")
	return cmd
}

// apply overrides cfg with the flags set on the command line
func (o runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := o.seed
		cfg.Simulation.Seed = &seed
	}
	if flags.Changed("workers") && o.workers > 0 {
		cfg.Simulation.Workers = o.workers
	}
	if flags.Changed("trials") {
		cfg.Simulation.Trials = o.trials
	}
	if flags.Changed("sample-size") {
		cfg.Simulation.SampleSize = o.sampleSize
	}
	if flags.Changed("modes-file") {
		cfg.Simulation.ModesFile = o.modesFile
	}
	if flags.Changed("xlsx") {
		cfg.Output.ExportXLSX = o.xlsx
	}
	if flags.Changed("markdown") {
		cfg.Output.MarkdownFile = o.markdown
	}
}

func runSimulation(ctx context.Context, out io.Writer, cfg *config.Config, detailed bool) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	rep, err := c.Simulation.RunModes(ctx, c.Modes)
	if err != nil {
		return err
	}

	c.Console.Detailed = detailed
	if err := c.Console.Write(out, rep.Results); err != nil {
		return err
	}
	return c.Export(rep)
}

func newTrialCmd() *cobra.Command {
	var (
		cfg    trial.Config
		seed   int64
		series bool
	)

	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Play a single trial and describe how it ended",
		Long: `Play one martingale trial and print its final balance, abort reason
and significant loss streaks.

Example: martisim trial --base-bet 1 --streak-cap 12 --max-rounds 5000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			var (
				port ports.RNGPort = rng.NewEntropyAdapter()
				src  ports.UniformSource
				err  error
			)
			if cmd.Flags().Changed("seed") {
				src, err = port.SeededStream(cmd.Context(), "trial", seed)
			} else {
				src, err = port.TrialStream(cmd.Context(), "trial", 0)
			}
			if err != nil {
				return err
			}

			writeOutcome(cmd.OutOrStdout(), trial.RunTrial(cfg, src), series)
			return nil
		},
	}

	cmd.Flags().Float64Var(&cfg.BaseBet, "base-bet", 1, "Stake of the first bet of each cycle")
	cmd.Flags().IntVar(&cfg.StreakCap, "streak-cap", 12, "Abort once a loss streak reaches this length")
	cmd.Flags().IntVar(&cfg.MaxRounds, "max-rounds", 100000, "Rounds to play at most")
	cmd.Flags().Float64Var(&cfg.InitialBalance, "initial-balance", trial.DefaultInitialBalance, "Starting balance")
	cmd.Flags().Float64Var(&cfg.WinProbability, "win-probability", trial.DefaultWinProbability, "Chance of winning a round")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for a reproducible trial (default: OS entropy)")
	cmd.Flags().BoolVar(&series, "series", false, "Print the balance after every round")
	return cmd
}

func writeOutcome(w io.Writer, o trial.Outcome, series bool) {
	fmt.Fprintf(w, "Rounds played: %d\n", o.RoundsPlayed)
	fmt.Fprintf(w, "Final balance: %s\n", report.Money(o.FinalBalance()))
	fmt.Fprintf(w, "Abort reason: %s\n", o.AbortReason)
	fmt.Fprintf(w, "Significant streaks: %d (longest %d)\n", len(o.SignificantStreaks), o.LongestStreak())
	for _, s := range o.SignificantStreaks {
		fmt.Fprintf(w, "  round %d: %d losses\n", s.Round, s.Length)
	}
	if series {
		for i, b := range o.BalanceSeries {
			fmt.Fprintf(w, "%d\t%s\n", i+1, report.Fixed(b))
		}
	}
}

func newModesCmd() *cobra.Command {
	var modesFile string

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Print the modes a run would simulate, as YAML",
		Long: `Print the resolved modes with every default filled in. The output is a
valid modes file.

Example: martisim modes --modes-file modes.yaml > resolved.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := config.LoadModes(modesFile, 0, 0)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.NewModesFile(modes)); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&modesFile, "modes-file", "", "YAML file defining the modes (default: built-in modes)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [workbook.xlsx]",
		Short: "Summarize a workbook written by run --xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := excel.OpenWorkbook(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()
			return inspectWorkbook(cmd.OutOrStdout(), wb)
		},
	}
}

func inspectWorkbook(out io.Writer, wb *excel.WorkbookReader) error {
	meta, err := wb.ReadMetadata()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, meta[k])
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSHEET\tPLAYER\tPOINTS\tLAST ROUND\tFINAL BALANCE")
	for _, sheet := range wb.ModeSheets() {
		trajectories, err := wb.ReadTrajectories(sheet)
		if err != nil {
			return err
		}
		for _, tr := range trajectories {
			n := len(tr.Balances)
			if n == 0 {
				fmt.Fprintf(tw, "%s\t%s\t0\t-\t-\n", sheet, tr.Player)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", sheet, tr.Player, n, tr.Rounds[n-1], report.Money(tr.Balances[n-1]))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, report.Separator)
	return nil
}
