package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/logging"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// Scenario selection and overrides, shared by run and live.
	configFile  string
	preset      string
	seed        int64
	steps       int
	temperature float64
	dt          float64
	boxHalf     float64
	metricsAddr string

	// run only
	numRuns    int
	watch      bool
	frameRate  int
	check      bool
	noSave     bool
	metricList []string

	// inspection
	svgPath   string
	outPath   string
	plotField string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chemsim",
		Short:         "reactive molecular dynamics sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Default().Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chemsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario headlessly and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of seeds to run in parallel")
	runCmd.Flags().BoolVar(&watch, "watch", false, "redraw the box in the terminal while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate for --watch")
	runCmd.Flags().BoolVar(&check, "check", false, "verify store invariants after the run")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to compute (default all)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive view of a running scenario",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "re-identify molecules in a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&svgPath, "svg", "", "also render the snapshot to this SVG file")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's sampled series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "one of "+fieldNames()+" (default all)")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "write the plotted field to this SVG file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as one JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, analyzeCmd, plotCmd, exportCmd, presetsCmd, newSweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset ("+fmt.Sprint(config.ListPresets())+")")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "bath temperature")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	cmd.Flags().Float64Var(&boxHalf, "box", 10, "box half-size")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

// setupLogging installs the process logger. Flags win over the config's
// log section, which loadConfig applies later through reconfigureLogging.
func setupLogging() error {
	l, err := logging.NewLogger(logging.LogConfig{Level: logLevel, Format: logFormat})
	if err != nil {
		return err
	}
	logging.SetDefault(l.Named("chemsim"))
	return nil
}

func reconfigureLogging(cfg logging.LogConfig) error {
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	l, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	logging.SetDefault(l.Named("chemsim"))
	return nil
}

// loadConfig resolves the scenario: the config file if given, else the
// preset, else the default preset. Flags override only when set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	default:
		name := preset
		if name == "" {
			name = config.DefaultPreset
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("temperature") {
		cfg.Params.Temperature = temperature
	}
	if flags.Changed("dt") {
		cfg.Params.Dt = dt
	}
	if flags.Changed("box") {
		cfg.Params.BoxHalf = boxHalf
	}
	if flags.Changed("metrics-addr") {
		cfg.Run.MetricsAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := reconfigureLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}
