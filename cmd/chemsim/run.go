package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/experiment"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/metrics"
	"github.com/san-kum/chemsim/internal/sim"
	"github.com/san-kum/chemsim/internal/storage"
	"github.com/san-kum/chemsim/internal/tui"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if numRuns > 1 {
		return runEnsemble(ctx, cfg, log)
	}

	exp := experiment.New(cfg, log)
	reg := experiment.NewRegistry()
	ms, err := reg.Metrics(metricList...)
	if err != nil {
		return err
	}

	var observers []sim.Observer
	if cfg.Run.MetricsAddr != "" {
		exporter, err := startExporter(cfg, log)
		if err != nil {
			return err
		}
		observers = append(observers, exporter)
	}
	var live *tui.LiveRenderer
	if watch {
		live = tui.NewLiveRenderer(cfg.Name, frameRate, cfg.Params.BoxHalf)
		observers = append(observers, live)
	}
	if err := exp.Setup(ms, observers...); err != nil {
		return err
	}
	rep := exp.Report()

	fmt.Printf("running %s (%d atoms, %d steps, seed %d)...\n", cfg.Name, rep.Placed, cfg.Run.Steps, cfg.Seed)
	start := time.Now()

	if live != nil {
		live.Start()
	}
	result, runErr := exp.Run(ctx)
	if live != nil {
		live.Stop()
	}
	if runErr != nil && !errors.Is(runErr, dynamo.ErrContextCanceled) {
		return runErr
	}
	if runErr != nil {
		fmt.Println("interrupted, keeping partial result")
	}
	elapsed := time.Since(start)

	if check {
		if err := exp.Runner().Simulation().CheckInvariants(); err != nil {
			return err
		}
		fmt.Println("invariants ok")
	}

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed.Round(time.Millisecond))
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		snap, _ := exp.Snapshot()
		runID, err := st.Save(cfg, result, snap)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println()
	fmt.Println(speciesTable(analysis.Tally(result.Molecules)))
	printDiscoveries(result.Discoveries)
	printMetrics(result.Metrics)
	return nil
}

// startExporter serves prometheus metrics in the background for the life of
// the process.
func startExporter(cfg *config.Config, log logging.Logger) (*metrics.Exporter, error) {
	exporter, err := metrics.NewExporter(metrics.ExporterConfig{
		Namespace:            "chemsim",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
		ConstLabels:          map[string]string{"scenario": cfg.Name},
	}, log.Named("metrics"))
	if err != nil {
		return nil, err
	}
	go func() {
		if err := exporter.Serve(cfg.Run.MetricsAddr); err != nil {
			log.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return exporter, nil
}

func runEnsemble(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	fmt.Printf("running %s x%d (seeds %d..%d, %d steps)...\n", cfg.Name, numRuns, cfg.Seed, cfg.Seed+int64(numRuns)-1, cfg.Run.Steps)
	start := time.Now()
	results, err := experiment.Ensemble(ctx, cfg, numRuns, log, metricList...)
	if err != nil && !errors.Is(err, dynamo.ErrContextCanceled) {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))

	// Count how many seeds produced each species, and its total population.
	type seen struct {
		sp    analysis.Species
		seeds int
		total int
	}
	bySpecies := make(map[string]*seen)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, sp := range analysis.Tally(res.Molecules) {
			if sp.Atoms < 2 {
				continue
			}
			s, ok := bySpecies[sp.Fingerprint]
			if !ok {
				s = &seen{sp: sp}
				bySpecies[sp.Fingerprint] = s
			}
			s.seeds++
			s.total += sp.Count
		}
	}
	rows := make([]*seen, 0, len(bySpecies))
	for _, s := range bySpecies {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].seeds != rows[j].seeds {
			return rows[i].seeds > rows[j].seeds
		}
		return rows[i].sp.Fingerprint < rows[j].sp.Fingerprint
	})

	t := newTable("FORMULA", "SEEDS", "TOTAL", "ATOMS", "BONDS", "RINGS", "FINGERPRINT")
	for _, s := range rows {
		t.Row(s.sp.Formula, fmt.Sprintf("%d/%d", s.seeds, numRuns), strconv.Itoa(s.total),
			strconv.Itoa(s.sp.Atoms), strconv.Itoa(s.sp.Bonds), strconv.Itoa(s.sp.Rings), short(s.sp.Fingerprint))
	}
	if len(rows) == 0 {
		fmt.Println(dimStyle.Render("no molecules formed"))
		return nil
	}
	fmt.Println(t.String())
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func speciesTable(species []analysis.Species) string {
	t := newTable("FORMULA", "COUNT", "ATOMS", "BONDS", "RINGS", "MAX ORDER", "FINGERPRINT")
	n := 0
	for _, sp := range species {
		if sp.Atoms < 2 {
			continue
		}
		t.Row(sp.Formula, strconv.Itoa(sp.Count), strconv.Itoa(sp.Atoms), strconv.Itoa(sp.Bonds),
			strconv.Itoa(sp.Rings), strconv.Itoa(sp.MaxOrder), short(sp.Fingerprint))
		n++
	}
	if n == 0 {
		return dimStyle.Render("no molecules formed")
	}
	return t.String()
}

func printDiscoveries(ds []analysis.Discovery) {
	if len(ds) == 0 {
		return
	}
	fmt.Println("\ndiscoveries:")
	for _, d := range ds {
		fmt.Printf("  step %-6d %-10s peak %d\n", d.FirstStep, d.Formula, d.Peak)
	}
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
