package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/chemsim/internal/optim"
)

var (
	sweepAxes   []string
	sweepMetric string
	sweepMin    bool
)

const sweepExample = `  chemsim sweep --preset soup --axis temperature=0.1:0.5:0.1 --axis bond_stiffness=0.8,1.2
  chemsim sweep --preset gas --axis temperature=0.5,1,2 --metric max_bonds`

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "run a scenario over a parameter grid and rank the runs",
		Example: sweepExample,
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addScenarioFlags(cmd)
	cmd.Flags().StringArrayVar(&sweepAxes, "axis", nil, "name=v1,v2 or name=start:stop:step (repeatable)")
	cmd.Flags().StringVar(&sweepMetric, "metric", "molecules", "metric to rank by")
	cmd.Flags().BoolVar(&sweepMin, "minimize", false, "lower metric values win")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepAxes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepAxes))
	ranges := make([][]float64, 0, len(sweepAxes))
	for _, axis := range sweepAxes {
		name, vals, err := optim.ParseAxis(axis)
		if err != nil {
			return err
		}
		// Reject unknown names before spending time on runs.
		probe := *cfg
		if err := probe.SetParam(name, vals[0]); err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if !sweepMin {
		g.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s over %d grid points (%d steps each)...\n", cfg.Name, g.Size(), cfg.Run.Steps)
	best, bestVal, trials, err := g.Search(ctx, optim.Builder(cfg, sweepMetric), sweepMetric)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if (trials[i].Err == nil) != (trials[j].Err == nil) {
			return trials[i].Err == nil
		}
		if sweepMin {
			return trials[i].Value < trials[j].Value
		}
		return trials[i].Value > trials[j].Value
	})

	headers := append(append([]string{}, names...), sweepMetric, "STATUS")
	t := newTable(headers...)
	for _, tr := range trials {
		row := make([]string, 0, len(headers))
		for _, n := range names {
			row = append(row, strconv.FormatFloat(tr.Params[n], 'g', 6, 64))
		}
		status := "ok"
		if tr.Err != nil {
			status = tr.Err.Error()
		}
		row = append(row, strconv.FormatFloat(tr.Value, 'f', 4, 64), status)
		t.Row(row...)
	}
	fmt.Println(t.String())

	if best != nil {
		fmt.Printf("\nbest %s = %.4f at", sweepMetric, bestVal)
		for _, n := range names {
			fmt.Printf(" %s=%g", n, best[n])
		}
		fmt.Println()
	}
	return nil
}
