package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/config"
	"github.com/san-kum/chemsim/internal/export"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
	"github.com/san-kum/chemsim/internal/storage"
	"github.com/san-kum/chemsim/internal/viz"
)

// seriesFields are the plottable columns of a run's series.
var seriesFields = []struct {
	name    string
	caption string
	value   func(sim.Sample) float64
}{
	{"temperature", "kinetic temperature", func(s sim.Sample) float64 { return s.Temperature }},
	{"kinetic_energy", "kinetic energy", func(s sim.Sample) float64 { return s.KineticEnergy }},
	{"bonds", "bond count", func(s sim.Sample) float64 { return float64(s.Bonds) }},
	{"molecules", "molecules (2+ atoms)", func(s sim.Sample) float64 { return float64(s.Molecules) }},
}

func fieldNames() string {
	names := make([]string, len(seriesFields))
	for i, f := range seriesFields {
		names[i] = f.name
	}
	return strings.Join(names, ", ")
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tATOMS\tBONDS\tSPECIES\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Atoms,
			run.Bonds,
			run.Species,
			run.Seed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if svgPath != "" && plotField == "" {
		return fmt.Errorf("--svg needs --field")
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	plotted := false
	for _, f := range seriesFields {
		if plotField != "" && plotField != f.name {
			continue
		}
		data := make([]float64, len(samples))
		points := make([]export.Point, len(samples))
		for i, s := range samples {
			data[i] = f.value(s)
			points[i] = export.Point{X: s.Time, Y: data[i]}
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(f.caption),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted = true

		if svgPath != "" && plotField != "" {
			svg := export.SeriesToSVG(points, 800, 300, string(viz.CurrentTheme.Primary))
			if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", svgPath)
		}
	}
	if !plotted {
		return fmt.Errorf("unknown field %q (want one of %s)", plotField, fieldNames())
	}
	return nil
}

// analyzeRun rebuilds the saved snapshot, checks it, and identifies its
// molecules again. Fingerprints that differ from the stored result are
// reported, which flags analysis changes between versions.
func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return err
	}

	restored := physics.Restore(snap)
	if err := restored.CheckInvariants(); err != nil {
		return fmt.Errorf("snapshot of %s: %w", runID, err)
	}
	if restored.NumBonds() != len(snap.Bonds) {
		fmt.Printf("warning: %d of %d stored bonds were not restorable\n", len(snap.Bonds)-restored.NumBonds(), len(snap.Bonds))
	}

	molecules := analysis.Analyze(analysis.FromSnapshot(snap))
	species := analysis.Tally(molecules)
	fmt.Printf("run: %s  atoms: %d  bonds: %d  molecules: %d\n\n", runID, len(snap.Atoms), len(snap.Bonds), len(molecules))
	fmt.Println(speciesTable(species))

	if stored, err := st.LoadMolecules(runID); err == nil {
		known := make(map[string]bool, len(stored.Species))
		for _, sp := range stored.Species {
			known[sp.Fingerprint] = true
		}
		for _, sp := range species {
			if !known[sp.Fingerprint] {
				fmt.Printf("changed: %s %s not in the stored result\n", sp.Formula, short(sp.Fingerprint))
			}
		}
	}

	if svgPath != "" {
		cfg, err := st.LoadConfig(runID)
		box := 10.0
		if err == nil {
			box = cfg.Params.BoxHalf
		}
		svg := export.SnapshotToSVG(snap, viz.NewCamera(box), viz.CurrentTheme, 640)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(f, args[0]); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, cfg.Run.Steps, config.Presets[name].Description)
	}
	return w.Flush()
}
