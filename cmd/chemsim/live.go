package main

import (
	"github.com/spf13/cobra"

	"github.com/san-kum/chemsim/internal/experiment"
	"github.com/san-kum/chemsim/internal/logging"
	"github.com/san-kum/chemsim/internal/sim"
	"github.com/san-kum/chemsim/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The alt screen owns the terminal; keep log lines out of it.
	log := logging.Default()
	if logLevel == "" {
		log = logging.NewNopLogger()
	}

	var observers []sim.Observer
	if cfg.Run.MetricsAddr != "" {
		exporter, err := startExporter(cfg, log)
		if err != nil {
			return err
		}
		observers = append(observers, exporter)
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(nil, observers...); err != nil {
		return err
	}
	return tui.RunInteractive(exp.Runner(), cfg.Name)
}
