package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pidctrl/internal/config"
	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/internal/version"
)

var (
	dataDir string
	verbose bool
	log     = logr.Discard()
	flush   = func() {}
)

// main runs the root command and exits with status 1 when it fails.
func main() {
	err := newRootCmd().Execute()
	if err != nil {
		if log.GetSink() == nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		} else {
			log.Error(err, "command failed")
		}
	}
	flush()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pidctrl",
		Short:         "discrete PID controller lab",
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidctrl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, one line per sample")

	rootCmd.AddCommand(
		newRunCmd(),
		newLiveCmd(),
		newTuneCmd(),
		newCompareCmd(),
		newScenarioCmd(),
		newMonteCarloCmd(),
		newListCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newExportSVGCmd(),
		newConfigCmd(),
		newPresetsCmd(),
		newInfoCmd(),
	)
	return rootCmd
}

// setupLogger bridges zap into logr: production JSON by default,
// development console output with debug level when verbose.
func setupLogger(verbose bool) error {
	var (
		zl  *zap.Logger
		err error
	)
	if verbose {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	log = zapr.NewLogger(zl).WithName("pidctrl")
	flush = func() { _ = zl.Sync() }
	return nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "print crate metadata and available components",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprint(out, version.Info())
			fmt.Fprintf(out, "Build version: %s\n\n", version.Version)
			fmt.Fprintf(out, "plants:      %s\n", strings.Join(reg.ListPlants(), ", "))
			fmt.Fprintf(out, "integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
			fmt.Fprintf(out, "strategies:  %s\n", strings.Join(reg.ListStrategies(), ", "))
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			plants := experiment.NewRegistry().ListPlants()
			if len(args) == 1 {
				plants = args[:1]
			}
			for _, plant := range plants {
				presets := config.ListPresets(plant)
				if len(presets) == 0 {
					fmt.Fprintf(out, "no presets for plant: %s\n", plant)
					continue
				}
				fmt.Fprintf(out, "presets for %s:\n", plant)
				for _, p := range presets {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}
			return nil
		},
	}
}
