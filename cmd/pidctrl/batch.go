package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidctrl/internal/automation"
	"github.com/san-kum/pidctrl/internal/config"
	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/internal/metrics"
	"github.com/san-kum/pidctrl/internal/optim"
	"github.com/san-kum/pidctrl/internal/storage"
	"github.com/san-kum/pidctrl/pkg/pid"
)

var (
	kpGrid, kiGrid, kdGrid []float64
	tuneMetric             string
	workers                int
	saveTuned              string

	saveRuns bool

	trials  int
	perturb float64
	seed    int64
)

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "grid search the gains minimising a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addLoopFlags(cmd)
	cmd.Flags().Float64SliceVar(&kpGrid, "kp-grid", []float64{0.05, 0.1, 0.2, 0.3}, "Kp values")
	cmd.Flags().Float64SliceVar(&kiGrid, "ki-grid", []float64{0.1, 0.3, 0.6, 1.0}, "Ki values")
	cmd.Flags().Float64SliceVar(&kdGrid, "kd-grid", nil, "Kd values (default: --kd)")
	cmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimise")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default: number of CPUs)")
	cmd.Flags().StringVar(&saveTuned, "save", "", "write the tuned configuration as yaml")
	return cmd
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reg := experiment.NewRegistry()
	c := cfg.Controller
	g := optim.NewGridSearch(kpGrid, kiGrid, kdGrid)
	g.Base = pid.Gains{Kp: c.Kp, Ki: c.Ki, Kd: c.Kd, Ksat: c.Ksat}
	g.Workers = workers

	build := func(gains pid.Gains) (*experiment.Experiment, error) {
		ecfg := cfg.Experiment()
		ecfg.Gains = gains
		ecfg.Pace = 0
		exp := experiment.New(ecfg)
		if err := exp.Setup(reg, metrics.Default(c.SampleTime), logr.Discard()); err != nil {
			return nil, err
		}
		return exp, nil
	}

	log.Info("tuning", "points", len(g.Points()), "metric", tuneMetric)
	best, val, err := g.Search(ctx, build, tuneMetric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "best %s: %.6f\n", tuneMetric, val)
	fmt.Fprintf(out, "kp=%g ki=%g kd=%g\n", best.Kp, best.Ki, best.Kd)

	if saveTuned != "" {
		cfg.Controller.Kp, cfg.Controller.Ki, cfg.Controller.Kd = best.Kp, best.Ki, best.Kd
		if err := config.Save(saveTuned, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(out, "written to %s\n", saveTuned)
	}
	return nil
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [plant]",
		Short: "compare anti-windup strategies on the same loop",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			outcomes := automation.CompareStrategies(cmd.Context(), cfg, experiment.NewRegistry(), log)
			return writeOutcomes(cmd.OutOrStdout(), outcomes)
		},
	}
	addLoopFlags(cmd)
	return cmd
}

func writeOutcomes(out io.Writer, outcomes []automation.Outcome) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTRATEGY\tIAE\tISE\tOVERSHOOT\tSETTLING\tSATURATED\tSTATUS")
	for _, o := range outcomes {
		if o.Result == nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\t%v\n", o.Name, o.Config.Strategy, o.Err)
			continue
		}
		status := "ok"
		if o.Err != nil {
			status = o.Err.Error()
		}
		settling := "-"
		if o.Response.Settled {
			settling = fmt.Sprintf("%.3fs", o.Response.SettlingTime)
		}
		m := o.Result.Metrics
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.2f%%\t%s\t%.1f%%\t%s\n",
			o.Name, o.Config.Strategy, m["iae"], m["ise"],
			100*o.Response.Overshoot, settling, 100*m["saturation_ratio"], status)
	}
	return w.Flush()
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of loops from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			outcomes, runErr := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), log)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenario: %s\n", sc.Name)
			if sc.Description != "" {
				fmt.Fprintf(out, "%s\n", sc.Description)
			}
			fmt.Fprintln(out)
			if err := writeOutcomes(out, outcomes); err != nil {
				return err
			}

			if saveRuns {
				st := storage.New(dataDir)
				if err := st.Init(); err != nil {
					return err
				}
				for _, o := range outcomes {
					if o.Result == nil || o.Result.StepsTaken == 0 {
						continue
					}
					runID, err := st.Save(metadataFor(o.Config), o.Result)
					if err != nil {
						return fmt.Errorf("save %s: %w", o.Name, err)
					}
					fmt.Fprintf(out, "%s stored as %s\n", o.Name, runID)
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&saveRuns, "save", false, "store every run")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [plant]",
		Short: "robustness trials with randomly perturbed plant parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
				Base:         cfg,
				Perturbation: perturb,
				NumTrials:    trials,
				Seed:         seed,
			}, experiment.NewRegistry(), log)
			if err != nil {
				return err
			}

			worst := math.Inf(-1)
			for _, r := range results {
				if r.Err == nil {
					worst = math.Max(worst, r.IAE)
				}
			}
			stable, settled := automation.MonteCarloStats(results)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trials:  %d (±%.0f%% plant parameters)\n", len(results), 100*perturb)
			fmt.Fprintf(out, "stable:  %d\n", stable)
			fmt.Fprintf(out, "settled: %d\n", settled)
			if !math.IsInf(worst, -1) {
				fmt.Fprintf(out, "worst iae: %.6f\n", worst)
			}
			return nil
		},
	}
	addLoopFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	cmd.Flags().Float64Var(&perturb, "perturb", 0.2, "relative plant parameter perturbation")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time based)")
	return cmd
}
