package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidctrl/internal/analysis"
	"github.com/san-kum/pidctrl/internal/config"
	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/internal/metrics"
	"github.com/san-kum/pidctrl/internal/storage"
	"github.com/san-kum/pidctrl/internal/telemetry"
	"github.com/san-kum/pidctrl/internal/viz"
	"github.com/san-kum/pidctrl/pkg/pid"
)

var (
	metricsAddr string
	report      bool
	noSave      bool
	fps         int
	saveConfig  string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run the control loop and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoop,
	}
	addLoopFlags(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().BoolVar(&report, "report", false, "print the controller performance report every sample")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

// reportPrinter prints the controller report after each sample.
type reportPrinter struct {
	w    io.Writer
	ctrl *pid.Controller
}

func (p reportPrinter) OnSample(s dynamo.Sample) {
	fmt.Fprintf(p.w, "step %d, t=%.3fs, measurement=%v\n%s\n", s.Step, s.Time, s.Measurement, p.ctrl.PerformanceReport())
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reg := experiment.NewRegistry()
	exp := experiment.New(cfg.Experiment())
	if err := exp.Setup(reg, metrics.Default(cfg.Controller.SampleTime), log); err != nil {
		return err
	}
	runner := exp.GetRunner()
	out := cmd.OutOrStdout()

	if report {
		fmt.Fprint(out, exp.Controller().ConfigReport())
		runner.AddObserver(reportPrinter{w: out, ctrl: exp.Controller()})
	}

	if metricsAddr != "" {
		collector := telemetry.NewCollector()
		runner.AddObserver(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "metrics server stopped", "addr", metricsAddr)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", "addr", metricsAddr, "path", "/metrics")
	}

	fmt.Fprintf(out, "running %s loop (%s, %d steps)...\n", cfg.Plant, cfg.Strategy, cfg.Steps)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if result == nil || result.StepsTaken == 0 {
		return runErr
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return errors.Join(runErr, err)
		}
		runID, err := st.Save(metadataFor(cfg), result)
		if err != nil {
			return errors.Join(runErr, fmt.Errorf("save run: %w", err))
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	fmt.Fprintf(out, "final measurement: %.6f\n", result.Measurements[len(result.Measurements)-1])
	printMetrics(out, result.Metrics)
	if resp, err := analysis.Step(result.Samples(), analysis.DefaultSettlingBand); err == nil {
		printResponse(out, resp)
	}

	return runErr
}

func metadataFor(cfg *config.Config) storage.RunMetadata {
	c := cfg.Controller
	return storage.RunMetadata{
		Plant:      cfg.Plant,
		Strategy:   cfg.Strategy,
		Integrator: cfg.Integrator,
		Gains:      pid.Gains{Kp: c.Kp, Ki: c.Ki, Kd: c.Kd, Ksat: c.Ksat},
		Limits:     pid.Limits{Upper: c.UpperLimit, Lower: c.LowerLimit},
		SampleTime: c.SampleTime,
		Setpoint:   cfg.Setpoint,
		Steps:      cfg.Steps,
	}
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, m[name])
	}
}

func printResponse(w io.Writer, r analysis.StepResponse) {
	fmt.Fprintln(w, "\nstep response:")
	fmt.Fprintf(w, "  rise time:     %.4fs\n", r.RiseTime)
	fmt.Fprintf(w, "  peak:          %.4f at %.4fs\n", r.Peak, r.PeakTime)
	fmt.Fprintf(w, "  overshoot:     %.2f%%\n", 100*r.Overshoot)
	if r.Settled {
		fmt.Fprintf(w, "  settling time: %.4fs\n", r.SettlingTime)
	} else {
		fmt.Fprintln(w, "  settling time: not settled")
	}
	fmt.Fprintf(w, "  steady error:  %.6f\n", r.SteadyStateError)
}

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run the control loop with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}

			exp := experiment.New(cfg.Experiment())
			if err := exp.Setup(experiment.NewRegistry(), nil, log.V(1)); err != nil {
				return err
			}

			tick := cfg.Pace
			if tick <= 0 && fps > 0 {
				tick = time.Second / time.Duration(fps)
			}
			m, err := viz.NewModel(exp.GetRunner(), exp.LoopConfig(), tick, cfg.Plant+" / "+cfg.Strategy)
			if err != nil {
				return err
			}
			return viz.Run(m)
		},
	}
	addLoopFlags(cmd)
	cmd.Flags().IntVar(&fps, "fps", 30, "samples per second when no pace is set")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [plant]",
		Short: "print the resolved controller configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.NewController().ConfigReport())
			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "written to %s\n", saveConfig)
			}
			return nil
		},
	}
	addLoopFlags(cmd)
	cmd.Flags().StringVar(&saveConfig, "save", "", "write the resolved configuration as yaml")
	return cmd
}
