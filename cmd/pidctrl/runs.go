package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidctrl/internal/analysis"
	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/export"
	"github.com/san-kum/pidctrl/internal/storage"
	"github.com/san-kum/pidctrl/internal/viz"
)

var (
	outPath   string
	svgWidth  int
	svgHeight int
	theme     string
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPLANT\tSTRATEGY\tTIME\tSTEPS\tTS\tKP\tKI\tKD\tIAE")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%g\t%g\t%g\t%.4f\n",
					run.ID,
					run.Plant,
					run.Strategy,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Steps,
					run.SampleTime,
					run.Gains.Kp,
					run.Gains.Ki,
					run.Gains.Kd,
					run.Metrics["iae"],
				)
			}
			return w.Flush()
		},
	}
}

func loadRun(runID string) (*storage.RunMetadata, []dynamo.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}

			sp := make([]float64, len(samples))
			meas := make([]float64, len(samples))
			outs := make([]float64, len(samples))
			for i, s := range samples {
				sp[i], meas[i], outs[i] = s.Setpoint, s.Measurement, s.Output
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run: %s\n", meta.ID)
			fmt.Fprintf(out, "plant: %s, strategy: %s\n", meta.Plant, meta.Strategy)
			fmt.Fprintf(out, "samples: %d\n\n", len(samples))

			t := viz.GetTheme(theme)
			if chart := viz.ResponseChart(sp, meas, 80, 12, t); chart != "" {
				fmt.Fprintln(out, chart)
				fmt.Fprintln(out)
			}
			if chart := viz.OutputChart(outs, 80, 6, t); chart != "" {
				fmt.Fprintln(out, chart)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "chart color theme")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "analysis: %s\n", meta.ID)
			fmt.Fprintf(out, "plant: %s, strategy: %s\n", meta.Plant, meta.Strategy)

			resp, err := analysis.Step(samples, analysis.DefaultSettlingBand)
			if err != nil {
				return err
			}
			printResponse(out, resp)

			errs := make([]float64, len(samples))
			for i, s := range samples {
				errs[i] = s.Error()
			}
			if f := analysis.DominantFrequency(errs, meta.SampleTime); f > 0 {
				fmt.Fprintf(out, "  ringing:       %.3f Hz\n", f)
			}
			printMetrics(out, meta.Metrics)
			return nil
		},
	}
}

// output returns stdout, or the file named by --out.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCmd(use, short string, write func(w io.Writer, runID string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeFn, err := output(cmd)
			if err != nil {
				return err
			}
			if err := write(w, args[0]); err != nil {
				_ = closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	return exportCmd("export-csv [run_id]", "export run samples to CSV", func(w io.Writer, runID string) error {
		return storage.New(dataDir).ExportCSV(w, runID)
	})
}

func newExportJSONCmd() *cobra.Command {
	return exportCmd("export-json [run_id]", "export run metadata and samples to JSON", func(w io.Writer, runID string) error {
		return storage.New(dataDir).ExportJSON(w, runID)
	})
}

func newExportSVGCmd() *cobra.Command {
	cmd := exportCmd("export-svg [run_id]", "render a run's response as SVG", func(w io.Writer, runID string) error {
		_, samples, err := loadRun(runID)
		if err != nil {
			return err
		}
		return export.ResponseSVG(w, samples, svgWidth, svgHeight)
	})
	cmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	cmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	return cmd
}
