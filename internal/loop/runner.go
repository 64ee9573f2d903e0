package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/plant"
	"github.com/san-kum/pidctrl/pkg/pid"
)

var (
	ErrNoSteps    = errors.New("loop: steps must be positive")
	ErrNotStarted = errors.New("loop: runner not started")
)

type Config struct {
	Setpoint     float64
	Steps        int
	Pace         time.Duration
	InitialState dynamo.State
}

type Result struct {
	Times        []float64
	Setpoints    []float64
	Measurements []float64
	Outputs      []float64
	RawOutputs   []float64
	Applied      []float64
	Metrics      map[string]float64
	StepsTaken   int
}

// Samples rebuilds the per-step samples from the columns.
func (r *Result) Samples() []dynamo.Sample {
	out := make([]dynamo.Sample, len(r.Times))
	for i := range r.Times {
		out[i] = dynamo.Sample{
			Step:        i,
			Time:        r.Times[i],
			Setpoint:    r.Setpoints[i],
			Measurement: r.Measurements[i],
			Output:      r.Outputs[i],
			Raw:         r.RawOutputs[i],
			Applied:     r.Applied[i],
		}
	}
	return out
}

func (r *Result) append(s dynamo.Sample) {
	r.Times = append(r.Times, s.Time)
	r.Setpoints = append(r.Setpoints, s.Setpoint)
	r.Measurements = append(r.Measurements, s.Measurement)
	r.Outputs = append(r.Outputs, s.Output)
	r.RawOutputs = append(r.RawOutputs, s.Raw)
	r.Applied = append(r.Applied, s.Applied)
	r.StepsTaken++
}

type Runner struct {
	ctrl       *pid.Controller
	strategy   pid.Strategy
	plant      dynamo.System
	integrator dynamo.Integrator
	actuator   plant.ActuatorLimits
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        logr.Logger

	started  bool
	x        dynamo.State
	k        int
	setpoint float64
	applied  float64
}

func New(ctrl *pid.Controller, strategy pid.Strategy, sys dynamo.System, integrator dynamo.Integrator) *Runner {
	return &Runner{
		ctrl:       ctrl,
		strategy:   strategy,
		plant:      sys,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        logr.Discard(),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

// SetLogger attaches l under the name "loop".
func (r *Runner) SetLogger(l logr.Logger) {
	r.log = l.WithName("loop")
}

// SetActuatorLimits bounds the value actually applied to the plant.
func (r *Runner) SetActuatorLimits(a plant.ActuatorLimits) {
	r.actuator = a
}

// SetSetpoint changes the setpoint from the next sample on.
func (r *Runner) SetSetpoint(v float64) {
	r.setpoint = v
}

func (r *Runner) Setpoint() float64 {
	return r.setpoint
}

func (r *Runner) Strategy() pid.Strategy {
	return r.strategy
}

func (r *Runner) Controller() *pid.Controller {
	return r.ctrl
}

func (r *Runner) Plant() dynamo.System {
	return r.plant
}

// Time is the simulated time of the next sample.
func (r *Runner) Time() float64 {
	return float64(r.k) * r.ctrl.SampleTime()
}

// Measurement is the plant output the next sample will read.
func (r *Runner) Measurement() float64 {
	if !r.started {
		return 0
	}
	return r.plant.Output(r.x)
}

// Start validates the configuration and resets the controller, the plant
// state and the metrics.
func (r *Runner) Start(cfg Config) error {
	if err := r.ctrl.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	x := cfg.InitialState
	if x == nil {
		x = make(dynamo.State, r.plant.StateDim())
	}
	if len(x) != r.plant.StateDim() {
		return fmt.Errorf("%w: initial state has %d values, plant needs %d",
			dynamo.ErrDimensionMismatch, len(x), r.plant.StateDim())
	}

	r.ctrl.Reset()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.x = x.Clone()
	r.k = 0
	r.setpoint = cfg.Setpoint
	r.applied = 0
	r.started = true
	return nil
}

// Next runs one sample.
func (r *Runner) Next() (dynamo.Sample, error) {
	if !r.started {
		return dynamo.Sample{}, ErrNotStarted
	}

	ts := r.ctrl.SampleTime()
	t := float64(r.k) * ts
	meas := r.plant.Output(r.x)

	var u float64
	if r.strategy == pid.Tracking {
		u = r.ctrl.StepTracking(r.setpoint, meas, r.applied)
	} else {
		var err error
		if u, err = r.ctrl.Step(r.strategy, r.setpoint, meas); err != nil {
			return dynamo.Sample{}, err
		}
	}

	s := dynamo.Sample{
		Step:        r.k,
		Time:        t,
		Setpoint:    r.setpoint,
		Measurement: meas,
		Output:      u,
		Raw:         r.ctrl.Telemetry().Output,
		Applied:     r.actuator.Apply(u),
	}
	r.applied = s.Applied

	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, obs := range r.observers {
		obs.OnSample(s)
	}
	r.log.V(1).Info("sample", "step", s.Step, "t", t, "measurement", meas, "output", u, "raw", s.Raw)

	next := r.integrator.Step(r.plant, r.x, dynamo.Control{r.applied}, t, ts)
	if !next.IsValid() {
		return s, &dynamo.SimulationError{Step: r.k, Time: t, State: next, Wrapped: dynamo.ErrUnstable}
	}
	r.x = next
	r.k++

	return s, nil
}

// Run starts the runner and takes cfg.Steps samples. On cancellation or
// divergence the partial result is returned with the error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Steps <= 0 {
		return nil, ErrNoSteps
	}
	if err := r.Start(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Times:        make([]float64, 0, cfg.Steps),
		Setpoints:    make([]float64, 0, cfg.Steps),
		Measurements: make([]float64, 0, cfg.Steps),
		Outputs:      make([]float64, 0, cfg.Steps),
		RawOutputs:   make([]float64, 0, cfg.Steps),
		Applied:      make([]float64, 0, cfg.Steps),
		Metrics:      make(map[string]float64),
	}

	var tick <-chan time.Time
	if cfg.Pace > 0 {
		ticker := time.NewTicker(cfg.Pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.log.Info("run started", "strategy", r.strategy.String(), "steps", cfg.Steps,
		"setpoint", cfg.Setpoint, "ts", r.ctrl.SampleTime(), "pace", cfg.Pace)

	var runErr error
	for i := 0; i < cfg.Steps; i++ {
		if tick != nil && i > 0 {
			select {
			case <-ctx.Done():
				runErr = ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				runErr = ctx.Err()
			default:
			}
		}
		if runErr != nil {
			break
		}

		s, err := r.Next()
		if err != nil {
			var simErr *dynamo.SimulationError
			if errors.As(err, &simErr) {
				result.append(s)
			}
			runErr = err
			break
		}
		result.append(s)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		r.log.Error(runErr, "run stopped", "steps", result.StepsTaken)
		return result, runErr
	}
	r.log.Info("run finished", "steps", result.StepsTaken, "final", r.plant.Output(r.x))
	return result, nil
}
