package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/loop"
	"github.com/san-kum/pidctrl/internal/plant"
	"github.com/san-kum/pidctrl/pkg/pid"
)

type Config struct {
	Plant       string
	Integrator  string
	Strategy    string
	Gains       pid.Gains
	Limits      pid.Limits
	SampleTime  float64
	Setpoint    float64
	Steps       int
	Pace        time.Duration
	Initial     float64
	PlantParams map[string]float64
	Actuator    plant.ActuatorLimits
}

type Experiment struct {
	cfg        Config
	controller *pid.Controller
	runner     *loop.Runner
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the controller, plant and runner named by the config.
func (e *Experiment) Setup(reg *Registry, metrics []dynamo.Metric, log logr.Logger) error {
	sys, err := reg.GetPlant(e.cfg.Plant, e.cfg.PlantParams)
	if err != nil {
		return err
	}
	integ, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	strategy, err := reg.GetStrategy(e.cfg.Strategy)
	if err != nil {
		return err
	}

	g := e.cfg.Gains
	e.controller = pid.New(g.Kp, g.Ki, g.Kd, g.Ksat)
	e.controller.SetConfig(e.cfg.Limits.Upper, e.cfg.Limits.Lower, e.cfg.SampleTime)

	e.runner = loop.New(e.controller, strategy, sys, integ)
	e.runner.SetLogger(log)
	e.runner.SetActuatorLimits(e.cfg.Actuator)
	for _, m := range metrics {
		e.runner.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*loop.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, e.LoopConfig())
}

// LoopConfig is the runner configuration derived from the experiment.
func (e *Experiment) LoopConfig() loop.Config {
	var x0 dynamo.State
	if e.runner != nil {
		x0 = make(dynamo.State, e.runner.Plant().StateDim())
		x0[0] = e.cfg.Initial
	}
	return loop.Config{
		Setpoint:     e.cfg.Setpoint,
		Steps:        e.cfg.Steps,
		Pace:         e.cfg.Pace,
		InitialState: x0,
	}
}

func (e *Experiment) Config() Config              { return e.cfg }
func (e *Experiment) Controller() *pid.Controller { return e.controller }

// GetRunner returns the underlying runner for adding observers
func (e *Experiment) GetRunner() *loop.Runner {
	return e.runner
}
