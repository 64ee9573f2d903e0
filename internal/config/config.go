package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/internal/plant"
	"github.com/san-kum/pidctrl/pkg/pid"
)

const (
	DefaultKp         = 0.3
	DefaultKi         = 0.6
	DefaultKd         = 0.0
	DefaultUpperLimit = 1.0
	DefaultLowerLimit = -1.0
	DefaultSampleTime = 0.015
	DefaultSetpoint   = 10.0
	DefaultSteps      = 400
)

var (
	ErrSteps      = errors.New("config: steps must be positive")
	ErrPace       = errors.New("config: pace must not be negative")
	ErrPlant      = errors.New("config: unknown plant")
	ErrIntegrator = errors.New("config: unknown integrator")
)

type Config struct {
	Plant       string           `yaml:"plant"`
	Integrator  string           `yaml:"integrator"`
	Strategy    string           `yaml:"strategy"`
	Setpoint    float64          `yaml:"setpoint"`
	Steps       int              `yaml:"steps"`
	Pace        time.Duration    `yaml:"pace"`
	Controller  ControllerConfig `yaml:"controller"`
	PlantParams PlantConfig      `yaml:"plant_params"`
}

type ControllerConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Ksat       float64 `yaml:"ksat"`
	UpperLimit float64 `yaml:"upper_limit"`
	LowerLimit float64 `yaml:"lower_limit"`
	SampleTime float64 `yaml:"sample_time"`
}

type PlantConfig struct {
	Gain        float64 `yaml:"gain"`
	Tau         float64 `yaml:"tau"`
	Omega       float64 `yaml:"omega"`
	Zeta        float64 `yaml:"zeta"`
	Initial     float64 `yaml:"initial"`
	ActuatorMin float64 `yaml:"actuator_min"`
	ActuatorMax float64 `yaml:"actuator_max"`
}

// DefaultConfig reproduces the reference demo: a PI controller on a
// first-order lag with k=100 and tau=0.3.
func DefaultConfig() *Config {
	return &Config{
		Plant:      "first_order",
		Integrator: "euler",
		Strategy:   "none",
		Setpoint:   DefaultSetpoint,
		Steps:      DefaultSteps,
		Controller: ControllerConfig{
			Kp:         DefaultKp,
			Ki:         DefaultKi,
			Kd:         DefaultKd,
			UpperLimit: DefaultUpperLimit,
			LowerLimit: DefaultLowerLimit,
			SampleTime: DefaultSampleTime,
		},
		PlantParams: PlantConfig{
			Gain:  plant.DefaultGain,
			Tau:   plant.DefaultTau,
			Omega: plant.DefaultOmega,
			Zeta:  plant.DefaultZeta,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads the file at path on top of a copy of base. Fields
// absent from the file keep their base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate applies the strict checks the controller core leaves to its
// caller, plus the names the registry must resolve.
func (c *Config) Validate(reg *experiment.Registry) error {
	var errs []error

	ctrl := c.NewController()
	if err := ctrl.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Steps <= 0 {
		errs = append(errs, ErrSteps)
	}
	if c.Pace < 0 {
		errs = append(errs, ErrPace)
	}
	if _, err := reg.GetPlant(c.Plant, c.GetPlantParams()); err != nil {
		if errors.Is(err, dynamo.ErrParameterBounds) {
			errs = append(errs, err)
		} else {
			errs = append(errs, fmt.Errorf("%w: %q", ErrPlant, c.Plant))
		}
	}
	if _, err := reg.GetIntegrator(c.Integrator); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrIntegrator, c.Integrator))
	}
	if _, err := reg.GetStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NewController builds a configured controller from the file values.
func (c *Config) NewController() *pid.Controller {
	cc := c.Controller
	ctrl := pid.New(cc.Kp, cc.Ki, cc.Kd, cc.Ksat)
	ctrl.SetConfig(cc.UpperLimit, cc.LowerLimit, cc.SampleTime)
	return ctrl
}

func (c *Config) GetPlantParams() map[string]float64 {
	return map[string]float64{
		"gain":  c.PlantParams.Gain,
		"tau":   c.PlantParams.Tau,
		"omega": c.PlantParams.Omega,
		"zeta":  c.PlantParams.Zeta,
	}
}

func (c *Config) Experiment() experiment.Config {
	cc := c.Controller
	return experiment.Config{
		Plant:       c.Plant,
		Integrator:  c.Integrator,
		Strategy:    c.Strategy,
		Gains:       pid.Gains{Kp: cc.Kp, Ki: cc.Ki, Kd: cc.Kd, Ksat: cc.Ksat},
		Limits:      pid.Limits{Upper: cc.UpperLimit, Lower: cc.LowerLimit},
		SampleTime:  cc.SampleTime,
		Setpoint:    c.Setpoint,
		Steps:       c.Steps,
		Pace:        c.Pace,
		Initial:     c.PlantParams.Initial,
		PlantParams: c.GetPlantParams(),
		Actuator: plant.ActuatorLimits{
			Min: c.PlantParams.ActuatorMin,
			Max: c.PlantParams.ActuatorMax,
		},
	}
}
