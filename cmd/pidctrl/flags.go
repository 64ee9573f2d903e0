package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidctrl/internal/config"
	"github.com/san-kum/pidctrl/internal/experiment"
)

var (
	configFile string
	preset     string

	integrator string
	strategy   string
	setpoint   float64
	steps      int
	pace       time.Duration

	kp, ki, kd, ksat float64
	upper, lower     float64
	sampleTime       float64

	gain, tau, omega, zeta   float64
	initial                  float64
	actuatorMin, actuatorMax float64
)

// addLoopFlags registers the flags that mirror the YAML config fields.
func addLoopFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()

	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration for the plant")

	f.StringVar(&integrator, "integrator", def.Integrator, "integrator")
	f.StringVar(&strategy, "strategy", def.Strategy, "anti-windup strategy")
	f.Float64Var(&setpoint, "setpoint", def.Setpoint, "setpoint")
	f.IntVar(&steps, "steps", def.Steps, "number of samples")
	f.DurationVar(&pace, "pace", def.Pace, "wall-clock wait between samples")

	f.Float64Var(&kp, "kp", def.Controller.Kp, "proportional gain")
	f.Float64Var(&ki, "ki", def.Controller.Ki, "integral gain")
	f.Float64Var(&kd, "kd", def.Controller.Kd, "derivative gain")
	f.Float64Var(&ksat, "ksat", def.Controller.Ksat, "anti-windup gain")
	f.Float64Var(&upper, "upper", def.Controller.UpperLimit, "output upper limit")
	f.Float64Var(&lower, "lower", def.Controller.LowerLimit, "output lower limit")
	f.Float64Var(&sampleTime, "ts", def.Controller.SampleTime, "sample time in seconds")

	f.Float64Var(&gain, "gain", def.PlantParams.Gain, "plant static gain")
	f.Float64Var(&tau, "tau", def.PlantParams.Tau, "first order time constant")
	f.Float64Var(&omega, "omega", def.PlantParams.Omega, "second order natural frequency")
	f.Float64Var(&zeta, "zeta", def.PlantParams.Zeta, "second order damping ratio")
	f.Float64Var(&initial, "initial", def.PlantParams.Initial, "initial plant output")
	f.Float64Var(&actuatorMin, "actuator-min", 0, "actuator lower bound")
	f.Float64Var(&actuatorMax, "actuator-max", 0, "actuator upper bound (disabled unless above min)")
}

// buildConfig resolves the loop configuration. Explicit flags override the
// config file, which overrides the preset, which overrides the defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Plant = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Plant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Plant))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if len(args) > 0 && loaded.Plant != args[0] {
			return nil, fmt.Errorf("config %s is for plant %s, not %s", configFile, loaded.Plant, args[0])
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	str := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	num := func(name string, dst *float64, v float64) {
		if changed(name) {
			*dst = v
		}
	}

	str("integrator", &cfg.Integrator, integrator)
	str("strategy", &cfg.Strategy, strategy)
	num("setpoint", &cfg.Setpoint, setpoint)
	if changed("steps") {
		cfg.Steps = steps
	}
	if changed("pace") {
		cfg.Pace = pace
	}

	c := &cfg.Controller
	num("kp", &c.Kp, kp)
	num("ki", &c.Ki, ki)
	num("kd", &c.Kd, kd)
	num("ksat", &c.Ksat, ksat)
	num("upper", &c.UpperLimit, upper)
	num("lower", &c.LowerLimit, lower)
	num("ts", &c.SampleTime, sampleTime)

	p := &cfg.PlantParams
	num("gain", &p.Gain, gain)
	num("tau", &p.Tau, tau)
	num("omega", &p.Omega, omega)
	num("zeta", &p.Zeta, zeta)
	num("initial", &p.Initial, initial)
	num("actuator-min", &p.ActuatorMin, actuatorMin)
	num("actuator-max", &p.ActuatorMax, actuatorMax)

	if err := cfg.Validate(experiment.NewRegistry()); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
