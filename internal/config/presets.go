package config

import (
	"sort"
	"time"
)

var Presets = map[string]map[string]*Config{
	"first_order": {
		"example": {
			Plant: "first_order", Integrator: "euler", Strategy: "none",
			Setpoint: 10, Steps: 400, Pace: 500 * time.Millisecond,
			Controller:  ControllerConfig{Kp: 0.3, Ki: 0.6, UpperLimit: 1, LowerLimit: -1, SampleTime: 0.015},
			PlantParams: PlantConfig{Gain: 100, Tau: 0.3},
		},
		"aggressive": {
			Plant: "first_order", Integrator: "euler", Strategy: "clamp",
			Setpoint: 10, Steps: 400,
			Controller:  ControllerConfig{Kp: 0.35, Ki: 1.2, UpperLimit: 1, LowerLimit: -1, SampleTime: 0.015},
			PlantParams: PlantConfig{Gain: 100, Tau: 0.3},
		},
		"windup": {
			Plant: "first_order", Integrator: "euler", Strategy: "backcalc",
			Setpoint: 10, Steps: 800,
			Controller:  ControllerConfig{Kp: 0.3, Ki: 0.6, Ksat: 5, UpperLimit: 0.15, LowerLimit: -0.15, SampleTime: 0.015},
			PlantParams: PlantConfig{Gain: 100, Tau: 0.3},
		},
	},
	"second_order": {
		"underdamped": {
			Plant: "second_order", Integrator: "rk4", Strategy: "condint",
			Setpoint: 1, Steps: 1000,
			Controller:  ControllerConfig{Kp: 2.0, Ki: 1.0, Kd: 0.2, UpperLimit: 5, LowerLimit: -5, SampleTime: 0.01},
			PlantParams: PlantConfig{Gain: 1, Omega: 2, Zeta: 0.2},
		},
	},
}

func GetPreset(plant, name string) *Config {
	if presets, ok := Presets[plant]; ok {
		if cfg, ok := presets[name]; ok {
			c := *cfg
			return &c
		}
	}
	return nil
}

func ListPresets(plant string) []string {
	presets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
