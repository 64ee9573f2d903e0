package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/integrators"
	"github.com/san-kum/pidctrl/internal/plant"
	"github.com/san-kum/pidctrl/pkg/pid"
)

type Registry struct {
	plants      map[string]func(map[string]float64) (dynamo.System, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func(map[string]float64) (dynamo.System, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.plants["first_order"] = func(params map[string]float64) (dynamo.System, error) {
		p := plant.NewFirstOrder(plant.DefaultGain, plant.DefaultTau)
		return p, applyParams(p, params, "gain", "tau")
	}
	r.plants["second_order"] = func(params map[string]float64) (dynamo.System, error) {
		p := plant.NewSecondOrder(1.0, plant.DefaultOmega, plant.DefaultZeta)
		return p, applyParams(p, params, "gain", "omega", "zeta")
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["heun"] = func() dynamo.Integrator { return integrators.NewHeun() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

// applyParams sets the named parameters present in params. Missing names
// keep the plant's defaults; other keys are ignored.
func applyParams(p dynamo.Configurable, params map[string]float64, names ...string) error {
	for _, name := range names {
		v, ok := params[name]
		if !ok {
			continue
		}
		if err := p.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) GetPlant(name string, params map[string]float64) (dynamo.System, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	sys, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("plant %s: %w", name, err)
	}
	return sys, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetStrategy(name string) (pid.Strategy, error) {
	return pid.ParseStrategy(name)
}

func (r *Registry) ListPlants() []string {
	return sortedKeys(r.plants)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListStrategies() []string {
	names := make([]string, 0, len(pid.Strategies()))
	for _, s := range pid.Strategies() {
		names = append(names, s.String())
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
