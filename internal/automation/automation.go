// Package automation runs batches of control loop experiments: scripted
// scenarios, anti-windup strategy comparisons and Monte Carlo robustness
// trials over perturbed plants.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidctrl/internal/analysis"
	"github.com/san-kum/pidctrl/internal/config"
	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/internal/loop"
	"github.com/san-kum/pidctrl/internal/metrics"
	"github.com/san-kum/pidctrl/pkg/pid"
)

var (
	ErrTrials       = errors.New("automation: trial count must be positive")
	ErrPerturbation = errors.New("automation: perturbation must be in [0, 1)")
	ErrNoBase       = errors.New("automation: missing base config")
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset ("plant/name") or the default config
// and applies the fields under set on top of it.
type ScenarioRun struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Set    yaml.Node `yaml:"set"`
}

// Outcome is one finished run.
type Outcome struct {
	Name     string
	Config   *config.Config
	Result   *loop.Result
	Response analysis.StepResponse
	Err      error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &scenario, nil
}

// Resolve builds the configuration of a run.
func (r ScenarioRun) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		plant, name, ok := strings.Cut(r.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want plant/name", r.Preset)
		}
		if cfg = config.GetPreset(plant, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}
	if !r.Set.IsZero() {
		if err := r.Set.Decode(cfg); err != nil {
			return nil, fmt.Errorf("set: %w", err)
		}
	}
	return cfg, nil
}

// RunScenario executes all runs in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, log logr.Logger) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Runs), "name", name)

		cfg, err := run.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		out := Execute(ctx, name, cfg, reg, log)
		outcomes = append(outcomes, out)
		if out.Err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, name, out.Err)
		}
	}
	return outcomes, nil
}

// Execute validates cfg, runs it without pacing and analyses the
// response.
func Execute(ctx context.Context, name string, cfg *config.Config, reg *experiment.Registry, log logr.Logger) Outcome {
	out := Outcome{Name: name, Config: cfg}
	if err := cfg.Validate(reg); err != nil {
		out.Err = err
		return out
	}

	ecfg := cfg.Experiment()
	ecfg.Pace = 0
	exp := experiment.New(ecfg)
	if err := exp.Setup(reg, metrics.Default(cfg.Controller.SampleTime), log); err != nil {
		out.Err = err
		return out
	}

	out.Result, out.Err = exp.Run(ctx)
	if out.Result != nil {
		out.Response, _ = analysis.Step(out.Result.Samples(), analysis.DefaultSettlingBand)
	}
	return out
}

// CompareStrategies runs base once per anti-windup strategy, concurrently,
// and returns the outcomes in pid.Strategies order.
func CompareStrategies(ctx context.Context, base *config.Config, reg *experiment.Registry, log logr.Logger) []Outcome {
	strategies := pid.Strategies()
	outcomes := make([]Outcome, len(strategies))

	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(idx int, s pid.Strategy) {
			defer wg.Done()
			cfg := *base
			cfg.Strategy = s.String()
			outcomes[idx] = Execute(ctx, s.String(), &cfg, reg, log.WithValues("strategy", s.String()))
		}(i, s)
	}
	wg.Wait()

	return outcomes
}

// MonteCarloConfig perturbs every plant parameter of Base by a uniform
// factor in [1-Perturbation, 1+Perturbation] per trial.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int
	Plant   config.PlantConfig
	Stable  bool // finished without diverging
	Settled bool
	IAE     float64
	Err     error
}

func (mc *MonteCarloConfig) Validate() error {
	var errs []error
	if mc.Base == nil {
		errs = append(errs, ErrNoBase)
	}
	if mc.NumTrials <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrTrials, mc.NumTrials))
	}
	if !(mc.Perturbation >= 0 && mc.Perturbation < 1) {
		errs = append(errs, fmt.Errorf("%w: %g", ErrPerturbation, mc.Perturbation))
	}
	return errors.Join(errs...)
}

// RunMonteCarlo executes the trials concurrently. Perturbations are drawn
// up front so a seed always yields the same plants.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, log logr.Logger) ([]MonteCarloResult, error) {
	if err := mc.Validate(); err != nil {
		return nil, err
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	perturb := func(v float64) float64 {
		return v * (1 + (rng.Float64()*2-1)*mc.Perturbation)
	}

	cfgs := make([]config.Config, mc.NumTrials)
	for i := range cfgs {
		cfgs[i] = *mc.Base
		p := &cfgs[i].PlantParams
		p.Gain, p.Tau = perturb(p.Gain), perturb(p.Tau)
		p.Omega, p.Zeta = perturb(p.Omega), perturb(p.Zeta)
	}

	results := make([]MonteCarloResult, mc.NumTrials)
	var wg sync.WaitGroup
	for i := range cfgs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			out := Execute(ctx, fmt.Sprintf("trial-%d", idx), &cfgs[idx], reg, logr.Discard())
			r := MonteCarloResult{TrialID: idx, Plant: cfgs[idx].PlantParams, Err: out.Err}
			if out.Err == nil {
				final := out.Result.Measurements[len(out.Result.Measurements)-1]
				r.Stable = math.Abs(final) < 1e6
				r.Settled = out.Response.Settled
				r.IAE = out.Result.Metrics["iae"]
			}
			results[idx] = r
		}(i)
	}
	wg.Wait()

	log.Info("monte carlo finished", "trials", mc.NumTrials, "seed", seed)
	return results, nil
}

// MonteCarloStats counts stable and settled trials.
func MonteCarloStats(results []MonteCarloResult) (stable, settled int) {
	for _, r := range results {
		if r.Stable {
			stable++
		}
		if r.Settled {
			settled++
		}
	}
	return
}
