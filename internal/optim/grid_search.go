package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/pidctrl/internal/experiment"
	"github.com/san-kum/pidctrl/pkg/pid"
)

var (
	ErrEmptyGrid   = errors.New("optim: empty grid")
	ErrNoCandidate = errors.New("optim: no candidate produced a finite metric")
)

// BuildFunc returns a ready-to-run experiment for one grid point.
type BuildFunc func(g pid.Gains) (*experiment.Experiment, error)

// GridSearch evaluates every (Kp, Ki, Kd) combination. Ksat is carried
// through unchanged from Base.
type GridSearch struct {
	Kp, Ki, Kd []float64
	Base       pid.Gains
	Workers    int
}

type Candidate struct {
	Gains pid.Gains
	Value float64
	Err   error
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{Kp: kp, Ki: ki, Kd: kd}
}

// Points lists the grid in search order: Kd varies fastest.
func (g *GridSearch) Points() []pid.Gains {
	kp, ki, kd := axis(g.Kp, g.Base.Kp), axis(g.Ki, g.Base.Ki), axis(g.Kd, g.Base.Kd)
	points := make([]pid.Gains, 0, len(kp)*len(ki)*len(kd))
	for _, p := range kp {
		for _, i := range ki {
			for _, d := range kd {
				points = append(points, pid.Gains{Kp: p, Ki: i, Kd: d, Ksat: g.Base.Ksat})
			}
		}
	}
	return points
}

func axis(vals []float64, def float64) []float64 {
	if len(vals) == 0 {
		return []float64{def}
	}
	return vals
}

// Search runs every grid point and returns the gains minimising metric.
// Ties go to the earliest point; NaN never wins.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metric string) (pid.Gains, float64, error) {
	cands, err := g.Evaluate(ctx, build, metric)
	if err != nil {
		return pid.Gains{}, math.NaN(), err
	}

	bestIdx := -1
	best := math.Inf(1)
	for i, c := range cands {
		if c.Err != nil || math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			continue
		}
		if bestIdx < 0 || c.Value < best {
			bestIdx, best = i, c.Value
		}
	}
	if bestIdx < 0 {
		return pid.Gains{}, math.NaN(), ErrNoCandidate
	}
	return cands[bestIdx].Gains, best, ctx.Err()
}

// Evaluate runs every grid point on a bounded worker pool and returns the
// candidates in grid order.
func (g *GridSearch) Evaluate(ctx context.Context, build BuildFunc, metric string) ([]Candidate, error) {
	points := g.Points()
	if len(g.Kp)+len(g.Ki)+len(g.Kd) == 0 {
		return nil, ErrEmptyGrid
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(points) {
		workers = len(points)
	}

	cands := make([]Candidate, len(points))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				cands[idx] = evaluate(ctx, build, points[idx], metric)
			}
		}()
	}

feed:
	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(points); j++ {
				cands[j] = Candidate{Gains: points[j], Value: math.NaN(), Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return cands, nil
}

func evaluate(ctx context.Context, build BuildFunc, gains pid.Gains, metric string) Candidate {
	c := Candidate{Gains: gains, Value: math.NaN()}

	exp, err := build(gains)
	if err != nil {
		c.Err = err
		return c
	}
	result, err := exp.Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}
	val, ok := result.Metrics[metric]
	if !ok {
		c.Err = fmt.Errorf("optim: unknown metric %q", metric)
		return c
	}
	c.Value = val
	return c
}
