package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

// DefaultSettlingBand is the 2% settling criterion.
const DefaultSettlingBand = 0.02

var ErrNoStep = errors.New("analysis: no setpoint step to analyse")

// StepResponse summarises a response to a step from the initial
// measurement to the final setpoint.
type StepResponse struct {
	Initial   float64
	Target    float64
	RiseTime  float64 // 10% to 90% of the step, NaN if never reached
	Peak      float64
	PeakTime  float64
	Overshoot float64 // fraction of the step beyond the target

	Settled      bool
	SettlingTime float64

	SteadyStateError float64
}

// Step analyses samples as a single step response. Times are taken from
// the samples. band is the settling tolerance as a fraction of the step.
func Step(samples []dynamo.Sample, band float64) (StepResponse, error) {
	if len(samples) < 2 {
		return StepResponse{}, ErrNoStep
	}
	last := samples[len(samples)-1]
	r := StepResponse{
		Initial: samples[0].Measurement,
		Target:  last.Setpoint,
	}
	step := r.Target - r.Initial
	if step == 0 {
		return r, ErrNoStep
	}
	dir := math.Copysign(1, step)

	// progress is the normalised response, 0 at start and 1 on target.
	progress := func(y float64) float64 { return (y - r.Initial) / step }

	t10, t90 := math.NaN(), math.NaN()
	r.Peak, r.PeakTime = r.Initial, samples[0].Time
	for _, s := range samples {
		p := progress(s.Measurement)
		if math.IsNaN(t10) && p >= 0.1 {
			t10 = s.Time
		}
		if math.IsNaN(t90) && p >= 0.9 {
			t90 = s.Time
		}
		if dir*(s.Measurement-r.Peak) > 0 {
			r.Peak, r.PeakTime = s.Measurement, s.Time
		}
	}
	r.RiseTime = t90 - t10
	r.Overshoot = math.Max(0, progress(r.Peak)-1)

	tol := band * math.Abs(step)
	r.Settled = math.Abs(last.Measurement-r.Target) <= tol
	if r.Settled {
		r.SettlingTime = samples[0].Time
		for i := len(samples) - 1; i >= 0; i-- {
			if math.Abs(samples[i].Measurement-r.Target) > tol {
				r.SettlingTime = samples[i+1].Time
				break
			}
		}
	} else {
		r.SettlingTime = math.NaN()
	}

	r.SteadyStateError = r.Target - last.Measurement
	return r, nil
}
