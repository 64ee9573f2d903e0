package loop

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-logr/zapr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/pidctrl/internal/dynamo"
	"github.com/san-kum/pidctrl/internal/integrators"
	"github.com/san-kum/pidctrl/internal/metrics"
	"github.com/san-kum/pidctrl/internal/plant"
	"github.com/san-kum/pidctrl/pkg/pid"
)

func exampleController() *pid.Controller {
	c := pid.New(0.3, 0.6, 0.0, 0.0)
	c.SetConfig(1.0, -1.0, 0.015)
	return c
}

func newExampleRunner(t *testing.T, s pid.Strategy) *Runner {
	r := New(exampleController(), s, plant.NewFirstOrder(plant.DefaultGain, plant.DefaultTau), integrators.NewEuler())
	r.SetLogger(zapr.NewLogger(zaptest.NewLogger(t)))
	return r
}

type counter struct{ n int }

func (c *counter) OnSample(s dynamo.Sample) { c.n++ }

// blowup returns NaN from its (at+1)th derivative evaluation on.
type blowup struct {
	at    int
	calls int
}

func (b *blowup) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	b.calls++
	if b.calls > b.at {
		return dynamo.State{math.NaN()}
	}
	return dynamo.State{1}
}

func (b *blowup) Output(x dynamo.State) float64 { return x[0] }
func (b *blowup) StateDim() int                 { return 1 }
func (b *blowup) ControlDim() int               { return 1 }

func TestRunExampleConverges(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	obs := &counter{}
	r.AddObserver(obs)
	for _, m := range metrics.Default(0.015) {
		r.AddMetric(m)
	}

	result, err := r.Run(context.Background(), Config{Setpoint: 10, Steps: 400})
	require.NoError(t, err)

	assert.Equal(t, 400, result.StepsTaken)
	assert.Equal(t, 400, obs.n)
	assert.Len(t, result.Times, 400)

	assert.Equal(t, 1.0, result.Outputs[0])
	assert.InDelta(t, 3.09, result.RawOutputs[0], 1e-9)
	assert.InDelta(t, 5.0, result.Measurements[1], 1e-9)
	assert.InDelta(t, 10.0, result.Measurements[len(result.Measurements)-1], 1e-3)
	assert.InDelta(t, 0.015*399, result.Times[399], 1e-9)

	for _, out := range result.Outputs {
		assert.LessOrEqual(t, out, 1.0)
		assert.GreaterOrEqual(t, out, -1.0)
	}

	assert.Contains(t, result.Metrics, "iae")
	assert.Greater(t, result.Metrics["overshoot"], 0.0)
	assert.Greater(t, result.Metrics["saturation_ratio"], 0.0)
}

func TestRunIsRepeatable(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	cfg := Config{Setpoint: 10, Steps: 50}

	first, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Measurements, second.Measurements)
	assert.Equal(t, first.Outputs, second.Outputs)
}

func TestRunRejectsDegenerateConfig(t *testing.T) {
	c := pid.New(1, 1, 1, 0)
	r := New(c, pid.None, plant.NewFirstOrder(1, 1), integrators.NewEuler())

	_, err := r.Run(context.Background(), Config{Setpoint: 1, Steps: 10})
	assert.True(t, errors.Is(err, pid.ErrSampleTime))

	c.SetConfig(1, -1, 0.01)
	_, err = r.Run(context.Background(), Config{Setpoint: 1})
	assert.ErrorIs(t, err, ErrNoSteps)

	_, err = r.Run(context.Background(), Config{Setpoint: 1, Steps: 5, InitialState: dynamo.State{0, 0}})
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestRunStopsOnDivergence(t *testing.T) {
	r := New(exampleController(), pid.None, &blowup{at: 3}, integrators.NewEuler())

	result, err := r.Run(context.Background(), Config{Setpoint: 10, Steps: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrUnstable)

	var simErr *dynamo.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, 3, simErr.Step)
	assert.Equal(t, 4, result.StepsTaken)
}

func TestRunHonoursCancellation(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, Config{Setpoint: 10, Steps: 10, Pace: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.StepsTaken)
}

func TestRunPaced(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	start := time.Now()

	result, err := r.Run(context.Background(), Config{Setpoint: 10, Steps: 3, Pace: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 3, result.StepsTaken)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestTrackingBoundsIntegralUnderActuatorLimits(t *testing.T) {
	limits := plant.ActuatorLimits{Min: 0, Max: 0.05}
	cfg := Config{Setpoint: 10, Steps: 400}

	plain := newExampleRunner(t, pid.None)
	plain.SetActuatorLimits(limits)
	plainResult, err := plain.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Greater(t, plain.Controller().Integral(), 10.0)
	last := plainResult.Samples()[len(plainResult.Times)-1]
	assert.Equal(t, 1.0, last.Output)
	assert.Equal(t, 0.05, last.Applied)

	c := pid.New(0.3, 0.6, 0.0, 10.0)
	c.SetConfig(1.0, -1.0, 0.015)
	tracked := New(c, pid.Tracking, plant.NewFirstOrder(plant.DefaultGain, plant.DefaultTau), integrators.NewEuler())
	tracked.SetActuatorLimits(limits)
	result, err := tracked.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Less(t, math.Abs(c.Integral()), 5.0)
	assert.InDelta(t, 0.05, result.Applied[len(result.Applied)-1], 1e-9)
}

func TestNextBeforeStart(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	_, err := r.Next()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Zero(t, r.Measurement())
}

func TestSetpointChange(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	require.NoError(t, r.Start(Config{Setpoint: 10}))

	s, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Setpoint)

	r.SetSetpoint(-2)
	s, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, -2.0, s.Setpoint)
	assert.InDelta(t, 0.015, r.Time()-s.Time, 1e-12)
}

func TestResultSamples(t *testing.T) {
	r := newExampleRunner(t, pid.None)
	result, err := r.Run(context.Background(), Config{Setpoint: 10, Steps: 5})
	require.NoError(t, err)

	samples := result.Samples()
	require.Len(t, samples, 5)
	assert.Equal(t, result.Measurements[2], samples[2].Measurement)
	assert.Equal(t, 4, samples[4].Step)
}
