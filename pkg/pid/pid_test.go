package pid_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidctrl/pkg/pid"
)

const tol = 1e-9

var _ = Describe("Controller", func() {
	var c *pid.Controller

	Describe("New", func() {
		It("stores the gains and zeroes everything else", func() {
			c = pid.New(1, 2, 3, 4)
			Expect(c.Gains()).To(Equal(pid.Gains{Kp: 1, Ki: 2, Kd: 3, Ksat: 4}))
			Expect(c.Limits()).To(Equal(pid.Limits{}))
			Expect(c.SampleTime()).To(BeZero())
			Expect(c.Integral()).To(BeZero())
			Expect(c.Telemetry()).To(Equal(pid.Telemetry{}))
		})
	})

	Describe("SetConstants and SetConfig", func() {
		It("overwrites without validating", func() {
			c = pid.New(1, 1, 1, 1)
			c.SetConstants(-1, 0, 5, 0.5)
			c.SetConfig(-1, 1, -0.1)
			Expect(c.Gains()).To(Equal(pid.Gains{Kp: -1, Ki: 0, Kd: 5, Ksat: 0.5}))
			Expect(c.Limits()).To(Equal(pid.Limits{Upper: -1, Lower: 1}))
			Expect(c.SampleTime()).To(Equal(-0.1))
		})

		It("applies new gains on the next step", func() {
			c = pid.New(1, 0, 0, 0)
			c.SetConfig(100, -100, 0.1)
			Expect(c.StepNoAW(2, 0)).To(BeNumerically("~", 2, tol))
			c.SetConstants(3, 0, 0, 0)
			Expect(c.StepNoAW(2, 0)).To(BeNumerically("~", 6, tol))
		})
	})

	Describe("StepNoAW", func() {
		It("is purely proportional with zero Ki and Kd", func() {
			c = pid.New(2.5, 0, 0, 0)
			c.SetConfig(1e6, -1e6, 0.01)
			for _, pair := range [][2]float64{{10, 4}, {-3, 1}, {0, 0}, {7.5, 7.5}} {
				c.StepNoAW(pair[0], pair[1])
				Expect(c.Telemetry().Output).To(BeNumerically("~", (pair[0]-pair[1])*2.5, tol))
			}
		})

		It("accumulates the integral with forward Euler", func() {
			c = pid.New(0, 1.0, 0, 0)
			c.SetConfig(100, -100, 0.1)
			expected := []float64{0.2, 0.4, 0.6}
			for _, want := range expected {
				Expect(c.StepNoAW(2, 0)).To(BeNumerically("~", want, tol))
				Expect(c.Telemetry().Output).To(BeNumerically("~", want, tol))
				Expect(c.Integral()).To(BeNumerically("~", want, tol))
			}
		})

		It("holds zero output at zero error", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(1, -1, 0.01)
			for i := 0; i < 10; i++ {
				Expect(c.StepNoAW(3, 3)).To(BeZero())
				Expect(c.Integral()).To(BeZero())
				Expect(c.Telemetry().Output).To(BeZero())
			}
		})

		It("uses a backward difference for the derivative", func() {
			c = pid.New(0, 0, 0.5, 0)
			c.SetConfig(1e6, -1e6, 0.1)
			c.StepNoAW(1, 0)
			Expect(c.Telemetry().Terms.D).To(BeNumerically("~", 5, tol))
			c.StepNoAW(3, 0)
			Expect(c.Telemetry().Terms.D).To(BeNumerically("~", 10, tol))
			c.StepNoAW(3, 0)
			Expect(c.Telemetry().Terms.D).To(BeZero())
		})

		It("clamps the final output", func() {
			c = pid.New(10, 0, 0, 0)
			c.SetConfig(1, -1, 0.01)
			Expect(c.StepNoAW(10, 0)).To(Equal(1.0))
			Expect(c.Telemetry().Output).To(BeNumerically("~", 100, tol))
			Expect(c.StepNoAW(-10, 0)).To(Equal(-1.0))
		})

		It("matches the reference scenario", func() {
			c = pid.New(0.3, 0.6, 0.0, 0.0)
			c.SetConfig(1, -1, 0.015)
			Expect(c.StepNoAW(10, 0)).To(Equal(1.0))

			tel := c.Telemetry()
			Expect(tel.Error).To(Equal(10.0))
			Expect(tel.Terms.P).To(BeNumerically("~", 3.0, tol))
			Expect(tel.Terms.I).To(BeNumerically("~", 0.09, tol))
			Expect(tel.Output).To(BeNumerically("~", 3.09, tol))
			Expect(tel.OutputSat).To(Equal(1.0))
			Expect(tel.Saturated()).To(BeTrue())
		})

		It("lets the integral grow without bound", func() {
			c = pid.New(0, 1, 0, 0)
			c.SetConfig(1, -1, 1)
			for i := 0; i < 100; i++ {
				Expect(c.StepNoAW(1, 0)).To(Equal(1.0))
			}
			Expect(c.Integral()).To(BeNumerically("~", 100, tol))
		})

		It("rolls telemetry forward", func() {
			c = pid.New(1, 0, 0, 0)
			c.SetConfig(10, -10, 0.1)
			c.StepNoAW(2, 0)
			c.StepNoAW(5, 0)

			tel := c.Telemetry()
			Expect(tel.Error).To(Equal(5.0))
			Expect(tel.PrevError).To(Equal(2.0))
			Expect(tel.ErrorSum).To(Equal(7.0))
			Expect(tel.PrevOutput).To(BeNumerically("~", 2, tol))
			Expect(tel.PrevTerms.P).To(BeNumerically("~", 2, tol))
			Expect(tel.Steps).To(Equal(2))
		})

		It("propagates non-finite values when the sample time is zero", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(1, -1, 0)
			c.StepNoAW(1, 0)
			d := c.Telemetry().Terms.D
			Expect(math.IsInf(d, 1)).To(BeTrue())
		})

		It("runs with zero limits before configuration", func() {
			c = pid.New(1, 0, 0, 0)
			Expect(c.StepNoAW(1, 1)).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("clears state but keeps configuration", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(5, -5, 0.1)
			c.StepNoAW(3, 0)
			c.Reset()
			Expect(c.Integral()).To(BeZero())
			Expect(c.Telemetry()).To(Equal(pid.Telemetry{}))
			Expect(c.Limits()).To(Equal(pid.Limits{Upper: 5, Lower: -5}))
			Expect(c.SampleTime()).To(Equal(0.1))

			// no derivative kick from the cleared previous error
			c.SetConstants(0, 0, 1, 0)
			c.StepNoAW(0, 0)
			Expect(c.Telemetry().Terms.D).To(BeZero())
		})
	})

	Describe("Validate", func() {
		It("accepts a sane configuration", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(1, -1, 0.01)
			Expect(c.Validate()).To(Succeed())
		})

		It("rejects a non-positive sample time", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(1, -1, 0)
			err := c.Validate()
			Expect(errors.Is(err, pid.ErrSampleTime)).To(BeTrue())
			Expect(errors.Is(err, pid.ErrInvertedLimits)).To(BeFalse())
		})

		It("reports every problem at once", func() {
			c = pid.New(1, 1, 1, 0)
			c.SetConfig(-1, 1, -0.5)
			err := c.Validate()
			Expect(errors.Is(err, pid.ErrSampleTime)).To(BeTrue())
			Expect(errors.Is(err, pid.ErrInvertedLimits)).To(BeTrue())

			var cfgErr *pid.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.SampleTime).To(Equal(-0.5))
		})
	})
})
