package pid_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidctrl/pkg/pid"
)

// pureIntegral returns an I-only controller with unit sample time and
// output limited to [-1, 1].
func pureIntegral(ksat float64) *pid.Controller {
	c := pid.New(0, 1, 0, ksat)
	c.SetConfig(1, -1, 1)
	return c
}

// recoverySteps saturates c for n steps, then reverses the error and counts
// the steps until the output leaves the upper limit.
func recoverySteps(c *pid.Controller, s pid.Strategy, n int) int {
	for i := 0; i < n; i++ {
		_, err := c.Step(s, 1, 0)
		Expect(err).NotTo(HaveOccurred())
	}
	for i := 1; i <= 10*n; i++ {
		out, err := c.Step(s, -1, 0)
		Expect(err).NotTo(HaveOccurred())
		if out < 1 {
			return i
		}
	}
	return -1
}

var _ = Describe("Strategy", func() {
	It("round trips names", func() {
		for _, s := range pid.Strategies() {
			parsed, err := pid.ParseStrategy(s.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(s))
		}
	})

	It("treats an empty name as none", func() {
		s, err := pid.ParseStrategy("  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(pid.None))
	})

	It("is case insensitive", func() {
		s, err := pid.ParseStrategy("BackCalc")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(pid.BackCalculation))
	})

	It("rejects unknown names", func() {
		_, err := pid.ParseStrategy("magic")
		Expect(errors.Is(err, pid.ErrUnknownStrategy)).To(BeTrue())
	})

	It("formats unknown tags", func() {
		Expect(pid.Strategy(42).String()).To(Equal("Strategy(42)"))
	})
})

var _ = Describe("Anti-windup", func() {
	Describe("Step", func() {
		It("matches StepNoAW for None", func() {
			a := pid.New(0.3, 0.6, 0.1, 0)
			a.SetConfig(1, -1, 0.015)
			b := pid.New(0.3, 0.6, 0.1, 0)
			b.SetConfig(1, -1, 0.015)
			for i := 0; i < 20; i++ {
				got, err := a.Step(pid.None, 10, float64(i)*0.4)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(b.StepNoAW(10, float64(i)*0.4)))
			}
			Expect(a.Integral()).To(Equal(b.Integral()))
		})

		It("rejects unknown tags without touching state", func() {
			c := pureIntegral(0)
			_, err := c.Step(pid.Strategy(99), 1, 0)
			Expect(errors.Is(err, pid.ErrUnknownStrategy)).To(BeTrue())
			Expect(c.Telemetry().Steps).To(BeZero())
			Expect(c.Integral()).To(BeZero())
		})
	})

	Describe("StepClamp", func() {
		It("keeps the integral inside the limits", func() {
			c := pureIntegral(0)
			for i := 0; i < 20; i++ {
				Expect(c.StepClamp(1, 0)).To(Equal(1.0))
				Expect(c.Integral()).To(BeNumerically("<=", 1))
			}
			Expect(c.StepClamp(-1, 0)).To(BeNumerically("~", 0, tol))
		})
	})

	Describe("StepBackCalc", func() {
		It("bleeds the saturation excess out of the integral", func() {
			c := pureIntegral(1)
			Expect(c.StepBackCalc(1, 0)).To(Equal(1.0))
			Expect(c.Integral()).To(BeNumerically("~", 1, tol))

			Expect(c.StepBackCalc(1, 0)).To(Equal(1.0))
			Expect(c.Telemetry().Output).To(BeNumerically("~", 2, tol))
			Expect(c.Integral()).To(BeNumerically("~", 1, tol))
		})

		It("degrades to no anti-windup with zero Ksat", func() {
			c := pureIntegral(0)
			for i := 0; i < 5; i++ {
				c.StepBackCalc(1, 0)
			}
			Expect(c.Integral()).To(BeNumerically("~", 5, tol))
		})
	})

	Describe("StepCondInt", func() {
		It("skips increments that push past a limit", func() {
			c := pureIntegral(0)
			Expect(c.StepCondInt(1, 0)).To(Equal(1.0))
			for i := 0; i < 10; i++ {
				Expect(c.StepCondInt(1, 0)).To(Equal(1.0))
				Expect(c.Integral()).To(BeNumerically("~", 1, tol))
				Expect(c.Telemetry().Saturated()).To(BeFalse())
			}
		})

		It("integrates back out of saturation", func() {
			c := pureIntegral(0)
			c.StepCondInt(1, 0)
			Expect(c.StepCondInt(-0.5, 0)).To(BeNumerically("~", 0.5, tol))
		})
	})

	Describe("StepTracking", func() {
		It("pulls the integral towards the applied actuator", func() {
			c := pureIntegral(1)
			for i := 0; i < 10; i++ {
				c.StepTracking(1, 0, 0.5)
				Expect(c.Integral()).To(BeNumerically("~", 0.5, tol))
			}
		})
	})

	It("recovers from saturation faster than no anti-windup", func() {
		noAW := recoverySteps(pureIntegral(1), pid.None, 50)
		Expect(noAW).To(BeNumerically(">", 40))

		for _, s := range []pid.Strategy{pid.Clamp, pid.BackCalculation, pid.ConditionalIntegration, pid.Tracking} {
			steps := recoverySteps(pureIntegral(1), s, 50)
			Expect(steps).To(BeNumerically(">", 0), s.String())
			Expect(steps).To(BeNumerically("<=", 2), s.String())
		}
	})
})
