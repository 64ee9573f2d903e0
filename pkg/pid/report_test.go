package pid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidctrl/pkg/pid"
)

var _ = Describe("Reports", func() {
	var c *pid.Controller

	BeforeEach(func() {
		c = pid.New(0.3, 0.6, 0, 0)
		c.SetConfig(1, -1, 0.015)
	})

	It("formats the configuration", func() {
		Expect(c.ConfigReport()).To(Equal(
			"Kp=0.3, Ki=0.6, Kd=0, Ksat=0\n" +
				"Lower limit: -1, upper limit: 1. Sample time: 0.015s\n"))
	})

	It("formats the performance of the last step", func() {
		c.StepNoAW(10, 10)
		Expect(c.PerformanceReport()).To(Equal(
			"Controller output: 0 (P=0, I=0, D=0)\n" +
				"Controller saturated output: -1 <= 0 <= 1\n" +
				"Controller error: 0. Accumulated error: 0\n"))
	})

	It("does not mutate the controller", func() {
		c.StepNoAW(10, 0)
		before := c.Telemetry()
		integral := c.Integral()

		_ = c.Report()
		_ = c.String()

		Expect(c.Telemetry()).To(Equal(before))
		Expect(c.Integral()).To(Equal(integral))
	})

	It("joins both reports", func() {
		Expect(c.Report()).To(Equal(c.ConfigReport() + c.PerformanceReport()))
		Expect(c.Report()).To(ContainSubstring("Controller saturated output"))
	})
})
