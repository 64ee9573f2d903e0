package pid

import (
	"fmt"
	"strings"
)

// ConfigReport formats the gains, limits and sample time.
func (c *Controller) ConfigReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kp=%v, Ki=%v, Kd=%v, Ksat=%v\n",
		c.gains.Kp, c.gains.Ki, c.gains.Kd, c.gains.Ksat)
	fmt.Fprintf(&b, "Lower limit: %v, upper limit: %v. Sample time: %vs\n",
		c.limits.Lower, c.limits.Upper, c.ts)
	return b.String()
}

// PerformanceReport formats the telemetry of the last step.
func (c *Controller) PerformanceReport() string {
	t := c.tel
	var b strings.Builder
	fmt.Fprintf(&b, "Controller output: %v (P=%v, I=%v, D=%v)\n",
		t.Output, t.Terms.P, t.Terms.I, t.Terms.D)
	fmt.Fprintf(&b, "Controller saturated output: %v <= %v <= %v\n",
		c.limits.Lower, t.OutputSat, c.limits.Upper)
	fmt.Fprintf(&b, "Controller error: %v. Accumulated error: %v\n",
		t.Error, t.ErrorSum)
	return b.String()
}

// Report is ConfigReport followed by PerformanceReport.
func (c *Controller) Report() string {
	return c.ConfigReport() + c.PerformanceReport()
}

func (c *Controller) String() string {
	return c.Report()
}
