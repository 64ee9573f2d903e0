// Package telemetry exports control loop samples as Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

const namespace = "pidctrl"

// Collector mirrors the latest sample into gauges and counts steps. It
// owns its registry so several loops can run in one process.
type Collector struct {
	registry *prometheus.Registry

	setpoint    prometheus.Gauge
	measurement prometheus.Gauge
	output      prometheus.Gauge
	outputRaw   prometheus.Gauge
	err         prometheus.Gauge
	steps       prometheus.Counter
	saturated   prometheus.Counter
}

func NewCollector() *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	c := &Collector{
		registry:    prometheus.NewRegistry(),
		setpoint:    gauge("setpoint", "Current setpoint."),
		measurement: gauge("measurement", "Latest plant measurement."),
		output:      gauge("output", "Latest saturated controller output."),
		outputRaw:   gauge("output_raw", "Latest controller output before saturation."),
		err:         gauge("error", "Latest control error, setpoint minus measurement."),
		steps:       counter("steps_total", "Controller steps taken."),
		saturated:   counter("saturated_steps_total", "Steps whose output was clipped."),
	}
	c.registry.MustRegister(
		c.setpoint, c.measurement, c.output, c.outputRaw, c.err,
		c.steps, c.saturated,
	)
	return c
}

func (c *Collector) OnSample(s dynamo.Sample) {
	c.setpoint.Set(s.Setpoint)
	c.measurement.Set(s.Measurement)
	c.output.Set(s.Output)
	c.outputRaw.Set(s.Raw)
	c.err.Set(s.Error())
	c.steps.Inc()
	if s.Saturated() {
		c.saturated.Inc()
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
