package metrics

import "github.com/san-kum/pidctrl/internal/dynamo"

// SaturationRatio is the fraction of samples whose output was clipped.
type SaturationRatio struct {
	saturated int
	samples   int
}

func NewSaturationRatio() *SaturationRatio {
	return &SaturationRatio{}
}

func (m *SaturationRatio) Name() string { return "saturation_ratio" }

func (m *SaturationRatio) Observe(s dynamo.Sample) {
	m.samples++
	if s.Saturated() {
		m.saturated++
	}
}

func (m *SaturationRatio) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.saturated) / float64(m.samples)
}

func (m *SaturationRatio) Reset() {
	m.saturated = 0
	m.samples = 0
}
