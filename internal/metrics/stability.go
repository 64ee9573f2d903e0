package metrics

import (
	"math"

	"github.com/san-kum/pidctrl/internal/dynamo"
)

// Stability is the fraction of samples whose tracking error stays within
// band of the setpoint.
type Stability struct {
	name    string
	band    float64
	inside  int
	samples int
}

func NewStability(band float64) *Stability {
	return &Stability{
		name: "stability",
		band: band,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample dynamo.Sample) {
	s.samples++
	if math.Abs(sample.Error()) <= s.band {
		s.inside++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.inside) / float64(s.samples)
}

func (s *Stability) Reset() {
	s.inside = 0
	s.samples = 0
}
