package metrics

import "github.com/san-kum/pidctrl/internal/dynamo"

// DefaultBand is the tracking band used by Default for Stability.
const DefaultBand = 0.05

// Default returns the standard metric set for a loop sampled every dt.
func Default(dt float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewIAE(dt),
		NewISE(dt),
		NewControlEffort(),
		NewSaturationRatio(),
		NewOvershoot(),
		NewStability(DefaultBand),
	}
}
