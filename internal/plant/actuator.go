package plant

// ActuatorLimits bounds what the actuator can physically deliver,
// independently of the controller's own output limits. The zero value
// disables limiting.
type ActuatorLimits struct {
	Min float64
	Max float64
}

func (a ActuatorLimits) Enabled() bool {
	return a.Max > a.Min
}

// Apply clips u when limiting is enabled.
func (a ActuatorLimits) Apply(u float64) float64 {
	if !a.Enabled() {
		return u
	}
	if u > a.Max {
		return a.Max
	}
	if u < a.Min {
		return a.Min
	}
	return u
}
