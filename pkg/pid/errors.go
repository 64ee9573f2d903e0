package pid

import (
	"errors"
	"fmt"
)

var (
	// ErrSampleTime indicates a sample period that is zero or negative.
	ErrSampleTime = errors.New("pid: sample time must be positive")

	// ErrInvertedLimits indicates an upper limit below the lower limit.
	ErrInvertedLimits = errors.New("pid: upper limit below lower limit")

	// ErrUnknownStrategy indicates an anti-windup tag outside the known set.
	ErrUnknownStrategy = errors.New("pid: unknown anti-windup strategy")
)

// ConfigError reports the configuration a strict check rejected.
type ConfigError struct {
	Upper      float64
	Lower      float64
	SampleTime float64
	Wrapped    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid controller config (upper=%g, lower=%g, ts=%g): %v",
		e.Upper, e.Lower, e.SampleTime, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
