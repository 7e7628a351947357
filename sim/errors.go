package sim

import (
	"errors"
	"fmt"
)

// Errors returned for caller misuse. Steady-state anomalies inside a tick
// (spawn blocked at capacity, malfunction target already gone) are absorbed
// silently because they are expected conditions, not faults.
var (
	ErrInvalidSpawnPoint    = errors.New("invalid spawn point")
	ErrMaxVehiclesReached   = errors.New("maximum vehicle limit reached")
	ErrIntersectionNotFound = errors.New("intersection not found")
	ErrSystemNotRunning     = errors.New("simulation is not running")
)

// ConfigurationError reports an invalid construction parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}
