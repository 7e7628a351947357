package sim

import "trafficsim/traffic"

// Time scale bounds applied by SetTimeScale.
const (
	MinTimeScale = 0.1
	MaxTimeScale = 5.0
)

// SpawnPosition pairs a spawn cell with a travel direction.
type SpawnPosition struct {
	Position  traffic.Position
	Direction traffic.Direction
}

// SimulationConfig bundles the construction parameters for an engine. It is
// the only coupling point with the configuration/CLI layer.
type SimulationConfig struct {
	MaxVehicles             int
	BaseSpawnRate           float64 // vehicles per second per spawn point
	IntersectionPositions   []traffic.Position
	SpawnPositions          []SpawnPosition
	EnableWeather           bool
	EnableEmergencyVehicles bool
	TimeScale               float64
}

// DefaultConfig returns the stock four-intersection grid with eight spawn
// points feeding it from the edges.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		MaxVehicles:   100,
		BaseSpawnRate: 0.5,
		IntersectionPositions: []traffic.Position{
			{X: 20, Y: 15},
			{X: 60, Y: 15},
			{X: 20, Y: 25},
			{X: 60, Y: 25},
		},
		SpawnPositions: []SpawnPosition{
			{Position: traffic.Position{X: 5, Y: 15}, Direction: traffic.East},
			{Position: traffic.Position{X: 80, Y: 15}, Direction: traffic.West},
			{Position: traffic.Position{X: 20, Y: 5}, Direction: traffic.South},
			{Position: traffic.Position{X: 20, Y: 35}, Direction: traffic.North},
			{Position: traffic.Position{X: 5, Y: 25}, Direction: traffic.East},
			{Position: traffic.Position{X: 80, Y: 25}, Direction: traffic.West},
			{Position: traffic.Position{X: 60, Y: 5}, Direction: traffic.South},
			{Position: traffic.Position{X: 60, Y: 35}, Direction: traffic.North},
		},
		EnableWeather:           true,
		EnableEmergencyVehicles: true,
		TimeScale:               1.0,
	}
}

// Validate checks the configuration before an engine is built.
func (c SimulationConfig) Validate() error {
	if c.MaxVehicles <= 0 {
		return &ConfigurationError{Field: "MaxVehicles", Reason: "must be positive"}
	}
	if c.BaseSpawnRate < 0 {
		return &ConfigurationError{Field: "BaseSpawnRate", Reason: "must not be negative"}
	}
	if len(c.IntersectionPositions) == 0 {
		return &ConfigurationError{Field: "IntersectionPositions", Reason: "must not be empty"}
	}
	if len(c.SpawnPositions) == 0 {
		return &ConfigurationError{Field: "SpawnPositions", Reason: "must not be empty"}
	}
	if c.TimeScale < MinTimeScale || c.TimeScale > MaxTimeScale {
		return &ConfigurationError{Field: "TimeScale", Reason: "must be between 0.1 and 5.0"}
	}
	return nil
}
