package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, 100, config.MaxVehicles)
	assert.Len(t, config.IntersectionPositions, 4)
	assert.Len(t, config.SpawnPositions, 8)
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimulationConfig)
		field  string
	}{
		{"zero max vehicles", func(c *SimulationConfig) { c.MaxVehicles = 0 }, "MaxVehicles"},
		{"negative spawn rate", func(c *SimulationConfig) { c.BaseSpawnRate = -1 }, "BaseSpawnRate"},
		{"no intersections", func(c *SimulationConfig) { c.IntersectionPositions = nil }, "IntersectionPositions"},
		{"no spawn points", func(c *SimulationConfig) { c.SpawnPositions = nil }, "SpawnPositions"},
		{"time scale too low", func(c *SimulationConfig) { c.TimeScale = 0.01 }, "TimeScale"},
		{"time scale too high", func(c *SimulationConfig) { c.TimeScale = 20 }, "TimeScale"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			config := DefaultConfig()
			c.mutate(&config)

			err := config.Validate()
			require.Error(t, err)

			configErr, ok := err.(*ConfigurationError)
			require.True(t, ok)
			assert.Equal(t, c.field, configErr.Field)
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Field: "MaxVehicles", Reason: "must be positive"}
	assert.Equal(t, "configuration error: MaxVehicles must be positive", err.Error())
}
