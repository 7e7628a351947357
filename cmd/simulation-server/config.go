package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"trafficsim/sim"
)

// Config holds the server configuration.
type Config struct {
	Port                    string  `json:"port"`
	TickMillis              int     `json:"tick_millis"`
	Seed                    int64   `json:"seed"`
	MaxVehicles             int     `json:"max_vehicles"`
	BaseSpawnRate           float64 `json:"base_spawn_rate"`
	EnableWeather           bool    `json:"enable_weather"`
	EnableEmergencyVehicles bool    `json:"enable_emergency_vehicles"`
	TimeScale               float64 `json:"time_scale"`
}

// DefaultServerConfig returns the stock server settings: a 30 Hz tick and the
// default simulation parameters.
func DefaultServerConfig() *Config {
	base := sim.DefaultConfig()
	return &Config{
		Port:                    "8080",
		TickMillis:              33,
		Seed:                    1,
		MaxVehicles:             base.MaxVehicles,
		BaseSpawnRate:           base.BaseSpawnRate,
		EnableWeather:           base.EnableWeather,
		EnableEmergencyVehicles: base.EnableEmergencyVehicles,
		TimeScale:               base.TimeScale,
	}
}

// SimulationConfig converts the file settings into an engine config, keeping
// the stock intersection and spawn point layout.
func (c *Config) SimulationConfig() sim.SimulationConfig {
	config := sim.DefaultConfig()
	config.MaxVehicles = c.MaxVehicles
	config.BaseSpawnRate = c.BaseSpawnRate
	config.EnableWeather = c.EnableWeather
	config.EnableEmergencyVehicles = c.EnableEmergencyVehicles
	config.TimeScale = c.TimeScale
	return config
}

// LoadConfig loads the configuration from a file, falling back to defaults
// when the file does not exist.
func LoadConfig(configPath string) *Config {
	config := DefaultServerConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Infof("Config file not found at %s, using defaults", configPath)
		return config
	}

	file, err := os.Open(configPath)
	if err != nil {
		log.Fatalf("Error opening config file: %v", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(config); err != nil {
		log.Fatalf("Error parsing config file: %v", err)
	}

	log.Info("Configuration loaded successfully")
	return config
}

// GetDefaultConfigPath returns the default path for the config file.
func GetDefaultConfigPath() string {
	execPath, err := os.Executable()
	if err != nil {
		log.Warnf("Could not determine executable path: %v", err)
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execPath), "config.json")
}

// SaveDefaultConfig creates a default config file if it doesn't exist.
func SaveDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(DefaultServerConfig()); err != nil {
		return err
	}

	log.Infof("Created default config file at %s", configPath)
	return nil
}
