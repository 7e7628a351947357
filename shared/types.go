// Package shared contains the wire-level data structures exchanged between
// the simulation server and its clients. Everything here is a plain snapshot
// type with JSON tags and no behavior.
package shared

// Position represents a 2D cell coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// VehicleSnapshot represents one vehicle in a broadcast frame.
type VehicleSnapshot struct {
	ID         int      `json:"id"`
	Type       string   `json:"type"`
	Position   Position `json:"position"`
	Direction  string   `json:"direction"`
	State      string   `json:"state"`
	WaitedTime float64  `json:"waited_time"`
}

// LightSnapshot represents one traffic light in a broadcast frame.
type LightSnapshot struct {
	Direction string `json:"direction"`
	State     string `json:"state"`
	Override  bool   `json:"override"`
}

// IntersectionSnapshot represents one intersection in a broadcast frame.
type IntersectionSnapshot struct {
	ID              int             `json:"id"`
	Position        Position        `json:"position"`
	Lights          []LightSnapshot `json:"lights"`
	EmergencyActive bool            `json:"emergency_active"`
	TotalWaiting    int             `json:"total_waiting"`
	TrafficCount    int             `json:"traffic_count"`
	EfficiencyScore float64         `json:"efficiency_score"`
}

// WeatherSnapshot represents the weather state in a broadcast frame.
type WeatherSnapshot struct {
	Condition          string  `json:"condition"`
	Display            string  `json:"display"`
	Intensity          float64 `json:"intensity"`
	Transitioning      bool    `json:"transitioning"`
	TransitionProgress float64 `json:"transition_progress"`
}

// StatisticsSnapshot represents the headline metrics in a broadcast frame.
type StatisticsSnapshot struct {
	TotalVehiclesSpawned   int     `json:"total_vehicles_spawned"`
	TotalVehiclesProcessed int     `json:"total_vehicles_processed"`
	ActiveVehicles         int     `json:"active_vehicles"`
	AverageWaitTime        float64 `json:"average_wait_time"`
	PeakWaitTime           float64 `json:"peak_wait_time"`
	OverallEfficiency      float64 `json:"overall_efficiency"`
	ThroughputPerMinute    float64 `json:"throughput_per_minute"`
	HealthScore            float64 `json:"health_score"`
	Uptime                 string  `json:"uptime"`
}

// SimulationSnapshot is one full frame broadcast to websocket clients.
type SimulationSnapshot struct {
	Running        bool                   `json:"running"`
	SimulationTime float64                `json:"simulation_time"`
	TimeScale      float64                `json:"time_scale"`
	Vehicles       []VehicleSnapshot      `json:"vehicles"`
	Intersections  []IntersectionSnapshot `json:"intersections"`
	Weather        WeatherSnapshot        `json:"weather"`
	Statistics     StatisticsSnapshot     `json:"statistics"`
	ActiveEvents   []string               `json:"active_events"`
	RushHourActive bool                   `json:"rush_hour_active"`
}

// CommandRequest represents a control command from a client.
type CommandRequest struct {
	SpawnPointIndex int     `json:"spawn_point_index,omitempty"`
	Weather         string  `json:"weather,omitempty"`
	TimeScale       float64 `json:"time_scale,omitempty"`
	Density         string  `json:"density,omitempty"`
}

// CommandResponse represents the result of a control command.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
