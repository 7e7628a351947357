package main

import (
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trafficsim/shared"
	"trafficsim/sim"
	"trafficsim/traffic"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine, err := sim.NewEngine(sim.DefaultConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return NewServer(engine)
}

func TestParseWeather(t *testing.T) {
	cases := map[string]sim.WeatherType{
		"clear":      sim.Clear,
		"light_rain": sim.LightRain,
		"Heavy Rain": sim.HeavyRain,
		"SNOW":       sim.Snow,
		"fog":        sim.Fog,
		" storm ":    sim.Storm,
	}
	for input, want := range cases {
		got, err := parseWeather(input)
		if err != nil {
			t.Errorf("parseWeather(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("parseWeather(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := parseWeather("hurricane"); err == nil {
		t.Error("Unknown weather should return an error")
	}
}

func TestParseDensity(t *testing.T) {
	cases := map[string]traffic.TrafficDensity{
		"light":     traffic.DensityLight,
		"moderate":  traffic.DensityModerate,
		"heavy":     traffic.DensityHeavy,
		"rush_hour": traffic.DensityRushHour,
	}
	for input, want := range cases {
		got, err := parseDensity(input)
		if err != nil {
			t.Errorf("parseDensity(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("parseDensity(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := parseDensity("gridlock"); err == nil {
		t.Error("Unknown density should return an error")
	}
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)
	recorder := httptest.NewRecorder()

	server.HealthCheck(recorder, httptest.NewRequest("GET", "/health", nil))
	if recorder.Code != 200 {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", body["status"])
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	server := newTestServer(t)
	recorder := httptest.NewRecorder()

	server.Status(recorder, httptest.NewRequest("GET", "/status", nil))
	if recorder.Code != 200 {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}

	var snapshot shared.SimulationSnapshot
	if err := json.NewDecoder(recorder.Body).Decode(&snapshot); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if len(snapshot.Intersections) != 4 {
		t.Errorf("Expected 4 intersections in snapshot, got %d", len(snapshot.Intersections))
	}
	if snapshot.Weather.Condition == "" {
		t.Error("Snapshot should carry a weather condition")
	}
}

func TestEmergencyCommandRejectsBadIndex(t *testing.T) {
	server := newTestServer(t)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/emergency", strings.NewReader(`{"spawn_point_index": 99}`))

	server.HandleEmergency(recorder, request)
	if recorder.Code != 400 {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}

	var response shared.CommandResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Success {
		t.Error("Command should report failure")
	}
}

func TestTickDoesNotBlockOnStalledClient(t *testing.T) {
	server := newTestServer(t)
	server.engine.Start()

	// A subscriber whose writer never drains its frames. The tick loop must
	// drop frames for it rather than stall.
	stalled := &client{send: make(chan shared.SimulationSnapshot)}
	server.mu.Lock()
	server.clients[stalled] = true
	server.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			server.Tick(0.033)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Tick stalled on a client that is not reading")
	}
}

func TestWeatherCommand(t *testing.T) {
	server := newTestServer(t)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/weather", strings.NewReader(`{"weather": "snow"}`))

	server.HandleWeather(recorder, request)
	if recorder.Code != 200 {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}
	if server.engine.CurrentWeather() != sim.Snow {
		t.Errorf("Expected snow, got %v", server.engine.CurrentWeather())
	}
}
