package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"trafficsim/shared"
	"trafficsim/sim"
	"trafficsim/traffic"
)

// clientSendBuffer is the number of frames a client may fall behind before
// the broadcaster starts dropping frames for it.
const clientSendBuffer = 8

// client is one websocket subscriber. All writes to the connection happen on
// its writer goroutine, fed through the send channel.
type client struct {
	conn *websocket.Conn
	send chan shared.SimulationSnapshot
}

// Server exposes the simulation engine over websocket broadcasts and HTTP
// control endpoints. The engine is not goroutine safe, so every access goes
// through the server mutex. Socket writes never happen under that mutex: the
// tick loop hands frames to per-client writer goroutines instead.
type Server struct {
	engine   *sim.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

// NewServer creates a server around the engine.
func NewServer(engine *sim.Engine) *Server {
	return &Server{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow connections from any origin
			},
		},
		clients: make(map[*client]bool),
	}
}

// HandleWebSocket upgrades the connection and registers it for broadcasts.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan shared.SimulationSnapshot, clientSendBuffer)}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	log.Infof("Websocket client connected from %s", r.RemoteAddr)
	go s.writeClient(c)
}

// writeClient is the connection's only writer: broadcast frames and keepalive
// pings both go out from here. Any failed write drops the client.
func (s *Server) writeClient(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
		log.Info("Websocket client disconnected")
	}()

	c.conn.SetPongHandler(func(string) error {
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case snapshot := <-c.send:
			if err := c.conn.WriteJSON(snapshot); err != nil {
				log.Infof("Broadcast failed, dropping client: %v", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Infof("Websocket client ping failed: %v", err)
				return
			}
		}
	}
}

// Tick advances the engine by dt seconds and broadcasts the new frame. The
// engine work happens under the mutex; fanout does not, so a slow client can
// fall behind and lose frames but never stall the simulation loop.
func (s *Server) Tick(dt float64) {
	s.mu.Lock()
	s.engine.Update(dt)
	snapshot := s.snapshotLocked()
	subscribers := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		subscribers = append(subscribers, c)
	}
	s.mu.Unlock()

	for _, c := range subscribers {
		select {
		case c.send <- snapshot:
		default:
		}
	}
}

// snapshotLocked builds a broadcast frame. Callers must hold the mutex.
func (s *Server) snapshotLocked() shared.SimulationSnapshot {
	e := s.engine

	vehicles := make([]shared.VehicleSnapshot, 0, len(e.Vehicles()))
	for _, v := range e.Vehicles() {
		vehicles = append(vehicles, shared.VehicleSnapshot{
			ID:         v.ID,
			Type:       v.Type.String(),
			Position:   shared.Position{X: v.Position.X, Y: v.Position.Y},
			Direction:  v.Direction.String(),
			State:      v.State.String(),
			WaitedTime: v.WaitedTime,
		})
	}

	intersections := make([]shared.IntersectionSnapshot, 0, len(e.Intersections()))
	for _, in := range e.Intersections() {
		lights := make([]shared.LightSnapshot, 0, len(traffic.Directions))
		for _, d := range traffic.Directions {
			light := in.Lights[d]
			lights = append(lights, shared.LightSnapshot{
				Direction: d.String(),
				State:     light.State.String(),
				Override:  light.EmergencyOverride,
			})
		}
		intersections = append(intersections, shared.IntersectionSnapshot{
			ID:              in.ID,
			Position:        shared.Position{X: in.Position.X, Y: in.Position.Y},
			Lights:          lights,
			EmergencyActive: in.EmergencyActive,
			TotalWaiting:    in.TotalWaiting(),
			TrafficCount:    in.TrafficCount,
			EfficiencyScore: in.EfficiencyScore,
		})
	}

	info := e.Weather().Info()
	stats := e.Statistics()
	summary := stats.Summary()

	return shared.SimulationSnapshot{
		Running:        e.Running(),
		SimulationTime: e.Uptime(),
		TimeScale:      e.TimeScale(),
		Vehicles:       vehicles,
		Intersections:  intersections,
		Weather: shared.WeatherSnapshot{
			Condition:          info.Current.String(),
			Display:            info.DisplayString(),
			Intensity:          info.Intensity,
			Transitioning:      info.Transitioning,
			TransitionProgress: info.TransitionProgress,
		},
		Statistics: shared.StatisticsSnapshot{
			TotalVehiclesSpawned:   stats.TotalVehiclesSpawned,
			TotalVehiclesProcessed: stats.TotalVehiclesProcessed,
			ActiveVehicles:         stats.ActiveVehicles,
			AverageWaitTime:        stats.AverageWaitTime,
			PeakWaitTime:           stats.PeakWaitTime,
			OverallEfficiency:      stats.OverallEfficiency,
			ThroughputPerMinute:    stats.ThroughputPerMinute,
			HealthScore:            summary.HealthScore(),
			Uptime:                 summary.UptimeString(),
		},
		ActiveEvents:   e.Events().ActiveDescriptions(),
		RushHourActive: e.Events().IsRushHourActive(),
	}
}

// HealthCheck reports server liveness.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Status returns the current simulation frame.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HandleStart starts the simulation.
func (s *Server) HandleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.Start()
	s.mu.Unlock()
	writeCommandResponse(w, nil, "simulation started")
}

// HandleStop stops the simulation.
func (s *Server) HandleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.Stop()
	s.mu.Unlock()
	writeCommandResponse(w, nil, "simulation stopped")
}

// HandleReset resets the simulation to its initial state.
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.Reset()
	s.mu.Unlock()
	writeCommandResponse(w, nil, "simulation reset")
}

// HandleEmergency spawns an emergency vehicle at the requested spawn point.
func (s *Server) HandleEmergency(w http.ResponseWriter, r *http.Request) {
	var req shared.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	s.mu.Lock()
	err := s.engine.TriggerEmergencyVehicle(req.SpawnPointIndex)
	s.mu.Unlock()
	writeCommandResponse(w, err, "emergency vehicle dispatched")
}

// HandleWeather sets the weather condition.
func (s *Server) HandleWeather(w http.ResponseWriter, r *http.Request) {
	var req shared.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	weather, err := parseWeather(req.Weather)
	if err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	s.mu.Lock()
	s.engine.SetWeather(weather)
	s.mu.Unlock()
	writeCommandResponse(w, nil, "weather changed")
}

// HandleTimeScale sets the simulation speed.
func (s *Server) HandleTimeScale(w http.ResponseWriter, r *http.Request) {
	var req shared.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	s.mu.Lock()
	s.engine.SetTimeScale(req.TimeScale)
	s.mu.Unlock()
	writeCommandResponse(w, nil, "time scale updated")
}

// HandleDensity sets the traffic density level.
func (s *Server) HandleDensity(w http.ResponseWriter, r *http.Request) {
	var req shared.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	density, err := parseDensity(req.Density)
	if err != nil {
		writeCommandResponse(w, err, "")
		return
	}

	s.mu.Lock()
	s.engine.SetTrafficDensity(density)
	s.mu.Unlock()
	writeCommandResponse(w, nil, "traffic density updated")
}

func writeCommandResponse(w http.ResponseWriter, err error, message string) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(shared.CommandResponse{Success: false, Message: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(shared.CommandResponse{Success: true, Message: message})
}

func parseWeather(name string) (sim.WeatherType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clear":
		return sim.Clear, nil
	case "light_rain", "light rain":
		return sim.LightRain, nil
	case "heavy_rain", "heavy rain":
		return sim.HeavyRain, nil
	case "snow":
		return sim.Snow, nil
	case "fog":
		return sim.Fog, nil
	case "storm":
		return sim.Storm, nil
	default:
		return sim.Clear, &sim.ConfigurationError{Field: "weather", Reason: "unknown condition"}
	}
}

func parseDensity(name string) (traffic.TrafficDensity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return traffic.DensityLight, nil
	case "moderate":
		return traffic.DensityModerate, nil
	case "heavy":
		return traffic.DensityHeavy, nil
	case "rush_hour", "rush hour":
		return traffic.DensityRushHour, nil
	default:
		return traffic.DensityModerate, &sim.ConfigurationError{Field: "density", Reason: "unknown level"}
	}
}

// Shutdown closes every client connection. The writer goroutines exit on
// their next failed write.
func (s *Server) Shutdown() {
	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]bool)
	s.mu.Unlock()
}
