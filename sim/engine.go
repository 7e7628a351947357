package sim

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"trafficsim/traffic"
)

// Simulation bounds in cells. Vehicles crossing them are retired.
const (
	boundMinX = -10
	boundMaxX = 100
	boundMinY = -10
	boundMaxY = 50
)

// spawnClearance is the minimum distance from a spawn point to the nearest
// live vehicle before another vehicle may appear there.
const spawnClearance = 2.0

// Engine owns the whole simulation: vehicles, intersections, spawners,
// weather, events and statistics, advanced together by Update. It reads no
// wall clock; two engines built with equal configs and seeds produce
// identical runs for identical dt sequences.
type Engine struct {
	config SimulationConfig

	vehicles      []*traffic.Vehicle
	intersections []*traffic.Intersection
	spawners      []*traffic.VehicleSpawner
	ids           *traffic.IDSequence

	weather *WeatherSystem
	events  *EventManager
	stats   *Stats

	running        bool
	simulationTime float64
	timeScale      float64

	// densityFactor scales the base spawn rate; adjusted by the density
	// commands and reapplied every update together with the weather and rush
	// hour factors.
	densityFactor float64
}

// NewEngine builds an engine from the config, drawing all randomness from
// rng. The config is validated first.
func NewEngine(config SimulationConfig, rng *rand.Rand) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:        config,
		ids:           &traffic.IDSequence{},
		timeScale:     config.TimeScale,
		densityFactor: 1.0,
	}

	for i, pos := range config.IntersectionPositions {
		e.intersections = append(e.intersections, traffic.NewIntersection(i, pos))
	}
	for range config.SpawnPositions {
		e.spawners = append(e.spawners, traffic.NewVehicleSpawner(config.BaseSpawnRate, e.ids, rng))
	}

	e.weather = NewWeatherSystem(rng)
	e.weather.SetEnabled(config.EnableWeather)

	e.events = NewEventManager(rng, config.SpawnPositions)
	e.events.EmergencyEnabled = config.EnableEmergencyVehicles

	e.stats = NewStats()

	return e, nil
}

// Start begins or resumes the run. The simulation clock carries across a
// stop/start pair so it stays in step with the collected statistics; Reset
// begins a fresh run.
func (e *Engine) Start() {
	e.running = true
	log.Info("simulation started")
}

// Stop pauses the run. State is kept; Start resumes it.
func (e *Engine) Stop() {
	e.running = false
	log.Info("simulation stopped")
}

// Running reports whether the engine is advancing.
func (e *Engine) Running() bool {
	return e.running
}

// Update advances the simulation by dt wall seconds, scaled by the time
// scale. Calling Update on a stopped engine is a no-op.
func (e *Engine) Update(dt float64) {
	if !e.running {
		return
	}

	scaled := dt * e.timeScale
	e.simulationTime += scaled

	e.updateSpawning(scaled)
	e.updateVehicles(scaled)
	e.updateIntersections(scaled)
	e.updateEvents(scaled)
	e.weather.Update(scaled)
	e.stats.Update(scaled, e.vehicles, e.intersections)
	e.retireVehicles()
}

// updateSpawning reapplies the effective spawn rate and lets each spawner
// try to produce a vehicle. The effective rate is recomputed from the base
// every update so the density, weather and rush hour factors never compound
// across ticks.
func (e *Engine) updateSpawning(dt float64) {
	rate := e.config.BaseSpawnRate * e.densityFactor *
		e.weather.TrafficMultiplier() * e.events.RushHourMultiplier()

	for i, spawner := range e.spawners {
		spawner.SetSpawnRate(rate)
		spawner.Update(dt)

		if len(e.vehicles) >= e.config.MaxVehicles {
			continue
		}
		sp := e.config.SpawnPositions[i]
		if !e.spawnPointClear(sp.Position) {
			continue
		}

		if v := spawner.TrySpawn(sp.Position, sp.Direction); v != nil {
			e.vehicles = append(e.vehicles, v)
			e.stats.RecordSpawn(v)
		}
	}
}

// spawnPointClear reports whether no live vehicle sits within the clearance
// radius of the spawn position.
func (e *Engine) spawnPointClear(position traffic.Position) bool {
	for _, v := range e.vehicles {
		if v.State != traffic.Exited && v.Position.DistanceTo(position) < spawnClearance {
			return false
		}
	}
	return true
}

func (e *Engine) updateVehicles(dt float64) {
	for _, v := range e.vehicles {
		v.Update(dt)

		if v.State != traffic.Exited && e.outOfBounds(v.Position) {
			v.SetState(traffic.Exited)
			e.stats.RecordProcessed()
		}
	}
}

func (e *Engine) outOfBounds(p traffic.Position) bool {
	return p.X < boundMinX || p.X > boundMaxX || p.Y < boundMinY || p.Y > boundMaxY
}

func (e *Engine) updateIntersections(dt float64) {
	for _, in := range e.intersections {
		in.Update(dt, e.vehicles)
	}
}

func (e *Engine) updateEvents(dt float64) {
	fired := e.events.Update(dt, e.intersections, e.weather.EmergencySpawnMultiplier())
	for _, event := range fired {
		e.handleEvent(event)
	}
}

// handleEvent applies the engine-level consequences of a fired event. Events
// whose effects live entirely inside the event manager only get logged here.
func (e *Engine) handleEvent(event SimulationEvent) {
	switch event.Type {
	case EventEmergencyVehicleSpawned:
		if len(e.vehicles) >= e.config.MaxVehicles {
			return
		}
		v := traffic.NewVehicle(e.ids.Next(), traffic.Emergency, event.Position, event.Direction)
		e.vehicles = append(e.vehicles, v)
		e.stats.RecordSpawn(v)

	case EventWeatherChanged:
		e.weather.SetWeather(event.Weather)

	default:
		log.WithFields(log.Fields{"event": event.Description()}).Debug("event handled")
	}
}

// retireVehicles drops exited vehicles from the live slice.
func (e *Engine) retireVehicles() {
	kept := e.vehicles[:0]
	for _, v := range e.vehicles {
		if v.State != traffic.Exited {
			kept = append(kept, v)
		}
	}
	e.vehicles = kept
}

// TriggerEmergencyVehicle spawns an emergency vehicle at the indexed spawn
// point. Returns ErrInvalidSpawnPoint for an out of range index.
func (e *Engine) TriggerEmergencyVehicle(spawnPointIndex int) error {
	if spawnPointIndex < 0 || spawnPointIndex >= len(e.config.SpawnPositions) {
		return ErrInvalidSpawnPoint
	}
	sp := e.config.SpawnPositions[spawnPointIndex]
	e.events.TriggerEmergencyVehicle(sp.Position, sp.Direction)
	return nil
}

// SpawnVehicle force-spawns a vehicle of the given type at the indexed spawn
// point, bypassing the rate limiter but not the vehicle cap.
func (e *Engine) SpawnVehicle(spawnPointIndex int, vehicleType traffic.VehicleType) error {
	if spawnPointIndex < 0 || spawnPointIndex >= len(e.config.SpawnPositions) {
		return ErrInvalidSpawnPoint
	}
	if len(e.vehicles) >= e.config.MaxVehicles {
		return ErrMaxVehiclesReached
	}

	sp := e.config.SpawnPositions[spawnPointIndex]
	v := traffic.NewVehicle(e.ids.Next(), vehicleType, sp.Position, sp.Direction)
	e.vehicles = append(e.vehicles, v)
	e.stats.RecordSpawn(v)
	return nil
}

// SetWeather commands an immediate weather change.
func (e *Engine) SetWeather(weather WeatherType) {
	e.weather.SetWeather(weather)
}

// CurrentWeather returns the active weather condition.
func (e *Engine) CurrentWeather() WeatherType {
	return e.weather.Current
}

// Weather exposes the weather system for display layers.
func (e *Engine) Weather() *WeatherSystem {
	return e.weather
}

// Events exposes the event manager for display layers.
func (e *Engine) Events() *EventManager {
	return e.events
}

// IncreaseTrafficDensity scales the spawn demand up by the multiplier.
func (e *Engine) IncreaseTrafficDensity(multiplier float64) {
	if multiplier > 0 {
		e.densityFactor *= multiplier
	}
}

// DecreaseTrafficDensity scales the spawn demand down by the multiplier.
func (e *Engine) DecreaseTrafficDensity(multiplier float64) {
	if multiplier > 0 && multiplier <= 1 {
		e.densityFactor *= multiplier
	}
}

// SetTrafficDensity jumps demand to a named density level.
func (e *Engine) SetTrafficDensity(density traffic.TrafficDensity) {
	e.densityFactor = density.SpawnMultiplier()
}

// SetTimeScale changes the simulation speed, clamped to [0.1, 5.0].
func (e *Engine) SetTimeScale(scale float64) {
	if scale < MinTimeScale {
		scale = MinTimeScale
	}
	if scale > MaxTimeScale {
		scale = MaxTimeScale
	}
	e.timeScale = scale
}

// TimeScale returns the current simulation speed factor.
func (e *Engine) TimeScale() float64 {
	return e.timeScale
}

// Statistics exposes the collector.
func (e *Engine) Statistics() *Stats {
	return e.stats
}

// Vehicles returns the live vehicle slice. Callers must not mutate it.
func (e *Engine) Vehicles() []*traffic.Vehicle {
	return e.vehicles
}

// Intersections returns the intersections. Callers must not mutate the slice.
func (e *Engine) Intersections() []*traffic.Intersection {
	return e.intersections
}

// Intersection returns the intersection with the given ID.
func (e *Engine) Intersection(id int) (*traffic.Intersection, error) {
	for _, in := range e.intersections {
		if in.ID == id {
			return in, nil
		}
	}
	return nil, ErrIntersectionNotFound
}

// ActiveVehicleCount returns the number of live vehicles.
func (e *Engine) ActiveVehicleCount() int {
	return len(e.vehicles)
}

// HasEmergencyVehicles reports whether any live emergency vehicle exists.
func (e *Engine) HasEmergencyVehicles() bool {
	for _, v := range e.vehicles {
		if v.IsEmergency() {
			return true
		}
	}
	return false
}

// Uptime returns the elapsed simulation time in seconds.
func (e *Engine) Uptime() float64 {
	return e.simulationTime
}

// Reset restores the engine to its initial state. The run stays stopped or
// running as it was.
func (e *Engine) Reset() {
	e.vehicles = nil
	e.simulationTime = 0
	e.densityFactor = 1.0

	for _, in := range e.intersections {
		in.Reset()
	}
	for _, spawner := range e.spawners {
		spawner.SetSpawnRate(e.config.BaseSpawnRate)
		spawner.Reset()
	}

	e.events.ClearAll()
	e.stats.Reset()

	log.Info("simulation reset")
}
