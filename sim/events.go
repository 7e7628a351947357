package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"trafficsim/traffic"
)

// EventPriority orders pending events; higher values dequeue first.
type EventPriority int

const (
	PriorityLow EventPriority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// EventType tags a SimulationEvent.
type EventType int

const (
	EventEmergencyVehicleSpawned EventType = iota
	EventWeatherChanged
	EventTrafficIncident
	EventRushHourStarted
	EventRushHourEnded
	EventTrafficLightMalfunction
	EventRoadConstruction
	EventSpecialEvent
	EventMaintenanceMode
)

// SimulationEvent is a tagged union of everything the scheduler can fire.
// Only the fields relevant to Type are meaningful; Duration of zero marks an
// instantaneous event.
type SimulationEvent struct {
	Type EventType

	Position       traffic.Position  // emergency spawn, special event center
	Direction      traffic.Direction // emergency spawn
	IntersectionID int               // incident, malfunction
	Weather        WeatherType       // weather change
	Duration       float64           // seconds of effect; 0 = instantaneous

	EndPosition   traffic.Position // road construction
	Radius        float64          // special event
	TrafficImpact float64          // special event
}

// Description renders the event for alert displays.
func (e SimulationEvent) Description() string {
	switch e.Type {
	case EventEmergencyVehicleSpawned:
		return "Emergency Vehicle Active"
	case EventWeatherChanged:
		return fmt.Sprintf("Weather: %s", e.Weather)
	case EventTrafficIncident:
		return fmt.Sprintf("Incident at Intersection %d", e.IntersectionID)
	case EventRushHourStarted:
		return "Rush Hour Active"
	case EventRushHourEnded:
		return "Rush Hour Ended"
	case EventTrafficLightMalfunction:
		return fmt.Sprintf("Light Malfunction at %d", e.IntersectionID)
	case EventRoadConstruction:
		return "Road Construction"
	case EventSpecialEvent:
		return "Special Event"
	default:
		return "Maintenance Mode"
	}
}

// ActiveEvent is an event currently in effect. Persistent events are never
// auto-pruned.
type ActiveEvent struct {
	ID         string
	Event      SimulationEvent
	StartedAt  float64 // scheduler clock seconds
	Duration   float64
	Persistent bool
}

// ScheduledEvent is a pending event in the priority queue.
type ScheduledEvent struct {
	Event      SimulationEvent
	ExecuteAt  float64 // scheduler clock seconds
	Priority   EventPriority
	Persistent bool
}

// RushHourSchedule describes the two daily windows of elevated demand,
// expressed as seconds since simulated midnight.
type RushHourSchedule struct {
	MorningStart float64
	MorningEnd   float64
	EveningStart float64
	EveningEnd   float64
	Multiplier   float64
	Active       bool
}

// DefaultRushHourSchedule covers 07:00-09:00 and 17:00-19:00.
func DefaultRushHourSchedule() RushHourSchedule {
	return RushHourSchedule{
		MorningStart: 7 * 3600,
		MorningEnd:   9 * 3600,
		EveningStart: 17 * 3600,
		EveningEnd:   19 * 3600,
		Multiplier:   2.5,
	}
}

// Event scheduler defaults.
const (
	emergencyCooldown         = 30.0   // seconds between auto emergency spawns
	emergencySpawnProbability = 0.0005 // per update, scaled by weather
	incidentProbability       = 0.001  // per update
	malfunctionProbability    = 0.0001 // per update
	secondsPerDay             = 24 * 3600.0

	// Capped efficiency while an incident is active at an intersection.
	incidentEfficiencyCap = 50.0
)

// EventStats counts fired events by kind.
type EventStats struct {
	EmergencyVehicles int
	Incidents         int
	Malfunctions      int
	RushHourCycles    int
	WeatherChanges    int
}

func (s *EventStats) record(e SimulationEvent) {
	switch e.Type {
	case EventEmergencyVehicleSpawned:
		s.EmergencyVehicles++
	case EventTrafficIncident:
		s.Incidents++
	case EventTrafficLightMalfunction:
		s.Malfunctions++
	case EventRushHourStarted:
		s.RushHourCycles++
	case EventWeatherChanged:
		s.WeatherChanges++
	}
}

// EventManager schedules and fires discrete simulation events: emergency
// spawns, incidents, malfunctions and rush hour windows. Fired events are
// returned to the engine for dispatch; timed events additionally stay in the
// active list and have their side effects applied every update until expiry.
type EventManager struct {
	EmergencyEnabled    bool
	RushHourEnabled     bool
	IncidentsEnabled    bool
	RandomEventsEnabled bool

	RushHour RushHourSchedule
	Stats    EventStats

	// IncidentProbability is the per-update chance of a random incident.
	IncidentProbability float64

	clock               float64
	sinceEmergencySpawn float64
	queue               []ScheduledEvent
	active              []ActiveEvent
	spawnPositions      []SpawnPosition
	rand                *rand.Rand
	triggered           []SimulationEvent
}

// NewEventManager creates an event manager drawing random rolls from rng and
// emergency spawn locations from spawnPositions.
func NewEventManager(rng *rand.Rand, spawnPositions []SpawnPosition) *EventManager {
	return &EventManager{
		EmergencyEnabled:    true,
		RushHourEnabled:     true,
		IncidentsEnabled:    true,
		RandomEventsEnabled: true,
		RushHour:            DefaultRushHourSchedule(),
		IncidentProbability: incidentProbability,
		sinceEmergencySpawn: emergencyCooldown,
		spawnPositions:      spawnPositions,
		rand:                rng,
	}
}

// Update advances the scheduler by dt seconds and returns every event fired
// this update. emergencyMultiplier scales the auto emergency spawn chance
// and comes from the weather system.
func (em *EventManager) Update(dt float64, intersections []*traffic.Intersection, emergencyMultiplier float64) []SimulationEvent {
	em.clock += dt
	em.sinceEmergencySpawn += dt
	em.triggered = em.triggered[:0]

	em.processScheduled()
	em.pruneActive(intersections)
	em.checkEmergencyTrigger(emergencyMultiplier)
	em.checkRushHour()
	em.checkRandomEvents(intersections)
	em.applyActiveEffects(intersections)

	return em.triggered
}

// fire reports an event as triggered and, when it carries a duration, tracks
// it as active. Instantaneous events are fired once and not tracked.
func (em *EventManager) fire(e SimulationEvent, persistent bool) {
	em.triggered = append(em.triggered, e)
	em.Stats.record(e)

	if e.Duration > 0 || persistent {
		em.active = append(em.active, ActiveEvent{
			ID:         uuid.New().String(),
			Event:      e,
			StartedAt:  em.clock,
			Duration:   e.Duration,
			Persistent: persistent,
		})
	}

	log.WithFields(log.Fields{
		"event":    e.Description(),
		"duration": e.Duration,
	}).Info("event fired")
}

// processScheduled fires every queued event whose time has arrived. The
// queue is kept sorted by priority then time, so the loop stops at the first
// entry still in the future.
func (em *EventManager) processScheduled() {
	for len(em.queue) > 0 && em.queue[0].ExecuteAt <= em.clock {
		next := em.queue[0]
		em.queue = em.queue[1:]
		em.fire(next.Event, next.Persistent)
	}
}

// pruneActive drops expired events. An expiring light malfunction releases
// the overrides it forced.
func (em *EventManager) pruneActive(intersections []*traffic.Intersection) {
	kept := em.active[:0]
	for _, ae := range em.active {
		if ae.Persistent || em.clock < ae.StartedAt+ae.Duration {
			kept = append(kept, ae)
			continue
		}
		if ae.Event.Type == EventTrafficLightMalfunction {
			if in := findIntersection(intersections, ae.Event.IntersectionID); in != nil && !in.EmergencyActive {
				in.SetEmergencyOverrideAll(false)
			}
		}
	}
	em.active = kept
}

func (em *EventManager) checkEmergencyTrigger(emergencyMultiplier float64) {
	if !em.EmergencyEnabled || len(em.spawnPositions) == 0 {
		return
	}
	if em.sinceEmergencySpawn < emergencyCooldown {
		return
	}

	if em.rand.Float64() < emergencySpawnProbability*emergencyMultiplier {
		sp := em.spawnPositions[em.rand.Intn(len(em.spawnPositions))]
		em.fire(SimulationEvent{
			Type:      EventEmergencyVehicleSpawned,
			Position:  sp.Position,
			Direction: sp.Direction,
		}, false)
		em.sinceEmergencySpawn = 0
	}
}

// checkRushHour derives a time of day from the scheduler clock and emits
// start/end events exactly once per window transition.
func (em *EventManager) checkRushHour() {
	if !em.RushHourEnabled {
		return
	}

	timeOfDay := math.Mod(em.clock, secondsPerDay)
	inWindow := (timeOfDay >= em.RushHour.MorningStart && timeOfDay <= em.RushHour.MorningEnd) ||
		(timeOfDay >= em.RushHour.EveningStart && timeOfDay <= em.RushHour.EveningEnd)

	switch {
	case inWindow && !em.RushHour.Active:
		em.RushHour.Active = true
		em.fire(SimulationEvent{Type: EventRushHourStarted}, false)
	case !inWindow && em.RushHour.Active:
		em.RushHour.Active = false
		em.fire(SimulationEvent{Type: EventRushHourEnded}, false)
	}
}

func (em *EventManager) checkRandomEvents(intersections []*traffic.Intersection) {
	if !em.RandomEventsEnabled || !em.IncidentsEnabled || len(intersections) == 0 {
		return
	}

	if em.rand.Float64() < em.IncidentProbability {
		em.fire(SimulationEvent{
			Type:           EventTrafficIncident,
			IntersectionID: intersections[em.rand.Intn(len(intersections))].ID,
			Duration:       30 + em.rand.Float64()*90,
		}, false)
	}

	if em.rand.Float64() < malfunctionProbability {
		em.fire(SimulationEvent{
			Type:           EventTrafficLightMalfunction,
			IntersectionID: intersections[em.rand.Intn(len(intersections))].ID,
			Duration:       15 + em.rand.Float64()*45,
		}, false)
	}
}

// applyActiveEffects imposes the side effects of in-flight events: an active
// incident caps its intersection's efficiency, an active malfunction keeps
// all four lights overridden.
func (em *EventManager) applyActiveEffects(intersections []*traffic.Intersection) {
	for _, ae := range em.active {
		switch ae.Event.Type {
		case EventTrafficIncident:
			if in := findIntersection(intersections, ae.Event.IntersectionID); in != nil {
				if in.EfficiencyScore > incidentEfficiencyCap {
					in.EfficiencyScore = incidentEfficiencyCap
				}
			}
		case EventTrafficLightMalfunction:
			if in := findIntersection(intersections, ae.Event.IntersectionID); in != nil {
				in.SetEmergencyOverrideAll(true)
			}
		}
	}
}

func findIntersection(intersections []*traffic.Intersection, id int) *traffic.Intersection {
	for _, in := range intersections {
		if in.ID == id {
			return in
		}
	}
	return nil
}

// ScheduleEvent queues an event to fire after delay seconds. The queue is
// ordered by priority descending, ties broken by earliest execution time.
func (em *EventManager) ScheduleEvent(event SimulationEvent, delay float64, priority EventPriority) {
	em.schedule(ScheduledEvent{
		Event:     event,
		ExecuteAt: em.clock + delay,
		Priority:  priority,
	})
}

// SchedulePersistentEvent queues an event whose effect, once fired, stays
// active until ClearAll.
func (em *EventManager) SchedulePersistentEvent(event SimulationEvent, delay float64, priority EventPriority) {
	em.schedule(ScheduledEvent{
		Event:      event,
		ExecuteAt:  em.clock + delay,
		Priority:   priority,
		Persistent: true,
	})
}

func (em *EventManager) schedule(se ScheduledEvent) {
	for i, existing := range em.queue {
		if se.Priority > existing.Priority ||
			(se.Priority == existing.Priority && se.ExecuteAt < existing.ExecuteAt) {
			em.queue = append(em.queue[:i], append([]ScheduledEvent{se}, em.queue[i:]...)...)
			return
		}
	}
	em.queue = append(em.queue, se)
}

// TriggerEmergencyVehicle schedules an immediate emergency spawn and
// restarts the auto-spawn cooldown.
func (em *EventManager) TriggerEmergencyVehicle(position traffic.Position, direction traffic.Direction) {
	em.ScheduleEvent(SimulationEvent{
		Type:      EventEmergencyVehicleSpawned,
		Position:  position,
		Direction: direction,
	}, 0, PriorityCritical)
	em.sinceEmergencySpawn = 0
}

// TriggerWeatherChange schedules an immediate weather change.
func (em *EventManager) TriggerWeatherChange(weather WeatherType) {
	em.ScheduleEvent(SimulationEvent{
		Type:    EventWeatherChanged,
		Weather: weather,
	}, 0, PriorityNormal)
}

// TriggerTrafficIncident schedules an immediate incident.
func (em *EventManager) TriggerTrafficIncident(intersectionID int, duration float64) {
	em.ScheduleEvent(SimulationEvent{
		Type:           EventTrafficIncident,
		IntersectionID: intersectionID,
		Duration:       duration,
	}, 0, PriorityHigh)
}

// ActiveCount returns the number of events currently in effect.
func (em *EventManager) ActiveCount() int {
	return len(em.active)
}

// ScheduledCount returns the number of pending events.
func (em *EventManager) ScheduledCount() int {
	return len(em.queue)
}

// ActiveDescriptions lists in-effect events for display.
func (em *EventManager) ActiveDescriptions() []string {
	descriptions := make([]string, 0, len(em.active))
	for _, ae := range em.active {
		descriptions = append(descriptions, ae.Event.Description())
	}
	return descriptions
}

// IsRushHourActive reports whether the clock is inside a rush hour window.
func (em *EventManager) IsRushHourActive() bool {
	return em.RushHour.Active
}

// RushHourMultiplier returns the demand factor while rush hour is active.
func (em *EventManager) RushHourMultiplier() float64 {
	if em.RushHour.Active {
		return em.RushHour.Multiplier
	}
	return 1.0
}

// ClearAll drops every pending and active event and leaves rush hour.
func (em *EventManager) ClearAll() {
	em.queue = nil
	em.active = nil
	em.RushHour.Active = false
}
