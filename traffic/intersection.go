package traffic

// DefaultEmergencyDuration is how long an intersection holds emergency mode
// after activation, in seconds.
const DefaultEmergencyDuration = 15.0

// Distance bands around the intersection center, in cells.
const (
	emergencyDetectRange = 5.0
	approachRange        = 2.0
	coreRange            = 0.5
)

// Intersection owns the four lights at a crossing and arbitrates which
// vehicles may pass. Opposing approaches are kept in lockstep: South always
// mirrors North and West always mirrors East, so crossing directions are
// never green at the same time.
type Intersection struct {
	ID       int
	Position Position
	Lights   map[Direction]*TrafficLight

	// Waiting holds vehicle IDs queued per approach in arrival order.
	Waiting map[Direction][]int

	EmergencyActive   bool
	EmergencyDuration float64
	TrafficCount      int
	EfficiencyScore   float64

	emergencyElapsed float64
}

// NewIntersection creates an intersection with North/South seeded green and
// East/West seeded red.
func NewIntersection(id int, position Position) *Intersection {
	in := &Intersection{
		ID:                id,
		Position:          position,
		Lights:            make(map[Direction]*TrafficLight, len(Directions)),
		Waiting:           make(map[Direction][]int, len(Directions)),
		EmergencyDuration: DefaultEmergencyDuration,
		EfficiencyScore:   100,
	}

	for _, d := range Directions {
		light := NewTrafficLight(d)
		if d == North || d == South {
			light.State = Green
		}
		in.Lights[d] = light
		in.Waiting[d] = nil
	}

	return in
}

// Update advances the intersection by dt seconds. The order is fixed:
// emergency detection, light timing, flow banding, waiting release,
// efficiency scoring. Each step sees the output of the previous one.
func (in *Intersection) Update(dt float64, vehicles []*Vehicle) {
	in.handleEmergencyVehicles(dt, vehicles)
	in.updateLights(dt)
	in.manageFlow(vehicles)
	in.releaseWaiting(vehicles)
	in.calculateEfficiency()
}

// handleEmergencyVehicles flips emergency mode on when an emergency vehicle
// comes within detection range, and off once it has cleared and the hold
// time has elapsed.
func (in *Intersection) handleEmergencyVehicles(dt float64, vehicles []*Vehicle) {
	if in.EmergencyActive {
		in.emergencyElapsed += dt
	}

	emergencyNear := false
	for _, v := range vehicles {
		if v.IsEmergency() && v.State != Exited && v.Position.DistanceTo(in.Position) < emergencyDetectRange {
			emergencyNear = true
			break
		}
	}

	switch {
	case emergencyNear && !in.EmergencyActive:
		in.activateEmergencyMode()
	case !emergencyNear && in.EmergencyActive && in.emergencyElapsed >= in.EmergencyDuration:
		in.deactivateEmergencyMode()
	}
}

func (in *Intersection) activateEmergencyMode() {
	in.EmergencyActive = true
	in.emergencyElapsed = 0
	for _, d := range Directions {
		in.Lights[d].SetEmergencyOverride(true)
	}
}

func (in *Intersection) deactivateEmergencyMode() {
	in.EmergencyActive = false
	in.emergencyElapsed = 0
	for _, d := range Directions {
		in.Lights[d].SetEmergencyOverride(false)
	}
}

// updateLights advances every light and re-enforces the opposing-direction
// synchronization invariant. Skipped entirely while emergency mode holds the
// lights red.
func (in *Intersection) updateLights(dt float64) {
	if in.EmergencyActive {
		return
	}

	for _, d := range Directions {
		in.Lights[d].Update(dt)
	}

	in.Lights[South].syncFrom(in.Lights[North])
	in.Lights[West].syncFrom(in.Lights[East])
}

// manageFlow classifies every live vehicle by its distance to the center:
// within the core it is at the intersection, within the approach band it is
// admitted or queued depending on its light, and once past the band a
// vehicle that was at the intersection has cleared.
func (in *Intersection) manageFlow(vehicles []*Vehicle) {
	for _, v := range vehicles {
		if v.State == Exited {
			continue
		}

		switch distance := v.Position.DistanceTo(in.Position); {
		case distance <= coreRange:
			v.SetState(AtIntersection)
			in.TrafficCount++
		case distance <= approachRange:
			if in.canProceed(v) {
				v.SetState(Moving)
			} else {
				v.SetState(Waiting)
				in.addWaiting(v.Direction, v.ID)
			}
		case v.State == AtIntersection:
			v.SetState(Moving)
			in.removeWaiting(v.Direction, v.ID)
		}
	}
}

// canProceed reports whether the vehicle may enter. Emergency vehicles bypass
// the lights; a missing light fails closed.
func (in *Intersection) canProceed(v *Vehicle) bool {
	if v.IsEmergency() {
		return true
	}
	light, ok := in.Lights[v.Direction]
	return ok && light.State.CanProceed()
}

func (in *Intersection) addWaiting(d Direction, vehicleID int) {
	for _, id := range in.Waiting[d] {
		if id == vehicleID {
			return
		}
	}
	in.Waiting[d] = append(in.Waiting[d], vehicleID)
}

func (in *Intersection) removeWaiting(d Direction, vehicleID int) {
	queue := in.Waiting[d]
	for i, id := range queue {
		if id == vehicleID {
			in.Waiting[d] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

// releaseWaiting flips queued vehicles back to Moving for every direction
// whose light permits movement. Queue membership is pruned by manageFlow as
// vehicles clear, not here.
func (in *Intersection) releaseWaiting(vehicles []*Vehicle) {
	for _, d := range Directions {
		if !in.Lights[d].State.CanProceed() {
			continue
		}
		for _, id := range in.Waiting[d] {
			if v := findVehicle(vehicles, id); v != nil && v.State == Waiting {
				v.SetState(Moving)
			}
		}
	}
}

func findVehicle(vehicles []*Vehicle, id int) *Vehicle {
	for _, v := range vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// calculateEfficiency recomputes the score from the waiting count: 100 minus
// 2 per waiting vehicle, floored at zero, plus a flat 10 while emergency
// mode is active.
func (in *Intersection) calculateEfficiency() {
	score := 100.0 - 2.0*float64(in.TotalWaiting())
	if score < 0 {
		score = 0
	}
	if in.EmergencyActive {
		score += 10
	}
	in.EfficiencyScore = score
}

// LightState returns the state of the light facing the given direction.
func (in *Intersection) LightState(d Direction) LightState {
	if light, ok := in.Lights[d]; ok {
		return light.State
	}
	return Red
}

// WaitingCount returns the queue length for one approach.
func (in *Intersection) WaitingCount(d Direction) int {
	return len(in.Waiting[d])
}

// TotalWaiting returns the queue length summed over all approaches.
func (in *Intersection) TotalWaiting() int {
	total := 0
	for _, d := range Directions {
		total += len(in.Waiting[d])
	}
	return total
}

// SetEmergencyOverrideAll forces or releases the override on all four lights
// without entering emergency mode. Used for light malfunctions.
func (in *Intersection) SetEmergencyOverrideAll(active bool) {
	for _, d := range Directions {
		in.Lights[d].SetEmergencyOverride(active)
	}
}

// ForceLightChange expires the current phase of one light so it advances on
// the next update.
func (in *Intersection) ForceLightChange(d Direction) {
	if light, ok := in.Lights[d]; ok {
		light.expirePhase()
	}
}

// Reset restores the intersection to its freshly constructed state without
// replacing the light objects.
func (in *Intersection) Reset() {
	in.EmergencyActive = false
	in.emergencyElapsed = 0
	in.TrafficCount = 0
	in.EfficiencyScore = 100
	for _, d := range Directions {
		in.Waiting[d] = nil
		light := in.Lights[d]
		light.SetEmergencyOverride(false)
		light.sinceChange = 0
		if d == North || d == South {
			light.State = Green
		} else {
			light.State = Red
		}
	}
}

// Status is a compact summary of the intersection for display layers.
type Status struct {
	ID              int
	EmergencyActive bool
	TotalWaiting    int
	TrafficCount    int
	EfficiencyScore float64
	NorthSouthLight LightState
	EastWestLight   LightState
}

// StatusSummary returns the current display summary.
func (in *Intersection) StatusSummary() Status {
	return Status{
		ID:              in.ID,
		EmergencyActive: in.EmergencyActive,
		TotalWaiting:    in.TotalWaiting(),
		TrafficCount:    in.TrafficCount,
		EfficiencyScore: in.EfficiencyScore,
		NorthSouthLight: in.LightState(North),
		EastWestLight:   in.LightState(East),
	}
}
