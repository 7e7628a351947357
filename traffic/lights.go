package traffic

// Default light phase durations in seconds.
const (
	DefaultGreenDuration  = 8.0
	DefaultYellowDuration = 2.0
	DefaultRedDuration    = 10.0
)

// LightState is the signal shown to a single approach direction.
type LightState int

const (
	Red LightState = iota
	Yellow
	Green
)

// String returns the lowercase state name.
func (s LightState) String() string {
	switch s {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	default:
		return "red"
	}
}

// CanProceed reports whether vehicles may enter the intersection on this signal.
func (s LightState) CanProceed() bool {
	return s == Green
}

// TrafficLight cycles one direction of an intersection through
// Green -> Yellow -> Red. While the emergency override is set the light is
// pinned to Red and its phase timer does not advance; releasing the override
// resumes cycling from the moment of release.
type TrafficLight struct {
	Direction         Direction
	State             LightState
	GreenDuration     float64
	YellowDuration    float64
	RedDuration       float64
	EmergencyOverride bool

	sinceChange float64
}

// NewTrafficLight creates a red light for the given direction with default
// phase durations.
func NewTrafficLight(direction Direction) *TrafficLight {
	return &TrafficLight{
		Direction:      direction,
		State:          Red,
		GreenDuration:  DefaultGreenDuration,
		YellowDuration: DefaultYellowDuration,
		RedDuration:    DefaultRedDuration,
	}
}

// Update advances the phase timer by dt seconds and moves to the next state
// once the current phase has run its course.
func (l *TrafficLight) Update(dt float64) {
	if l.EmergencyOverride {
		l.State = Red
		return
	}

	l.sinceChange += dt
	if l.sinceChange >= l.stateDuration() {
		l.advance()
		l.sinceChange = 0
	}
}

// ShouldChange reports whether the current phase has expired. Always false
// while the emergency override is set.
func (l *TrafficLight) ShouldChange() bool {
	if l.EmergencyOverride {
		return false
	}
	return l.sinceChange >= l.stateDuration()
}

// SetEmergencyOverride pins the light to Red when active is true. The phase
// timer is reset on activation so that normal cycling restarts cleanly once
// the override is released.
func (l *TrafficLight) SetEmergencyOverride(active bool) {
	l.EmergencyOverride = active
	if active {
		l.State = Red
		l.sinceChange = 0
	}
}

// TimeRemaining returns the seconds left in the current phase.
func (l *TrafficLight) TimeRemaining() float64 {
	remaining := l.stateDuration() - l.sinceChange
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ConflictsWith reports whether traffic from the other direction crosses the
// path controlled by this light.
func (l *TrafficLight) ConflictsWith(other Direction) bool {
	p1, p2 := l.Direction.Perpendicular()
	return other == p1 || other == p2
}

// syncFrom copies the phase of another light so that opposing approaches
// always show the same signal.
func (l *TrafficLight) syncFrom(other *TrafficLight) {
	l.State = other.State
	l.sinceChange = other.sinceChange
}

// expirePhase pushes the phase timer to the end of the current state so the
// next Update advances it.
func (l *TrafficLight) expirePhase() {
	l.sinceChange = l.stateDuration()
}

func (l *TrafficLight) stateDuration() float64 {
	switch l.State {
	case Green:
		return l.GreenDuration
	case Yellow:
		return l.YellowDuration
	default:
		return l.RedDuration
	}
}

func (l *TrafficLight) advance() {
	switch l.State {
	case Green:
		l.State = Yellow
	case Yellow:
		l.State = Red
	default:
		l.State = Green
	}
}
