package sim

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// WeatherType is one of the six conditions the simulation can be in.
type WeatherType int

const (
	Clear WeatherType = iota
	LightRain
	HeavyRain
	Snow
	Fog
	Storm
)

// WeatherTypes lists all conditions in cycling order.
var WeatherTypes = [6]WeatherType{Clear, LightRain, HeavyRain, Snow, Fog, Storm}

// String returns the display name.
func (w WeatherType) String() string {
	switch w {
	case LightRain:
		return "Light Rain"
	case HeavyRain:
		return "Heavy Rain"
	case Snow:
		return "Snow"
	case Fog:
		return "Fog"
	case Storm:
		return "Storm"
	default:
		return "Clear"
	}
}

// TrafficMultiplier returns the base traffic flow factor for this condition.
func (w WeatherType) TrafficMultiplier() float64 {
	switch w {
	case LightRain:
		return 0.9
	case HeavyRain:
		return 0.7
	case Snow:
		return 0.6
	case Fog:
		return 0.8
	case Storm:
		return 0.5
	default:
		return 1.0
	}
}

// VisibilityMultiplier returns the base visibility factor.
func (w WeatherType) VisibilityMultiplier() float64 {
	switch w {
	case LightRain:
		return 0.9
	case HeavyRain:
		return 0.7
	case Snow:
		return 0.6
	case Fog:
		return 0.4
	case Storm:
		return 0.3
	default:
		return 1.0
	}
}

// SpeedMultiplier returns the base vehicle speed factor.
func (w WeatherType) SpeedMultiplier() float64 {
	switch w {
	case LightRain:
		return 0.95
	case HeavyRain:
		return 0.8
	case Snow:
		return 0.7
	case Fog:
		return 0.85
	case Storm:
		return 0.6
	default:
		return 1.0
	}
}

// EmergencySpawnMultiplier returns the base emergency spawn factor. Bad
// weather produces more emergencies.
func (w WeatherType) EmergencySpawnMultiplier() float64 {
	switch w {
	case LightRain:
		return 1.2
	case HeavyRain:
		return 1.5
	case Snow:
		return 1.8
	case Fog:
		return 1.3
	case Storm:
		return 2.0
	default:
		return 1.0
	}
}

// WeatherTransition is one weighted edge of the weather state machine.
type WeatherTransition struct {
	From        WeatherType
	To          WeatherType
	Probability float64
}

// Weather timing defaults in seconds.
const (
	defaultWeatherDuration    = 300.0
	minWeatherDuration        = 60.0
	maxWeatherDuration        = 600.0
	weatherTransitionDuration = 10.0

	// Per-update change probabilities before and after the rolled duration
	// has elapsed.
	changeProbabilityEarly = 0.001
	changeProbabilityLate  = 0.1
)

// WeatherSystem runs the stochastic weather state machine. Conditions change
// either by auto-roll after a minimum dwell time or by external command;
// every change starts a fixed-length blend tracked by TransitionProgress.
type WeatherSystem struct {
	Current  WeatherType
	Previous WeatherType

	// Intensity ramps from a type-specific floor toward 1 while a condition
	// persists; derived multipliers scale with it.
	Intensity float64

	Enabled            bool
	AutoChange         bool
	TransitionActive   bool
	TransitionProgress float64

	elapsed     float64 // seconds in the current condition
	duration    float64 // rolled dwell time for the current condition
	transitions []WeatherTransition
	rand        *rand.Rand
}

// NewWeatherSystem creates an enabled weather system starting at Clear.
func NewWeatherSystem(rng *rand.Rand) *WeatherSystem {
	return &WeatherSystem{
		Current:     Clear,
		Previous:    Clear,
		Intensity:   1.0,
		Enabled:     true,
		AutoChange:  true,
		duration:    defaultWeatherDuration,
		transitions: weatherTransitionTable(),
		rand:        rng,
	}
}

func weatherTransitionTable() []WeatherTransition {
	return []WeatherTransition{
		{From: Clear, To: LightRain, Probability: 0.3},
		{From: Clear, To: Fog, Probability: 0.15},
		{From: Clear, To: Snow, Probability: 0.1},

		{From: LightRain, To: Clear, Probability: 0.4},
		{From: LightRain, To: HeavyRain, Probability: 0.3},
		{From: LightRain, To: Storm, Probability: 0.1},

		{From: HeavyRain, To: LightRain, Probability: 0.5},
		{From: HeavyRain, To: Clear, Probability: 0.2},
		{From: HeavyRain, To: Storm, Probability: 0.15},

		{From: Snow, To: Clear, Probability: 0.4},
		{From: Snow, To: Fog, Probability: 0.2},

		{From: Fog, To: Clear, Probability: 0.6},
		{From: Fog, To: LightRain, Probability: 0.2},

		{From: Storm, To: HeavyRain, Probability: 0.4},
		{From: Storm, To: LightRain, Probability: 0.3},
		{From: Storm, To: Clear, Probability: 0.2},
	}
}

// Update advances the weather by dt seconds.
func (ws *WeatherSystem) Update(dt float64) {
	if !ws.Enabled {
		return
	}

	ws.elapsed += dt
	ws.updateTransition(dt)
	if ws.AutoChange {
		ws.checkWeatherChange()
	}
	ws.updateIntensity()
}

func (ws *WeatherSystem) updateTransition(dt float64) {
	if !ws.TransitionActive {
		return
	}

	ws.TransitionProgress += dt / weatherTransitionDuration
	if ws.TransitionProgress >= 1.0 {
		ws.TransitionActive = false
		ws.TransitionProgress = 0
		ws.Previous = ws.Current
	}
}

func (ws *WeatherSystem) checkWeatherChange() {
	if ws.elapsed < minWeatherDuration {
		return
	}

	probability := changeProbabilityEarly
	if ws.elapsed > ws.duration {
		probability = changeProbabilityLate
	}

	if ws.rand.Float64() < probability {
		ws.rollNextWeather()
	}
}

// rollNextWeather picks a successor weighted by the transition table.
func (ws *WeatherSystem) rollNextWeather() {
	var candidates []WeatherTransition
	total := 0.0
	for _, t := range ws.transitions {
		if t.From == ws.Current {
			candidates = append(candidates, t)
			total += t.Probability
		}
	}
	if len(candidates) == 0 {
		return
	}

	roll := ws.rand.Float64() * total
	for _, t := range candidates {
		roll -= t.Probability
		if roll <= 0 {
			ws.changeWeather(t.To)
			return
		}
	}
}

func (ws *WeatherSystem) changeWeather(next WeatherType) {
	if next == ws.Current {
		return
	}

	log.WithFields(log.Fields{
		"from": ws.Current.String(),
		"to":   next.String(),
	}).Info("weather changing")

	ws.Previous = ws.Current
	ws.Current = next
	ws.elapsed = 0
	ws.duration = minWeatherDuration + ws.rand.Float64()*(maxWeatherDuration-minWeatherDuration)
	ws.TransitionActive = true
	ws.TransitionProgress = 0
}

// updateIntensity ramps intensity from a type-specific floor toward 1 over a
// type-specific time constant.
func (ws *WeatherSystem) updateIntensity() {
	ramp := func(floor, seconds float64) float64 {
		progress := ws.elapsed / seconds
		if progress > 1 {
			progress = 1
		}
		return floor + (1-floor)*progress
	}

	switch ws.Current {
	case LightRain:
		ws.Intensity = ramp(0.6, 60)
	case HeavyRain:
		ws.Intensity = ramp(0.8, 30)
	case Snow:
		ws.Intensity = ramp(0.5, 120)
	case Fog:
		ws.Intensity = ramp(0.3, 90)
	case Storm:
		ws.Intensity = ramp(0.9, 15)
	default:
		ws.Intensity = 1.0
	}
}

// SetWeather changes the condition immediately, starting a new transition.
func (ws *WeatherSystem) SetWeather(weather WeatherType) {
	if weather != ws.Current {
		ws.changeWeather(weather)
	}
}

// CycleWeather advances to the next condition in listing order.
func (ws *WeatherSystem) CycleWeather() {
	for i, w := range WeatherTypes {
		if w == ws.Current {
			ws.SetWeather(WeatherTypes[(i+1)%len(WeatherTypes)])
			return
		}
	}
}

// TrafficMultiplier returns the intensity-scaled traffic flow factor.
func (ws *WeatherSystem) TrafficMultiplier() float64 {
	return ws.Current.TrafficMultiplier() * (0.5 + 0.5*ws.Intensity)
}

// VisibilityMultiplier returns the intensity-scaled visibility factor.
func (ws *WeatherSystem) VisibilityMultiplier() float64 {
	return ws.Current.VisibilityMultiplier() * (0.3 + 0.7*ws.Intensity)
}

// SpeedMultiplier returns the intensity-scaled vehicle speed factor.
func (ws *WeatherSystem) SpeedMultiplier() float64 {
	return ws.Current.SpeedMultiplier() * (0.6 + 0.4*ws.Intensity)
}

// EmergencySpawnMultiplier returns the intensity-scaled emergency factor.
func (ws *WeatherSystem) EmergencySpawnMultiplier() float64 {
	return ws.Current.EmergencySpawnMultiplier() * ws.Intensity
}

// SetEnabled turns the system on or off. Disabling snaps back to clear
// weather so a disabled system never dampens traffic.
func (ws *WeatherSystem) SetEnabled(enabled bool) {
	ws.Enabled = enabled
	if !enabled {
		ws.Current = Clear
		ws.Intensity = 1.0
		ws.TransitionActive = false
		ws.TransitionProgress = 0
	}
}

// SetAutoChange turns automatic weather rolls on or off.
func (ws *WeatherSystem) SetAutoChange(enabled bool) {
	ws.AutoChange = enabled
}

// TimeUntilNextChange returns the seconds left before the change probability
// jumps, and false when auto-change is disabled.
func (ws *WeatherSystem) TimeUntilNextChange() (float64, bool) {
	if !ws.AutoChange {
		return 0, false
	}
	remaining := ws.duration - ws.elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// HasSignificantTrafficImpact reports whether the current condition dampens
// traffic flow noticeably.
func (ws *WeatherSystem) HasSignificantTrafficImpact() bool {
	return ws.TrafficMultiplier() < 0.8
}

// WeatherInfo is a display snapshot of the weather state.
type WeatherInfo struct {
	Current            WeatherType
	Intensity          float64
	Elapsed            float64
	Transitioning      bool
	TransitionProgress float64
}

// Info returns the current display snapshot.
func (ws *WeatherSystem) Info() WeatherInfo {
	return WeatherInfo{
		Current:            ws.Current,
		Intensity:          ws.Intensity,
		Elapsed:            ws.elapsed,
		Transitioning:      ws.TransitionActive,
		TransitionProgress: ws.TransitionProgress,
	}
}

// DisplayString renders the condition with an intensity qualifier.
func (i WeatherInfo) DisplayString() string {
	qualifier := "Heavy"
	switch {
	case i.Intensity < 0.3:
		qualifier = "Light"
	case i.Intensity < 0.7:
		qualifier = "Moderate"
	}

	switch i.Current {
	case LightRain:
		return fmt.Sprintf("%s Rain", qualifier)
	case Snow:
		return fmt.Sprintf("%s Snow", qualifier)
	case Fog:
		return fmt.Sprintf("%s Fog", qualifier)
	default:
		return i.Current.String()
	}
}

// StatusString renders the transition state for a status line.
func (i WeatherInfo) StatusString() string {
	if i.Transitioning {
		return fmt.Sprintf("Changing... (%.0f%%)", i.TransitionProgress*100)
	}
	return fmt.Sprintf("Stable (%.0fs)", i.Elapsed)
}
