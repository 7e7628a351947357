package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"trafficsim/traffic"
)

// maxEfficiencySamples bounds the rolling efficiency history, ten simulated
// minutes at one sample per second.
const maxEfficiencySamples = 300

// CongestionSeverity grades a queue backlog.
type CongestionSeverity int

const (
	CongestionLight CongestionSeverity = iota + 1
	CongestionModerate
	CongestionHeavy
	CongestionSevere
)

func (s CongestionSeverity) String() string {
	switch s {
	case CongestionModerate:
		return "Moderate"
	case CongestionHeavy:
		return "Heavy"
	case CongestionSevere:
		return "Severe"
	default:
		return "Light"
	}
}

// IntersectionStats accumulates per-intersection metrics across updates.
type IntersectionStats struct {
	ID                   int
	VehiclesProcessed    int
	AverageEfficiency    float64
	EmergencyActivations int
	PeakQueueLength      int
	CurrentQueueLengths  map[traffic.Direction]int

	// lastEmergencyAt debounces activation counting, simulation seconds.
	lastEmergencyAt float64
	emergencySeen   bool
}

// EfficiencySnapshot is one point of the rolling efficiency history.
type EfficiencySnapshot struct {
	Timestamp         float64 // simulation seconds
	OverallEfficiency float64
	VehicleCount      int
	AverageWaitTime   float64
	Throughput        float64
}

// CongestionPoint marks a backed-up approach.
type CongestionPoint struct {
	IntersectionID int
	Direction      traffic.Direction
	Severity       CongestionSeverity
	QueueLength    int
	DetectedAt     float64 // simulation seconds
}

// Stats collects simulation-wide metrics. All timestamps are expressed on the
// simulation clock, so collection is deterministic for a fixed run.
type Stats struct {
	TotalVehiclesSpawned     int
	TotalVehiclesProcessed   int
	ActiveVehicles           int
	VehicleCounts            map[traffic.VehicleType]int
	VehiclesByState          map[traffic.VehicleState]int
	EmergencyVehiclesSpawned int

	AverageWaitTime     float64
	PeakWaitTime        float64
	TotalWaitTime       float64
	OverallEfficiency   float64
	ThroughputPerMinute float64

	IntersectionStats map[int]*IntersectionStats

	SimulationTime    float64
	EfficiencyHistory []EfficiencySnapshot
	CongestionPoints  []CongestionPoint

	// BottleneckIntersections lists the worst performers, at most two, only
	// when their score is poor enough to matter.
	BottleneckIntersections []int

	Enabled bool
}

// NewStats creates an enabled collector.
func NewStats() *Stats {
	return &Stats{
		VehicleCounts:     make(map[traffic.VehicleType]int),
		VehiclesByState:   make(map[traffic.VehicleState]int),
		IntersectionStats: make(map[int]*IntersectionStats),
		OverallEfficiency: 100,
		Enabled:           true,
	}
}

// Update folds the current simulation state into the collector.
func (s *Stats) Update(dt float64, vehicles []*traffic.Vehicle, intersections []*traffic.Intersection) {
	if !s.Enabled {
		return
	}

	s.SimulationTime += dt
	s.updateVehicleStatistics(vehicles)
	s.updateIntersectionStatistics(intersections)
	s.updatePerformanceMetrics(vehicles)
	s.recordEfficiencySnapshot()
	s.updateCongestion(intersections)
}

func (s *Stats) updateVehicleStatistics(vehicles []*traffic.Vehicle) {
	s.ActiveVehicles = len(vehicles)
	s.VehicleCounts = lo.CountValuesBy(vehicles, func(v *traffic.Vehicle) traffic.VehicleType {
		return v.Type
	})
	s.VehiclesByState = lo.CountValuesBy(vehicles, func(v *traffic.Vehicle) traffic.VehicleState {
		return v.State
	})

	waiting := lo.Filter(vehicles, func(v *traffic.Vehicle, _ int) bool {
		return v.State == traffic.Waiting
	})
	if len(waiting) == 0 {
		return
	}

	total := lo.SumBy(waiting, func(v *traffic.Vehicle) float64 { return v.WaitedTime })
	s.AverageWaitTime = total / float64(len(waiting))
	s.TotalWaitTime += total
	for _, v := range waiting {
		if v.WaitedTime > s.PeakWaitTime {
			s.PeakWaitTime = v.WaitedTime
		}
	}
}

func (s *Stats) updateIntersectionStatistics(intersections []*traffic.Intersection) {
	for _, in := range intersections {
		is, ok := s.IntersectionStats[in.ID]
		if !ok {
			is = &IntersectionStats{
				ID:                  in.ID,
				AverageEfficiency:   100,
				CurrentQueueLengths: make(map[traffic.Direction]int, len(traffic.Directions)),
			}
			s.IntersectionStats[in.ID] = is
		}

		is.AverageEfficiency = in.EfficiencyScore
		is.VehiclesProcessed = in.TrafficCount

		// Count each emergency activation once, with a one minute debounce
		// so a lingering activation is not recounted every update.
		if in.EmergencyActive {
			if !is.emergencySeen || s.SimulationTime-is.lastEmergencyAt > 60 {
				is.EmergencyActivations++
				is.lastEmergencyAt = s.SimulationTime
				is.emergencySeen = true
			}
		}

		for _, d := range traffic.Directions {
			length := in.WaitingCount(d)
			is.CurrentQueueLengths[d] = length
			if length > is.PeakQueueLength {
				is.PeakQueueLength = length
			}
		}
	}
}

// updatePerformanceMetrics averages the per-intersection efficiencies and
// applies a congestion penalty proportional to the stuck vehicle share,
// capped at 30 percent.
func (s *Stats) updatePerformanceMetrics(vehicles []*traffic.Vehicle) {
	if len(s.IntersectionStats) > 0 {
		sum := lo.SumBy(lo.Values(s.IntersectionStats), func(is *IntersectionStats) float64 {
			return is.AverageEfficiency
		})
		s.OverallEfficiency = sum / float64(len(s.IntersectionStats))
	}

	if minutes := s.SimulationTime / 60; minutes > 0 {
		s.ThroughputPerMinute = float64(s.TotalVehiclesProcessed) / minutes
	}

	penalty := 0.0
	if len(vehicles) > 0 {
		stuck := lo.CountBy(vehicles, func(v *traffic.Vehicle) bool { return v.IsStuck() })
		penalty = float64(stuck) / float64(len(vehicles)) * 0.3
	}
	s.OverallEfficiency *= 1 - penalty
	if s.OverallEfficiency < 0 {
		s.OverallEfficiency = 0
	}
}

func (s *Stats) recordEfficiencySnapshot() {
	s.EfficiencyHistory = append(s.EfficiencyHistory, EfficiencySnapshot{
		Timestamp:         s.SimulationTime,
		OverallEfficiency: s.OverallEfficiency,
		VehicleCount:      s.ActiveVehicles,
		AverageWaitTime:   s.AverageWaitTime,
		Throughput:        s.ThroughputPerMinute,
	})
	if len(s.EfficiencyHistory) > maxEfficiencySamples {
		s.EfficiencyHistory = s.EfficiencyHistory[1:]
	}
}

func (s *Stats) updateCongestion(intersections []*traffic.Intersection) {
	s.CongestionPoints = s.CongestionPoints[:0]

	for _, in := range intersections {
		for _, d := range traffic.Directions {
			length := in.WaitingCount(d)
			severity, congested := congestionSeverity(length)
			if !congested {
				continue
			}
			s.CongestionPoints = append(s.CongestionPoints, CongestionPoint{
				IntersectionID: in.ID,
				Direction:      d,
				Severity:       severity,
				QueueLength:    length,
				DetectedAt:     s.SimulationTime,
			})
		}
	}

	s.identifyBottlenecks(intersections)
}

func congestionSeverity(queueLength int) (CongestionSeverity, bool) {
	switch {
	case queueLength <= 2:
		return 0, false
	case queueLength <= 5:
		return CongestionLight, true
	case queueLength <= 10:
		return CongestionModerate, true
	case queueLength <= 20:
		return CongestionHeavy, true
	default:
		return CongestionSevere, true
	}
}

// identifyBottlenecks scores each intersection as efficiency minus five per
// waiting vehicle and keeps the two worst, but only when the score falls
// under 70.
func (s *Stats) identifyBottlenecks(intersections []*traffic.Intersection) {
	type scored struct {
		id    int
		score float64
	}

	scores := lo.Map(intersections, func(in *traffic.Intersection, _ int) scored {
		return scored{id: in.ID, score: in.EfficiencyScore - 5*float64(in.TotalWaiting())}
	})
	sort.Slice(scores, func(i, j int) bool { return scores[i].score < scores[j].score })

	s.BottleneckIntersections = s.BottleneckIntersections[:0]
	for _, sc := range scores {
		if len(s.BottleneckIntersections) == 2 || sc.score >= 70 {
			break
		}
		s.BottleneckIntersections = append(s.BottleneckIntersections, sc.id)
	}
}

// RecordSpawn counts a newly spawned vehicle.
func (s *Stats) RecordSpawn(v *traffic.Vehicle) {
	s.TotalVehiclesSpawned++
	if v.IsEmergency() {
		s.EmergencyVehiclesSpawned++
	}
}

// RecordProcessed counts a vehicle that left the simulation.
func (s *Stats) RecordProcessed() {
	s.TotalVehiclesProcessed++
}

// EfficiencyTrend returns the efficiency samples from the last window seconds
// of simulation time.
func (s *Stats) EfficiencyTrend(window float64) []float64 {
	cutoff := s.SimulationTime - window
	recent := lo.Filter(s.EfficiencyHistory, func(snap EfficiencySnapshot, _ int) bool {
		return snap.Timestamp >= cutoff
	})
	return lo.Map(recent, func(snap EfficiencySnapshot, _ int) float64 {
		return snap.OverallEfficiency
	})
}

// VehicleTypePercentages returns the active fleet composition in percent.
func (s *Stats) VehicleTypePercentages() map[traffic.VehicleType]float64 {
	total := lo.Sum(lo.Values(s.VehicleCounts))
	percentages := make(map[traffic.VehicleType]float64, len(s.VehicleCounts))
	if total == 0 {
		return percentages
	}
	for t, count := range s.VehicleCounts {
		percentages[t] = float64(count) / float64(total) * 100
	}
	return percentages
}

// IntersectionRanking pairs an intersection with its efficiency.
type IntersectionRanking struct {
	ID         int
	Efficiency float64
}

// IntersectionRankings returns intersections ordered best first.
func (s *Stats) IntersectionRankings() []IntersectionRanking {
	rankings := lo.MapToSlice(s.IntersectionStats, func(id int, is *IntersectionStats) IntersectionRanking {
		return IntersectionRanking{ID: id, Efficiency: is.AverageEfficiency}
	})
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].Efficiency != rankings[j].Efficiency {
			return rankings[i].Efficiency > rankings[j].Efficiency
		}
		return rankings[i].ID < rankings[j].ID
	})
	return rankings
}

// LightTiming is a recommended signal plan for one intersection, derived from
// its current queue pressure.
type LightTiming struct {
	IntersectionID int
	GreenDuration  float64
	YellowDuration float64
	RedDuration    float64

	// Confidence grows with the intersection's processed volume and
	// saturates at 1.
	Confidence float64
}

// RecommendedTimings proposes per-intersection light timings. The green phase
// is stretched in proportion to the dominant axis's share of the backlog, up
// to double the default; yellow and red keep their defaults. Intersections
// with nothing queued get no recommendation.
func (s *Stats) RecommendedTimings() map[int]LightTiming {
	timings := make(map[int]LightTiming)
	for id, is := range s.IntersectionStats {
		total := lo.Sum(lo.Values(is.CurrentQueueLengths))
		if total == 0 {
			continue
		}

		ns := is.CurrentQueueLengths[traffic.North] + is.CurrentQueueLengths[traffic.South]
		ew := is.CurrentQueueLengths[traffic.East] + is.CurrentQueueLengths[traffic.West]
		nsGreen := math.Round(traffic.DefaultGreenDuration * (1 + float64(ns)/float64(total)))
		ewGreen := math.Round(traffic.DefaultGreenDuration * (1 + float64(ew)/float64(total)))

		timings[id] = LightTiming{
			IntersectionID: id,
			GreenDuration:  math.Max(nsGreen, ewGreen),
			YellowDuration: traffic.DefaultYellowDuration,
			RedDuration:    traffic.DefaultRedDuration,
			Confidence:     math.Min(float64(is.VehiclesProcessed)/100, 1),
		}
	}
	return timings
}

// Reset discards all collected metrics.
func (s *Stats) Reset() {
	enabled := s.Enabled
	*s = *NewStats()
	s.Enabled = enabled
}

// SetEnabled turns collection on or off. Disabled collectors keep their last
// values but stop updating.
func (s *Stats) SetEnabled(enabled bool) {
	s.Enabled = enabled
}

// PerformanceSummary is a display digest of the collector.
type PerformanceSummary struct {
	TotalVehicles    int
	ActiveVehicles   int
	EfficiencyScore  float64
	AverageWaitTime  float64
	PeakWaitTime     float64
	Throughput       float64
	Uptime           float64 // simulation seconds
	CongestionPoints int
	BottleneckCount  int
}

// Summary returns the current performance digest.
func (s *Stats) Summary() PerformanceSummary {
	return PerformanceSummary{
		TotalVehicles:    s.TotalVehiclesSpawned,
		ActiveVehicles:   s.ActiveVehicles,
		EfficiencyScore:  s.OverallEfficiency,
		AverageWaitTime:  s.AverageWaitTime,
		PeakWaitTime:     s.PeakWaitTime,
		Throughput:       s.ThroughputPerMinute,
		Uptime:           s.SimulationTime,
		CongestionPoints: len(s.CongestionPoints),
		BottleneckCount:  len(s.BottleneckIntersections),
	}
}

// HealthScore blends efficiency with congestion pressure into a 0-100 score.
func (p PerformanceSummary) HealthScore() float64 {
	efficiencyFactor := p.EfficiencyScore / 100
	congestionFactor := 1 - float64(p.CongestionPoints)/10
	if congestionFactor < 0 {
		congestionFactor = 0
	}

	score := (efficiencyFactor + congestionFactor) / 2 * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// UptimeString formats the simulated uptime as 1h 2m 5s.
func (p PerformanceSummary) UptimeString() string {
	total := int(p.Uptime)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
