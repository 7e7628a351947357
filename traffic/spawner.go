package traffic

import "math/rand"

// Vehicle type roll cutoffs in percent: 3% emergency, 18% truck, 79% car.
const (
	emergencyCutoff = 3
	truckCutoff     = 21
)

// IDSequence hands out unique, monotonically increasing vehicle IDs. A single
// sequence is shared by every spawner so IDs never collide across spawn
// points.
type IDSequence struct {
	next int
}

// Next returns the next unused ID.
func (s *IDSequence) Next() int {
	s.next++
	return s.next
}

// VehicleSpawner produces vehicles at a bounded rate from one spawn point.
type VehicleSpawner struct {
	ids        *IDSequence
	rand       *rand.Rand
	spawnRate  float64 // vehicles per second
	sinceSpawn float64
}

// NewVehicleSpawner creates a spawner producing spawnRate vehicles per
// second, drawing IDs from ids and type rolls from rng.
func NewVehicleSpawner(spawnRate float64, ids *IDSequence, rng *rand.Rand) *VehicleSpawner {
	return &VehicleSpawner{
		ids:       ids,
		rand:      rng,
		spawnRate: spawnRate,
	}
}

// Update accrues dt seconds toward the next spawn window.
func (s *VehicleSpawner) Update(dt float64) {
	s.sinceSpawn += dt
}

// TrySpawn returns a new vehicle once the spawn interval has elapsed, or nil
// while the spawner is still between intervals.
func (s *VehicleSpawner) TrySpawn(position Position, direction Direction) *Vehicle {
	if s.spawnRate <= 0 {
		return nil
	}
	if s.sinceSpawn < 1.0/s.spawnRate {
		return nil
	}

	s.sinceSpawn = 0
	return NewVehicle(s.ids.Next(), s.rollType(), position, direction)
}

// rollType picks a vehicle type using the fixed spawn weights.
func (s *VehicleSpawner) rollType() VehicleType {
	switch roll := s.rand.Intn(100); {
	case roll < emergencyCutoff:
		return Emergency
	case roll < truckCutoff:
		return Truck
	default:
		return Car
	}
}

// SpawnRate returns the current rate in vehicles per second.
func (s *VehicleSpawner) SpawnRate() float64 {
	return s.spawnRate
}

// SetSpawnRate changes the rate, floored at zero.
func (s *VehicleSpawner) SetSpawnRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	s.spawnRate = rate
}

// Reset clears the interval timer.
func (s *VehicleSpawner) Reset() {
	s.sinceSpawn = 0
}

// TrafficDensity is a coarse demand level that scales spawn rates.
type TrafficDensity int

const (
	DensityLight TrafficDensity = iota
	DensityModerate
	DensityHeavy
	DensityRushHour
)

// SpawnMultiplier returns the spawn-rate factor for this density level.
func (d TrafficDensity) SpawnMultiplier() float64 {
	switch d {
	case DensityLight:
		return 0.5
	case DensityHeavy:
		return 1.5
	case DensityRushHour:
		return 2.5
	default:
		return 1.0
	}
}
