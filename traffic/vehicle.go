package traffic

// StuckThreshold is the accumulated waiting time in seconds after which a
// waiting vehicle counts as stuck.
const StuckThreshold = 30.0

// VehicleType classifies a vehicle and fixes its movement speed.
type VehicleType int

const (
	Car VehicleType = iota
	Truck
	Emergency
)

// String returns the lowercase type name.
func (t VehicleType) String() string {
	switch t {
	case Truck:
		return "truck"
	case Emergency:
		return "emergency"
	default:
		return "car"
	}
}

// Speed returns the movement speed in cells per second.
func (t VehicleType) Speed() float64 {
	switch t {
	case Truck:
		return 1.5
	case Emergency:
		return 3.0
	default:
		return 2.0
	}
}

// VehicleState describes what a vehicle is currently doing.
type VehicleState int

const (
	Moving VehicleState = iota
	Waiting
	AtIntersection
	Exited
)

// String returns the lowercase state name.
func (s VehicleState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case AtIntersection:
		return "at_intersection"
	case Exited:
		return "exited"
	default:
		return "moving"
	}
}

// Vehicle is a single car, truck or emergency vehicle travelling in a fixed
// direction until it leaves the simulation bounds.
type Vehicle struct {
	ID         int
	Type       VehicleType
	Position   Position
	Direction  Direction
	State      VehicleState
	WaitedTime float64

	sinceMove float64
}

// NewVehicle creates a moving vehicle at the given position.
func NewVehicle(id int, vehicleType VehicleType, position Position, direction Direction) *Vehicle {
	return &Vehicle{
		ID:        id,
		Type:      vehicleType,
		Position:  position,
		Direction: direction,
		State:     Moving,
	}
}

// Update advances the vehicle by dt seconds. Moving vehicles step one cell
// every 1/speed seconds; a vehicle inside an intersection core keeps rolling
// so it can clear the far side. Exited vehicles are inert: they neither move
// nor accumulate waiting time.
func (v *Vehicle) Update(dt float64) {
	if v.State == Exited {
		return
	}

	v.WaitedTime += dt
	v.sinceMove += dt

	if (v.State == Moving || v.State == AtIntersection) && v.sinceMove >= 1.0/v.Type.Speed() {
		v.Position = v.Position.Step(v.Direction)
		v.sinceMove = 0
	}
}

// SetState changes the vehicle state. A transition into Moving resets the
// movement timer so a released vehicle does not leap forward; re-asserting
// Moving on a vehicle already moving leaves the timer alone.
func (v *Vehicle) SetState(state VehicleState) {
	if state == Moving && v.State != Moving && v.State != AtIntersection {
		v.sinceMove = 0
	}
	v.State = state
}

// IsEmergency reports whether this is an emergency vehicle.
func (v *Vehicle) IsEmergency() bool {
	return v.Type == Emergency
}

// NextPosition returns the cell the vehicle will enter on its next step.
func (v *Vehicle) NextPosition() Position {
	return v.Position.Step(v.Direction)
}

// IsStuck reports whether the vehicle has been waiting longer than the stuck
// threshold.
func (v *Vehicle) IsStuck() bool {
	return v.State == Waiting && v.WaitedTime > StuckThreshold
}
