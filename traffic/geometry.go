// Package traffic contains the road-level building blocks of the simulation:
// grid geometry, traffic lights, vehicles, spawners and intersections.
// Everything here is advanced by explicit time deltas; the package never
// reads the wall clock, so a run is reproducible from a seed and a sequence
// of deltas.
package traffic

import "math"

// Direction of travel on the grid.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists all four directions in a stable iteration order.
var Directions = [4]Direction{North, South, East, West}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	default:
		return "west"
	}
}

// Opposite returns the direction of oncoming traffic.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Perpendicular returns the two directions that cross d.
func (d Direction) Perpendicular() (Direction, Direction) {
	switch d {
	case North, South:
		return East, West
	default:
		return North, South
	}
}

// Position is a coordinate on the simulation grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the position one cell away in the given direction.
// North decreases Y to match screen coordinates.
func (p Position) Step(d Direction) Position {
	switch d {
	case North:
		return Position{X: p.X, Y: p.Y - 1}
	case South:
		return Position{X: p.X, Y: p.Y + 1}
	case East:
		return Position{X: p.X + 1, Y: p.Y}
	default:
		return Position{X: p.X - 1, Y: p.Y}
	}
}

// DistanceTo returns the Euclidean distance to other.
func (p Position) DistanceTo(other Position) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
