package traffic

import "testing"

func TestVehicleSpeeds(t *testing.T) {
	if Car.Speed() != 2.0 {
		t.Errorf("Car speed should be 2.0, got %v", Car.Speed())
	}
	if Truck.Speed() != 1.5 {
		t.Errorf("Truck speed should be 1.5, got %v", Truck.Speed())
	}
	if Emergency.Speed() != 3.0 {
		t.Errorf("Emergency speed should be 3.0, got %v", Emergency.Speed())
	}
}

func TestVehicleMovement(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)

	// A car steps every 0.5 seconds.
	v.Update(0.25)
	if v.Position.X != 10 {
		t.Errorf("Vehicle should not have moved yet, at x=%d", v.Position.X)
	}

	v.Update(0.25)
	if v.Position.X != 11 {
		t.Errorf("Vehicle should have stepped east to x=11, at x=%d", v.Position.X)
	}

	// The movement timer resets after each step.
	v.Update(0.25)
	if v.Position.X != 11 {
		t.Errorf("Vehicle should not leap forward, at x=%d", v.Position.X)
	}
}

func TestVehicleDoesNotMoveWhileWaiting(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)
	v.SetState(Waiting)

	v.Update(5.0)
	if v.Position.X != 10 {
		t.Errorf("Waiting vehicle should not move, at x=%d", v.Position.X)
	}
	if v.WaitedTime != 5.0 {
		t.Errorf("Waiting vehicle should accumulate time, got %v", v.WaitedTime)
	}
}

func TestExitedVehicleIsInert(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)
	v.SetState(Exited)

	v.Update(10.0)
	if v.Position.X != 10 {
		t.Errorf("Exited vehicle should not move, at x=%d", v.Position.X)
	}
	if v.WaitedTime != 0 {
		t.Errorf("Exited vehicle should not accumulate waited time, got %v", v.WaitedTime)
	}
}

func TestSetStateResetsMoveTimer(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)

	// Accrue almost a full step while waiting, then release. The vehicle must
	// not step immediately on release.
	v.SetState(Waiting)
	v.Update(0.4)
	v.SetState(Moving)
	v.Update(0.25)
	if v.Position.X != 10 {
		t.Errorf("Released vehicle should restart its step timer, at x=%d", v.Position.X)
	}
	v.Update(0.25)
	if v.Position.X != 11 {
		t.Errorf("Released vehicle should step after a full interval, at x=%d", v.Position.X)
	}
}

func TestReassertingMovingKeepsStepTimer(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)

	// A green light re-admits an approaching vehicle on every update.
	// Re-asserting Moving must not wipe the accrued step time.
	v.Update(0.4)
	v.SetState(Moving)
	v.Update(0.1)
	if v.Position.X != 11 {
		t.Errorf("Re-admitted vehicle should step on schedule, at x=%d", v.Position.X)
	}
}

func TestIsStuck(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, East)
	v.SetState(Waiting)

	v.Update(StuckThreshold)
	if v.IsStuck() {
		t.Error("Vehicle at exactly the threshold should not be stuck")
	}

	v.Update(0.1)
	if !v.IsStuck() {
		t.Error("Vehicle past the threshold should be stuck")
	}

	v.SetState(Moving)
	if v.IsStuck() {
		t.Error("Only waiting vehicles can be stuck")
	}
}

func TestNextPosition(t *testing.T) {
	v := NewVehicle(1, Car, Position{X: 10, Y: 10}, North)
	if next := v.NextPosition(); next != (Position{X: 10, Y: 9}) {
		t.Errorf("Expected next position {10 9}, got %v", next)
	}
}

func TestIsEmergency(t *testing.T) {
	if NewVehicle(1, Car, Position{}, East).IsEmergency() {
		t.Error("Car should not be an emergency vehicle")
	}
	if !NewVehicle(2, Emergency, Position{}, East).IsEmergency() {
		t.Error("Emergency vehicle should report as such")
	}
}
