package traffic

import "testing"

func TestNewIntersection(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})

	if in.LightState(North) != Green || in.LightState(South) != Green {
		t.Error("North/South should start green")
	}
	if in.LightState(East) != Red || in.LightState(West) != Red {
		t.Error("East/West should start red")
	}
	if in.EfficiencyScore != 100 {
		t.Errorf("Fresh intersection should score 100, got %v", in.EfficiencyScore)
	}
	if in.EmergencyActive {
		t.Error("Fresh intersection should not be in emergency mode")
	}
}

func TestOpposingLightsStaySynchronized(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})

	for i := 0; i < 120; i++ {
		in.Update(0.5, nil)

		if in.LightState(North) != in.LightState(South) {
			t.Fatalf("North (%v) and South (%v) diverged at step %d",
				in.LightState(North), in.LightState(South), i)
		}
		if in.LightState(East) != in.LightState(West) {
			t.Fatalf("East (%v) and West (%v) diverged at step %d",
				in.LightState(East), in.LightState(West), i)
		}
		if in.LightState(North) == Green && in.LightState(East) == Green {
			t.Fatalf("Crossing directions both green at step %d", i)
		}
	}
}

func TestEmergencyModeLifecycle(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	ambulance := NewVehicle(1, Emergency, Position{X: 18, Y: 15}, East)
	vehicles := []*Vehicle{ambulance}

	in.Update(0.1, vehicles)
	if !in.EmergencyActive {
		t.Fatal("Emergency vehicle in range should activate emergency mode")
	}
	for _, d := range Directions {
		if in.LightState(d) != Red {
			t.Errorf("All lights should be red in emergency mode, %v is %v", d, in.LightState(d))
		}
		if !in.Lights[d].EmergencyOverride {
			t.Errorf("Light %v should be overridden", d)
		}
	}

	// Mode holds while the vehicle is near, even past the hold time.
	in.Update(20.0, vehicles)
	if !in.EmergencyActive {
		t.Error("Emergency mode should hold while the vehicle is in range")
	}

	// Once the vehicle clears and the hold time passes, mode releases.
	ambulance.Position = Position{X: 40, Y: 15}
	in.Update(DefaultEmergencyDuration+0.1, vehicles)
	if in.EmergencyActive {
		t.Error("Emergency mode should release after the vehicle clears")
	}
	for _, d := range Directions {
		if in.Lights[d].EmergencyOverride {
			t.Errorf("Light %v should be released", d)
		}
	}
}

func TestApproachQueueingAndRelease(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	car := NewVehicle(1, Car, Position{X: 19, Y: 15}, East)
	vehicles := []*Vehicle{car}

	// East is red, so a car in the approach band queues.
	in.Update(0.1, vehicles)
	if car.State != Waiting {
		t.Fatalf("Car at a red light should wait, got %v", car.State)
	}
	if in.WaitingCount(East) != 1 {
		t.Errorf("East queue should hold the car, got %d", in.WaitingCount(East))
	}

	// Green releases it.
	in.Lights[East].State = Green
	in.Update(0.1, vehicles)
	if car.State != Moving {
		t.Errorf("Car should be released on green, got %v", car.State)
	}
}

func TestVehicleCrossesOnGreenAtFineTick(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	in.Lights[East].State = Green
	in.Lights[East].GreenDuration = 60
	car := NewVehicle(1, Car, Position{X: 19, Y: 15}, East)
	vehicles := []*Vehicle{car}

	// Server ticks are much shorter than a car's 0.5s step interval. The
	// repeated green-light admission must not stall the step timer, and the
	// car must roll through the core band and out the far side.
	const dt = 0.033
	for i := 0; i < 300; i++ {
		car.Update(dt)
		in.Update(dt, vehicles)
	}

	if car.Position.X <= 22 {
		t.Fatalf("Car should have crossed the intersection, stopped at x=%d", car.Position.X)
	}
	if car.State != Moving {
		t.Errorf("Car past the intersection should be moving, got %v", car.State)
	}
	if in.TrafficCount == 0 {
		t.Error("Crossing should increment the traffic count")
	}
}

func TestCoreBand(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	car := NewVehicle(1, Car, Position{X: 20, Y: 15}, East)

	in.Update(0.1, []*Vehicle{car})
	if car.State != AtIntersection {
		t.Errorf("Car at the center should be at the intersection, got %v", car.State)
	}
	if in.TrafficCount == 0 {
		t.Error("Traffic count should increase for a vehicle in the core")
	}
}

func TestEmergencyVehicleBypassesRedLight(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	ambulance := NewVehicle(1, Emergency, Position{X: 19, Y: 15}, East)

	in.Update(0.1, []*Vehicle{ambulance})
	if ambulance.State != Moving {
		t.Errorf("Emergency vehicle should pass a red light, got %v", ambulance.State)
	}
}

func TestEfficiencyScore(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})

	in.calculateEfficiency()
	if in.EfficiencyScore != 100 {
		t.Errorf("Empty intersection should score 100, got %v", in.EfficiencyScore)
	}

	ids := make([]int, 10)
	for i := range ids {
		ids[i] = i + 1
	}
	in.Waiting[North] = ids
	in.calculateEfficiency()
	if in.EfficiencyScore != 80 {
		t.Errorf("Ten waiting vehicles should score 80, got %v", in.EfficiencyScore)
	}

	ids = make([]int, 60)
	for i := range ids {
		ids[i] = i + 1
	}
	in.Waiting[North] = ids
	in.calculateEfficiency()
	if in.EfficiencyScore != 0 {
		t.Errorf("Sixty waiting vehicles should floor at 0, got %v", in.EfficiencyScore)
	}

	in.Waiting[North] = nil
	in.EmergencyActive = true
	in.calculateEfficiency()
	if in.EfficiencyScore != 110 {
		t.Errorf("Emergency mode should add a flat 10, got %v", in.EfficiencyScore)
	}
}

func TestForceLightChange(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})

	in.ForceLightChange(East)
	in.Update(0.01, nil)
	if in.LightState(East) != Green {
		t.Errorf("Forced light should advance on the next update, got %v", in.LightState(East))
	}
	if in.LightState(West) != Green {
		t.Errorf("West should mirror East after the forced change, got %v", in.LightState(West))
	}
}

func TestIntersectionReset(t *testing.T) {
	in := NewIntersection(1, Position{X: 20, Y: 15})
	ambulance := NewVehicle(1, Emergency, Position{X: 18, Y: 15}, East)
	in.Update(0.1, []*Vehicle{ambulance})
	in.Waiting[East] = []int{2, 3}

	in.Reset()
	if in.EmergencyActive {
		t.Error("Reset should clear emergency mode")
	}
	if in.TotalWaiting() != 0 {
		t.Errorf("Reset should clear queues, got %d", in.TotalWaiting())
	}
	if in.LightState(North) != Green || in.LightState(East) != Red {
		t.Error("Reset should restore the initial light pattern")
	}
	if in.EfficiencyScore != 100 {
		t.Errorf("Reset should restore the score to 100, got %v", in.EfficiencyScore)
	}
}

func TestStatusSummary(t *testing.T) {
	in := NewIntersection(7, Position{X: 20, Y: 15})
	in.Waiting[East] = []int{1, 2, 3}
	in.calculateEfficiency()

	status := in.StatusSummary()
	if status.ID != 7 {
		t.Errorf("Expected ID 7, got %d", status.ID)
	}
	if status.TotalWaiting != 3 {
		t.Errorf("Expected 3 waiting, got %d", status.TotalWaiting)
	}
	if status.NorthSouthLight != Green || status.EastWestLight != Red {
		t.Error("Status should report the seeded light pattern")
	}
}
