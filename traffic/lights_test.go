package traffic

import "testing"

func TestNewTrafficLight(t *testing.T) {
	light := NewTrafficLight(North)

	if light.State != Red {
		t.Errorf("New light should start red, got %v", light.State)
	}
	if light.GreenDuration != DefaultGreenDuration {
		t.Errorf("Expected green duration %v, got %v", DefaultGreenDuration, light.GreenDuration)
	}
	if light.EmergencyOverride {
		t.Error("New light should not have emergency override set")
	}
}

func TestLightCycle(t *testing.T) {
	light := NewTrafficLight(North)

	// Red for 10 seconds.
	light.Update(9.9)
	if light.State != Red {
		t.Errorf("Light should still be red at 9.9s, got %v", light.State)
	}
	light.Update(0.2)
	if light.State != Green {
		t.Errorf("Light should be green after red expires, got %v", light.State)
	}

	// Green for 8 seconds.
	light.Update(8.0)
	if light.State != Yellow {
		t.Errorf("Light should be yellow after green expires, got %v", light.State)
	}

	// Yellow for 2 seconds.
	light.Update(2.0)
	if light.State != Red {
		t.Errorf("Light should be red after yellow expires, got %v", light.State)
	}
}

func TestLightCanProceed(t *testing.T) {
	if Red.CanProceed() {
		t.Error("Red should not permit movement")
	}
	if Yellow.CanProceed() {
		t.Error("Yellow should not permit movement")
	}
	if !Green.CanProceed() {
		t.Error("Green should permit movement")
	}
}

func TestEmergencyOverride(t *testing.T) {
	light := NewTrafficLight(North)
	light.State = Green
	light.Update(4.0)

	light.SetEmergencyOverride(true)
	if light.State != Red {
		t.Errorf("Override should pin light to red, got %v", light.State)
	}
	if light.ShouldChange() {
		t.Error("Overridden light should never report a pending change")
	}

	// Timer does not advance while overridden.
	light.Update(100.0)
	if light.State != Red {
		t.Errorf("Overridden light should stay red, got %v", light.State)
	}

	// After release the light resumes from the start of the red phase.
	light.SetEmergencyOverride(false)
	if remaining := light.TimeRemaining(); remaining != DefaultRedDuration {
		t.Errorf("Expected full red phase remaining after release, got %v", remaining)
	}
	light.Update(DefaultRedDuration)
	if light.State != Green {
		t.Errorf("Light should cycle normally after release, got %v", light.State)
	}
}

func TestTimeRemaining(t *testing.T) {
	light := NewTrafficLight(North)

	if remaining := light.TimeRemaining(); remaining != DefaultRedDuration {
		t.Errorf("Fresh red light should have %v remaining, got %v", DefaultRedDuration, remaining)
	}

	light.Update(4.0)
	if remaining := light.TimeRemaining(); remaining != 6.0 {
		t.Errorf("Expected 6.0 remaining, got %v", remaining)
	}
}

func TestConflictsWith(t *testing.T) {
	light := NewTrafficLight(North)

	if !light.ConflictsWith(East) {
		t.Error("North should conflict with East")
	}
	if !light.ConflictsWith(West) {
		t.Error("North should conflict with West")
	}
	if light.ConflictsWith(South) {
		t.Error("North should not conflict with South")
	}
	if light.ConflictsWith(North) {
		t.Error("North should not conflict with itself")
	}
}
