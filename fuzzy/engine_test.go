package fuzzy

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

var engine = NewEngine()

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestCalculateWatering_Scenarios(t *testing.T) {
	tests := []struct {
		name            string
		soil, air, temp float64
		wantMS          int
		wantStatus      string
	}{
		// Only "wet -> no_water" fires, leaving a single spike at 0.
		{"wet soil, mild air", 100, 50, 25, 0, StatusNoWater},
		// temp=0 is fully cool, so the cooling rule fires alongside no_water.
		{"wet soil, cold", 100, 0, 0, 14999, StatusVeryShort},
		{"very dry, humid, hot", 0, 100, 40, 106667, StatusLong},
		{"moist soil, warm", 55, 50, 20, 40000, StatusShort},
		{"dry soil, warm", 25, 50, 20, 101616, StatusLong},
		{"dry soil, humid, hot", 30, 60, 30, 103111, StatusLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := engine.CalculateWatering(tt.soil, tt.air, tt.temp)
			if err != nil {
				t.Fatalf("CalculateWatering returned error: %v", err)
			}
			if abs(d.DurationMS-tt.wantMS) > 1 {
				t.Errorf("Expected %d ms (±1), got %d", tt.wantMS, d.DurationMS)
			}
			if d.Status != tt.wantStatus {
				t.Errorf("Expected status %q, got %q", tt.wantStatus, d.Status)
			}
			if d.DurationSeconds != d.DurationMS/1000 {
				t.Errorf("Seconds %d do not match %d ms", d.DurationSeconds, d.DurationMS)
			}
		})
	}
}

func TestCalculateWatering_OutOfRange(t *testing.T) {
	inputs := [][3]float64{
		{-5, 50, 20},
		{105, 50, 20},
		{50, -1, 20},
		{50, 100.5, 20},
		{50, 50, -0.1},
		{50, 50, 41},
	}
	for _, in := range inputs {
		d, err := engine.CalculateWatering(in[0], in[1], in[2])
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%v: expected ErrInvalidInput, got %v", in, err)
		}
		if d != (Decision{}) {
			t.Errorf("%v: expected no decision, got %+v", in, d)
		}
	}
}

func TestCalculateWatering_NoRuleFires(t *testing.T) {
	// Fully dry soil with medium humidity and lukewarm air matches no rule.
	_, err := engine.CalculateWatering(35, 50, 20)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestCalculateWatering_WithinOutputDomain(t *testing.T) {
	for soil := 0.0; soil <= 100; soil += 10 {
		for air := 0.0; air <= 100; air += 20 {
			for temp := 0.0; temp <= 40; temp += 8 {
				d, err := engine.CalculateWatering(soil, air, temp)
				if err != nil {
					if !errors.Is(err, ErrInvalidInput) {
						t.Errorf("(%g,%g,%g): unexpected error kind %v", soil, air, temp, err)
					}
					continue
				}
				if d.DurationMS < 0 || d.DurationMS > MaxDurationMS {
					t.Errorf("(%g,%g,%g): duration %d outside [0, %d]", soil, air, temp, d.DurationMS, MaxDurationMS)
				}
				if d.Status != Status(d.DurationMS) {
					t.Errorf("(%g,%g,%g): status %q does not match duration %d", soil, air, temp, d.Status, d.DurationMS)
				}
			}
		}
	}
}

func TestCalculateWatering_DrierSoilNeverWatersLess(t *testing.T) {
	soils := []float64{90, 80, 70, 60, 55, 50, 45, 25, 15, 5}
	prev := -1
	for _, soil := range soils {
		d, err := engine.CalculateWatering(soil, 50, 20)
		if err != nil {
			t.Fatalf("soil=%g: %v", soil, err)
		}
		if d.DurationMS < prev {
			t.Errorf("soil=%g gave %d ms, less than %d ms for wetter soil", soil, d.DurationMS, prev)
		}
		prev = d.DurationMS
	}
}

func TestCalculateWatering_Idempotent(t *testing.T) {
	first, err := engine.CalculateWatering(42, 63, 27.5)
	if err != nil {
		t.Fatalf("CalculateWatering returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := engine.CalculateWatering(42, 63, 27.5)
		if err != nil {
			t.Fatalf("CalculateWatering returned error: %v", err)
		}
		if again != first {
			t.Errorf("Expected %+v, got %+v", first, again)
		}
	}
}

func TestCalculateWatering_Concurrent(t *testing.T) {
	type result struct {
		d   Decision
		err error
	}
	rng := rand.New(rand.NewSource(7))
	inputs := make([][3]float64, 24)
	want := make([]result, len(inputs))
	for i := range inputs {
		inputs[i] = [3]float64{rng.Float64() * 100, rng.Float64() * 100, rng.Float64() * 40}
		d, err := engine.CalculateWatering(inputs[i][0], inputs[i][1], inputs[i][2])
		want[i] = result{d, err}
	}

	got := make([]result, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := engine.CalculateWatering(inputs[i][0], inputs[i][1], inputs[i][2])
			got[i] = result{d, err}
		}(i)
	}
	wg.Wait()

	for i := range inputs {
		if got[i].d != want[i].d || (got[i].err == nil) != (want[i].err == nil) {
			t.Errorf("%v: concurrent %+v/%v, sequential %+v/%v",
				inputs[i], got[i].d, got[i].err, want[i].d, want[i].err)
		}
	}
}

func TestEvaluate_RuleTrace(t *testing.T) {
	ev, err := engine.Evaluate(0, 100, 40)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(ev.Rules) != 8 {
		t.Fatalf("Expected 8 rule strengths, got %d", len(ev.Rules))
	}
	if ev.Rules[1].Then != "long" || ev.Rules[1].Strength != 1 {
		t.Errorf("Expected very_dry -> long at strength 1, got %+v", ev.Rules[1])
	}
	for i, rs := range ev.Rules {
		if i != 1 && rs.Strength != 0 {
			t.Errorf("Expected rule %d idle, got %+v", i+1, rs)
		}
	}
	if ev.Rules[2].Rule != "soil_moisture=dry AND temperature=hot -> long" {
		t.Errorf("Unexpected rule text %q", ev.Rules[2].Rule)
	}
}

func TestNew_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty", nil},
		{"unknown variable", []Rule{{If: []Selector{{"wind", "calm"}}, Then: "short"}}},
		{"unknown region", []Rule{{If: []Selector{{Soil, "soggy"}}, Then: "short"}}},
		{"unknown output", []Rule{{If: []Selector{{Soil, "wet"}}, Then: "flood"}}},
		{"repeated variable", []Rule{{If: []Selector{{Soil, "wet"}, {Soil, "dry"}}, Then: "short"}}},
		{"no antecedent", []Rule{{Then: "short"}}},
	}
	for _, tt := range tests {
		if _, err := New(tt.rules); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRulesAreCopied(t *testing.T) {
	rules := engine.Rules()
	rules[0].Then = "long"
	if engine.Rules()[0].Then != "no_water" {
		t.Error("Mutating Rules() result changed the engine")
	}
}
