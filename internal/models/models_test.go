package models

import (
	"encoding/json"
	"testing"
)

func TestRaceRef_UnmarshalID(t *testing.T) {
	var p Prediction
	if err := json.Unmarshal([]byte(`{"race":"r1","predictedWinner":"Lando Norris"}`), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Race.ID != "r1" || p.Race.Race != nil {
		t.Errorf("expected bare id reference, got %+v", p.Race)
	}
}

func TestRaceRef_UnmarshalPopulated(t *testing.T) {
	body := `{"race":{"_id":"r2","name":"Monaco Grand Prix","isRaceCompleted":true},"score":15}`
	var p Prediction
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Race.ID != "r2" {
		t.Errorf("expected id r2, got %q", p.Race.ID)
	}
	if p.Race.Race == nil || p.Race.Race.Name != "Monaco Grand Prix" || !p.Race.Race.IsRaceCompleted {
		t.Errorf("expected populated race, got %+v", p.Race.Race)
	}
	if p.Score != 15 {
		t.Errorf("expected score 15, got %d", p.Score)
	}
}

func TestRaceRef_UnmarshalNullAndInvalid(t *testing.T) {
	var ref RaceRef
	if err := json.Unmarshal([]byte(`null`), &ref); err != nil || ref.ID != "" {
		t.Errorf("null should decode to empty ref, got %+v err=%v", ref, err)
	}
	if err := json.Unmarshal([]byte(`42`), &ref); err == nil {
		t.Error("expected error for numeric race reference")
	}
}

func TestRaceRef_Marshal(t *testing.T) {
	data, _ := json.Marshal(RaceRef{ID: "r1"})
	if string(data) != `"r1"` {
		t.Errorf("expected id string, got %s", data)
	}
	data, _ = json.Marshal(RaceRef{ID: "r1", Race: &Race{ID: "r1", Name: "Imola"}})
	var race Race
	if err := json.Unmarshal(data, &race); err != nil || race.Name != "Imola" {
		t.Errorf("expected race object, got %s", data)
	}
}

func TestPicks(t *testing.T) {
	tests := []struct {
		name     string
		picks    Picks
		complete bool
		distinct bool
	}{
		{"empty", Picks{}, false, false},
		{"partial", Picks{Winner: "Max Verstappen"}, false, false},
		{"duplicate", Picks{"Max Verstappen", "Max Verstappen", "Lando Norris"}, true, false},
		{"first and third equal", Picks{"Lando Norris", "Max Verstappen", "Lando Norris"}, true, false},
		{"valid", Picks{"Max Verstappen", "Lando Norris", "Charles Leclerc"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.picks.Complete(); got != tt.complete {
				t.Errorf("Complete() = %v, want %v", got, tt.complete)
			}
			if got := tt.picks.Distinct(); got != tt.distinct {
				t.Errorf("Distinct() = %v, want %v", got, tt.distinct)
			}
		})
	}
}

func TestDrivers(t *testing.T) {
	if len(Drivers) != 20 {
		t.Errorf("expected a 20 driver grid, got %d", len(Drivers))
	}
	if !IsDriver("Oscar Piastri") || IsDriver("Ayrton Senna") {
		t.Error("IsDriver returned the wrong answer")
	}
}
