package theme

import "testing"

func TestTeams(t *testing.T) {
	if len(Teams) != 11 {
		t.Fatalf("expected 11 themes, got %d", len(Teams))
	}
	seen := make(map[string]bool)
	for _, team := range Teams {
		if seen[team.ID] {
			t.Errorf("duplicate theme id %q", team.ID)
		}
		seen[team.ID] = true
		if team.PrimaryColor == "" || team.SecondaryColor == "" {
			t.Errorf("theme %q is missing colours", team.ID)
		}
	}
	if Default().ID != DefaultID {
		t.Errorf("expected default theme last, got %q", Default().ID)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		pref string
		want string
	}{
		{"ferrari", "ferrari"},
		{"mclaren", "mclaren"},
		{"", DefaultID},
		{"brawn", DefaultID},
	}
	for _, tt := range tests {
		if got := Resolve(tt.pref).ID; got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.pref, got, tt.want)
		}
	}
}

func TestMemo_RecomputesOnlyOnChange(t *testing.T) {
	var m Memo

	if got := m.Get("u1", "ferrari"); got.ID != "ferrari" {
		t.Fatalf("expected ferrari, got %q", got.ID)
	}
	m.Get("u1", "ferrari")
	m.Get("u1", "ferrari")
	if m.Computes() != 1 {
		t.Errorf("expected 1 computation for an unchanged key, got %d", m.Computes())
	}

	if got := m.Get("u1", "williams"); got.ID != "williams" {
		t.Errorf("expected williams after preference change, got %q", got.ID)
	}
	m.Get("u2", "williams")
	if m.Computes() != 3 {
		t.Errorf("expected recomputation on user change, got %d", m.Computes())
	}

	if got := m.Get("", ""); got.ID != DefaultID {
		t.Errorf("expected default for anonymous, got %q", got.ID)
	}
}
