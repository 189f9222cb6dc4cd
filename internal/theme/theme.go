// Package theme maps a user's team preference to navbar colours.
package theme

import "sync"

// DefaultID is used for users without a (known) preference
const DefaultID = "default"

// Theme is a team colour scheme
type Theme struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	Logo           string `json:"logo"`
}

// Teams are the selectable themes, in selector order
var Teams = []Theme{
	{ID: "mercedes", Name: "Mercedes-AMG Petronas F1 Team", PrimaryColor: "#00A19C", SecondaryColor: "#FFFFFF", Logo: "/logos/mercedes_logo.png"},
	{ID: "redbull", Name: "Oracle Red Bull Racing", PrimaryColor: "#3671C6", SecondaryColor: "#FCF301", Logo: "/logos/redbull_logo.png"},
	{ID: "ferrari", Name: "Scuderia Ferrari", PrimaryColor: "#ED1C24", SecondaryColor: "#FFFFFF", Logo: "/logos/ferrari_logo.png"},
	{ID: "mclaren", Name: "McLaren Formula 1 Team", PrimaryColor: "#FF8700", SecondaryColor: "#47C2F0", Logo: "/logos/mclaren_logo.png"},
	{ID: "astonmartin", Name: "Aston Martin Aramco F1 Team", PrimaryColor: "#006F62", SecondaryColor: "#B6B6B6", Logo: "/logos/astonmartin_logo.png"},
	{ID: "alpine", Name: "BWT Alpine F1 Team", PrimaryColor: "#F282B4", SecondaryColor: "#FF80B6", Logo: "/logos/alpine_logo.png"},
	{ID: "williams", Name: "Williams Racing", PrimaryColor: "#005AFF", SecondaryColor: "#00C3FF", Logo: "/logos/williams_logo.png"},
	{ID: "vcarb", Name: "Visa Cash App RB F1 Team", PrimaryColor: "#6692FF", SecondaryColor: "#FFFFFF", Logo: "/logos/vcarb_logo.png"},
	{ID: "sauber", Name: "Stake F1 Team Kick Sauber", PrimaryColor: "#52E252", SecondaryColor: "#000000", Logo: "/logos/sauber_logo.png"},
	{ID: "haas", Name: "MoneyGram Haas F1 Team", PrimaryColor: "#B6B6B6", SecondaryColor: "#FFFFFF", Logo: "/logos/haas_logo.png"},
	{ID: DefaultID, Name: "Default theme (F1 red)", PrimaryColor: "#E10600", SecondaryColor: "#FFFFFF", Logo: "/logos/f1_logo.png"},
}

// Default returns the fallback theme
func Default() Theme {
	return Teams[len(Teams)-1]
}

// Lookup returns the theme with the given id
func Lookup(id string) (Theme, bool) {
	for _, t := range Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// Resolve returns the theme for a preference, falling back to the default
// for empty or unknown ids
func Resolve(id string) Theme {
	if t, ok := Lookup(id); ok {
		return t
	}
	return Default()
}

// Memo caches the resolved theme for one (user, preference) pair. It is
// recomputed only when the key changes.
type Memo struct {
	mu       sync.Mutex
	userID   string
	pref     string
	valid    bool
	theme    Theme
	computes int
}

// Get returns the theme for the user and preference, resolving it only if
// the pair differs from the previous call
func (m *Memo) Get(userID, pref string) Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.userID == userID && m.pref == pref {
		return m.theme
	}
	m.userID, m.pref, m.valid = userID, pref, true
	m.theme = Resolve(pref)
	m.computes++
	return m.theme
}

// Computes returns how many times the theme was resolved
func (m *Memo) Computes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}
