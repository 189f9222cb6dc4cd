package models

// Drivers is the grid offered in every driver selector
var Drivers = []string{
	"Max Verstappen", "Yuki Tsunoda", "Charles Leclerc", "Lewis Hamilton",
	"Andrea Kimi Antonelli", "George Russell", "Lando Norris", "Oscar Piastri",
	"Fernando Alonso", "Lance Stroll", "Pierre Gasly", "Franco Colapinto",
	"Isack Hadjar", "Liam Lawson", "Nico Hülkenberg", "Gabriel Bortoleto",
	"Esteban Ocon", "Oliver Bearman", "Alexander Albon", "Carlos Sainz",
}

// IsDriver reports whether name is on the grid
func IsDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}
