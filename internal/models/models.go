package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Preferences holds the mutable profile settings of a user
type Preferences struct {
	Theme string `json:"theme,omitempty"`
}

// User is the backend's summary of a contest participant
type User struct {
	ID             string      `json:"_id"`
	Username       string      `json:"username"`
	Email          string      `json:"email,omitempty"`
	IsAdmin        bool        `json:"isAdmin"`
	TotalScore     int         `json:"totalScore"`
	ProfilePicture string      `json:"profilePicture,omitempty"`
	Preferences    Preferences `json:"preferences,omitempty"`
	CreatedAt      time.Time   `json:"createdAt,omitempty"`
}

// Race is a grand prix of the season. IsPredictionOpen and IsRaceCompleted
// are independent: a race may be closed without being completed and the
// backend never promises an ordering between the two.
type Race struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	Season           int       `json:"season"`
	Round            int       `json:"round"`
	IsPredictionOpen bool      `json:"isPredictionOpen"`
	IsRaceCompleted  bool      `json:"isRaceCompleted"`
}

// RaceRef is a prediction's race: the backend sends either the race id or
// the populated race document depending on the endpoint.
type RaceRef struct {
	ID   string
	Race *Race
}

// UnmarshalJSON accepts a bare id string, a race object, or null
func (r *RaceRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*r = RaceRef{}
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = RaceRef{ID: id}
		return nil
	}

	var race Race
	if err := json.Unmarshal(data, &race); err != nil {
		return fmt.Errorf("race reference: cannot unmarshal %s", string(data))
	}
	*r = RaceRef{ID: race.ID, Race: &race}
	return nil
}

// MarshalJSON writes the populated race when known, the id otherwise
func (r RaceRef) MarshalJSON() ([]byte, error) {
	if r.Race != nil {
		return json.Marshal(r.Race)
	}
	return json.Marshal(r.ID)
}

// Prediction is a user's top-3 pick for one race. Score is only meaningful
// once the race is completed and scores have been calculated.
type Prediction struct {
	ID              string  `json:"_id,omitempty"`
	User            string  `json:"user,omitempty"`
	Race            RaceRef `json:"race"`
	PredictedWinner string  `json:"predictedWinner"`
	PredictedSecond string  `json:"predictedSecond"`
	PredictedThird  string  `json:"predictedThird"`
	Score           int     `json:"score"`
}

// Picks returns the three predicted drivers in finishing order
func (p Prediction) Picks() Picks {
	return Picks{Winner: p.PredictedWinner, Second: p.PredictedSecond, Third: p.PredictedThird}
}

// Picks are three driver selections for the podium positions
type Picks struct {
	Winner string
	Second string
	Third  string
}

// Complete reports whether all three positions are selected
func (p Picks) Complete() bool {
	return p.Winner != "" && p.Second != "" && p.Third != ""
}

// Distinct reports whether the three selections are pairwise different
func (p Picks) Distinct() bool {
	return p.Winner != p.Second && p.Winner != p.Third && p.Second != p.Third
}

// PredictionRequest is the create-or-update body for POST /predictions
type PredictionRequest struct {
	RaceID          string `json:"raceId"`
	PredictedWinner string `json:"predictedWinner"`
	PredictedSecond string `json:"predictedSecond"`
	PredictedThird  string `json:"predictedThird"`
}

// RaceResult is the official podium entered by an administrator
type RaceResult struct {
	RaceID         string `json:"raceId"`
	OfficialWinner string `json:"officialWinner"`
	OfficialSecond string `json:"officialSecond"`
	OfficialThird  string `json:"officialThird"`
}

// Picks returns the official podium as Picks
func (r RaceResult) Picks() Picks {
	return Picks{Winner: r.OfficialWinner, Second: r.OfficialSecond, Third: r.OfficialThird}
}

// WSMessage is a message pushed to connected browser tabs
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RaceStatus is the observed state of a race's prediction window
type RaceStatus struct {
	RaceID           string    `json:"raceId"`
	Name             string    `json:"name"`
	IsPredictionOpen bool      `json:"isPredictionOpen"`
	IsRaceCompleted  bool      `json:"isRaceCompleted"`
	SeenAt           time.Time `json:"seenAt"`
}

// Status returns the race's current RaceStatus
func (r Race) Status(seenAt time.Time) RaceStatus {
	return RaceStatus{
		RaceID:           r.ID,
		Name:             r.Name,
		IsPredictionOpen: r.IsPredictionOpen,
		IsRaceCompleted:  r.IsRaceCompleted,
		SeenAt:           seenAt,
	}
}
