// Package cli renders contest data as terminal tables for the keyboard
// shortcuts of the f1bet command.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/abrezinsky/f1bet/internal/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// When formats a race date relative to now ("in 3 days", "2 weeks ago")
func When(date, now time.Time) string {
	if date.IsZero() {
		return "-"
	}
	return humanize.RelTime(date, now, "ago", "from now")
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// Races prints the race calendar with both status flags
func Races(w io.Writer, races []models.Race, now time.Time) {
	if len(races) == 0 {
		fmt.Fprintln(w, "No races available right now.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Rd", "Race", "Location", "Date", "When", "Predictions", "Status"})
	for _, r := range races {
		t.AppendRow(table.Row{
			r.Round,
			r.Name,
			r.Location,
			r.Date.Format("2006-01-02"),
			When(r.Date, now),
			yesNo(r.IsPredictionOpen, "Open", "Closed"),
			yesNo(r.IsRaceCompleted, "Completed", "Upcoming"),
		})
	}
	t.Render()
}

// Ranking prints the leaderboard
func Ranking(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users in the ranking yet or nobody has scored points.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Pos", "User", "Points"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	for i, u := range users {
		name := u.Username
		if u.IsAdmin {
			name += " (Admin)"
		}
		t.AppendRow(table.Row{i + 1, name, humanize.Comma(int64(u.TotalScore))})
	}
	t.Render()
}

// History prints a user's predictions
func History(w io.Writer, predictions []models.Prediction) {
	if len(predictions) == 0 {
		fmt.Fprintln(w, "This user has not made any predictions yet.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Race", "P1", "P2", "P3", "Points"})
	for _, p := range predictions {
		race := p.Race.ID
		score := "-"
		if p.Race.Race != nil {
			race = p.Race.Race.Name
			if p.Race.Race.IsRaceCompleted {
				score = humanize.Comma(int64(p.Score))
			}
		}
		t.AppendRow(table.Row{race, p.PredictedWinner, p.PredictedSecond, p.PredictedThird, score})
	}
	t.Render()
}
