package tour

import (
	"fmt"
	"sort"
	"strings"

	"tourney/pkg/common"
)

// Standing is one row of the table: 1 for a win, 0.5 for a draw, ties
// broken by Sonneborn-Berger.
type Standing struct {
	Pid    PlayerId
	Name   string
	Wins   int
	Losses int
	Draws  int
	Points float64
	SB     float64
}

// ComputeStandings recomputes the whole table from the result log; it is
// never maintained incrementally.
func ComputeStandings(names []string, records []GameRecord) []Standing {
	var rows = make([]Standing, len(names))
	for i := range rows {
		rows[i].Pid = i
		rows[i].Name = names[i]
	}

	for _, rec := range records {
		var w, b = rec.Pairing.White, rec.Pairing.Black
		switch rec.Result.Outcome {
		case common.OutcomeWhiteWins:
			rows[w].Wins++
			rows[b].Losses++
		case common.OutcomeBlackWins:
			rows[b].Wins++
			rows[w].Losses++
		case common.OutcomeDraw:
			rows[w].Draws++
			rows[b].Draws++
		}
	}
	for i := range rows {
		rows[i].Points = float64(rows[i].Wins) + 0.5*float64(rows[i].Draws)
	}

	// Sonneborn-Berger: defeated opponents' scores plus half the drawn
	// opponents' scores
	for _, rec := range records {
		var w, b = rec.Pairing.White, rec.Pairing.Black
		switch rec.Result.Outcome {
		case common.OutcomeWhiteWins:
			rows[w].SB += rows[b].Points
		case common.OutcomeBlackWins:
			rows[b].SB += rows[w].Points
		case common.OutcomeDraw:
			rows[w].SB += 0.5 * rows[b].Points
			rows[b].SB += 0.5 * rows[w].Points
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].SB > rows[j].SB
	})
	return rows
}

// FormatStandings renders the table for the log and the result file.
func FormatStandings(rows []Standing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4v %-24v %5v %3v %3v %3v %7v %7v\n",
		"#", "name", "pts", "w", "l", "d", "sb", "games")
	for i, row := range rows {
		fmt.Fprintf(&sb, "%-4v %-24v %5.1f %3v %3v %3v %7.2f %7v\n",
			i+1, row.Name, row.Points, row.Wins, row.Losses, row.Draws, row.SB,
			row.Wins+row.Losses+row.Draws)
	}
	return sb.String()
}
