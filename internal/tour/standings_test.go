package tour

import (
	"math"
	"strings"
	"testing"

	"tourney/pkg/common"
)

func record(white, black PlayerId, outcome common.Outcome) GameRecord {
	return GameRecord{
		Pairing: Pairing{White: white, Black: black},
		Result:  common.Result{Outcome: outcome},
	}
}

func TestComputeStandings(t *testing.T) {
	var names = []string{"a", "b", "c"}
	var records = []GameRecord{
		record(0, 1, common.OutcomeWhiteWins), // a beats b
		record(1, 2, common.OutcomeWhiteWins), // b beats c
		record(2, 0, common.OutcomeDraw),      // c draws a
	}
	var rows = ComputeStandings(names, records)

	if rows[0].Name != "a" {
		t.Errorf("leader = %v, want a", rows[0].Name)
	}
	if rows[0].Points != 1.5 {
		t.Errorf("a points = %v, want 1.5", rows[0].Points)
	}
	var byName = map[string]Standing{}
	for _, row := range rows {
		byName[row.Name] = row
	}
	if byName["b"].Points != 1 || byName["c"].Points != 0.5 {
		t.Errorf("points: b=%v c=%v", byName["b"].Points, byName["c"].Points)
	}
	if byName["b"].Wins != 1 || byName["b"].Losses != 1 || byName["b"].Draws != 0 {
		t.Errorf("b tally = %+v", byName["b"])
	}
	// a defeated b (1 point) and drew c (0.5): SB = 1 + 0.25
	if got := byName["a"].SB; math.Abs(got-1.25) > 1e-9 {
		t.Errorf("a SB = %v, want 1.25", got)
	}
}

func TestStandingsSonnebornBergerTieBreak(t *testing.T) {
	var names = []string{"a", "b", "c", "d"}
	var records = []GameRecord{
		record(0, 2, common.OutcomeWhiteWins), // a beats c
		record(1, 3, common.OutcomeWhiteWins), // b beats d
		record(2, 3, common.OutcomeWhiteWins), // c beats d
	}
	// a and b both have 1 point; a beat the stronger opponent
	var rows = ComputeStandings(names, records)
	if rows[0].Name != "a" || rows[1].Name != "b" {
		t.Errorf("order = %v, %v; want a then b", rows[0].Name, rows[1].Name)
	}
}

func TestStandingsIgnoresNoResult(t *testing.T) {
	var names = []string{"a", "b"}
	var records = []GameRecord{
		record(0, 1, common.OutcomeNone), // aborted
		record(0, 1, common.OutcomeWhiteWins),
	}
	var rows = ComputeStandings(names, records)
	var total = 0.0
	for _, row := range rows {
		total += row.Points
	}
	if total != 1 {
		t.Errorf("total points = %v, want 1 (aborted game scored)", total)
	}
}

func TestFormatStandings(t *testing.T) {
	var rows = ComputeStandings([]string{"alpha", "beta"},
		[]GameRecord{record(0, 1, common.OutcomeWhiteWins)})
	var text = FormatStandings(rows)
	if !strings.Contains(text, "alpha") || !strings.Contains(text, "beta") {
		t.Errorf("table missing names:\n%v", text)
	}
	if !strings.HasPrefix(strings.Fields(strings.Split(text, "\n")[1])[0], "1") {
		t.Errorf("first row not ranked 1:\n%v", text)
	}
}

func TestComputeStat(t *testing.T) {
	var stat = ComputeStat(60, 40, 0)
	if stat.WinningFraction != 0.6 {
		t.Errorf("winning fraction = %v, want 0.6", stat.WinningFraction)
	}
	if stat.EloDifference < 60 || stat.EloDifference > 80 {
		t.Errorf("elo difference = %v, want about 70", stat.EloDifference)
	}
	if stat.Los <= 0.5 || stat.Los > 1 {
		t.Errorf("los = %v", stat.Los)
	}
	var even = ComputeStat(10, 10, 10)
	if even.WinningFraction != 0.5 || math.Abs(even.EloDifference) > 1e-9 {
		t.Errorf("even match: %+v", even)
	}
	// no decisive games must not divide by zero
	_ = ComputeStat(0, 0, 5)
}
