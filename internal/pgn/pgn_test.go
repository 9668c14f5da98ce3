package pgn

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tourney/internal/board"
	"tourney/pkg/common"
)

func playedBoard(t *testing.T, startFen string, sans []string) *board.Board {
	t.Helper()
	var b = board.New()
	if err := b.Reset(startFen); err != nil {
		t.Fatal(err)
	}
	for _, san := range sans {
		if !b.MakeSan(san) {
			t.Fatalf("san %v rejected", san)
		}
	}
	return b
}

func TestWriteAndReplay(t *testing.T) {
	var b = playedBoard(t, "", []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Bxc6", "dxc6", "O-O"})
	var header = Header{
		Event:       "test event",
		Site:        "here",
		Date:        time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC),
		Round:       3,
		White:       "alpha",
		Black:       "beta",
		Result:      common.Result{Outcome: common.OutcomeWhiteWins, Reason: common.ReasonCheckmate},
		TimeControl: "40/120+0",
	}

	var buf bytes.Buffer
	if err := Write(&buf, header, b.History()); err != nil {
		t.Fatal(err)
	}
	var text = buf.String()

	for _, want := range []string{
		`[Event "test event"]`,
		`[Date "2024.05.17"]`,
		`[Round "3"]`,
		`[White "alpha"]`,
		`[Black "beta"]`,
		`[Result "1-0"]`,
		`[Termination "checkmate"]`,
		`[TimeControl "40/120+0"]`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %v in:\n%v", want, text)
		}
	}
	if strings.Contains(text, "[FEN ") {
		t.Error("FEN tag written for a standard start")
	}

	var games, err = Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 {
		t.Fatalf("read back %v games, want 1", len(games))
	}
	var moves = games[0].Moves
	if len(moves) != b.Ply() {
		t.Fatalf("replayed %v moves, want %v", len(moves), b.Ply())
	}
	for i, hist := range b.History() {
		if moves[i] != hist.Move {
			t.Errorf("move %v: %v != %v", i, moves[i], hist.Move)
		}
	}
}

func TestWriteFenTag(t *testing.T) {
	const startFen = "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"
	var b = playedBoard(t, startFen, []string{"Ra8#"})
	var header = Header{
		Event:    "mate",
		Date:     time.Now(),
		White:    "a",
		Black:    "b",
		Result:   common.Result{Outcome: common.OutcomeWhiteWins, Reason: common.ReasonCheckmate},
		StartFen: b.StartFen(),
	}
	var buf bytes.Buffer
	if err := Write(&buf, header, b.History()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `[FEN "`+startFen+`"]`) {
		t.Errorf("FEN tag missing:\n%v", buf.String())
	}

	var games, err = Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || len(games[0].Moves) != 1 {
		t.Fatalf("replay from FEN failed: %+v", games)
	}
}

func TestWriteLineWrapping(t *testing.T) {
	var sans = []string{
		"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Ba4", "Nf6",
		"O-O", "Be7", "Re1", "b5", "Bb3", "d6", "c3", "O-O",
	}
	var b = playedBoard(t, "", sans)
	var buf bytes.Buffer
	var header = Header{Event: "wrap", Date: time.Now(), White: "a", Black: "b",
		Result: common.Result{Outcome: common.OutcomeDraw}}
	if err := Write(&buf, header, b.History()); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "[") {
			continue
		}
		if n := len(strings.Fields(line)); n > 3*8 {
			t.Errorf("movetext line too long (%v tokens): %q", n, line)
		}
	}
}

func TestReadMultipleGames(t *testing.T) {
	const text = `[Event "one"]
[Result "1-0"]

1. e4 e5 2. Nf3 1-0

[Event "two"]
[Result "0-1"]

1. d4 Nf6 0-1
`
	var games, err = Read(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 {
		t.Fatalf("read %v games, want 2", len(games))
	}
	if event, _ := games[1].TagValue("Event"); event != "two" {
		t.Errorf("second game event = %q", event)
	}
	if len(games[0].Moves) != 3 || len(games[1].Moves) != 2 {
		t.Errorf("move counts = %v/%v", len(games[0].Moves), len(games[1].Moves))
	}
}
