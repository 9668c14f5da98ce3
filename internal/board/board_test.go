package board

import (
	"testing"

	"tourney/pkg/common"
)

func mustParse(t *testing.T, s string) common.Move {
	t.Helper()
	var mv, ok = common.ParseMove(s)
	if !ok {
		t.Fatalf("bad move literal %q", s)
	}
	return mv
}

func TestCheckMakeLegality(t *testing.T) {
	var b = New()
	if b.CheckMake(mustParse(t, "e2e5")) {
		t.Error("e2e5 accepted in the initial position")
	}
	if !b.CheckMake(mustParse(t, "e2e4")) {
		t.Error("e2e4 rejected in the initial position")
	}
	if b.SideToMove() != common.Black {
		t.Error("side did not toggle after a move")
	}
	if b.Ply() != 1 || len(b.History()) != 1 {
		t.Errorf("ply = %v, history = %v, want 1/1", b.Ply(), len(b.History()))
	}
	if b.History()[0].San != "e4" {
		t.Errorf("san = %q, want e4", b.History()[0].San)
	}
}

func TestPlyMatchesHistory(t *testing.T) {
	var b = New()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		if !b.CheckMake(mustParse(t, s)) {
			t.Fatalf("move %v rejected", s)
		}
		if b.Ply() != len(b.History()) {
			t.Fatalf("ply %v != history %v", b.Ply(), len(b.History()))
		}
	}
}

func TestRuleCheckmate(t *testing.T) {
	var b = New()
	// fool's mate
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		if !b.CheckMake(mustParse(t, s)) {
			t.Fatalf("move %v rejected", s)
		}
	}
	var result = b.Rule()
	if result.Outcome != common.OutcomeBlackWins || result.Reason != common.ReasonCheckmate {
		t.Errorf("result = %v %v, want 0-1 checkmate", result.Outcome, result.Reason)
	}
}

func TestRuleBackRankMate(t *testing.T) {
	var b = New()
	if err := b.Reset("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"); err != nil {
		t.Fatal(err)
	}
	if !b.CheckMake(mustParse(t, "a1a8")) {
		t.Fatal("Ra8 rejected")
	}
	var result = b.Rule()
	if result.Outcome != common.OutcomeWhiteWins || result.Reason != common.ReasonCheckmate {
		t.Errorf("result = %v %v, want 1-0 checkmate", result.Outcome, result.Reason)
	}
	if b.History()[0].San != "Ra8#" {
		t.Errorf("san = %q, want Ra8#", b.History()[0].San)
	}
}

func TestRuleRepetition(t *testing.T) {
	var b = New()
	for i := 0; i < 2; i++ {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			if !b.CheckMake(mustParse(t, s)) {
				t.Fatalf("move %v rejected", s)
			}
		}
	}
	var result = b.Rule()
	if result.Outcome != common.OutcomeDraw || result.Reason != common.ReasonRepetition {
		t.Errorf("result = %v %v, want draw by repetition", result.Outcome, result.Reason)
	}
}

func TestFenRoundTrip(t *testing.T) {
	var b = New()
	for _, s := range []string{"e2e4", "c7c5", "g1f3"} {
		b.CheckMake(mustParse(t, s))
	}
	var fen = b.FEN()
	var b2 = New()
	if err := b2.Reset(fen); err != nil {
		t.Fatal(err)
	}
	if b2.FEN() != fen {
		t.Errorf("fen round trip %q -> %q", fen, b2.FEN())
	}
}

func TestPromotionMove(t *testing.T) {
	var b = New()
	if err := b.Reset("8/P6k/8/8/8/8/7K/8 w - - 0 1"); err != nil {
		t.Fatal(err)
	}
	if !b.CheckMake(mustParse(t, "a7a8q")) {
		t.Fatal("promotion rejected")
	}
	if b.History()[0].San != "a8=Q+" && b.History()[0].San != "a8=Q" {
		t.Errorf("san = %q, want a8=Q", b.History()[0].San)
	}
}

func TestReplaySanMoves(t *testing.T) {
	var moves, err = ParseSanMoves("1. e4 e5 2. Nf3 Nc6 3. Bb5")
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 5 {
		t.Fatalf("got %v moves, want 5", len(moves))
	}
	if moves[0].String() != "e2e4" || moves[4].String() != "f1b5" {
		t.Errorf("moves = %v", moves)
	}
	if _, err := ParseSanMoves("1. e5"); err == nil {
		t.Error("illegal opening accepted")
	}
}

func TestMoveStrings(t *testing.T) {
	var b = New()
	b.CheckMake(mustParse(t, "e2e4"))
	b.CheckMake(mustParse(t, "e7e5"))
	var got = b.MoveStrings()
	if len(got) != 2 || got[0] != "e2e4" || got[1] != "e7e5" {
		t.Errorf("MoveStrings = %v", got)
	}
}
