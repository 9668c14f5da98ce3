package book

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"tourney/internal/board"
	"tourney/pkg/common"
)

// reference keys from the book format description,
// http://hgm.nubati.net/book_format.html
func TestPolyglotKeyVectors(t *testing.T) {
	var tests = []struct {
		moves string
		want  uint64
	}{
		{"", 0x463B96181691FC9C},
		{"e2e4", 0x823C9B50FD114196},
		{"e2e4 d7d5", 0x0756B94461C50FB0},
		{"e2e4 d7d5 e4e5", 0x662FAFB965DB29D4},
		{"e2e4 d7d5 e4e5 f7f5", 0x22A48B5A8E47FF78},
		{"e2e4 d7d5 e4e5 f7f5 e1e2", 0x652A607CA3F242C1},
		{"e2e4 d7d5 e4e5 f7f5 e1e2 e8f7", 0x00FDD303C946BDD9},
		{"a2a4 b7b5 h2h4 b5b4 c2c4", 0x3C8123EA7B067637},
		{"a2a4 b7b5 h2h4 b5b4 c2c4 b4c3 a1a3", 0x5C3F9B829B279560},
	}
	for _, test := range tests {
		var b = board.New()
		if test.moves != "" {
			for _, s := range strings.Fields(test.moves) {
				var mv, _ = common.ParseMove(s)
				if !b.CheckMake(mv) {
					t.Fatalf("setup move %v rejected", s)
				}
			}
		}
		if got := PolyglotKey(b.Position()); got != test.want {
			t.Errorf("key after %q = %016X, want %016X", test.moves, got, test.want)
		}
	}
}

func encodeMove(from, to int) uint16 {
	return uint16(common.File(to)) |
		uint16(common.Rank(to))<<3 |
		uint16(common.File(from))<<6 |
		uint16(common.Rank(from))<<9
}

func TestPolyglotSearch(t *testing.T) {
	var entries = []polyglotEntry{
		{key: 1, move: 10, weight: 5},
		{key: 2, move: 20, weight: 9},
		{key: 2, move: 21, weight: 7},
		{key: 2, move: 22, weight: 1},
		{key: 9, move: 30, weight: 2},
	}
	var b = &BookPolyglot{entries: entries, maxPly: 8, top100: 100}

	var found = b.search(2)
	if len(found) != 3 {
		t.Fatalf("search(2) returned %v entries, want 3", len(found))
	}
	for i, e := range found {
		if e.move != uint16(20+i) {
			t.Errorf("search(2)[%v].move = %v, file order broken", i, e.move)
		}
	}
	if len(b.search(5)) != 0 {
		t.Error("search(5) found ghosts")
	}
	if len(b.search(1)) != 1 || len(b.search(9)) != 1 {
		t.Error("boundary keys not found")
	}
}

func TestPolyglotDecodeMove(t *testing.T) {
	var e = polyglotEntry{move: encodeMove(common.MakeSquare(common.FileE, common.Rank2), common.MakeSquare(common.FileE, common.Rank4))}
	if got := e.decodeMove().String(); got != "e2e4" {
		t.Errorf("decodeMove = %v, want e2e4", got)
	}

	var promo = polyglotEntry{move: encodeMove(common.MakeSquare(common.FileA, common.Rank7), common.MakeSquare(common.FileA, common.Rank8)) | 4<<12}
	if got := promo.decodeMove().String(); got != "a7a8q" {
		t.Errorf("promotion decodeMove = %v, want a7a8q", got)
	}
}

func TestPolyglotWalk(t *testing.T) {
	var start = board.New()
	var startKey = PolyglotKey(start.Position())

	var e2e4, _ = common.ParseMove("e2e4")
	start.CheckMake(e2e4)
	var afterKey = PolyglotKey(start.Position())

	var entries = []polyglotEntry{
		{key: startKey, move: encodeMove(e2e4.From, e2e4.To), weight: 10},
		{key: afterKey, move: encodeMove(common.MakeSquare(common.FileE, common.Rank7), common.MakeSquare(common.FileE, common.Rank5)), weight: 10},
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var b = &BookPolyglot{entries: entries, maxPly: 8, top100: 100}
	var rnd = rand.New(rand.NewSource(1))
	var fen, moves, ok = b.GetRandom(rnd)
	if !ok || fen != "" {
		t.Fatalf("GetRandom failed: fen=%q ok=%v", fen, ok)
	}
	if len(moves) != 2 || moves[0].String() != "e2e4" || moves[1].String() != "e7e5" {
		t.Errorf("walk = %v, want [e2e4 e7e5]", moves)
	}
}

func TestPolyglotMaxPly(t *testing.T) {
	var start = board.New()
	var e2e4, _ = common.ParseMove("e2e4")
	var entries = []polyglotEntry{
		{key: PolyglotKey(start.Position()), move: encodeMove(e2e4.From, e2e4.To), weight: 1},
	}
	var b = &BookPolyglot{entries: entries, maxPly: 0, top100: 100}
	var _, moves, _ = b.GetRandom(rand.New(rand.NewSource(1)))
	if len(moves) != 0 {
		t.Errorf("maxPly 0 still drew %v moves", len(moves))
	}
}

func TestPolyglotCastleNormalization(t *testing.T) {
	var b = board.New()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5"} {
		var mv, _ = common.ParseMove(s)
		if !b.CheckMake(mv) {
			t.Fatalf("setup move %v rejected", s)
		}
	}
	// white to castle: polyglot says e1h1
	var raw = common.Move{
		From: common.MakeSquare(common.FileE, common.Rank1),
		To:   common.MakeSquare(common.FileH, common.Rank1),
	}
	var fixed = normalizeCastle(b, raw)
	if fixed.String() != "e1g1" {
		t.Errorf("normalizeCastle(e1h1) = %v, want e1g1", fixed)
	}
	if !b.CheckMake(fixed) {
		t.Error("normalized castle rejected by the board")
	}
}
