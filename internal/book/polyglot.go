package book

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"tourney/internal/board"
	"tourney/pkg/common"
)

const polyglotRecordSize = 16

// polyglotEntry is one 16-byte record. The file is big-endian; integers
// are composed from bytes, never read as a raw struct.
type polyglotEntry struct {
	key    uint64
	move   uint16
	weight uint16
	learn  uint32
}

// decodeMove unpacks the packed move: bits 0-2 to-file, 3-5 to-rank,
// 6-8 from-file, 9-11 from-rank, 12-14 promotion.
func (e polyglotEntry) decodeMove() common.Move {
	var toFile = int(e.move & 0x7)
	var toRank = int(e.move >> 3 & 0x7)
	var fromFile = int(e.move >> 6 & 0x7)
	var fromRank = int(e.move >> 9 & 0x7)
	var promo = int(e.move >> 12 & 0x7)
	if promo > common.PromoQueen {
		promo = common.PromoNone
	}
	return common.Move{
		From:      common.MakeSquare(fromFile, fromRank),
		To:        common.MakeSquare(toFile, toRank),
		Promotion: promo,
	}
}

// BookPolyglot is a binary opening book sorted by Zobrist key.
type BookPolyglot struct {
	path    string
	maxPly  int
	top100  int
	entries []polyglotEntry
}

func (b *BookPolyglot) Load(path string, maxPly, top100 int) error {
	var data, err = os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}
	var count = len(data) / polyglotRecordSize
	var entries = make([]polyglotEntry, 0, count)
	for i := 0; i < count; i++ {
		var rec = data[i*polyglotRecordSize:]
		entries = append(entries, polyglotEntry{
			key:    binary.BigEndian.Uint64(rec[0:8]),
			move:   binary.BigEndian.Uint16(rec[8:10]),
			weight: binary.BigEndian.Uint16(rec[10:12]),
			learn:  binary.BigEndian.Uint32(rec[12:16]),
		})
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].key > entries[i].key {
			return fmt.Errorf("book: %v is not sorted by key", path)
		}
	}
	b.path = path
	b.maxPly = maxPly
	b.top100 = top100
	b.entries = entries
	return nil
}

func (b *BookPolyglot) IsEmpty() bool {
	return len(b.entries) == 0
}

func (b *BookPolyglot) Size() int {
	return len(b.entries)
}

// search returns all records with the given key, in file order.
func (b *BookPolyglot) search(key uint64) []polyglotEntry {
	var lo = sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].key >= key
	})
	var hi = lo
	for hi < len(b.entries) && b.entries[hi].key == key {
		hi++
	}
	return b.entries[lo:hi]
}

// GetRandom walks from the standard start, drawing one of the heaviest
// top100 percent entries at every ply, until the book runs dry or maxPly
// is reached.
func (b *BookPolyglot) GetRandom(rnd *rand.Rand) (string, []common.Move, bool) {
	var bd = board.New()
	var moves []common.Move
	for len(moves) < b.maxPly {
		var found = b.search(PolyglotKey(bd.Position()))
		if len(found) == 0 {
			break
		}
		var candidates = make([]polyglotEntry, len(found))
		copy(candidates, found)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].weight > candidates[j].weight
		})
		var k = len(candidates) * b.top100 / 100
		if k < 1 {
			k = 1
		}
		var mv = normalizeCastle(bd, candidates[rnd.Intn(k)].decodeMove())
		if !bd.CheckMake(mv) {
			break
		}
		moves = append(moves, mv)
	}
	return "", moves, len(moves) > 0
}

// normalizeCastle rewrites polyglot's king-takes-rook castling encoding
// (e1h1, e8a8, ...) to the coordinate form the board expects.
func normalizeCastle(bd *board.Board, mv common.Move) common.Move {
	if bd.IsLegal(mv) {
		return mv
	}
	var fixed, ok = castleFix[mv]
	if ok && bd.IsLegal(fixed) {
		return fixed
	}
	return mv
}

var castleFix = map[common.Move]common.Move{
	{From: common.MakeSquare(common.FileE, common.Rank1), To: common.MakeSquare(common.FileH, common.Rank1)}: {From: common.MakeSquare(common.FileE, common.Rank1), To: common.MakeSquare(common.FileG, common.Rank1)},
	{From: common.MakeSquare(common.FileE, common.Rank1), To: common.MakeSquare(common.FileA, common.Rank1)}: {From: common.MakeSquare(common.FileE, common.Rank1), To: common.MakeSquare(common.FileC, common.Rank1)},
	{From: common.MakeSquare(common.FileE, common.Rank8), To: common.MakeSquare(common.FileH, common.Rank8)}: {From: common.MakeSquare(common.FileE, common.Rank8), To: common.MakeSquare(common.FileG, common.Rank8)},
	{From: common.MakeSquare(common.FileE, common.Rank8), To: common.MakeSquare(common.FileA, common.Rank8)}: {From: common.MakeSquare(common.FileE, common.Rank8), To: common.MakeSquare(common.FileC, common.Rank8)},
}
