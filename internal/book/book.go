// Package book selects opening positions or move prefixes for games from
// EPD, PGN and Polyglot books. All draws come from one seeded source so a
// tournament can be replayed move for move.
package book

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/rs/zerolog"

	"tourney/internal/board"
	"tourney/pkg/common"
)

type SelectType int

const (
	SelectAllNew SelectType = iota
	SelectAllOne
	SelectSamePair
)

func ParseSelectType(s string) (SelectType, error) {
	switch s {
	case "", "allnew":
		return SelectAllNew, nil
	case "allone":
		return SelectAllOne, nil
	case "samepair":
		return SelectSamePair, nil
	}
	return SelectAllNew, fmt.Errorf("book: unknown select type %q", s)
}

// Book yields one opening per draw: a start FEN, a move prefix, or both.
type Book interface {
	Load(path string, maxPly, top100 int) error
	GetRandom(rnd *rand.Rand) (fen string, moves []common.Move, ok bool)
	IsEmpty() bool
	Size() int
}

const (
	defaultMaxPly = 12
	drawAttempts  = 5
)

type Options struct {
	SelectType     string
	AllOneFen      string
	AllOneSanMoves string
	Seed           int64 // negative seeds from the wall clock
	Books          []BookOptions
}

type BookOptions struct {
	Type   string // epd, pgn, polyglot
	Path   string
	Mode   bool // enabled
	MaxPly int
	Top100 int
}

// Mng owns the configured books and the per-tournament draw state. It is
// used from the tournament task only and needs no locking.
type Mng struct {
	log zerolog.Logger

	selectType  SelectType
	alloneFen   string
	alloneMoves []common.Move
	books       []Book
	rnd         *rand.Rand

	queried     bool
	lastPairId  int
	cachedFen   string
	cachedMoves []common.Move
}

func NewMng(opts Options, log zerolog.Logger) (*Mng, error) {
	var selectType, err = ParseSelectType(opts.SelectType)
	if err != nil {
		return nil, err
	}
	var m = &Mng{
		log:        log,
		selectType: selectType,
		alloneFen:  opts.AllOneFen,
	}

	if opts.AllOneSanMoves != "" {
		moves, err := board.ParseSanMoves(opts.AllOneSanMoves)
		if err != nil {
			return nil, err
		}
		m.alloneMoves = moves
	}

	var seed = opts.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	m.rnd = rand.New(rand.NewSource(seed))

	for _, bookOpts := range opts.Books {
		if !bookOpts.Mode {
			continue
		}
		var maxPly = bookOpts.MaxPly
		if maxPly == 0 {
			maxPly = defaultMaxPly
		}
		var book Book
		switch bookOpts.Type {
		case "epd":
			book = &BookEpd{}
		case "pgn":
			book = &BookPgn{}
		case "polyglot":
			book = &BookPolyglot{}
		default:
			return nil, fmt.Errorf("book: unsupported book type %q", bookOpts.Type)
		}
		if err := book.Load(bookOpts.Path, maxPly, bookOpts.Top100); err != nil {
			return nil, err
		}
		if book.IsEmpty() {
			m.log.Warn().Str("path", bookOpts.Path).Msg("book is empty, skipped")
			continue
		}
		var size = ""
		if info, err := os.Stat(bookOpts.Path); err == nil {
			size = bytesize.New(float64(info.Size())).String()
		}
		m.log.Info().
			Str("type", bookOpts.Type).
			Str("path", bookOpts.Path).
			Int("items", book.Size()).
			Str("size", size).
			Msg("book loaded")
		m.books = append(m.books, book)
	}

	return m, nil
}

func (m *Mng) IsEmpty() bool {
	return len(m.books) == 0 && m.alloneFen == "" && len(m.alloneMoves) == 0
}

// GetRandomBook draws the opening for the next game of the given pair. A
// failed draw is retried a few times before falling back to the standard
// initial position (empty fen, no moves).
func (m *Mng) GetRandomBook(pairId int) (string, []common.Move) {
	defer func() {
		m.lastPairId = pairId
		m.queried = true
	}()

	if m.selectType == SelectAllOne {
		if m.alloneFen != "" {
			return m.alloneFen, nil
		}
		if len(m.alloneMoves) > 0 {
			return "", m.alloneMoves
		}
	}
	if len(m.books) == 0 {
		return "", nil
	}
	if m.selectType == SelectSamePair && m.queried && pairId == m.lastPairId {
		return m.cachedFen, m.cachedMoves
	}

	for attempt := 0; attempt < drawAttempts; attempt++ {
		var book = m.books[m.rnd.Intn(len(m.books))]
		var fen, moves, ok = book.GetRandom(m.rnd)
		if !ok {
			continue
		}
		m.cachedFen = fen
		m.cachedMoves = moves
		return fen, moves
	}
	m.log.Warn().Int("pair", pairId).Msg("book draw failed, using initial position")
	m.cachedFen = ""
	m.cachedMoves = nil
	return "", nil
}
