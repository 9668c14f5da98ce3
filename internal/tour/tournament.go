// Package tour composes games into a complete event: pairing generation,
// a concurrency-bounded pool of live games driven by one ticker, player
// reuse across games, standings and the PGN archive.
package tour

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourney/internal/book"
	"tourney/internal/clock"
	"tourney/internal/engine"
	"tourney/internal/game"
	"tourney/internal/pgn"
	"tourney/pkg/common"
)

const defaultStartupBudget = 10 * time.Second

type Config struct {
	Event string
	Site  string

	Type         string // roundrobin, gauntlet, knockout, swiss
	GamesPerPair int
	Rounds       int // swiss only
	GauntletSeed int

	Concurrency int
	Ponder      bool

	TimeControl  *clock.TimeController
	Adjudication game.Adjudication

	Engines []engine.Config

	PgnPath    string
	ResultPath string

	TickInterval  time.Duration
	StartupBudget time.Duration
}

type liveGame struct {
	game    *game.Game
	pairing Pairing
	created time.Time
}

type Tournament struct {
	cfg   Config
	log   zerolog.Logger
	books *book.Mng
	runId string

	gen     pairingGenerator
	genDone bool

	records []GameRecord
	live    []*liveGame
	pool    *playerPool

	pgnFile *os.File
}

func New(cfg Config, books *book.Mng, log zerolog.Logger) (*Tournament, error) {
	if len(cfg.Engines) < 2 {
		return nil, fmt.Errorf("tour: need at least 2 engines, have %v", len(cfg.Engines))
	}
	if cfg.GamesPerPair <= 0 {
		cfg.GamesPerPair = 2
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.StartupBudget == 0 {
		cfg.StartupBudget = defaultStartupBudget
	}
	if cfg.TimeControl == nil {
		cfg.TimeControl = clock.NewInfinite()
	}

	var gen pairingGenerator
	var err error
	switch cfg.Type {
	case "", "roundrobin":
		gen = newRoundRobin(len(cfg.Engines), cfg.GamesPerPair)
	case "gauntlet":
		gen, err = newGauntlet(len(cfg.Engines), cfg.GauntletSeed, cfg.GamesPerPair)
		if err != nil {
			return nil, err
		}
	case "knockout":
		gen = newKnockout(len(cfg.Engines), cfg.GamesPerPair)
	case "swiss":
		gen = newSwiss(len(cfg.Engines), cfg.GamesPerPair, cfg.Rounds)
	default:
		return nil, fmt.Errorf("tour: unknown tournament type %q", cfg.Type)
	}

	var runId = uuid.NewString()
	if cfg.Event == "" {
		cfg.Event = "tourney-" + runId[:8]
	}

	return &Tournament{
		cfg:   cfg,
		log:   log.With().Str("run", runId[:8]).Logger(),
		books: books,
		runId: runId,
		gen:   gen,
		pool:  newPlayerPool(cfg.Engines, log),
	}, nil
}

// Run plays the event to completion or until ctx is cancelled. On
// cancellation no new pairings start; live games are aborted.
func (t *Tournament) Run(ctx context.Context) error {
	t.log.Info().
		Str("event", t.cfg.Event).
		Str("type", t.cfg.Type).
		Int("engines", len(t.cfg.Engines)).
		Int("concurrency", t.cfg.Concurrency).
		Str("tc", t.cfg.TimeControl.String()).
		Msg("tournament started")

	if t.cfg.PgnPath != "" {
		var file, err = os.OpenFile(t.cfg.PgnPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("tour: %w", err)
		}
		t.pgnFile = file
		defer file.Close()
	}
	defer t.shutdown()

	var ticker = NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.abortLive()
			return ctx.Err()
		case <-ticker.C():
			if t.tick() {
				t.finish()
				return nil
			}
		}
	}
}

// tick runs one scheduler step; true means the event is complete.
func (t *Tournament) tick() bool {
	for _, lg := range t.live {
		lg.game.TickWork()
		if lg.game.State() == game.Begin && time.Since(lg.created) > t.cfg.StartupBudget {
			t.forceStartupResult(lg)
		}
	}

	var remaining = t.live[:0]
	for _, lg := range t.live {
		if lg.game.State() == game.Stopped {
			t.finishGame(lg)
		} else {
			remaining = append(remaining, lg)
		}
	}
	t.live = remaining

	for len(t.live) < t.cfg.Concurrency && !t.genDone {
		var pairing, ok, done = t.gen.next(t.records)
		if done {
			t.genDone = true
			break
		}
		if !ok {
			break
		}
		t.startGame(pairing)
	}

	return t.genDone && len(t.live) == 0
}

// forceStartupResult blames whichever side failed to reach ready.
func (t *Tournament) forceStartupResult(lg *liveGame) {
	var alive = func(s engine.State) bool {
		return s == engine.StateReady || s == engine.StatePlaying
	}
	var result = common.Result{Reason: common.ReasonCrash}
	var whiteReady = alive(lg.game.PlayerState(common.White))
	var blackReady = alive(lg.game.PlayerState(common.Black))
	switch {
	case whiteReady && !blackReady:
		result.Outcome = common.OutcomeWhiteWins
	case blackReady && !whiteReady:
		result.Outcome = common.OutcomeBlackWins
	default:
		result.Outcome = common.OutcomeDraw
	}
	t.log.Warn().Int("game", lg.game.Idx()).Msg("startup budget exceeded")
	lg.game.Abort(result)
}

func (t *Tournament) startGame(pairing Pairing) {
	var whiteDead = t.pool.disabled(pairing.White)
	var blackDead = t.pool.disabled(pairing.Black)
	if whiteDead || blackDead {
		t.recordForfeit(pairing, whiteDead, blackDead)
		return
	}

	var startFen = ""
	var startMoves []common.Move
	if t.books != nil {
		startFen, startMoves = t.books.GetRandomBook(pairing.PairId)
	}

	var white, err = t.pool.acquire(pairing.White)
	if err != nil {
		t.recordForfeit(pairing, true, false)
		return
	}
	black, err := t.pool.acquire(pairing.Black)
	if err != nil {
		t.pool.release(pairing.White, white)
		t.recordForfeit(pairing, false, true)
		return
	}

	var g = game.New(pairing.Idx, t.cfg.TimeControl.Clone(), t.cfg.Ponder, t.cfg.Adjudication, t.log)
	g.SetStartup(pairing.Round, pairing.PairId, startFen, startMoves)
	g.Attach(white, common.White)
	g.Attach(black, common.Black)
	t.live = append(t.live, &liveGame{game: g, pairing: pairing, created: time.Now()})
}

// recordForfeit books a game that could not be played because one or both
// engines are out of the event.
func (t *Tournament) recordForfeit(pairing Pairing, whiteDead, blackDead bool) {
	var result = common.Result{Reason: common.ReasonCrash}
	switch {
	case whiteDead && blackDead:
		result.Outcome = common.OutcomeDraw
	case whiteDead:
		result.Outcome = common.OutcomeBlackWins
	default:
		result.Outcome = common.OutcomeWhiteWins
	}
	t.log.Warn().
		Str("white", t.cfg.Engines[pairing.White].Name).
		Str("black", t.cfg.Engines[pairing.Black].Name).
		Msg("pairing forfeited")
	t.records = append(t.records, GameRecord{Pairing: pairing, Result: result})
}

func (t *Tournament) finishGame(lg *liveGame) {
	var result = lg.game.Result()
	t.records = append(t.records, GameRecord{Pairing: lg.pairing, Result: result})

	t.writePgn(lg)

	var players = lg.game.Deattach()
	t.pool.release(lg.pairing.White, players[common.White])
	t.pool.release(lg.pairing.Black, players[common.Black])

	t.reportStandings()
}

func (t *Tournament) writePgn(lg *liveGame) {
	if t.pgnFile == nil {
		return
	}
	var b = lg.game.Board()
	var startFen = ""
	if !b.FromOriginPosition() {
		startFen = b.StartFen()
	}
	var header = pgn.Header{
		Event:       t.cfg.Event,
		Site:        t.cfg.Site,
		Date:        time.Now(),
		Round:       lg.pairing.Round,
		White:       t.cfg.Engines[lg.pairing.White].Name,
		Black:       t.cfg.Engines[lg.pairing.Black].Name,
		Result:      lg.game.Result(),
		TimeControl: t.cfg.TimeControl.String(),
		StartFen:    startFen,
	}
	if err := pgn.Write(t.pgnFile, header, b.History()); err != nil {
		t.log.Error().Err(err).Msg("pgn write failed")
	}
}

func (t *Tournament) engineNames() []string {
	var names = make([]string, len(t.cfg.Engines))
	for i := range t.cfg.Engines {
		names[i] = t.cfg.Engines[i].Name
	}
	return names
}

func (t *Tournament) reportStandings() {
	var rows = ComputeStandings(t.engineNames(), t.records)
	t.log.Info().Int("games", len(t.records)).Msg("standings\n" + FormatStandings(rows))

	if len(t.cfg.Engines) == 2 {
		var wins, losses, draws = t.headToHead(0, 1)
		var stat = ComputeStat(wins, losses, draws)
		t.log.Info().
			Float64("winningFraction", stat.WinningFraction).
			Float64("eloDifference", stat.EloDifference).
			Float64("los", stat.Los).
			Msg("match statistics")
	}
}

// headToHead counts pid's results against opponent over the whole log.
func (t *Tournament) headToHead(pid, opponent PlayerId) (wins, losses, draws int) {
	for _, rec := range t.records {
		var asWhite = rec.Pairing.White == pid && rec.Pairing.Black == opponent
		var asBlack = rec.Pairing.Black == pid && rec.Pairing.White == opponent
		if !asWhite && !asBlack {
			continue
		}
		switch rec.Result.Outcome {
		case common.OutcomeDraw:
			draws++
		case common.OutcomeWhiteWins:
			if asWhite {
				wins++
			} else {
				losses++
			}
		case common.OutcomeBlackWins:
			if asBlack {
				wins++
			} else {
				losses++
			}
		}
	}
	return
}

func (t *Tournament) abortLive() {
	for _, lg := range t.live {
		lg.game.Abort(common.Result{Reason: common.ReasonAborted})
		t.finishGame(lg)
	}
	t.live = nil
}

func (t *Tournament) finish() {
	var rows = ComputeStandings(t.engineNames(), t.records)
	var table = FormatStandings(rows)
	t.log.Info().Msg("tournament finished\n" + table)

	if t.cfg.ResultPath != "" {
		var err = os.WriteFile(t.cfg.ResultPath, []byte(table), 0644)
		if err != nil {
			t.log.Error().Err(err).Msg("result file write failed")
		}
	}
}

func (t *Tournament) shutdown() {
	t.pool.quitAll()
}

// Records exposes the result log.
func (t *Tournament) Records() []GameRecord {
	return t.records
}
