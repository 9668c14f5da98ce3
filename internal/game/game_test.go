package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/board"
	"tourney/internal/clock"
	"tourney/internal/engine"
	"tourney/pkg/common"
)

// fakePlayer scripts one side of a game. Bestmoves are injected with
// emit, mirroring how the real adapter delivers them from its dispatch
// goroutine: computation flags drop first, then the receiver runs.
type fakePlayer struct {
	name       string
	ponderable bool

	state     engine.State
	computing engine.ComputingState
	b         *board.Board
	recv      engine.BestmoveFunc

	ponderMove common.Move
	score      int
	hasScore   bool

	goCount    int
	ponderhits int
	stops      int
	newGames   int
	quits      int
}

func newFakePlayer(name string) *fakePlayer {
	return &fakePlayer{name: name, state: engine.StateReady}
}

func (p *fakePlayer) Name() string     { return p.name }
func (p *fakePlayer) IsHuman() bool    { return false }
func (p *fakePlayer) KickStart() error { return nil }

func (p *fakePlayer) Setup(b *board.Board, tc *clock.TimeController, recv engine.BestmoveFunc) {
	p.b = b
	p.recv = recv
}

func (p *fakePlayer) NewGame() error {
	if p.state != engine.StateReady {
		return engine.ErrNotReady
	}
	p.newGames++
	p.state = engine.StatePlaying
	p.computing = engine.Idle
	p.ponderMove = common.MoveEmpty
	return nil
}

func (p *fakePlayer) Go() error {
	if p.state == engine.StateCrashed {
		return engine.ErrWrite
	}
	if p.computing == engine.Pondering {
		if last, ok := p.b.LastMove(); ok && last == p.ponderMove {
			p.computing = engine.Thinking
			p.ponderhits++
			return nil
		}
		p.stops++
		return nil
	}
	p.computing = engine.Thinking
	p.goCount++
	return nil
}

func (p *fakePlayer) GoPonder(mv common.Move) error {
	if !p.ponderable || !mv.IsValid() {
		return nil
	}
	p.ponderMove = mv
	p.computing = engine.Pondering
	return nil
}

func (p *fakePlayer) Stop() error {
	p.stops++
	return nil
}

func (p *fakePlayer) Quit() {
	p.quits++
	p.state = engine.StateStopped
}

func (p *fakePlayer) State() engine.State                   { return p.state }
func (p *fakePlayer) ComputingState() engine.ComputingState { return p.computing }
func (p *fakePlayer) Score() (int, bool)                    { return p.score, p.hasScore }

// emit delivers a bestmove the way the dispatch goroutine would.
func (p *fakePlayer) emit(moveText, ponderText string) {
	var oldState = p.computing
	p.computing = engine.Idle
	p.recv(moveText, ponderText, 10*time.Millisecond, oldState)
}

func newTestGame(t *testing.T, tc *clock.TimeController, ponderMode bool, adj Adjudication) (*Game, *fakePlayer, *fakePlayer) {
	t.Helper()
	if tc == nil {
		tc = clock.NewInfinite()
	}
	var g = New(0, tc, ponderMode, adj, zerolog.Nop())
	var white = newFakePlayer("white")
	var black = newFakePlayer("black")
	g.Attach(white, common.White)
	g.Attach(black, common.Black)
	return g, white, black
}

func startPlaying(t *testing.T, g *Game) {
	t.Helper()
	g.TickWork() // begin -> ready
	if g.State() != Ready {
		t.Fatalf("state = %v, want ready", g.State())
	}
	g.TickWork() // ready -> playing
	if g.State() != Playing {
		t.Fatalf("state = %v, want playing", g.State())
	}
}

func checkSingleThinker(t *testing.T, white, black *fakePlayer) {
	t.Helper()
	if white.computing == engine.Thinking && black.computing == engine.Thinking {
		t.Fatal("both players thinking")
	}
}

func TestGameNormalFlow(t *testing.T) {
	var g, white, black = newTestGame(t, nil, false, Adjudication{})
	startPlaying(t, g)

	if white.goCount != 1 || black.goCount != 0 {
		t.Fatalf("go counts = %v/%v, want 1/0", white.goCount, black.goCount)
	}
	checkSingleThinker(t, white, black)

	white.emit("e2e4", "")
	if g.Board().Ply() != 1 {
		t.Fatalf("ply = %v after white's move", g.Board().Ply())
	}
	if black.goCount != 1 {
		t.Fatalf("black did not start thinking")
	}
	checkSingleThinker(t, white, black)

	black.emit("e7e5", "")
	if g.Board().Ply() != 2 || white.goCount != 2 {
		t.Fatalf("ply = %v, white go = %v", g.Board().Ply(), white.goCount)
	}
}

func TestGameIllegalMove(t *testing.T) {
	var g, white, _ = newTestGame(t, nil, false, Adjudication{})
	startPlaying(t, g)

	white.emit("e2e5", "")
	if g.State() != Stopped {
		t.Fatal("game still running after illegal move")
	}
	var result = g.Result()
	if result.Outcome != common.OutcomeBlackWins || result.Reason != common.ReasonIllegalMove {
		t.Errorf("result = %v %v, want 0-1 illegal move", result.Outcome, result.Reason)
	}
}

func TestGameWrongSideDropped(t *testing.T) {
	var g, white, black = newTestGame(t, nil, false, Adjudication{})
	startPlaying(t, g)

	// black is not to move; its stray bestmove must be dropped whole
	black.computing = engine.Thinking
	black.emit("e7e5", "")
	if g.Board().Ply() != 0 || g.State() != Playing {
		t.Fatal("stray bestmove was not dropped")
	}
	white.emit("e2e4", "")
	if g.Board().Ply() != 1 {
		t.Fatal("real bestmove lost after the stray one")
	}
}

func TestGamePonderHit(t *testing.T) {
	var g, white, black = newTestGame(t, nil, true, Adjudication{})
	white.ponderable = true
	startPlaying(t, g)

	// white plays and predicts the reply; it starts pondering on it
	white.emit("e2e4", "e7e5")
	if white.computing != engine.Pondering {
		t.Fatalf("white computing = %v, want pondering", white.computing)
	}
	// the prediction comes true
	black.emit("e7e5", "")
	if white.ponderhits != 1 {
		t.Errorf("ponderhits = %v, want 1", white.ponderhits)
	}
	if white.goCount != 1 {
		t.Errorf("extra go after ponderhit: goCount = %v", white.goCount)
	}
	if white.computing != engine.Thinking {
		t.Errorf("white computing = %v, want thinking", white.computing)
	}
}

func TestGamePonderMiss(t *testing.T) {
	var g, white, black = newTestGame(t, nil, true, Adjudication{})
	white.ponderable = true
	startPlaying(t, g)

	white.emit("e2e4", "e7e5")
	// black plays something else
	black.emit("c7c5", "")
	if white.stops != 1 {
		t.Fatalf("stops = %v, want 1 after ponder miss", white.stops)
	}
	if g.Board().Ply() != 2 {
		t.Fatalf("ply = %v, want 2", g.Board().Ply())
	}
	// the stopped ponder search answers with a discarded bestmove
	white.emit("a2a3", "")
	if white.goCount != 2 {
		t.Errorf("goCount = %v, want 2 (real search restarted)", white.goCount)
	}
	if g.Board().Ply() != 2 {
		t.Errorf("discarded bestmove was played on the board")
	}
}

func TestGameTimeout(t *testing.T) {
	var g, white, black = newTestGame(t, clock.NewMoveTime(20*time.Millisecond), false, Adjudication{})
	startPlaying(t, g)

	time.Sleep(50 * time.Millisecond)
	g.TickWork()
	if g.State() != Stopped {
		t.Fatal("no timeout")
	}
	var result = g.Result()
	if result.Outcome != common.OutcomeBlackWins || result.Reason != common.ReasonTimeout {
		t.Errorf("result = %v %v, want 0-1 time forfeit", result.Outcome, result.Reason)
	}
	if white.stops == 0 && black.stops == 0 {
		t.Error("players were not stopped on game over")
	}
}

func TestGameLateBestmoveAfterTimeout(t *testing.T) {
	var g, white, _ = newTestGame(t, clock.NewMoveTime(20*time.Millisecond), false, Adjudication{})
	startPlaying(t, g)

	time.Sleep(50 * time.Millisecond)
	white.emit("e2e4", "")
	if g.State() != Stopped {
		t.Fatal("late bestmove not ruled a timeout")
	}
	if g.Result().Reason != common.ReasonTimeout {
		t.Errorf("reason = %v, want timeout", g.Result().Reason)
	}
	if g.Board().Ply() != 0 {
		t.Error("late move was played on the board")
	}
}

func TestGameCrashDuringStartup(t *testing.T) {
	var g, _, black = newTestGame(t, nil, false, Adjudication{})
	black.state = engine.StateCrashed
	g.TickWork()
	if g.State() != Stopped {
		t.Fatal("crash in begin not detected")
	}
	var result = g.Result()
	if result.Outcome != common.OutcomeWhiteWins || result.Reason != common.ReasonCrash {
		t.Errorf("result = %v %v, want 1-0 crash", result.Outcome, result.Reason)
	}
}

func TestGameCrashWhileThinking(t *testing.T) {
	var g, white, _ = newTestGame(t, nil, false, Adjudication{})
	startPlaying(t, g)

	white.state = engine.StateCrashed
	g.TickWork()
	if g.State() != Stopped {
		t.Fatal("crash while thinking not detected")
	}
	var result = g.Result()
	if result.Outcome != common.OutcomeBlackWins || result.Reason != common.ReasonCrash {
		t.Errorf("result = %v %v, want 0-1 crash", result.Outcome, result.Reason)
	}
}

func TestGameOpeningReplay(t *testing.T) {
	var g, white, black = newTestGame(t, nil, false, Adjudication{})
	var moves, err = board.ParseSanMoves("1. e4 c5")
	if err != nil {
		t.Fatal(err)
	}
	g.SetStartup(1, 0, "", moves)
	startPlaying(t, g)

	if g.Board().Ply() != 2 {
		t.Fatalf("opening not replayed, ply = %v", g.Board().Ply())
	}
	if white.goCount != 1 || black.goCount != 0 {
		t.Fatalf("wrong side to move after opening")
	}
	_ = black
}

func TestGameResignAdjudication(t *testing.T) {
	var adj = Adjudication{ResignScore: 500, ResignPly: 2}
	var g, white, black = newTestGame(t, nil, false, adj)
	startPlaying(t, g)

	white.score, white.hasScore = -600, true
	black.score, black.hasScore = 700, true

	white.emit("e2e4", "")
	if g.State() != Playing {
		t.Fatal("adjudicated after a single ply")
	}
	black.emit("e7e5", "")
	white.emit("g1f3", "")
	if g.State() != Stopped {
		t.Fatal("no resign adjudication")
	}
	var result = g.Result()
	if result.Outcome != common.OutcomeBlackWins || result.Reason != common.ReasonAdjudication {
		t.Errorf("result = %v %v, want 0-1 adjudication", result.Outcome, result.Reason)
	}
}

func TestGameMaxPlyAdjudication(t *testing.T) {
	var g, white, black = newTestGame(t, nil, false, Adjudication{MaxPly: 2})
	startPlaying(t, g)

	white.emit("e2e4", "")
	black.emit("e7e5", "")
	if g.State() != Stopped {
		t.Fatal("no long-game adjudication")
	}
	if g.Result().Outcome != common.OutcomeDraw {
		t.Errorf("outcome = %v, want draw", g.Result().Outcome)
	}
}
