// Package game couples two players, a board and a chess clock into the
// per-match state machine. All transitions for one game are serialized by
// its mutex; bestmove events and ticker ticks race for it and lose nothing.
package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/board"
	"tourney/internal/clock"
	"tourney/internal/engine"
	"tourney/pkg/common"
)

type State int

const (
	Begin State = iota
	Ready
	Playing
	Stopped
)

func (s State) String() string {
	switch s {
	case Begin:
		return "begin"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	}
	return ""
}

// Adjudication holds the optional early-termination rules. A zero ply
// count disables the corresponding rule.
type Adjudication struct {
	ResignScore int // centipawns
	ResignPly   int
	DrawScore   int
	DrawPly     int
	DrawMinPly  int
	MaxPly      int
}

type Game struct {
	log zerolog.Logger

	mu      sync.Mutex
	state   State
	b       *board.Board
	players [2]engine.Player
	tc      *clock.TimeController

	ponderMode bool
	adj        Adjudication

	idx        int
	round      int
	pairId     int
	startFen   string
	startMoves []common.Move

	result    common.Result
	startedAt time.Time

	resignCount [2]int
	drawCount   int
}

func New(idx int, tc *clock.TimeController, ponderMode bool, adj Adjudication, log zerolog.Logger) *Game {
	return &Game{
		log:        log.With().Int("game", idx).Logger(),
		state:      Begin,
		b:          board.New(),
		tc:         tc,
		ponderMode: ponderMode,
		adj:        adj,
		idx:        idx,
	}
}

// SetStartup seeds the game with its opening: a start position and/or a
// move prefix drawn from the books.
func (g *Game) SetStartup(round, pairId int, startFen string, startMoves []common.Move) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.round = round
	g.pairId = pairId
	g.startFen = startFen
	g.startMoves = startMoves
}

// Attach wires a player to one side. Players outlive the game; Deattach
// gives them back.
func (g *Game) Attach(player engine.Player, side common.Side) {
	g.mu.Lock()
	g.players[side] = player
	g.mu.Unlock()
	player.Setup(g.b, g.tc, func(moveText, ponderText string, elapsed time.Duration, oldState engine.ComputingState) {
		g.moveFromPlayer(moveText, ponderText, elapsed, side, oldState)
	})
}

func (g *Game) Deattach() [2]engine.Player {
	g.mu.Lock()
	var players = g.players
	g.players = [2]engine.Player{}
	g.mu.Unlock()
	for _, p := range players {
		if p != nil {
			p.Setup(nil, nil, nil)
		}
	}
	return players
}

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Result() common.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

func (g *Game) Board() *board.Board {
	return g.b
}

func (g *Game) Idx() int {
	return g.idx
}

func (g *Game) Round() int {
	return g.round
}

func (g *Game) PairId() int {
	return g.pairId
}

func (g *Game) StartedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startedAt
}

func (g *Game) TimeControl() *clock.TimeController {
	return g.tc
}

func (g *Game) PlayerState(side common.Side) engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.players[side] == nil {
		return engine.StateNone
	}
	return g.players[side].State()
}

func (g *Game) PlayerName(side common.Side) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.players[side] == nil {
		return "?"
	}
	return g.players[side].Name()
}

// Abort forces a terminal result from outside, e.g. when an engine never
// reaches ready within the startup budget.
func (g *Game) Abort(result common.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Stopped {
		g.gameOverLocked(result)
	}
}

// TickWork advances the state machine one step. Driven by the tournament
// ticker.
func (g *Game) TickWork() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Begin:
		var readyCnt, deadCnt = 0, 0
		for sd := 0; sd < 2; sd++ {
			if g.players[sd] == nil {
				return
			}
			switch g.players[sd].State() {
			case engine.StateReady, engine.StatePlaying:
				// playing means the player is reused from an earlier game
				readyCnt++
			case engine.StateStopped, engine.StateCrashed:
				deadCnt++
			}
		}
		if readyCnt+deadCnt < 2 {
			return
		}
		if readyCnt == 2 {
			g.state = Ready
			return
		}
		var result common.Result
		result.Reason = common.ReasonCrash
		if deadCnt == 2 {
			result.Outcome = common.OutcomeDraw
		} else if ws := g.players[common.White].State(); ws == engine.StateReady || ws == engine.StatePlaying {
			result.Outcome = common.OutcomeWhiteWins
		} else {
			result.Outcome = common.OutcomeBlackWins
		}
		g.gameOverLocked(result)

	case Ready:
		g.startPlayingLocked()

	case Playing:
		var side = g.b.SideToMove()
		var player = g.players[side]
		if player == nil || player.IsHuman() {
			return
		}
		if player.State() == engine.StateCrashed {
			g.gameOverLocked(common.Result{
				Outcome: common.LossFor(side),
				Reason:  common.ReasonCrash,
			})
			return
		}
		if player.ComputingState() == engine.Thinking {
			g.checkTimeOverLocked()
		}
	}
}

func (g *Game) startPlayingLocked() {
	if err := g.b.Reset(g.startFen); err != nil {
		g.log.Error().Err(err).Msg("bad start position, game aborted")
		g.gameOverLocked(common.Result{Reason: common.ReasonAborted})
		return
	}
	for _, m := range g.startMoves {
		if !g.b.CheckMake(m) {
			g.log.Error().Str("move", m.String()).Msg("illegal opening move, game aborted")
			g.gameOverLocked(common.Result{Reason: common.ReasonAborted})
			return
		}
	}
	for sd := 0; sd < 2; sd++ {
		if err := g.players[sd].NewGame(); err != nil {
			g.gameOverLocked(common.Result{
				Outcome: common.LossFor(common.Side(sd)),
				Reason:  common.ReasonCrash,
			})
			return
		}
	}
	g.state = Playing
	g.startedAt = time.Now()
	g.log.Info().
		Str("white", g.players[common.White].Name()).
		Str("black", g.players[common.Black].Name()).
		Str("tc", g.tc.String()).
		Msg("game started")
	g.startThinkingLocked(common.MoveEmpty)
}

func (g *Game) startThinkingLocked(ponderMove common.Move) {
	g.tc.SetupClocksBeforeThinking(g.b.Ply())
	var side = g.b.SideToMove()
	g.players[side.Opposite()].GoPonder(ponderMove)
	if err := g.players[side].Go(); err != nil {
		g.gameOverLocked(common.Result{
			Outcome: common.LossFor(side),
			Reason:  common.ReasonCrash,
		})
	}
}

// moveFromPlayer is the bestmove sink for both players. Late or foreign
// events are dropped, never reordered.
func (g *Game) moveFromPlayer(moveText, ponderText string, elapsed time.Duration, side common.Side, oldState engine.ComputingState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Playing || g.b.SideToMove() != side || g.checkTimeOverLocked() {
		return
	}

	if oldState == engine.Pondering {
		// discarded bestmove after a stop on ponder miss: begin the
		// real search now
		if err := g.players[side].Go(); err != nil {
			g.gameOverLocked(common.Result{
				Outcome: common.LossFor(side),
				Reason:  common.ReasonCrash,
			})
		}
		return
	}
	if oldState != engine.Thinking {
		return
	}

	var mv, ok = common.ParseMove(moveText)
	if !ok || !g.b.CheckMake(mv) {
		g.log.Info().Str("move", moveText).Str("side", side.String()).Msg("illegal move")
		g.gameOverLocked(common.Result{
			Outcome: common.LossFor(side),
			Reason:  common.ReasonIllegalMove,
		})
		return
	}
	g.b.SetElapsed(elapsed)
	g.tc.UpdateClockAfterMove(elapsed, side, g.b.Ply())

	if result := g.b.Rule(); result.Reason != common.ReasonNone {
		g.gameOverLocked(result)
		return
	}
	if result, over := g.adjudicateLocked(side); over {
		g.gameOverLocked(result)
		return
	}

	var ponderMove = common.MoveEmpty
	if g.ponderMode && ponderText != "" {
		if pm, ok := common.ParseMove(ponderText); ok {
			ponderMove = pm
		}
	}
	g.startThinkingLocked(ponderMove)
}

func (g *Game) checkTimeOverLocked() bool {
	var side = g.b.SideToMove()
	if !g.tc.IsTimeOver(side) {
		return false
	}
	g.log.Info().Str("side", side.String()).Msg("flag fell")
	g.gameOverLocked(common.Result{
		Outcome: common.LossFor(side),
		Reason:  common.ReasonTimeout,
	})
	return true
}

// adjudicateLocked applies the optional resign/draw/long-game rules after
// side's move was accepted.
func (g *Game) adjudicateLocked(side common.Side) (common.Result, bool) {
	var ownScore, ownOk = g.players[side].Score()
	var oppScore, oppOk = g.players[side.Opposite()].Score()

	if g.adj.ResignPly > 0 && ownOk && oppOk {
		if ownScore <= -g.adj.ResignScore && oppScore >= g.adj.ResignScore {
			g.resignCount[side]++
		} else {
			g.resignCount[side] = 0
		}
		if g.resignCount[side] >= g.adj.ResignPly {
			return common.Result{
				Outcome: common.LossFor(side),
				Reason:  common.ReasonAdjudication,
			}, true
		}
	}

	if g.adj.DrawPly > 0 && ownOk && oppOk {
		if abs(ownScore) <= g.adj.DrawScore && abs(oppScore) <= g.adj.DrawScore {
			g.drawCount++
		} else {
			g.drawCount = 0
		}
		if g.drawCount >= g.adj.DrawPly && g.b.Ply() >= g.adj.DrawMinPly {
			return common.Result{
				Outcome: common.OutcomeDraw,
				Reason:  common.ReasonAdjudication,
			}, true
		}
	}

	if g.adj.MaxPly > 0 && g.b.Ply() >= g.adj.MaxPly {
		return common.Result{
			Outcome: common.OutcomeDraw,
			Reason:  common.ReasonAdjudication,
		}, true
	}

	return common.Result{}, false
}

func (g *Game) gameOverLocked(result common.Result) {
	for sd := 0; sd < 2; sd++ {
		if g.players[sd] != nil {
			g.players[sd].Stop()
		}
	}
	g.result = result
	g.state = Stopped
	g.log.Info().
		Str("result", result.Outcome.String()).
		Str("reason", result.Reason.String()).
		Int("plies", g.b.Ply()).
		Msg("game over")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
