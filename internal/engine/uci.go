package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/clock"
	"tourney/pkg/common"
)

// UciEngine drives an engine speaking the UCI protocol.
type UciEngine struct {
	engineBase
}

func newUciEngine(cfg Config, log zerolog.Logger) *UciEngine {
	var e = &UciEngine{}
	e.cfg = cfg
	e.log = log
	e.state = StateNone
	return e
}

func (e *UciEngine) KickStart() error {
	if err := e.spawn(); err != nil {
		return err
	}
	go e.dispatch(e.parseLine)
	return e.write("uci")
}

func (e *UciEngine) parseLine(line string) {
	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "uciok":
		e.mu.Lock()
		e.state = StateReady
		e.expectingBestmove = false
		e.mu.Unlock()
		e.sendOptions()
		e.write("isready")

	case "readyok":
		// pong

	case "id":
		if len(fields) >= 3 && fields[1] == "name" {
			e.mu.Lock()
			e.idName = strings.Join(fields[2:], " ")
			e.mu.Unlock()
		}

	case "option":
		if option, ok := ParseOptionLine(line); ok {
			e.mu.Lock()
			e.options = append(e.options, option)
			e.mu.Unlock()
		} else {
			e.log.Warn().Str("line", line).Msg("unparsable option line")
		}

	case "info":
		if info, ok := ParseInfoLine(line); ok && info.HasScore {
			e.mu.Lock()
			if e.computing == Thinking {
				e.lastScore = info.ScoreCp
				e.hasScore = true
				e.lastDepth = info.Depth
			}
			e.mu.Unlock()
		}

	case "bestmove":
		e.handleBestmove(fields)

	case "copyprotection", "registration":
		e.log.Info().Str("line", line).Msg("engine protection notice")
	}
}

func (e *UciEngine) handleBestmove(fields []string) {
	e.mu.Lock()
	if !e.expectingBestmove || len(fields) < 2 {
		e.mu.Unlock()
		e.log.Warn().Strs("fields", fields).Msg("unexpected bestmove dropped")
		return
	}
	var oldState, elapsed, recv = e.takeBestmove()
	e.mu.Unlock()

	var moveText = fields[1]
	var ponderText = ""
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponderText = fields[3]
	}
	if recv != nil {
		recv(moveText, ponderText, elapsed, oldState)
	}
}

// sendOptions pushes configured overrides, skipping values that match the
// engine-reported default.
func (e *UciEngine) sendOptions() {
	e.mu.Lock()
	var options = make([]Option, len(e.options))
	copy(options, e.options)
	e.mu.Unlock()

	for _, option := range options {
		if option.Name == "Ponder" && e.cfg.Ponderable {
			e.write("setoption name Ponder value true")
			continue
		}
		var value, overridden = e.cfg.Options[option.Name]
		if !overridden || value == option.Default {
			continue
		}
		if option.Type == OptionButton {
			e.write("setoption name " + option.Name)
			continue
		}
		e.write("setoption name " + option.Name + " value " + value)
	}
}

func (e *UciEngine) NewGame() error {
	e.mu.Lock()
	// a reused player is still in playing from its previous game
	if e.state != StateReady && e.state != StatePlaying {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.resetGameState()
	e.state = StatePlaying
	e.mu.Unlock()
	return e.write("ucinewgame")
}

func (e *UciEngine) Go() error {
	e.mu.Lock()
	if e.computing == Pondering {
		var last, ok = e.board.LastMove()
		if ok && last == e.ponderingMove {
			// ponderhit, the speculative search becomes the real one
			e.computing = Thinking
			e.thinkStart = time.Now()
			e.mu.Unlock()
			return e.write("ponderhit")
		}
		e.mu.Unlock()
		// ponder miss: stop; the discarded bestmove restarts us
		return e.Stop()
	}
	if e.expectingBestmove {
		e.mu.Unlock()
		e.log.Warn().Msg("go while a bestmove is pending")
		return nil
	}
	e.ponderingMove = common.MoveEmpty
	e.computing = Thinking
	e.expectingBestmove = true
	e.thinkStart = time.Now()
	var position = e.positionString(common.MoveEmpty)
	var goLine = "go " + e.goParams()
	e.mu.Unlock()

	if err := e.write(position); err != nil {
		return err
	}
	return e.write(goLine)
}

func (e *UciEngine) GoPonder(mv common.Move) error {
	e.mu.Lock()
	e.ponderingMove = common.MoveEmpty
	if !e.cfg.Ponderable || !mv.IsValid() || e.board == nil || !e.board.IsLegal(mv) {
		e.mu.Unlock()
		return nil
	}
	e.ponderingMove = mv
	e.computing = Pondering
	e.expectingBestmove = true
	e.thinkStart = time.Now()
	var position = e.positionString(mv)
	var goLine = "go ponder " + e.goParams()
	e.mu.Unlock()

	if err := e.write(position); err != nil {
		return err
	}
	return e.write(goLine)
}

func (e *UciEngine) Stop() error {
	e.mu.Lock()
	var expecting = e.expectingBestmove
	e.mu.Unlock()
	if !expecting {
		return nil
	}
	return e.write("stop")
}

func (e *UciEngine) Quit() {
	if e.proc == nil {
		return
	}
	e.proc.MarkQuitting()
	e.write("quit")
	e.quitProcess()
}

// positionString rebuilds the full game so far, optionally extended with a
// hypothetical ponder move.
func (e *UciEngine) positionString(ponder common.Move) string {
	var sb strings.Builder
	sb.WriteString("position ")
	if e.board.FromOriginPosition() {
		sb.WriteString("startpos")
	} else {
		sb.WriteString("fen " + e.board.StartFen())
	}
	var moves = e.board.MoveStrings()
	if len(moves) > 0 || ponder.IsValid() {
		sb.WriteString(" moves")
		for _, m := range moves {
			sb.WriteString(" " + m)
		}
		if ponder.IsValid() {
			sb.WriteString(" " + ponder.String())
		}
	}
	return sb.String()
}

func (e *UciEngine) goParams() string {
	var tc = e.timeCtrl
	switch tc.Mode() {
	case clock.ModeDepth:
		return "depth " + strconv.Itoa(tc.Depth())
	case clock.ModeMoveTime:
		return "movetime " + strconv.FormatInt(tc.MoveTime().Milliseconds(), 10)
	case clock.ModeStandard:
		return fmtGoStandard(tc, e.board.Ply())
	}
	return "infinite"
}
