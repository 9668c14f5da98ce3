package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/board"
	"tourney/internal/clock"
	"tourney/pkg/common"
)

// engineBase carries everything the two protocol adapters share: the
// process handle, the player state machine and the game attachments.
// Adapters embed it and add only wire-format code.
type engineBase struct {
	cfg Config
	log zerolog.Logger

	mu   sync.Mutex
	proc *Process

	state     State
	computing ComputingState

	expectingBestmove bool
	ponderingMove     common.Move
	thinkStart        time.Time

	board    *board.Board
	timeCtrl *clock.TimeController
	recv     BestmoveFunc

	idName  string
	options []Option

	lastScore int
	hasScore  bool
	lastDepth int
}

func (e *engineBase) Name() string {
	return e.cfg.Name
}

func (e *engineBase) IsHuman() bool {
	return false
}

func (e *engineBase) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engineBase) ComputingState() ComputingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computing
}

func (e *engineBase) Score() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastScore, e.hasScore
}

func (e *engineBase) Setup(b *board.Board, tc *clock.TimeController, recv BestmoveFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.board = b
	e.timeCtrl = tc
	e.recv = recv
}

func (e *engineBase) spawn() error {
	var proc, err = StartProcess(e.cfg.Name, e.cfg.Path, e.cfg.Args, e.cfg.Dir, e.log)
	if err != nil {
		e.mu.Lock()
		e.state = StateCrashed
		e.mu.Unlock()
		return err
	}
	e.mu.Lock()
	e.proc = proc
	e.state = StateStarting
	e.mu.Unlock()
	return nil
}

// dispatch consumes the process stream on its own goroutine. parseLine is
// called with the base unlocked; adapters take the lock for exactly the
// state they touch, and release it before invoking the bestmove receiver.
func (e *engineBase) dispatch(parseLine func(string)) {
	for event := range e.proc.Events() {
		switch event.Kind {
		case LineEvent:
			parseLine(event.Line)
		case ExitEvent:
			e.mu.Lock()
			e.state = StateStopped
			e.mu.Unlock()
		case CrashEvent:
			e.mu.Lock()
			e.state = StateCrashed
			e.computing = Idle
			e.expectingBestmove = false
			e.mu.Unlock()
		}
	}
}

// write forwards a command line; a broken pipe marks the player crashed.
func (e *engineBase) write(s string) error {
	var err = e.proc.WriteLine(s)
	if err != nil {
		e.mu.Lock()
		e.state = StateCrashed
		e.mu.Unlock()
	}
	return err
}

// resetGameState clears per-game protocol flags before a new game.
func (e *engineBase) resetGameState() {
	e.expectingBestmove = false
	e.computing = Idle
	e.ponderingMove = common.MoveEmpty
	e.hasScore = false
	e.lastScore = 0
	e.lastDepth = 0
}

// takeBestmove flips the computation flags and returns what the receiver
// needs. Caller holds e.mu.
func (e *engineBase) takeBestmove() (oldState ComputingState, elapsed time.Duration, recv BestmoveFunc) {
	oldState = e.computing
	e.computing = Idle
	e.expectingBestmove = false
	elapsed = time.Since(e.thinkStart)
	recv = e.recv
	return
}

func (e *engineBase) quitProcess() {
	e.mu.Lock()
	var proc = e.proc
	if e.state != StateCrashed {
		e.state = StateStopped
	}
	e.mu.Unlock()
	if proc != nil {
		proc.Stop(deattachTimeout)
	}
}
