package engine

import (
	"sync"
	"time"

	"tourney/internal/board"
	"tourney/internal/clock"
	"tourney/pkg/common"
)

// Human is a stub Player for a person on the other side of some outer UI.
// It is always ready; moves are injected with MakeMove.
type Human struct {
	name string

	mu       sync.Mutex
	state    State
	recv     BestmoveFunc
	started  time.Time
	thinking bool
}

func NewHuman(name string) *Human {
	return &Human{name: name, state: StateReady}
}

func (h *Human) Name() string  { return h.name }
func (h *Human) IsHuman() bool { return true }

func (h *Human) KickStart() error {
	return nil
}

func (h *Human) Setup(b *board.Board, tc *clock.TimeController, recv BestmoveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recv = recv
}

func (h *Human) NewGame() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StatePlaying
	h.thinking = false
	return nil
}

func (h *Human) Go() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = time.Now()
	h.thinking = true
	return nil
}

func (h *Human) GoPonder(mv common.Move) error { return nil }
func (h *Human) Stop() error                   { return nil }

func (h *Human) Quit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateStopped
}

func (h *Human) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Human) ComputingState() ComputingState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.thinking {
		return Thinking
	}
	return Idle
}

func (h *Human) Score() (int, bool) { return 0, false }

// MakeMove feeds a move typed by the person into the game.
func (h *Human) MakeMove(moveText string) {
	h.mu.Lock()
	if !h.thinking {
		h.mu.Unlock()
		return
	}
	h.thinking = false
	var elapsed = time.Since(h.started)
	var recv = h.recv
	h.mu.Unlock()
	if recv != nil {
		recv(moveText, "", elapsed, Thinking)
	}
}
