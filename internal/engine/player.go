// Package engine manages external chess engines: process supervision, the
// UCI and xboard wire protocols, and the player state machine on top.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/board"
	"tourney/internal/clock"
	"tourney/pkg/common"
)

type State int

const (
	StateNone State = iota
	StateStarting
	StateReady
	StatePlaying
	StateStopped
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	}
	return ""
}

type ComputingState int

const (
	Idle ComputingState = iota
	Thinking
	Pondering
)

func (s ComputingState) String() string {
	switch s {
	case Thinking:
		return "thinking"
	case Pondering:
		return "pondering"
	}
	return "idle"
}

var ErrNotReady = errors.New("engine: player not ready")

// Config describes how to launch and address one engine.
type Config struct {
	Name       string
	Path       string
	Args       []string
	Dir        string
	Protocol   string // "uci" or "wb"
	Ponderable bool
	Options    map[string]string // overrides sent after the handshake
}

// BestmoveFunc receives the terminal event of one computation. The move is
// raw coordinate text from the wire; the game re-parses and validates it.
type BestmoveFunc func(moveText, ponderText string, elapsed time.Duration, oldState ComputingState)

// Player is one participant: an engine speaking either protocol, or a
// human stub. All methods except Quit are non-blocking; Quit waits up to
// deattachTimeout for the process to exit. Results arrive through the
// BestmoveFunc registered in Setup.
type Player interface {
	Name() string
	IsHuman() bool

	// KickStart spawns the process and begins the protocol handshake.
	KickStart() error
	// Setup attaches the game collaborators; nil detaches.
	Setup(b *board.Board, tc *clock.TimeController, recv BestmoveFunc)
	// NewGame resets per-game protocol state. Requires StateReady, or
	// StatePlaying for a player reused from an earlier game.
	NewGame() error
	Go() error
	GoPonder(mv common.Move) error
	Stop() error
	Quit()

	State() State
	ComputingState() ComputingState
	// Score reports the engine's last centipawn score from its own
	// perspective, if it reported one this game.
	Score() (int, bool)
}

// New builds a Player for cfg. Unknown protocols default to UCI.
func New(cfg Config, log zerolog.Logger) Player {
	var sublog = log.With().Str("engine", cfg.Name).Logger()
	if cfg.Protocol == "wb" || cfg.Protocol == "xboard" {
		return newWbEngine(cfg, sublog)
	}
	return newUciEngine(cfg, sublog)
}

// deattachTimeout bounds how long Quit waits after sending quit.
const deattachTimeout = 2 * time.Second

func fmtGoStandard(tc *clock.TimeController, ply int) string {
	var wtime = tc.GetTimeLeft(common.White).Milliseconds()
	var btime = tc.GetTimeLeft(common.Black).Milliseconds()
	var inc = tc.Increment().Milliseconds()
	var s = fmt.Sprintf("wtime %v btime %v winc %v binc %v", wtime, btime, inc, inc)
	if movestogo := tc.MovesToGo(ply); movestogo > 0 {
		s += fmt.Sprintf(" movestogo %v", movestogo)
	}
	return s
}
