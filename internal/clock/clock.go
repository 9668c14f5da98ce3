// Package clock implements the virtual chess clock shared by a game's two
// players. The clock never wakes anybody up on its own; the game polls it
// from tick handlers and charges it after every accepted move.
package clock

import (
	"fmt"
	"time"

	"tourney/pkg/common"
)

type Mode int

const (
	ModeInfinite Mode = iota
	ModeDepth
	ModeMoveTime
	ModeStandard
)

func (m Mode) String() string {
	switch m {
	case ModeInfinite:
		return "infinite"
	case ModeDepth:
		return "depth"
	case ModeMoveTime:
		return "movetime"
	case ModeStandard:
		return "standard"
	}
	return ""
}

// Grace absorbs OS scheduling jitter between the moment an engine flags
// and the moment the controller notices.
const Grace = 10 * time.Millisecond

// TimeController keeps both sides' remaining time for one game. Remaining
// time is mutated only in SetupClocksBeforeThinking and UpdateClockAfterMove.
type TimeController struct {
	mode     Mode
	depth    int
	moveTime time.Duration

	moves     int // moves per control period, 0 = Fischer continuous
	base      time.Duration
	increment time.Duration

	remain     [2]time.Duration
	moveCount  [2]int
	thinkStart time.Time
	thinking   bool
}

func NewInfinite() *TimeController {
	return &TimeController{mode: ModeInfinite}
}

func NewDepth(depth int) *TimeController {
	return &TimeController{mode: ModeDepth, depth: depth}
}

func NewMoveTime(moveTime time.Duration) *TimeController {
	return &TimeController{mode: ModeMoveTime, moveTime: moveTime}
}

func NewStandard(moves int, base, increment time.Duration) *TimeController {
	var tc = &TimeController{
		mode:      ModeStandard,
		moves:     moves,
		base:      base,
		increment: increment,
	}
	tc.remain[common.White] = base
	tc.remain[common.Black] = base
	return tc
}

// Clone returns a fresh controller with full clocks, for the next game.
func (tc *TimeController) Clone() *TimeController {
	switch tc.mode {
	case ModeDepth:
		return NewDepth(tc.depth)
	case ModeMoveTime:
		return NewMoveTime(tc.moveTime)
	case ModeStandard:
		return NewStandard(tc.moves, tc.base, tc.increment)
	}
	return NewInfinite()
}

func (tc *TimeController) Mode() Mode {
	return tc.mode
}

func (tc *TimeController) Depth() int {
	return tc.depth
}

func (tc *TimeController) MoveTime() time.Duration {
	return tc.moveTime
}

func (tc *TimeController) Increment() time.Duration {
	return tc.increment
}

// SetupClocksBeforeThinking marks the moment it became a side's turn.
func (tc *TimeController) SetupClocksBeforeThinking(ply int) {
	tc.thinkStart = time.Now()
	tc.thinking = true
}

// UpdateClockAfterMove charges elapsed thinking time to side, adds the
// increment and refills the control period when side completed its quota.
func (tc *TimeController) UpdateClockAfterMove(elapsed time.Duration, side common.Side, ply int) {
	tc.thinking = false
	if tc.mode != ModeStandard {
		return
	}
	tc.remain[side] -= elapsed
	tc.remain[side] += tc.increment
	tc.moveCount[side]++
	if tc.moves > 0 && tc.moveCount[side]%tc.moves == 0 {
		tc.remain[side] += tc.base
	}
}

func (tc *TimeController) GetTimeLeft(side common.Side) time.Duration {
	return tc.remain[side]
}

// ElapsedSinceThinking reports the wall clock since the current think began.
func (tc *TimeController) ElapsedSinceThinking() time.Duration {
	if !tc.thinking {
		return 0
	}
	return time.Since(tc.thinkStart)
}

// IsTimeOver reports whether side has exhausted its clock. The check is
// made against the wall clock since thinking began, so it fires while the
// engine is still silent.
func (tc *TimeController) IsTimeOver(side common.Side) bool {
	switch tc.mode {
	case ModeMoveTime:
		return tc.thinking && tc.ElapsedSinceThinking() > tc.moveTime+Grace
	case ModeStandard:
		var left = tc.remain[side]
		if tc.thinking {
			left -= tc.ElapsedSinceThinking()
		}
		return left < -Grace
	}
	return false
}

// MovesToGo computes the moves remaining to the next control, for the
// "go ... movestogo" parameter. Zero means no such parameter.
func (tc *TimeController) MovesToGo(ply int) int {
	if tc.mode != ModeStandard || tc.moves == 0 {
		return 0
	}
	var fullCnt = ply / 2
	return tc.moves - fullCnt%tc.moves
}

func (tc *TimeController) String() string {
	switch tc.mode {
	case ModeInfinite:
		return "-"
	case ModeDepth:
		return fmt.Sprintf("depth=%v", tc.depth)
	case ModeMoveTime:
		return fmt.Sprintf("%v/move", tc.moveTime)
	}
	if tc.moves > 0 {
		return fmt.Sprintf("%v/%v+%v", tc.moves, int(tc.base.Seconds()), int(tc.increment.Seconds()))
	}
	return fmt.Sprintf("%v+%v", int(tc.base.Seconds()), int(tc.increment.Seconds()))
}
