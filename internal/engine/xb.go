package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tourney/internal/clock"
	"tourney/pkg/common"
)

// WbEngine drives an engine speaking the xboard/winboard protocol,
// negotiated with protover 2. The engine is kept in force mode except
// while it is thinking on its own clock; pondering is engine-managed
// through hard/easy, so GoPonder never writes anything.
type WbEngine struct {
	engineBase

	features  map[string]string
	pingCnt   int
	syncedPly int
}

var knownFeatures = map[string]bool{
	"usermove": true,
	"setboard": true,
	"ping":     true,
	"sigint":   true,
	"sigterm":  true,
	"done":     true,
	"myname":   true,
	"san":      true,
	"time":     true,
	"reuse":    true,
	"colors":   true,
	"analyze":  true,
}

func newWbEngine(cfg Config, log zerolog.Logger) *WbEngine {
	var e = &WbEngine{features: map[string]string{}}
	e.cfg = cfg
	e.log = log
	e.state = StateNone
	return e
}

func (e *WbEngine) KickStart() error {
	if err := e.spawn(); err != nil {
		return err
	}
	go e.dispatch(e.parseLine)
	if err := e.write("xboard"); err != nil {
		return err
	}
	return e.write("protover 2")
}

func (e *WbEngine) hasFeature(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.features[name] == "1"
}

func (e *WbEngine) parseLine(line string) {
	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "feature":
		e.parseFeatures(line)

	case "move":
		if len(fields) >= 2 {
			e.handleMove(fields[1])
		}

	case "pong":
		// readiness echo

	case "resign":
		e.log.Info().Msg("engine resigned")

	case "Illegal":
		e.log.Warn().Str("line", line).Msg("engine rejected a move")

	case "tellusererror", "Error":
		e.log.Warn().Str("line", line).Msg("engine error notice")

	default:
		e.parseThinkingOutput(fields)
	}
}

// parseFeaturePairs walks name=value pairs of a feature line; values may
// be quoted strings with spaces.
func parseFeaturePairs(line string) [][2]string {
	var pairs [][2]string
	var rest = strings.TrimSpace(strings.TrimPrefix(line, "feature"))
	for rest != "" {
		var eq = strings.Index(rest, "=")
		if eq < 0 {
			break
		}
		var name = strings.TrimSpace(rest[:eq])
		rest = rest[eq+1:]
		var value string
		if strings.HasPrefix(rest, `"`) {
			var end = strings.Index(rest[1:], `"`)
			if end < 0 {
				value = rest[1:]
				rest = ""
			} else {
				value = rest[1 : 1+end]
				rest = strings.TrimSpace(rest[2+end:])
			}
		} else {
			var sp = strings.IndexByte(rest, ' ')
			if sp < 0 {
				value = rest
				rest = ""
			} else {
				value = rest[:sp]
				rest = strings.TrimSpace(rest[sp+1:])
			}
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs
}

// done=1 completes the handshake.
func (e *WbEngine) parseFeatures(line string) {
	for _, pair := range parseFeaturePairs(line) {
		var name, value = pair[0], pair[1]
		e.mu.Lock()
		e.features[name] = value
		if name == "myname" && e.idName == "" {
			e.idName = value
		}
		e.mu.Unlock()
		if knownFeatures[name] {
			e.write("accepted " + name)
		} else {
			e.write("rejected " + name)
		}
		if name == "done" && value == "1" {
			e.mu.Lock()
			e.state = StateReady
			e.mu.Unlock()
		}
	}
}

func (e *WbEngine) handleMove(moveText string) {
	e.mu.Lock()
	if !e.expectingBestmove {
		e.mu.Unlock()
		e.log.Warn().Str("move", moveText).Msg("unexpected move dropped")
		return
	}
	var oldState, elapsed, recv = e.takeBestmove()
	// the engine played this move on its own board already
	e.syncedPly++
	e.mu.Unlock()

	e.write("force")
	if recv != nil {
		recv(moveText, "", elapsed, oldState)
	}
}

// parseThinkingOutput picks scores out of post lines: "ply score time nodes pv".
func (e *WbEngine) parseThinkingOutput(fields []string) {
	if len(fields) < 4 {
		return
	}
	var depth, err1 = strconv.Atoi(fields[0])
	var score, err2 = strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return
	}
	e.mu.Lock()
	if e.computing == Thinking {
		e.lastScore = score
		e.hasScore = true
		e.lastDepth = depth
	}
	e.mu.Unlock()
}

func (e *WbEngine) NewGame() error {
	e.mu.Lock()
	// a reused player is still in playing from its previous game
	if e.state != StateReady && e.state != StatePlaying {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.resetGameState()
	e.state = StatePlaying
	e.syncedPly = 0
	var startFen = ""
	if e.board != nil && !e.board.FromOriginPosition() {
		startFen = e.board.StartFen()
	}
	e.mu.Unlock()

	e.write("new")
	e.write("force")
	e.write("post")
	if e.cfg.Ponderable {
		e.write("hard")
	} else {
		e.write("easy")
	}
	if startFen != "" {
		if !e.hasFeature("setboard") {
			e.log.Warn().Msg("engine lacks setboard, sending anyway")
		}
		e.write("setboard " + startFen)
	}
	if err := e.writeTimeControl(); err != nil {
		return err
	}
	return e.sendPing()
}

func (e *WbEngine) writeTimeControl() error {
	var tc = e.timeCtrl
	switch tc.Mode() {
	case clock.ModeDepth:
		return e.write(fmt.Sprintf("sd %v", tc.Depth()))
	case clock.ModeMoveTime:
		var secs = int((tc.MoveTime() + time.Second - 1) / time.Second)
		if secs < 1 {
			secs = 1
		}
		return e.write(fmt.Sprintf("st %v", secs))
	case clock.ModeStandard:
		var base = int(tc.GetTimeLeft(common.White).Seconds())
		var baseStr = strconv.Itoa(base / 60)
		if base%60 != 0 {
			baseStr = fmt.Sprintf("%v:%02v", base/60, base%60)
		}
		var moves = tc.MovesToGo(0)
		if moves < 0 {
			moves = 0
		}
		return e.write(fmt.Sprintf("level %v %v %v",
			moves, baseStr, int(tc.Increment().Seconds())))
	}
	return nil
}

// sendPing uses ping only when the engine negotiated it; otherwise the
// move/answer pairing is the only synchronization.
func (e *WbEngine) sendPing() error {
	if !e.hasFeature("ping") {
		return nil
	}
	e.mu.Lock()
	e.pingCnt++
	var n = e.pingCnt
	e.mu.Unlock()
	return e.write(fmt.Sprintf("ping %v", n))
}

func (e *WbEngine) Go() error {
	e.mu.Lock()
	if e.expectingBestmove {
		e.mu.Unlock()
		e.log.Warn().Msg("go while a move is pending")
		return nil
	}
	var hist = e.board.MoveStrings()
	var unsynced = hist[e.syncedPly:]
	e.syncedPly = len(hist)
	var useUsermove = e.features["usermove"] == "1"
	e.computing = Thinking
	e.expectingBestmove = true
	e.thinkStart = time.Now()
	var timeLine = ""
	if e.timeCtrl.Mode() == clock.ModeStandard {
		var own = e.timeCtrl.GetTimeLeft(e.board.SideToMove()).Milliseconds() / 10
		var opp = e.timeCtrl.GetTimeLeft(e.board.SideToMove().Opposite()).Milliseconds() / 10
		timeLine = fmt.Sprintf("time %v\notim %v", own, opp)
	}
	e.mu.Unlock()

	for _, m := range unsynced {
		var line = m
		if useUsermove {
			line = "usermove " + m
		}
		if err := e.write(line); err != nil {
			return err
		}
	}
	if timeLine != "" {
		for _, line := range strings.Split(timeLine, "\n") {
			if err := e.write(line); err != nil {
				return err
			}
		}
	}
	return e.write("go")
}

// GoPonder is a no-op: xboard engines ponder on their own under hard.
func (e *WbEngine) GoPonder(mv common.Move) error {
	return nil
}

func (e *WbEngine) Stop() error {
	e.mu.Lock()
	var expecting = e.expectingBestmove
	e.mu.Unlock()
	if !expecting {
		return nil
	}
	return e.write("?")
}

func (e *WbEngine) Quit() {
	if e.proc == nil {
		return
	}
	e.proc.MarkQuitting()
	e.write("quit")
	e.quitProcess()
}
