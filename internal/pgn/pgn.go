// Package pgn renders finished games as PGN and replays archived games,
// seven-tag roster plus the arbiter tags (TimeControl, Time, Termination,
// FEN for non-standard starts).
package pgn

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"tourney/internal/board"
	"tourney/pkg/common"
)

const (
	GameResultNone     = "*"
	GameResultWhiteWin = "1-0"
	GameResultBlackWin = "0-1"
	GameResultDraw     = "1/2-1/2"
)

const pliesPerLine = 8

type Tag struct {
	Key   string
	Value string
}

// Header carries everything above the movetext.
type Header struct {
	Event       string
	Site        string
	Date        time.Time
	Round       int
	White       string
	Black       string
	Result      common.Result
	TimeControl string
	StartFen    string // empty when the game began from the standard start
}

// Write renders one archived game.
func Write(w io.Writer, header Header, hist []board.Hist) error {
	var bw = bufio.NewWriter(w)

	var writeTag = func(key, value string) {
		fmt.Fprintf(bw, "[%v \"%v\"]\n", key, value)
	}
	if header.Event != "" {
		writeTag("Event", header.Event)
	}
	if header.Site != "" {
		writeTag("Site", header.Site)
	}
	writeTag("Date", header.Date.Format("2006.01.02"))
	if header.Round > 0 {
		writeTag("Round", strconv.Itoa(header.Round))
	}
	writeTag("White", header.White)
	writeTag("Black", header.Black)
	writeTag("Result", header.Result.Outcome.String())
	if header.TimeControl != "" {
		writeTag("TimeControl", header.TimeControl)
	}
	writeTag("Time", header.Date.Format("15:04:05"))
	if reason := header.Result.Reason.String(); reason != "" {
		writeTag("Termination", reason)
	}
	if header.StartFen != "" && header.StartFen != common.InitialPositionFen {
		writeTag("FEN", header.StartFen)
	}
	bw.WriteString("\n")

	var moveNumber, blackFirst = startCounters(header.StartFen)
	var lineLen = 0
	for i, hist := range hist {
		if lineLen > 0 {
			bw.WriteString(" ")
		}
		if hist.Side == common.White {
			bw.WriteString(strconv.Itoa(moveNumber) + ". ")
		} else if i == 0 && blackFirst {
			bw.WriteString(strconv.Itoa(moveNumber) + "... ")
		}
		bw.WriteString(hist.San)
		if hist.Side == common.Black {
			moveNumber++
		}
		lineLen++
		if lineLen >= pliesPerLine {
			lineLen = 0
			bw.WriteString("\n")
		}
	}
	if header.Result.Outcome != common.OutcomeNone || len(hist) > 0 {
		if lineLen > 0 {
			bw.WriteString(" ")
		}
		bw.WriteString(header.Result.Outcome.String())
		bw.WriteString("\n")
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// startCounters pulls the first move number and side to move out of a
// start FEN.
func startCounters(fen string) (moveNumber int, blackFirst bool) {
	moveNumber = 1
	if fen == "" {
		return
	}
	var fields = strings.Fields(fen)
	if len(fields) >= 2 && fields[1] == "b" {
		blackFirst = true
	}
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			moveNumber = n
		}
	}
	return
}

// Game is one archived game read back from a PGN stream.
type Game struct {
	Tags     []Tag
	Moves    []common.Move
	MoveText string
}

func (g *Game) TagValue(key string) (string, bool) {
	for _, tag := range g.Tags {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Read parses a PGN stream back into games, replaying each movetext to
// recover the coordinate moves.
func Read(r io.Reader) ([]Game, error) {
	var games []Game
	var tags []Tag
	var body strings.Builder
	var hasBody bool

	var flush = func() error {
		if !hasBody && len(tags) == 0 {
			return nil
		}
		var game = Game{Tags: tags, MoveText: strings.TrimSpace(body.String())}
		var startFen, _ = game.TagValue("FEN")
		var moves, err = board.ReplaySanMoves(startFen, game.MoveText)
		if err != nil {
			return err
		}
		game.Moves = moves
		games = append(games, game)
		tags = nil
		body.Reset()
		hasBody = false
		return nil
	}

	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			if hasBody {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			if key, value, ok := parseTag(line); ok {
				tags = append(tags, Tag{Key: key, Value: value})
			}
			continue
		}
		if line != "" {
			hasBody = true
			body.WriteString(line)
			body.WriteString(" ")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return games, nil
}

func parseTag(line string) (key, value string, ok bool) {
	line = strings.TrimPrefix(line, "[")
	line = strings.TrimSuffix(line, "]")
	var open = strings.Index(line, "\"")
	var end = strings.LastIndex(line, "\"")
	if open < 0 || end <= open {
		return "", "", false
	}
	return strings.TrimSpace(line[:open]), line[open+1 : end], true
}
