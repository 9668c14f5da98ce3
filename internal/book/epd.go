package book

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/notnil/chess"

	"tourney/pkg/common"
)

// BookEpd is a plain-text book: one position per line, either a bare FEN
// or an EPD record whose opcodes are dropped. '#' comments are ignored.
type BookEpd struct {
	path  string
	lines []string
}

func (b *BookEpd) Load(path string, maxPly, top100 int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}
	defer file.Close()

	var lines []string
	var scanner = bufio.NewScanner(file)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("book: %w", err)
	}
	b.path = path
	b.lines = lines
	return nil
}

func (b *BookEpd) IsEmpty() bool {
	return len(b.lines) == 0
}

func (b *BookEpd) Size() int {
	return len(b.lines)
}

func (b *BookEpd) GetRandom(rnd *rand.Rand) (string, []common.Move, bool) {
	if len(b.lines) == 0 {
		return "", nil, false
	}
	var fen = epdToFen(b.lines[rnd.Intn(len(b.lines))])
	if fen == "" {
		return "", nil, false
	}
	return fen, nil, true
}

// epdToFen keeps the four position fields, supplies default counters and
// validates the result. Invalid positions return "".
func epdToFen(line string) string {
	var fields = strings.Fields(line)
	if len(fields) < 4 {
		return ""
	}
	var fen = strings.Join(fields[:4], " ")
	if len(fields) >= 6 && isCounter(fields[4]) && isCounter(fields[5]) {
		fen = strings.Join(fields[:6], " ")
	} else {
		fen += " 0 1"
	}
	if _, err := chess.FEN(fen); err != nil {
		return ""
	}
	return fen
}

func isCounter(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(s) > 0
}
