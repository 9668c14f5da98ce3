package book

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"

	"tourney/internal/board"
	"tourney/pkg/common"
)

// BookPgn holds one opening line per archived game, truncated to maxPly.
// Compressed archives (.bz2) are read transparently.
type BookPgn struct {
	path  string
	lines [][]common.Move
}

func (b *BookPgn) Load(path string, maxPly, top100 int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".bz2") {
		bz, err := bzip2.NewReader(file, nil)
		if err != nil {
			return fmt.Errorf("book: %w", err)
		}
		defer bz.Close()
		reader = bz
	}

	var lines [][]common.Move
	var addGame = func(moveText string) {
		if strings.TrimSpace(moveText) == "" {
			return
		}
		var moves, err = board.ParseSanMoves(moveText)
		if err != nil || len(moves) == 0 {
			return
		}
		if maxPly > 0 && len(moves) > maxPly {
			moves = moves[:maxPly]
		}
		lines = append(lines, moves)
	}

	var sb strings.Builder
	var scanner = bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line = scanner.Text()
		if strings.HasPrefix(line, "[") {
			if strings.HasPrefix(line, "[Event") {
				addGame(sb.String())
				sb.Reset()
			}
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("book: %w", err)
	}
	addGame(sb.String())

	b.path = path
	b.lines = lines
	return nil
}

func (b *BookPgn) IsEmpty() bool {
	return len(b.lines) == 0
}

func (b *BookPgn) Size() int {
	return len(b.lines)
}

func (b *BookPgn) GetRandom(rnd *rand.Rand) (string, []common.Move, bool) {
	if len(b.lines) == 0 {
		return "", nil, false
	}
	var moves = b.lines[rnd.Intn(len(b.lines))]
	return "", moves, len(moves) > 0
}
