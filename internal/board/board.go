// Package board adapts github.com/notnil/chess as the rules collaborator:
// legality, SAN, FEN and terminal detection live there, the game controller
// only sees coordinate moves and results.
package board

import (
	"fmt"
	"time"

	"github.com/notnil/chess"

	"tourney/pkg/common"
)

// Hist is one accepted move with its rendering and thinking time.
type Hist struct {
	Move    common.Move
	San     string
	Side    common.Side
	Elapsed time.Duration
}

type Board struct {
	game     *chess.Game
	startFen string
	hist     []Hist
}

func New() *Board {
	var b = &Board{}
	if err := b.Reset(""); err != nil {
		panic(err)
	}
	return b
}

// Reset starts a new game from startFen, or from the standard initial
// position when startFen is empty.
func (b *Board) Reset(startFen string) error {
	if startFen == "" {
		startFen = common.InitialPositionFen
	}
	var fenOpt, err = chess.FEN(startFen)
	if err != nil {
		return fmt.Errorf("board: bad fen %q: %w", startFen, err)
	}
	b.game = chess.NewGame(fenOpt)
	b.startFen = b.game.Position().String()
	b.hist = b.hist[:0]
	return nil
}

func (b *Board) StartFen() string {
	return b.startFen
}

func (b *Board) FromOriginPosition() bool {
	return b.startFen == common.InitialPositionFen
}

func (b *Board) FEN() string {
	return b.game.Position().String()
}

func (b *Board) Position() *chess.Position {
	return b.game.Position()
}

func (b *Board) SideToMove() common.Side {
	if b.game.Position().Turn() == chess.White {
		return common.White
	}
	return common.Black
}

func (b *Board) Ply() int {
	return len(b.hist)
}

func (b *Board) History() []Hist {
	return b.hist
}

func (b *Board) LastMove() (common.Move, bool) {
	if len(b.hist) == 0 {
		return common.MoveEmpty, false
	}
	return b.hist[len(b.hist)-1].Move, true
}

// MoveStrings returns the accepted moves in coordinate notation, in order,
// for the protocol position command.
func (b *Board) MoveStrings() []string {
	var result = make([]string, len(b.hist))
	for i := range b.hist {
		result[i] = b.hist[i].Move.String()
	}
	return result
}

// SetElapsed records the thinking time spent on the last accepted move.
func (b *Board) SetElapsed(elapsed time.Duration) {
	if len(b.hist) > 0 {
		b.hist[len(b.hist)-1].Elapsed = elapsed
	}
}

// CheckMake validates mv in the current position and, when legal, plays it.
func (b *Board) CheckMake(mv common.Move) bool {
	var pos = b.game.Position()
	var legal = findLegal(pos, mv)
	if legal == nil {
		return false
	}
	var san = chess.AlgebraicNotation{}.Encode(pos, legal)
	var side = b.SideToMove()
	if err := b.game.Move(legal); err != nil {
		return false
	}
	b.hist = append(b.hist, Hist{Move: mv, San: san, Side: side})
	return true
}

// IsLegal reports whether mv could be played in the current position.
func (b *Board) IsLegal(mv common.Move) bool {
	return findLegal(b.game.Position(), mv) != nil
}

func findLegal(pos *chess.Position, mv common.Move) *chess.Move {
	if !mv.IsValid() {
		return nil
	}
	for _, valid := range pos.ValidMoves() {
		if int(valid.S1()) == mv.From &&
			int(valid.S2()) == mv.To &&
			promoOf(valid) == mv.Promotion {
			return valid
		}
	}
	return nil
}

func promoOf(mv *chess.Move) int {
	switch mv.Promo() {
	case chess.Knight:
		return common.PromoKnight
	case chess.Bishop:
		return common.PromoBishop
	case chess.Rook:
		return common.PromoRook
	case chess.Queen:
		return common.PromoQueen
	}
	return common.PromoNone
}

// Rule reports the rule-based game result for the current position.
// Threefold repetition and the fifty-move rule are claimed on behalf of
// both players as soon as they become available.
func (b *Board) Rule() common.Result {
	for _, method := range b.game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			b.game.Draw(method)
			break
		}
	}
	var outcome = b.game.Outcome()
	if outcome == chess.NoOutcome {
		return common.Result{}
	}
	var result common.Result
	switch outcome {
	case chess.WhiteWon:
		result.Outcome = common.OutcomeWhiteWins
	case chess.BlackWon:
		result.Outcome = common.OutcomeBlackWins
	case chess.Draw:
		result.Outcome = common.OutcomeDraw
	}
	switch b.game.Method() {
	case chess.Checkmate:
		result.Reason = common.ReasonCheckmate
	case chess.Stalemate:
		result.Reason = common.ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		result.Reason = common.ReasonRepetition
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		result.Reason = common.ReasonFiftyMoves
	case chess.InsufficientMaterial:
		result.Reason = common.ReasonInsufficient
	case chess.Resignation:
		result.Reason = common.ReasonResign
	}
	return result
}

// MakeSan plays one SAN move in the current position.
func (b *Board) MakeSan(san string) bool {
	var pos = b.game.Position()
	var mv, err = chess.AlgebraicNotation{}.Decode(pos, san)
	if err != nil {
		return false
	}
	return b.CheckMake(common.Move{
		From:      int(mv.S1()),
		To:        int(mv.S2()),
		Promotion: promoOf(mv),
	})
}

// ReplaySanMoves plays a SAN move list ("1. e4 e5 2. Nf3") from startFen
// (empty for the standard start) and returns the coordinate moves.
func ReplaySanMoves(startFen, text string) ([]common.Move, error) {
	var b = New()
	if err := b.Reset(startFen); err != nil {
		return nil, err
	}
	for _, token := range sanTokens(text) {
		if !b.MakeSan(token) {
			return nil, fmt.Errorf("board: illegal san %q", token)
		}
	}
	var moves = make([]common.Move, len(b.hist))
	for i := range b.hist {
		moves[i] = b.hist[i].Move
	}
	return moves, nil
}

// ParseSanMoves parses a SAN move list played from the standard start.
func ParseSanMoves(text string) ([]common.Move, error) {
	return ReplaySanMoves("", text)
}
