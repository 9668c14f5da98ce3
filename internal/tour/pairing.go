package tour

import (
	"fmt"

	"tourney/pkg/common"
)

// PlayerId is a stable index into the tournament's engine list.
type PlayerId = int

// Pairing is one scheduled game. Reversed-colour siblings share PairId.
type Pairing struct {
	White  PlayerId
	Black  PlayerId
	Round  int
	Idx    int
	PairId int
}

// GameRecord is one finished (or forfeited) pairing with its result.
type GameRecord struct {
	Pairing Pairing
	Result  common.Result
}

// pairingGenerator produces the event's pairings. next may report
// ok=false while it waits for running games (knockout, swiss rounds);
// done=true ends the event.
type pairingGenerator interface {
	next(finished []GameRecord) (pairing Pairing, ok bool, done bool)
}

// expandPair turns one unordered pair into gamesPerPair ordered pairings
// with alternating colours.
func expandPair(a, b PlayerId, gamesPerPair, round int, idx, pairId *int, out []Pairing) []Pairing {
	for g := 0; g < gamesPerPair; g++ {
		var white, black = a, b
		if g%2 == 1 {
			white, black = b, a
		}
		out = append(out, Pairing{
			White:  white,
			Black:  black,
			Round:  round,
			Idx:    *idx,
			PairId: *pairId,
		})
		*idx++
	}
	*pairId++
	return out
}

// listGenerator serves a precomputed pairing list (round-robin, gauntlet).
type listGenerator struct {
	pairings []Pairing
	pos      int
}

func (g *listGenerator) next(finished []GameRecord) (Pairing, bool, bool) {
	if g.pos >= len(g.pairings) {
		return Pairing{}, false, true
	}
	var p = g.pairings[g.pos]
	g.pos++
	return p, true, false
}

func newRoundRobin(n, gamesPerPair int) *listGenerator {
	var pairings []Pairing
	var idx, pairId = 0, 0
	var round = 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			round++
			pairings = expandPair(i, j, gamesPerPair, round, &idx, &pairId, pairings)
		}
	}
	return &listGenerator{pairings: pairings}
}

func newGauntlet(n, seed, gamesPerPair int) (*listGenerator, error) {
	if seed < 0 || seed >= n {
		return nil, fmt.Errorf("tour: gauntlet seed %v out of range", seed)
	}
	var pairings []Pairing
	var idx, pairId = 0, 0
	var round = 0
	for i := 0; i < n; i++ {
		if i == seed {
			continue
		}
		round++
		pairings = expandPair(seed, i, gamesPerPair, round, &idx, &pairId, pairings)
	}
	return &listGenerator{pairings: pairings}, nil
}

// knockoutGenerator runs single-elimination rounds: every pair plays
// gamesPerPair games, the better score advances (lower id on a tie), odd
// players get a bye.
type knockoutGenerator struct {
	gamesPerPair int
	alive        []PlayerId
	pending      []Pairing
	waiting      map[int]Pairing // idx -> pairing of the running round
	scores       map[PlayerId]float64
	round        int
	idx          int
	pairId       int
}

func newKnockout(n, gamesPerPair int) *knockoutGenerator {
	var alive = make([]PlayerId, n)
	for i := range alive {
		alive[i] = i
	}
	var g = &knockoutGenerator{
		gamesPerPair: gamesPerPair,
		alive:        alive,
		waiting:      map[int]Pairing{},
	}
	g.buildRound()
	return g
}

func (g *knockoutGenerator) buildRound() {
	g.round++
	g.scores = map[PlayerId]float64{}
	g.pending = g.pending[:0]
	for i := 0; i+1 < len(g.alive); i += 2 {
		g.pending = expandPair(g.alive[i], g.alive[i+1], g.gamesPerPair, g.round, &g.idx, &g.pairId, g.pending)
	}
	for _, p := range g.pending {
		g.waiting[p.Idx] = p
	}
}

func (g *knockoutGenerator) next(finished []GameRecord) (Pairing, bool, bool) {
	if len(g.pending) > 0 {
		var p = g.pending[0]
		g.pending = g.pending[1:]
		return p, true, false
	}
	// the round must complete before the bracket can advance
	for _, rec := range finished {
		if _, ours := g.waiting[rec.Pairing.Idx]; !ours {
			continue
		}
		delete(g.waiting, rec.Pairing.Idx)
		var w, l = pointsOf(rec.Result)
		g.scores[rec.Pairing.White] += w
		g.scores[rec.Pairing.Black] += l
	}
	if len(g.waiting) > 0 {
		return Pairing{}, false, false
	}

	var survivors []PlayerId
	for i := 0; i+1 < len(g.alive); i += 2 {
		var a, b = g.alive[i], g.alive[i+1]
		if g.scores[b] > g.scores[a] {
			survivors = append(survivors, b)
		} else {
			survivors = append(survivors, a)
		}
	}
	if len(g.alive)%2 == 1 {
		survivors = append(survivors, g.alive[len(g.alive)-1])
	}
	g.alive = survivors
	if len(g.alive) <= 1 {
		return Pairing{}, false, true
	}
	g.buildRound()
	return g.next(finished)
}

// swissGenerator pairs adjacent players by score each round, avoiding
// rematches where it can, colours alternating by round.
type swissGenerator struct {
	gamesPerPair int
	players      int
	rounds       int
	played       map[[2]PlayerId]bool
	pending      []Pairing
	waiting      map[int]Pairing
	round        int
	idx          int
	pairId       int
}

func newSwiss(n, gamesPerPair, rounds int) *swissGenerator {
	if rounds <= 0 {
		rounds = n - 1
	}
	var g = &swissGenerator{
		gamesPerPair: gamesPerPair,
		players:      n,
		rounds:       rounds,
		played:       map[[2]PlayerId]bool{},
		waiting:      map[int]Pairing{},
	}
	return g
}

func (g *swissGenerator) next(finished []GameRecord) (Pairing, bool, bool) {
	if len(g.pending) > 0 {
		var p = g.pending[0]
		g.pending = g.pending[1:]
		return p, true, false
	}
	for _, rec := range finished {
		delete(g.waiting, rec.Pairing.Idx)
	}
	if len(g.waiting) > 0 {
		return Pairing{}, false, false
	}
	if g.round >= g.rounds {
		return Pairing{}, false, true
	}
	g.buildRound(finished)
	if len(g.pending) == 0 {
		return Pairing{}, false, true
	}
	return g.next(finished)
}

func (g *swissGenerator) buildRound(finished []GameRecord) {
	g.round++

	var scores = make([]float64, g.players)
	for _, rec := range finished {
		var w, l = pointsOf(rec.Result)
		scores[rec.Pairing.White] += w
		scores[rec.Pairing.Black] += l
	}
	var order = make([]PlayerId, g.players)
	for i := range order {
		order[i] = i
	}
	// stable by score, id breaks ties
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && scores[order[j]] > scores[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	var used = make([]bool, g.players)
	for i := 0; i < len(order); i++ {
		if used[order[i]] {
			continue
		}
		var opponent = -1
		for j := i + 1; j < len(order); j++ {
			if used[order[j]] {
				continue
			}
			if !g.played[pairKey(order[i], order[j])] {
				opponent = j
				break
			}
			if opponent < 0 {
				opponent = j
			}
		}
		if opponent < 0 {
			break
		}
		var a, b = order[i], order[opponent]
		used[a] = true
		used[b] = true
		g.played[pairKey(a, b)] = true
		if g.round%2 == 0 {
			a, b = b, a
		}
		g.pending = expandPair(a, b, g.gamesPerPair, g.round, &g.idx, &g.pairId, g.pending)
	}
	for _, p := range g.pending {
		g.waiting[p.Idx] = p
	}
}

func pairKey(a, b PlayerId) [2]PlayerId {
	if a > b {
		a, b = b, a
	}
	return [2]PlayerId{a, b}
}

// pointsOf maps a result to white and black match points.
func pointsOf(result common.Result) (white, black float64) {
	switch result.Outcome {
	case common.OutcomeWhiteWins:
		return 1, 0
	case common.OutcomeBlackWins:
		return 0, 1
	case common.OutcomeDraw:
		return 0.5, 0.5
	}
	return 0, 0
}
