package tour

import "math"

type MatchStat struct {
	WinningFraction float64
	EloDifference   float64
	Los             float64
}

// https://www.chessprogramming.org/Match_Statistics
func ComputeStat(wins, losses, draws int) MatchStat {
	var games = wins + losses + draws
	if games == 0 || wins+losses == 0 {
		return MatchStat{WinningFraction: 0.5}
	}
	var winningFraction = (float64(wins) + 0.5*float64(draws)) / float64(games)
	var eloDifference = 0.0
	if winningFraction > 0 && winningFraction < 1 {
		eloDifference = -math.Log(1/winningFraction-1) * 400 / math.Ln10
	}
	var los = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(wins+losses)))
	return MatchStat{
		WinningFraction: winningFraction,
		EloDifference:   eloDifference,
		Los:             los,
	}
}
