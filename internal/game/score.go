package game

// Score tiers awarded at game end.
const (
	TierPerfect    = 15
	TierGreat      = 12
	TierGood       = 10
	TierBonusMiss  = 8
	TierTwoSolved  = 6
	TierOneSolved  = 3
	TierNoneSolved = 0
)

// ComputeScore derives the score tier from the end-of-game counts.
// Rows are evaluated in order; the first match wins.
func ComputeScore(turnsAvailable, hintsAvailable, remainingCues, finalRoundCues int) int {
	switch {
	case turnsAvailable == 3 && hintsAvailable == 2:
		return TierPerfect
	case turnsAvailable == 2 && (hintsAvailable == 1 || hintsAvailable == 2):
		return TierGreat
	case turnsAvailable == 1 && hintsAvailable >= 0 && hintsAvailable <= 2:
		return TierGood
	case turnsAvailable == 0 && remainingCues == 0 && finalRoundCues == 3:
		return TierBonusMiss
	case turnsAvailable == 0 && remainingCues == 3:
		return TierTwoSolved
	case turnsAvailable == 0 && remainingCues == 6:
		return TierOneSolved
	}
	return TierNoneSolved
}
