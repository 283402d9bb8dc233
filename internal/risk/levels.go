package risk

// Risk levels. Scores map onto three bands: Bronze for low risk, Silver for
// medium, Gold for high.
const (
	LevelBronze = 1 // score 0-40
	LevelSilver = 2 // score 41-70
	LevelGold   = 3 // score 71-100
)

// ClampScore saturates a score into [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// LevelFromScore maps a score to its risk level. Band edges are inclusive
// on the low side: 40 is still Bronze, 70 is still Silver.
func LevelFromScore(score int) int {
	switch {
	case score <= 40:
		return LevelBronze
	case score <= 70:
		return LevelSilver
	default:
		return LevelGold
	}
}
