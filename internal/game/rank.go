package game

// Tier is a speed grade, best first.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierS, TierA, TierB, TierC, TierD}

// RankResult grades one completed challenge.
type RankResult struct {
	Tier   Tier
	Label  string
	Points int
}

type rankBand struct {
	maxPct float64
	result RankResult
}

// Bands are checked in order; the first with percentage <= maxPct wins.
var rankBands = []rankBand{
	{maxPct: 30, result: RankResult{Tier: TierS, Label: "LEGENDARY!", Points: 100}},
	{maxPct: 50, result: RankResult{Tier: TierA, Label: "AMAZING!", Points: 75}},
	{maxPct: 70, result: RankResult{Tier: TierB, Label: "GOOD!", Points: 50}},
	{maxPct: 90, result: RankResult{Tier: TierC, Label: "DECENT!", Points: 25}},
}

var rankFloor = RankResult{Tier: TierD, Label: "TOO SLOW!", Points: 10}

// Rank grades timeUsed against timeLimit. Callers must pass timeLimit > 0.
func Rank(timeUsed, timeLimit float64) RankResult {
	percentage := timeUsed / timeLimit * 100
	for _, band := range rankBands {
		if percentage <= band.maxPct {
			return band.result
		}
	}
	return rankFloor
}

// Better reports whether t is a strictly better tier than other.
func (t Tier) Better(other Tier) bool {
	return tierIndex(t) < tierIndex(other)
}

func tierIndex(t Tier) int {
	for i, candidate := range Tiers {
		if candidate == t {
			return i
		}
	}
	return len(Tiers)
}
