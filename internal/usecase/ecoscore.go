package usecase

// Tier is one of four ordered eco-score bands
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierFair             Tier = "fair"
	TierNeedsImprovement Tier = "needs-improvement"
)

// Rank orders tiers from worst (0) to best (3)
func (t Tier) Rank() int {
	switch t {
	case TierExcellent:
		return 3
	case TierGood:
		return 2
	case TierFair:
		return 1
	default:
		return 0
	}
}

// Classification is the display form of an eco-score
type Classification struct {
	Score int    `json:"score"`
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// scoreBand is an inclusive lower bound; bands are checked highest first
type scoreBand struct {
	min   int
	tier  Tier
	label string
	color string
}

var scoreBands = []scoreBand{
	{min: 90, tier: TierExcellent, label: "Excellent", color: "#2E7D32"},
	{min: 70, tier: TierGood, label: "Good", color: "#4CAF50"},
	{min: 50, tier: TierFair, label: "Fair", color: "#8BC34A"},
}

var lowestBand = scoreBand{tier: TierNeedsImprovement, label: "Needs Improvement", color: "#FFC107"}

// Classify maps any integer score to its tier. Scores above 100 stay in the
// top band and negative scores fall through to the lowest one.
func Classify(score int) Classification {
	band := lowestBand
	for _, b := range scoreBands {
		if score >= b.min {
			band = b
			break
		}
	}
	return Classification{
		Score: score,
		Tier:  band.tier,
		Label: band.label,
		Color: band.color,
	}
}
