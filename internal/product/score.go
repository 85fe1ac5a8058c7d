package product

import (
	"math"
	"strings"
)

const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100
)

var gradePoints = map[string]float64{
	"a": 25,
	"b": 15,
	"c": 5,
	"d": -10,
	"e": -25,
}

// Contribution is the signed point change produced by one scoring rule.
type Contribution struct {
	Rule   string  `json:"rule"`
	Points float64 `json:"points"`
}

// Breakdown lists every rule that moved the score, in evaluation order.
type Breakdown struct {
	Base          float64        `json:"base"`
	Contributions []Contribution `json:"contributions"`
	Raw           float64        `json:"raw"`
	Score         int            `json:"score"`
}

// Score computes the 0-100 health score of a raw record. Absent fields
// contribute nothing, so an empty record scores the base value.
func Score(raw RawProduct) int {
	return Explain(raw).Score
}

// Explain runs the scoring rules and reports each non-zero contribution.
func Explain(raw RawProduct) Breakdown {
	b := Breakdown{Base: baseScore}
	add := func(rule string, points float64) {
		if points != 0 {
			b.Contributions = append(b.Contributions, Contribution{Rule: rule, Points: points})
		}
	}
	n := raw.Nutriments

	add("nutriscore", gradePoints[strings.ToLower(strings.TrimSpace(raw.NutriscoreGrade))])

	if n.Sugars != nil {
		switch v := *n.Sugars; {
		case v < 5:
			add("sugars", 10)
		case v < 10:
			add("sugars", 5)
		case v < 20:
			add("sugars", -10)
		default:
			add("sugars", -25)
		}
	}

	if n.Salt != nil {
		switch v := *n.Salt; {
		case v < 0.3:
			add("salt", 10)
		case v < 1.5:
			add("salt", 5)
		default:
			add("salt", -15)
		}
	}

	if n.SaturatedFat != nil {
		switch v := *n.SaturatedFat; {
		case v < 1.5:
			add("saturated_fat", 8)
		case v > 5:
			add("saturated_fat", -12)
		}
	}

	if n.Fiber != nil {
		switch v := *n.Fiber; {
		case v > 6:
			add("fiber", 15)
		case v > 3:
			add("fiber", 8)
		}
	}

	if n.Proteins != nil {
		switch v := *n.Proteins; {
		case v > 10:
			add("proteins", 10)
		case v > 5:
			add("proteins", 5)
		}
	}

	switch additives := len(raw.AdditivesTags); {
	case additives > 5:
		add("additives", -15)
	case additives > 2:
		add("additives", -7)
	}

	if raw.NovaGroup != nil {
		switch *raw.NovaGroup {
		case 4:
			add("nova", -20)
		case 3:
			add("nova", -8)
		}
	}

	if n.EnergyKcal != nil && *n.EnergyKcal > 500 {
		add("energy", -10)
	}

	b.Raw = b.Base
	for _, c := range b.Contributions {
		b.Raw += c.Points
	}
	b.Score = clampScore(b.Raw)
	return b
}

func clampScore(v float64) int {
	rounded := math.Round(v)
	if math.IsNaN(rounded) || rounded < minScore {
		return minScore
	}
	if rounded > maxScore {
		return maxScore
	}
	return int(rounded)
}
