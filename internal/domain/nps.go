package domain

import "math"

type Category int

const (
	Detractor Category = iota
	Passive
	Promoter
)

func (c Category) String() string {
	switch c {
	case Promoter:
		return "promoter"
	case Passive:
		return "passive"
	default:
		return "detractor"
	}
}

// Categorize maps a rating to its NPS bucket: 9-10 promoter, 7-8 passive, 0-6 detractor.
func Categorize(rating int) Category {
	switch {
	case rating >= 9:
		return Promoter
	case rating >= 7:
		return Passive
	default:
		return Detractor
	}
}

type NPSBreakdown struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Total      int `json:"total"`
}

func Breakdown(ratings []int) NPSBreakdown {
	b := NPSBreakdown{Total: len(ratings)}
	for _, r := range ratings {
		switch Categorize(r) {
		case Promoter:
			b.Promoters++
		case Passive:
			b.Passives++
		default:
			b.Detractors++
		}
	}
	return b
}

// Score is (promoters - detractors) / total * 100 rounded to 2dp, 0 when empty.
func (b NPSBreakdown) Score() float64 {
	if b.Total == 0 {
		return 0
	}
	return Round2(float64(b.Promoters-b.Detractors) / float64(b.Total) * 100)
}

// CalculateNPS is order independent and always within [-100, 100].
func CalculateNPS(ratings []int) float64 {
	return Breakdown(ratings).Score()
}

func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
