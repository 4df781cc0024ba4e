package landing

import "math/rand/v2"

// Star is one twinkling dot in the background, positioned in percent of
// the viewport.
type Star struct {
	Top      float64
	Left     float64
	Size     float64 // px
	Delay    float64 // s
	Duration float64 // s
}

// GenerateStars places count stars pseudo-randomly. The same seed always
// yields the same field, so re-rendering the page does not move them.
func GenerateStars(count int, seed int64) []Star {
	if count <= 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)) //nolint:gosec // decoration, not security

	stars := make([]Star, count)
	for i := range stars {
		stars[i] = Star{
			Top:      round1(r.Float64() * 100),
			Left:     round1(r.Float64() * 100),
			Size:     round1(1 + r.Float64()*2),
			Delay:    round1(r.Float64() * 5),
			Duration: round1(2 + r.Float64()*3),
		}
	}
	return stars
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
