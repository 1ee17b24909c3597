// Package stats aggregates per-turn samples into the final benchmark report:
// overall latency distributions plus breakdowns by turn index, document
// category, and first-vs-later turn (the prefix-caching indicator).
package stats

import (
	"sort"
	"time"

	"github.com/corvohq/turnbench/internal/seed"
)

// Sample is one turn measurement with the metadata the breakdowns need.
type Sample struct {
	Conv     int
	Turn     int
	Category seed.Category
	TTFTMs   *float64
	TotalMs  float64
}

// Dist summarizes a set of values. Count 0 means the subset was empty and the
// corresponding report section is omitted.
type Dist struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Summarize computes min/max/mean and P50/P95/P99 percentiles. Percentile
// rank is floor(n*p) clamped to [0, n-1] over the ascending sort, so the
// result is independent of input order.
func Summarize(values []float64) Dist {
	n := len(values)
	if n == 0 {
		return Dist{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return Dist{
		Count: n,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Mean:  sum / float64(n),
		P50:   sorted[percentileIndex(n, 0.50)],
		P95:   sorted[percentileIndex(n, 0.95)],
		P99:   sorted[percentileIndex(n, 0.99)],
	}
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// MeanStat is a mean over a sample subset.
type MeanStat struct {
	Count  int
	MeanMs float64
}

func meanOf(values []float64) MeanStat {
	if len(values) == 0 {
		return MeanStat{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return MeanStat{Count: len(values), MeanMs: sum / float64(len(values))}
}

// TurnStat is the mean TTFT of one turn index.
type TurnStat struct {
	Turn int // zero-based
	MeanStat
}

// CategoryStat is the mean TTFT of one document category.
type CategoryStat struct {
	Category seed.Category
	MeanStat
}

// Report is the complete aggregate, computed once after the run.
type Report struct {
	Wall                   time.Duration
	TotalRequests          int
	CompletedConversations int
	TotalConversations     int
	RequestsPerSecond      float64

	TTFT  Dist
	Total Dist

	PerTurn     []TurnStat     // only turn indices with measured TTFTs
	PerCategory []CategoryStat // only categories with measured TTFTs

	FirstTurn MeanStat
	LaterTurn MeanStat
	// SpeedupRatio is first-turn mean TTFT over later-turn mean TTFT; zero
	// when either subset is empty.
	SpeedupRatio float64
}

// Build computes the report from the full sample collection. Samples missing
// a TTFT contribute to totals and total-latency stats only.
func Build(samples []Sample, wall time.Duration, turnsPer, completed, total int) *Report {
	r := &Report{
		Wall:                   wall,
		TotalRequests:          len(samples),
		CompletedConversations: completed,
		TotalConversations:     total,
	}
	if wall > 0 {
		r.RequestsPerSecond = float64(len(samples)) / wall.Seconds()
	}

	var ttfts, totals, firstTurn, laterTurn []float64
	byTurn := make(map[int][]float64)
	byCategory := make(map[seed.Category][]float64)

	for _, s := range samples {
		totals = append(totals, s.TotalMs)
		if s.TTFTMs == nil {
			continue
		}
		v := *s.TTFTMs
		ttfts = append(ttfts, v)
		byTurn[s.Turn] = append(byTurn[s.Turn], v)
		byCategory[s.Category] = append(byCategory[s.Category], v)
		if s.Turn == 0 {
			firstTurn = append(firstTurn, v)
		} else {
			laterTurn = append(laterTurn, v)
		}
	}

	r.TTFT = Summarize(ttfts)
	r.Total = Summarize(totals)

	for turn := 0; turn < turnsPer; turn++ {
		if vals, ok := byTurn[turn]; ok {
			r.PerTurn = append(r.PerTurn, TurnStat{Turn: turn, MeanStat: meanOf(vals)})
		}
	}
	for _, cat := range []seed.Category{seed.CategoryCode, seed.CategoryText} {
		if vals, ok := byCategory[cat]; ok {
			r.PerCategory = append(r.PerCategory, CategoryStat{Category: cat, MeanStat: meanOf(vals)})
		}
	}

	r.FirstTurn = meanOf(firstTurn)
	r.LaterTurn = meanOf(laterTurn)
	if r.FirstTurn.Count > 0 && r.LaterTurn.Count > 0 && r.LaterTurn.MeanMs > 0 {
		r.SpeedupRatio = r.FirstTurn.MeanMs / r.LaterTurn.MeanMs
	}

	return r
}
