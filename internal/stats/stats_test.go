package stats

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/corvohq/turnbench/internal/seed"
)

func fp(v float64) *float64 { return &v }

func TestSummarizePercentileRanks(t *testing.T) {
	d := Summarize([]float64{10, 20, 30, 40, 50})

	if d.Count != 5 {
		t.Fatalf("Count = %d, want 5", d.Count)
	}
	if d.P50 != 30 {
		t.Errorf("P50 = %v, want 30", d.P50)
	}
	if d.P95 != 50 {
		t.Errorf("P95 = %v, want 50 (rank clamped to max index)", d.P95)
	}
	if d.P99 != 50 {
		t.Errorf("P99 = %v, want 50 (rank clamped to max index)", d.P99)
	}
	if d.Min != 10 || d.Max != 50 || d.Mean != 30 {
		t.Errorf("min/max/mean = %v/%v/%v, want 10/50/30", d.Min, d.Max, d.Mean)
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	values := []float64{7, 1, 99, 42, 13, 8, 3, 21, 55, 2}
	want := Summarize(values)

	for range 10 {
		shuffled := make([]float64, len(values))
		copy(shuffled, values)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		if got := Summarize(shuffled); got != want {
			t.Fatalf("Summarize(shuffled) = %+v, want %+v", got, want)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if d := Summarize(nil); d.Count != 0 {
		t.Errorf("Summarize(nil).Count = %d, want 0", d.Count)
	}
}

func TestSummarizeSingleValue(t *testing.T) {
	d := Summarize([]float64{42})
	if d.P50 != 42 || d.P95 != 42 || d.P99 != 42 {
		t.Errorf("single-value percentiles = %v/%v/%v, want all 42", d.P50, d.P95, d.P99)
	}
}

func buildSamples() []Sample {
	return []Sample{
		{Conv: 0, Turn: 0, Category: seed.CategoryCode, TTFTMs: fp(100), TotalMs: 400},
		{Conv: 0, Turn: 1, Category: seed.CategoryCode, TTFTMs: fp(20), TotalMs: 100},
		{Conv: 1, Turn: 0, Category: seed.CategoryText, TTFTMs: fp(80), TotalMs: 300},
		{Conv: 1, Turn: 1, Category: seed.CategoryText, TTFTMs: fp(40), TotalMs: 150},
		{Conv: 2, Turn: 0, Category: seed.CategoryCode, TTFTMs: nil, TotalMs: 50}, // failed turn
		{Conv: 2, Turn: 1, Category: seed.CategoryCode, TTFTMs: fp(30), TotalMs: 120},
	}
}

func TestBuildBreakdowns(t *testing.T) {
	r := Build(buildSamples(), 2*time.Second, 2, 3, 3)

	if r.TotalRequests != 6 {
		t.Errorf("TotalRequests = %d, want 6", r.TotalRequests)
	}
	if r.RequestsPerSecond != 3 {
		t.Errorf("RequestsPerSecond = %v, want 3", r.RequestsPerSecond)
	}
	if r.TTFT.Count != 5 {
		t.Errorf("TTFT.Count = %d, want 5 (failed turn excluded)", r.TTFT.Count)
	}
	if r.Total.Count != 6 {
		t.Errorf("Total.Count = %d, want 6 (failed turn included)", r.Total.Count)
	}

	if len(r.PerTurn) != 2 {
		t.Fatalf("PerTurn has %d entries, want 2", len(r.PerTurn))
	}
	if r.PerTurn[0].MeanMs != 90 { // (100+80)/2
		t.Errorf("turn 0 mean = %v, want 90", r.PerTurn[0].MeanMs)
	}
	if r.PerTurn[1].MeanMs != 30 { // (20+40+30)/3
		t.Errorf("turn 1 mean = %v, want 30", r.PerTurn[1].MeanMs)
	}

	if len(r.PerCategory) != 2 {
		t.Fatalf("PerCategory has %d entries, want 2", len(r.PerCategory))
	}
	if r.PerCategory[0].Category != seed.CategoryCode || r.PerCategory[0].MeanMs != 50 {
		t.Errorf("code category = %+v, want mean 50", r.PerCategory[0])
	}
	if r.PerCategory[1].Category != seed.CategoryText || r.PerCategory[1].MeanMs != 60 {
		t.Errorf("text category = %+v, want mean 60", r.PerCategory[1])
	}

	if r.FirstTurn.MeanMs != 90 || r.FirstTurn.Count != 2 {
		t.Errorf("FirstTurn = %+v, want mean 90 over 2", r.FirstTurn)
	}
	if r.LaterTurn.MeanMs != 30 || r.LaterTurn.Count != 3 {
		t.Errorf("LaterTurn = %+v, want mean 30 over 3", r.LaterTurn)
	}
	if r.SpeedupRatio != 3 {
		t.Errorf("SpeedupRatio = %v, want 3", r.SpeedupRatio)
	}
}

func TestBuildOmitsEmptyStrata(t *testing.T) {
	samples := []Sample{
		{Conv: 0, Turn: 0, Category: seed.CategoryCode, TTFTMs: nil, TotalMs: 10},
		{Conv: 0, Turn: 1, Category: seed.CategoryCode, TTFTMs: nil, TotalMs: 12},
	}
	r := Build(samples, time.Second, 2, 1, 1)

	if r.TTFT.Count != 0 {
		t.Errorf("TTFT.Count = %d, want 0", r.TTFT.Count)
	}
	if len(r.PerTurn) != 0 || len(r.PerCategory) != 0 {
		t.Errorf("strata not omitted: PerTurn=%d PerCategory=%d", len(r.PerTurn), len(r.PerCategory))
	}
	if r.SpeedupRatio != 0 {
		t.Errorf("SpeedupRatio = %v, want 0 when subsets are empty", r.SpeedupRatio)
	}

	// Report must still render without the empty sections.
	var b strings.Builder
	r.Write(&b)
	out := b.String()
	if strings.Contains(out, "Time to First Token") {
		t.Error("report contains TTFT section for empty subset")
	}
	if !strings.Contains(out, "Total Request Time") {
		t.Error("report missing total-latency section")
	}
}

func TestBuildEmptyInput(t *testing.T) {
	r := Build(nil, 0, 0, 0, 0)
	if r.TotalRequests != 0 || r.RequestsPerSecond != 0 {
		t.Errorf("empty build = %+v", r)
	}
	var b strings.Builder
	r.Write(&b) // must not panic
	if !strings.Contains(b.String(), "BENCHMARK SUMMARY") {
		t.Error("report header missing")
	}
}

func TestReportWriteSections(t *testing.T) {
	var b strings.Builder
	Build(buildSamples(), 2*time.Second, 2, 3, 3).Write(&b)
	out := b.String()

	for _, want := range []string{
		"Total requests:          6",
		"Completed conversations: 3/3",
		"Time to First Token (TTFT):",
		"TTFT by Turn Number:",
		"TTFT by Document Category:",
		"First Turn vs Later Turns",
		"speedup ratio:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}
