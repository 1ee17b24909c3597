package stats

import (
	"fmt"
	"io"
	"strings"
)

const rule = "================================================================================"

// Write renders the report in a fixed-width layout. Sections without samples
// are omitted.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BENCHMARK SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTotal time:              %.2fs\n", r.Wall.Seconds())
	fmt.Fprintf(w, "Total requests:          %d\n", r.TotalRequests)
	fmt.Fprintf(w, "Completed conversations: %d/%d\n", r.CompletedConversations, r.TotalConversations)
	fmt.Fprintf(w, "Requests per second:     %.2f\n", r.RequestsPerSecond)

	if r.TTFT.Count > 0 {
		fmt.Fprintln(w, "\nTime to First Token (TTFT):")
		writeDist(w, r.TTFT)
	}
	if r.Total.Count > 0 {
		fmt.Fprintln(w, "\nTotal Request Time:")
		writeDist(w, r.Total)
	}

	if len(r.PerTurn) > 0 {
		fmt.Fprintln(w, "\nTTFT by Turn Number:")
		for _, t := range r.PerTurn {
			fmt.Fprintf(w, "  turn %2d: %10.2f ms avg (%d requests)\n", t.Turn+1, t.MeanMs, t.Count)
		}
	}

	if len(r.PerCategory) > 0 {
		fmt.Fprintln(w, "\nTTFT by Document Category:")
		for _, c := range r.PerCategory {
			fmt.Fprintf(w, "  %-6s %10.2f ms avg (%d requests)\n", strings.ToUpper(string(c.Category))+":", c.MeanMs, c.Count)
		}
	}

	if r.FirstTurn.Count > 0 || r.LaterTurn.Count > 0 {
		fmt.Fprintln(w, "\nFirst Turn vs Later Turns (prefix caching indicator):")
		if r.FirstTurn.Count > 0 {
			fmt.Fprintf(w, "  first turn avg:  %10.2f ms (%d requests)\n", r.FirstTurn.MeanMs, r.FirstTurn.Count)
		}
		if r.LaterTurn.Count > 0 {
			fmt.Fprintf(w, "  later turns avg: %10.2f ms (%d requests)\n", r.LaterTurn.MeanMs, r.LaterTurn.Count)
		}
		if r.SpeedupRatio > 0 {
			fmt.Fprintf(w, "  speedup ratio:   %10.2fx\n", r.SpeedupRatio)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
}

func writeDist(w io.Writer, d Dist) {
	fmt.Fprintf(w, "  min:  %10.2f ms\n", d.Min)
	fmt.Fprintf(w, "  max:  %10.2f ms\n", d.Max)
	fmt.Fprintf(w, "  mean: %10.2f ms\n", d.Mean)
	fmt.Fprintf(w, "  p50:  %10.2f ms\n", d.P50)
	fmt.Fprintf(w, "  p95:  %10.2f ms\n", d.P95)
	fmt.Fprintf(w, "  p99:  %10.2f ms\n", d.P99)
}
