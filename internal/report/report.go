// Package report turns a measurement histogram into a fidelity report.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/danmuck/qpuctl/internal/runtime"
)

var ErrEmptyHistogram = errors.New("histogram has no shots")

const barCells = 50

// Band is the qualitative fidelity rating.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandModerate  Band = "moderate"
	BandPoor      Band = "poor"
)

func bandFor(fidelity float64) Band {
	switch {
	case fidelity >= 0.80:
		return BandExcellent
	case fidelity >= 0.60:
		return BandGood
	case fidelity >= 0.40:
		return BandModerate
	default:
		return BandPoor
	}
}

// Entry is one ranked histogram row.
type Entry struct {
	State       string
	Count       int
	Probability float64
}

// Report is the analyzed result for one completed job. Pure data; rendering
// the same report twice produces identical output.
type Report struct {
	Backend       string
	ExpectedState string
	TotalShots    int
	Fidelity      float64
	Band          Band
	Ranking       []Entry
}

// Analyze computes fidelity and the deterministic ranking. A histogram with
// zero total shots is rejected outright rather than divided by.
func Analyze(hist runtime.Histogram, backend, expected string) (Report, error) {
	total := hist.TotalShots()
	if total <= 0 {
		return Report{}, fmt.Errorf("analyze results: %w", ErrEmptyHistogram)
	}

	fidelity := float64(hist[expected]) / float64(total)

	ranking := make([]Entry, 0, len(hist))
	for state, count := range hist {
		ranking = append(ranking, Entry{
			State:       state,
			Count:       count,
			Probability: float64(count) / float64(total),
		})
	}
	// descending by count, ties ascending by state for stable output
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].State < ranking[j].State
	})

	return Report{
		Backend:       backend,
		ExpectedState: expected,
		TotalShots:    total,
		Fidelity:      fidelity,
		Band:          bandFor(fidelity),
		Ranking:       ranking,
	}, nil
}

// Render writes the human-readable report.
func (r Report) Render(w io.Writer) error {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(w, "%s\nRESULT ANALYSIS\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "Backend: %s\n", r.Backend)
	fmt.Fprintf(w, "Total shots: %d\n\n", r.TotalShots)
	fmt.Fprintf(w, "Distribution (by frequency):\n\n")

	for _, entry := range r.Ranking {
		filled := int(entry.Probability * barCells)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
		marker := ""
		if entry.State == r.ExpectedState {
			marker = " <- target"
		}
		fmt.Fprintf(w, "|%s>: %4d (%5.2f%%) %s%s\n", entry.State, entry.Count, entry.Probability*100, bar, marker)
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "FIDELITY: %.2f%% (state |%s>)\n", r.Fidelity*100, r.ExpectedState)
	fmt.Fprintf(w, "%s\n\n", rule)

	fmt.Fprintf(w, "Interpretation: %s\n", r.interpretation())
	fmt.Fprintf(w, "  ideal:     |%s> at ~100%%\n", r.ExpectedState)
	fmt.Fprintf(w, "  measured:  |%s> at %.2f%%\n", r.ExpectedState, r.Fidelity*100)
	fmt.Fprintf(w, "  degraded:  %.2f%% from quantum noise\n", (1-r.Fidelity)*100)
	return nil
}

func (r Report) interpretation() string {
	switch r.Band {
	case BandExcellent:
		return "excellent, very close to ideal despite hardware noise"
	case BandGood:
		return "good result given real quantum noise; the target state was amplified"
	case BandModerate:
		return "moderate, significant noise affected precision"
	default:
		return "below expectation, high noise or an execution problem"
	}
}
