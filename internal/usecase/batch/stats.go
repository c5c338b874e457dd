package batch

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// ComputeStats summarises scores and buckets them into bands.
func ComputeStats(results []domain.MatchResult) Stats {
	st := Stats{
		Count: len(results),
		Bands: map[domain.Band]int{
			domain.BandExcellent: 0,
			domain.BandGood:      0,
			domain.BandFair:      0,
			domain.BandPoor:      0,
		},
	}
	if len(results) == 0 {
		return st
	}

	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
		st.Bands[domain.BandOf(r.Score)]++
	}
	st.Mean = stat.Mean(scores, nil)
	st.Min = floats.Min(scores)
	st.Max = floats.Max(scores)
	if len(scores) > 1 {
		st.StdDev = stat.PopStdDev(scores, nil)
	}
	st.Mean = round(st.Mean)
	st.StdDev = round(st.StdDev)
	return st
}

func round(v float64) float64 { return math.Round(v*1e6) / 1e6 }
