package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	"leadpulse/pkg/contracts/domain"
)

// DefaultHistogramBins is the bin count used when none is requested.
const DefaultHistogramBins = 30

// CountByCategory groups leads by the exact value of a pass-through field,
// skipping leads where the field is absent or empty. Output is ordered by
// count descending; ties keep first-encountered order, which follows the
// source's row order.
func CountByCategory(leads []domain.Lead, field string) []domain.CategoryCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, lead := range leads {
		value := lead.Field(field)
		if value == "" {
			continue
		}
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		counts[value]++
	}

	out := make([]domain.CategoryCount, 0, len(order))
	for _, name := range order {
		out = append(out, domain.CategoryCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// TopN is CountByCategory truncated to the n highest counts.
func TopN(leads []domain.Lead, field string, n int) []domain.CategoryCount {
	out := CountByCategory(leads, field)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DailyTrend buckets leads by generation day, then by the value of
// categoryField within each day. Leads missing either dimension are
// excluded. Points come back ascending by day key.
func DailyTrend(leads []domain.Lead, categoryField string) []domain.TrendPoint {
	days := make(map[string]map[string]int)
	for _, lead := range leads {
		if lead.DateGenerated == nil {
			continue
		}
		category := lead.Field(categoryField)
		if category == "" {
			continue
		}
		key := DayKey(*lead.DateGenerated)
		if days[key] == nil {
			days[key] = make(map[string]int)
		}
		days[key][category]++
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]domain.TrendPoint, 0, len(keys))
	for _, key := range keys {
		out = append(out, domain.TrendPoint{Date: key, Counts: days[key]})
	}
	return out
}

// Histogram distributes values into binCount uniform-width bins between the
// observed min and max. The bin index floor((v-min)/width) is clamped to
// [0, binCount-1] so the maximum value lands in the last bin instead of one
// past it. A degenerate single-value distribution puts everything in bin 0.
func Histogram(values []float64, binCount int) []domain.HistogramBin {
	if len(values) == 0 {
		return []domain.HistogramBin{}
	}
	if binCount <= 0 {
		binCount = DefaultHistogramBins
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	width := (max - min) / float64(binCount)

	bins := make([]domain.HistogramBin, binCount)
	for i := range bins {
		bins[i] = domain.HistogramBin{
			Range: fmt.Sprintf("%.1f-%.1f", min+float64(i)*width, min+float64(i+1)*width),
			Mid:   min + (float64(i)+0.5)*width,
		}
	}

	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int(math.Floor((v - min) / width))
			if idx < 0 {
				idx = 0
			}
			if idx > binCount-1 {
				idx = binCount - 1
			}
		}
		bins[idx].Count++
	}
	return bins
}

// Quartiles computes the five-number summary using nearest-rank indices
// floor(n*0.25) and floor(n*0.75) for q1/q3, while the median averages the
// two middle values for even n. The two rules differ deliberately; this
// mirrors the dashboard's long-observed output and must not be unified
// without confirming intended semantics.
func Quartiles(values []float64) domain.QuartileSummary {
	if len(values) == 0 {
		return domain.QuartileSummary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)

	return domain.QuartileSummary{
		Min:    sorted[0],
		Q1:     sorted[n/4],
		Median: medianOf(sorted),
		Q3:     sorted[(n*3)/4],
		Max:    sorted[n-1],
	}
}

// Stats computes mean, extrema, median and the population standard
// deviation (sum of squared deviations divided by n, not n-1).
func Stats(values []float64) domain.ScoreStats {
	if len(values) == 0 {
		return domain.ScoreStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sqDev float64
	for _, v := range sorted {
		sqDev += (v - mean) * (v - mean)
	}

	return domain.ScoreStats{
		Mean:   mean,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: medianOf(sorted),
		StdDev: math.Sqrt(sqDev / float64(len(sorted))),
	}
}

// FitScores extracts the present fit scores of a lead set, in input order.
func FitScores(leads []domain.Lead) []float64 {
	out := make([]float64, 0, len(leads))
	for _, lead := range leads {
		if lead.FitScore != nil {
			out = append(out, *lead.FitScore)
		}
	}
	return out
}

// medianOf expects sorted input.
func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
