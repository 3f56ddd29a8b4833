package billing

import "sort"

// Aggregate folds classified rows into case-level statistics. Counts
// partition the row set; variance statistics use the unrounded per-row
// variance percentages and are rounded to one decimal only at the end.
func Aggregate(rows []ReasonablenessRow) RateAnalysis {
	var agg RateAnalysis
	if len(rows) == 0 {
		return agg
	}

	variances := make([]float64, 0, len(rows))
	for _, row := range rows {
		agg.TotalBilled += row.BilledAmount
		agg.TotalBenchmark += row.BenchmarkRate
		agg.TotalOvercharge += row.OverchargeAmount
		variances = append(variances, row.VariancePct)

		switch row.Assessment {
		case AssessmentReasonable:
			agg.ReasonableCount++
		case AssessmentHigh:
			agg.HighCount++
		case AssessmentExcessive:
			agg.ExcessiveCount++
		}
	}

	if agg.TotalBenchmark > 0 {
		agg.OverallVariancePct = (agg.TotalBilled - agg.TotalBenchmark) / agg.TotalBenchmark * 100
	}

	var sum float64
	for _, v := range variances {
		sum += v
	}
	agg.AverageVariance = sum / float64(len(variances))
	agg.MedianVariance = median(variances)

	agg.TotalBilled = roundCents(agg.TotalBilled)
	agg.TotalBenchmark = roundCents(agg.TotalBenchmark)
	agg.TotalOvercharge = roundCents(agg.TotalOvercharge)
	agg.OverallVariancePct = roundTenth(agg.OverallVariancePct)
	agg.AverageVariance = roundTenth(agg.AverageVariance)
	agg.MedianVariance = roundTenth(agg.MedianVariance)

	return agg
}

// median sorts a copy of the variances ascending; odd counts take the middle
// value, even counts the mean of the two middle values.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
