package billing

import (
	"math"
	"testing"
)

func rowsWithVariances(variances []float64) []ReasonablenessRow {
	rows := make([]ReasonablenessRow, len(variances))
	for i, v := range variances {
		rows[i] = ReasonablenessRow{
			BilledAmount:  100 + v,
			BenchmarkRate: 100,
			VariancePct:   v,
			Assessment:    AssessmentReasonable,
		}
	}
	return rows
}

func TestAggregate_MedianEvenCount(t *testing.T) {
	// Deliberately unsorted input; the aggregator sorts before taking the median.
	variances := []float64{300, -10, 160, 0, 5, 110, 10, 25, 15, 20}
	agg := Aggregate(rowsWithVariances(variances))

	if agg.MedianVariance != 17.5 {
		t.Errorf("MedianVariance = %v, want 17.5", agg.MedianVariance)
	}
}

func TestAggregate_MedianOddCount(t *testing.T) {
	agg := Aggregate(rowsWithVariances([]float64{50, -10, 20}))
	if agg.MedianVariance != 20 {
		t.Errorf("MedianVariance = %v, want 20", agg.MedianVariance)
	}
}

func TestAggregate_CountsPartition(t *testing.T) {
	rows := []ReasonablenessRow{
		{Assessment: AssessmentReasonable, BilledAmount: 50, BenchmarkRate: 100},
		{Assessment: AssessmentReasonable, BilledAmount: 100, BenchmarkRate: 100},
		{Assessment: AssessmentHigh, BilledAmount: 250, BenchmarkRate: 100},
		{Assessment: AssessmentExcessive, BilledAmount: 900, BenchmarkRate: 100},
	}
	agg := Aggregate(rows)

	if agg.ReasonableCount != 2 || agg.HighCount != 1 || agg.ExcessiveCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1",
			agg.ReasonableCount, agg.HighCount, agg.ExcessiveCount)
	}
	if agg.ReasonableCount+agg.HighCount+agg.ExcessiveCount != len(rows) {
		t.Error("bucket counts must partition the row set")
	}
}

func TestAggregate_Totals(t *testing.T) {
	rows := []ReasonablenessRow{
		{BilledAmount: 300, BenchmarkRate: 100, VariancePct: 200, Assessment: AssessmentExcessive, OverchargeAmount: 100},
		{BilledAmount: 100, BenchmarkRate: 100, VariancePct: 0, Assessment: AssessmentReasonable},
	}
	agg := Aggregate(rows)

	if agg.TotalBilled != 400 {
		t.Errorf("TotalBilled = %v, want 400", agg.TotalBilled)
	}
	if agg.TotalBenchmark != 200 {
		t.Errorf("TotalBenchmark = %v, want 200", agg.TotalBenchmark)
	}
	if agg.OverallVariancePct != 100 {
		t.Errorf("OverallVariancePct = %v, want 100", agg.OverallVariancePct)
	}
	if agg.AverageVariance != 100 {
		t.Errorf("AverageVariance = %v, want 100", agg.AverageVariance)
	}
	if agg.TotalOvercharge != 100 {
		t.Errorf("TotalOvercharge = %v, want 100", agg.TotalOvercharge)
	}
}

func TestAggregate_VariancesRoundedForReporting(t *testing.T) {
	// $500 against a $90 benchmark has a repeating-decimal variance
	// (455.555...%); the report carries one decimal place.
	variance := (500.0 - 90.0) / 90.0 * 100
	agg := Aggregate([]ReasonablenessRow{{
		BilledAmount:  500,
		BenchmarkRate: 90,
		VariancePct:   variance,
		Assessment:    AssessmentExcessive,
	}})

	if agg.OverallVariancePct != 455.6 {
		t.Errorf("OverallVariancePct = %v, want 455.6", agg.OverallVariancePct)
	}
	if agg.AverageVariance != 455.6 {
		t.Errorf("AverageVariance = %v, want 455.6", agg.AverageVariance)
	}
	if agg.MedianVariance != 455.6 {
		t.Errorf("MedianVariance = %v, want 455.6", agg.MedianVariance)
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	if agg.TotalBilled != 0 || agg.MedianVariance != 0 || agg.AverageVariance != 0 {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{[]float64{}, 0},
		{[]float64{7}, 7},
		{[]float64{1, 3}, 2},
		{[]float64{3, 1, 2}, 2},
		{[]float64{-10, 0, 5, 10, 15, 20, 25, 110, 160, 300}, 17.5},
	}
	for _, tt := range tests {
		if got := median(tt.values); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []float64{5, 1, 3}
	median(values)
	if values[0] != 5 || values[1] != 1 || values[2] != 3 {
		t.Errorf("median mutated its input: %v", values)
	}
}
