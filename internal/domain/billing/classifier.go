package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// CommercialRateMultiplier converts a Medicare benchmark into the presumed
// fair commercial rate. Commercial insurers typically reimburse 1.5-3x
// Medicare; 2.0 is the fixed midpoint policy constant.
const CommercialRateMultiplier = 2.0

// ExcessiveThresholdMultiplier sets the overcharge line at 50% above the
// commercial-equivalent rate.
const ExcessiveThresholdMultiplier = 1.5

// Classifier scores each billed line item against the fee schedule.
type Classifier struct {
	schedule *FeeSchedule
}

func NewClassifier(schedule *FeeSchedule) *Classifier {
	return &Classifier{schedule: schedule}
}

// Classify produces a reasonableness row for one line item. Items without a
// service code are skipped (ok=false); they stay in billed totals but carry
// no rate opinion.
func (cl *Classifier) Classify(item *BillLineItem) (ReasonablenessRow, bool) {
	if item.ServiceCode == "" {
		return ReasonablenessRow{}, false
	}

	benchmark := cl.schedule.Rate(item.ServiceCode)
	reasonable := benchmark * CommercialRateMultiplier
	threshold := reasonable * ExcessiveThresholdMultiplier
	billed := item.BilledAmount

	row := ReasonablenessRow{
		ItemID:         item.ID,
		ServiceCode:    item.ServiceCode,
		ProviderName:   item.ProviderName,
		BilledAmount:   billed,
		BenchmarkRate:  benchmark,
		ReasonableRate: reasonable,
		VariancePct:    (billed - benchmark) / benchmark * 100,
	}

	switch {
	case billed <= reasonable:
		row.Assessment = AssessmentReasonable
	case billed <= threshold:
		row.Assessment = AssessmentHigh
	default:
		row.Assessment = AssessmentExcessive
	}

	if billed > reasonable {
		row.OverchargeAmount = roundCents(billed - reasonable)
		row.OverchargePercentage = int(math.Round((billed - reasonable) / reasonable * 100))
	}

	return row, true
}

// roundCents rounds a currency amount to 2 decimal places.
func roundCents(amount float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return v
}

// roundTenth rounds a percentage to one decimal place for reporting.
func roundTenth(pct float64) float64 {
	v, _ := decimal.NewFromFloat(pct).Round(1).Float64()
	return v
}
