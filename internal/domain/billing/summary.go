package billing

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Engine computes the full billing report for a case. It is a pure function
// of the line items and the static reference data: no I/O, no shared state,
// and identical inputs always produce identical output.
type Engine struct {
	classifier *Classifier
	detector   *Detector
}

func NewEngine(schedule *FeeSchedule, rules *RuleSet) *Engine {
	return &Engine{
		classifier: NewClassifier(schedule),
		detector:   NewDetector(schedule, rules),
	}
}

// BuildSummary analyzes a case's line items. Items with missing or invalid
// amounts are excluded from every statistic and tallied in
// SkippedItemCount. Items without a service code stay in billed totals and
// rollups but carry no rate opinion.
func (e *Engine) BuildSummary(caseID uuid.UUID, items []*BillLineItem) *BillingSummary {
	summary := &BillingSummary{
		CaseID:           caseID,
		Rows:             []ReasonablenessRow{},
		OverchargedRows:  []ReasonablenessRow{},
		DuplicateMatches: []DuplicateMatch{},
		ByProvider:       []Rollup{},
		ByServiceType:    []Rollup{},
	}
	if len(items) == 0 {
		return summary
	}

	usable := make([]*BillLineItem, 0, len(items))
	for _, item := range items {
		if item.BilledAmount <= 0 || math.IsNaN(item.BilledAmount) || math.IsInf(item.BilledAmount, 0) {
			summary.SkippedItemCount++
			continue
		}
		usable = append(usable, item)
	}

	summary.ItemCount = len(usable)

	var total float64
	for _, item := range usable {
		total += item.BilledAmount
		if item.ServiceDate != nil {
			d := *item.ServiceDate
			if summary.EarliestService == nil || d.Before(*summary.EarliestService) {
				earliest := d
				summary.EarliestService = &earliest
			}
			if summary.LatestService == nil || d.After(*summary.LatestService) {
				latest := d
				summary.LatestService = &latest
			}
		}
	}
	summary.TotalBilled = roundCents(total)

	summary.ByProvider = rollup(usable, total, func(item *BillLineItem) string {
		return displayProvider(item.ProviderName)
	})
	summary.ByServiceType = rollup(usable, total, func(item *BillLineItem) string {
		if item.ServiceType == "" {
			return "uncategorized"
		}
		return strings.ToLower(item.ServiceType)
	})

	for _, item := range usable {
		row, ok := e.classifier.Classify(item)
		if !ok {
			continue
		}
		summary.Rows = append(summary.Rows, row)
		if row.OverchargeAmount > 0 {
			summary.OverchargedRows = append(summary.OverchargedRows, row)
		}
	}
	summary.RateAnalysis = Aggregate(summary.Rows)

	summary.DuplicateMatches = e.detector.Detect(usable)
	if summary.DuplicateMatches == nil {
		summary.DuplicateMatches = []DuplicateMatch{}
	}

	return summary
}

// rollup groups usable items by key, sums billed amounts, and sorts the
// groups by total billed descending. The sort is stable so groups with equal
// totals keep first-seen order.
func rollup(items []*BillLineItem, caseTotal float64, keyFn func(*BillLineItem) string) []Rollup {
	index := make(map[string]int)
	groups := []Rollup{}

	for _, item := range items {
		key := keyFn(item)
		norm := strings.ToLower(key)
		i, ok := index[norm]
		if !ok {
			i = len(groups)
			index[norm] = i
			groups = append(groups, Rollup{Name: key})
		}
		groups[i].ItemCount++
		groups[i].TotalBilled += item.BilledAmount
	}

	for i := range groups {
		groups[i].TotalBilled = roundCents(groups[i].TotalBilled)
		if caseTotal > 0 {
			groups[i].PercentOfTotal = roundTenth(groups[i].TotalBilled / caseTotal * 100)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalBilled > groups[j].TotalBilled
	})
	return groups
}

// displayProvider collapses whitespace without losing the original casing of
// the first occurrence, so rollup names stay readable.
func displayProvider(name string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
