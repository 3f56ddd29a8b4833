package billing

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Near-duplicate tolerances: billed amounts within 10% relative difference
// and service dates within 7 days.
const (
	nearAmountTolerance = 0.10
	nearDayWindow       = 7
)

// Similarity scores for the non-scaled match types.
const (
	exactSimilarity      = 1.0
	unbundlingSimilarity = 0.9
	upcodingSimilarity   = 0.75
)

// Detector finds duplicate, near-duplicate, unbundled, and upcoded charges
// in a line-item set. Detection is pure and deterministic: the same items in
// the same ingestion order always yield the same matches.
type Detector struct {
	schedule *FeeSchedule
	rules    *RuleSet
}

func NewDetector(schedule *FeeSchedule, rules *RuleSet) *Detector {
	return &Detector{schedule: schedule, rules: rules}
}

// candidate is one potential pairing for a flagged item.
type candidate struct {
	canonicalPos int
	matchType    string
	similarity   float64
	overcharge   float64
	rule         UnbundlingRule
}

// Detect scans every unordered pair of items from the same provider and
// reports typed matches. The earliest occurrence in a matching cluster (by
// service date, then ingestion order) is canonical and never flagged; every
// other item is flagged at most once, paired with its highest-similarity
// canonical candidate (ties broken by earliest canonical).
func (d *Detector) Detect(items []*BillLineItem) []DuplicateMatch {
	if len(items) < 2 {
		return nil
	}

	// Canonical order: service date ascending, ingestion order on ties.
	// Items without a service date sort by ingestion order alone at the front;
	// they are ineligible for every date-dependent rule anyway.
	ordered := make([]*BillLineItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := dateOrZero(ordered[i]), dateOrZero(ordered[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	// Bucket by normalized provider: every rule requires a shared provider,
	// and bucketing keeps the pairwise scan from blowing up on large cases.
	buckets := make(map[string][]int)
	var bucketOrder []string
	for pos, item := range ordered {
		key := normalizeProvider(item.ProviderName)
		if _, seen := buckets[key]; !seen {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], pos)
	}

	best := make(map[int]candidate) // flagged position -> chosen pairing
	var flaggedOrder []int

	for _, key := range bucketOrder {
		positions := buckets[key]
		for x := 0; x < len(positions); x++ {
			for y := x + 1; y < len(positions); y++ {
				canonical, flagged := ordered[positions[x]], ordered[positions[y]]
				cand, ok := d.matchPair(canonical, flagged)
				if !ok {
					continue
				}
				cand.canonicalPos = positions[x]

				prev, seen := best[positions[y]]
				if !seen {
					best[positions[y]] = cand
					flaggedOrder = append(flaggedOrder, positions[y])
					continue
				}
				if cand.similarity > prev.similarity {
					best[positions[y]] = cand
				}
				// Equal similarity keeps the earlier canonical, which the
				// ascending x scan already guarantees.
			}
		}
	}

	sort.Ints(flaggedOrder)

	// Unbundling overcharge is a cluster quantity: the sum of all separately
	// billed components minus the bundled code's benchmark. It is attached to
	// the cluster's first match; later matches in the same cluster carry 0.
	clusterTotals := d.unbundlingClusterTotals(ordered, best, flaggedOrder)
	clusterCharged := make(map[string]bool)

	matches := make([]DuplicateMatch, 0, len(flaggedOrder))
	for _, pos := range flaggedOrder {
		cand := best[pos]
		match := DuplicateMatch{
			CanonicalItemID: ordered[cand.canonicalPos].ID,
			FlaggedItemID:   ordered[pos].ID,
			MatchType:       cand.matchType,
			Similarity:      cand.similarity,
		}
		if cand.matchType == MatchUnbundling {
			key := clusterKey(ordered[pos], cand.rule)
			if !clusterCharged[key] {
				clusterCharged[key] = true
				match.PotentialOvercharge = clusterTotals[key]
			}
		} else {
			match.PotentialOvercharge = cand.overcharge
		}
		matches = append(matches, match)
	}
	return matches
}

// matchPair applies the rules most-specific first: exact, near, unbundling,
// upcoding. Items missing a field a rule needs are ineligible for that rule,
// never an error.
func (d *Detector) matchPair(canonical, flagged *BillLineItem) (candidate, bool) {
	if cand, ok := d.matchExact(canonical, flagged); ok {
		return cand, true
	}
	if cand, ok := d.matchNear(canonical, flagged); ok {
		return cand, true
	}
	if cand, ok := d.matchUnbundling(canonical, flagged); ok {
		return cand, true
	}
	if cand, ok := d.matchUpcoding(canonical, flagged); ok {
		return cand, true
	}
	return candidate{}, false
}

func (d *Detector) matchExact(a, b *BillLineItem) (candidate, bool) {
	if a.ServiceDate == nil || b.ServiceDate == nil {
		return candidate{}, false
	}
	if !sameDay(*a.ServiceDate, *b.ServiceDate) {
		return candidate{}, false
	}
	if a.BilledAmount != b.BilledAmount {
		return candidate{}, false
	}
	sameService := a.ServiceCode != "" && a.ServiceCode == b.ServiceCode
	if !sameService {
		sameService = a.Description != "" &&
			strings.EqualFold(strings.TrimSpace(a.Description), strings.TrimSpace(b.Description))
	}
	if !sameService {
		return candidate{}, false
	}
	return candidate{
		matchType:  MatchExact,
		similarity: exactSimilarity,
		overcharge: roundCents(b.BilledAmount),
	}, true
}

func (d *Detector) matchNear(a, b *BillLineItem) (candidate, bool) {
	if a.ServiceCode == "" || a.ServiceCode != b.ServiceCode {
		return candidate{}, false
	}
	if a.ServiceDate == nil || b.ServiceDate == nil {
		return candidate{}, false
	}

	larger := math.Max(a.BilledAmount, b.BilledAmount)
	if larger <= 0 {
		return candidate{}, false
	}
	relDiff := math.Abs(a.BilledAmount-b.BilledAmount) / larger
	if relDiff > nearAmountTolerance {
		return candidate{}, false
	}

	dayDiff := math.Abs(b.ServiceDate.Sub(*a.ServiceDate).Hours()) / 24
	if dayDiff > nearDayWindow {
		return candidate{}, false
	}

	// Scale similarity by closeness of amount and date, half weight each.
	similarity := 1 - 0.5*(relDiff/nearAmountTolerance) - 0.5*(dayDiff/nearDayWindow)
	if similarity < 0 {
		similarity = 0
	}
	return candidate{
		matchType:  MatchNear,
		similarity: similarity,
		overcharge: roundCents(b.BilledAmount),
	}, true
}

func (d *Detector) matchUnbundling(a, b *BillLineItem) (candidate, bool) {
	if a.ServiceCode == "" || b.ServiceCode == "" || a.ServiceCode == b.ServiceCode {
		return candidate{}, false
	}
	if a.ServiceDate == nil || b.ServiceDate == nil || !sameDay(*a.ServiceDate, *b.ServiceDate) {
		return candidate{}, false
	}
	rule, ok := d.rules.unbundlingRuleFor(a.ServiceCode, b.ServiceCode)
	if !ok {
		return candidate{}, false
	}
	return candidate{
		matchType:  MatchUnbundling,
		similarity: unbundlingSimilarity,
		rule:       rule,
	}, true
}

func (d *Detector) matchUpcoding(canonical, flagged *BillLineItem) (candidate, bool) {
	if flagged.ServiceCode == "" {
		return candidate{}, false
	}
	if canonical.ServiceDate == nil || flagged.ServiceDate == nil ||
		!sameDay(*canonical.ServiceDate, *flagged.ServiceDate) {
		return candidate{}, false
	}

	rule, ok := d.rules.expectedCodeFor(canonical)
	if !ok {
		return candidate{}, false
	}
	if rule.FamilyPrefix != "" && !strings.HasPrefix(flagged.ServiceCode, rule.FamilyPrefix) {
		return candidate{}, false
	}
	if flagged.ServiceCode == rule.ExpectedCode {
		return candidate{}, false
	}

	billedRate := d.schedule.Rate(flagged.ServiceCode)
	expectedRate := d.schedule.Rate(rule.ExpectedCode)
	if billedRate <= expectedRate {
		return candidate{}, false
	}
	return candidate{
		matchType:  MatchUpcoding,
		similarity: upcodingSimilarity,
		overcharge: roundCents(billedRate - expectedRate),
	}, true
}

// unbundlingClusterTotals sums the billed amounts of every item that took
// part in each unbundling cluster (canonical included) and subtracts the
// bundled code's benchmark.
func (d *Detector) unbundlingClusterTotals(ordered []*BillLineItem, best map[int]candidate, flaggedOrder []int) map[string]float64 {
	members := make(map[string]map[int]bool)
	for _, pos := range flaggedOrder {
		cand := best[pos]
		if cand.matchType != MatchUnbundling {
			continue
		}
		key := clusterKey(ordered[pos], cand.rule)
		if members[key] == nil {
			members[key] = make(map[int]bool)
		}
		members[key][pos] = true
		members[key][cand.canonicalPos] = true
	}

	totals := make(map[string]float64, len(members))
	for key, positions := range members {
		var sum float64
		for pos := range positions {
			sum += ordered[pos].BilledAmount
		}
		rule := bundledCodeFromKey(key)
		totals[key] = roundCents(sum - d.schedule.Rate(rule))
	}
	return totals
}

func clusterKey(item *BillLineItem, rule UnbundlingRule) string {
	day := ""
	if item.ServiceDate != nil {
		day = item.ServiceDate.Format("2006-01-02")
	}
	return normalizeProvider(item.ProviderName) + "|" + day + "|" + rule.BundledCode
}

func bundledCodeFromKey(key string) string {
	idx := strings.LastIndex(key, "|")
	return key[idx+1:]
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func dateOrZero(item *BillLineItem) time.Time {
	if item.ServiceDate == nil {
		return time.Time{}
	}
	return *item.ServiceDate
}
