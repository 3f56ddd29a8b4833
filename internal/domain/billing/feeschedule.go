package billing

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// DefaultBenchmarkRate is returned for codes that are neither in the exact
// table nor parseable into a known numeric band.
const DefaultBenchmarkRate = 100

// FeeSchedule resolves a procedure code to a Medicare-equivalent benchmark
// rate. Resolution is total: every input maps to a positive rate.
type FeeSchedule struct {
	exact map[string]float64
}

// codeBand is a half-open numeric range of procedure codes sharing one
// benchmark estimate. Sub-bands must precede the wide band that contains
// them; the first match wins.
type codeBand struct {
	lo, hi int
	rate   float64
}

// Banded estimates for codes with no exact entry. Sub-bands (organ system,
// imaging modality, medicine subsection) come before their section-wide
// fallbacks.
var codeBands = []codeBand{
	// Surgery sub-bands by organ system
	{10000, 19999, 350}, // integumentary
	{20000, 29999, 650}, // musculoskeletal
	{30000, 32999, 800}, // respiratory
	{40000, 49999, 750}, // digestive
	{50000, 53999, 700}, // urinary
	{60000, 60999, 900}, // endocrine
	{10000, 69999, 500}, // surgery-wide
	// Radiology sub-bands by modality
	{70450, 70499, 400}, // CT head/neck
	{71000, 71999, 150}, // chest imaging
	{72000, 72999, 250}, // spine imaging
	{73000, 73999, 180}, // extremity imaging
	{70000, 79999, 200}, // radiology-wide
	// Pathology and laboratory
	{80000, 89999, 60},
	// Medicine sub-bands
	{90281, 90399, 120}, // immune globulins
	{90460, 90474, 30},  // immunization administration
	{90476, 90749, 85},  // vaccines
	{97000, 97999, 80},  // physical therapy
	{90000, 99199, 110}, // medicine-wide
	// Evaluation & management
	{99201, 99499, 125},
}

// defaultExactRates covers common office-visit and emergency codes. Office
// visits 99211-99215 and ER levels 99281-99285 are the codes that show up in
// nearly every personal-injury bill set.
var defaultExactRates = map[string]float64{
	"99211": 45,
	"99212": 75,
	"99213": 90,
	"99214": 130,
	"99215": 175,
	"99281": 75,
	"99282": 140,
	"99283": 220,
	"99284": 340,
	"99285": 500,
}

// NewFeeSchedule returns a schedule backed by the built-in exact table.
func NewFeeSchedule() *FeeSchedule {
	exact := make(map[string]float64, len(defaultExactRates))
	for code, rate := range defaultExactRates {
		exact[code] = rate
	}
	return &FeeSchedule{exact: exact}
}

// LoadFeeSchedule reads a JSON object of code -> rate overrides and merges it
// over the built-in table. Non-positive override rates are rejected.
func LoadFeeSchedule(path string) (*FeeSchedule, error) {
	fs := NewFeeSchedule()
	if path == "" {
		return fs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fee schedule %s: %w", path, err)
	}

	var overrides map[string]float64
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse fee schedule %s: %w", path, err)
	}
	for code, rate := range overrides {
		if rate <= 0 {
			return nil, fmt.Errorf("fee schedule %s: rate for %q must be positive, got %v", path, code, rate)
		}
		fs.exact[code] = rate
	}
	return fs, nil
}

// Rate returns the benchmark rate for a procedure code. Exact entries win;
// otherwise the code is parsed as an integer and matched against the band
// hierarchy; unparseable or out-of-band codes get the fixed default.
func (fs *FeeSchedule) Rate(code string) float64 {
	if rate, ok := fs.exact[code]; ok {
		return rate
	}

	n, err := strconv.Atoi(code)
	if err != nil {
		return DefaultBenchmarkRate
	}
	for _, band := range codeBands {
		if n >= band.lo && n <= band.hi {
			return band.rate
		}
	}
	return DefaultBenchmarkRate
}
