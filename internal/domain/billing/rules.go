package billing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed billing_rules.json
var defaultRulesJSON []byte

// UnbundlingRule names a comprehensive code and the component codes that
// conventionally bill under it. Components billed separately on the same
// date by the same provider indicate unbundling.
type UnbundlingRule struct {
	BundledCode    string   `json:"bundled_code"`
	ComponentCodes []string `json:"component_codes"`
	Description    string   `json:"description"`
}

// UpcodingRule maps documented encounter-type keywords to the procedure code
// that encounter justifies. Codes in the same family billed above the
// expected code's benchmark indicate upcoding.
type UpcodingRule struct {
	Keywords     []string `json:"keywords"`
	ExpectedCode string   `json:"expected_code"`
	FamilyPrefix string   `json:"family_prefix"`
}

// RuleSet is the versioned reference data behind unbundling and upcoding
// detection. It is reviewable configuration, not code.
type RuleSet struct {
	Unbundling []UnbundlingRule `json:"unbundling"`
	Upcoding   []UpcodingRule   `json:"upcoding"`
}

// DefaultRules returns the built-in rule tables.
func DefaultRules() (*RuleSet, error) {
	return parseRules(defaultRulesJSON)
}

// LoadRules reads a rule file, falling back to the embedded defaults when no
// path is given.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read billing rules %s: %w", path, err)
	}
	rs, err := parseRules(data)
	if err != nil {
		return nil, fmt.Errorf("parse billing rules %s: %w", path, err)
	}
	return rs, nil
}

func parseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	for i, rule := range rs.Unbundling {
		if rule.BundledCode == "" || len(rule.ComponentCodes) < 2 {
			return nil, fmt.Errorf("unbundling rule %d: needs a bundled code and at least 2 components", i)
		}
	}
	for i, rule := range rs.Upcoding {
		if rule.ExpectedCode == "" || len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("upcoding rule %d: needs an expected code and keywords", i)
		}
	}
	return &rs, nil
}

// expectedCodeFor returns the procedure code an item's documented encounter
// justifies, or "" when no rule matches. The encounter type field is checked
// first, then description keywords.
func (rs *RuleSet) expectedCodeFor(item *BillLineItem) (UpcodingRule, bool) {
	signal := strings.ToLower(item.EncounterType)
	if signal == "" {
		signal = strings.ToLower(item.Description)
	}
	if signal == "" {
		return UpcodingRule{}, false
	}
	for _, rule := range rs.Upcoding {
		for _, kw := range rule.Keywords {
			if strings.Contains(signal, strings.ToLower(kw)) {
				return rule, true
			}
		}
	}
	return UpcodingRule{}, false
}

// unbundlingRuleFor returns the rule listing both codes as components of the
// same comprehensive code.
func (rs *RuleSet) unbundlingRuleFor(codeA, codeB string) (UnbundlingRule, bool) {
	for _, rule := range rs.Unbundling {
		foundA, foundB := false, false
		for _, comp := range rule.ComponentCodes {
			if comp == codeA {
				foundA = true
			}
			if comp == codeB {
				foundB = true
			}
		}
		if foundA && foundB {
			return rule, true
		}
	}
	return UnbundlingRule{}, false
}
