package rules

import (
	"encoding/json"
	"strconv"
	"time"

	"auditor/internal/core/invoice"
	perr "auditor/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// SeverityCounts tallies failed checks by severity
type SeverityCounts struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

func (c *SeverityCounts) bump(s Severity) {
	switch s {
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	}
}

// Merge adds o's tallies into c
func (c *SeverityCounts) Merge(o SeverityCounts) {
	c.High += o.High
	c.Medium += o.Medium
	c.Low += o.Low
}

// SetResult is the outcome of running one rule set against one
// invoice. Results preserve rule evaluation order
type SetResult struct {
	InvoiceID      string         `json:"invoice_id"`
	RuleSetName    string         `json:"ruleset_name"`
	TotalRules     int            `json:"total_rules"`
	PassedRules    int            `json:"passed_rules"`
	FailedRules    int            `json:"failed_rules"`
	SeverityCounts SeverityCounts `json:"severity_counts"`
	Results        []Result       `json:"results"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Set is an ordered, named collection of rules
type Set struct {
	Name        string
	Description string
	rules       []Rule
}

func NewSet(name, description string, rs ...Rule) *Set {
	return &Set{Name: name, Description: description, rules: append([]Rule(nil), rs...)}
}

// Add appends a rule. Order of addition is order of evaluation
func (s *Set) Add(r Rule) { s.rules = append(s.rules, r) }

// Remove drops every rule with the given id
func (s *Set) Remove(ruleID string) {
	kept := s.rules[:0]
	for _, r := range s.rules {
		if r.ID() != ruleID {
			kept = append(kept, r)
		}
	}
	s.rules = kept
}

// Rules returns the rules in evaluation order
func (s *Set) Rules() []Rule { return append([]Rule(nil), s.rules...) }

// Audit runs every rule in order. Evaluation never short-circuits:
// a failed rule does not stop the rest of the set
func (s *Set) Audit(inv invoice.Invoice, rctx Context) SetResult {
	out := SetResult{
		InvoiceID:   inv.ID,
		RuleSetName: s.Name,
		TotalRules:  len(s.rules),
		Results:     make([]Result, 0, len(s.rules)),
		Timestamp:   now().UTC(),
	}
	for _, r := range s.rules {
		res := r.Check(inv, rctx)
		out.Results = append(out.Results, res)
		if res.Passed {
			out.PassedRules++
		} else {
			out.FailedRules++
			out.SeverityCounts.bump(res.Severity)
		}
	}
	return out
}

// SetSpec is the declarative form of a rule set
type SetSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Spec `json:"rules" yaml:"rules"`
}

// Spec returns the declarative form of the set
func (s *Set) Spec() SetSpec {
	out := SetSpec{Name: s.Name, Description: s.Description, Rules: make([]Spec, 0, len(s.rules))}
	for _, r := range s.rules {
		out.Rules = append(out.Rules, r.Spec())
	}
	return out
}

// SetFromSpec rebuilds a set from its declarative form. An unknown
// rule type fails the whole set with the set name and rule position
// attached
func SetFromSpec(ss SetSpec) (*Set, error) {
	if ss.Name == "" {
		return nil, perr.Schemaf("rule set has no name")
	}
	set := NewSet(ss.Name, ss.Description)
	for i, rs := range ss.Rules {
		r, err := FromSpec(rs)
		if err != nil {
			return nil, perr.WithOp(err, "rule_set:"+ss.Name+" rule:"+strconv.Itoa(i))
		}
		set.Add(r)
	}
	return set, nil
}

// ToJSON serializes the set for storage or transport
func (s *Set) ToJSON() ([]byte, error) {
	b, err := json.MarshalIndent(s.Spec(), "", "  ")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSchema, "encode rule set")
	}
	return b, nil
}

// SetFromJSON rebuilds a set from its JSON form
func SetFromJSON(data []byte) (*Set, error) {
	var ss SetSpec
	if err := json.Unmarshal(data, &ss); err != nil {
		return nil, perr.Parsef("decode rule set: %v", err)
	}
	return SetFromSpec(ss)
}

// ToYAML serializes the set for storage or transport
func (s *Set) ToYAML() ([]byte, error) {
	b, err := yaml.Marshal(s.Spec())
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSchema, "encode rule set")
	}
	return b, nil
}

// SetFromYAML rebuilds a set from its YAML form
func SetFromYAML(data []byte) (*Set, error) {
	var ss SetSpec
	if err := yaml.Unmarshal(data, &ss); err != nil {
		return nil, perr.Parsef("decode rule set: %v", err)
	}
	return SetFromSpec(ss)
}
