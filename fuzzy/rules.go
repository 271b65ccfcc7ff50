package fuzzy

import (
	"fmt"
	"strings"
)

// Selector picks one region of one input variable.
type Selector struct {
	Variable string
	Region   string
}

func (s Selector) String() string {
	return s.Variable + "=" + s.Region
}

// Rule is "IF every selector holds THEN Then". Selectors are ANDed with min.
type Rule struct {
	If   []Selector
	Then string
}

// strength is the min of the selector degrees in ctx.
func (r Rule) strength(ctx *evalContext) float64 {
	strength := 1.0
	for _, sel := range r.If {
		strength = min(strength, ctx.degree(sel))
	}
	return strength
}

func (r Rule) String() string {
	parts := make([]string, len(r.If))
	for i, sel := range r.If {
		parts[i] = sel.String()
	}
	return strings.Join(parts, " AND ") + " -> " + r.Then
}

// DefaultRules returns the irrigation rule base in audit order.
func DefaultRules() []Rule {
	return []Rule{
		{If: []Selector{{Soil, "wet"}}, Then: "no_water"},
		{If: []Selector{{Soil, "very_dry"}}, Then: "long"},
		{If: []Selector{{Soil, "dry"}, {Temp, "hot"}}, Then: "long"},
		{If: []Selector{{Soil, "dry"}, {Air, "high"}}, Then: "medium"},
		{If: []Selector{{Soil, "moist"}, {Temp, "warm"}}, Then: "short"},
		{If: []Selector{{Temp, "cool"}}, Then: "very_short"},
		{If: []Selector{{Air, "low"}, {Temp, "hot"}}, Then: "medium"},
		{If: []Selector{{Air, "high"}, {Temp, "warm"}}, Then: "short"},
	}
}

// validateRules checks every selector and consequent against the variables
// and that no rule names the same input variable twice.
func validateRules(rules []Rule, inputs map[string]*Variable, output *Variable) error {
	if len(rules) == 0 {
		return fmt.Errorf("fuzzy: empty rule base")
	}
	for i, r := range rules {
		if len(r.If) == 0 {
			return fmt.Errorf("fuzzy: rule %d has no antecedent", i+1)
		}
		seen := make(map[string]bool, len(r.If))
		for _, sel := range r.If {
			v, ok := inputs[sel.Variable]
			if !ok {
				return fmt.Errorf("fuzzy: rule %d: unknown variable %q", i+1, sel.Variable)
			}
			if _, ok := v.Region(sel.Region); !ok {
				return fmt.Errorf("fuzzy: rule %d: unknown region %q of %s", i+1, sel.Region, sel.Variable)
			}
			if seen[sel.Variable] {
				return fmt.Errorf("fuzzy: rule %d: variable %s used twice", i+1, sel.Variable)
			}
			seen[sel.Variable] = true
		}
		if _, ok := output.Region(r.Then); !ok {
			return fmt.Errorf("fuzzy: rule %d: unknown output region %q", i+1, r.Then)
		}
	}
	return nil
}
