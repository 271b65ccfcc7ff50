// Package fuzzy implements the Mamdani inference engine that turns a soil,
// air humidity and temperature reading into a pump run time.
package fuzzy

import (
	"fmt"
	"math"
)

// Domain is a bounded numeric range sampled at a fixed step.
type Domain struct {
	Name string
	Min  float64
	Max  float64
	Step float64
}

// Contains reports whether v lies inside the domain bounds.
func (d Domain) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= d.Min && v <= d.Max
}

// Len returns the number of sample points in the domain.
func (d Domain) Len() int {
	return int(math.Floor((d.Max-d.Min)/d.Step)) + 1
}

// At returns the i-th sample point.
func (d Domain) At(i int) float64 {
	return d.Min + float64(i)*d.Step
}

// Region is a named triangular fuzzy set (a, b, c) with a <= b <= c.
type Region struct {
	Name    string
	A, B, C float64
}

func newRegion(name string, a, b, c float64) Region {
	if a > b || b > c {
		panic(fmt.Sprintf("fuzzy: region %s vertices out of order (%g, %g, %g)", name, a, b, c))
	}
	return Region{Name: name, A: a, B: b, C: c}
}

// Degree returns the membership of x in the region.
func (r Region) Degree(x float64) float64 {
	switch {
	case x == r.B:
		return 1
	case x <= r.A || x >= r.C:
		return 0
	case x < r.B:
		return (x - r.A) / (r.B - r.A)
	default:
		return (r.C - x) / (r.C - r.B)
	}
}

// Variable is a linguistic variable: a domain and its named regions.
type Variable struct {
	Domain  Domain
	Regions []Region
}

// Region looks up a region by name.
func (v *Variable) Region(name string) (Region, bool) {
	for _, r := range v.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Fuzzify returns the degree of x in every region, keyed by region name.
func (v *Variable) Fuzzify(x float64) map[string]float64 {
	degrees := make(map[string]float64, len(v.Regions))
	for _, r := range v.Regions {
		degrees[r.Name] = r.Degree(x)
	}
	return degrees
}

// Gaps returns the sample points where no region has nonzero membership.
func (v *Variable) Gaps() []float64 {
	var gaps []float64
	for i := 0; i < v.Domain.Len(); i++ {
		x := v.Domain.At(i)
		covered := false
		for _, r := range v.Regions {
			if r.Degree(x) > 0 {
				covered = true
				break
			}
		}
		if !covered {
			gaps = append(gaps, x)
		}
	}
	return gaps
}
