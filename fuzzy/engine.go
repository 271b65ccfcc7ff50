package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when an input is outside its domain or no rule
// fires, leaving the centroid undefined.
var ErrInvalidInput = errors.New("invalid input range")

// Engine evaluates the rule base. Its configuration is fixed at construction
// and it holds no per-call state, so one Engine may serve concurrent callers.
type Engine struct {
	inputs map[string]*Variable
	order  []string
	output *Variable
	rules  []Rule
}

// NewEngine returns an engine loaded with the irrigation variables and rules.
func NewEngine() *Engine {
	e, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// New builds an engine for the irrigation variables with a custom rule base.
func New(rules []Rule) (*Engine, error) {
	soil, air, temp := SoilMoisture(), AirHumidity(), Temperature()
	e := &Engine{
		inputs: map[string]*Variable{Soil: soil, Air: air, Temp: temp},
		order:  []string{Soil, Air, Temp},
		output: WateringTime(),
		rules:  append([]Rule(nil), rules...),
	}
	if err := validateRules(e.rules, e.inputs, e.output); err != nil {
		return nil, err
	}
	for _, name := range e.order {
		if gaps := e.inputs[name].Gaps(); len(gaps) > 0 {
			return nil, fmt.Errorf("fuzzy: %s has no region covering %v", name, gaps)
		}
	}
	return e, nil
}

// Rules returns a copy of the engine's rule base.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Variable returns the input or output variable with the given name.
func (e *Engine) Variable(name string) (*Variable, bool) {
	if name == e.output.Domain.Name {
		return e.output, true
	}
	v, ok := e.inputs[name]
	return v, ok
}

// evalContext is the state of a single evaluation. It is created per call
// and never escapes it.
type evalContext struct {
	values  map[string]float64
	degrees map[string]map[string]float64
}

func (c *evalContext) degree(sel Selector) float64 {
	return c.degrees[sel.Variable][sel.Region]
}

// RuleStrength is the firing strength of one rule in an evaluation.
type RuleStrength struct {
	Rule     string  `json:"rule"`
	Then     string  `json:"then"`
	Strength float64 `json:"strength"`
}

// Evaluation is the full trace of one inference run.
type Evaluation struct {
	SoilMoisture float64        `json:"soil_moisture"`
	AirHumidity  float64        `json:"air_humidity"`
	Temperature  float64        `json:"temperature"`
	Rules        []RuleStrength `json:"rules"`
	Centroid     float64        `json:"centroid"`
	Decision     Decision       `json:"decision"`
}

// CalculateWatering returns the watering decision for one reading.
func (e *Engine) CalculateWatering(soil, air, temp float64) (Decision, error) {
	ev, err := e.Evaluate(soil, air, temp)
	if err != nil {
		return Decision{}, err
	}
	return ev.Decision, nil
}

// Evaluate runs fuzzification, rule firing, clipping, max aggregation and
// centroid defuzzification, and returns every intermediate result.
func (e *Engine) Evaluate(soil, air, temp float64) (Evaluation, error) {
	ctx := &evalContext{
		values:  map[string]float64{Soil: soil, Air: air, Temp: temp},
		degrees: make(map[string]map[string]float64, len(e.inputs)),
	}
	for _, name := range e.order {
		v := e.inputs[name]
		x := ctx.values[name]
		if !v.Domain.Contains(x) {
			return Evaluation{}, fmt.Errorf("%w: %s %g outside [%g, %g]",
				ErrInvalidInput, name, x, v.Domain.Min, v.Domain.Max)
		}
		ctx.degrees[name] = v.Fuzzify(x)
	}

	ev := Evaluation{
		SoilMoisture: soil,
		AirHumidity:  air,
		Temperature:  temp,
		Rules:        make([]RuleStrength, len(e.rules)),
	}

	// Clipping a region at s1 and at s2 and taking the max is the same as
	// clipping once at max(s1, s2), so collapse rules by consequent.
	clip := make(map[string]float64)
	for i, r := range e.rules {
		s := r.strength(ctx)
		ev.Rules[i] = RuleStrength{Rule: r.String(), Then: r.Then, Strength: s}
		if s > 0 {
			clip[r.Then] = max(clip[r.Then], s)
		}
	}
	if len(clip) == 0 {
		return Evaluation{}, fmt.Errorf("%w: no rule fired for soil=%g air=%g temp=%g",
			ErrInvalidInput, soil, air, temp)
	}

	centroid, ok := e.centroid(clip)
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: empty output set", ErrInvalidInput)
	}
	ev.Centroid = centroid
	// Ties go to the even millisecond.
	ev.Decision = Format(int(math.RoundToEven(centroid)))
	return ev, nil
}

// centroid aggregates the clipped consequents over the sampled output domain
// and returns sum(x*mu)/sum(mu).
func (e *Engine) centroid(clip map[string]float64) (float64, bool) {
	type clipped struct {
		region Region
		level  float64
	}
	sets := make([]clipped, 0, len(clip))
	for _, r := range e.output.Regions {
		if level, ok := clip[r.Name]; ok {
			sets = append(sets, clipped{region: r, level: level})
		}
	}

	d := e.output.Domain
	var num, den float64
	for i := 0; i < d.Len(); i++ {
		x := d.At(i)
		mu := 0.0
		for _, s := range sets {
			mu = max(mu, min(s.region.Degree(x), s.level))
		}
		num += x * mu
		den += mu
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
