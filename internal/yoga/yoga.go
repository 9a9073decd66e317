// Package yoga evaluates planetary-combination rules against a chart.
//
// Rule keywords are parsed once into typed conditions; evaluation never
// looks at strings.
package yoga

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// ErrUnknownRule is returned for a condition keyword outside the vocabulary.
var ErrUnknownRule = errors.New("unknown yoga rule")

const (
	aspectOrb   = 6.0
	combustOrb  = 8.0
	opposition  = 180.0
	housesCount = 12
)

// Kind enumerates the supported rule keywords.
type Kind int

const (
	KendraFrom      Kind = iota + 1 // kendra_from_<Body>
	ConjunctionWith                 // conjunction_<Body>
	LordOfHouse                     // lord_of_house(N)
	TrikonaFrom                     // in_trikona_from(<Body>)
	AspectedBy                      // is_aspected_by(<Body>)
	Combust                         // is_combust()
)

var kindNames = map[Kind]string{
	KendraFrom:      "kendra_from",
	ConjunctionWith: "conjunction",
	LordOfHouse:     "lord_of_house",
	TrikonaFrom:     "in_trikona_from",
	AspectedBy:      "is_aspected_by",
	Combust:         "is_combust",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Special aspects beyond the universal opposition. Distances are shortest
// arcs, so 270, 240 and 300 fold onto 90, 120 and 60.
var specialAspects = map[models.Body][]float64{
	models.Mars:    {90},
	models.Jupiter: {120},
	models.Saturn:  {60},
}

// Condition is one parsed rule applied to Planet.
type Condition struct {
	Planet models.Body
	Kind   Kind
	Ref    models.Body // referenced body, when the kind takes one
	House  int         // LordOfHouse only
}

// String renders the condition back in keyword form.
func (c Condition) String() string {
	switch c.Kind {
	case KendraFrom, ConjunctionWith:
		return fmt.Sprintf("%s: %s_%s", c.Planet, c.Kind, c.Ref)
	case LordOfHouse:
		return fmt.Sprintf("%s: %s(%d)", c.Planet, c.Kind, c.House)
	case Combust:
		return fmt.Sprintf("%s: %s()", c.Planet, c.Kind)
	default:
		return fmt.Sprintf("%s: %s(%s)", c.Planet, c.Kind, c.Ref)
	}
}

// ParseRule turns a keyword into a typed condition on planet.
func ParseRule(planet models.Body, rule string) (Condition, error) {
	r := strings.TrimSpace(rule)
	c := Condition{Planet: planet}

	bodyArg := func(s string) (models.Body, error) {
		b, err := models.ParseBody(s)
		if err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrUnknownRule, rule, err)
		}
		return b, nil
	}

	switch {
	case strings.HasPrefix(r, "kendra_from_"):
		ref, err := bodyArg(strings.TrimPrefix(r, "kendra_from_"))
		if err != nil {
			return c, err
		}
		c.Kind, c.Ref = KendraFrom, ref
	case strings.HasPrefix(r, "conjunction_"):
		ref, err := bodyArg(strings.TrimPrefix(r, "conjunction_"))
		if err != nil {
			return c, err
		}
		c.Kind, c.Ref = ConjunctionWith, ref
	case r == "is_combust()" || r == "is_combust":
		c.Kind = Combust
	default:
		name, arg, ok := call(r)
		if !ok {
			return c, fmt.Errorf("%w %q", ErrUnknownRule, rule)
		}
		switch name {
		case "lord_of_house":
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 || n > housesCount {
				return c, fmt.Errorf("%w %q: house must be 1-12", ErrUnknownRule, rule)
			}
			c.Kind, c.House = LordOfHouse, n
		case "in_trikona_from", "is_aspected_by":
			ref, err := bodyArg(arg)
			if err != nil {
				return c, err
			}
			c.Ref = ref
			c.Kind = TrikonaFrom
			if name == "is_aspected_by" {
				c.Kind = AspectedBy
			}
		default:
			return c, fmt.Errorf("%w %q", ErrUnknownRule, rule)
		}
	}
	return c, nil
}

// call splits "name(arg)".
func call(s string) (name, arg string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return s[:open], strings.TrimSpace(s[open+1 : len(s)-1]), true
}

// Holds evaluates the condition. A missing planet or referenced body fails it.
func (c Condition) Holds(cusps models.HouseCusps, longitudes map[models.Body]float64) bool {
	lon, ok := longitudes[c.Planet]
	if !ok {
		return false
	}
	if c.Kind == LordOfHouse {
		return cusps.Lord(c.House) == c.Planet
	}

	ref := c.Ref
	if c.Kind == Combust {
		ref = models.Sun
	}
	refLon, ok := longitudes[ref]
	if !ok {
		return false
	}

	offset := (cusps.HouseOf(lon) - cusps.HouseOf(refLon) + housesCount) % housesCount
	switch c.Kind {
	case KendraFrom:
		return offset == 0 || offset == 3 || offset == 9
	case ConjunctionWith:
		return offset == 0
	case TrikonaFrom:
		return offset == 0 || offset == 4 || offset == 8
	case AspectedBy:
		return aspects(ref, refLon, lon)
	case Combust:
		return utils.AngularDistance(refLon, lon) <= combustOrb
	}
	return false
}

// aspects reports whether body at from casts an aspect on the longitude to.
func aspects(body models.Body, from, to float64) bool {
	d := utils.AngularDistance(from, to)
	if within(d, opposition) {
		return true
	}
	for _, angle := range specialAspects[body] {
		if within(d, angle) {
			return true
		}
	}
	return false
}

func within(d, angle float64) bool {
	return d >= angle-aspectOrb && d <= angle+aspectOrb
}

// Definition is the external rule format.
type Definition struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Conditions  map[string]string `json:"conditions" yaml:"conditions"`
}

// Yoga is a compiled definition. All conditions must hold.
type Yoga struct {
	Name        string
	Description string
	Conditions  []Condition
}

// Compile parses every definition. Conditions are ordered by planet name.
func Compile(defs []Definition) ([]Yoga, error) {
	out := make([]Yoga, 0, len(defs))
	for _, def := range defs {
		planets := make([]string, 0, len(def.Conditions))
		for p := range def.Conditions {
			planets = append(planets, p)
		}
		sort.Strings(planets)

		y := Yoga{Name: def.Name, Description: def.Description}
		for _, p := range planets {
			body, err := models.ParseBody(p)
			if err != nil {
				return nil, fmt.Errorf("yoga %q: %w", def.Name, err)
			}
			c, err := ParseRule(body, def.Conditions[p])
			if err != nil {
				return nil, fmt.Errorf("yoga %q: %w", def.Name, err)
			}
			y.Conditions = append(y.Conditions, c)
		}
		out = append(out, y)
	}
	return out, nil
}

// DefaultDefinitions are used when no rule file exists.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:        "Gajakesari Yoga",
			Description: "Moon in kendra from Jupiter.",
			Conditions:  map[string]string{"Moon": "kendra_from_Jupiter"},
		},
		{
			Name:        "Chandra-Mangal",
			Description: "Moon and Mars in the same house.",
			Conditions:  map[string]string{"Moon": "conjunction_Mars"},
		},
	}
}

// Match is one detected yoga.
type Match struct {
	Yoga        string `json:"Yoga"`
	Description string `json:"Description"`
}

// Detector evaluates a fixed rule set.
type Detector struct {
	yogas []Yoga
}

// NewDetector returns a detector over yogas.
func NewDetector(yogas []Yoga) *Detector {
	return &Detector{yogas: yogas}
}

// Default returns a detector over the built-in rules.
func Default() *Detector {
	yogas, err := Compile(DefaultDefinitions())
	if err != nil {
		panic(err) // built-in rules always compile
	}
	return NewDetector(yogas)
}

// Yogas returns the compiled rules.
func (d *Detector) Yogas() []Yoga { return d.yogas }

// Detect returns the yogas whose conditions all hold, in rule order.
// A yoga with no conditions always matches.
func (d *Detector) Detect(cusps models.HouseCusps, longitudes map[models.Body]float64) []Match {
	out := []Match{}
	for _, y := range d.yogas {
		ok := true
		for _, c := range y.Conditions {
			if !c.Holds(cusps, longitudes) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Match{Yoga: y.Name, Description: y.Description})
		}
	}
	return out
}
