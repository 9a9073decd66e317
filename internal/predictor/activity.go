package predictor

import (
	"sort"
	"strings"

	"github.com/seenimoa/jyotish/pkg/models"
)

// PlanetWeight weights one planet's strength in an activity score.
type PlanetWeight struct {
	Planet models.Body `json:"planet" yaml:"planet"`
	Weight float64     `json:"weight" yaml:"weight"`
}

// HouseWeight weights one house's strength in an activity score.
type HouseWeight struct {
	House  int     `json:"house" yaml:"house"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Activity is the scoring profile for one kind of undertaking.
type Activity struct {
	Name          string         `json:"name" yaml:"name"`
	PlanetWeights []PlanetWeight `json:"planet_weights" yaml:"planet_weights"`
	HouseWeights  []HouseWeight  `json:"house_weights" yaml:"house_weights"`
	IshtaImpact   float64        `json:"ishta_kashta_impact" yaml:"ishta_kashta_impact"`
	DashaImpact   float64        `json:"dasha_impact" yaml:"dasha_impact"`
}

// Activities are the built-in profiles.
var Activities = map[string]Activity{
	"Business": {
		Name:          "Business",
		PlanetWeights: []PlanetWeight{{models.Mercury, 1.2}, {models.Jupiter, 1.0}, {models.Saturn, 0.8}},
		HouseWeights:  []HouseWeight{{10, 1.0}, {11, 1.0}, {2, 0.8}},
		IshtaImpact:   1.5,
		DashaImpact:   -2.0,
	},
	"Marriage": {
		Name:          "Marriage",
		PlanetWeights: []PlanetWeight{{models.Venus, 1.5}, {models.Jupiter, 1.2}, {models.Moon, 1.0}},
		HouseWeights:  []HouseWeight{{7, 2.0}, {2, 0.5}, {1, 0.5}},
		IshtaImpact:   1.0,
		DashaImpact:   -1.5,
	},
	"Travel": {
		Name:          "Travel",
		PlanetWeights: []PlanetWeight{{models.Mercury, 1.0}, {models.Moon, 1.0}, {models.Mars, 0.8}},
		HouseWeights:  []HouseWeight{{3, 0.5}, {9, 1.0}, {12, 0.5}},
		IshtaImpact:   0.8,
		DashaImpact:   -1.0,
	},
	"Exams": {
		Name:          "Exams",
		PlanetWeights: []PlanetWeight{{models.Mercury, 1.4}, {models.Jupiter, 1.1}},
		HouseWeights:  []HouseWeight{{5, 1.0}, {9, 1.0}},
		IshtaImpact:   1.2,
		DashaImpact:   -1.0,
	},
}

// LookupActivity returns the named profile, matched case-insensitively.
// Unknown names score Jupiter alone with no house or dasha terms.
func LookupActivity(name string) Activity {
	for key, a := range Activities {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return a
		}
	}
	return Activity{
		Name:          name,
		PlanetWeights: []PlanetWeight{{models.Jupiter, 1.0}},
		IshtaImpact:   1.0,
	}
}

// ActivityNames lists the built-in profiles, sorted.
func ActivityNames() []string {
	names := make([]string, 0, len(Activities))
	for n := range Activities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
