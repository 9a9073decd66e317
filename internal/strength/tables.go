package strength

import "github.com/seenimoa/jyotish/pkg/models"

type gender int

const (
	neutral gender = iota
	male
	female
)

var genders = map[models.Body]gender{
	models.Sun:     male,
	models.Moon:    female,
	models.Mars:    male,
	models.Mercury: neutral,
	models.Jupiter: male,
	models.Venus:   female,
	models.Saturn:  neutral,
}

// Exaltation longitudes; debilitation is the opposite point.
var exaltation = map[models.Body]float64{
	models.Sun:     130,
	models.Moon:    33,
	models.Mars:    298,
	models.Mercury: 165,
	models.Jupiter: 95,
	models.Venus:   357,
	models.Saturn:  200,
}

type relations struct {
	friends []models.Body
	enemies []models.Body
}

var friendship = map[models.Body]relations{
	models.Sun:     {friends: []models.Body{models.Moon, models.Mars, models.Jupiter}, enemies: []models.Body{models.Venus, models.Saturn}},
	models.Moon:    {friends: []models.Body{models.Sun, models.Mercury}},
	models.Mars:    {friends: []models.Body{models.Sun, models.Moon, models.Jupiter}, enemies: []models.Body{models.Mercury}},
	models.Mercury: {friends: []models.Body{models.Sun, models.Venus}, enemies: []models.Body{models.Moon}},
	models.Jupiter: {friends: []models.Body{models.Sun, models.Moon, models.Mars}, enemies: []models.Body{models.Venus, models.Mercury}},
	models.Venus:   {friends: []models.Body{models.Mercury, models.Saturn}, enemies: []models.Body{models.Sun, models.Moon}},
	models.Saturn:  {friends: []models.Body{models.Mercury, models.Venus}, enemies: []models.Body{models.Sun, models.Moon}},
}

// Naisargika (innate) strength.
var innate = map[models.Body]float64{
	models.Sun:     60.0,
	models.Moon:    51.4,
	models.Venus:   42.9,
	models.Jupiter: 34.3,
	models.Mercury: 25.7,
	models.Mars:    17.1,
	models.Saturn:  8.6,
}

// House of strongest directional strength.
var digOptimum = map[models.Body]int{
	models.Sun:     10,
	models.Mars:    10,
	models.Jupiter: 1,
	models.Mercury: 1,
	models.Moon:    4,
	models.Venus:   4,
	models.Saturn:  7,
}

type moolatrikona struct {
	sign       models.Sign
	start, end float64
}

var moolatrikonas = map[models.Body]moolatrikona{
	models.Sun:     {models.Leo, 0, 20},
	models.Moon:    {models.Taurus, 3, 30},
	models.Mars:    {models.Aries, 0, 12},
	models.Mercury: {models.Virgo, 15, 20},
	models.Jupiter: {models.Sagittarius, 0, 10},
	models.Venus:   {models.Libra, 0, 15},
	models.Saturn:  {models.Aquarius, 0, 20},
}

var (
	drigBenefics = set(models.Jupiter, models.Venus, models.Mercury, models.Moon)
	drigMalefics = set(models.Saturn, models.Mars, models.Sun)

	// Bhavabala also treats the nodes as malefic.
	houseBenefics = drigBenefics
	houseMalefics = set(models.Saturn, models.Mars, models.Sun, models.Rahu, models.Ketu)
)

func set(bodies ...models.Body) map[models.Body]bool {
	m := make(map[models.Body]bool, len(bodies))
	for _, b := range bodies {
		m[b] = true
	}
	return m
}

type relationship int

const (
	relNeutral relationship = iota
	relOwn
	relFriend
	relEnemy
)

var vargaWeights = map[relationship]float64{
	relOwn:     30,
	relFriend:  20,
	relNeutral: 15,
	relEnemy:   10,
}
