// Package agents provides the person data model, lineage references,
// person spawning and the kinship check that gates marriage.
package agents

import "fmt"

// PersonID is the stable handle of a person within one population.
// Two references denote the same person iff their handles are equal.
type PersonID uint64

// Sex represents biological sex for demographic simulation.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

func (s Sex) String() string {
	if s == SexFemale {
		return "female"
	}
	return "male"
}

// Opposite returns the other sex.
func (s Sex) Opposite() Sex {
	if s == SexFemale {
		return SexMale
	}
	return SexFemale
}

// Lifespan and fertility bounds.
const (
	MinLifespan = 5
	MaxLifespan = 80

	MinFertility = 0
	MaxFertility = 40

	FounderFertilityMin = 10
	FounderFertilityMax = 20
	FertilityDrift      = 2 // inherited fertility varies by ±FertilityDrift
)

// ParentRef identifies a parent. First-generation people have no real parents
// and carry a synthetic founder marker instead; every founder gets its own
// marker so no two founders ever share an ancestor.
// The zero value is not a valid reference.
type ParentRef struct {
	founder bool
	id      uint64
}

// FounderRef returns the founder marker with the given number.
func FounderRef(marker uint64) ParentRef {
	return ParentRef{founder: true, id: marker}
}

// DescendantRef returns a reference to a real person.
func DescendantRef(id PersonID) ParentRef {
	return ParentRef{id: uint64(id)}
}

// IsFounder reports whether the reference is a founder marker.
func (r ParentRef) IsFounder() bool {
	return r.founder
}

// Person returns the referenced person's handle, or false for a founder marker.
func (r ParentRef) Person() (PersonID, bool) {
	if r.founder {
		return 0, false
	}
	return PersonID(r.id), true
}

func (r ParentRef) String() string {
	if r.founder {
		return fmt.Sprintf("founder#%d", r.id)
	}
	return fmt.Sprintf("person#%d", r.id)
}

// Person is an individual in the population. All fields are fixed at creation.
type Person struct {
	ID        PersonID  `json:"id"`
	Sex       Sex       `json:"sex"`
	BirthYear int       `json:"birth_year"`
	DeathYear int       `json:"death_year"` // assigned once, never recomputed
	Father    ParentRef `json:"-"`
	Mother    ParentRef `json:"-"`
	Fertility int       `json:"fertility"` // MinFertility to MaxFertility
}

// Age returns the person's age in the given year.
func (p *Person) Age(year int) int {
	return year - p.BirthYear
}

// DiesIn reports whether the person's death is due in the given year.
func (p *Person) DiesIn(year int) bool {
	return p.DeathYear == year
}

// IsFounder reports whether the person belongs to the first generation.
func (p *Person) IsFounder() bool {
	return p.Mother.IsFounder()
}
