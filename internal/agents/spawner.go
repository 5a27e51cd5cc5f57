// Person spawning: founders for the first generation and children born to
// couples. Lifespan and fertility are drawn here and never change afterwards.
package agents

import (
	"github.com/talgya/mini-census/internal/entropy"
)

// Spawner creates people for the simulation. It owns handle and founder
// marker allocation, so markers are unique by construction.
type Spawner struct {
	rng        *entropy.Source
	nextID     PersonID
	nextMarker uint64
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng *entropy.Source) *Spawner {
	return &Spawner{
		rng:    rng,
		nextID: 1,
	}
}

// Spawned returns the number of people created so far.
func (s *Spawner) Spawned() int {
	return int(s.nextID - 1)
}

// SpawnFounders creates the first generation: n people born in year, each with
// a random sex and a fresh founder marker.
func (s *Spawner) SpawnFounders(n, year int) []*Person {
	founders := make([]*Person, 0, n)
	for i := 0; i < n; i++ {
		founders = append(founders, s.SpawnFounder(s.randomSex(), year))
	}
	return founders
}

// SpawnFounder creates one founder of the given sex.
func (s *Spawner) SpawnFounder(sex Sex, year int) *Person {
	marker := FounderRef(s.nextMarker)
	s.nextMarker++
	return s.SpawnPerson(sex, year, marker, marker, nil)
}

// SpawnChild creates a child of random sex born to father and mother in year.
func (s *Spawner) SpawnChild(year int, father, mother *Person) *Person {
	sex := s.randomSex()
	return s.SpawnPerson(sex, year, DescendantRef(father.ID), DescendantRef(mother.ID), mother)
}

// SpawnPerson creates a person. birthMother is the real mother whose fertility
// is inherited, or nil for founders. Both parent references are expected to be
// founder markers or both real people.
func (s *Spawner) SpawnPerson(sex Sex, year int, father, mother ParentRef, birthMother *Person) *Person {
	id := s.nextID
	s.nextID++

	p := &Person{
		ID:        id,
		Sex:       sex,
		BirthYear: year,
		DeathYear: year + s.rng.IntRange(MinLifespan, MaxLifespan),
		Father:    father,
		Mother:    mother,
	}

	if birthMother != nil {
		p.Fertility = clampFertility(birthMother.Fertility + s.rng.IntRange(-FertilityDrift, FertilityDrift))
	} else {
		p.Fertility = s.rng.IntRange(FounderFertilityMin, FounderFertilityMax)
	}
	return p
}

func (s *Spawner) randomSex() Sex {
	return Sex(s.rng.IntRange(0, 1))
}

func clampFertility(f int) int {
	if f > MaxFertility {
		return MaxFertility
	}
	if f < MinFertility {
		return MinFertility
	}
	return f
}
