// Population dynamics: graduation, deaths, births.
package engine

import (
	"slices"

	"github.com/talgya/mini-census/internal/agents"
)

// Birth rule constants.
const (
	MaxMotherAge = 45 // Mothers aged MaxMotherAge or older do not give birth
	BirthRollMax = 50 // Fertility roll is uniform in [0, BirthRollMax]
)

// processGraduation moves children who die this year to the deceased and
// children who reached the graduation age to the single pools. Death wins
// over graduation.
func (s *Simulation) processGraduation(year int) {
	c := s.Cohorts
	snapshot := slices.Clone(c.Children)
	kept := make([]agents.PersonID, 0, len(snapshot))

	for _, id := range snapshot {
		p := c.Person(id)
		switch {
		case p.DiesIn(year):
			s.bury(id)
		case p.Age(year) >= s.Params.GraduationAge:
			pool := c.singles(p.Sex)
			*pool = append(*pool, id)
			s.Events.Graduations++
		default:
			kept = append(kept, id)
		}
	}
	c.Children = kept
}

// processCouples resolves deaths within couples and gives every intact couple
// one birth attempt. Newborns join the children after the pass.
func (s *Simulation) processCouples(year int) {
	c := s.Cohorts
	snapshot := slices.Clone(c.Couples)
	kept := make([]Couple, 0, len(snapshot))
	var newborns []*agents.Person

	for _, cp := range snapshot {
		husband, wife := c.Person(cp.Husband), c.Person(cp.Wife)
		switch {
		case husband.DiesIn(year):
			s.bury(cp.Husband)
			if wife.DiesIn(year) {
				s.bury(cp.Wife)
			} else {
				c.SingleWomen = append(c.SingleWomen, cp.Wife)
				s.Events.Widowed++
			}
		case wife.DiesIn(year):
			s.bury(cp.Wife)
			c.SingleMen = append(c.SingleMen, cp.Husband)
			s.Events.Widowed++
		default:
			kept = append(kept, cp)
			if child := s.attemptBirth(husband, wife, year); child != nil {
				newborns = append(newborns, child)
			}
		}
	}

	c.Couples = kept
	for _, child := range newborns {
		c.Admit(child)
		s.Events.Births++
	}
}

// attemptBirth rolls once for a child. The roll is drawn on every attempt,
// before the mother's age is considered.
func (s *Simulation) attemptBirth(husband, wife *agents.Person, year int) *agents.Person {
	combined := husband.Fertility * wife.Fertility
	motherAge := wife.Age(year)
	level := combined - motherAge + s.Rand.IntRange(0, BirthRollMax)

	if motherAge >= MaxMotherAge || level <= s.Params.FertilityThreshold {
		return nil
	}
	return s.Spawner.SpawnChild(year, husband, wife)
}

// bury records a death. The caller has already taken id out of its cohort.
func (s *Simulation) bury(id agents.PersonID) {
	s.Cohorts.Deceased = append(s.Cohorts.Deceased, id)
	s.Events.Deaths++
}
