// Marriage: single adults propose to a random member of the opposite pool.
package engine

import (
	"slices"

	"github.com/talgya/mini-census/internal/agents"
)

// MaxAgeGap is the exclusive bound on the birth-year difference of a couple.
const MaxAgeGap = 10

// processMarriages runs one marriage pass with the given sex initiating.
// Each living initiator samples exactly one candidate from the live opposite
// pool; a rejected candidate is not retried in the same pass.
func (s *Simulation) processMarriages(year int, initiators agents.Sex) {
	c := s.Cohorts
	pool := c.singles(initiators)
	partners := c.singles(initiators.Opposite())
	snapshot := slices.Clone(*pool)

	for _, id := range snapshot {
		single := c.Person(id)
		if single.DiesIn(year) {
			*pool, _ = removeID(*pool, id)
			s.bury(id)
			continue
		}
		if len(*partners) == 0 {
			continue
		}

		idx := s.Rand.Intn(len(*partners))
		partner := c.Person((*partners)[idx])
		if !s.eligible(single, partner, year) {
			continue
		}

		*pool, _ = removeID(*pool, id)
		*partners = slices.Delete(*partners, idx, idx+1)
		s.marry(single, partner, year)
	}
}

// eligible reports whether single and partner may marry this year. A partner
// whose death falls in this year is turned down so the death is still recorded
// when that partner's own pool is processed.
func (s *Simulation) eligible(single, partner *agents.Person, year int) bool {
	if s.Params.Kinship.Related(single, partner) {
		return false
	}
	if abs(partner.BirthYear-single.BirthYear) >= MaxAgeGap {
		return false
	}
	return !partner.DiesIn(year)
}

// marry forms a couple, husband first.
func (s *Simulation) marry(a, b *agents.Person, year int) {
	husband, wife := a, b
	if a.Sex == agents.SexFemale {
		husband, wife = b, a
	}
	cp := Couple{Husband: husband.ID, Wife: wife.ID, Formed: year}
	s.Cohorts.Couples = append(s.Cohorts.Couples, cp)
	s.Events.Marriages++

	if s.OnMarriage != nil {
		s.OnMarriage(cp, husband, wife)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
