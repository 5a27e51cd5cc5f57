// Cohort store: the five disjoint population collections and the person
// arena they index into.
package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/mini-census/internal/agents"
)

// ErrInvariant marks a broken population invariant. It always indicates a
// programming defect, never a legitimate simulation outcome.
var ErrInvariant = errors.New("population invariant violated")

// Couple is a married pair, husband first. A couple is dissolved only by death.
type Couple struct {
	Husband agents.PersonID `json:"husband"`
	Wife    agents.PersonID `json:"wife"`
	Formed  int             `json:"formed"` // Year of marriage
}

// Cohorts holds the population state. Every person ever created is in People;
// each one is in exactly one of Children, SingleMen, SingleWomen, Deceased or
// a single Couple.
type Cohorts struct {
	People []*agents.Person // Creation order
	Index  map[agents.PersonID]*agents.Person

	Children    []agents.PersonID
	SingleMen   []agents.PersonID
	SingleWomen []agents.PersonID
	Deceased    []agents.PersonID
	Couples     []Couple
}

// NewCohorts creates an empty population.
func NewCohorts() *Cohorts {
	return &Cohorts{
		Index: make(map[agents.PersonID]*agents.Person),
	}
}

// Person returns the person with the given handle, or nil.
func (c *Cohorts) Person(id agents.PersonID) *agents.Person {
	return c.Index[id]
}

// Admit registers a newly created person and places them among the children.
func (c *Cohorts) Admit(p *agents.Person) {
	c.register(p)
	c.Children = append(c.Children, p.ID)
}

func (c *Cohorts) register(p *agents.Person) {
	c.People = append(c.People, p)
	c.Index[p.ID] = p
}

// singles returns the live single pool for the given sex.
func (c *Cohorts) singles(sex agents.Sex) *[]agents.PersonID {
	if sex == agents.SexFemale {
		return &c.SingleWomen
	}
	return &c.SingleMen
}

// Living returns the number of people alive.
func (c *Cohorts) Living() int {
	return len(c.Children) + len(c.SingleMen) + len(c.SingleWomen) + 2*len(c.Couples)
}

// Created returns the number of people ever admitted.
func (c *Cohorts) Created() int {
	return len(c.People)
}

// Check verifies the population invariants after the given year has been
// processed: every person sits in exactly one collection, nobody alive is past
// their death year and nobody deceased died after it.
func (c *Cohorts) Check(year int) error {
	where := make(map[agents.PersonID]string, len(c.People))
	place := func(id agents.PersonID, cohort string) error {
		if c.Index[id] == nil {
			return fmt.Errorf("%w: unknown person %d in %s", ErrInvariant, id, cohort)
		}
		if prev, ok := where[id]; ok {
			return fmt.Errorf("%w: person %d in both %s and %s", ErrInvariant, id, prev, cohort)
		}
		where[id] = cohort
		return nil
	}

	for _, group := range []struct {
		name string
		ids  []agents.PersonID
	}{
		{"children", c.Children},
		{"single men", c.SingleMen},
		{"single women", c.SingleWomen},
		{"deceased", c.Deceased},
	} {
		for _, id := range group.ids {
			if err := place(id, group.name); err != nil {
				return err
			}
		}
	}
	for _, cp := range c.Couples {
		if err := place(cp.Husband, "couples"); err != nil {
			return err
		}
		if err := place(cp.Wife, "couples"); err != nil {
			return err
		}
		if h, w := c.Index[cp.Husband], c.Index[cp.Wife]; h.Sex != agents.SexMale || w.Sex != agents.SexFemale {
			return fmt.Errorf("%w: couple %d/%d is not husband-first", ErrInvariant, cp.Husband, cp.Wife)
		}
	}

	if len(where) != len(c.People) {
		return fmt.Errorf("%w: %d people created but %d placed", ErrInvariant, len(c.People), len(where))
	}

	for _, p := range c.People {
		dead := where[p.ID] == "deceased"
		if !dead && p.DeathYear <= year {
			return fmt.Errorf("%w: person %d alive after death year %d (year %d)", ErrInvariant, p.ID, p.DeathYear, year)
		}
		if dead && p.DeathYear > year {
			return fmt.Errorf("%w: person %d deceased before death year %d (year %d)", ErrInvariant, p.ID, p.DeathYear, year)
		}
	}
	return nil
}

// removeID removes id from ids, preserving order. It reports whether id was found.
func removeID(ids []agents.PersonID, id agents.PersonID) ([]agents.PersonID, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
