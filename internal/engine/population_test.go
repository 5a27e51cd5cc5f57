package engine

import (
	"errors"
	"slices"
	"testing"

	"github.com/talgya/mini-census/internal/agents"
	"github.com/talgya/mini-census/internal/entropy"
)

func testParams() Params {
	return Params{GraduationAge: 16, FertilityThreshold: 250, Kinship: agents.KinshipSymmetric}
}

func newTestSim(seed int64) *Simulation {
	return NewSimulation(testParams(), entropy.New(seed))
}

// newPerson builds a founder-like person with its own founder marker.
func newPerson(id agents.PersonID, sex agents.Sex, birth, death int) *agents.Person {
	marker := agents.FounderRef(uint64(id))
	return &agents.Person{
		ID:        id,
		Sex:       sex,
		BirthYear: birth,
		DeathYear: death,
		Father:    marker,
		Mother:    marker,
		Fertility: 15,
	}
}

// place registers p and puts it directly into cohort.
func place(c *Cohorts, p *agents.Person, cohort *[]agents.PersonID) {
	c.register(p)
	*cohort = append(*cohort, p.ID)
}

func runYears(t *testing.T, s *Simulation, from, to int) {
	t.Helper()
	for y := from; y <= to; y++ {
		s.RunYear(y)
		if err := s.Cohorts.Check(y); err != nil {
			t.Fatalf("year %d: %v", y, err)
		}
	}
}

func TestForcedDeathAtMinimumLifespan(t *testing.T) {
	s := newTestSim(1)
	p := newPerson(1000, agents.SexMale, 0, agents.MinLifespan)
	s.Cohorts.Admit(p)

	for y := 0; y < agents.MinLifespan; y++ {
		s.RunYear(y)
		if err := s.Cohorts.Check(y); err != nil {
			t.Fatalf("year %d: %v", y, err)
		}
		if slices.Contains(s.Cohorts.Deceased, p.ID) {
			t.Fatalf("person deceased early in year %d", y)
		}
		if !slices.Contains(s.Cohorts.Children, p.ID) {
			t.Fatalf("person left children in year %d", y)
		}
	}

	rec := s.RunYear(agents.MinLifespan)
	if !slices.Contains(s.Cohorts.Deceased, p.ID) {
		t.Fatalf("person not deceased in year %d", agents.MinLifespan)
	}
	if rec.DeceasedCumulative != 1 || rec.TotalLiving != 0 || rec.Children != 0 {
		t.Errorf("unexpected record after death: %+v", rec)
	}
	if s.Events.Deaths != 1 {
		t.Errorf("expected 1 death event, got %d", s.Events.Deaths)
	}
}

func TestDeathPrecedesGraduation(t *testing.T) {
	s := newTestSim(1)
	p := newPerson(1000, agents.SexFemale, 0, 16)
	s.Cohorts.Admit(p)

	runYears(t, s, 0, 16)
	if !slices.Contains(s.Cohorts.Deceased, p.ID) {
		t.Fatal("child dying in graduation year should be deceased")
	}
	if len(s.Cohorts.SingleWomen) != 0 {
		t.Errorf("expected no single women, got %d", len(s.Cohorts.SingleWomen))
	}
	if s.Events.Graduations != 0 {
		t.Errorf("expected no graduations, got %d", s.Events.Graduations)
	}
}

func TestGraduationBySex(t *testing.T) {
	s := newTestSim(1)
	// Siblings, so they graduate without marrying each other.
	brother := newPerson(1000, agents.SexMale, 0, 70)
	sister := newPerson(1001, agents.SexFemale, 0, 70)
	sister.Father, sister.Mother = brother.Father, brother.Mother
	s.Cohorts.Admit(brother)
	s.Cohorts.Admit(sister)

	runYears(t, s, 0, 15)
	if len(s.Cohorts.Children) != 2 {
		t.Fatalf("expected 2 children before graduation age, got %d", len(s.Cohorts.Children))
	}

	runYears(t, s, 16, 16)
	if !slices.Equal(s.Cohorts.SingleMen, []agents.PersonID{brother.ID}) {
		t.Errorf("single men = %v, want [%d]", s.Cohorts.SingleMen, brother.ID)
	}
	if !slices.Equal(s.Cohorts.SingleWomen, []agents.PersonID{sister.ID}) {
		t.Errorf("single women = %v, want [%d]", s.Cohorts.SingleWomen, sister.ID)
	}
	if len(s.Cohorts.Couples) != 0 {
		t.Errorf("siblings must not marry, got %d couples", len(s.Cohorts.Couples))
	}
	if s.Events.Graduations != 2 {
		t.Errorf("expected 2 graduations, got %d", s.Events.Graduations)
	}
}

func TestSingleFounderPairMarriesOnce(t *testing.T) {
	s := newTestSim(7)
	man := newPerson(1000, agents.SexMale, 0, 70)
	woman := newPerson(1001, agents.SexFemale, 0, 70)
	s.Cohorts.Admit(man)
	s.Cohorts.Admit(woman)

	if agents.Related(man, woman) {
		t.Fatal("founders with distinct markers must not be related")
	}

	for y := 0; y < 16; y++ {
		rec := s.RunYear(y)
		if rec.Couples != 0 {
			t.Fatalf("couple formed before graduation in year %d", y)
		}
	}

	rec := s.RunYear(16)
	if rec.Couples != 1 {
		t.Fatalf("expected exactly one couple in year 16, got %d", rec.Couples)
	}
	if err := s.Cohorts.Check(16); err != nil {
		t.Fatal(err)
	}
	want := Couple{Husband: man.ID, Wife: woman.ID, Formed: 16}
	if s.Cohorts.Couples[0] != want {
		t.Errorf("couple = %+v, want %+v", s.Cohorts.Couples[0], want)
	}
	if rec.SingleMen != 0 || rec.SingleWomen != 0 || rec.TotalLiving != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestCoupleDeaths(t *testing.T) {
	cases := []struct {
		name            string
		husbandDeath    int
		wifeDeath       int
		wantDeceased    int
		wantSingleMen   int
		wantSingleWomen int
	}{
		{"husband dies", 40, 70, 1, 0, 1},
		{"wife dies", 70, 40, 1, 1, 0},
		{"both die", 40, 40, 2, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSim(1)
			husband := newPerson(1000, agents.SexMale, 20, tc.husbandDeath)
			wife := newPerson(1001, agents.SexFemale, 20, tc.wifeDeath)
			husband.Fertility, wife.Fertility = 0, 0
			s.Cohorts.register(husband)
			s.Cohorts.register(wife)
			s.Cohorts.Couples = []Couple{{Husband: husband.ID, Wife: wife.ID, Formed: 30}}

			rec := s.RunYear(40)
			if err := s.Cohorts.Check(40); err != nil {
				t.Fatal(err)
			}
			if rec.Couples != 0 {
				t.Errorf("couple should be dissolved, got %d couples", rec.Couples)
			}
			if rec.DeceasedCumulative != tc.wantDeceased {
				t.Errorf("deceased = %d, want %d", rec.DeceasedCumulative, tc.wantDeceased)
			}
			// The widowed partner re-enters the pool but has nobody to marry.
			if rec.SingleMen != tc.wantSingleMen || rec.SingleWomen != tc.wantSingleWomen {
				t.Errorf("singles = %d men / %d women, want %d / %d",
					rec.SingleMen, rec.SingleWomen, tc.wantSingleMen, tc.wantSingleWomen)
			}
			if s.Events.Births != 0 {
				t.Errorf("dissolved couple gave birth")
			}
		})
	}
}

func TestBirthGate(t *testing.T) {
	cases := []struct {
		name      string
		motherAge int
		fertility int
		wantBirth bool
	}{
		{"fertile young mother", 30, 40, true},
		{"last fertile year", 44, 40, true},
		{"mother too old", 45, 40, false},
		{"fertility too low", 30, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSim(5)
			year := 100
			husband := newPerson(1000, agents.SexMale, year-tc.motherAge, year+20)
			wife := newPerson(1001, agents.SexFemale, year-tc.motherAge, year+20)
			husband.Fertility, wife.Fertility = tc.fertility, tc.fertility
			s.Cohorts.register(husband)
			s.Cohorts.register(wife)
			s.Cohorts.Couples = []Couple{{Husband: husband.ID, Wife: wife.ID}}

			rec := s.RunYear(year)
			if err := s.Cohorts.Check(year); err != nil {
				t.Fatal(err)
			}
			born := rec.Children == 1
			if born != tc.wantBirth {
				t.Fatalf("birth = %v, want %v (children %d)", born, tc.wantBirth, rec.Children)
			}
			if !born {
				return
			}
			child := s.Cohorts.Person(s.Cohorts.Children[0])
			if child.BirthYear != year {
				t.Errorf("child born in %d, want %d", child.BirthYear, year)
			}
			if f, ok := child.Father.Person(); !ok || f != husband.ID {
				t.Errorf("child father = %v, want person#%d", child.Father, husband.ID)
			}
			if m, ok := child.Mother.Person(); !ok || m != wife.ID {
				t.Errorf("child mother = %v, want person#%d", child.Mother, wife.ID)
			}
			if child.Fertility < 38 || child.Fertility > 40 {
				t.Errorf("child fertility %d, want within 2 of mother's 40", child.Fertility)
			}
			if rec.TotalLiving != 3 || s.Events.Births != 1 {
				t.Errorf("unexpected record %+v / births %d", rec, s.Events.Births)
			}
		})
	}
}

func TestNoBirthsBelowThreshold(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		s := newTestSim(seed)
		husband := newPerson(1000, agents.SexMale, 0, 80)
		wife := newPerson(1001, agents.SexFemale, 0, 80)
		husband.Fertility, wife.Fertility = 3, 3
		s.Cohorts.register(husband)
		s.Cohorts.register(wife)
		s.Cohorts.Couples = []Couple{{Husband: husband.ID, Wife: wife.ID}}

		for y := 40; y < 50; y++ {
			s.RunYear(y)
		}
		if n := s.Spawner.Spawned(); n != 0 {
			t.Fatalf("seed %d: %d births below threshold", seed, n)
		}
	}
}

func TestCheckDetectsDuplicateMembership(t *testing.T) {
	c := NewCohorts()
	p := newPerson(1000, agents.SexMale, 0, 50)
	place(c, p, &c.Children)
	c.SingleMen = append(c.SingleMen, p.ID)

	err := c.Check(10)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestCheckDetectsOverdueDeath(t *testing.T) {
	c := NewCohorts()
	place(c, newPerson(1000, agents.SexFemale, 0, 20), &c.SingleWomen)

	if err := c.Check(19); err != nil {
		t.Fatalf("unexpected error before death year: %v", err)
	}
	if err := c.Check(20); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for living person past death year, got %v", err)
	}
}

func TestCheckDetectsLostPerson(t *testing.T) {
	c := NewCohorts()
	c.register(newPerson(1000, agents.SexFemale, 0, 20))
	if err := c.Check(0); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for unplaced person, got %v", err)
	}
}
