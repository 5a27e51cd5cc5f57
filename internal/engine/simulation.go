// Simulation ties the cohort store and the yearly transitions together.
package engine

import (
	"log/slog"

	"github.com/talgya/mini-census/internal/agents"
	"github.com/talgya/mini-census/internal/entropy"
)

// Params are the demographic constants of a run.
type Params struct {
	GraduationAge      int                // Age at which children join the single pools
	FertilityThreshold int                // Higher is less fertile
	Kinship            agents.KinshipRule // Relation check used to veto marriages
}

// YearRecord is the aggregate state at the end of one simulated year.
type YearRecord struct {
	Year               int `json:"year" db:"year"`
	TotalLiving        int `json:"total_living" db:"total_living"`
	Children           int `json:"children" db:"children"`
	SingleMen          int `json:"single_men" db:"single_men"`
	SingleWomen        int `json:"single_women" db:"single_women"`
	DeceasedCumulative int `json:"deceased" db:"deceased"`
	Couples            int `json:"couples" db:"couples"`
}

// YearEvents counts the transitions that happened during one year.
type YearEvents struct {
	Births      int `json:"births"`
	Deaths      int `json:"deaths"`
	Graduations int `json:"graduations"`
	Marriages   int `json:"marriages"`
	Widowed     int `json:"widowed"`
}

// Simulation holds the complete population state of one run.
type Simulation struct {
	Cohorts *Cohorts
	Spawner *agents.Spawner
	Rand    *entropy.Source
	Params  Params

	History  []YearRecord // One record per simulated year, append-only
	Events   YearEvents   // Transitions of the most recent year
	LastYear int          // Most recent year processed, -1 before the first

	// OnMarriage, if set, is called whenever a couple is formed.
	OnMarriage func(c Couple, husband, wife *agents.Person)
}

// NewSimulation creates an empty population drawing from rng.
func NewSimulation(params Params, rng *entropy.Source) *Simulation {
	return &Simulation{
		Cohorts:  NewCohorts(),
		Spawner:  agents.NewSpawner(rng),
		Rand:     rng,
		Params:   params,
		LastYear: -1,
	}
}

// SeedFounders creates the first generation of n people born in year.
func (s *Simulation) SeedFounders(n, year int) {
	for _, p := range s.Spawner.SpawnFounders(n, year) {
		s.Cohorts.Admit(p)
	}
	slog.Info("founders generated", "count", n, "year", year)
}

// RunYear advances the population through one year and records the result.
// The order is fixed: graduation, couples, women propose, men propose.
func (s *Simulation) RunYear(year int) YearRecord {
	s.LastYear = year
	s.Events = YearEvents{}
	c := s.Cohorts

	if len(c.Children) > 0 {
		s.processGraduation(year)
	}
	if len(c.Couples) > 0 {
		s.processCouples(year)
	}
	if len(c.SingleWomen) > 0 {
		s.processMarriages(year, agents.SexFemale)
	}
	if len(c.SingleMen) > 0 {
		s.processMarriages(year, agents.SexMale)
	}

	rec := YearRecord{
		Year:               year,
		TotalLiving:        c.Living(),
		Children:           len(c.Children),
		SingleMen:          len(c.SingleMen),
		SingleWomen:        len(c.SingleWomen),
		DeceasedCumulative: len(c.Deceased),
		Couples:            len(c.Couples),
	}
	s.History = append(s.History, rec)

	slog.Debug("yearly report",
		"year", year,
		"alive", rec.TotalLiving,
		"children", rec.Children,
		"single_men", rec.SingleMen,
		"single_women", rec.SingleWomen,
		"couples", rec.Couples,
		"deceased", rec.DeceasedCumulative,
		"births", s.Events.Births,
		"deaths", s.Events.Deaths,
		"marriages", s.Events.Marriages,
	)
	return rec
}
