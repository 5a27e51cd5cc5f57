package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-census/internal/config"
	"github.com/talgya/mini-census/internal/engine"
	"github.com/talgya/mini-census/internal/entropy"
	"github.com/talgya/mini-census/internal/persistence"
	"github.com/talgya/mini-census/internal/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a population to the configured horizon",
		Long: `Generate the founders, run every year up to the horizon and hand the
yearly records to the configured outputs (summary table, CSV, SQLite archive).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			setupLogging(cmd, cfg)

			sim, err := simulate(cfg)
			if err != nil {
				return err
			}
			return writeOutputs(cmd, cfg, sim.History)
		},
	}

	cmd.Flags().Int("years", 0, "Number of years to simulate")
	cmd.Flags().Int("graduation-age", 0, "Age from which a person can marry")
	cmd.Flags().Int("sample-size", 0, "Number of founders")
	cmd.Flags().Int("fertility-threshold", 0, "Birth threshold; higher means fewer births")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().String("kinship", "", "Relation rule vetoing marriages: symmetric or legacy")
	cmd.Flags().Bool("check", false, "Verify population invariants after every year")
	cmd.Flags().String("csv", "", "Write yearly records to this CSV file")
	cmd.Flags().String("db", "", "Archive the run in this SQLite database")
	cmd.Flags().Bool("no-summary", false, "Do not print the summary table")
	return cmd
}

// applyRunFlags overrides config values with flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	sim := &cfg.Simulation
	if flags.Changed("years") {
		sim.TotalYears, _ = flags.GetInt("years")
	}
	if flags.Changed("graduation-age") {
		sim.GraduationAge, _ = flags.GetInt("graduation-age")
	}
	if flags.Changed("sample-size") {
		sim.SampleSize, _ = flags.GetInt("sample-size")
	}
	if flags.Changed("fertility-threshold") {
		sim.FertilityThreshold, _ = flags.GetInt("fertility-threshold")
	}
	if flags.Changed("seed") {
		sim.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("kinship") {
		sim.Kinship, _ = flags.GetString("kinship")
	}
	if flags.Changed("check") {
		sim.Check, _ = flags.GetBool("check")
	}
	if flags.Changed("csv") {
		cfg.Output.CSVPath, _ = flags.GetString("csv")
	}
	if flags.Changed("db") {
		cfg.Output.DBPath, _ = flags.GetString("db")
	}
	if noSummary, _ := flags.GetBool("no-summary"); noSummary {
		cfg.Output.Summary = false
	}
}

// simulate runs a full simulation for cfg.
func simulate(cfg *config.Config) (*engine.Simulation, error) {
	sc := cfg.Simulation
	slog.Info("census simulation starting",
		"years", sc.TotalYears,
		"founders", sc.SampleSize,
		"graduation_age", sc.GraduationAge,
		"fertility_threshold", sc.FertilityThreshold,
		"seed", sc.Seed,
		"kinship", cfg.KinshipRule(),
	)

	sim := engine.NewSimulation(engine.Params{
		GraduationAge:      sc.GraduationAge,
		FertilityThreshold: sc.FertilityThreshold,
		Kinship:            cfg.KinshipRule(),
	}, entropy.New(sc.Seed))
	sim.SeedFounders(sc.SampleSize, 0)

	eng := engine.NewEngine(sc.TotalYears)
	eng.Drive(sim, sc.Check)
	if err := eng.Run(); err != nil {
		return nil, err
	}

	last := sim.History[len(sim.History)-1]
	slog.Info("census simulation complete",
		"alive", last.TotalLiving,
		"deceased", last.DeceasedCumulative,
		"couples", last.Couples,
		"people", sim.Cohorts.Created(),
		"draws", sim.Rand.Draws(),
	)
	return sim, nil
}

func writeOutputs(cmd *cobra.Command, cfg *config.Config, records []engine.YearRecord) error {
	if cfg.Output.CSVPath != "" {
		if err := writeCSVFile(cfg.Output.CSVPath, records); err != nil {
			return err
		}
		slog.Info("records written", "path", cfg.Output.CSVPath, "years", len(records))
	}

	if cfg.Output.DBPath != "" {
		if err := archiveRun(cfg, records); err != nil {
			return err
		}
	}

	if cfg.Output.Summary {
		step := (len(records) + 19) / 20
		if err := report.WriteSummary(cmd.OutOrStdout(), records, step); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func writeCSVFile(path string, records []engine.YearRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := report.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func archiveRun(cfg *config.Config, records []engine.YearRecord) error {
	db, err := persistence.Open(cfg.Output.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sc := cfg.Simulation
	run := persistence.NewRun()
	run.Seed = sc.Seed
	run.TotalYears = sc.TotalYears
	run.GraduationAge = sc.GraduationAge
	run.SampleSize = sc.SampleSize
	run.FertilityThreshold = sc.FertilityThreshold
	run.Kinship = cfg.KinshipRule().String()

	if err := db.SaveRun(run, records); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}
