package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-census/internal/api"
	"github.com/talgya/mini-census/internal/config"
	"github.com/talgya/mini-census/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			setupLogging(cmd, cfg)

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSEED\tYEARS\tFOUNDERS\tKINSHIP\tALIVE\tDECEASED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					r.ID, r.CreatedAt, r.Seed, r.TotalYears, r.SampleSize, r.Kinship,
					humanize.Comma(int64(r.FinalLiving)), humanize.Comma(int64(r.FinalDeceased)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "", "SQLite run archive")
	cmd.Flags().Int("limit", 30, "Maximum number of runs to list")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived runs over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			setupLogging(cmd, cfg)

			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			srv := &api.Server{
				DB:          db,
				Port:        cfg.Server.Port,
				CORSOrigins: cfg.Server.CORSOrigins,
			}
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().String("db", "", "SQLite run archive")
	cmd.Flags().Int("port", 0, "HTTP port")
	return cmd
}

// openArchive loads the config and opens the archive named by --db or the
// config's output.db_path.
func openArchive(cmd *cobra.Command) (*config.Config, *persistence.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Output.DBPath, _ = cmd.Flags().GetString("db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Output.DBPath == "" {
		return nil, nil, errors.New("no archive configured: pass --db or set output.db_path")
	}

	db, err := persistence.Open(cfg.Output.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
