package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/platinummonkey/taskboard/pkg/storage"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}
	statusOnly := cmd.Flags.Bool("status", false, "List migrations and their state without applying any")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		return runMigrate(context.Background(), *statusOnly)
	}
	return cmd
}

func runMigrate(ctx context.Context, statusOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newProcessLogger(cfg.Observability.LogLevel)

	db, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if !statusOnly {
		applied, err := storage.RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.WithField("applied", applied).Info("migrations complete")
	}

	done, err := storage.AppliedVersions(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read migration state (has the database been migrated?): %w", err)
	}

	migrations := storage.GetMigrations()
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	for _, m := range migrations {
		state := "pending"
		if done[m.Version] {
			state = "applied"
		}
		fmt.Printf("%3d  %-8s %s\n", m.Version, state, m.Description)
	}
	return nil
}
