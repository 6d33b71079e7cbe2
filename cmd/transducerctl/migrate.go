package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	_ "github.com/nerrad567/gray-logic-transducers/migrations"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/database"
)

var errNotConfirmed = errors.New("rollback drops tables and their data: rerun with --yes")

// openDatabase opens the store named by --config, or by the built-in
// defaults when no file is given.
func openDatabase(c *cli.Context) (*database.DB, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	return database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
}

func migrateStatusAction(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-only command

	applied, pending, err := db.GetMigrationStatus(c.Context)
	if err != nil {
		return err
	}
	for _, m := range applied {
		fmt.Fprintf(c.App.Writer, "applied  %s  %s\n", m.Version, m.AppliedAt.UTC().Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(c.App.Writer, "pending  %s  %s\n", m.Version, m.Name)
	}
	if len(applied) == 0 && len(pending) == 0 {
		fmt.Fprintln(c.App.Writer, "no migrations")
	}
	return nil
}

func migrateUpAction(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // nothing left to flush

	_, pending, err := db.GetMigrationStatus(c.Context)
	if err != nil {
		return err
	}
	if err := db.Migrate(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", len(pending))
	return nil
}

func migrateDownAction(c *cli.Context) error {
	if !c.Bool("yes") {
		return errNotConfirmed
	}
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // nothing left to flush

	applied, _, err := db.GetMigrationStatus(c.Context)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(c.App.Writer, "nothing to roll back")
		return nil
	}
	if err := db.MigrateDown(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "rolled back %s\n", applied[len(applied)-1].Version)
	return nil
}
