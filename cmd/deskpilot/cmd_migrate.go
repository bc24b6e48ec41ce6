package main

import (
	"fmt"
)

// MigrateCmd manages the sqlite schema.
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Apply pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

// MigrateUpCmd applies pending migrations. Open runs them, so this is just an
// open/close cycle.
type MigrateUpCmd struct{}

// Run executes the migrate up command.
func (c *MigrateUpCmd) Run(cli *CLI) error {
	app, err := buildApp(cli, createCLILogger)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("database %s is up to date\n", app.Config.Storage.DatabasePath)
	return nil
}

// MigrateStatusCmd prints the applied schema versions.
type MigrateStatusCmd struct{}

// Run executes the migrate status command.
func (c *MigrateStatusCmd) Run(cli *CLI) error {
	app, err := buildApp(cli, createCLILogger)
	if err != nil {
		return err
	}
	defer app.Close()

	rows, err := app.DB.DB().Query("SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	fmt.Println("applied migrations:")
	for rows.Next() {
		var version int
		var appliedAt string
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return err
		}
		fmt.Printf("  %3d  %s\n", version, appliedAt)
	}
	return rows.Err()
}
