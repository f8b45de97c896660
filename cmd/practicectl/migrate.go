package main

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/yourusername/practice-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return database.MigrateDB(e.db, e.cfg.Database.MigrationsURL(), e.log)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print current schema version and dirty flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlDB, sourceURL, err := openRawDB(cmd)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		version, dirty, err := database.MigrationVersion(sqlDB, sourceURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
		return nil
	},
}

// migrateForceCmd снимает dirty-состояние после упавшей миграции
var migrateForceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Force schema version (clears the dirty flag)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil || version < 0 {
			return fmt.Errorf("invalid version %q", args[0])
		}

		sqlDB, sourceURL, err := openRawDB(cmd)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Forcing migration version to %d to clean dirty state...\n", version)
		if err := database.ForceMigrationVersion(sqlDB, sourceURL, version); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Success! Dirty state cleaned.")
		return nil
	},
}

// openRawDB открывает *sql.DB через lib/pq без gorm: достаточно для golang-migrate
func openRawDB(cmd *cobra.Command) (*sql.DB, string, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		return nil, "", err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}
	return sqlDB, cfg.Database.MigrationsURL(), nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	migrateCmd.AddCommand(migrateForceCmd)
}
