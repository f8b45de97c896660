package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yourusername/practice-api/internal/config"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:           "practicectl",
	Short:         "Maintenance commands for the practice question catalog",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(importBankCmd)
	rootCmd.AddCommand(exportStatsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// env - всё, что нужно командам: конфиг, логгер и подключение к БД
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

// resolveConfigPath: флаг --config, затем CONFIG_PATH, затем путь по умолчанию
func resolveConfigPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(resolveConfigPath(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := database.GetSQLDB(e.db); err == nil {
		_ = sqlDB.Close()
	}
	e.log.Sync()
}
