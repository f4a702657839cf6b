package cmd

import (
	"fmt"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/internal/kpistore"
	"github.com/kpilens/kpilens/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the store with the loaded config
	if err := kpistore.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	storeManager = kpistore.Manager

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize the store or create
// tables, allowing migrations to run on a fresh database.
func storeMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = kpistore.GetStoreDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for the migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// storeCmd focused on KPI record store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by scoring commands. This avoids input parsing
// and scoring config processing for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage persisted KPI records and runs",
	Long: `Manage the durable store behind --save and the portfolio command.

When enabled, KpiLens persists:
- KPI records with their latest values and derived scores
- Value history snapshots per record
- Run metadata (timestamp, configuration, duration)

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show record store statistics
  migrate - Run database schema migrations

Examples:
  # Check what is persisted
  kpilens store status

  # Apply the latest schema migrations
  kpilens store migrate`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display record store statistics and connection details",
	Long: `Show detailed information about the KPI record store.

Displays:
- Backend type and location
- Total number of persisted records
- Total number of history snapshots
- Total number of scoring runs

Examples:
  # Check store status
  kpilens store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := kpistore.Manager.GetRecordStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		kpistore.PrintStoreStatus(status)
	},
}

// storeMigrateCmd runs database schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for the record store",
	Long: `Apply versioned schema migrations to the record store database.

By default migrates to the latest version. Use --target-version to migrate
to a specific version, or 0 to roll everything back.

Examples:
  # Migrate to the latest schema
  kpilens store migrate

  # Roll back to the initial state
  kpilens store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := kpistore.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run store migration", err)
		}
		fmt.Println("Store migration completed successfully.")
	},
}
