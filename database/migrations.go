/*
 * Copyright 2025 suzuito.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration is one applied schema version, recorded in the migrations table.
type Migration struct {
	bun.BaseModel `bun:"table:migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// MigrationManager applies schema versions in order and records each one, so
// a version never runs twice. It also drives data seeding.
type MigrationManager struct {
	db          *bun.DB
	logger      Logger
	environment string
}

// NewMigrationManager constructs a MigrationManager. Seeding defaults to the
// "development" environment until SetEnvironment changes it.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	return &MigrationManager{db: db, logger: logger, environment: "development"}
}

// SetEnvironment sets the environment used when initializing data from SQL.
func (mm *MigrationManager) SetEnvironment(env string) {
	mm.environment = env
}

// RunMigrations applies every version that is not yet recorded, in ascending
// version order. Query logging is silenced unless SQLLOG_MIGRATION is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if _, ok := os.LookupEnv("SQLLOG_MIGRATION"); !ok {
		EnableSqlLogSilent(true)
	}
	defer EnableSqlLogSilent(false)

	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := mm.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := mm.allMigrations()
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, migration := range pending {
		if applied[migration.Version] {
			continue
		}
		if err := mm.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	if mm.logger != nil {
		mm.logger.Info("Database migrations completed!")
	}
	return nil
}

func (mm *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []string
	err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Column("version").
		Scan(ctx, &versions)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// allMigrations lists every known version. Foreign keys and seeding only
// join the list when the loaded configuration asks for them.
func (mm *MigrationManager) allMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create access_logs, users, and articles tables",
			Up:          mm.createBaseTables,
		},
	}
	if globalConfig != nil && globalConfig.DataMigrateConfig.EnableForeignKey {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "add_foreign_keys",
			Description: "Add the articles -> users foreign key constraint",
			Up:          mm.addForeignKeys,
		})
	}
	if globalConfig != nil && globalConfig.DataInitConfig.AutoInitOnMigration {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          mm.seedInitialData,
		})
	}
	return migrations
}

// apply runs one version and its bookkeeping insert in a single transaction
// scope. A failed step leaves neither schema changes nor a record behind.
func (mm *MigrationManager) apply(ctx context.Context, migration MigrationItem) error {
	return RunInTx(ctx, mm.db, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}

		record := &Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}

		if mm.logger != nil {
			mm.logger.Info("Migration applied", "version", migration.Version, "name", migration.Name)
		}
		return nil
	})
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	configPath := ""
	if globalConfig != nil {
		configPath = globalConfig.DataMigrateConfig.ForeignKeyFile
	}
	fkManager, err := NewConfigurableForeignKeyManager(mm.logger, configPath)
	if err != nil {
		if mm.logger != nil {
			mm.logger.Debug("Foreign key config unusable, using code-defined constraints", "error", err.Error())
		}
		return NewForeignKeyManager(mm.logger).AddAllForeignKeys(ctx, db)
	}

	if errs := fkManager.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			if mm.logger != nil {
				mm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
			}
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}

	return fkManager.AddAllForeignKeys(ctx, db)
}

// InitData seeds initial data outside of the migration flow.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return mm.seedInitialData(ctx, mm.db)
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	seeder := NewSQLInitManager(mm.db, mm.environment)
	if globalConfig != nil && globalConfig.DataInitConfig.Filepath != "" {
		seeder.SetSQLRootPath(globalConfig.DataInitConfig.Filepath)
	}
	if err := seeder.ExecuteInitialization(); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// RollbackMigration is currently not implemented.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	return fmt.Errorf("migration rollback is not implemented yet")
}
