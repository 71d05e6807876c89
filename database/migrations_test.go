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

package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/suzuito/sb-data-sandbox/database"
	"github.com/suzuito/sb-data-sandbox/models"
)

func newMigrationTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "migrations.db")
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrationsCreatesRegisteredTables(t *testing.T) {
	db := newMigrationTestDB(t)
	ctx := context.Background()

	mm := database.NewMigrationManager(db, nil)
	require.NoError(t, mm.RunMigrations(ctx))

	// Every registered table accepts rows afterwards.
	_, err := db.NewInsert().Model(models.NewAccessLog("migrated")).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(models.NewUser("user-1", "alice").MarkNew()).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(models.NewArticle("article-1", "head", "body", "user-1").MarkNew()).Exec(ctx)
	require.NoError(t, err)

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	require.Equal(t, "001", applied[0].Version)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newMigrationTestDB(t)
	ctx := context.Background()

	mm := database.NewMigrationManager(db, nil)
	require.NoError(t, mm.RunMigrations(ctx))

	first, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)

	// A second run records nothing new.
	require.NoError(t, mm.RunMigrations(ctx))
	second, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
}

func TestRollbackMigrationNotImplemented(t *testing.T) {
	db := newMigrationTestDB(t)
	mm := database.NewMigrationManager(db, nil)
	require.Error(t, mm.RollbackMigration(context.Background(), "001"))
}
