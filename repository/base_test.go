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

package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/suzuito/sb-data-sandbox/database"
	"github.com/suzuito/sb-data-sandbox/models"
	"github.com/suzuito/sb-data-sandbox/repository"
	"github.com/suzuito/sb-data-sandbox/types"
)

func newTestDB(t *testing.T) (*bun.DB, *database.RecordingHook) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "sandbox.db")
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	recorder := &database.RecordingHook{}
	db.AddQueryHook(recorder)

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.AccessLog)(nil),
		(*models.User)(nil),
		(*models.Article)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	recorder.Reset()

	return db, recorder
}

func lastOperation(t *testing.T, recorder *database.RecordingHook) string {
	t.Helper()
	ops := recorder.Operations()
	require.NotEmpty(t, ops)
	return ops[len(ops)-1]
}

func TestSaveInsertsWhenIdentifierIsUnassigned(t *testing.T) {
	db, recorder := newTestDB(t)
	repo := repository.NewRepository[models.AccessLog](db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, models.NewAccessLog("first visit"))
	require.NoError(t, err)
	require.Equal(t, "INSERT", lastOperation(t, recorder))
	require.NotZero(t, saved.ID, "the database-assigned identifier must be written back")

	// The entity now carries its key, so a second save updates in place.
	recorder.Reset()
	saved.Message = "first visit, amended"
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)
	require.Equal(t, "UPDATE", lastOperation(t, recorder))

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "first visit, amended", rows[0].Message)
}

func TestSaveForceInsertDespitePopulatedIdentifier(t *testing.T) {
	db, recorder := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	user := models.NewUser("user-1", "alice").MarkNew()
	_, err := repo.Save(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "INSERT", lastOperation(t, recorder))

	got, found, err := repo.Find(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", got.Name)
}

func TestSaveUpdatesWhenFlagIsUnset(t *testing.T) {
	db, recorder := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	_, err := repo.Save(ctx, models.NewUser("user-1", "alice").MarkNew())
	require.NoError(t, err)

	// Same identifier, flag left at its default: the save must update the
	// existing row, not insert a second one.
	recorder.Reset()
	replacement := models.NewUser("user-1", "bob")
	_, err = repo.Save(ctx, replacement)
	require.NoError(t, err)
	require.Equal(t, "UPDATE", lastOperation(t, recorder))

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "bob", rows[0].Name)
}

func TestSaveDuplicateKeySurfacesAsFailure(t *testing.T) {
	db, _ := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	_, err := repo.Save(ctx, models.NewUser("user-1", "alice").MarkNew())
	require.NoError(t, err)

	_, err = repo.Save(ctx, models.NewUser("user-1", "alice again").MarkNew())
	require.Error(t, err)
	require.True(t, database.IsDuplicateKeyError(err))
}

func TestFindResetsForceInsertFlag(t *testing.T) {
	db, _ := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	_, err := repo.Save(ctx, models.NewUser("user-1", "alice").MarkNew())
	require.NoError(t, err)

	got, found, err := repo.Find(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, got.IsNew(), "a reconstituted entity is never new")
}

func TestFindMissingRowIsNotAnError(t *testing.T) {
	db, _ := newTestDB(t)
	repo := repository.NewRepository[models.User](db)

	got, found, err := repo.Find(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)
}

func TestDeleteAll(t *testing.T) {
	db, _ := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	_, err := repo.Save(ctx, models.NewUser("user-1", "alice").MarkNew())
	require.NoError(t, err)
	_, err = repo.Save(ctx, models.NewUser("user-2", "bob").MarkNew())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAll(ctx))

	rows, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestListAndPage(t *testing.T) {
	db, _ := newTestDB(t)
	repo := repository.NewRepository[models.User](db)
	ctx := context.Background()

	for _, u := range []*models.User{
		models.NewUser("user-1", "alice"),
		models.NewUser("user-2", "bob"),
		models.NewUser("user-3", "carol"),
	} {
		_, err := repo.Save(ctx, u.MarkNew())
		require.NoError(t, err)
	}

	listed, err := repo.List(ctx, types.NewQueryFilter("name = ?", "bob"))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "user-2", listed[0].ID)

	page, err := repo.Page(ctx, types.NewPageRequest(1, 2, nil, []string{"id ASC"}))
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, "user-1", page.Items[0].ID)
}

func TestSaveWithTxScopeCommit(t *testing.T) {
	db, _ := newTestDB(t)
	users := repository.NewRepository[models.User](db)
	articles := repository.NewRepository[models.Article](db)
	ctx := context.Background()

	// Two saves, normal return: both rows are visible after the scope.
	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := users.SaveWithTx(ctx, &tx, models.NewUser("user-1", "alice").MarkNew()); err != nil {
			return err
		}
		_, err := articles.SaveWithTx(ctx, &tx, models.NewArticle("article-1", "head", "body", "user-1").MarkNew())
		return err
	})
	require.NoError(t, err)

	_, found, err := users.Find(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)

	_, found, err = articles.Find(ctx, "article-1")
	require.NoError(t, err)
	require.True(t, found)
}

func TestSaveWithTxScopeRollback(t *testing.T) {
	db, _ := newTestDB(t)
	users := repository.NewRepository[models.User](db)
	ctx := context.Background()

	failure := errors.New("boom")
	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := users.SaveWithTx(ctx, &tx, models.NewUser("user-1", "alice").MarkNew()); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	// Nothing from the failed scope is visible.
	_, found, err := users.Find(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, found)
}
