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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/suzuito/sb-data-sandbox/models"
	"github.com/suzuito/sb-data-sandbox/repository"
)

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// Statements are matched against the mock in order, so a save that issued the
// wrong statement type fails the expectation.
func TestSaveDispatchesUpdateForExistingEntity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRepository[models.User](db)

	mock.ExpectExec(`^UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	user := models.NewUser("user-1", "alice")
	_, err := repo.Save(context.Background(), user)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteIssuesSingleRowDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRepository[models.User](db)

	mock.ExpectExec(`^DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAllIssuesUnscopedDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRepository[models.AccessLog](db)

	mock.ExpectExec(`^DELETE FROM "access_logs"`).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
