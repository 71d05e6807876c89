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
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type txRecord struct {
	bun.BaseModel `bun:"table:tx_records"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Value string `bun:"value"`
}

func newTxTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "tx.db")
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*txRecord)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)
	return db
}

func countRecords(t *testing.T, db *bun.DB) int {
	t.Helper()
	count, err := db.NewSelect().Model((*txRecord)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestRunInTxCommitsOnNilReturn(t *testing.T) {
	db := newTxTestDB(t)
	ctx := context.Background()

	err := RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		for _, v := range []string{"a", "b"} {
			if _, err := tx.NewInsert().Model(&txRecord{Value: v}).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, countRecords(t, db))
}

func TestRunInTxCommitsOnEarlyReturn(t *testing.T) {
	db := newTxTestDB(t)
	ctx := context.Background()

	// A nil return before the scope body finishes still commits what ran.
	err := RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&txRecord{Value: "a"}).Exec(ctx); err != nil {
			return err
		}
		exists, err := tx.NewSelect().Model((*txRecord)(nil)).Where("value = ?", "a").Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = tx.NewInsert().Model(&txRecord{Value: "never"}).Exec(ctx)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRecords(t, db))
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := newTxTestDB(t)
	ctx := context.Background()

	failure := errors.New("scope failed")
	err := RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&txRecord{Value: "a"}).Exec(ctx); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.Equal(t, 0, countRecords(t, db))
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	db := newTxTestDB(t)
	ctx := context.Background()

	require.PanicsWithValue(t, "scope panicked", func() {
		_ = RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewInsert().Model(&txRecord{Value: "a"}).Exec(ctx); err != nil {
				return err
			}
			panic("scope panicked")
		})
	})
	require.Equal(t, 0, countRecords(t, db))
}

func TestRunInTxNilDatabase(t *testing.T) {
	err := RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		return nil
	})
	require.Error(t, err)
}
