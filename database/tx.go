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
	"fmt"

	"github.com/uptrace/bun"
)

// TxFunc is the body of a transaction scope. Returning nil commits,
// returning an error rolls back.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// RunInTx runs fn inside a transaction scope. The transaction begins on
// entry and commits exactly once when fn returns nil, no matter how many
// operations ran inside; an early nil return commits what was done so far.
// An error return or a panic rolls back every operation since the begin, and
// a panic is re-raised after the rollback. The connection with the open
// transaction is released on every exit path.
func RunInTx(ctx context.Context, db *bun.DB, fn TxFunc) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var committed bool
	defer func() {
		if committed {
			return
		}
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			GetLogger().Error("Failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Transaction runs fn against the global database connection.
func Transaction(ctx context.Context, fn TxFunc) error {
	return RunInTx(ctx, GetDB(), fn)
}
