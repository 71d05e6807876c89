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
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsSqlErrorMySQL(t *testing.T) {
	cases := []struct {
		number uint16
		want   SQLError
	}{
		{1054, NoColumnErr},
		{1062, DuplicateKeyErr},
		{1048, NotNullViolationErr},
		{1451, ForeignKeyViolationErr},
		{1452, ForeignKeyViolationErr},
		{3819, CheckConstraintViolationErr},
		{1265, DataTruncatedErr},
		{1050, ExistTableErr},
		{1146, NoTableErr},
		{9999, UnknownErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(&mysql.MySQLError{Number: c.number, Message: "test"})
		require.True(t, is, "number %d", c.number)
		require.Equal(t, c.want, kind, "number %d", c.number)
	}
}

func TestIsSqlErrorPostgres(t *testing.T) {
	cases := []struct {
		code pq.ErrorCode
		want SQLError
	}{
		{"42703", NoColumnErr},
		{"42P01", NoTableErr},
		{"42P07", ExistTableErr},
		{"23505", DuplicateKeyErr},
		{"23502", NotNullViolationErr},
		{"23503", ForeignKeyViolationErr},
		{"23514", CheckConstraintViolationErr},
		{"22001", DataTruncatedErr},
		{"57014", UnknownErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(&pq.Error{Code: c.code})
		require.True(t, is, "code %s", c.code)
		require.Equal(t, c.want, kind, "code %s", c.code)
	}
}

func TestIsSqlErrorSqliteMessages(t *testing.T) {
	cases := []struct {
		message string
		want    SQLError
	}{
		{"constraint failed: UNIQUE constraint failed: users.id (1555)", DuplicateKeyErr},
		{"constraint failed: NOT NULL constraint failed: articles.author_id (1299)", NotNullViolationErr},
		{"constraint failed: FOREIGN KEY constraint failed (787)", ForeignKeyViolationErr},
		{"no such table: nowhere", NoTableErr},
		{"no such column: nope", NoColumnErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(errors.New(c.message))
		require.True(t, is, c.message)
		require.Equal(t, c.want, kind, c.message)
	}
}

func TestIsSqlErrorUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("saving user: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	require.True(t, IsDuplicateKeyError(wrapped))
}

func TestIsSqlErrorNilAndUnrelated(t *testing.T) {
	is, kind := IsSqlError(nil)
	require.False(t, is)
	require.Equal(t, UnknownErr, kind)

	is, _ = IsSqlError(errors.New("connection refused"))
	require.False(t, is)
}

func TestClassificationHelpers(t *testing.T) {
	require.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	require.True(t, IsNotNullViolation(&mysql.MySQLError{Number: 1048}))
	require.False(t, IsDuplicateKeyError(errors.New("timeout")))
}
