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
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// SQLError classifies a driver failure. Constraint violations are surfaced
// to the caller as-is and never retried; classification only helps callers
// decide what the failure means.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
)

var mysqlErrKinds = map[uint16]SQLError{
	1054: NoColumnErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1050: ExistTableErr,
	1146: NoTableErr,
}

var pgErrKinds = map[pq.ErrorCode]SQLError{
	"42703": NoColumnErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
}

// messageKinds is the fallback for drivers without typed errors, notably
// sqlite. Matched in order against the lowercased message.
var messageKinds = []struct {
	substrings []string
	kind       SQLError
}{
	{[]string{"undefined column", "no such column"}, NoColumnErr},
	{[]string{"undefined table", "no such table"}, NoTableErr},
	{[]string{"table already exists", "relation already exists"}, ExistTableErr},
	{[]string{"duplicate key value", "unique constraint failed", "sqlstate 23505"}, DuplicateKeyErr},
	{[]string{"not-null constraint", "not null constraint failed", "sqlstate 23502"}, NotNullViolationErr},
	{[]string{"foreign key violation", "foreign key constraint failed", "sqlstate 23503"}, ForeignKeyViolationErr},
	{[]string{"check constraint", "sqlstate 23514"}, CheckConstraintViolationErr},
	{[]string{"string data right truncation", "data truncated"}, DataTruncatedErr},
}

// IsSqlError reports whether err came from the database and classifies it.
// MySQL errors classify by number, Postgres by SQLSTATE, everything else by
// message text.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, mysqlErrKinds[mysqlErr.Number]
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, pgErrKinds[pqErr.Code]
	}

	msg := strings.ToLower(err.Error())
	for _, entry := range messageKinds {
		for _, sub := range entry.substrings {
			if strings.Contains(msg, sub) {
				return true, entry.kind
			}
		}
	}
	return false, UnknownErr
}

// IsDuplicateKeyError reports whether err is a unique/primary key violation.
func IsDuplicateKeyError(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == DuplicateKeyErr
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == ForeignKeyViolationErr
}

// IsNotNullViolation reports whether err is a not-null violation.
func IsNotNullViolation(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == NotNullViolationErr
}
