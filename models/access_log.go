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

package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/suzuito/sb-data-sandbox/types"
)

// AccessLog is a row in access_logs. The identifier is assigned by the
// database on insert; a zero identifier marks the entity as not yet
// persisted.
type AccessLog struct {
	bun.BaseModel `bun:"table:access_logs,alias:al"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Message   string    `bun:"message,notnull" json:"message"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

var _ types.Persistable = (*AccessLog)(nil)

// NewAccessLog constructs an unsaved access log with the creation timestamp
// defaulted to now.
func NewAccessLog(message string) *AccessLog {
	return &AccessLog{
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// IsNew reports whether the row still lacks a database-assigned identifier.
func (l *AccessLog) IsNew() bool {
	return l.ID == 0
}
