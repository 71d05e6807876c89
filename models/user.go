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
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/suzuito/sb-data-sandbox/types"
)

// User is a row in users. The identifier is client-assigned, so key presence
// says nothing about whether the row exists; ForceInsert carries the
// insert-vs-update decision instead. The flag has no column and must never
// reach storage.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string     `bun:"id,pk,type:varchar(64)" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	CreatedAt *time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`

	// ForceInsert is transient. True forces an INSERT even though ID is
	// populated; false (the default) selects an UPDATE.
	ForceInsert bool `bun:"-" json:"-"`
}

var (
	_ types.Persistable    = (*User)(nil)
	_ bun.AfterScanRowHook = (*User)(nil)
)

// NewUser constructs a user with the given client-assigned identifier. The
// force-insert flag defaults to false.
func NewUser(id, name string) *User {
	now := time.Now()
	return &User{
		ID:        id,
		Name:      name,
		CreatedAt: &now,
	}
}

// MarkNew flags the user for insertion and returns it for chaining.
func (u *User) MarkNew() *User {
	u.ForceInsert = true
	return u
}

// IsNew reports the explicit force-insert flag.
func (u *User) IsNew() bool {
	return u.ForceInsert
}

// AfterScanRow is the reconstruction path for rows read from storage. Rows
// carry no column for the flag, so a reconstituted user is never new.
func (u *User) AfterScanRow(ctx context.Context) error {
	u.ForceInsert = false
	return nil
}

// Touch updates the modification timestamp.
func (u *User) Touch() {
	now := time.Now()
	u.UpdatedAt = &now
}
