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

// Article is a row in articles. AuthorID references users.id as a plain
// value field; the constraint itself is added by migration, not enforced
// here. Like User, the client-assigned key needs the transient ForceInsert
// flag to select the statement type.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID          string     `bun:"id,pk,type:varchar(64)" json:"id"`
	Head        string     `bun:"head,notnull" json:"head"`
	Description string     `bun:"description" json:"description"`
	AuthorID    string     `bun:"author_id,notnull,type:varchar(64)" json:"author_id"`
	PublishedAt *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt   *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`

	ForceInsert bool `bun:"-" json:"-"`
}

var (
	_ types.Persistable    = (*Article)(nil)
	_ bun.AfterScanRowHook = (*Article)(nil)
)

// NewArticle constructs an article with the given client-assigned identifier
// authored by the given user. The force-insert flag defaults to false.
func NewArticle(id, head, description, authorID string) *Article {
	now := time.Now()
	return &Article{
		ID:          id,
		Head:        head,
		Description: description,
		AuthorID:    authorID,
		PublishedAt: &now,
	}
}

// MarkNew flags the article for insertion and returns it for chaining.
func (a *Article) MarkNew() *Article {
	a.ForceInsert = true
	return a
}

// IsNew reports the explicit force-insert flag.
func (a *Article) IsNew() bool {
	return a.ForceInsert
}

// AfterScanRow resets the flag on reconstruction from storage.
func (a *Article) AfterScanRow(ctx context.Context) error {
	a.ForceInsert = false
	return nil
}

// Touch updates the modification timestamp.
func (a *Article) Touch() {
	now := time.Now()
	a.UpdatedAt = &now
}
