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

// Package sandbox exposes a per-entity service facade over the generic
// repository and the transaction-scope API.
package sandbox

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/suzuito/sb-data-sandbox/database"
	"github.com/suzuito/sb-data-sandbox/repository"
	"github.com/suzuito/sb-data-sandbox/types"
)

type Service[T any] interface {
	// Save persists the entity, choosing INSERT or UPDATE per the entity's
	// newness, and returns the persisted entity.
	Save(ctx context.Context, entity *T) (*T, error)

	// Find returns the entity by identifier; a missing row is (nil, false,
	// nil).
	Find(ctx context.Context, id any) (*T, bool, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Query executes a raw query and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Update modifies an existing entity by primary key.
	Update(ctx context.Context, entity *T) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// DeleteAll removes every entity of this type.
	DeleteAll(ctx context.Context) error

	// SaveWithTx persists the entity within an existing transaction.
	SaveWithTx(ctx context.Context, tx *bun.Tx, entity *T) (*T, error)

	// UpdateWithTx updates an entity within a transaction.
	UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error

	// DeleteWithTx removes an entity within a transaction.
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error

	// DeleteAllWithTx removes every entity of this type within a
	// transaction.
	DeleteAllWithTx(ctx context.Context, tx *bun.Tx) error

	// Transaction runs fn in a transaction scope: commit on nil return,
	// rollback on error or panic.
	Transaction(ctx context.Context, fn database.TxFunc) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type entityService[T any] struct {
	once    sync.Once
	backing repository.Repository[T]
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection.
func NewService[T any]() Service[T] {
	return new(entityService[T])
}

func (s *entityService[T]) repo() repository.Repository[T] {
	s.once.Do(func() { s.backing = repository.NewRepository[T](database.GetDB()) })
	return s.backing
}

func (s *entityService[T]) Save(ctx context.Context, entity *T) (*T, error) {
	return s.repo().Save(ctx, entity)
}

func (s *entityService[T]) Find(ctx context.Context, id any) (*T, bool, error) {
	return s.repo().Find(ctx, id)
}

func (s *entityService[T]) All(ctx context.Context) ([]*T, error) {
	return s.repo().GetAll(ctx)
}

func (s *entityService[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.repo().List(ctx, filter)
}

func (s *entityService[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return s.repo().Query(ctx, query, args...)
}

func (s *entityService[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.repo().Page(ctx, page)
}

func (s *entityService[T]) Update(ctx context.Context, entity *T) error {
	return s.repo().Update(ctx, entity)
}

func (s *entityService[T]) Delete(ctx context.Context, id any) error {
	return s.repo().Delete(ctx, id)
}

func (s *entityService[T]) DeleteAll(ctx context.Context) error {
	return s.repo().DeleteAll(ctx)
}

func (s *entityService[T]) SaveWithTx(ctx context.Context, tx *bun.Tx, entity *T) (*T, error) {
	return s.repo().SaveWithTx(ctx, tx, entity)
}

func (s *entityService[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	return s.repo().UpdateWithTx(ctx, tx, entity)
}

func (s *entityService[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	return s.repo().DeleteWithTx(ctx, tx, id)
}

func (s *entityService[T]) DeleteAllWithTx(ctx context.Context, tx *bun.Tx) error {
	return s.repo().DeleteAllWithTx(ctx, tx)
}

func (s *entityService[T]) Transaction(ctx context.Context, fn database.TxFunc) error {
	return database.Transaction(ctx, fn)
}

func (s *entityService[T]) SelectBuilder() *bun.SelectQuery {
	return s.repo().NewSelect()
}

func (s *entityService[T]) InsertBuilder() *bun.InsertQuery {
	return s.repo().NewInsert()
}

func (s *entityService[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.repo().NewUpdate()
}

func (s *entityService[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.repo().NewDelete()
}
