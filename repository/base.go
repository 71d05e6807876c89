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

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/suzuito/sb-data-sandbox/types"
)

type bunRepository[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &bunRepository[T]{db: db}
}

func (r *bunRepository[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *bunRepository[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *bunRepository[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *bunRepository[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *bunRepository[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

// saveEntity chooses the statement type before touching the database, so
// insert-vs-update never depends on conflict resolution in the database.
func saveEntity[T any](ctx context.Context, db bun.IDB, entity *T) (*T, error) {
	var err error
	switch types.SaveModeFor(any(entity)) {
	case types.SaveModeUpdate:
		_, err = db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	default:
		// Database-assigned keys are written back into the entity here.
		_, err = db.NewInsert().Model(entity).Exec(ctx)
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *bunRepository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	return saveEntity(ctx, r.db, entity)
}

func (r *bunRepository[T]) Find(ctx context.Context, id any) (*T, bool, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("id = ?", id).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return entity, true, nil
}

// selectWhere scans all rows matching an optional filter.
func (r *bunRepository[T]) selectWhere(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	var entities []*T
	q := r.db.NewSelect().Model(&entities)
	if filter != nil {
		q = q.Where(filter.Schema, filter.Args...)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *bunRepository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.selectWhere(ctx, nil)
}

func (r *bunRepository[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return r.selectWhere(ctx, filter)
}

func (r *bunRepository[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return r.selectWhere(ctx, types.NewQueryFilter(query, args...))
}

func (r *bunRepository[T]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	q := r.db.NewSelect().Model(&entities)
	if f := req.GetFilter(); f != nil {
		q = q.Where(f.Schema, f.Args...)
	}

	page := types.NewDefaultPagination[T](req.GetPage(), req.GetPageSize())
	total, err := q.Count(ctx)
	if err != nil || total == 0 {
		return page, err
	}

	err = q.
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		Order(req.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.Items = entities
	return page, nil
}

func (r *bunRepository[T]) Create(ctx context.Context, entities ...*T) error {
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *bunRepository[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *bunRepository[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model(new(T)).Where("id = ?", id).Exec(ctx)
	return err
}

// DeleteAll keeps the explicit predicate Bun requires for unscoped deletes.
func (r *bunRepository[T]) DeleteAll(ctx context.Context) error {
	_, err := r.db.NewDelete().Model(new(T)).Where("1 = 1").Exec(ctx)
	return err
}

func (r *bunRepository[T]) SaveWithTx(ctx context.Context, tx *bun.Tx, entity *T) (*T, error) {
	return saveEntity(ctx, tx, entity)
}

func (r *bunRepository[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, entities ...*T) error {
	_, err := tx.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *bunRepository[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *bunRepository[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	_, err := tx.NewDelete().Model(new(T)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *bunRepository[T]) DeleteAllWithTx(ctx context.Context, tx *bun.Tx) error {
	_, err := tx.NewDelete().Model(new(T)).Where("1 = 1").Exec(ctx)
	return err
}
