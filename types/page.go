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

package types

// QueryFilter is a WHERE clause fragment with its bind arguments.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter builds a filter from a clause like "name = ?" and its args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

const defaultPageSize = 20

// PageRequest describes one page of a listing: a 1-based page number, a page
// size, and optionally a filter and ORDER BY terms such as "created_at DESC".
// Out-of-range numbers are normalized at construction, so a PageRequest is
// always valid once built.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string
}

// NewPageRequest builds a normalized page request. Page numbers below 1
// become page 1 and sizes below 1 fall back to the default size.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, orders: orders}
}

// NewDefaultPageRequest builds a page request without filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

func (p *PageRequest) GetPage() int { return p.page }

func (p *PageRequest) GetPageSize() int { return p.pageSize }

// GetOffset converts the 1-based page number into a row offset.
func (p *PageRequest) GetOffset() int { return (p.page - 1) * p.pageSize }

func (p *PageRequest) GetFilter() *QueryFilter { return p.filter }

func (p *PageRequest) GetOrders() []string { return p.orders }

// Pagination is one page of results plus the total row count across all
// pages.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination builds an empty page, used when a listing matches no
// rows.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, Items: make([]*T, 0)}
}
