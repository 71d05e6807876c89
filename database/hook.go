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
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var sqlLogSilentMode bool

// EnableSqlLogSilent suppresses query log hooks, e.g. while migrations run.
func EnableSqlLogSilent(b bool) {
	sqlLogSilentMode = b
}

var statementColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var (
	tagColor      = color.New(color.FgCyan)
	fallbackColor = color.New(color.FgRed)
	errColor      = color.New(color.BgRed)
)

// QueryHook prints executed statements with the statement type colorized.
// The controlling env var overrides the construction-time settings at each
// query: unset keeps them, "0" or empty disables, "2" logs every statement,
// any other value logs failures only.
type QueryHook struct {
	envName string
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook creates a query log hook controlled by the given env var.
func NewQueryHook(envName string, verbose bool, writer io.Writer) *QueryHook {
	if writer == nil {
		writer = os.Stdout
	}
	return &QueryHook{envName: envName, verbose: verbose, writer: writer}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlLogSilentMode {
		return
	}

	enabled, verbose := true, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}

	// Without verbose, only real failures are worth a line. A missing row
	// and a finished transaction are normal outcomes.
	failed := event.Err != nil &&
		!errors.Is(event.Err, sql.ErrNoRows) &&
		!errors.Is(event.Err, sql.ErrTxDone)
	if !verbose && !failed {
		return
	}

	now := time.Now()
	stmtColor, ok := statementColors[event.Operation()]
	if !ok {
		stmtColor = fallbackColor
	}

	_, _ = fmt.Fprintf(h.writer, "%s %s %17s   %s",
		now.Format("2006-01-02 15:04:05.000"),
		tagColor.Sprintf("%10s", "[SQL]"),
		now.Sub(event.StartTime).Round(time.Microsecond),
		stmtColor.Sprint(event.Query),
	)
	if event.Err != nil {
		_, _ = fmt.Fprintf(h.writer, "\t%s",
			errColor.Sprintf(" %s: %s ", reflect.TypeOf(event.Err), event.Err.Error()),
		)
	}
	_, _ = fmt.Fprintln(h.writer)
}

// RecordingHook captures the operation and text of every executed statement.
// It backs assertions about which statement type a save operation chose.
type RecordingHook struct {
	mu      sync.Mutex
	ops     []string
	queries []string
}

var _ bun.QueryHook = (*RecordingHook)(nil)

func (h *RecordingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *RecordingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, event.Operation())
	h.queries = append(h.queries, event.Query)
}

// Operations returns the recorded statement types in execution order.
func (h *RecordingHook) Operations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ops := make([]string, len(h.ops))
	copy(ops, h.ops)
	return ops
}

// Queries returns the recorded statement texts in execution order.
func (h *RecordingHook) Queries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	queries := make([]string, len(h.queries))
	copy(queries, h.queries)
	return queries
}

// Reset discards everything recorded so far.
func (h *RecordingHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
	h.queries = nil
}
