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
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SQLInitManager seeds data from SQL files. Files live under a root
// directory in two groups: common/ runs for every environment, then
// environments/<name>/ runs for the configured one. Within a group an
// NNN_ filename prefix fixes the order.
type SQLInitManager struct {
	db          *bun.DB
	environment string
	sqlRootPath string
	logger      Logger
}

// SQLFileInfo describes one discovered seed file.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// NewSQLInitManager creates a SQL initializer for the given environment.
func NewSQLInitManager(db *bun.DB, environment string) *SQLInitManager {
	return &SQLInitManager{
		db:          db,
		environment: environment,
		sqlRootPath: "configs/sql",
		logger:      GetLogger(),
	}
}

// SetSQLRootPath sets the root directory from which SQL files are loaded.
func (s *SQLInitManager) SetSQLRootPath(path string) {
	s.sqlRootPath = path
}

// ExecuteInitialization runs every discovered SQL file in order. Each file
// executes inside its own transaction scope, so a bad file rolls back as a
// unit without undoing the files before it.
func (s *SQLInitManager) ExecuteInitialization() error {
	s.logger.Info("Starting SQL initialization", "environment", s.environment, "sql_path", s.sqlRootPath)

	files, err := s.GetSQLFiles()
	if err != nil {
		return fmt.Errorf("failed to collect SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL files found to execute")
		return nil
	}

	for _, file := range files {
		start := time.Now()
		rows, err := s.executeFile(context.Background(), file)
		if err != nil {
			s.logger.Error("SQL file execution failed", "file", file.Path, "error", err.Error())
			return fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
		}
		s.logger.Info("SQL file executed",
			"file", file.Path,
			"duration", time.Since(start).String(),
			"rows_affected", rows,
		)
	}

	s.logger.Info("SQL initialization completed", "total_files", len(files), "environment", s.environment)
	return nil
}

// GetSQLFiles returns the seed files in execution order: common first, then
// the configured environment, each group sorted by its numeric prefix.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	var files []SQLFileInfo
	dirs := map[string]string{
		"common":      filepath.Join(s.sqlRootPath, "common"),
		s.environment: filepath.Join(s.sqlRootPath, "environments", s.environment),
	}

	for group, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		found, err := collectSQLFiles(dir, group)
		if err != nil {
			return nil, fmt.Errorf("failed to read SQL directory %s: %w", dir, err)
		}
		files = append(files, found...)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == "common"
		}
		return files[i].Order < files[j].Order
	})
	return files, nil
}

func collectSQLFiles(dir, group string) ([]SQLFileInfo, error) {
	var files []SQLFileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		files = append(files, SQLFileInfo{
			Path:        path,
			Name:        d.Name(),
			Order:       orderOf(d.Name()),
			Environment: group,
		})
		return nil
	})
	return files, err
}

// orderOf parses the NNN_ prefix; files without one run last.
func orderOf(filename string) int {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 999
	}
	order, err := strconv.Atoi(prefix)
	if err != nil {
		return 999
	}
	return order
}

func (s *SQLInitManager) executeFile(ctx context.Context, file SQLFileInfo) (int64, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitSQLStatements(string(content))
	if len(statements) == 0 {
		return 0, nil
	}

	var total int64
	err = RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, err := tx.ExecContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("failed to execute statement %q: %w", stmt, err)
			}
			if rows, err := res.RowsAffected(); err == nil {
				total += rows
			}
		}
		return nil
	})
	return total, err
}

// splitSQLStatements breaks a file into ";"-terminated statements, dropping
// blank lines and "--" comments. Semicolons inside string literals are not
// handled; seed files keep statements one per terminator.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString(" ")
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()

	return statements
}
