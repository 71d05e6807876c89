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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const configYAML = `
connection:
  type: sqlite
  dbname: sandbox
  pool:
    max_idle_conns: 5
    max_open_conns: 20
migrate:
  enable_migrate_on_startup: true
  enable_foreign_key: true
  foreign_key_file: configs/foreign-keys.yaml
init:
  auto_init_on_migration: true
  filepath: configs/sql
  environment: development
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempFile(t, "config.yaml", configYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	require.Equal(t, "sandbox", cfg.ConnectionConfig.DBName)
	require.Equal(t, 5, cfg.ConnectionConfig.Pool.MaxIdleConns)
	require.Equal(t, 20, cfg.ConnectionConfig.Pool.MaxOpenConns)
	require.True(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
	require.True(t, cfg.DataMigrateConfig.EnableForeignKey)
	require.Equal(t, "configs/foreign-keys.yaml", cfg.DataMigrateConfig.ForeignKeyFile)
	require.True(t, cfg.DataInitConfig.AutoInitOnMigration)
	require.Equal(t, "development", cfg.DataInitConfig.Environment)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeTempFile(t, "bad.yaml", "connection: [not a mapping")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigurableForeignKeyManagerFromYAML(t *testing.T) {
	path := writeTempFile(t, "foreign-keys.yaml", `
foreign_keys:
  - table: articles
    column: author_id
    reference_table: users
    reference_column: id
    on_delete: CASCADE
    on_update: CASCADE
    constraint_name: fk_articles_author_id
`)

	manager, err := NewConfigurableForeignKeyManager(nil, path)
	require.NoError(t, err)
	require.Equal(t, path, manager.GetConfigPath())

	constraints := manager.ListAllConstraints()
	require.Len(t, constraints, 1)
	require.Equal(t, "articles", constraints[0].Table)
	require.Equal(t, "CASCADE", constraints[0].OnDelete)
	require.Empty(t, manager.ValidateConstraints())
}

func TestConfigurableForeignKeyManagerFallsBackToDefaults(t *testing.T) {
	manager, err := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	constraints := manager.ListAllConstraints()
	require.NotEmpty(t, constraints)
	require.Equal(t, "articles", constraints[0].Table)
	require.Equal(t, "users", constraints[0].ReferenceTable)
}

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()
	require.Equal(t, 10, cfg.Pool.MaxIdleConns)
	require.Equal(t, 100, cfg.Pool.MaxOpenConns)
	require.True(t, cfg.Keepalive.EnableReconnect)
}
