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
	"fmt"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	ConstraintName  string
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement to add the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.GenerateConstraintName(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
	if fk.OnDelete != "" {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	return b.String()
}

// ForeignKeyManager manages adding and validating foreign key constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager with code-defined constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{
		constraints: getForeignKeyConstraints(),
		logger:      logger,
	}
}

// The articles.author_id reference is the only relationship in the sandbox
// schema. Referential integrity lives in the database, not in entity code.
func getForeignKeyConstraints() []ForeignKeyConstraint {
	return []ForeignKeyConstraint{
		{
			Table:           "articles",
			Column:          "author_id",
			ReferenceTable:  "users",
			ReferenceColumn: "id",
			OnDelete:        "RESTRICT",
			OnUpdate:        "CASCADE",
		},
	}
}

// AddAllForeignKeys adds every constraint, logging and skipping the ones a
// dialect rejects. sqlite cannot ALTER TABLE ADD CONSTRAINT, so failures are
// not fatal there.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	for _, constraint := range fkm.constraints {
		name := constraint.GenerateConstraintName()
		if _, err := db.ExecContext(ctx, constraint.GenerateSQL()); err != nil {
			if fkm.logger != nil {
				fkm.logger.Debug("Skipped foreign key constraint", "constraint", name, "error", err.Error())
			}
			continue
		}
		if fkm.logger != nil {
			fkm.logger.Debug("Added foreign key constraint", "constraint", name)
		}
	}
	return nil
}

// RemoveForeignKey drops a named foreign key from a table.
func (fkm *ForeignKeyManager) RemoveForeignKey(ctx context.Context, db bun.IDB, tableName, constraintName string) error {
	sql := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", tableName, constraintName)
	_, err := db.ExecContext(ctx, sql)
	return err
}

// GetConstraintsByTable returns the constraints defined for a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

// ListAllConstraints returns all configured constraints.
func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

var validReferentialActions = map[string]bool{
	"CASCADE":   true,
	"RESTRICT":  true,
	"SET NULL":  true,
	"NO ACTION": true,
}

// ValidateConstraints checks the configured constraints for common issues.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error

	for _, c := range fkm.constraints {
		if c.Table == "" {
			errs = append(errs, fmt.Errorf("table name cannot be empty"))
		}
		if c.Column == "" {
			errs = append(errs, fmt.Errorf("column name cannot be empty: %s", c.Table))
		}
		if c.ReferenceTable == "" {
			errs = append(errs, fmt.Errorf("reference table name cannot be empty: %s.%s", c.Table, c.Column))
		}
		if c.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", c.Table, c.Column, c.ReferenceTable))
		}
		for _, action := range []string{c.OnDelete, c.OnUpdate} {
			if action != "" && !validReferentialActions[strings.ToUpper(action)] {
				errs = append(errs, fmt.Errorf("invalid referential action: %s, constraint: %s", action, c.GenerateConstraintName()))
			}
		}
	}

	return errs
}

// ForeignKeyConfig is the YAML document that lists foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraintConfig `yaml:"foreign_keys"`
}

// ForeignKeyConstraintConfig is one constraint as written in YAML.
type ForeignKeyConstraintConfig struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"`
	OnUpdate        string `yaml:"on_update"`
	ConstraintName  string `yaml:"constraint_name"`
	Description     string `yaml:"description"`
}

// ToForeignKeyConstraint converts the config entry into a runtime constraint.
func (fkc *ForeignKeyConstraintConfig) ToForeignKeyConstraint() ForeignKeyConstraint {
	return ForeignKeyConstraint{
		Table:           fkc.Table,
		Column:          fkc.Column,
		ReferenceTable:  fkc.ReferenceTable,
		ReferenceColumn: fkc.ReferenceColumn,
		OnDelete:        fkc.OnDelete,
		OnUpdate:        fkc.OnUpdate,
		ConstraintName:  fkc.ConstraintName,
	}
}

func loadConstraintsFile(path string) ([]ForeignKeyConstraint, error) {
	if path == "" {
		return nil, fmt.Errorf("no foreign key config file given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign key config: %w", err)
	}

	var cfg ForeignKeyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foreign key config: %w", err)
	}

	constraints := make([]ForeignKeyConstraint, 0, len(cfg.ForeignKeys))
	for _, entry := range cfg.ForeignKeys {
		constraints = append(constraints, entry.ToForeignKeyConstraint())
	}
	return constraints, nil
}

// ConfigurableForeignKeyManager is a ForeignKeyManager whose constraints come
// from a YAML file, with the code-defined set as fallback.
type ConfigurableForeignKeyManager struct {
	*ForeignKeyManager
	configPath string
}

// NewConfigurableForeignKeyManager loads constraints from configPath. When
// the file is missing or unreadable the manager still works, carrying the
// code-defined constraints instead.
func NewConfigurableForeignKeyManager(logger Logger, configPath string) (*ConfigurableForeignKeyManager, error) {
	constraints, err := loadConstraintsFile(configPath)
	if err != nil {
		if logger != nil {
			logger.Debug("Using code-defined foreign key constraints", "reason", err.Error(), "config_path", configPath)
		}
		constraints = getForeignKeyConstraints()
	}
	return &ConfigurableForeignKeyManager{
		ForeignKeyManager: &ForeignKeyManager{constraints: constraints, logger: logger},
		configPath:        configPath,
	}, nil
}

// ReloadConfig refreshes constraints from the YAML configuration file.
func (cfm *ConfigurableForeignKeyManager) ReloadConfig() error {
	constraints, err := loadConstraintsFile(cfm.configPath)
	if err != nil {
		return err
	}
	cfm.constraints = constraints
	return nil
}

// GetConfigPath returns the path to the YAML configuration file.
func (cfm *ConfigurableForeignKeyManager) GetConfigPath() string {
	return cfm.configPath
}
