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

// Persistable lets an entity answer "is this row new?" so the repository can
// choose between INSERT and UPDATE. Entities with a database-assigned numeric
// key derive the answer from key presence; entities with a client-assigned
// key carry an explicit, non-persisted flag because a populated key says
// nothing about whether the row already exists.
type Persistable interface {
	IsNew() bool
}

// SaveMode is the statement type selected for a save operation.
type SaveMode int

const (
	SaveModeUpdate SaveMode = iota
	SaveModeInsert
)

// SaveModeFor returns the statement type for the given entity. Entities that
// do not implement Persistable are always inserted.
func SaveModeFor(entity any) SaveMode {
	if p, ok := entity.(Persistable); ok && !p.IsNew() {
		return SaveModeUpdate
	}
	return SaveModeInsert
}

// IsValid reports whether the mode is one of the declared values.
func (m SaveMode) IsValid() bool {
	return m == SaveModeUpdate || m == SaveModeInsert
}

// Number returns the numeric value of the mode.
func (m SaveMode) Number() int {
	if !m.IsValid() {
		return IllegalValue
	}
	return int(m)
}

func (m SaveMode) String() string { return m.Name() }

// Name returns the SQL verb the mode maps to.
func (m SaveMode) Name() string {
	switch m {
	case SaveModeUpdate:
		return "UPDATE"
	case SaveModeInsert:
		return "INSERT"
	default:
		return IllegalName
	}
}

// Desc returns a human readable description of the mode.
func (m SaveMode) Desc() string {
	switch m {
	case SaveModeUpdate:
		return "update an existing row by primary key"
	case SaveModeInsert:
		return "insert a new row"
	default:
		return IllegalDesc
	}
}

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

var _ BaseEnum = SaveModeInsert
