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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	isNew bool
}

func (f *fakeEntity) IsNew() bool { return f.isNew }

type plainEntity struct{}

func TestSaveModeFor(t *testing.T) {
	require.Equal(t, SaveModeInsert, SaveModeFor(&fakeEntity{isNew: true}))
	require.Equal(t, SaveModeUpdate, SaveModeFor(&fakeEntity{isNew: false}))

	// Entities without a newness policy are always inserted.
	require.Equal(t, SaveModeInsert, SaveModeFor(&plainEntity{}))
	require.Equal(t, SaveModeInsert, SaveModeFor(nil))
}

func TestSaveModeEnum(t *testing.T) {
	require.True(t, SaveModeInsert.IsValid())
	require.True(t, SaveModeUpdate.IsValid())
	require.False(t, SaveMode(42).IsValid())

	require.Equal(t, "INSERT", SaveModeInsert.Name())
	require.Equal(t, "UPDATE", SaveModeUpdate.String())
	require.Equal(t, IllegalName, SaveMode(42).Name())
	require.Equal(t, IllegalValue, SaveMode(42).Number())
	require.Equal(t, 1, SaveModeInsert.Number())
	require.Equal(t, IllegalDesc, SaveMode(42).Desc())
}
