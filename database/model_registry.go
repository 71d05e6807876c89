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
	"sort"
	"sync"
)

// SQLModel is a table model known to migrations. Instance returns a struct
// pointer compatible with Bun; Priority controls table creation order (lower
// first), which matters when later tables reference earlier ones.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelAdapter wraps a plain struct instance and a priority into an SQLModel.
type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{instance: instance, priority: priority}
}

func (a *ModelAdapter) Instance() interface{} { return a.instance }

func (a *ModelAdapter) Priority() int { return a.priority }

var defaultRegistry struct {
	sync.RWMutex
	models []SQLModel
}

// RegisteredModel adds a model to the default registry, typically from an
// init function in the models package.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Lock()
	defer defaultRegistry.Unlock()
	defaultRegistry.models = append(defaultRegistry.models, model)
}

// GetRegisteredModels returns the registered models sorted by ascending
// priority.
func GetRegisteredModels() []SQLModel {
	defaultRegistry.RLock()
	models := make([]SQLModel, len(defaultRegistry.models))
	copy(models, defaultRegistry.models)
	defaultRegistry.RUnlock()

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Priority() < models[j].Priority()
	})
	return models
}

// RegisteredModelInstances returns the registered struct instances in
// priority order.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
