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

package models

import "github.com/suzuito/sb-data-sandbox/database"

// Table creation order: users must exist before articles so the foreign key
// migration can reference them.
func init() {
	database.RegisteredModel(database.NewModelAdapter((*AccessLog)(nil), 10))
	database.RegisteredModel(database.NewModelAdapter((*User)(nil), 20))
	database.RegisteredModel(database.NewModelAdapter((*Article)(nil), 30))
}
