/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package poller

import "errors"

var (
	ErrNoResponse       = errors.New("device returned no values")
	ErrMissingStore     = errors.New("store is required")
	ErrMissingSnapshot  = errors.New("topology snapshot is required")
	ErrMissingInterface = errors.New("interface id not found after upsert")
	ErrUnknownDomain    = errors.New("unknown poll domain")
)
