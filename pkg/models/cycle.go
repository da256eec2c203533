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

package models

import "time"

// DomainReport counts per device outcomes of one domain in a cycle.
type DomainReport struct {
	Domain    string `json:"domain"`
	Devices   int    `json:"devices"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	CycleID   string          `json:"cycle_id"`
	DeviceID  int64           `json:"device_id,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Devices   int             `json:"devices"`
	Domains   []*DomainReport `json:"domains"`
}

// Failed returns the total number of failed device polls.
func (r *CycleReport) Failed() int {
	n := 0
	for _, d := range r.Domains {
		n += d.Failed
	}

	return n
}

// Duration returns the wall time of the cycle.
func (r *CycleReport) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
