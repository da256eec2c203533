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

import "github.com/carverauto/netinventory/pkg/snmp"

// Device is a managed device from the device catalog. The inventory engine
// only reads devices.
type Device struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	ManagementIP string           `json:"management_ip"`
	Port         uint16           `json:"port,omitempty"`
	Credential   *snmp.Credential `json:"credential,omitempty"`
}

// Target returns the SNMP target for the device.
func (d *Device) Target() snmp.Target {
	t := snmp.Target{Address: d.ManagementIP, Port: d.Port}
	if d.Credential != nil {
		t.Credential = *d.Credential
	}

	return t
}

// Interface is the subset of an interface row used for identity resolution.
type Interface struct {
	ID          int64  `json:"id"`
	DeviceID    int64  `json:"device_id"`
	IfIndex     int    `json:"if_index"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MACAddress  string `json:"mac_address,omitempty"`
}

// Record is one row destined for a table, keyed by column name. Nil values
// are stored as NULL.
type Record map[string]interface{}
