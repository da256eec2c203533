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

package store

// Inventory tables. Every upserted table carries id, created_at and
// updated_at columns managed by the database.
var (
	SystemsTable = Table{
		Name: "snmp_systems",
		Columns: []string{
			"device_id", "description", "object_id", "contact", "name", "location",
			"uptime_ticks", "boot_time", "polled_at",
		},
		ConflictKey: []string{"device_id"},
	}

	InterfacesTable = Table{
		Name: "interfaces",
		Columns: []string{
			"device_id", "if_index", "name", "description", "alias", "if_type", "mtu", "speed",
			"mac_address", "admin_status", "oper_status", "last_change", "polled_at",
		},
		ConflictKey: []string{"device_id", "if_index"},
	}

	InterfaceTelemetryTable = Table{
		Name: "interface_telemetry",
		Columns: []string{
			"interface_id", "device_id", "in_octets", "out_octets", "in_packets", "out_packets",
			"in_errors", "out_errors", "in_discards", "out_discards", "oper_status", "polled_at",
		},
	}

	IPContextsTable = Table{
		Name:        "ip_contexts",
		Columns:     []string{"device_id"},
		ConflictKey: []string{"device_id"},
	}

	IPAddressesTable = Table{
		Name:        "ip_addresses",
		Columns:     []string{"ip_context_id", "address", "if_index", "netmask", "prefix_length", "polled_at"},
		ConflictKey: []string{"ip_context_id", "address"},
	}

	ARPEntriesTable = Table{
		Name:        "arp_entries",
		Columns:     []string{"ip_context_id", "if_index", "network_address", "physical_address", "entry_type", "polled_at"},
		ConflictKey: []string{"ip_context_id", "if_index", "network_address"},
	}

	BridgeBasesTable = Table{
		Name:        "bridge_bases",
		Columns:     []string{"device_id", "bridge_address", "num_ports", "bridge_type", "polled_at"},
		ConflictKey: []string{"device_id"},
	}

	BridgePortsTable = Table{
		Name:        "bridge_ports",
		Columns:     []string{"device_id", "port", "if_index", "polled_at"},
		ConflictKey: []string{"device_id", "port"},
	}

	VLANsTable = Table{
		Name: "vlans",
		Columns: []string{
			"device_id", "vlan_id", "name", "egress_ports", "forbidden_egress_ports",
			"untagged_ports", "row_status", "polled_at",
		},
		ConflictKey: []string{"device_id", "vlan_id"},
	}

	FDBEntriesTable = Table{
		Name:        "fdb_entries",
		Columns:     []string{"device_id", "mac_address", "port", "status", "polled_at"},
		ConflictKey: []string{"device_id", "mac_address"},
	}

	FDBVLANEntriesTable = Table{
		Name:        "fdb_vlan_entries",
		Columns:     []string{"device_id", "vlan_id", "mac_address", "port", "status", "polled_at"},
		ConflictKey: []string{"device_id", "vlan_id", "mac_address"},
	}

	RoutesTable = Table{
		Name: "routes",
		Columns: []string{
			"device_id", "destination", "next_hop", "if_index", "route_type", "protocol",
			"age", "metric", "polled_at",
		},
		ConflictKey: []string{"device_id", "destination", "next_hop"},
	}

	PhysicalEntitiesTable = Table{
		Name: "physical_entities",
		Columns: []string{
			"device_id", "physical_index", "description", "vendor_type", "contained_in", "class",
			"parent_rel_pos", "name", "hardware_rev", "firmware_rev", "software_rev", "serial_number",
			"mfg_name", "model_name", "alias", "asset_id", "is_fru", "mfg_date", "polled_at",
		},
		ConflictKey: []string{"device_id", "physical_index"},
	}

	ResourcesTable = Table{
		Name:        "resources",
		Columns:     []string{"device_id", "name", "kind"},
		ConflictKey: []string{"device_id", "name", "kind"},
	}

	ProcessRunsTable = Table{
		Name:        "process_runs",
		Columns:     []string{"resource_id", "run_index", "name", "path", "parameters", "run_type", "status", "polled_at"},
		ConflictKey: []string{"resource_id", "run_index"},
	}

	ProcessPerfsTable = Table{
		Name:        "process_perfs",
		Columns:     []string{"resource_id", "run_index", "cpu_centiseconds", "memory_kb", "polled_at"},
		ConflictKey: []string{"resource_id", "run_index"},
	}

	InstalledSoftwareTable = Table{
		Name:        "installed_software",
		Columns:     []string{"resource_id", "name", "sw_index", "sw_type", "installed_at", "polled_at"},
		ConflictKey: []string{"resource_id", "name"},
	}

	CameraRecordsTable = Table{
		Name: "camera_records",
		Columns: []string{
			"device_id", "interface_id", "model", "hardware_version", "firmware_version", "mac_address",
			"serial", "manufacturer", "cpu_percent", "disk_size", "disk_percent", "memory_size",
			"memory_used", "polled_at",
		},
		ConflictKey: []string{"device_id"},
	}

	CDPNeighborsTable = Table{
		Name: "cdp_neighbors",
		Columns: []string{
			"device_id", "local_interface_id", "neighbor_index", "remote_device_id", "remote_interface_id",
			"device_identifier", "port_identifier", "address", "platform", "capabilities", "version",
			"native_vlan", "duplex", "sys_name", "polled_at",
		},
		ConflictKey: []string{"device_id", "local_interface_id"},
	}

	LLDPNeighborsTable = Table{
		Name: "lldp_neighbors",
		Columns: []string{
			"device_id", "local_interface_id", "neighbor_index", "remote_device_id", "remote_interface_id",
			"chassis_id", "chassis_id_subtype", "port_id", "port_id_subtype", "port_description",
			"sys_name", "sys_description", "capabilities_supported", "capabilities_enabled",
			"management_address", "polled_at",
		},
		ConflictKey: []string{"device_id", "local_interface_id"},
	}
)
