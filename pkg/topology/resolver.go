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

package topology

import (
	"strconv"
	"strings"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/models"
)

// Strategy names how a remote device was identified.
type Strategy string

const (
	StrategyNone              Strategy = "none"
	StrategyManagementAddress Strategy = "management_address"
	StrategyChassisMAC        Strategy = "chassis_mac"
	StrategyPortMAC           Strategy = "port_mac"
	StrategySystemName        Strategy = "system_name"
)

// Observation is one raw neighbor entry reported by a device.
type Observation struct {
	// LocalPort is the local port number as reported by the protocol
	// (LLDP lldpRemLocalPortNum, CDP ifIndex).
	LocalPort         int
	NeighborIndex     int
	ManagementAddress string
	ChassisID         string
	// ChassisMAC is set when the chassis identifier is MAC encoded.
	ChassisMAC      string
	PortID          string
	PortDescription string
	SystemName      string
	// Fields carries protocol specific columns for persistence.
	Fields models.Record
}

// LocalPort describes a local port from lldpLocPortTable.
type LocalPort struct {
	ID          string
	Description string
}

// Options tunes a resolver instance for one adjacency protocol.
type Options struct {
	// LocalPorts maps protocol port numbers that are not ifIndex values.
	LocalPorts map[int]LocalPort
	// PortDescriptionFallback also matches the remote port description
	// against remote interfaces.
	PortDescriptionFallback bool
}

// Resolution is an observation anchored to a local interface, with the
// best-effort remote identity.
type Resolution struct {
	Observation
	LocalInterfaceID  int64
	RemoteDeviceID    *int64
	RemoteInterfaceID *int64
	Strategy          Strategy
}

// Resolve maps observations reported by localDeviceID against snap. It is a
// pure function of its inputs. Observations without a local interface are
// returned as dropped. Resolutions are unique per local interface: an
// observation with a resolved remote device replaces one without, otherwise
// the first one seen is kept.
func Resolve(localDeviceID int64, observations []Observation, snap *Snapshot, opts Options) ([]Resolution, []Observation) {
	var (
		resolved []Resolution
		dropped  []Observation
	)

	byLocal := make(map[int64]int)

	for _, obs := range observations {
		local, ok := resolveLocal(localDeviceID, obs, snap, opts)
		if !ok {
			dropped = append(dropped, obs)
			continue
		}

		res := Resolution{Observation: obs, LocalInterfaceID: local.ID, Strategy: StrategyNone}

		if remoteID, strategy, found := resolveRemoteDevice(localDeviceID, obs, snap); found {
			id := remoteID
			res.RemoteDeviceID = &id
			res.Strategy = strategy

			if ifaceID, ok := resolveRemoteInterface(remoteID, obs, snap, opts); ok {
				res.RemoteInterfaceID = &ifaceID
			}
		}

		if pos, seen := byLocal[local.ID]; seen {
			if resolved[pos].RemoteDeviceID == nil && res.RemoteDeviceID != nil {
				resolved[pos] = res
			}

			continue
		}

		byLocal[local.ID] = len(resolved)
		resolved = append(resolved, res)
	}

	return resolved, dropped
}

func resolveLocal(deviceID int64, obs Observation, snap *Snapshot, opts Options) (models.Interface, bool) {
	ifaces := snap.InterfacesOf(deviceID)

	for _, iface := range ifaces {
		if iface.IfIndex == obs.LocalPort {
			return iface, true
		}
	}

	port, ok := opts.LocalPorts[obs.LocalPort]
	if !ok {
		return models.Interface{}, false
	}

	for _, candidate := range []string{port.ID, port.Description} {
		if iface, ok := matchInterface(ifaces, candidate); ok {
			return iface, true
		}
	}

	return models.Interface{}, false
}

// resolveRemoteDevice tries each strategy in order; the first match wins.
func resolveRemoteDevice(localID int64, obs Observation, snap *Snapshot) (int64, Strategy, bool) {
	if obs.ManagementAddress != "" {
		if id, ok := snap.deviceByIP(obs.ManagementAddress, localID); ok {
			return id, StrategyManagementAddress, true
		}
	}

	if mac := decode.NormalizeMAC(obs.ChassisMAC); mac != "" {
		if iface, ok := snap.interfaceByMAC(mac, localID); ok {
			return iface.DeviceID, StrategyChassisMAC, true
		}
	}

	if mac := decode.NormalizeMAC(obs.PortID); mac != "" {
		if iface, ok := snap.interfaceByMAC(mac, localID); ok {
			return iface.DeviceID, StrategyPortMAC, true
		}
	}

	name := obs.SystemName
	if strings.TrimSpace(name) == "" {
		name = obs.ChassisID
	}

	if id, ok := snap.deviceByName(name, localID); ok {
		return id, StrategySystemName, true
	}

	return 0, StrategyNone, false
}

func resolveRemoteInterface(deviceID int64, obs Observation, snap *Snapshot, opts Options) (int64, bool) {
	ifaces := snap.InterfacesOf(deviceID)

	if mac := decode.NormalizeMAC(obs.PortID); mac != "" {
		for _, iface := range ifaces {
			if decode.NormalizeMAC(iface.MACAddress) == mac {
				return iface.ID, true
			}
		}
	}

	if iface, ok := matchInterface(ifaces, obs.PortID); ok {
		return iface.ID, true
	}

	if opts.PortDescriptionFallback {
		if iface, ok := matchInterface(ifaces, obs.PortDescription); ok {
			return iface.ID, true
		}
	}

	return 0, false
}

// matchInterface matches a port label against name, description or ifIndex.
// Exact matches win over case-insensitive ones.
func matchInterface(ifaces []models.Interface, label string) (models.Interface, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.Interface{}, false
	}

	for _, iface := range ifaces {
		if iface.Name == label || iface.Description == label || strconv.Itoa(iface.IfIndex) == label {
			return iface, true
		}
	}

	for _, iface := range ifaces {
		if strings.EqualFold(iface.Name, label) || strings.EqualFold(iface.Description, label) {
			return iface, true
		}
	}

	return models.Interface{}, false
}
