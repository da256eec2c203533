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

package catalog

const (
	system      = ".1.3.6.1.2.1.1"
	ifEntry     = ".1.3.6.1.2.1.2.2.1"
	ifXEntry    = ".1.3.6.1.2.1.31.1.1.1"
	ipAddrEntry = ".1.3.6.1.2.1.4.20.1"
	ipNetEntry  = ".1.3.6.1.2.1.4.22.1"
	dot1dBase   = ".1.3.6.1.2.1.17.1"
	dot1dPort   = ".1.3.6.1.2.1.17.1.4.1"
	dot1dTpFdb  = ".1.3.6.1.2.1.17.4.3.1"
	dot1qTpFdb  = ".1.3.6.1.2.1.17.7.1.2.2.1"
	dot1qStatic = ".1.3.6.1.2.1.17.7.1.4.3.1"
	cidrRoute   = ".1.3.6.1.2.1.4.24.4.1"
	hrSWRun     = ".1.3.6.1.2.1.25.4.2.1"
	hrSWRunPerf = ".1.3.6.1.2.1.25.5.1.1"
	hrSWInst    = ".1.3.6.1.2.1.25.6.3.1"
	entPhysical = ".1.3.6.1.2.1.47.1.1.1.1"
	hikvision   = ".1.3.6.1.4.1.39165.1"
	cdpCache    = ".1.3.6.1.4.1.9.9.23.1.2.1.1"
	lldpRem     = ".1.0.8802.1.1.2.1.4.1.1"
	lldpManAddr = ".1.0.8802.1.1.2.1.4.2.1"
	lldpLocPort = ".1.0.8802.1.1.2.1.3.7.1"
)

var defaultRoots = map[string]string{
	// SNMPv2-MIB system group
	"sysDescr":    system + ".1.0",
	"sysObjectID": system + ".2.0",
	"sysUpTime":   system + ".3.0",
	"sysContact":  system + ".4.0",
	"sysName":     system + ".5.0",
	"sysLocation": system + ".6.0",

	// IF-MIB
	"ifDescr":          ifEntry + ".2",
	"ifType":           ifEntry + ".3",
	"ifMtu":            ifEntry + ".4",
	"ifSpeed":          ifEntry + ".5",
	"ifPhysAddress":    ifEntry + ".6",
	"ifAdminStatus":    ifEntry + ".7",
	"ifOperStatus":     ifEntry + ".8",
	"ifLastChange":     ifEntry + ".9",
	"ifInOctets":       ifEntry + ".10",
	"ifInUcastPkts":    ifEntry + ".11",
	"ifInDiscards":     ifEntry + ".13",
	"ifInErrors":       ifEntry + ".14",
	"ifOutOctets":      ifEntry + ".16",
	"ifOutUcastPkts":   ifEntry + ".17",
	"ifOutDiscards":    ifEntry + ".19",
	"ifOutErrors":      ifEntry + ".20",
	"ifName":           ifXEntry + ".1",
	"ifHCInOctets":     ifXEntry + ".6",
	"ifHCInUcastPkts":  ifXEntry + ".7",
	"ifHCOutOctets":    ifXEntry + ".10",
	"ifHCOutUcastPkts": ifXEntry + ".11",
	"ifHighSpeed":      ifXEntry + ".15",
	"ifAlias":          ifXEntry + ".18",

	// IP-MIB
	"ipAdEntAddr":             ipAddrEntry + ".1",
	"ipAdEntIfIndex":          ipAddrEntry + ".2",
	"ipAdEntNetMask":          ipAddrEntry + ".3",
	"ipNetToMediaIfIndex":     ipNetEntry + ".1",
	"ipNetToMediaPhysAddress": ipNetEntry + ".2",
	"ipNetToMediaNetAddress":  ipNetEntry + ".3",
	"ipNetToMediaType":        ipNetEntry + ".4",

	// BRIDGE-MIB and Q-BRIDGE-MIB
	"dot1dBaseBridgeAddress":        dot1dBase + ".1.0",
	"dot1dBaseNumPorts":             dot1dBase + ".2.0",
	"dot1dBaseType":                 dot1dBase + ".3.0",
	"dot1dBasePort":                 dot1dPort + ".1",
	"dot1dBasePortIfIndex":          dot1dPort + ".2",
	"dot1dTpFdbAddress":             dot1dTpFdb + ".1",
	"dot1dTpFdbPort":                dot1dTpFdb + ".2",
	"dot1dTpFdbStatus":              dot1dTpFdb + ".3",
	"dot1qTpFdbPort":                dot1qTpFdb + ".2",
	"dot1qTpFdbStatus":              dot1qTpFdb + ".3",
	"dot1qVlanStaticName":           dot1qStatic + ".1",
	"dot1qVlanStaticEgressPorts":    dot1qStatic + ".2",
	"dot1qVlanForbiddenEgressPorts": dot1qStatic + ".3",
	"dot1qVlanStaticUntaggedPorts":  dot1qStatic + ".4",
	"dot1qVlanStaticRowStatus":      dot1qStatic + ".5",

	// IP-FORWARD-MIB
	"ipCidrRouteDest":    cidrRoute + ".1",
	"ipCidrRouteMask":    cidrRoute + ".2",
	"ipCidrRouteTos":     cidrRoute + ".3",
	"ipCidrRouteNextHop": cidrRoute + ".4",
	"ipCidrRouteIfIndex": cidrRoute + ".5",
	"ipCidrRouteType":    cidrRoute + ".6",
	"ipCidrRouteProto":   cidrRoute + ".7",
	"ipCidrRouteAge":     cidrRoute + ".8",
	"ipCidrRouteMetric1": cidrRoute + ".11",

	// HOST-RESOURCES-MIB
	"hrSWRunIndex":       hrSWRun + ".1",
	"hrSWRunName":        hrSWRun + ".2",
	"hrSWRunPath":        hrSWRun + ".4",
	"hrSWRunParameters":  hrSWRun + ".5",
	"hrSWRunType":        hrSWRun + ".6",
	"hrSWRunStatus":      hrSWRun + ".7",
	"hrSWRunPerfCPU":     hrSWRunPerf + ".1",
	"hrSWRunPerfMem":     hrSWRunPerf + ".2",
	"hrSWInstalledIndex": hrSWInst + ".1",
	"hrSWInstalledName":  hrSWInst + ".2",
	"hrSWInstalledType":  hrSWInst + ".4",
	"hrSWInstalledDate":  hrSWInst + ".5",

	// ENTITY-MIB
	"entPhysicalDescr":        entPhysical + ".2",
	"entPhysicalVendorType":   entPhysical + ".3",
	"entPhysicalContainedIn":  entPhysical + ".4",
	"entPhysicalClass":        entPhysical + ".5",
	"entPhysicalParentRelPos": entPhysical + ".6",
	"entPhysicalName":         entPhysical + ".7",
	"entPhysicalHardwareRev":  entPhysical + ".8",
	"entPhysicalFirmwareRev":  entPhysical + ".9",
	"entPhysicalSoftwareRev":  entPhysical + ".10",
	"entPhysicalSerialNum":    entPhysical + ".11",
	"entPhysicalMfgName":      entPhysical + ".12",
	"entPhysicalModelName":    entPhysical + ".13",
	"entPhysicalAlias":        entPhysical + ".14",
	"entPhysicalAssetID":      entPhysical + ".15",
	"entPhysicalIsFRU":        entPhysical + ".16",
	"entPhysicalMfgDate":      entPhysical + ".17",

	// HIKVISION-MIB camera scalars
	"hikDeviceType":   hikvision + ".1.0",
	"hikHardwareVer":  hikvision + ".2.0",
	"hikSoftwareVer":  hikvision + ".3.0",
	"hikMacAddress":   hikvision + ".4.0",
	"hikDeviceID":     hikvision + ".5.0",
	"hikManufacturer": hikvision + ".6.0",
	"hikCPUPercent":   hikvision + ".7.0",
	"hikDiskSize":     hikvision + ".8.0",
	"hikDiskPercent":  hikvision + ".9.0",
	"hikMemSize":      hikvision + ".10.0",
	"hikMemUsed":      hikvision + ".11.0",

	// CISCO-CDP-MIB
	"cdpCacheAddressType":  cdpCache + ".3",
	"cdpCacheAddress":      cdpCache + ".4",
	"cdpCacheVersion":      cdpCache + ".5",
	"cdpCacheDeviceId":     cdpCache + ".6",
	"cdpCacheDevicePort":   cdpCache + ".7",
	"cdpCachePlatform":     cdpCache + ".8",
	"cdpCacheCapabilities": cdpCache + ".9",
	"cdpCacheNativeVLAN":   cdpCache + ".11",
	"cdpCacheDuplex":       cdpCache + ".12",
	"cdpCacheSysName":      cdpCache + ".17",

	// LLDP-MIB
	"lldpRemChassisIdSubtype": lldpRem + ".4",
	"lldpRemChassisId":        lldpRem + ".5",
	"lldpRemPortIdSubtype":    lldpRem + ".6",
	"lldpRemPortId":           lldpRem + ".7",
	"lldpRemPortDesc":         lldpRem + ".8",
	"lldpRemSysName":          lldpRem + ".9",
	"lldpRemSysDesc":          lldpRem + ".10",
	"lldpRemSysCapSupported":  lldpRem + ".11",
	"lldpRemSysCapEnabled":    lldpRem + ".12",
	"lldpRemManAddrIfSubtype": lldpManAddr + ".3",
	"lldpLocPortIdSubtype":    lldpLocPort + ".2",
	"lldpLocPortId":           lldpLocPort + ".3",
	"lldpLocPortDesc":         lldpLocPort + ".4",
}
