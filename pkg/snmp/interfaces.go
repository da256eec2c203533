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

// Package snmp adapts gosnmp to the request/response and subtree walk
// primitives used by the inventory pollers.
package snmp

//go:generate mockgen -destination=mock_snmp.go -package=snmp github.com/carverauto/netinventory/pkg/snmp Transport

import (
	"context"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Version is the SNMP protocol version of a credential.
type Version string

const (
	Version1  Version = "v1"
	Version2c Version = "v2c"
	Version3  Version = "v3"
)

// Credential holds the SNMP security parameters of one device.
type Credential struct {
	Version         Version `json:"version"`
	Community       string  `json:"community,omitempty"`
	Username        string  `json:"username,omitempty"`
	AuthProtocol    string  `json:"auth_protocol,omitempty"`    // MD5, SHA, SHA224..SHA512
	AuthPassword    string  `json:"auth_password,omitempty"`    //nolint:gosec // credential material
	PrivacyProtocol string  `json:"privacy_protocol,omitempty"` // DES, AES, AES192, AES256
	PrivacyPassword string  `json:"privacy_password,omitempty"` //nolint:gosec // credential material
}

// Target is one addressable agent.
type Target struct {
	Address    string
	Port       uint16
	Credential Credential
}

// Varbind is one returned (OID, value) pair. OID keeps its full dotted form.
type Varbind struct {
	OID   string
	Type  gosnmp.Asn1BER
	Value interface{}
}

// Transport is the protocol surface the pollers depend on.
type Transport interface {
	// Get reads the given scalar OIDs. Missing instances are omitted.
	Get(ctx context.Context, target Target, oids []string, timeout time.Duration) ([]Varbind, error)
	// Walk returns every varbind under root.
	Walk(ctx context.Context, target Target, root string, timeout time.Duration) ([]Varbind, error)
}
