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

// Package decode turns raw SNMP varbind values into typed inventory values.
package decode

import (
	"fmt"
	"time"
)

// Kind tags the decoded shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindRaw
	KindText
	KindInteger
	KindHardwareAddress
	KindIPv4
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindRaw:
		return "raw"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindHardwareAddress:
		return "hardware_address"
	case KindIPv4:
		return "ipv4"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a decoded varbind. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Text string
	Int  int64
	Time time.Time
	Raw  interface{}
}

// Func decodes one raw varbind value.
type Func func(raw interface{}) Value

// Null is the zero Value.
func Null() Value { return Value{} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String returns the textual form for text-like kinds and the decimal form for integers.
func (v Value) String() string {
	switch v.Kind {
	case KindText, KindHardwareAddress, KindIPv4:
		return v.Text
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindTimestamp:
		return v.Time.UTC().Format(time.RFC3339)
	case KindRaw:
		return fmt.Sprintf("%v", v.Raw)
	default:
		return ""
	}
}

// Any returns the natural Go value for persistence: nil, string, int64 or time.Time.
func (v Value) Any() interface{} {
	switch v.Kind {
	case KindText, KindHardwareAddress, KindIPv4:
		return v.Text
	case KindInteger:
		return v.Int
	case KindTimestamp:
		return v.Time
	case KindRaw:
		return v.Raw
	default:
		return nil
	}
}
