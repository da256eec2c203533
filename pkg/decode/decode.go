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

package decode

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	macOctets       = 6
	ipv4Octets      = 4
	dateTimeMinLen  = 8
	dateTimeZoneLen = 11
	tickDuration    = 10 * time.Millisecond
)

// HardwareAddress decodes a 6 octet value into upper case colon separated form.
func HardwareAddress(raw interface{}) Value {
	switch v := raw.(type) {
	case []byte:
		if len(v) == macOctets {
			return Value{Kind: KindHardwareAddress, Text: formatMAC(v)}
		}

		// some agents answer with the printable form
		if utf8.Valid(v) {
			return hardwareFromString(string(v))
		}

		return Null()
	case string:
		return hardwareFromString(v)
	default:
		return Null()
	}
}

func hardwareFromString(s string) Value {
	mac := NormalizeMAC(s)
	if mac == "" {
		return Null()
	}

	return Value{Kind: KindHardwareAddress, Text: mac}
}

// NormalizeMAC canonicalizes a delimited or bare hex hardware address. It
// returns "" when the input does not hold exactly six octets.
func NormalizeMAC(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if hw, err := net.ParseMAC(s); err == nil {
		if len(hw) != macOctets {
			return ""
		}

		return formatMAC(hw)
	}

	// Colon or dash groups with dropped leading zeros, e.g. 0:1b:2:aa:b:c.
	for _, sep := range []string{":", "-"} {
		parts := strings.Split(s, sep)
		if len(parts) != macOctets {
			continue
		}

		out := make([]byte, 0, macOctets)

		for _, p := range parts {
			if len(p) == 0 || len(p) > 2 {
				break
			}

			b, err := strconv.ParseUint(p, 16, 8)
			if err != nil {
				break
			}

			out = append(out, byte(b))
		}

		if len(out) == macOctets {
			return formatMAC(out)
		}
	}

	clean := strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(s)
	if len(clean) != macOctets*2 {
		return ""
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return ""
	}

	return formatMAC(b)
}

// IsZeroMAC reports whether mac is empty or all zero octets.
func IsZeroMAC(mac string) bool {
	n := NormalizeMAC(mac)

	return n == "" || n == "00:00:00:00:00:00"
}

func formatMAC(b []byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}

// IPv4 decodes a 4 octet value into dotted decimal. Strings pass through.
func IPv4(raw interface{}) Value {
	switch v := raw.(type) {
	case []byte:
		if len(v) == ipv4Octets {
			return Value{Kind: KindIPv4, Text: net.IPv4(v[0], v[1], v[2], v[3]).String()}
		}

		return Null()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Null()
		}

		return Value{Kind: KindIPv4, Text: s}
	default:
		return Null()
	}
}

// IsZeroIPv4 reports whether addr is empty or 0.0.0.0.
func IsZeroIPv4(addr string) bool {
	addr = strings.TrimSpace(addr)

	return addr == "" || addr == "0.0.0.0"
}

// Integer decodes numeric values. Byte sequences are read as printable
// digits first since many agents encode counters as text.
func Integer(raw interface{}) Value {
	switch v := raw.(type) {
	case []byte:
		return integerFromString(printable(v))
	case string:
		return integerFromString(v)
	case int:
		return intValue(int64(v))
	case int8:
		return intValue(int64(v))
	case int16:
		return intValue(int64(v))
	case int32:
		return intValue(int64(v))
	case int64:
		return intValue(v)
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return intValue(int64(v))
	case uint16:
		return intValue(int64(v))
	case uint32:
		return intValue(int64(v))
	case uint64:
		return uintValue(v)
	case *big.Int:
		if v == nil || !v.IsInt64() {
			return Null()
		}

		return intValue(v.Int64())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return Null()
		}

		return intValue(int64(v))
	default:
		return Null()
	}
}

func intValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }

func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return Null()
	}

	return intValue(int64(u))
}

func integerFromString(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null()
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return intValue(i)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Integer(f)
	}

	return Null()
}

// Ticks returns a decoder estimating a wall clock instant as now minus the
// elapsed centiseconds in raw. The result is approximate.
func Ticks(now time.Time) Func {
	return func(raw interface{}) Value {
		n := Integer(raw)
		if n.IsNull() || n.Int < 0 {
			return Null()
		}

		return Value{Kind: KindTimestamp, Time: now.Add(-time.Duration(n.Int) * tickDuration)}
	}
}

// DateAndTime decodes the SNMPv2-TC DateAndTime octet string. Fewer than
// eight octets or out of range fields decode to null.
func DateAndTime(raw interface{}) Value {
	var b []byte

	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return Null()
	}

	if len(b) < dateTimeMinLen {
		return Null()
	}

	year := int(b[0])<<8 | int(b[1])
	month, day := int(b[2]), int(b[3])
	hour, minute, second, deci := int(b[4]), int(b[5]), int(b[6]), int(b[7])

	if year == 0 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 60 || deci > 9 {
		return Null()
	}

	loc := time.UTC

	if len(b) >= dateTimeZoneLen {
		dir, hh, mm := b[8], int(b[9]), int(b[10])
		if hh > 13 || mm > 59 || (dir != '+' && dir != '-') {
			return Null()
		}

		offset := hh*3600 + mm*60
		if dir == '-' {
			offset = -offset
		}

		loc = time.FixedZone("", offset)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, deci*int(100*time.Millisecond), loc)

	return Value{Kind: KindTimestamp, Time: t}
}

// Text decodes printable text, dropping control characters and padding.
func Text(raw interface{}) Value {
	var s string

	switch v := raw.(type) {
	case []byte:
		s = printable(v)
	case string:
		s = printable([]byte(v))
	case nil:
		return Null()
	default:
		if n := Integer(v); !n.IsNull() {
			s = strconv.FormatInt(n.Int, 10)
		} else {
			s = fmt.Sprintf("%v", v)
		}
	}

	if s == "" {
		return Null()
	}

	return Value{Kind: KindText, Text: s}
}

func printable(b []byte) string {
	var sb strings.Builder

	for _, r := range strings.ToValidUTF8(string(b), "") {
		if unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}

	return strings.TrimSpace(sb.String())
}

// Hex renders opaque octets as lower case hex text.
func Hex(raw interface{}) Value {
	switch v := raw.(type) {
	case []byte:
		if len(v) == 0 {
			return Null()
		}

		return Value{Kind: KindText, Text: hex.EncodeToString(v)}
	case string:
		if v == "" {
			return Null()
		}

		return Value{Kind: KindText, Text: hex.EncodeToString([]byte(v))}
	default:
		return Null()
	}
}

// Raw keeps the value unchanged.
func Raw(raw interface{}) Value {
	if raw == nil {
		return Null()
	}

	return Value{Kind: KindRaw, Raw: raw}
}

// Bits decodes an SNMP BITS octet string, most significant bit first, into
// the comma separated names of the set bits. Unnamed bits are ignored.
func Bits(names []string) Func {
	return func(raw interface{}) Value {
		b, ok := octets(raw)
		if !ok {
			return Null()
		}

		set := make([]string, 0, len(names))

		for bit, name := range names {
			if bitSet(b, bit) {
				set = append(set, name)
			}
		}

		return Value{Kind: KindText, Text: strings.Join(set, ",")}
	}
}

// Flags decodes a big-endian integer bitmask, least significant bit first,
// into the comma separated names of the set flags.
func Flags(names []string) Func {
	return func(raw interface{}) Value {
		var mask uint64

		if b, ok := octets(raw); ok {
			if len(b) > 8 {
				return Null()
			}

			for _, c := range b {
				mask = mask<<8 | uint64(c)
			}
		} else {
			n := Integer(raw)
			if n.IsNull() || n.Int < 0 {
				return Null()
			}

			mask = uint64(n.Int)
		}

		set := make([]string, 0, len(names))

		for bit, name := range names {
			if mask&(1<<uint(bit)) != 0 {
				set = append(set, name)
			}
		}

		return Value{Kind: KindText, Text: strings.Join(set, ",")}
	}
}

func octets(raw interface{}) ([]byte, bool) {
	switch v := raw.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

func bitSet(b []byte, bit int) bool {
	idx := bit / 8
	if idx < 0 || idx >= len(b) {
		return false
	}

	return b[idx]&byte(1<<uint(7-bit%8)) != 0
}
