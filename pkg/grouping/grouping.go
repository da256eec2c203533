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

// Package grouping reconstructs table rows from per-column SNMP walks by
// joining varbinds on their instance suffix.
package grouping

import (
	"sort"
	"strconv"
	"strings"

	"github.com/carverauto/netinventory/pkg/decode"
	"github.com/carverauto/netinventory/pkg/snmp"
)

// Column is one tracked field of a table.
type Column struct {
	Name   string
	Root   string
	Decode decode.Func
}

// Result is the outcome of walking one column. A Result with Err set
// contributes no data.
type Result struct {
	Column   Column
	Varbinds []snmp.Varbind
	Err      error
}

// Options describes the expected index shape. Parts requires an exact
// component count, MinParts a lower bound. Key optionally projects the
// parsed index to the row key; returning false skips the varbind.
type Options struct {
	Parts    int
	MinParts int
	Key      func(index []int) ([]int, bool)
}

// Row is one reconstructed table row.
type Row struct {
	Index  []int
	Key    string
	Fields map[string]decode.Value
}

// Get returns the named field or a null value.
func (r *Row) Get(name string) decode.Value {
	if r == nil || r.Fields == nil {
		return decode.Null()
	}

	return r.Fields[name]
}

// Has reports whether the named field decoded to a non-null value.
func (r *Row) Has(name string) bool {
	return !r.Get(name).IsNull()
}

// Group merges the column results into rows sorted by index.
func Group(results []Result, opts Options) []*Row {
	rows := make(map[string]*Row)

	for _, res := range results {
		if res.Err != nil {
			continue
		}

		root := SplitOID(res.Column.Root)
		dec := res.Column.Decode

		if dec == nil {
			dec = decode.Raw
		}

		for _, vb := range res.Varbinds {
			index, ok := suffix(root, vb.OID)
			if !ok || !opts.accepts(index) {
				continue
			}

			if opts.Key != nil {
				if index, ok = opts.Key(index); !ok {
					continue
				}
			}

			key := JoinIndex(index)

			row, exists := rows[key]
			if !exists {
				row = &Row{Index: index, Key: key, Fields: make(map[string]decode.Value)}
				rows[key] = row
			}

			row.Fields[res.Column.Name] = dec(vb.Value)
		}
	}

	out := make([]*Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return lessIndex(out[i].Index, out[j].Index) })

	return out
}

func (o Options) accepts(index []int) bool {
	if o.Parts > 0 && len(index) != o.Parts {
		return false
	}

	if o.MinParts > 0 && len(index) < o.MinParts {
		return false
	}

	return len(index) > 0
}

// suffix returns the numeric instance suffix of oid under root. It fails
// when oid is not under root or a component is not numeric.
func suffix(root []string, oid string) ([]int, bool) {
	parts := SplitOID(oid)
	if len(parts) <= len(root) {
		return nil, false
	}

	for i := range root {
		if parts[i] != root[i] {
			return nil, false
		}
	}

	index := make([]int, 0, len(parts)-len(root))

	for _, p := range parts[len(root):] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}

		index = append(index, n)
	}

	return index, true
}

// SplitOID splits a dotted OID, tolerating a leading dot.
func SplitOID(oid string) []string {
	oid = strings.TrimPrefix(strings.TrimSpace(oid), ".")
	if oid == "" {
		return nil
	}

	return strings.Split(oid, ".")
}

// CanonicalOID renders oid with a single leading dot.
func CanonicalOID(oid string) string {
	return "." + strings.Join(SplitOID(oid), ".")
}

// JoinIndex renders index components in dotted form.
func JoinIndex(index []int) string {
	parts := make([]string, len(index))
	for i, n := range index {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ".")
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return len(a) < len(b)
}

// Failed returns the names of columns whose walk failed.
func Failed(results []Result) []string {
	var names []string

	for _, r := range results {
		if r.Err != nil {
			names = append(names, r.Column.Name)
		}
	}

	return names
}
