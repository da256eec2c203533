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

// Package catalog maps logical metric names to SNMP subtree roots.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrInvalidOID    = errors.New("invalid OID")
)

// Catalog resolves metric names to OIDs. It is read-only once built.
type Catalog struct {
	roots map[string]string
}

// New returns the default catalog with overrides applied. Overrides may also
// add names that are not part of the defaults.
func New(overrides map[string]string) (*Catalog, error) {
	roots := make(map[string]string, len(defaultRoots)+len(overrides))

	for name, oid := range defaultRoots {
		roots[name] = oid
	}

	for name, oid := range overrides {
		normalized, err := normalizeOID(oid)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", err, name, oid)
		}

		roots[name] = normalized
	}

	return &Catalog{roots: roots}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := New(nil)

	return c
}

// Lookup returns the subtree root for name.
func (c *Catalog) Lookup(name string) (string, bool) {
	oid, ok := c.roots[name]

	return oid, ok
}

// Resolve returns the roots for names in order, failing on the first
// unknown name.
func (c *Catalog) Resolve(names ...string) ([]string, error) {
	out := make([]string, len(names))

	for i, name := range names {
		oid, ok := c.roots[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
		}

		out[i] = oid
	}

	return out, nil
}

// Names returns all known metric names sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.roots))
	for name := range c.roots {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func normalizeOID(oid string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(oid), ".")
	if trimmed == "" {
		return "", ErrInvalidOID
	}

	for _, part := range strings.Split(trimmed, ".") {
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return "", ErrInvalidOID
		}
	}

	return "." + trimmed, nil
}
