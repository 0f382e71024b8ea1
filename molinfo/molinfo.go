// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package molinfo reads the molecule-metadata file described in §6: three
// blocks (atomic masses, molecular aliases, molecular diameters) separated
// by all-#-or-blank lines. It also decomposes a chemical formula into
// (element, count) pairs so a molecule's molar mass can be computed from
// atomic masses; the file lists no molecular masses.
//
// Grounded on original_source/transit/src/atmosphere/at_file.c's call into
// a molecules-file reader; this is a bespoke tiny format with no pack
// library to adopt, so it is a small hand-rolled bufio.Scanner reader in
// the teacher's inp/mat.go line-oriented style.
package molinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/exoplanet-transit/transit/xerr"
)

// Table holds the parsed metadata file content.
type Table struct {
	AtomicMass map[string]float64 // element symbol -> mass, amu
	Alias      map[string]string  // alternate name -> canonical molecule name
	Diameter   map[string]float64 // canonical molecule name -> hard-sphere radius, cm
}

// Load reads the three-block metadata file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerr.Formatf("molinfo: open %s: %v", path, err)
	}
	defer f.Close()

	t := &Table{
		AtomicMass: map[string]float64{},
		Alias:      map[string]string{},
		Diameter:   map[string]float64{},
	}

	sc := bufio.NewScanner(f)
	block := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || allHashOrBlank(line) {
			block++
			continue
		}
		if strings.HasPrefix(line, "#") { // header comment inside a block
			continue
		}
		fields := strings.Fields(line)
		switch block {
		case 0: // atomic masses: symbol mass
			if len(fields) != 2 {
				return nil, xerr.Formatf("molinfo: atomic-mass line expected 2 fields: %q", line)
			}
			m, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, xerr.Formatf("molinfo: atomic mass: %v", err)
			}
			t.AtomicMass[fields[0]] = m
		case 1: // aliases: alias canonical
			if len(fields) != 2 {
				return nil, xerr.Formatf("molinfo: alias line expected 2 fields: %q", line)
			}
			t.Alias[fields[0]] = fields[1]
		case 2: // diameters: name diameter_in_angstrom
			if len(fields) != 2 {
				return nil, xerr.Formatf("molinfo: diameter line expected 2 fields: %q", line)
			}
			d, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, xerr.Formatf("molinfo: diameter: %v", err)
			}
			t.Diameter[fields[0]] = d * 1e-8 / 2 // angstrom diameter -> cm radius
		default:
			// extra blocks ignored.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, xerr.Formatf("molinfo: scan: %v", err)
	}
	return t, nil
}

func allHashOrBlank(s string) bool {
	for _, r := range s {
		if r != '#' && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Canonical resolves a molecule name through the alias table.
func (t *Table) Canonical(name string) string {
	if c, ok := t.Alias[name]; ok {
		return c
	}
	return name
}

// Radius returns the hard-sphere radius of a molecule, resolving aliases.
func (t *Table) Radius(name string) (float64, bool) {
	r, ok := t.Diameter[t.Canonical(name)]
	return r, ok
}

// Formula is one (element, count) pair from a decomposed chemical formula.
type Formula struct {
	Element string
	Count   int
}

// Decompose splits a chemical formula like "H2O" or "CO2" into
// (element, count) pairs: each element symbol is an uppercase letter
// optionally followed by a lowercase letter, followed by an optional
// integer count (default 1).
func Decompose(formula string) []Formula {
	var out []Formula
	runes := []rune(formula)
	i := 0
	for i < len(runes) {
		if !unicode.IsUpper(runes[i]) {
			i++
			continue
		}
		sym := string(runes[i])
		i++
		if i < len(runes) && unicode.IsLower(runes[i]) {
			sym += string(runes[i])
			i++
		}
		start := i
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
		count := 1
		if i > start {
			count, _ = strconv.Atoi(string(runes[start:i]))
		}
		out = append(out, Formula{Element: sym, Count: count})
	}
	return out
}

// MolarMass computes a molecule's molar mass from its chemical formula and
// the table's atomic masses.
func (t *Table) MolarMass(formula string) (float64, error) {
	var mass float64
	for _, part := range Decompose(formula) {
		m, ok := t.AtomicMass[part.Element]
		if !ok {
			return 0, xerr.Formatf("molinfo: unknown element %q in formula %q", part.Element, formula)
		}
		mass += m * float64(part.Count)
	}
	return mass, nil
}
