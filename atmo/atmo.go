// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package atmo parses the line-oriented atmosphere file of §6 and binds
// it onto the solver's radius grid, per §4.C: explicit molecules with a
// profile column, remainder molecules sharing the leftover abundance,
// mean-molar-mass and per-molecule number-density derivation, and the
// isotope-to-molecule binding that lets the line-shape engine look up a
// per-layer density for a TLI isotope.
//
// Grounded on original_source/transit/src/atmosphere/at_file.c for the
// keyword-line format and the explicit/remainder molecule split; per §9's
// Open Question, the newer `i`/`f` keyword binding is followed and the
// older per-isotope "factor" abundance mode is not implemented.
package atmo

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/exoplanet-transit/transit/molinfo"
	"github.com/exoplanet-transit/transit/xerr"
)

const kBoltzmann = 1.380649e-16 // erg/K

// Remainder is one "f" keyword line: a molecule sharing a fixed fraction
// of the leftover (1 - sum explicit_q) abundance.
type Remainder struct {
	Name  string
	Share float64
	Alias string
}

// File is the parsed content of an atmosphere file, before binding onto a
// radius grid.
type File struct {
	MassFraction bool // q keyword: true for mass fractions, false for number
	ZeroRadius   float64
	FctR, FctP, FctT float64
	Comment      string
	Explicit     []string // molecule names in profile column order, from `i`
	Remainders   []Remainder

	R []float64
	P []float64
	T []float64
	Q [][]float64 // [molecule][layer], explicit molecules only, parsed order
}

// Parse reads the keyword + data-row atmosphere file format of §6.
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerr.Formatf("atmo: open %s: %v", path, err)
	}
	defer f.Close()

	af := &File{FctR: 1, FctP: 1, FctT: 1}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var dataLines [][]string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.ContainsAny(line[0:1], "qzuinf#") {
			fields := strings.Fields(line)
			dataLines = append(dataLines, fields)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if err := af.parseKeyword(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, xerr.Formatf("atmo: scan: %v", err)
	}

	nmol := len(af.Explicit)
	af.Q = make([][]float64, nmol)
	for i := range af.Q {
		af.Q[i] = make([]float64, 0, len(dataLines))
	}
	for _, fields := range dataLines {
		if len(fields) != 3+nmol {
			return nil, xerr.Formatf("atmo: data row expected %d fields, got %d", 3+nmol, len(fields))
		}
		r, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, xerr.Formatf("atmo: radius: %v", err)
		}
		p, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, xerr.Formatf("atmo: pressure: %v", err)
		}
		temp, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, xerr.Formatf("atmo: temperature: %v", err)
		}
		af.R = append(af.R, r)
		af.P = append(af.P, p)
		af.T = append(af.T, temp)
		for i := 0; i < nmol; i++ {
			q, err := strconv.ParseFloat(fields[3+i], 64)
			if err != nil {
				return nil, xerr.Formatf("atmo: abundance: %v", err)
			}
			af.Q[i] = append(af.Q[i], q)
		}
	}
	return af, nil
}

func (af *File) parseKeyword(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "q":
		if len(fields) != 2 {
			return xerr.Formatf("atmo: q line expects 1 field")
		}
		af.MassFraction = fields[1] == "m"
	case "z":
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return xerr.Formatf("atmo: z: %v", err)
		}
		af.ZeroRadius = v
	case "n":
		af.Comment = strings.TrimSpace(strings.TrimPrefix(line, "n"))
	case "i":
		af.Explicit = append([]string(nil), fields[1:]...)
	case "f":
		// "f <name> = <share> <alias>"
		if len(fields) != 5 || fields[2] != "=" {
			return xerr.Formatf("atmo: malformed f line: %q", line)
		}
		share, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return xerr.Formatf("atmo: remainder share: %v", err)
		}
		af.Remainders = append(af.Remainders, Remainder{Name: fields[1], Share: share, Alias: fields[4]})
	default:
		if strings.HasPrefix(fields[0], "ur") {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return xerr.Formatf("atmo: ur: %v", err)
			}
			af.FctR = v
		} else if strings.HasPrefix(fields[0], "up") {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return xerr.Formatf("atmo: up: %v", err)
			}
			af.FctP = v
		} else if strings.HasPrefix(fields[0], "ut") {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return xerr.Formatf("atmo: ut: %v", err)
			}
			af.FctT = v
		} else {
			return xerr.Formatf("atmo: unknown keyword line %q", line)
		}
	}
	return nil
}

// shareTolerance is the §6 remainder-share sum tolerance.
const shareTolerance = 1e-5

// ValidateRemainders checks the remainder molecules' shares sum to 1.
func (af *File) ValidateRemainders() error {
	var sum float64
	for _, r := range af.Remainders {
		sum += r.Share
	}
	if len(af.Remainders) > 0 && abs(sum-1.0) > shareTolerance {
		return xerr.Invariantf("atmo: remainder shares sum to %g, expected 1.0 +/- %g", sum, shareTolerance)
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Molecule is a bound chemical species carrying a per-layer abundance and
// density profile over the solver's radius grid, per §3.
type Molecule struct {
	Name   string
	Mass   float64
	Radius float64 // hard-sphere radius, cm
	Q      []float64 // abundance fraction per radius
	D      []float64 // number density per radius, cm^-3
}

// Bound is the result of binding a parsed atmosphere File (already
// resampled onto the solver's radius grid by the caller using package
// resample) against the molecule-metadata table.
type Bound struct {
	Molecules []*Molecule
	MeanMass  []float64 // mean molar mass per layer
}

const allowQDefault = 0.01

// Bind implements the per-layer computation of §4.C: remainder-molecule
// abundances, mean molar mass, and number densities. r, p, t and the
// per-molecule q arrays must already share the solver's radius-grid length
// (resampling is the caller's responsibility via package resample).
func Bind(af *File, q [][]float64, p, t []float64, tbl *molinfo.Table, allowQ float64) (*Bound, error) {
	if allowQ <= 0 {
		allowQ = allowQDefault
	}
	nLayer := len(p)
	nExplicit := len(af.Explicit)

	molecules := make([]*Molecule, 0, nExplicit+len(af.Remainders))
	for i, name := range af.Explicit {
		mass, radius, err := lookupMolecule(tbl, name)
		if err != nil {
			return nil, err
		}
		molecules = append(molecules, &Molecule{
			Name:   name,
			Mass:   mass,
			Radius: radius,
			Q:      append([]float64(nil), q[i]...),
			D:      make([]float64, nLayer),
		})
	}

	explicitSum := make([]float64, nLayer)
	for _, m := range molecules {
		for r := 0; r < nLayer; r++ {
			explicitSum[r] += m.Q[r]
		}
	}

	for _, rem := range af.Remainders {
		mass, radius, err := lookupMolecule(tbl, rem.Name)
		if err != nil {
			return nil, err
		}
		mol := &Molecule{Name: rem.Name, Mass: mass, Radius: radius, Q: make([]float64, nLayer), D: make([]float64, nLayer)}
		for r := 0; r < nLayer; r++ {
			mol.Q[r] = rem.Share * (1 - explicitSum[r])
		}
		molecules = append(molecules, mol)
	}

	meanMass := make([]float64, nLayer)
	for r := 0; r < nLayer; r++ {
		var qSum, qm float64
		for _, m := range molecules {
			qSum += m.Q[r]
			qm += m.Q[r] * m.Mass
		}
		if abs(qSum-1.0) > allowQ {
			return nil, xerr.Invariantf("atmo: layer %d abundance sum %g deviates from 1 by more than allowQ=%g", r, qSum, allowQ)
		}
		if af.MassFraction {
			meanMass[r] = qm
		} else {
			meanMass[r] = qm / qSum
		}
	}

	for _, m := range molecules {
		for r := 0; r < nLayer; r++ {
			q := m.Q[r]
			if af.MassFraction {
				q = q * meanMass[r] / m.Mass
			}
			m.D[r] = q * p[r] / (kBoltzmann * t[r])
		}
	}

	return &Bound{Molecules: molecules, MeanMass: meanMass}, nil
}

func lookupMolecule(tbl *molinfo.Table, name string) (mass, radius float64, err error) {
	canonical := tbl.Canonical(name)
	radius, _ = tbl.Radius(canonical)
	if m, err2 := tbl.MolarMass(canonical); err2 == nil {
		mass = m
	} else {
		return 0, 0, xerr.Formatf("atmo: cannot determine molar mass of %q: %v", name, err2)
	}
	return mass, radius, nil
}

// IsotopeDensity derives an isotope's per-layer number density from its
// host molecule's density and isotopic ratio, per §9's cyclic-link note:
// isotopes carry an index into the molecule table rather than a back
// pointer, and their density is derived on read.
func IsotopeDensity(mol *Molecule, ratio float64, layer int) float64 {
	return mol.D[layer] * ratio
}

// RefractiveIndex builds the per-layer index-of-refraction profile the
// level-2 tangent-path integrator needs, via the Gladstone-Dale relation
// n(r)-1 = k * numberDensity(r), where numberDensity(r) sums every bound
// molecule's density at that layer and k is a caller-supplied refractivity
// coefficient (cm^3). k=0 yields n=1 everywhere, collapsing level 2 onto
// level 1's constant-refraction path. Indexed the same way as each
// Molecule.D (ascending radius, matching the solver's radius grid before
// any outer-to-inner reordering the caller applies).
func RefractiveIndex(b *Bound, k float64) []float64 {
	if len(b.Molecules) == 0 {
		return nil
	}
	nLayer := len(b.Molecules[0].D)
	n := make([]float64, nLayer)
	for r := 0; r < nLayer; r++ {
		n[r] = 1
		if k == 0 {
			continue
		}
		var d float64
		for _, m := range b.Molecules {
			d += m.D[r]
		}
		n[r] += k * d
	}
	return n
}
