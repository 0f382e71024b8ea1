// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package detail implements the §4.J diagnostic dump: given a list of
// requested wavenumbers, binary-search each against the solver's
// wavenumber grid and emit a rectangular table of the named quantity (τ,
// extinction, or CIA) at every radius, one row per radius and one column
// per requested wavenumber.
//
// Grounded on the same tau.c/slantpath.c sampling conventions the solver
// package uses; there is no separate detail-dump source file in the
// original program, just the --detailtau/--detailext/--detailcia flags
// whose output is assembled straight from the same arrays solver and
// continuum already populate.
package detail

import (
	"fmt"
	"os"
	"sort"

	"github.com/exoplanet-transit/transit/continuum"
	"github.com/exoplanet-transit/transit/solver"
	"github.com/exoplanet-transit/transit/xerr"
)

// locate binary-searches wn for each requested value, returning the
// index of the closest grid point <= the request (or 0 if the request is
// below the grid). Requests outside the grid are clamped, matching the
// solver's own binSearch convention (see voigt.binSearch).
func locate(grid []float64, requested []float64) []int {
	idx := make([]int, len(requested))
	for i, w := range requested {
		j := sort.SearchFloat64s(grid, w)
		if j == len(grid) || (j > 0 && grid[j] != w) {
			j--
		}
		if j < 0 {
			j = 0
		}
		idx[i] = j
	}
	return idx
}

// Table is a rectangular dump: one row per radius, one column per
// requested wavenumber.
type Table struct {
	Wn     []float64 // the requested wavenumbers, as matched on the grid
	Radius []float64
	Values [][]float64 // [radius][column]
}

// Tau builds a τ-vs-radius table at the requested wavenumbers from a
// solver.DepthArray. Rows beyond a wavenumber's saturation index repeat
// the last computed τ, matching the solver's own truncate-on-saturation
// convention.
func Tau(depth *solver.DepthArray, grid []float64, radius []float64, requested []float64) (*Table, error) {
	if len(depth.Tau) != len(grid) {
		return nil, xerr.Invariantf("detail: depth array has %d wavenumbers, grid has %d", len(depth.Tau), len(grid))
	}
	cols := locate(grid, requested)
	t := &Table{Wn: make([]float64, len(cols)), Radius: radius, Values: make([][]float64, len(radius))}
	for c, gi := range cols {
		t.Wn[c] = grid[gi]
	}
	for r := range radius {
		row := make([]float64, len(cols))
		for c, gi := range cols {
			tau := depth.Tau[gi]
			last := depth.Last[gi]
			if r <= last {
				row[c] = tau[r]
			} else {
				row[c] = tau[last]
			}
		}
		t.Values[r] = row
	}
	return t, nil
}

// Extinction builds an extinction-vs-radius table directly from a
// solver.LayerSource, forcing lazy computation at every requested column
// for every radius in the table.
func Extinction(src solver.LayerSource, grid []float64, radius []float64, requested []float64) (*Table, error) {
	cols := locate(grid, requested)
	t := &Table{Wn: make([]float64, len(cols)), Radius: radius, Values: make([][]float64, len(radius))}
	for c, gi := range cols {
		t.Wn[c] = grid[gi]
	}
	for r := range radius {
		row := make([]float64, len(cols))
		for c, gi := range cols {
			ext, err := src.EnsureComputed(r, gi)
			if err != nil {
				return nil, err
			}
			row[c] = ext
		}
		t.Values[r] = row
	}
	return t, nil
}

// CIA builds a CIA-extinction-vs-radius table from a loaded CIA table,
// given per-radius temperature and the two species' number densities.
func CIA(tbl *continuum.CIATable, grid []float64, radius []float64, requested []float64, temperature []float64, densA, densB []float64) (*Table, error) {
	if len(temperature) != len(radius) || len(densA) != len(radius) || len(densB) != len(radius) {
		return nil, xerr.Invariantf("detail: CIA table inputs must be one value per radius")
	}
	cols := locate(grid, requested)
	t := &Table{Wn: make([]float64, len(cols)), Radius: radius, Values: make([][]float64, len(radius))}
	for c, gi := range cols {
		t.Wn[c] = grid[gi]
	}
	for r := range radius {
		row := make([]float64, len(cols))
		for c, gi := range cols {
			val, err := tbl.Extinction(grid[gi], temperature[r], densA[r], densB[r])
			if err != nil {
				return nil, err
			}
			row[c] = val
		}
		t.Values[r] = row
	}
	return t, nil
}

// WriteTable writes the table to path as a whitespace-separated text
// file: a header row of wavenumbers, then one row per radius led by the
// radius value.
func WriteTable(path string, label string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return xerr.Resourcef("detail: create %s: %v", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# %s\n#%15s", label, "radius\\wn")
	for _, wn := range t.Wn {
		fmt.Fprintf(f, " %15.6f", wn)
	}
	fmt.Fprintln(f)
	for r, row := range t.Values {
		fmt.Fprintf(f, "%16.6f", t.Radius[r])
		for _, v := range row {
			fmt.Fprintf(f, " %15.6e", v)
		}
		fmt.Fprintln(f)
	}
	return nil
}
