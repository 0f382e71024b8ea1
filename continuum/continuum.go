// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package continuum implements the §4.F additive continuum-opacity
// contributions: collision-induced absorption (CIA) tables interpolated
// in temperature then wavenumber, a pluggable Rayleigh/scattering hook,
// and a linear-ramp grey cloud.
//
// Grounded on the CIA file format of §6 and
// original_source/transit/src/atmosphere/at_common.c for how continuum
// contributions are folded into the per-layer extinction alongside
// molecular opacity. CIA spline interpolation reuses package resample.
package continuum

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/exoplanet-transit/transit/resample"
	"github.com/exoplanet-transit/transit/xerr"
)

// CIATable is one loaded CIA file: a 2-D table of (temperature,
// wavenumber) extinction-per-Amagat-squared values.
type CIATable struct {
	MolA, MolB string // the two participating molecules
	T          []float64
	Wn         []float64
	Val        [][]float64 // [wn][T]
}

// LoadCIA reads the text table format of §6: comment lines start with '#',
// the first non-comment line lists temperatures, subsequent lines are
// (wavenumber, values at each temperature).
func LoadCIA(path, molA, molB string) (*CIATable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerr.Formatf("continuum: open %s: %v", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	table := &CIATable{MolA: molA, MolB: molB}
	haveTemps := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if !haveTemps {
			for _, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, xerr.Formatf("continuum: temperature: %v", err)
				}
				table.T = append(table.T, v)
			}
			haveTemps = true
			continue
		}
		if len(fields) != 1+len(table.T) {
			return nil, xerr.Formatf("continuum: row expected %d fields, got %d", 1+len(table.T), len(fields))
		}
		wn, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, xerr.Formatf("continuum: wavenumber: %v", err)
		}
		row := make([]float64, len(table.T))
		for i := 1; i < len(fields); i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, xerr.Formatf("continuum: value: %v", err)
			}
			row[i-1] = v
		}
		table.Wn = append(table.Wn, wn)
		table.Val = append(table.Val, row)
	}
	if err := sc.Err(); err != nil {
		return nil, xerr.Formatf("continuum: scan: %v", err)
	}
	return table, nil
}

// Extinction returns the CIA contribution at (wavenumber, temperature)
// scaled by the product of the two molecules' densities (in Amagat^2).
// Out-of-range temperature or wavenumber contributes zero, per §4.F.
func (t *CIATable) Extinction(wn, T, densA, densB float64) (float64, error) {
	if len(t.T) == 0 || len(t.Wn) == 0 {
		return 0, nil
	}
	if T < t.T[0] || T > t.T[len(t.T)-1] {
		return 0, nil
	}
	if wn < t.Wn[0] || wn > t.Wn[len(t.Wn)-1] {
		return 0, nil
	}

	// interpolate in T at each table wavenumber.
	sT := resample.New()
	if err := sT.SetX(t.T, []float64{T}); err != nil {
		return 0, nil
	}
	atT := make([]float64, len(t.Wn))
	for i := range t.Wn {
		rowT := make([]float64, 1)
		if err := sT.InterpY(resample.Spline, t.Val[i], rowT); err != nil {
			return 0, xerr.Wrap(err, "continuum: T interpolation")
		}
		atT[i] = rowT[0]
	}

	sWn := resample.New()
	if err := sWn.SetX(t.Wn, []float64{wn}); err != nil {
		return 0, nil
	}
	out := make([]float64, 1)
	if err := sWn.InterpY(resample.Spline, atT, out); err != nil {
		return 0, xerr.Wrap(err, "continuum: wavenumber interpolation")
	}

	const amagat = 2.6867811e19 // molecules/cm^3 at STP
	return out[0] * (densA / amagat) * (densB / amagat), nil
}

// RayleighFunc is the pluggable scattering hook of §4.F: it sees radius,
// temperature, density, and wavenumber and returns an extinction
// contribution.
type RayleighFunc func(radius, temperature, density, wn float64) float64

// Rayleigh evaluates the configured hook, or zero if none is set.
func Rayleigh(fn RayleighFunc, radius, temperature, density, wn float64) float64 {
	if fn == nil {
		return 0
	}
	return fn(radius, temperature, density, wn)
}

// RayleighPowerLaw is a simple closed-form scattering hook:
// sigma(wn) = coefficient * wn^4 * density, matching the classic
// Rayleigh wn^-4 wavelength dependence (slope of -4 in log wavenumber,
// per §8 scenario 2).
func RayleighPowerLaw(coefficient float64) RayleighFunc {
	return func(radius, temperature, density, wn float64) float64 {
		return coefficient * wn * wn * wn * wn * density
	}
}

// Cloud is the grey-cloud continuum of §4.F: a linear ramp from
// extinction 0 at RadiusUpper to MaxExtinction at RadiusLower, zero above
// RadiusUpper, MaxExtinction below RadiusLower.
type Cloud struct {
	RadiusUpper   float64
	RadiusLower   float64
	MaxExtinction float64
}

// Validate checks the §4.F invariants (upper >= lower, both positive).
func (c Cloud) Validate() error {
	if c.RadiusUpper < c.RadiusLower {
		return xerr.Invariantf("continuum: cloud upper radius %g must be >= lower radius %g", c.RadiusUpper, c.RadiusLower)
	}
	if c.RadiusLower <= 0 || c.RadiusUpper <= 0 {
		return xerr.Invariantf("continuum: cloud radii must be positive")
	}
	return nil
}

// Extinction evaluates the linear ramp at radius r.
func (c Cloud) Extinction(r float64) float64 {
	if r >= c.RadiusUpper {
		return 0
	}
	if r <= c.RadiusLower {
		return c.MaxExtinction
	}
	frac := (c.RadiusUpper - r) / (c.RadiusUpper - c.RadiusLower)
	return frac * c.MaxExtinction
}
