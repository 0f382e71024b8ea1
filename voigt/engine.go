// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voigt

import (
	"math"

	"github.com/exoplanet-transit/transit/tli"
	"github.com/exoplanet-transit/transit/xerr"
)

const (
	kBoltzmann = 1.380649e-16  // erg/K
	amu        = 1.66053906660e-24 // g
	speedLight = 2.99792458e10 // cm/s
	eCharge    = 4.80320425e-10 // esu
	eMass      = 9.1093837015e-28 // g
	sigma0     = math.Pi * eCharge * eCharge / (eMass * speedLight)

	// defaultMaxElements is the profile point-count threshold above which
	// quick mode engages automatically, grounded on pu/src/voigt.c's
	// `_voigt_maxelements=99999`.
	defaultMaxElements = 99999
)

// Config holds the engine's tunable parameters from §4.E and §6.
type Config struct {
	FineBin     int     // oversampling factor; default 5
	TimesAlpha  float64 // profile half-width multiple of max(alphaD,alphaL); default 50
	MaxRatio    float64 // recalc threshold on Doppler-width change; default 0.001
	MinElow     float64 // optional low-energy cutoff, 0 disables
	BlowEx      float64 // strength-scaling factor; default 1
	PerIso      bool    // keep isotopes on separate extinction planes
	Quick       bool    // force coarse-bin evaluation regardless of profile width
	MaxElements int     // point-count threshold that auto-triggers Quick; 0 means defaultMaxElements
}

// DefaultConfig returns the §4.E/§6 defaults.
func DefaultConfig() Config {
	return Config{FineBin: 5, TimesAlpha: 50, MaxRatio: 0.001, BlowEx: 1, MaxElements: defaultMaxElements}
}

// profile is the [fine_bin, wavenumber_offset] buffer for one isotope,
// rebuilt whenever the recalc bookkeeping says the Doppler width drifted
// too far from the profile's reference centre.
type profile struct {
	n        int // point count: 2*round(w/dwn)+1
	halfN    int
	fineBin  int
	vals     [][]float64 // [fineBin][n]
	builtAt  float64     // wavenumber at which this profile was built
	recalcAt int         // wavenumber index at which a rebuild is required
}

// buildProfile implements the profile-generation step of §4.E: half-width
// w = max(alphaD,alphaL)*timesAlpha, n = 2*round(w/dwn)+1, fineBin shifted
// copies of the Voigt function. A profile wider than cfg.MaxElements points
// (or with Quick forced true) collapses to a single fine-bin shift, per
// pu/src/voigt.c's nvgt>_voigt_maxelements trigger for VOIGT_QUICK.
func buildProfile(wn0, alphaD, alphaL, dwn float64, cfg Config) *profile {
	w := math.Max(alphaD, alphaL) * cfg.TimesAlpha
	halfN := int(math.Round(w / dwn))
	n := 2*halfN + 1
	fineBin := cfg.FineBin
	if fineBin < 1 {
		fineBin = 1
	}
	maxElements := cfg.MaxElements
	if maxElements <= 0 {
		maxElements = defaultMaxElements
	}
	if cfg.Quick || n > maxElements {
		fineBin = 1
	}

	vals := make([][]float64, fineBin)
	for s := 0; s < fineBin; s++ {
		shift := float64(s) / float64(fineBin) * dwn
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			offset := float64(j-halfN) * dwn
			row[j] = Eval(wn0+offset+shift, wn0+shift, alphaD, alphaL)
		}
		vals[s] = row
	}
	return &profile{n: n, halfN: halfN, fineBin: fineBin, vals: vals, builtAt: wn0}
}

// IsotopeLine carries the per-isotope physical quantities `compute_layer`
// needs to build a profile and scale transitions.
type IsotopeLine struct {
	Mass     float64
	Ratio    float64 // isotopic abundance ratio within its parent molecule
	Molecule int     // index into the caller's molecule density/radius arrays
}

// MoleculeData is the per-layer molecule density and hard-sphere radius
// the Lorentz-width sum of §4.E needs.
type MoleculeData struct {
	Mass   float64
	Radius float64
	Dens   float64 // number density at this layer
}

// Cube is the narrow interface the engine writes extinction into: a
// read-write view of one (isotope_or_shared, radius) plane over the
// wavenumber grid, matching the extcube.Cube lazy-write contract.
type Cube interface {
	Plane(isotope, radius int) []float64
}

// ComputeLayer implements `compute_layer` of §4.E: for layer r at
// temperature T, accumulate every transition's Voigt-broadened line shape
// into the extinction cube's plane(s) for this layer.
func ComputeLayer(
	cfg Config,
	wn []float64, // solver wavenumber grid, ascending
	r, T int,
	temperature float64,
	isoLines []IsotopeLine,
	isoZ func(iso int, T float64) float64, // interpolated partition function
	molecules []MoleculeData,
	trans *tli.Transitions,
	cube Cube,
) error {
	if len(wn) < 2 {
		return xerr.Invariantf("voigt: wavenumber grid needs at least 2 points")
	}
	dwn := wn[1] - wn[0]
	nIso := len(isoLines)

	propD := math.Sqrt(2*kBoltzmann*temperature/amu) * math.Sqrt(math.Ln2) / speedLight
	propL := math.Sqrt(2*kBoltzmann*temperature/math.Pi/amu) / (amu * speedLight)

	alphaD := make([]float64, nIso)
	alphaL := make([]float64, nIso)
	for i, line := range isoLines {
		alphaD[i] = propD / math.Sqrt(line.Mass)
		mol := molecules[line.Molecule]
		var sum float64
		for j, other := range molecules {
			_ = j
			sum += other.Dens / other.Mass * (mol.Radius + other.Radius) * (mol.Radius + other.Radius) *
				math.Sqrt(1/line.Mass+1/other.Mass)
		}
		alphaL[i] = propL * sum
	}

	profiles := make([]*profile, nIso)
	wnTop := wn[len(wn)-1]
	for i := range isoLines {
		profiles[i] = buildProfile(wnTop, alphaD[i]*wnTop, alphaL[i], dwn, cfg)
		recalc := int(math.Ceil(cfg.MaxRatio * wnTop / dwn))
		profiles[i].recalcAt = len(wn) - 1 - recalc
		if profiles[i].recalcAt < 1 {
			profiles[i].recalcAt = 1
		}
	}
	defer func() {
		for i := range profiles {
			profiles[i] = nil // profile memory released at end of compute_layer, per §4.E invariant
		}
	}()

	prevW := make([]int, nIso)
	for i := range prevW {
		prevW[i] = -1
	}

	for k := 0; k < trans.Len(); k++ {
		if cfg.MinElow > 0 && trans.Elow[k] < cfg.MinElow {
			continue
		}
		nu := 1e4 / trans.Wl[k] // um -> cm^-1
		if nu < wn[0] || nu > wn[len(wn)-1] {
			continue
		}
		isoID := int(trans.IsoID[k])
		if isoID < 0 || isoID >= nIso {
			continue
		}

		w := binSearch(wn, nu)
		if w < prevW[isoID] {
			return xerr.Invariantf("voigt: transitions not monotonic in wavenumber for isotope %d", isoID)
		}
		prevW[isoID] = w

		subw := int(float64(profiles[isoID].fineBin) * (nu - wn[w]) / dwn)
		if subw >= profiles[isoID].fineBin {
			subw = profiles[isoID].fineBin - 1
		}
		if subw < 0 {
			subw = 0
		}

		if w <= profiles[isoID].recalcAt {
			nuW := wn[w]
			profiles[isoID] = buildProfile(nuW, alphaD[isoID]*nuW, alphaL[isoID], dwn, cfg)
			recalc := int(math.Ceil(cfg.MaxRatio * nuW / dwn))
			profiles[isoID].recalcAt = w - recalc
			if profiles[isoID].recalcAt < 1 {
				profiles[isoID].recalcAt = 1
			}
		}

		line := isoLines[isoID]
		mol := molecules[line.Molecule]
		rho := mol.Dens * line.Ratio
		Z := isoZ(isoID, temperature)
		if Z <= 0 {
			continue
		}
		elow := trans.Elow[k]
		logGf := trans.LogGf[k]
		gf := math.Pow(10, logGf)
		k0 := rho * sigma0 * gf * math.Exp(-elow/(kBoltzmann*temperature)) *
			(1 - math.Exp(-nu/(kBoltzmann*temperature)/speedLight)) / line.Mass / Z
		k0 *= cfg.BlowEx

		pr := profiles[isoID]
		lo := w - pr.halfN
		hi := w + pr.halfN + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(wn) {
			hi = len(wn)
		}
		planeIso := 0
		if cfg.PerIso {
			planeIso = isoID
		}
		plane := cube.Plane(planeIso, r)
		row := pr.vals[subw]
		base := w - pr.halfN
		for j := lo; j < hi; j++ {
			plane[j] += k0 * row[j-base]
		}
	}
	return nil
}

// binSearch returns the index i such that wn[i] <= v < wn[i+1] (or the
// closest bin), by binary search over the ascending wavenumber grid.
func binSearch(wn []float64, v float64) int {
	lo, hi := 0, len(wn)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if wn[mid] <= v {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
