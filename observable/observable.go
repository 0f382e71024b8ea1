// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package observable implements the §4.H observable stage: turning a
// per-wavenumber optical-depth array into the transmission-modulation
// curve (in/out-of-transit flux ratio) or the emergent-intensity curve
// (eclipse depth).
//
// Grounded on transit/src/slantpath.c's modulation1/modulationm1 (levels
// 1 and -1 of the transmission modulation) and transit/src/eclipse.c's
// eclipse_intens (the Planck-weighted emission integral).
package observable

import (
	"math"

	"github.com/exoplanet-transit/transit/geom"
	"github.com/exoplanet-transit/transit/resample"
	"github.com/exoplanet-transit/transit/solver"
	"github.com/exoplanet-transit/transit/xerr"
)

// ModLevel selects the transmission-modulation formula of §4.H.
type ModLevel int

const (
	// StandardModulation integrates exp(-tau)*r across the whole sampled
	// impact-parameter range (equation 3.12 of the grounding source).
	StandardModulation ModLevel = 1
	// CriticalRadiusModulation treats the planet as an opaque disc at
	// the radius where tau first reaches toomuch, returning -1 when
	// toomuch was never reached.
	CriticalRadiusModulation ModLevel = -1
)

const (
	planckH    = 6.62607015e-27 // erg*s
	boltzmannK = 1.380649e-16   // erg/K
	speedLight = 2.99792458e10  // cm/s
)

// Transmission computes the modulation curve for every wavenumber, given
// the optical-depth array from solver.Transmission, the impact-parameter
// axis (outer to inner, in the same units as b passed to the solver,
// with unit factor bFct), toomuch, and the system geometry.
func Transmission(level ModLevel, depth *solver.DepthArray, b []float64, bFct float64, toomuch float64, g geom.Geometry) ([]float64, error) {
	out := make([]float64, len(depth.Tau))
	for w := range depth.Tau {
		var (
			m   float64
			err error
		)
		switch level {
		case CriticalRadiusModulation:
			m, err = modulationCriticalRadius(depth.Tau[w], depth.Last[w], toomuch, b, bFct, g)
		default:
			m, err = modulationStandard(depth.Tau[w], depth.Last[w], toomuch, b, bFct, g)
		}
		if err != nil {
			return nil, err
		}
		out[w] = m
	}
	return out, nil
}

// modulationStandard implements modulation1: M = (r_p^2 - 2*integral) /
// R_star^2, integral = ∫ exp(-tau(r))*r dr over the sampled impact
// parameters, padded with one zero-integrand (opaque) entry past the last
// computed index for a clean spline tail, and with the transparent-
// planet correction subtracted when the geometry flags it.
func modulationStandard(tau []float64, last int, toomuch float64, b []float64, bFct float64, g geom.Geometry) (float64, error) {
	n := len(b)
	n1 := n - 1
	maxTau := toomuch
	if tau[last] > toomuch {
		maxTau = tau[last]
	}

	// b and tau share one index: b[i] is the impact parameter/radius at
	// which tau[i] was computed, outermost (i=0) to innermost. ipv/rinteg
	// mirror that into ascending order for the spline, padding with one
	// zero-integrand (opaque) entry past `last` for a clean tail, exactly as
	// modulation1 does.
	ipv := make([]float64, n)
	rinteg := make([]float64, n)
	i := 0
	for ; i <= last; i++ {
		ipv[n1-i] = b[i] * bFct
		rinteg[n1-i] = math.Exp(-tau[i]) * ipv[n1-i]
	}
	padded := last + 1
	if padded > n1 {
		padded = n1
	}
	for ; i <= padded; i++ {
		ipv[n1-i] = b[i] * bFct
		rinteg[n1-i] = 0
	}
	count := padded + 1
	if count < 3 {
		return 0, xerr.Invariantf("observable: fewer than 3 radii (%d) for modulation integration", count)
	}
	start := n - count

	integ, err := resample.QuadratureAt(ipv[start:], rinteg[start:])
	if err != nil {
		return 0, xerr.Wrap(err, "observable: modulation quadrature")
	}

	rTop := ipv[n1]
	res := rTop*rTop - 2*integ

	if g.TransparentPlanet {
		rInner := ipv[start]
		res -= math.Exp(-maxTau) * rInner * rInner
	}

	srad := g.StarRadiusCM()
	return res / (srad * srad), nil
}

// modulationCriticalRadius implements modulationm1: treats the planet as
// an opaque disc at the radius where tau = toomuch, found by linear
// interpolation between the two bracketing impact parameters. Returns -1
// when toomuch was never reached along this ray.
func modulationCriticalRadius(tau []float64, last int, toomuch float64, b []float64, bFct float64, g geom.Geometry) (float64, error) {
	if tau[last] < toomuch {
		return -1, nil
	}

	ini := last + 1 - 2
	if ini < 0 {
		ini = 0
	}
	hi := last
	if hi <= ini {
		return -1, nil
	}

	t0, t1 := tau[ini], tau[hi]
	r0, r1 := b[ini]*bFct, b[hi]*bFct
	if t1 == t0 {
		return 0, xerr.Invariantf("observable: degenerate tau bracket at critical radius")
	}
	frac := (toomuch - t0) / (t1 - t0)
	muchRad := r0 + frac*(r1-r0)

	srad := g.StarRadiusCM()
	return muchRad * muchRad / (srad * srad), nil
}

// EmergentIntensity computes the eclipse emission curve: for each
// wavenumber, the Planck-weighted integral of exp(-tau) along the
// optical-depth coordinate, per eclipse_intens. temperature is in
// ascending radius order (innermost layer first), the reverse of tau's
// outermost-first ordering; tau[i] is paired with temperature[nRad-1-i].
func EmergentIntensity(depth *solver.DepthArray, wn []float64, wnFct float64, temperature []float64, toomuch float64) ([]float64, error) {
	out := make([]float64, len(depth.Tau))
	nRad := len(temperature)
	for w, tau := range depth.Tau {
		last := depth.Last[w]

		tauIV := make([]float64, 0, nRad)
		tauInteg := make([]float64, 0, nRad)
		for i := 0; i <= last && i < nRad; i++ {
			b := planckRadiance(wn[w], wnFct, temperature[nRad-1-i])
			tauIV = append(tauIV, tau[i])
			tauInteg = append(tauInteg, b*math.Exp(-tau[i]))
		}
		for i := len(tauIV); i < nRad && len(tauIV) < last+3; i++ {
			tauInteg = append(tauInteg, 0)
			tauIV = append(tauIV, tauIV[len(tauIV)-1]+1)
		}
		if len(tauIV) < 3 {
			return nil, xerr.Invariantf("observable: fewer than 3 tau points (%d) for emission integration", len(tauIV))
		}

		integ, err := resample.QuadratureAt(tauIV, tauInteg)
		if err != nil {
			return nil, xerr.Wrap(err, "observable: emission quadrature")
		}
		out[w] = integ
	}
	return out, nil
}

// planckRadiance evaluates the Planck function B_wn(T) in erg/s/sr/cm,
// per eclipse_intens's blackbody term.
func planckRadiance(wn, wnFct, temperature float64) float64 {
	w := wn * wnFct
	num := 2 * planckH * w * w * w * speedLight * speedLight
	denom := math.Exp(planckH*w*speedLight/(boltzmannK*temperature)) - 1
	return num / denom
}
