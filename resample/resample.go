// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resample implements the shared-state resampler of §4.D: a cached
// x-axis mapping built once per (src_x, dst_x) pair so many y-arrays can be
// interpolated onto the same destination grid without recomputing
// intervals, plus linear and natural-cubic-spline evaluation.
//
// Grounded on pu/src/sampling.c for the resampling helpers. The natural
// cubic spline's tridiagonal second-derivative system is solved with
// gonum.org/v1/gonum/mat, grounded on gonum appearing in both
// spatialmodel-inmap and bob-anderson-ok/IOTAdiffraction's go.mod.
package resample

import (
	"gonum.org/v1/gonum/mat"

	"github.com/exoplanet-transit/transit/xerr"
)

// Mode selects linear or natural-cubic-spline interpolation.
type Mode int

const (
	Linear Mode = iota
	Spline
)

// mapping is one cached (index, fractional offset) pair per destination
// point, per `set_x`.
type mapping struct {
	idx int
	t   float64
}

// State is the process-wide cached x-axis mapping described in §9's
// "global mutable state" note: FreeState releases it explicitly. Unlike
// transitlog, callers that need concurrent resampling (the §5 per-worker
// continuum scratch buffers) should hold one State per worker rather than
// share a package-level singleton; State itself carries no package-level
// mutable state.
type State struct {
	srcX []float64
	dstX []float64
	maps []mapping
}

// New returns an empty resampler state.
func New() *State { return &State{} }

// SetX implements `set_x`: for each dst value, locates the bracketing
// source interval by a linear scan starting from the previous index
// (restarting from zero on wrap-around), and fails if any dst value lies
// outside the source range. A singleton source grid is permitted and
// yields a constant output.
func (s *State) SetX(srcX, dstX []float64) error {
	if len(srcX) == 1 {
		s.srcX = srcX
		s.dstX = dstX
		s.maps = make([]mapping, len(dstX))
		for i := range dstX {
			s.maps[i] = mapping{idx: 0, t: 0}
		}
		return nil
	}
	if len(srcX) < 2 {
		return xerr.Invariantf("resample: source axis needs at least 1 point, got %d", len(srcX))
	}

	lo, hi := srcX[0], srcX[len(srcX)-1]
	ascending := hi >= lo

	s.srcX = srcX
	s.dstX = dstX
	s.maps = make([]mapping, len(dstX))

	i := 0
	for d, v := range dstX {
		inRange := (ascending && v >= lo && v <= hi) || (!ascending && v <= lo && v >= hi)
		if !inRange {
			return xerr.Rangef("resample: dst value %g outside source range [%g,%g]", v, lo, hi)
		}
		if i > 0 && !between(v, srcX[i-1], srcX[i], ascending) {
			i = 0 // wrap-around restart
		}
		for i < len(srcX)-2 && !between(v, srcX[i], srcX[i+1], ascending) {
			i++
		}
		denom := srcX[i+1] - srcX[i]
		t := 0.0
		if denom != 0 {
			t = (v - srcX[i]) / denom
		}
		s.maps[d] = mapping{idx: i, t: t}
	}
	return nil
}

func between(v, a, b float64, ascending bool) bool {
	if ascending {
		return v >= a && v <= b
	}
	return v <= a && v >= b
}

// InterpY implements `interp_y` using the cached mapping.
func (s *State) InterpY(mode Mode, srcY []float64, dstY []float64) error {
	if len(s.maps) != len(dstY) {
		return xerr.Invariantf("resample: dstY length %d does not match cached mapping length %d", len(dstY), len(s.maps))
	}
	if len(s.srcX) == 1 {
		for i := range dstY {
			dstY[i] = srcY[0]
		}
		return nil
	}

	switch mode {
	case Linear:
		for d, m := range s.maps {
			y0, y1 := srcY[m.idx], srcY[m.idx+1]
			dstY[d] = (1-m.t)*y0 + m.t*y1
		}
		return nil
	case Spline:
		spl, err := buildNaturalSpline(s.srcX, srcY)
		if err != nil {
			return err
		}
		for d, m := range s.maps {
			dstY[d] = spl.eval(m.idx, s.srcX[m.idx], s.dstX[d])
		}
		return nil
	default:
		return xerr.Invariantf("resample: unknown mode %d", mode)
	}
}

// FreeState releases the cached mapping.
func (s *State) FreeState() {
	s.srcX = nil
	s.dstX = nil
	s.maps = nil
}

// naturalSpline holds per-interval cubic coefficients for a natural cubic
// spline (zero second derivative at both endpoints).
type naturalSpline struct {
	x    []float64
	y    []float64
	m    []float64 // second derivatives at each knot
}

// buildNaturalSpline solves the natural-boundary tridiagonal system for the
// second derivatives via gonum/mat, then evaluates per interval.
func buildNaturalSpline(x, y []float64) (*naturalSpline, error) {
	n := len(x)
	if n < 2 {
		return nil, xerr.Invariantf("resample: spline needs at least 2 points, got %d", n)
	}
	if n == 2 {
		return &naturalSpline{x: x, y: y, m: []float64{0, 0}}, nil
	}

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = x[i+1] - x[i]
	}

	// interior system: (n-2) unknowns m[1..n-2]; natural BC sets m[0]=m[n-1]=0.
	size := n - 2
	A := mat.NewDense(size, size, nil)
	b := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		k := i + 1
		A.Set(i, i, 2*(h[k-1]+h[k]))
		if i > 0 {
			A.Set(i, i-1, h[k-1])
		}
		if i < size-1 {
			A.Set(i, i+1, h[k])
		}
		rhs := 6 * ((y[k+1]-y[k])/h[k] - (y[k]-y[k-1])/h[k-1])
		b.SetVec(i, rhs)
	}

	m := make([]float64, n)
	if size > 0 {
		var sol mat.VecDense
		if err := sol.SolveVec(A, b); err != nil {
			return nil, xerr.Resourcef("resample: spline tridiagonal solve failed: %v", err)
		}
		for i := 0; i < size; i++ {
			m[i+1] = sol.AtVec(i)
		}
	}
	return &naturalSpline{x: x, y: y, m: m}, nil
}

// eval evaluates the spline at point v, known to lie in interval [idx,idx+1].
func (sp *naturalSpline) eval(idx int, x0, v float64) float64 {
	x1 := sp.x[idx+1]
	h := x1 - x0
	a := (x1 - v) / h
	b := (v - x0) / h
	y0, y1 := sp.y[idx], sp.y[idx+1]
	m0, m1 := sp.m[idx], sp.m[idx+1]
	return a*y0 + b*y1 +
		((a*a*a-a)*m0+(b*b*b-b)*m1)*(h*h)/6.0
}

// QuadratureAt integrates the natural cubic spline through (x,y) from x[0]
// to x[len(x)-1] analytically, used by solver/observable for the tangent-
// path and modulation integrals.
func QuadratureAt(x, y []float64) (float64, error) {
	sp, err := buildNaturalSpline(x, y)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := 0; i+1 < len(x); i++ {
		h := x[i+1] - x[i]
		total += h * (y[i]+y[i+1])/2 - h*h*h*(sp.m[i]+sp.m[i+1])/24
	}
	return total, nil
}
