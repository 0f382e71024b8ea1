// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resample

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/assert"
)

func TestLinearInterp(t *testing.T) {
	chk.PrintTitle("LinearInterp")
	s := New()
	srcX := []float64{0, 1, 2, 3}
	dstX := []float64{0.5, 1.5, 2.5}
	assert.NoError(t, s.SetX(srcX, dstX))

	srcY := []float64{0, 10, 20, 30}
	dstY := make([]float64, len(dstX))
	assert.NoError(t, s.InterpY(Linear, srcY, dstY))
	chk.Vector(t, "dstY", 1e-9, dstY, []float64{5, 15, 25})
}

func TestSetXRejectsOutOfRange(t *testing.T) {
	s := New()
	err := s.SetX([]float64{0, 1, 2}, []float64{-1})
	assert.Error(t, err)
}

func TestSetXSingletonSource(t *testing.T) {
	s := New()
	assert.NoError(t, s.SetX([]float64{5}, []float64{5, 5, 5}))
	dstY := make([]float64, 3)
	assert.NoError(t, s.InterpY(Linear, []float64{42}, dstY))
	chk.Vector(t, "dstY", 1e-15, dstY, []float64{42, 42, 42})
}

func TestSplineReproducesLinearData(t *testing.T) {
	chk.PrintTitle("SplineReproducesLinearData")
	// a natural cubic spline through collinear points is the line itself.
	s := New()
	srcX := []float64{0, 1, 2, 3, 4}
	srcY := []float64{0, 2, 4, 6, 8}
	dstX := []float64{0.5, 1.5, 2.5, 3.5}
	assert.NoError(t, s.SetX(srcX, dstX))
	dstY := make([]float64, len(dstX))
	assert.NoError(t, s.InterpY(Spline, srcY, dstY))
	chk.Vector(t, "dstY", 1e-6, dstY, []float64{1, 3, 5, 7})
}

func TestQuadratureAtLinear(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 3}
	integral, err := QuadratureAt(x, y)
	assert.NoError(t, err)
	chk.Scalar(t, "integral", 1e-6, integral, 4.5) // triangle area under y=x, 0..3
}
