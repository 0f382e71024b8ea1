// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package voigt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalSymmetric(t *testing.T) {
	alphaD, alphaL := 0.01, 0.005
	wn0 := 5000.0
	left := Eval(wn0-0.02, wn0, alphaD, alphaL)
	right := Eval(wn0+0.02, wn0, alphaD, alphaL)
	assert.InDelta(t, left, right, 1e-12)
}

func TestEvalPeakAtCenter(t *testing.T) {
	alphaD, alphaL := 0.01, 0.005
	wn0 := 5000.0
	center := Eval(wn0, wn0, alphaD, alphaL)
	off := Eval(wn0+0.05, wn0, alphaD, alphaL)
	assert.True(t, center > off)
	assert.False(t, math.IsNaN(center))
}

func TestEvalRegionsPositive(t *testing.T) {
	// exercise all three region boundaries: I (x<3,y<1.8), II (x<5,y<5), III.
	cases := []struct{ x, y float64 }{
		{1.0, 1.0},
		{4.0, 4.0},
		{10.0, 10.0},
	}
	for _, c := range cases {
		v := psi(c.x, c.y)
		assert.True(t, v > 0, "psi(%g,%g) should be positive, got %g", c.x, c.y, v)
	}
}

func TestBinSearch(t *testing.T) {
	wn := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 0, binSearch(wn, 1.2))
	assert.Equal(t, 3, binSearch(wn, 4.9))
	assert.Equal(t, 4, binSearch(wn, 5.0))
}

func TestBuildProfileUsesFullFineBinByDefault(t *testing.T) {
	cfg := DefaultConfig()
	p := buildProfile(5000.0, 0.01, 0.005, 0.01, cfg)
	assert.Equal(t, cfg.FineBin, p.fineBin)
}

func TestBuildProfileQuickForcesSingleFineBin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quick = true
	p := buildProfile(5000.0, 0.01, 0.005, 0.01, cfg)
	assert.Equal(t, 1, p.fineBin)
}

func TestBuildProfileAutoTriggersQuickForVeryWideProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxElements = 10 // force the n>maxElements branch with a tiny threshold
	// half-width/dwn ratio chosen so n = 2*round(w/dwn)+1 comfortably exceeds 10.
	p := buildProfile(5000.0, 1.0, 0.0, 0.01, cfg)
	assert.Equal(t, 1, p.fineBin)
}

func TestBuildProfileDefaultMaxElementsLeavesNarrowProfileUnaffected(t *testing.T) {
	cfg := DefaultConfig()
	p := buildProfile(5000.0, 0.01, 0.005, 0.01, cfg)
	assert.True(t, p.n <= defaultMaxElements)
	assert.Equal(t, cfg.FineBin, p.fineBin)
}
