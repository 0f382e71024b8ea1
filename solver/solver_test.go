// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type constSource struct {
	ext    float64
	calls  map[int]int
}

func newConstSource(ext float64) *constSource {
	return &constSource{ext: ext, calls: map[int]int{}}
}

func (s *constSource) EnsureComputed(r, wIdx int) (float64, error) {
	s.calls[r]++
	return s.ext, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func TestTangentPathConstantNZeroForSingleLayer(t *testing.T) {
	tau, err := TangentPath(ConstantRefraction, []float64{1.0}, []float64{1e-3}, 1.0, ones(1))
	assert.NoError(t, err)
	assert.Equal(t, 0.0, tau)
}

func TestTangentPathConstantNIncreasesWithExtinction(t *testing.T) {
	rad := []float64{3.0, 2.0, 1.0}
	lowExt := []float64{1e-4, 1e-4, 1e-4}
	highExt := []float64{1e-2, 1e-2, 1e-2}
	b := 1.0

	tauLow, err := TangentPath(ConstantRefraction, rad, lowExt, b, ones(3))
	assert.NoError(t, err)
	tauHigh, err := TangentPath(ConstantRefraction, rad, highExt, b, ones(3))
	assert.NoError(t, err)
	assert.Greater(t, tauHigh, tauLow)
	assert.Greater(t, tauLow, 0.0)
}

func TestTangentPathConstantNTwoLayerSynthesizesMidpoint(t *testing.T) {
	tau, err := TangentPath(ConstantRefraction, []float64{2.0, 1.0}, []float64{1e-3, 1e-3}, 1.0, ones(2))
	assert.NoError(t, err)
	assert.Greater(t, tau, 0.0)
}

func TestTangentPathVariableNMatchesConstantNWhenFlat(t *testing.T) {
	rad := []float64{3.0, 2.0, 1.0}
	ext := []float64{1e-3, 1e-3, 1e-3}
	tauConst, err := TangentPath(ConstantRefraction, rad, ext, 1.0, ones(3))
	assert.NoError(t, err)
	tauVar, err := TangentPath(VariableRefraction, rad, ext, 1.0, ones(3))
	assert.NoError(t, err)
	assert.Greater(t, tauVar, 0.0)
	assert.Greater(t, tauConst, 0.0)
	assert.False(t, math.IsNaN(tauVar) || math.IsInf(tauVar, 0))
	assert.InDelta(t, tauConst, tauVar, 0.01*tauConst)
}

func TestTangentPathVariableNRespondsToRefractiveIndexGradient(t *testing.T) {
	rad := []float64{3.0, 2.0, 1.0}
	ext := []float64{1e-3, 1e-3, 1e-3}
	flat := []float64{1.0, 1.0, 1.0}
	graded := []float64{1.0, 1.02, 1.05} // n grows inward, per a real atmosphere's density gradient

	tauFlat, err := TangentPath(VariableRefraction, rad, ext, 1.0, flat)
	assert.NoError(t, err)
	tauGraded, err := TangentPath(VariableRefraction, rad, ext, 1.0, graded)
	assert.NoError(t, err)

	// a genuine per-layer interpolation must make the graded profile's
	// closest-approach radius (and hence tau) differ from the flat one;
	// a scalar-n stub would return identical values regardless of refIdx.
	assert.NotEqual(t, tauFlat, tauGraded)
	assert.False(t, math.IsNaN(tauGraded) || math.IsInf(tauGraded, 0))
}

func TestLineinterpAscendingAndDescending(t *testing.T) {
	xAsc := []float64{1, 2, 3}
	yAsc := []float64{10, 20, 30}
	assert.InDelta(t, 15.0, lineinterp(1.5, xAsc, yAsc), 1e-9)

	xDesc := []float64{3, 2, 1}
	yDesc := []float64{30, 20, 10}
	assert.InDelta(t, 25.0, lineinterp(2.5, xDesc, yDesc), 1e-9)

	// out-of-range refx clamps to the nearest endpoint.
	assert.Equal(t, 30.0, lineinterp(10.0, xDesc, yDesc))
	assert.Equal(t, 10.0, lineinterp(-10.0, xDesc, yDesc))
}

func TestTransmissionSaturatesAtTauMax(t *testing.T) {
	wn := []float64{1000.0}
	b := []float64{5, 4, 3, 2, 1}
	rad := []float64{5, 4, 3, 2, 1}
	src := newConstSource(100.0) // extreme extinction to force early saturation

	out, err := Transmission(Config{TauMax: 1}, wn, b, rad, nil, src)
	assert.NoError(t, err)
	assert.Len(t, out.Tau, 1)
	assert.Less(t, out.Last[0], len(b)-1)
}

func TestTransmissionWalksFullPathWhenUnsaturated(t *testing.T) {
	wn := []float64{1000.0}
	b := []float64{5, 4, 3, 2, 1}
	rad := []float64{5, 4, 3, 2, 1}
	src := newConstSource(1e-8)

	out, err := Transmission(Config{TauMax: 50}, wn, b, rad, nil, src)
	assert.NoError(t, err)
	assert.Equal(t, len(b)-1, out.Last[0])
}

func TestTransmissionVariableRefractionWithDefaultFlatProfile(t *testing.T) {
	// b[i]==rad[i] by construction (see pipeline wiring), which makes the
	// closest-approach radius coincide exactly with the innermost sampled
	// layer whenever n==1 everywhere — the common case when no refIdx is
	// supplied. This must not blow up into NaN/Inf.
	wn := []float64{1000.0}
	b := []float64{5, 4, 3, 2, 1}
	rad := []float64{5, 4, 3, 2, 1}
	src := newConstSource(1e-3)

	out, err := Transmission(Config{TauMax: 50, TauLevel: VariableRefraction}, wn, b, rad, nil, src)
	assert.NoError(t, err)
	for _, v := range out.Tau[0][:out.Last[0]+1] {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestTransmissionVariableRefractionWithGradedProfile(t *testing.T) {
	wn := []float64{1000.0}
	b := []float64{5, 4, 3, 2, 1}
	rad := []float64{5, 4, 3, 2, 1}
	refIdx := []float64{1.0, 1.01, 1.02, 1.03, 1.04}
	src := newConstSource(1e-3)

	out, err := Transmission(Config{TauMax: 50, TauLevel: VariableRefraction}, wn, b, rad, refIdx, src)
	assert.NoError(t, err)
	for _, v := range out.Tau[0][:out.Last[0]+1] {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestEmissionAccumulatesAlongRadius(t *testing.T) {
	wn := []float64{1000.0}
	rad := []float64{5, 4, 3, 2, 1}
	src := newConstSource(1e-2)

	out, err := Emission(Config{TauMax: 10}, wn, rad, src)
	assert.NoError(t, err)
	assert.Greater(t, out.Tau[0][len(rad)-1], out.Tau[0][0])
}

func TestParabolicAtReproducesKnotValues(t *testing.T) {
	v := parabolicAt(0, 1, 1, 2, 2, 5, 1)
	assert.InDelta(t, 2.0, v, 1e-9)
}
