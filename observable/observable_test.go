// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exoplanet-transit/transit/geom"
	"github.com/exoplanet-transit/transit/solver"
)

func sampleGeom() geom.Geometry {
	return geom.Geometry{StarRadius: 1.0, StarRadiusFct: 1}
}

func TestModulationStandardDecreasesWithThinnerAtmosphere(t *testing.T) {
	b := []float64{5, 4, 3, 2, 1}
	depthThick := &solver.DepthArray{
		Tau:  [][]float64{{0.1, 0.5, 2, 8, 20}},
		Last: []int{4},
	}
	depthThin := &solver.DepthArray{
		Tau:  [][]float64{{0.01, 0.02, 0.05, 0.1, 0.2}},
		Last: []int{4},
	}
	g := sampleGeom()

	mThick, err := Transmission(StandardModulation, depthThick, b, 1.0, 50, g)
	assert.NoError(t, err)
	mThin, err := Transmission(StandardModulation, depthThin, b, 1.0, 50, g)
	assert.NoError(t, err)

	// A thinner atmosphere blocks less starlight -> smaller modulation.
	assert.Less(t, mThin[0], mThick[0])
}

func TestModulationCriticalRadiusReturnsMinusOneWhenUnsaturated(t *testing.T) {
	b := []float64{5, 4, 3, 2, 1}
	depth := &solver.DepthArray{
		Tau:  [][]float64{{0.01, 0.02, 0.03, 0.04, 0.05}},
		Last: []int{4},
	}
	g := sampleGeom()
	m, err := Transmission(CriticalRadiusModulation, depth, b, 1.0, 50, g)
	assert.NoError(t, err)
	assert.Equal(t, -1.0, m[0])
}

func TestModulationCriticalRadiusInterpolates(t *testing.T) {
	b := []float64{5, 4, 3, 2, 1}
	// tau past Last stays at its zero-initialized value, exactly as
	// solver.Transmission leaves it — only tau[0..Last] is ever filled in.
	depth := &solver.DepthArray{
		Tau:  [][]float64{{1, 10, 60, 0, 0}},
		Last: []int{2},
	}
	g := sampleGeom()
	m, err := Transmission(CriticalRadiusModulation, depth, b, 1.0, 50, g)
	assert.NoError(t, err)
	// bracket is [tau[1],tau[2]]=[10,60] around toomuch=50, radii [b[1],b[2]]=[4,3]:
	// frac=(50-10)/(60-10)=0.8, muchRad=4+0.8*(3-4)=3.2, m=muchRad^2/StarRadiusCM^2.
	const solarRadiusCM = 6.957e10
	srad := g.StarRadius * solarRadiusCM
	expected := (3.2 * 3.2) / (srad * srad)
	assert.InDelta(t, expected, m[0], expected*1e-9)
}

func TestModulationCriticalRadiusIgnoresZeroedTailPastLast(t *testing.T) {
	b := []float64{5, 4, 3, 2, 1}
	// a stray hi==last+1 bug would read the zeroed tail entry (tau[3]=0)
	// as if it were real data: the bracket [10,0] over radii [4,2] would
	// extrapolate to muchRad=12 instead of interpolating to 3.2 within the
	// genuinely computed range.
	depth := &solver.DepthArray{
		Tau:  [][]float64{{1, 10, 60, 0, 0}},
		Last: []int{2},
	}
	g := sampleGeom()
	m, err := Transmission(CriticalRadiusModulation, depth, b, 1.0, 50, g)
	assert.NoError(t, err)
	const solarRadiusCM = 6.957e10
	srad := g.StarRadius * solarRadiusCM
	expected := (3.2 * 3.2) / (srad * srad)
	assert.InDelta(t, expected, m[0], expected*1e-9)
}

func TestEmergentIntensityIsPositive(t *testing.T) {
	depth := &solver.DepthArray{
		Tau:  [][]float64{{0.1, 0.5, 1.5, 4, 9}},
		Last: []int{4},
	}
	wn := []float64{2000.0}
	temperature := []float64{1200, 1300, 1400, 1500, 1600}
	out, err := EmergentIntensity(depth, wn, 1.0, temperature, 10)
	assert.NoError(t, err)
	assert.Greater(t, out[0], 0.0)
}

func TestPlanckRadianceIncreasesWithTemperature(t *testing.T) {
	lo := planckRadiance(2000, 1, 500)
	hi := planckRadiance(2000, 1, 1500)
	assert.Greater(t, hi, lo)
}
