// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCIAPairSplitsHitranStyleName(t *testing.T) {
	molA, molB, err := parseCIAPair("/data/H2-He_2011.dat")
	assert.NoError(t, err)
	assert.Equal(t, "H2", molA)
	assert.Equal(t, "He", molB)
}

func TestParseCIAPairRejectsNameWithoutDash(t *testing.T) {
	_, _, err := parseCIAPair("/data/H2He.dat")
	assert.Error(t, err)
}

func TestParseRayleighTermsParsesCommaList(t *testing.T) {
	terms, err := parseRayleighTerms("H2:5.8e-27, He:1.1e-27")
	assert.NoError(t, err)
	assert.Len(t, terms, 2)
	assert.Equal(t, "H2", terms[0].molecule)
	assert.Equal(t, "He", terms[1].molecule)
}

func TestParseRayleighTermsRejectsMissingCoefficient(t *testing.T) {
	_, err := parseRayleighTerms("H2")
	assert.Error(t, err)
}

func TestParseDetailSpecSplitsFileAndWavenumbers(t *testing.T) {
	path, wns, err := parseDetailSpec("out.dat:1000,1500.5,2000")
	assert.NoError(t, err)
	assert.Equal(t, "out.dat", path)
	assert.Equal(t, []float64{1000, 1500.5, 2000}, wns)
}

func TestParseDetailSpecRejectsMissingColon(t *testing.T) {
	_, _, err := parseDetailSpec("out.dat")
	assert.Error(t, err)
}

func TestInterpZClampsAndInterpolates(t *testing.T) {
	zt := zTable{T: []float64{100, 200, 300}, Z: []float64{1, 2, 4}}
	assert.Equal(t, 1.0, interpZ(zt, 50))
	assert.Equal(t, 4.0, interpZ(zt, 1000))
	assert.InDelta(t, 3.0, interpZ(zt, 250), 1e-9)
}
