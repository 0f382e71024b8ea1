// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package molinfo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sample = `# atomic masses
H 1.008
O 15.999
C 12.011
#
# aliases
water H2O
#
# diameters
H2O 2.75
CO2 3.30
`

func TestLoad(t *testing.T) {
	f, err := os.CreateTemp("", "mol-*.dat")
	assert.NoError(t, err)
	_, err = f.WriteString(sample)
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	tbl, err := Load(f.Name())
	assert.NoError(t, err)
	assert.InDelta(t, 1.008, tbl.AtomicMass["H"], 1e-9)
	assert.Equal(t, "H2O", tbl.Canonical("water"))
	r, ok := tbl.Radius("water")
	assert.True(t, ok)
	assert.InDelta(t, 1.375e-8, r, 1e-12)
}

func TestDecomposeAndMolarMass(t *testing.T) {
	parts := Decompose("CO2")
	assert.Equal(t, []Formula{{"C", 1}, {"O", 2}}, parts)

	tbl := &Table{AtomicMass: map[string]float64{"C": 12.011, "O": 15.999}}
	mass, err := tbl.MolarMass("CO2")
	assert.NoError(t, err)
	assert.InDelta(t, 12.011+2*15.999, mass, 1e-9)
}
