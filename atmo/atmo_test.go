// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atmo

import (
	"os"
	"testing"

	"github.com/exoplanet-transit/transit/molinfo"
	"github.com/stretchr/testify/assert"
)

const sample = `# sample atmosphere
q n
z 0.0
ur 1.0
up 1.0
ut 1.0
i H2O CO2
f He = 0.85 noalias
f H2 = 0.15 noalias
6.40e8 1.0e6 1350.0 1.0e-4 1.0e-5
6.41e8 1.0e5 1300.0 1.0e-4 1.0e-5
`

func testTable() *molinfo.Table {
	return &molinfo.Table{
		AtomicMass: map[string]float64{"H": 1.008, "O": 15.999, "C": 12.011, "He": 4.0026},
		Alias:      map[string]string{},
		Diameter:   map[string]float64{"H2O": 1.375e-8, "CO2": 1.65e-8, "He": 1.3e-8, "H2": 1.2e-8},
	}
}

func TestParse(t *testing.T) {
	f, err := os.CreateTemp("", "atmo-*.dat")
	assert.NoError(t, err)
	_, err = f.WriteString(sample)
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	af, err := Parse(f.Name())
	assert.NoError(t, err)
	assert.False(t, af.MassFraction)
	assert.Equal(t, []string{"H2O", "CO2"}, af.Explicit)
	assert.Len(t, af.Remainders, 2)
	assert.Len(t, af.R, 2)
	assert.NoError(t, af.ValidateRemainders())
}

func TestBind(t *testing.T) {
	f, err := os.CreateTemp("", "atmo-*.dat")
	assert.NoError(t, err)
	_, err = f.WriteString(sample)
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	af, err := Parse(f.Name())
	assert.NoError(t, err)

	bound, err := Bind(af, af.Q, af.P, af.T, testTable(), 0.01)
	assert.NoError(t, err)
	assert.Len(t, bound.Molecules, 4)
	for _, m := range bound.Molecules {
		assert.Len(t, m.D, 2)
		assert.True(t, m.D[0] > 0)
	}
}
