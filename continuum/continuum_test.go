// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package continuum

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const ciaSample = `# H2-H2 CIA
100.0 200.0 300.0
1.0 1.0e-7 2.0e-7 3.0e-7
2.0 2.0e-7 4.0e-7 6.0e-7
3.0 3.0e-7 6.0e-7 9.0e-7
`

func TestLoadCIAAndExtinction(t *testing.T) {
	f, err := os.CreateTemp("", "cia-*.dat")
	assert.NoError(t, err)
	_, err = f.WriteString(ciaSample)
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	tbl, err := LoadCIA(f.Name(), "H2", "H2")
	assert.NoError(t, err)
	assert.Len(t, tbl.T, 3)
	assert.Len(t, tbl.Wn, 3)

	ext, err := tbl.Extinction(2.0, 200.0, 2.6867811e19, 2.6867811e19)
	assert.NoError(t, err)
	assert.InDelta(t, 4.0e-7, ext, 1e-9)

	// out of range contributes zero.
	ext, err = tbl.Extinction(2.0, 1000.0, 1, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, ext)
}

func TestCloudRamp(t *testing.T) {
	c := Cloud{RadiusUpper: 10, RadiusLower: 5, MaxExtinction: 1e-6}
	assert.NoError(t, c.Validate())
	assert.Equal(t, 0.0, c.Extinction(11))
	assert.Equal(t, 1e-6, c.Extinction(4))
	assert.InDelta(t, 5e-7, c.Extinction(7.5), 1e-12)
}

func TestCloudValidateRejectsInvertedRadii(t *testing.T) {
	c := Cloud{RadiusUpper: 5, RadiusLower: 10, MaxExtinction: 1}
	assert.Error(t, c.Validate())
}

func TestRayleighPowerLawSlope(t *testing.T) {
	fn := RayleighPowerLaw(1e-30)
	lo := Rayleigh(fn, 0, 0, 1, 1000)
	hi := Rayleigh(fn, 0, 0, 1, 2000)
	assert.InDelta(t, 16.0, hi/lo, 1e-9) // wn^4 doubling -> 16x
}
