// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const asciiSample = `# comment
1
Partridge & Schwenke (1997)
4 2
1H1H16O 18.01 1H1H17O 18.02 1H1H18O 20.01 1H2H16O 19.02
100.0 1.0 2.0 3.0 4.0 0.1 0.2 0.3 0.4
200.0 1.1 2.1 3.1 4.1 0.11 0.21 0.31 0.41
2.00000 1 100.0 -3.0
2.10000 2 110.0 -2.5
2.20000 1 120.0 -4.0
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "tli-*.tli")
	assert.NoError(t, err)
	_, err = f.WriteString(content)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadInfoASCII(t *testing.T) {
	path := writeTemp(t, asciiSample)
	info, err := LoadInfo(path)
	assert.NoError(t, err)
	assert.Equal(t, ASCII, info.Dialect)
	assert.Len(t, info.Databases, 1)
	db := info.Databases[0]
	assert.Equal(t, "Partridge & Schwenke (1997)", db.Name)
	assert.Len(t, db.Isotopes, 4)
	assert.Equal(t, "H2O", db.Isotopes[0].Molecule)
	assert.InDelta(t, 0.997317, db.Isotopes[0].Ratio, 1e-9)
	assert.Equal(t, []float64{100.0, 200.0}, db.T)
}

func TestLoadRangeASCIIFiltersWindow(t *testing.T) {
	path := writeTemp(t, asciiSample)
	info, err := LoadInfo(path)
	assert.NoError(t, err)

	trans, err := LoadRange(info, 2.05, 2.2)
	assert.NoError(t, err)
	assert.Equal(t, 2, trans.Len())
	assert.InDelta(t, 2.1, trans.Wl[0], 1e-9)
	assert.InDelta(t, 2.2, trans.Wl[1], 1e-9)
}

func TestCheckRange(t *testing.T) {
	lo, hi, err := CheckRange(2.0, 2.5, 1.0, 3.0, 0.1)
	assert.NoError(t, err)
	assert.InDelta(t, 1.9, lo, 1e-9)
	assert.InDelta(t, 2.6, hi, 1e-9)

	_, _, err = CheckRange(2.0, 2.5, 1.0, 3.0, 1.5)
	assert.Error(t, err)
}
