// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package detail

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exoplanet-transit/transit/continuum"
	"github.com/exoplanet-transit/transit/solver"
)

func TestLocateFindsNearestAtOrBelow(t *testing.T) {
	grid := []float64{1000, 1100, 1200, 1300}
	idx := locate(grid, []float64{1000, 1150, 1300, 900, 5000})
	assert.Equal(t, []int{0, 1, 3, 0, 3}, idx)
}

func TestTauBuildsRowPerRadius(t *testing.T) {
	depth := &solver.DepthArray{
		Tau:  [][]float64{{0.1, 0.2, 0.3}, {1.0, 2.0, 3.0}},
		Last: []int{2, 1},
	}
	grid := []float64{1000, 2000}
	radius := []float64{3, 2, 1}

	table, err := Tau(depth, grid, radius, []float64{1000, 2000})
	assert.NoError(t, err)
	assert.Len(t, table.Values, 3)
	assert.Equal(t, 0.1, table.Values[0][0])
	// second wavenumber saturated at last=1, so row 2 repeats row 1's value.
	assert.Equal(t, 2.0, table.Values[2][1])
}

type fakeSource struct{}

func (fakeSource) EnsureComputed(r, wIdx int) (float64, error) {
	return float64(r + wIdx), nil
}

func TestExtinctionForcesComputationPerCell(t *testing.T) {
	grid := []float64{1000, 2000}
	radius := []float64{1, 2}
	table, err := Extinction(fakeSource{}, grid, radius, []float64{1000, 2000})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, table.Values[0][0])
	assert.Equal(t, 2.0, table.Values[1][1])
}

func TestCIATableDimensionMismatchErrors(t *testing.T) {
	_, err := CIA(&continuum.CIATable{}, []float64{1000}, []float64{1, 2}, []float64{1000}, []float64{300}, []float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestWriteTableProducesFile(t *testing.T) {
	table := &Table{Wn: []float64{1000, 2000}, Radius: []float64{2, 1}, Values: [][]float64{{0.1, 0.2}, {0.3, 0.4}}}
	f, err := os.CreateTemp("", "detail-*.dat")
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	assert.NoError(t, WriteTable(f.Name(), "tau", table))
	data, err := os.ReadFile(f.Name())
	assert.NoError(t, err)
	assert.Contains(t, string(data), "tau")
}
