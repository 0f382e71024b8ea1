// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package extcube

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrComputeInvokesOnce(t *testing.T) {
	c, err := New(1, 3, 4)
	assert.NoError(t, err)

	calls := 0
	compute := func(r int) error {
		calls++
		plane := c.Plane(0, r)
		for i := range plane {
			plane[i] = float64(r + i)
		}
		return nil
	}

	_, err = c.GetOrCompute(1, compute)
	assert.NoError(t, err)
	_, err = c.GetOrCompute(1, compute)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, c.IsComputed(1))
	assert.False(t, c.IsComputed(0))
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	c, err := New(1, 2, 3)
	assert.NoError(t, err)
	plane0 := c.Plane(0, 0)
	plane0[0], plane0[1], plane0[2] = 1.5, 2.5, 3.5
	c.MarkComputed(0)

	path, err := os.CreateTemp("", "ext-*.bin")
	assert.NoError(t, err)
	path.Close()
	t.Cleanup(func() { os.Remove(path.Name()) })

	assert.NoError(t, c.Save(path.Name()))

	c2, err := New(1, 2, 3)
	assert.NoError(t, err)
	c2.Restore(path.Name())

	assert.Equal(t, plane0, c2.Plane(0, 0))
	assert.True(t, c2.IsComputed(0))
	assert.False(t, c2.IsComputed(1))
}

func TestRestoreCorruptFileWarnsAndIgnores(t *testing.T) {
	path, err := os.CreateTemp("", "ext-bad-*.bin")
	assert.NoError(t, err)
	_, err = path.WriteString("not a valid save file")
	assert.NoError(t, err)
	path.Close()
	t.Cleanup(func() { os.Remove(path.Name()) })

	c, err := New(1, 2, 3)
	assert.NoError(t, err)
	c.Restore(path.Name())
	assert.False(t, c.IsComputed(0))
}
