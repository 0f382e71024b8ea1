// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package extcube implements the extinction cube of §3: a three-
// dimensional array indexed [isotope_or_one, radius, wavenumber] with a
// per-radius "computed" guard flag, plus the §4.I save/restore binary
// format and the lazy get_or_compute contract described in §9 ("Lazy
// extinction cube"): a guard-flag structure exposing a read-only view
// after ensuring the flag is true.
package extcube

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/exoplanet-transit/transit/transitlog"
	"github.com/exoplanet-transit/transit/xerr"
)

// saveMagic is the five-byte magic "@E@S@" of §4.I.
var saveMagic = [5]byte{'@', 'E', '@', 'S', '@'}

// Cube is the lazily-filled extinction cube. NIso is 1 when the
// "per-isotope" flag is off and all isotopes share one plane.
type Cube struct {
	NIso, NRad, NWn int
	data     [][][]float64 // [iso][rad][wn]
	computed []bool        // [rad]
}

// New allocates a cube of the given shape, zero-filled, with every layer
// marked not-yet-computed.
func New(nIso, nRad, nWn int) (*Cube, error) {
	if nIso <= 0 || nRad <= 0 || nWn <= 0 {
		return nil, xerr.Resourcef("extcube: invalid shape (%d,%d,%d)", nIso, nRad, nWn)
	}
	c := &Cube{NIso: nIso, NRad: nRad, NWn: nWn}
	c.data = make([][][]float64, nIso)
	for i := range c.data {
		c.data[i] = make([][]float64, nRad)
		for r := range c.data[i] {
			c.data[i][r] = make([]float64, nWn)
		}
	}
	c.computed = make([]bool, nRad)
	return c, nil
}

// Plane returns a read-write view of one (isotope, radius) plane, for the
// line-shape engine to accumulate into. Calling Plane does not itself mark
// the layer computed; the caller (solver's warm-up pass) sets that via
// MarkComputed once accumulation for the whole layer (all isotopes) is
// done, per §3's invariant that any read is preceded by setting the flag.
func (c *Cube) Plane(isotope, radius int) []float64 {
	return c.data[isotope][radius]
}

// MarkComputed sets computed[radius] = true, per §3's invariant.
func (c *Cube) MarkComputed(radius int) { c.computed[radius] = true }

// IsComputed reports whether layer r has been filled.
func (c *Cube) IsComputed(radius int) bool { return c.computed[radius] }

// GetOrCompute returns a read-only view of layer r's extinction plane(s),
// invoking compute(r) first if the layer is not yet marked computed. This
// is the guard-flag accessor of §9's "Lazy extinction cube" design note.
func (c *Cube) GetOrCompute(radius int, compute func(r int) error) ([][]float64, error) {
	if !c.computed[radius] {
		if err := compute(radius); err != nil {
			return nil, err
		}
		c.computed[radius] = true
	}
	planes := make([][]float64, c.NIso)
	for i := range planes {
		planes[i] = c.data[i][radius]
	}
	return planes, nil
}

// Save writes the cube to the §4.I binary format: magic, then nrad*nwn
// doubles per isotope plane (only the shared/first plane when NIso==1,
// matching the "computed" flags array), then the per-radius booleans.
func (c *Cube) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerr.Resourcef("extcube: create %s: %v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.Write(saveMagic[:]); err != nil {
		return xerr.Resourcef("extcube: write magic: %v", err)
	}
	for iso := 0; iso < c.NIso; iso++ {
		for r := 0; r < c.NRad; r++ {
			if err := binary.Write(w, binary.LittleEndian, c.data[iso][r]); err != nil {
				return xerr.Resourcef("extcube: write plane: %v", err)
			}
		}
	}
	for r := 0; r < c.NRad; r++ {
		var b byte
		if c.computed[r] {
			b = 1
		}
		if err := w.WriteByte(b); err != nil {
			return xerr.Resourcef("extcube: write flag: %v", err)
		}
	}
	return nil
}

// Restore reads a cube previously written by Save into an existing
// (already-allocated) cube of matching shape. Any layer whose flag is
// true is skipped by future line-shape passes. Corrupt or mismatched
// files are ignored with a warning, per §4.I: the system simply
// recomputes.
func (c *Cube) Restore(path string) {
	f, err := os.Open(path)
	if err != nil {
		transitlog.Warn("extcube: cannot open save file %s: %v; recomputing", path, err)
		return
	}
	defer f.Close()

	var magic [5]byte
	if _, err := f.Read(magic[:]); err != nil || magic != saveMagic {
		transitlog.Warn("extcube: save file %s has bad magic; recomputing", path)
		return
	}
	want := int64(len(saveMagic)) + int64(c.NIso)*int64(c.NRad)*int64(c.NWn)*8 + int64(c.NRad)
	if st, err := f.Stat(); err != nil || st.Size() != want {
		transitlog.Warn("extcube: save file %s does not match the cube's shape; recomputing", path)
		return
	}

	for iso := 0; iso < c.NIso; iso++ {
		for r := 0; r < c.NRad; r++ {
			if err := binary.Read(f, binary.LittleEndian, c.data[iso][r]); err != nil {
				transitlog.Warn("extcube: save file %s truncated; recomputing", path)
				for i := range c.data {
					for rr := range c.data[i] {
						for w := range c.data[i][rr] {
							c.data[i][rr][w] = 0
						}
					}
				}
				for rr := range c.computed {
					c.computed[rr] = false
				}
				return
			}
		}
	}
	flags := make([]byte, c.NRad)
	if _, err := f.Read(flags); err != nil {
		transitlog.Warn("extcube: save file %s missing flags; recomputing", path)
		return
	}
	for r, b := range flags {
		c.computed[r] = b != 0
	}
}
