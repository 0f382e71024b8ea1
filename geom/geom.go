// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom holds the read-only orbital geometry of §3: stellar
// radius, orbital elements, and the transparent-planet flag the
// observable stage (§4.H) needs for the transmission-modulation formula.
package geom

// Geometry is read-only during the solve, per §3's lifecycle note.
type Geometry struct {
	StarRadius      float64 // solar radii
	StarRadiusFct   float64
	SemiMajorAxis   float64
	SemiMajorFct    float64
	Eccentricity    float64
	Inclination     float64
	InclinationFct  float64
	LongAscNode     float64
	LongAscNodeFct  float64
	ArgPeriastron   float64
	ArgPeriastronFct float64
	TimeOffset      float64
	TimeOffsetFct   float64
	TransparentPlanet bool
}

// StarRadiusCM returns the stellar radius in centimetres.
const solarRadiusCM = 6.957e10

func (g Geometry) StarRadiusCM() float64 {
	return g.StarRadius * solarRadiusCM
}
