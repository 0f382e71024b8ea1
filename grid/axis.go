// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grid builds the one-dimensional sample axes (radius, wavelength,
// wavenumber, impact parameter) described in §3/§4.A: uniform or fixed
// grids with margins, oversampling, and unit factors, plus the linked
// wavenumber-from-wavelength and radius-from-atmosphere derivations.
//
// Grounded on prg/transit/src/makesample.c and pu/src/sampling.c for the
// oversampled-count formula and the descending-generation order. Every
// value is Initial plus its index times the step, so the first value is
// exactly Initial and the last is not forced onto Final.
package grid

import (
	"math"

	"github.com/exoplanet-transit/transit/transitlog"
	"github.com/exoplanet-transit/transit/xerr"
)

// epsGrid absorbs the final bin-boundary rounding error in the count
// formula, per makesample.c.
const epsGrid = 1e-8

// Axis is a one-dimensional sample grid as specified in §3.
type Axis struct {
	Fct     float64 // unit factor: multiply stored values by this to get cm (or cm^-1)
	Initial float64
	Final   float64
	Delta   float64 // spacing at 1x oversampling; meaningless when Fixed
	Oversamp int
	Fixed   bool // explicit values; oversampling ignored
	V       []float64
}

// Len returns the number of points in the axis.
func (a *Axis) Len() int { return len(a.V) }

// Hint carries user-requested endpoints/spacing/oversampling/unit factor,
// any of which may be unset. Zero value means "unset" for Fct/Delta/Count;
// Initial/Final use math.NaN() as "unset" so a legitimate zero endpoint is
// distinguishable.
type Hint struct {
	Fct      float64
	Initial  float64
	Final    float64
	Delta    float64
	Count    int
	Oversamp int
}

func unset(v float64) bool { return math.IsNaN(v) }

// NewHint returns a Hint with Initial/Final marked unset.
func NewHint() Hint {
	return Hint{Initial: math.NaN(), Final: math.NaN()}
}

// OversampMeaningful tells Build whether oversampling applies to this axis
// kind (true for wavelength/wavenumber/radius fine grids; irrelevant for an
// axis built straight from an explicit value array).
type Flags struct {
	OversampMeaningful bool
}

// Build implements the `build_sample` operation of §4.A.
func Build(hint Hint, ref *Axis, flags Flags, marginLo, marginHi float64) (*Axis, error) {
	a := &Axis{}

	// 1. unit factor
	switch {
	case hint.Fct > 0:
		a.Fct = hint.Fct
	case ref != nil && ref.Fct > 0:
		a.Fct = ref.Fct
	default:
		return nil, xerr.Rangef("build_sample: no positive unit factor available")
	}

	refInitial, refFinal := math.NaN(), math.NaN()
	if ref != nil {
		refInitial, refFinal = ref.Initial, ref.Final
	}

	// 2. initial value
	if unset(hint.Initial) {
		if math.IsNaN(refInitial) {
			return nil, xerr.Rangef("build_sample: no reference initial value")
		}
		a.Initial = refInitial + marginLo
	} else {
		a.Initial = hint.Initial
		if ref != nil && (a.Initial <= refInitial+marginLo || a.Initial >= refFinal-marginHi) {
			return nil, xerr.Rangef("build_sample: hinted initial %g out of range (%g, %g)",
				a.Initial, refInitial+marginLo, refFinal-marginHi)
		}
	}

	// symmetric rule for final
	if unset(hint.Final) {
		if math.IsNaN(refFinal) {
			return nil, xerr.Rangef("build_sample: no reference final value")
		}
		a.Final = refFinal - marginHi
	} else {
		a.Final = hint.Final
		if ref != nil && (a.Final <= refInitial+marginLo || a.Final >= refFinal-marginHi) {
			return nil, xerr.Rangef("build_sample: hinted final %g out of range (%g, %g)",
				a.Final, refInitial+marginLo, refFinal-marginHi)
		}
	}

	// 3. spacing and count both hinted is an error
	if hint.Delta != 0 && hint.Count != 0 {
		return nil, xerr.Rangef("build_sample: cannot hint both spacing and count")
	}

	oversamp := hint.Oversamp
	if oversamp <= 0 {
		oversamp = 1
	}

	switch {
	case hint.Delta == 0 && hint.Count == 0:
		// 4. neither hinted: copy reference spacing, else reference's
		// explicit array.
		if ref != nil && ref.Delta != 0 && !ref.Fixed {
			a.Delta = ref.Delta
			a.Oversamp = oversamp
			a.generateUniform()
		} else if ref != nil {
			a.Fixed = true
			a.Oversamp = 1
			a.V = append([]float64(nil), ref.V...)
			if a.Initial != refInitial || a.Final != refFinal {
				// endpoints were modified relative to an explicit
				// reference array: warn, and copy the array unchanged.
				transitlog.Warn("build_sample: endpoints [%g,%g] differ from the explicit reference array's [%g,%g]; copying the array unchanged",
					a.Initial, a.Final, refInitial, refFinal)
			}
		} else {
			return nil, xerr.Rangef("build_sample: no spacing or explicit values to copy")
		}

	case hint.Count != 0:
		// 5. explicit count: store array, mark fixed.
		a.Fixed = true
		a.Oversamp = 1
		n := hint.Count
		a.V = make([]float64, n)
		if n == 1 {
			a.V[0] = a.Initial
		} else {
			step := (a.Final - a.Initial) / float64(n-1)
			for i := n - 1; i >= 0; i-- {
				a.V[i] = a.Initial + float64(i)*step
			}
		}

	default:
		// 6. spacing hinted: compute oversampled count, generate each
		// value as Initial plus its index times the step.
		a.Delta = hint.Delta
		a.Oversamp = oversamp
		a.generateUniform()
	}

	if !flags.OversampMeaningful {
		a.Oversamp = 1
	}
	return a, nil
}

// generateUniform fills a.V from a.Initial, a.Final, a.Delta, a.Oversamp
// using the §4.A step 6 formula.
func (a *Axis) generateUniform() {
	baseCount := int(math.Floor((1.0+epsGrid)*(a.Final-a.Initial)/a.Delta)) + 1
	n := (baseCount-1)*a.Oversamp + 1
	if n < 1 {
		n = 1
	}
	a.V = make([]float64, n)
	step := a.Delta / float64(a.Oversamp)
	for i := n - 1; i >= 0; i-- {
		a.V[i] = a.Initial + float64(i)*step
	}
}

// WavenumberFromWavelength derives the wavenumber reference grid from a
// built wavelength axis per §4.A, then calls Build with the caller-supplied
// wavenumber hint and validates the hard invariant that the resulting
// wavenumber window's inverse lies within the wavelength window.
//
// wlMargin is the margin that was used to build wl (in wl's raw units); it
// seeds the wavenumber margin fallback when wnMarginLo/wnMarginHi are left
// unset (zero). wnMarginLo/wnMarginHi, when nonzero, are used as-is.
//
// Grounded on prg/transit/src/makesample.c's makewnsample: "set margin. If
// not given take it from wavelength's" — tr->wnmi = tr->margin*fromwav.i^2
// *fct^2, tr->wnmf = tr->margin*fromwav.f^2*fct^2, i.e. the wavelength
// margin propagated through the 1/x derivative at each reference endpoint.
func WavenumberFromWavelength(wl *Axis, hint Hint, wlMargin, wnMarginLo, wnMarginHi float64) (*Axis, error) {
	ref := &Axis{
		Fct:     1.0,
		Initial: 1.0 / (wl.Final * wl.Fct),
		Final:   1.0 / (wl.Initial * wl.Fct),
	}
	// choose a reference spacing so the oversampled count matches wl's,
	// at 1x oversampling on the reference itself (Build re-applies the
	// hinted oversampling).
	n := wl.Len()
	if wl.Oversamp > 1 {
		n = (wl.Len()-1)/wl.Oversamp + 1
	}
	if n > 1 {
		ref.Delta = (ref.Final - ref.Initial) / float64(n-1)
	}

	marginLo, marginHi := wnMarginLo, wnMarginHi
	if marginLo == 0 {
		marginLo = wlMargin * wl.Fct * ref.Initial * ref.Initial
	}
	if marginHi == 0 {
		marginHi = wlMargin * wl.Fct * ref.Final * ref.Final
	}

	wn, err := Build(hint, ref, Flags{OversampMeaningful: true}, marginLo, marginHi)
	if err != nil {
		return nil, xerr.Wrap(err, "wavenumber_from_wavelength")
	}

	invLo := 1.0 / (wn.V[wn.Len()-1] * wn.Fct)
	invHi := 1.0 / (wn.V[0] * wn.Fct)
	wlLo := wl.V[0] * wl.Fct
	wlHi := wl.V[wl.Len()-1] * wl.Fct
	if invLo < wlLo-1e-12 || invHi > wlHi+1e-12 {
		return nil, xerr.Rangef(
			"wavenumber window [%g,%g] um inverse falls outside wavelength window [%g,%g] um",
			invLo, invHi, wlLo, wlHi)
	}
	return wn, nil
}

// RadiusFromAtmosphere builds the radius axis per §4.A, degenerating to a
// single point when the atmosphere supplies exactly one layer.
func RadiusFromAtmosphere(hint Hint, atmR []float64, fct float64) (*Axis, error) {
	if len(atmR) == 1 {
		return &Axis{Fct: fct, Initial: atmR[0], Final: atmR[0], Fixed: true, Oversamp: 1, V: []float64{atmR[0]}}, nil
	}
	ref := &Axis{
		Fct:     fct,
		Initial: atmR[0],
		Final:   atmR[len(atmR)-1],
		Delta:   (atmR[len(atmR)-1] - atmR[0]) / float64(len(atmR)-1),
	}
	return Build(hint, ref, Flags{OversampMeaningful: true}, 0, 0)
}
