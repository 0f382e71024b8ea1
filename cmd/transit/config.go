// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math"

	"github.com/spf13/cobra"
)

// flags mirrors §6's CLI table, one field per flag, bound straight onto
// cobra's pflag set in newRootCmd.
type flags struct {
	linedb  string
	atmfile string
	molfile string
	output  string

	wlLow, wlHigh, wlDelt, wlMarg, wlFct float64
	wlOsamp                              int
	wnLow, wnHigh, wnDelt, wnMarg, wnFct float64
	wnOsamp                              int
	radLow, radHigh, radDelt, radFct     float64

	finebin     int
	nwidth      float64
	maxratio    float64
	perIso      bool
	quick       bool
	quickMaxEls int

	solution string
	toomuch  float64
	taulevel int
	modlevel int

	cloudrad string
	cloudext float64
	cia      string
	rayleigh string

	saveext    string
	detailtau  string
	detailext  string
	detailcia  string

	starrad     float64
	transparent bool
	allowq      float64
	blowex      float64
	minelow     float64
	refractivity float64
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "transit",
		Short: "compute transmission and emission spectra of transiting exoplanet atmospheres",
		Long: `transit computes a transmission or emission spectrum from a line-
transition database and a radial atmosphere profile, integrating
Voigt-broadened opacity and continuum absorption along the line of
sight.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(f)
		},
		SilenceUsage: true,
	}

	p := root.Flags()
	p.StringVar(&f.linedb, "linedb", "", "line-transition database (TLI) file")
	p.StringVar(&f.atmfile, "atm", "", "atmosphere file")
	p.StringVar(&f.molfile, "molfile", "", "molecule-metadata file (atomic masses, aliases, diameters)")
	p.StringVar(&f.output, "output", "-", "output file, or - for stdout")

	p.Float64Var(&f.wlLow, "wl-low", math.NaN(), "wavelength window lower bound")
	p.Float64Var(&f.wlHigh, "wl-high", math.NaN(), "wavelength window upper bound")
	p.Float64Var(&f.wlDelt, "wl-delt", 0, "wavelength spacing")
	p.IntVar(&f.wlOsamp, "wl-osamp", 1, "wavelength oversampling factor")
	p.Float64Var(&f.wlMarg, "wl-marg", 0, "wavelength margin")
	p.Float64Var(&f.wlFct, "wl-fct", 1e-4, "wavelength unit factor (to cm)")

	p.Float64Var(&f.wnLow, "wn-low", math.NaN(), "wavenumber window lower bound")
	p.Float64Var(&f.wnHigh, "wn-high", math.NaN(), "wavenumber window upper bound")
	p.Float64Var(&f.wnDelt, "wn-delt", 0, "wavenumber spacing")
	p.IntVar(&f.wnOsamp, "wn-osamp", 1, "wavenumber oversampling factor")
	p.Float64Var(&f.wnMarg, "wn-marg", 0, "wavenumber margin")
	p.Float64Var(&f.wnFct, "wn-fct", 1, "wavenumber unit factor (to cm^-1)")

	p.Float64Var(&f.radLow, "rad-low", math.NaN(), "radius window lower bound")
	p.Float64Var(&f.radHigh, "rad-high", math.NaN(), "radius window upper bound")
	p.Float64Var(&f.radDelt, "rad-delt", 0, "radius spacing")
	p.Float64Var(&f.radFct, "rad-fct", 1e5, "radius unit factor (to cm)")

	p.IntVar(&f.finebin, "finebin", 5, "Voigt profile fine-bin oversampling")
	p.Float64Var(&f.nwidth, "nwidth", 50, "profile half-width in multiples of the broadening width")
	p.Float64Var(&f.maxratio, "maxratio", 0.001, "Doppler-width drift ratio before a profile rebuild")
	p.BoolVar(&f.perIso, "per-iso", false, "keep isotopes on separate extinction planes")
	p.BoolVar(&f.quick, "quick", false, "force coarse-bin Voigt evaluation regardless of profile width")
	p.IntVar(&f.quickMaxEls, "quick-max-elements", 99999, "profile point count above which quick mode engages automatically")

	p.StringVar(&f.solution, "solution", "slant path", `"slant path" or "eclipse"`)
	p.Float64Var(&f.toomuch, "toomuch", 0, "saturation optical depth (default 50 transmission, 10 eclipse)")
	p.IntVar(&f.taulevel, "taulevel", 1, "tangent-path integrator level, 1 or 2")
	p.IntVar(&f.modlevel, "modlevel", 1, "modulation level, 1 or -1")

	p.StringVar(&f.cloudrad, "cloudrad", "", "cloud deck radii, rup,rdn")
	p.Float64Var(&f.cloudext, "cloudext", 0, "cloud deck maximum extinction")
	p.StringVar(&f.cia, "cia", "", "comma-separated CIA table files")
	p.StringVar(&f.rayleigh, "rayleigh", "", "comma-separated mol:coefficient Rayleigh scattering terms")

	p.StringVar(&f.saveext, "saveext", "", "extinction cube save/restore file")
	p.StringVar(&f.detailtau, "detailtau", "", "file:wn,wn,... tau diagnostic dump")
	p.StringVar(&f.detailext, "detailext", "", "file:wn,wn,... extinction diagnostic dump")
	p.StringVar(&f.detailcia, "detailcia", "", "file:wn,wn,... CIA diagnostic dump")

	p.Float64Var(&f.starrad, "starrad", 1, "stellar radius, solar radii")
	p.BoolVar(&f.transparent, "transparent", false, "treat the planet as transparent beyond toomuch")
	p.Float64Var(&f.allowq, "allowq", 0.01, "allowed deviation of layer abundance sums from 1")
	p.Float64Var(&f.blowex, "blowex", 1, "molecular extinction scaling factor")
	p.Float64Var(&f.minelow, "minelow", 0, "minimum lower-state energy; 0 disables the cutoff")
	p.Float64Var(&f.refractivity, "refractivity", 0, "Gladstone-Dale coefficient for the taulevel=2 refractive-index profile; 0 disables (n=1)")

	return root
}
