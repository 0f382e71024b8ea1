// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/exoplanet-transit/transit/atmo"
	"github.com/exoplanet-transit/transit/continuum"
	"github.com/exoplanet-transit/transit/detail"
	"github.com/exoplanet-transit/transit/extcube"
	"github.com/exoplanet-transit/transit/geom"
	"github.com/exoplanet-transit/transit/grid"
	"github.com/exoplanet-transit/transit/molinfo"
	"github.com/exoplanet-transit/transit/observable"
	"github.com/exoplanet-transit/transit/resample"
	"github.com/exoplanet-transit/transit/solver"
	"github.com/exoplanet-transit/transit/tli"
	"github.com/exoplanet-transit/transit/transitlog"
	"github.com/exoplanet-transit/transit/voigt"
	"github.com/exoplanet-transit/transit/xerr"
)

// ciaPair is one loaded CIA table together with the two molecule names
// whose densities drive it, parsed from its file name per a HITRAN-style
// "MolA-MolB_*.dat" convention.
type ciaPair struct {
	molA, molB string
	table      *continuum.CIATable
}

func parseCIAPair(path string) (string, string, error) {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	stem := base
	if i := strings.IndexByte(stem, '_'); i >= 0 {
		stem = stem[:i]
	} else if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	parts := strings.SplitN(stem, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", xerr.Formatf("cia: cannot infer molecule pair from file name %q", path)
	}
	return parts[0], parts[1], nil
}

// zTable is an isotope's partition-function curve over its database's
// temperature grid.
type zTable struct {
	T []float64
	Z []float64
}

func interpZ(t zTable, temperature float64) float64 {
	n := len(t.T)
	if n == 0 {
		return 1
	}
	if n == 1 || temperature <= t.T[0] {
		return t.Z[0]
	}
	if temperature >= t.T[n-1] {
		return t.Z[n-1]
	}
	for i := 0; i < n-1; i++ {
		if temperature >= t.T[i] && temperature <= t.T[i+1] {
			frac := (temperature - t.T[i]) / (t.T[i+1] - t.T[i])
			return t.Z[i] + frac*(t.Z[i+1]-t.Z[i])
		}
	}
	return t.Z[n-1]
}

// layerSource adapts the line-shape engine, the extinction cube, and
// continuum opacity into the narrow solver.LayerSource contract: lazy
// per-layer computation followed by a read-only total-extinction lookup.
type layerSource struct {
	cfg         voigt.Config
	wn          []float64 // physical wavenumbers, cm^-1
	isoLines    []voigt.IsotopeLine
	zTables     []zTable
	trans       *tli.Transitions
	bound       *atmo.Bound
	radius      []float64 // physical radius, cm, outer-to-inner order
	temperature []float64 // K, same order as radius
	cube        *extcube.Cube
	perIso      bool
	cia         []ciaPair
	cloud       *continuum.Cloud
	rayleigh    []rayleighTerm
	contPlane   [][]float64
}

// rayleighTerm binds one --rayleigh mol:coefficient term to the molecule
// whose density drives continuum.RayleighPowerLaw.
type rayleighTerm struct {
	molecule string
	fn       continuum.RayleighFunc
}

func parseRayleighTerms(spec string) ([]rayleighTerm, error) {
	var terms []rayleighTerm
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, xerr.Formatf("transit: --rayleigh term %q expects mol:coefficient", tok)
		}
		coeff, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, xerr.Formatf("transit: --rayleigh coefficient %q: %v", parts[1], err)
		}
		terms = append(terms, rayleighTerm{molecule: strings.TrimSpace(parts[0]), fn: continuum.RayleighPowerLaw(coeff)})
	}
	return terms, nil
}

func (ls *layerSource) densityOf(name string, r int) float64 {
	for _, m := range ls.bound.Molecules {
		if strings.EqualFold(m.Name, name) {
			return m.D[r]
		}
	}
	return 0
}

func (ls *layerSource) ensureLayerComputed(r int) error {
	if ls.cube.IsComputed(r) && ls.contPlane[r] != nil {
		return nil
	}
	molecules := make([]voigt.MoleculeData, len(ls.bound.Molecules))
	for i, m := range ls.bound.Molecules {
		molecules[i] = voigt.MoleculeData{Mass: m.Mass, Radius: m.Radius, Dens: m.D[r]}
	}
	temperature := ls.temperature[r]
	isoZ := func(iso int, t float64) float64 { return interpZ(ls.zTables[iso], t) }

	// a layer restored from a save file is already computed but still
	// needs its continuum row.
	if !ls.cube.IsComputed(r) {
		if err := voigt.ComputeLayer(ls.cfg, ls.wn, r, 0, temperature, ls.isoLines, isoZ, molecules, ls.trans, ls.cube); err != nil {
			return err
		}
		ls.cube.MarkComputed(r)
	}

	row := make([]float64, len(ls.wn))
	for _, pair := range ls.cia {
		densA := ls.densityOf(pair.molA, r)
		densB := ls.densityOf(pair.molB, r)
		for w, wn := range ls.wn {
			ext, err := pair.table.Extinction(wn, temperature, densA, densB)
			if err != nil {
				return xerr.Wrap(err, "continuum: CIA extinction")
			}
			row[w] += ext
		}
	}
	if ls.cloud != nil {
		cext := ls.cloud.Extinction(ls.radius[r])
		for w := range row {
			row[w] += cext
		}
	}
	for _, term := range ls.rayleigh {
		dens := ls.densityOf(term.molecule, r)
		for w, wn := range ls.wn {
			row[w] += continuum.Rayleigh(term.fn, ls.radius[r], temperature, dens, wn)
		}
	}
	ls.contPlane[r] = row
	return nil
}

func (ls *layerSource) EnsureComputed(r, wIdx int) (float64, error) {
	if err := ls.ensureLayerComputed(r); err != nil {
		return 0, err
	}
	var total float64
	nPlanes := 1
	if ls.perIso {
		nPlanes = len(ls.isoLines)
	}
	for iso := 0; iso < nPlanes; iso++ {
		total += ls.cube.Plane(iso, r)[wIdx]
	}
	total += ls.contPlane[r][wIdx]
	return total, nil
}

// runPipeline wires §4.A through §4.J into the full A->B->C->D->E,F->G->H/J
// operation the CLI exposes, per SPEC_FULL.md's CLI surface section.
func runPipeline(f *flags) error {
	transitlog.Reset()
	if f.linedb == "" {
		return xerr.Formatf("transit: --linedb is required")
	}
	if f.atmfile == "" {
		return xerr.Formatf("transit: --atm is required")
	}
	if f.molfile == "" {
		return xerr.Formatf("transit: --molfile is required")
	}

	transitlog.Info("loading line database %s", f.linedb)
	info, err := tli.LoadInfo(f.linedb)
	if err != nil {
		return err
	}

	wlRef := &grid.Axis{Fct: 1e-4, Initial: info.WlInitial, Final: info.WlFinal}
	wlHint := grid.NewHint()
	wlHint.Initial, wlHint.Final = f.wlLow, f.wlHigh
	wlHint.Delta, wlHint.Oversamp, wlHint.Fct = f.wlDelt, f.wlOsamp, f.wlFct
	wlAxis, err := grid.Build(wlHint, wlRef, grid.Flags{OversampMeaningful: true}, f.wlMarg, f.wlMarg)
	if err != nil {
		return xerr.Wrap(err, "wavelength grid")
	}

	wnHint := grid.NewHint()
	wnHint.Initial, wnHint.Final = f.wnLow, f.wnHigh
	wnHint.Delta, wnHint.Oversamp, wnHint.Fct = f.wnDelt, f.wnOsamp, f.wnFct
	wnAxis, err := grid.WavenumberFromWavelength(wlAxis, wnHint, f.wlMarg, f.wnMarg, f.wnMarg)
	if err != nil {
		return xerr.Wrap(err, "wavenumber grid")
	}

	lo, hi, err := tli.CheckRange(wlAxis.V[0], wlAxis.V[wlAxis.Len()-1], info.WlInitial, info.WlFinal, f.wlMarg)
	if err != nil {
		return xerr.Wrap(err, "line database window")
	}
	trans, err := tli.LoadRange(info, lo, hi)
	if err != nil {
		return err
	}
	transitlog.Info("loaded %d transitions in [%g,%g] um", trans.Len(), lo, hi)

	transitlog.Info("parsing atmosphere %s", f.atmfile)
	af, err := atmo.Parse(f.atmfile)
	if err != nil {
		return err
	}
	if err := af.ValidateRemainders(); err != nil {
		return err
	}

	tbl, err := molinfo.Load(f.molfile)
	if err != nil {
		return err
	}

	radHint := grid.NewHint()
	radHint.Initial, radHint.Final = f.radLow, f.radHigh
	radHint.Delta, radHint.Fct = f.radDelt, af.FctR
	radAxis, err := grid.RadiusFromAtmosphere(radHint, af.R, af.FctR)
	if err != nil {
		return xerr.Wrap(err, "radius grid")
	}

	rs := resample.New()
	if err := rs.SetX(af.R, radAxis.V); err != nil {
		return xerr.Wrap(err, "resample atmosphere onto radius grid")
	}
	p := make([]float64, radAxis.Len())
	t := make([]float64, radAxis.Len())
	if err := rs.InterpY(resample.Spline, af.P, p); err != nil {
		return err
	}
	if err := rs.InterpY(resample.Spline, af.T, t); err != nil {
		return err
	}
	q := make([][]float64, len(af.Q))
	for i := range af.Q {
		q[i] = make([]float64, radAxis.Len())
		if err := rs.InterpY(resample.Spline, af.Q[i], q[i]); err != nil {
			return err
		}
	}
	rs.FreeState()
	for i := range p {
		p[i] *= af.FctP
		t[i] *= af.FctT
	}

	allowQ := f.allowq
	bound, err := atmo.Bind(af, q, p, t, tbl, allowQ)
	if err != nil {
		return err
	}

	moleculeIndex := make(map[string]int, len(bound.Molecules))
	for i, m := range bound.Molecules {
		moleculeIndex[tbl.Canonical(m.Name)] = i
	}

	totalIso := 0
	for _, db := range info.Databases {
		totalIso += len(db.Isotopes)
	}
	isoLines := make([]voigt.IsotopeLine, totalIso)
	zTables := make([]zTable, totalIso)
	for _, db := range info.Databases {
		for j, iso := range db.Isotopes {
			idx := db.IsoStart + j
			molIdx, ok := moleculeIndex[tbl.Canonical(iso.Molecule)]
			if !ok {
				transitlog.Warn("isotope %s (database %s) bound to unmodeled molecule %q; skipping its lines", iso.Name, db.Name, iso.Molecule)
				molIdx = -1
			}
			isoLines[idx] = voigt.IsotopeLine{Mass: iso.Mass, Ratio: iso.Ratio, Molecule: molIdx}
			zTables[idx] = zTable{T: db.T, Z: iso.Z}
		}
	}
	// Drop transitions for isotopes that could not be bound to a modeled
	// molecule, matching the §4.C "unbound isotope" handling.
	filtered := &tli.Transitions{}
	for k := 0; k < trans.Len(); k++ {
		iso := int(trans.IsoID[k])
		if iso < 0 || iso >= len(isoLines) || isoLines[iso].Molecule < 0 {
			continue
		}
		filtered.Wl = append(filtered.Wl, trans.Wl[k])
		filtered.IsoID = append(filtered.IsoID, trans.IsoID[k])
		filtered.Elow = append(filtered.Elow, trans.Elow[k])
		filtered.LogGf = append(filtered.LogGf, trans.LogGf[k])
	}
	trans = filtered

	var cia []ciaPair
	if f.cia != "" {
		for _, path := range strings.Split(f.cia, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			molA, molB, err := parseCIAPair(path)
			if err != nil {
				return err
			}
			tbl, err := continuum.LoadCIA(path, molA, molB)
			if err != nil {
				return err
			}
			cia = append(cia, ciaPair{molA: molA, molB: molB, table: tbl})
		}
	}

	var rayleigh []rayleighTerm
	if f.rayleigh != "" {
		rayleigh, err = parseRayleighTerms(f.rayleigh)
		if err != nil {
			return err
		}
	}

	var cloud *continuum.Cloud
	if f.cloudrad != "" {
		parts := strings.SplitN(f.cloudrad, ",", 2)
		if len(parts) != 2 {
			return xerr.Formatf("transit: --cloudrad expects rup,rdn")
		}
		rup, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		rdn, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return xerr.Formatf("transit: --cloudrad values must be numeric")
		}
		c := continuum.Cloud{RadiusUpper: rup, RadiusLower: rdn, MaxExtinction: f.cloudext}
		if err := c.Validate(); err != nil {
			return err
		}
		cloud = &c
	}

	nWn := wnAxis.Len()
	nRad := radAxis.Len()
	wnPhys := make([]float64, nWn)
	for i, v := range wnAxis.V {
		wnPhys[i] = v * wnAxis.Fct
	}

	// physical radius/temperature arrays in outer-to-inner order, matching
	// the solver's walk direction.
	radPhys := make([]float64, nRad)
	tempOuterIn := make([]float64, nRad)
	refIdxOuterIn := make([]float64, nRad)
	refIdxAscending := atmo.RefractiveIndex(bound, f.refractivity)
	for i := 0; i < nRad; i++ {
		src := nRad - 1 - i
		radPhys[i] = radAxis.V[src] * radAxis.Fct
		tempOuterIn[i] = t[src]
		refIdxOuterIn[i] = refIdxAscending[src]
	}

	nIsoPlanes := 1
	if f.perIso {
		nIsoPlanes = len(isoLines)
	}
	cube, err := extcube.New(nIsoPlanes, nRad, nWn)
	if err != nil {
		return err
	}
	if f.saveext != "" {
		cube.Restore(f.saveext)
	}

	cfg := voigt.Config{
		FineBin:     f.finebin,
		TimesAlpha:  f.nwidth,
		MaxRatio:    f.maxratio,
		MinElow:     f.minelow,
		BlowEx:      f.blowex,
		PerIso:      f.perIso,
		Quick:       f.quick,
		MaxElements: f.quickMaxEls,
	}

	src := &layerSource{
		cfg:         cfg,
		wn:          wnPhys,
		isoLines:    isoLines,
		zTables:     zTables,
		trans:       trans,
		bound:       bound,
		radius:      radPhys,
		temperature: tempOuterIn,
		cube:        cube,
		perIso:      f.perIso,
		cia:         cia,
		cloud:       cloud,
		rayleigh:    rayleigh,
		contPlane:   make([][]float64, nRad),
	}

	// Warm-up pass: compute every layer serially so the cube's flags are
	// all set before the (potentially parallel) per-wavenumber fan-out of
	// §5 begins.
	for r := 0; r < nRad; r++ {
		if err := src.ensureLayerComputed(r); err != nil {
			return err
		}
	}

	if f.saveext != "" {
		if err := cube.Save(f.saveext); err != nil {
			return err
		}
	}

	g := geom.Geometry{StarRadius: f.starrad, StarRadiusFct: 6.957e10, TransparentPlanet: f.transparent}

	eclipse := strings.EqualFold(f.solution, "eclipse")

	var depth *solver.DepthArray
	solverCfg := solver.Config{TauMax: f.toomuch, TauLevel: solver.TauLevel(f.taulevel)}
	if solverCfg.TauMax <= 0 {
		solverCfg.TauMax = 50
		if eclipse {
			solverCfg.TauMax = 10
		}
	}
	if eclipse {
		depth, err = solver.Emission(solverCfg, wnPhys, radPhys, src)
	} else {
		depth, err = solver.Transmission(solverCfg, wnPhys, radPhys, radPhys, refIdxOuterIn, src)
	}
	if err != nil {
		return err
	}

	out := os.Stdout
	if f.output != "-" && f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return xerr.Resourcef("transit: create output %s: %v", f.output, err)
		}
		defer file.Close()
		out = file
	}

	if eclipse {
		intensity, err := observable.EmergentIntensity(depth, wnPhys, 1.0, t, solverCfg.TauMax)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "#%15s %16s\n", "wavenumber", "intensity")
		for i, wn := range wnPhys {
			fmt.Fprintf(out, "%16.6f %16.8e\n", wn, intensity[i])
		}
	} else {
		mod, err := observable.Transmission(observable.ModLevel(f.modlevel), depth, radPhys, 1.0, solverCfg.TauMax, g)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "#%15s %16s\n", "wavenumber", "modulation")
		for i, wn := range wnPhys {
			fmt.Fprintf(out, "%16.6f %16.8e\n", wn, mod[i])
		}
	}

	if err := writeDetailDumps(f, depth, wnPhys, radPhys, src); err != nil {
		return err
	}

	if n := transitlog.WarnCount(); n > 0 {
		transitlog.Info("completed with %d warning(s)", n)
	}
	return nil
}

// writeDetailDumps handles the --detailtau/--detailext/--detailcia flags
// of §4.J, each in the form "file:wn,wn,...".
func writeDetailDumps(f *flags, depth *solver.DepthArray, wn, rad []float64, src *layerSource) error {
	if spec := f.detailtau; spec != "" {
		path, wns, err := parseDetailSpec(spec)
		if err != nil {
			return err
		}
		table, err := detail.Tau(depth, wn, rad, wns)
		if err != nil {
			return err
		}
		if err := detail.WriteTable(path, "tau", table); err != nil {
			return err
		}
	}
	if spec := f.detailext; spec != "" {
		path, wns, err := parseDetailSpec(spec)
		if err != nil {
			return err
		}
		table, err := detail.Extinction(src, wn, rad, wns)
		if err != nil {
			return err
		}
		if err := detail.WriteTable(path, "extinction", table); err != nil {
			return err
		}
	}
	if spec := f.detailcia; spec != "" {
		path, wns, err := parseDetailSpec(spec)
		if err != nil {
			return err
		}
		if len(src.cia) == 0 {
			return xerr.Formatf("transit: --detailcia requested but no --cia tables were loaded")
		}
		densA := make([]float64, len(rad))
		densB := make([]float64, len(rad))
		for r := range rad {
			densA[r] = src.densityOf(src.cia[0].molA, r)
			densB[r] = src.densityOf(src.cia[0].molB, r)
		}
		table, err := detail.CIA(src.cia[0].table, wn, rad, wns, src.temperature, densA, densB)
		if err != nil {
			return err
		}
		if err := detail.WriteTable(path, "cia", table); err != nil {
			return err
		}
	}
	return nil
}

func parseDetailSpec(spec string) (string, []float64, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", nil, xerr.Formatf("transit: detail flag expects file:wn,wn,...")
	}
	var wns []float64
	for _, tok := range strings.Split(parts[1], ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return "", nil, xerr.Formatf("transit: detail wavenumber %q: %v", tok, err)
		}
		wns = append(wns, v)
	}
	return parts[0], wns, nil
}
