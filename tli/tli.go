// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tli implements the line-transition-database reader of §4.B: the
// binary and ASCII TLI dialects share one interface (Info/LoadRange), a
// known-database table binding isotopes to parent molecules, and a window
// validator used before any heavy line-shape work begins.
//
// Grounded on original_source/inv/esp/transit/src/transit/readlineinfo.c
// and prg/transit/src/readlineinfo.c (record layout, binary search over
// packed records) and lineread/src/dbread_pands.c (the P&S water database
// binding table).
package tli

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/exoplanet-transit/transit/xerr"
)

// Isotope describes one isotope of a Database, per §3.
type Isotope struct {
	Name    string
	Mass    float64
	Molecule string // resolved by the known-database table
	Ratio   float64 // isotopic abundance ratio, from the built-in known-database table (no metadata file is read for it); 0 for isotopes the table does not list
	Z       []float64 // partition function values at the database's T grid
	C       []float64 // internal cross sections at the database's T grid
}

// Database is a named group of isotopes sharing a temperature grid, per §3.
type Database struct {
	Name      string
	T         []float64 // temperature grid, length nT
	Isotopes  []*Isotope
	IsoStart  int // starting index into the global isotope table
}

// Info is everything read up to, but not including, the transitions: the
// per-database headers, partition functions, and the byte offset where
// transitions begin.
type Info struct {
	Dialect      Dialect
	WlInitial    float64 // um, TLI wavelength units
	WlFinal      float64
	Comment      string
	Databases    []*Database
	TransOffset  int64 // byte offset where transitions start (both dialects)
	path         string
	recLenBinary int64 // bytes per transition record, binary dialect only
}

// Dialect selects the on-disk TLI encoding.
type Dialect int

const (
	Binary Dialect = iota
	ASCII
)

// Transitions holds four parallel arrays for a loaded wavelength window.
type Transitions struct {
	Wl    []float64 // wavelength, um
	IsoID []int16
	Elow  []float64
	LogGf []float64
}

func (t *Transitions) Len() int { return len(t.Wl) }

// knownDatabase binds a TLI database name to its host molecule and gives
// the isotopic ratio table for its isotopes, fixed per
// lineread/src/dbread_pands.c for the P&S water database.
type knownDatabase struct {
	molecule string
	ratios   map[string]float64 // isotope name -> isotopic ratio
}

var knownDatabases = map[string]knownDatabase{
	"Partridge & Schwenke (1997)": {
		molecule: "H2O",
		ratios: map[string]float64{
			"1H1H16O": 0.997317,
			"1H1H17O": 0.000372,
			"1H1H18O": 0.002000,
			"1H2H16O": 0.000311,
		},
	},
}

// bindIsotopes resolves the parent molecule and isotopic ratio for every
// isotope of db using the known-database table; isotopes of unrecognized
// databases are left with an empty Molecule (the atmosphere binder then
// reports them as unbound, per §4.C).
func bindIsotopes(db *Database) {
	known, ok := knownDatabases[db.Name]
	if !ok {
		return
	}
	for _, iso := range db.Isotopes {
		iso.Molecule = known.molecule
		if r, ok := known.ratios[iso.Name]; ok {
			iso.Ratio = r
		}
	}
}

// magicBinary is (0xFF-'T', 0xFF-'L', 0xFF-'I', 0xFF), per §4.B. The
// magic-byte integer doubles as the endianness check: the four bytes are
// interpreted as a little-endian uint32 and compared against the same
// computation done locally.
func magicBinary() [4]byte {
	return [4]byte{0xFF - 'T', 0xFF - 'L', 0xFF - 'I', 0xFF}
}

// LoadInfo reads a TLI file's headers (both dialects) and returns an Info
// with the isotope/database/partition tables filled and the transitions
// offset recorded, implementing `load_info` of §4.B.
func LoadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerr.Formatf("tli: cannot open %s: %v", path, err)
	}
	defer f.Close()

	dialect, err := sniffDialect(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, xerr.Formatf("tli: seek: %v", err)
	}

	var info *Info
	switch dialect {
	case Binary:
		info, err = loadInfoBinary(f)
	case ASCII:
		info, err = loadInfoASCII(f)
	}
	if err != nil {
		return nil, err
	}
	info.path = path
	info.Dialect = dialect

	total := 0
	for _, db := range info.Databases {
		bindIsotopes(db)
		total += len(db.Isotopes)
	}
	return info, nil
}

func sniffDialect(f *os.File) (Dialect, error) {
	var magic [4]byte
	n, err := f.Read(magic[:])
	if err != nil && err != io.EOF {
		return 0, xerr.Formatf("tli: read magic: %v", err)
	}
	if n == 4 && magic == magicBinary() {
		return Binary, nil
	}
	return ASCII, nil
}

// loadInfoBinary implements the binary dialect of §4.B.
func loadInfoBinary(f *os.File) (*Info, error) {
	var magic [4]byte
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		return nil, xerr.Formatf("tli: magic: %v", err)
	}
	if magic != magicBinary() {
		return nil, xerr.Formatf("tli: bad magic bytes (endianness mismatch)")
	}

	var fileVersion, producerVersion, producerRevision uint16
	for _, p := range []*uint16{&fileVersion, &producerVersion, &producerRevision} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return nil, xerr.Formatf("tli: header: %v", err)
		}
	}

	var wlInitial, wlFinal float64
	if err := binary.Read(f, binary.LittleEndian, &wlInitial); err != nil {
		return nil, xerr.Formatf("tli: wl initial: %v", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &wlFinal); err != nil {
		return nil, xerr.Formatf("tli: wl final: %v", err)
	}

	comment, err := readLenPrefixedString(f)
	if err != nil {
		return nil, err
	}

	var nDB uint16
	if err := binary.Read(f, binary.LittleEndian, &nDB); err != nil {
		return nil, xerr.Formatf("tli: database count: %v", err)
	}

	info := &Info{WlInitial: wlInitial, WlFinal: wlFinal, Comment: comment}
	isoStart := 0
	totalIsoExpected := 0
	for i := 0; i < int(nDB); i++ {
		name, err := readLenPrefixedString(f)
		if err != nil {
			return nil, err
		}
		var nT, nIso uint16
		if err := binary.Read(f, binary.LittleEndian, &nT); err != nil {
			return nil, xerr.Formatf("tli: nT: %v", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &nIso); err != nil {
			return nil, xerr.Formatf("tli: nIso: %v", err)
		}
		temps := make([]float64, nT)
		if err := binary.Read(f, binary.LittleEndian, &temps); err != nil {
			return nil, xerr.Formatf("tli: temperatures: %v", err)
		}

		db := &Database{Name: name, T: temps, IsoStart: isoStart}
		for j := 0; j < int(nIso); j++ {
			isoName, err := readLenPrefixedString(f)
			if err != nil {
				return nil, err
			}
			var mass float64
			if err := binary.Read(f, binary.LittleEndian, &mass); err != nil {
				return nil, xerr.Formatf("tli: isotope mass: %v", err)
			}
			z := make([]float64, nT)
			if err := binary.Read(f, binary.LittleEndian, &z); err != nil {
				return nil, xerr.Formatf("tli: partition values: %v", err)
			}
			cs := make([]float64, nT)
			if err := binary.Read(f, binary.LittleEndian, &cs); err != nil {
				return nil, xerr.Formatf("tli: cross sections: %v", err)
			}
			db.Isotopes = append(db.Isotopes, &Isotope{Name: isoName, Mass: mass, Z: z, C: cs})
		}

		var correlative uint16
		if err := binary.Read(f, binary.LittleEndian, &correlative); err != nil {
			return nil, xerr.Formatf("tli: database index: %v", err)
		}
		if int(correlative) != i {
			return nil, xerr.Invariantf("tli: database correlative index %d != loop index %d", correlative, i)
		}

		isoStart += int(nIso)
		totalIsoExpected += int(nIso)
		info.Databases = append(info.Databases, db)
	}

	var totalIso uint16
	if err := binary.Read(f, binary.LittleEndian, &totalIso); err != nil {
		return nil, xerr.Formatf("tli: total isotope count: %v", err)
	}
	if int(totalIso) != totalIsoExpected {
		return nil, xerr.Invariantf("tli: total isotope count %d != sum of per-database counts %d", totalIso, totalIsoExpected)
	}

	off, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xerr.Formatf("tli: tell: %v", err)
	}
	info.TransOffset = off
	info.recLenBinary = 8 + 2 + 8 + 8 // wl f64, iso i16, elow f64, loggf f64
	return info, nil
}

func readLenPrefixedString(f *os.File) (string, error) {
	var n uint16
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return "", xerr.Formatf("tli: string length: %v", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return "", xerr.Formatf("tli: string bytes: %v", err)
	}
	return string(buf), nil
}

// loadInfoASCII implements the ASCII dialect of §4.B.
func loadInfoASCII(f *os.File) (*Info, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	// consumed counts the bytes the scanner has advanced past, which is the
	// file offset just after the last line returned by Scan.
	var consumed int64
	sc.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		adv, tok, err := bufio.ScanLines(data, atEOF)
		consumed += int64(adv)
		return adv, tok, err
	})

	next := func() (string, bool) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return line, true
		}
		return "", false
	}

	line, ok := next()
	if !ok {
		return nil, xerr.Formatf("tli: empty ascii file")
	}
	nDB, err := strconv.Atoi(line)
	if err != nil {
		return nil, xerr.Formatf("tli: database count: %v", err)
	}

	info := &Info{}
	isoStart := 0
	for i := 0; i < nDB; i++ {
		name, ok := next()
		if !ok {
			return nil, xerr.Formatf("tli: missing database name line")
		}
		countsLine, ok := next()
		if !ok {
			return nil, xerr.Formatf("tli: missing counts line")
		}
		fields := strings.Fields(countsLine)
		if len(fields) != 2 {
			return nil, xerr.Formatf("tli: counts line must have 2 fields, got %d", len(fields))
		}
		nIso, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, xerr.Formatf("tli: n_iso: %v", err)
		}
		nT, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, xerr.Formatf("tli: n_T: %v", err)
		}

		isoLine, ok := next()
		if !ok {
			return nil, xerr.Formatf("tli: missing isotope-info line")
		}
		isoFields := strings.Fields(isoLine)
		if len(isoFields) != 2*nIso {
			return nil, xerr.Formatf("tli: isotope-info line expected %d fields, got %d", 2*nIso, len(isoFields))
		}
		db := &Database{Name: name, IsoStart: isoStart}
		for j := 0; j < nIso; j++ {
			isoName := strings.ReplaceAll(isoFields[2*j], "_", " ")
			mass, err := strconv.ParseFloat(isoFields[2*j+1], 64)
			if err != nil {
				return nil, xerr.Formatf("tli: isotope mass: %v", err)
			}
			db.Isotopes = append(db.Isotopes, &Isotope{Name: isoName, Mass: mass})
		}

		temps := make([]float64, nT)
		for t := 0; t < nT; t++ {
			row, ok := next()
			if !ok {
				return nil, xerr.Formatf("tli: missing partition-function row")
			}
			f := strings.Fields(row)
			if len(f) != 1+2*nIso {
				return nil, xerr.Formatf("tli: partition row expected %d fields, got %d", 1+2*nIso, len(f))
			}
			T, err := strconv.ParseFloat(f[0], 64)
			if err != nil {
				return nil, xerr.Formatf("tli: T: %v", err)
			}
			temps[t] = T
			for j := 0; j < nIso; j++ {
				z, err := strconv.ParseFloat(f[1+j], 64)
				if err != nil {
					return nil, xerr.Formatf("tli: Z: %v", err)
				}
				cs, err := strconv.ParseFloat(f[1+nIso+j], 64)
				if err != nil {
					return nil, xerr.Formatf("tli: C: %v", err)
				}
				db.Isotopes[j].Z = append(db.Isotopes[j].Z, z)
				db.Isotopes[j].C = append(db.Isotopes[j].C, cs)
			}
		}
		db.T = temps
		isoStart += nIso
		info.Databases = append(info.Databases, db)
	}

	// record the byte offset of the first transition line: the file's own
	// position is past it (bufio.Scanner reads ahead), so use the bytes the
	// split function has consumed instead.
	info.TransOffset = consumed
	return info, nil
}
