// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tli

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/exoplanet-transit/transit/transitlog"
	"github.com/exoplanet-transit/transit/xerr"
)

// CheckRange implements `check_range` of §4.B: given hinted wavelength
// endpoints, the database's own endpoints, and a margin, it validates the
// request and returns the effective (clipped) extraction window.
func CheckRange(hintLo, hintHi, dbLo, dbHi, margin float64) (lo, hi float64, err error) {
	if 2*margin > dbHi-dbLo {
		return 0, 0, xerr.Rangef("tli: margin %g exceeds half the database span [%g,%g]", margin, dbLo, dbHi)
	}
	if hintLo > dbHi-margin {
		return 0, 0, xerr.Rangef("tli: requested initial %g beyond database final-margin %g", hintLo, dbHi-margin)
	}
	if hintHi < dbLo+margin {
		return 0, 0, xerr.Rangef("tli: requested final %g below database initial+margin %g", hintHi, dbLo+margin)
	}
	if hintLo < dbLo+margin || hintHi > dbHi-margin {
		// warn: requested limits lie outside (db_lo+margin, db_hi-margin)
		transitlog.Warn("tli: requested range [%g,%g] extends outside (%g,%g); the window is clipped to the database",
			hintLo, hintHi, dbLo+margin, dbHi-margin)
	}
	lo = hintLo - margin
	if lo < dbLo {
		lo = dbLo
	}
	hi = hintHi + margin
	if hi > dbHi {
		hi = dbHi
	}
	return lo, hi, nil
}

// LoadRange implements `load_range` of §4.B: reads only transitions with
// wlLo <= wl <= wlHi, using a binary search on the binary dialect and a
// linear scan on the ASCII dialect.
func LoadRange(info *Info, wlLo, wlHi float64) (*Transitions, error) {
	f, err := os.Open(info.path)
	if err != nil {
		return nil, xerr.Formatf("tli: reopen %s: %v", info.path, err)
	}
	defer f.Close()

	switch info.Dialect {
	case Binary:
		return loadRangeBinary(f, info, wlLo, wlHi)
	default:
		return loadRangeASCII(f, info, wlLo, wlHi)
	}
}

type binRecord struct {
	wl    float64
	isoID int16
	elow  float64
	logGf float64
}

func readBinRecord(f *os.File, off int64) (binRecord, error) {
	buf := make([]byte, 8+2+8+8)
	if _, err := f.ReadAt(buf, off); err != nil {
		return binRecord{}, err
	}
	var r binRecord
	r.wl = float64FromBytes(buf[0:8])
	r.isoID = int16(binary.LittleEndian.Uint16(buf[8:10]))
	r.elow = float64FromBytes(buf[10:18])
	r.logGf = float64FromBytes(buf[18:26])
	return r, nil
}

func float64FromBytes(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// loadRangeBinary performs a single-record binary search on the wavelength
// field to locate wlLo, walks back over equal-wavelength neighbours, then
// reads forward until wlHi, per §4.B.
func loadRangeBinary(f *os.File, info *Info, wlLo, wlHi float64) (*Transitions, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, xerr.Formatf("tli: seek end: %v", err)
	}
	recLen := info.recLenBinary
	n := (size - info.TransOffset) / recLen
	if n <= 0 {
		return &Transitions{}, nil
	}

	recAt := func(i int64) (binRecord, error) {
		return readBinRecord(f, info.TransOffset+i*recLen)
	}

	// binary search for the first record with wl >= wlLo.
	lo, hi := int64(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		rec, err := recAt(mid)
		if err != nil {
			return nil, xerr.Formatf("tli: read record %d: %v", mid, err)
		}
		if rec.wl < wlLo {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// walk back over equal-wavelength neighbours (defensive; binary
	// search above already lands on the first >= wlLo record).
	for lo > 0 {
		rec, err := recAt(lo - 1)
		if err != nil {
			return nil, err
		}
		if rec.wl < wlLo {
			break
		}
		lo--
	}

	out := &Transitions{}
	for i := lo; i < n; i++ {
		rec, err := recAt(i)
		if err != nil {
			return nil, xerr.Formatf("tli: read record %d: %v", i, err)
		}
		if rec.wl > wlHi {
			break
		}
		out.Wl = append(out.Wl, rec.wl)
		out.IsoID = append(out.IsoID, rec.isoID)
		out.Elow = append(out.Elow, rec.elow)
		out.LogGf = append(out.LogGf, rec.logGf)
	}
	return out, nil
}

// loadRangeASCII performs a linear scan from the transitions offset.
func loadRangeASCII(f *os.File, info *Info, wlLo, wlHi float64) (*Transitions, error) {
	if _, err := f.Seek(info.TransOffset, io.SeekStart); err != nil {
		return nil, xerr.Formatf("tli: seek transitions: %v", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	out := &Transitions{}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, xerr.Formatf("tli: transition line expected 4 fields, got %d: %q", len(fields), line)
		}
		wl, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, xerr.Formatf("tli: transition wl: %v", err)
		}
		if wl < wlLo || wl > wlHi {
			continue
		}
		isoID, err := strconv.ParseInt(fields[1], 10, 16)
		if err != nil {
			return nil, xerr.Formatf("tli: transition iso id: %v", err)
		}
		elow, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, xerr.Formatf("tli: transition elow: %v", err)
		}
		logGf, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, xerr.Formatf("tli: transition log_gf: %v", err)
		}
		out.Wl = append(out.Wl, wl)
		out.IsoID = append(out.IsoID, int16(isoID))
		out.Elow = append(out.Elow, elow)
		out.LogGf = append(out.LogGf, logGf)
	}
	if err := sc.Err(); err != nil {
		return nil, xerr.Formatf("tli: scan: %v", err)
	}
	return out, nil
}
