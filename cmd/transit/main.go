// Copyright 2026 The Exoplanet Transit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/cpmech/gosl/io"
)

// main is a thin driver: print the banner, run the command tree, and turn
// any error surfaced by RunE into exit code 1. A single top-level recover
// catches anything that panics past that (a runtime panic deeper in the
// pipeline; invariant breaks arrive as errors), matching the teacher's one-recover
// main.go shape.
func main() {
	code := 0

	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
			code = 1
		}
		os.Exit(code)
	}()

	io.PfWhite("\ntransit -- exoplanet transmission/emission spectrum solver\n\n")

	if err := newRootCmd().Execute(); err != nil {
		io.PfRed("ERROR: %v\n", err)
		code = 1
		return
	}
	io.PfGreen("\ndone\n")
}
