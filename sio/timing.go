// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"math"

	"golang.org/x/xerrors"
)

// BitWidth returns the width of one UART bit in number of samples.
func BitWidth(sampleRate, baud float64) (float64, error) {
	if !(sampleRate > 0) {
		return 0, ErrSampleRate
	}
	if !(baud > 0) {
		return 0, xerrors.Errorf("sio: invalid baud rate %v", baud)
	}
	return sampleRate / baud, nil
}

// SamplePoint returns the absolute sample number of the middle of
// bit slot n of a frame starting at sample start (slot 0 is the
// start bit, 1..26 the data bits, then parity if enabled, then the
// stop bits).
//
// The samples within a bit are 0, 1, ..., bitWidth-1, so the middle
// sample of the slot sits at (bitWidth-1)/2 past its beginning.
func SamplePoint(start uint64, bitWidth float64, n int) float64 {
	return float64(start) + (bitWidth-1)/2 + float64(n)*bitWidth
}

// FrameLength returns the total span of one frame in samples: start
// bit, 26 data bits, the parity bit if enabled and the stop bits.
// A low run at least that long is a break condition, and the idle
// detector re-fires with this period.
func FrameLength(bitWidth float64, parity Parity, stopBits int) uint64 {
	n := 1 + NumDataBits + stopBits
	if parity != ParityNone {
		n++
	}
	return uint64(math.Ceil(float64(n) * bitWidth))
}

// halfBit padding helpers: annotations extend half a bit width on
// each side of the sampled point, floor on the left, ceil on the
// right. Stored data-bit windows use the truncated half width on
// both sides.

func padLeft(s uint64, halfBit float64) uint64 {
	d := uint64(math.Floor(halfBit))
	if s < d {
		return 0
	}
	return s - d
}

func padRight(s uint64, halfBit float64) uint64 {
	return s + uint64(math.Ceil(halfBit))
}
