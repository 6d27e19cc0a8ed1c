// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logic replays raw logic-analyzer captures as a sample
// source for the sio decoder.
//
// The capture format is the raw binary export of common capture
// tools: one byte per sample, bit 0 carrying the RX line and bit 1
// the TX line.
package logic // import "github.com/go-sio/siodbg/internal/logic"

import (
	"io"
	"os"

	"golang.org/x/xerrors"

	"github.com/go-sio/siodbg/sio"
)

// Line masks of the capture format.
const (
	LineRX = 1 << 0
	LineTX = 1 << 1
)

// Source replays an in-memory capture.
type Source struct {
	rate  float64
	lines uint8
	data  []byte
	pos   int
}

var _ sio.Source = (*Source)(nil)

// New returns a source replaying the given samples at the given
// sample rate. lines is the mask of captured lines (LineRX, LineTX).
func New(rate float64, lines uint8, samples []byte) *Source {
	return &Source{
		rate:  rate,
		lines: lines,
		data:  samples,
	}
}

// FromReader reads a whole raw capture from r.
func FromReader(rate float64, lines uint8, r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("logic: could not read capture: %w", err)
	}
	return New(rate, lines, data), nil
}

// Open reads a whole raw capture from the named file.
func Open(fname string, rate float64, lines uint8) (*Source, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, xerrors.Errorf("logic: could not open capture %q: %w", fname, err)
	}
	defer f.Close()

	src, err := FromReader(rate, lines, f)
	if err != nil {
		return nil, xerrors.Errorf("logic: could not read capture %q: %w", fname, err)
	}
	return src, nil
}

func (src *Source) SampleRate() float64 { return src.rate }

func (src *Source) HasLine(ch sio.Channel) bool {
	return src.lines&(1<<ch) != 0
}

func (src *Source) Pos() uint64 { return uint64(src.pos) }

func (src *Source) Level(ch sio.Channel) uint8 {
	if src.pos >= len(src.data) {
		return 1
	}
	return src.data[src.pos] >> ch & 1
}

// Wait advances to the next sample satisfying any of the conditions
// and reports which of them fired there. Wait returns io.EOF once the
// capture is exhausted.
func (src *Source) Wait(conds []sio.Cond) ([]bool, error) {
	if len(conds) == 0 {
		return nil, io.EOF
	}

	fired := make([]bool, len(conds))
	for i := src.pos + 1; i < len(src.data); i++ {
		hit := false
		for k, cond := range conds {
			switch cond.Kind {
			case sio.EdgeAny:
				bit := uint8(1 << cond.Line)
				fired[k] = (src.data[i-1]^src.data[i])&bit != 0
			case sio.AbsSample:
				fired[k] = uint64(i) >= cond.At
			default:
				return nil, xerrors.Errorf("logic: invalid wait condition %d", cond.Kind)
			}
			hit = hit || fired[k]
		}
		if hit {
			src.pos = i
			return fired, nil
		}
	}

	src.pos = len(src.data)
	return nil, io.EOF
}
