// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

// CondKind discriminates the wait conditions a decoder may register
// with its Source.
type CondKind uint8

const (
	// EdgeAny fires on any level transition of a line.
	EdgeAny CondKind = iota
	// AbsSample fires once the source reaches an absolute sample index.
	AbsSample
)

// Cond is a single wait condition.
type Cond struct {
	Kind CondKind
	Line Channel // line to watch, for EdgeAny
	At   uint64  // sample index to reach, for AbsSample
}

// EdgeOn returns a condition firing on any edge of line ch.
func EdgeOn(ch Channel) Cond {
	return Cond{Kind: EdgeAny, Line: ch}
}

// SampleAt returns a condition firing at absolute sample index n.
func SampleAt(n uint64) Cond {
	return Cond{Kind: AbsSample, At: n}
}

// Source supplies logic levels to a Decoder.
//
// Wait suspends the caller until at least one of the registered
// conditions is satisfied and returns, for each condition, whether it
// fired at the new position. Several conditions may fire on the same
// resumption. Wait reports io.EOF once the capture is exhausted.
type Source interface {
	// SampleRate returns the capture sample rate in Hz,
	// or 0 if it is unknown.
	SampleRate() float64

	// HasLine reports whether line ch was captured.
	HasLine(ch Channel) bool

	// Pos returns the current absolute sample index.
	Pos() uint64

	// Level returns the current logic level of line ch (0 or 1).
	Level(ch Channel) uint8

	// Wait advances to the next sample satisfying any condition.
	Wait(conds []Cond) (fired []bool, err error)
}
