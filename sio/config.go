// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"golang.org/x/xerrors"
)

var (
	// ErrSampleRate is returned when the Source does not know its
	// sample rate.
	ErrSampleRate = xerrors.New("sio: cannot decode without a sample rate")

	// ErrChannel is returned when neither RX nor TX was captured.
	ErrChannel = xerrors.New("sio: need at least one of RX or TX lines")
)

// BitOrder selects whether the first-sampled data bit is the least-
// or most-significant bit of the reconstructed value.
type BitOrder uint8

const (
	LSBFirst BitOrder = iota
	MSBFirst
)

func (o BitOrder) String() string {
	switch o {
	case LSBFirst:
		return "lsb-first"
	case MSBFirst:
		return "msb-first"
	}
	return "bit-order-invalid"
}

// ParseBitOrder converts an option string to a BitOrder.
func ParseBitOrder(s string) (BitOrder, error) {
	switch s {
	case "lsb-first":
		return LSBFirst, nil
	case "msb-first":
		return MSBFirst, nil
	}
	return 0, xerrors.Errorf("sio: invalid bit order %q", s)
}

// Parity selects the parity mode of the link.
type Parity uint8

const (
	ParityNone   Parity = iota // no parity bit on the wire
	ParityIgnore               // parity bit present, not checked
	ParityZero
	ParityOne
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityIgnore:
		return "ignore"
	case ParityZero:
		return "zero"
	case ParityOne:
		return "one"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	}
	return "parity-invalid"
}

// ParseParity converts an option string to a Parity mode.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "none":
		return ParityNone, nil
	case "ignore":
		return ParityIgnore, nil
	case "zero":
		return ParityZero, nil
	case "one":
		return ParityOne, nil
	case "odd":
		return ParityOdd, nil
	case "even":
		return ParityEven, nil
	}
	return 0, xerrors.Errorf("sio: invalid parity mode %q", s)
}

// DefaultBaudRate is the baud rate of the debug UART as found on
// Nuvoton parts.
const DefaultBaudRate = 1_500_000

const packetOff = -1 // disabled packet delimiter or length

type config struct {
	baud     float64
	order    BitOrder
	invert   [2]bool
	parity   Parity
	stopBits int

	packetDelim [2]int64 // per channel, packetOff if disabled
	packetLen   [2]int   // per channel, packetOff if disabled
}

func newConfig() config {
	return config{
		baud:        DefaultBaudRate,
		order:       LSBFirst,
		parity:      ParityNone,
		stopBits:    1,
		packetDelim: [2]int64{packetOff, packetOff},
		packetLen:   [2]int{packetOff, packetOff},
	}
}

func (cfg *config) parityBits() int {
	if cfg.parity == ParityNone {
		return 0
	}
	return 1
}

func (cfg *config) valid() error {
	if !(cfg.baud > 0) {
		return xerrors.Errorf("sio: invalid baud rate %v", cfg.baud)
	}
	switch cfg.order {
	case LSBFirst, MSBFirst:
	default:
		return xerrors.Errorf("sio: invalid bit order %d", cfg.order)
	}
	switch cfg.parity {
	case ParityNone, ParityIgnore, ParityZero, ParityOne, ParityOdd, ParityEven:
	default:
		return xerrors.Errorf("sio: invalid parity mode %d", cfg.parity)
	}
	if cfg.stopBits < 1 {
		return xerrors.Errorf("sio: invalid stop-bit count %d", cfg.stopBits)
	}
	for _, ch := range []Channel{RX, TX} {
		if v := cfg.packetDelim[ch]; v != packetOff && (v < 0 || v > DataMask) {
			return xerrors.Errorf("sio: invalid %v packet delimiter %d", ch, v)
		}
		if n := cfg.packetLen[ch]; n != packetOff && n < 1 {
			return xerrors.Errorf("sio: invalid %v packet length %d", ch, n)
		}
	}
	return nil
}

// Option configures a Decoder.
type Option func(*config)

// WithBaudRate sets the baud rate of the link.
func WithBaudRate(baud float64) Option {
	return func(cfg *config) {
		cfg.baud = baud
	}
}

// WithBitOrder sets the data-bit order of the link.
func WithBitOrder(order BitOrder) Option {
	return func(cfg *config) {
		cfg.order = order
	}
}

// WithInvert sets the signal-inversion flag of line ch.
func WithInvert(ch Channel, inv bool) Option {
	return func(cfg *config) {
		cfg.invert[ch] = inv
	}
}

// WithParity sets the parity mode of the link.
func WithParity(p Parity) Option {
	return func(cfg *config) {
		cfg.parity = p
	}
}

// WithStopBits sets the number of stop bits of the link.
func WithStopBits(n int) Option {
	return func(cfg *config) {
		cfg.stopBits = n
	}
}

// WithPacketDelim enables packet aggregation on line ch, closing a
// packet whenever value v is decoded.
func WithPacketDelim(ch Channel, v uint32) Option {
	return func(cfg *config) {
		cfg.packetDelim[ch] = int64(v)
	}
}

// WithPacketLen enables packet aggregation on line ch, closing a
// packet once n values have been buffered.
func WithPacketLen(ch Channel, n int) Option {
	return func(cfg *config) {
		cfg.packetLen[ch] = n
	}
}
