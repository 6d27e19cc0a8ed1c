// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"testing"
)

func TestParseBitOrder(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want BitOrder
		err  string
	}{
		{str: "lsb-first", want: LSBFirst},
		{str: "msb-first", want: MSBFirst},
		{str: "little-endian", err: `sio: invalid bit order "little-endian"`},
		{str: "", err: `sio: invalid bit order ""`},
	} {
		t.Run(tc.str, func(t *testing.T) {
			got, err := ParseBitOrder(tc.str)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error: got=%q, want=%q", got, want)
				}
			case err != nil:
				t.Fatalf("could not parse %q: %+v", tc.str, err)
			case tc.err != "":
				t.Fatalf("expected an error: %q", tc.err)
			default:
				if got != tc.want {
					t.Fatalf("invalid bit order: got=%v, want=%v", got, tc.want)
				}
			}
		})
	}
}

func TestParseParity(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want Parity
		err  string
	}{
		{str: "none", want: ParityNone},
		{str: "ignore", want: ParityIgnore},
		{str: "zero", want: ParityZero},
		{str: "one", want: ParityOne},
		{str: "odd", want: ParityOdd},
		{str: "even", want: ParityEven},
		{str: "mark", err: `sio: invalid parity mode "mark"`},
	} {
		t.Run(tc.str, func(t *testing.T) {
			got, err := ParseParity(tc.str)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error: got=%q, want=%q", got, want)
				}
			case err != nil:
				t.Fatalf("could not parse %q: %+v", tc.str, err)
			case tc.err != "":
				t.Fatalf("expected an error: %q", tc.err)
			default:
				if got != tc.want {
					t.Fatalf("invalid parity mode: got=%v, want=%v", got, tc.want)
				}
			}
		})
	}
}

func TestConfigValid(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
		err  string
	}{
		{name: "defaults"},
		{
			name: "all-set",
			opts: []Option{
				WithBaudRate(115200),
				WithBitOrder(MSBFirst),
				WithInvert(RX, true),
				WithParity(ParityOdd),
				WithStopBits(2),
				WithPacketDelim(TX, 0xFF),
				WithPacketLen(TX, 16),
			},
		},
		{
			name: "bad-baud",
			opts: []Option{WithBaudRate(-1)},
			err:  "sio: invalid baud rate -1",
		},
		{
			name: "bad-stop-bits",
			opts: []Option{WithStopBits(0)},
			err:  "sio: invalid stop-bit count 0",
		},
		{
			name: "bad-packet-len",
			opts: []Option{WithPacketLen(RX, -2)},
			err:  "sio: invalid rx packet length -2",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newConfig()
			for _, opt := range tc.opts {
				opt(&cfg)
			}
			err := cfg.valid()
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error: got=%q, want=%q", got, want)
				}
			case err != nil:
				t.Fatalf("could not validate config: %+v", err)
			case tc.err != "":
				t.Fatalf("expected an error: %q", tc.err)
			}
		})
	}
}

func TestConfigParityBits(t *testing.T) {
	cfg := newConfig()
	if got, want := cfg.parityBits(), 0; got != want {
		t.Fatalf("invalid parity bits: got=%d, want=%d", got, want)
	}
	for _, p := range []Parity{ParityIgnore, ParityZero, ParityOne, ParityOdd, ParityEven} {
		cfg.parity = p
		if got, want := cfg.parityBits(), 1; got != want {
			t.Fatalf("%v: invalid parity bits: got=%d, want=%d", p, got, want)
		}
	}
}
