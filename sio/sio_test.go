// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"testing"
)

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		v    uint32
		want string
	}{
		{v: 0, want: "0000000"},
		{v: 1, want: "0000001"},
		{v: 0xFF, want: "00000FF"},
		{v: 0xABCDEF, want: "0ABCDEF"},
		{v: 0x2ABCDEF, want: "2ABCDEF"},
		{v: DataMask, want: "3FFFFFF"},
		{v: 0xFFFFFFFF, want: "3FFFFFF"}, // masked to 26 bits
	} {
		got := FormatValue(tc.v)
		if got != tc.want {
			t.Errorf("FormatValue(0x%X): got=%q, want=%q", tc.v, got, tc.want)
		}
		if len(got) != numHexDigits {
			t.Errorf("FormatValue(0x%X): invalid width %d", tc.v, len(got))
		}
	}
}

func TestAnnOf(t *testing.T) {
	for _, tc := range []struct {
		base AnnClass
		ch   Channel
		want AnnClass
	}{
		{base: AnnRXData, ch: RX, want: AnnRXData},
		{base: AnnRXData, ch: TX, want: AnnTXData},
		{base: AnnRXWarn, ch: TX, want: AnnTXWarn},
		{base: AnnRXPacket, ch: RX, want: AnnRXPacket},
		{base: AnnRXPacket, ch: TX, want: AnnTXPacket},
	} {
		if got := annOf(tc.base, tc.ch); got != tc.want {
			t.Errorf("annOf(%v, %v): got=%v, want=%v", tc.base, tc.ch, got, tc.want)
		}
	}
}

func TestStringers(t *testing.T) {
	for _, tc := range []struct {
		v    interface{ String() string }
		want string
	}{
		{v: RX, want: "rx"},
		{v: TX, want: "tx"},
		{v: Channel(2), want: "Channel(2)"},
		{v: EvtStartBit, want: "STARTBIT"},
		{v: EvtInvalidStartBit, want: "INVALID_STARTBIT"},
		{v: EvtParityError, want: "PARITY_ERROR"},
		{v: EvtFrame, want: "FRAME"},
		{v: EvtIdle, want: "IDLE"},
		{v: AnnRXData, want: "rx-data"},
		{v: AnnTXBit, want: "tx-data-bits"},
		{v: AnnTXPacket, want: "tx-packet"},
		{v: BinRX, want: "rx"},
		{v: BinBoth, want: "rxtx"},
		{v: LSBFirst, want: "lsb-first"},
		{v: MSBFirst, want: "msb-first"},
		{v: ParityNone, want: "none"},
		{v: ParityEven, want: "even"},
	} {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("invalid string for %#v: got=%q, want=%q", tc.v, got, tc.want)
		}
	}
}
