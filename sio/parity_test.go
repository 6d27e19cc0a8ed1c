// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"math/bits"
	"testing"
)

var parityValues = []uint32{
	0x0000000, 0x0000001, 0x0000003, 0x00000FF, 0x0C0FFEE,
	0x1234567, 0x2AAAAAA, 0x1555555, 0x3FFFFFF,
}

func TestParityOK(t *testing.T) {
	for _, v := range parityValues {
		ones := bits.OnesCount32(v & DataMask)
		for _, tc := range []struct {
			mode Parity
			bit  uint8
			want bool
		}{
			{mode: ParityIgnore, bit: 0, want: true},
			{mode: ParityIgnore, bit: 1, want: true},
			{mode: ParityZero, bit: 0, want: true},
			{mode: ParityZero, bit: 1, want: false},
			{mode: ParityOne, bit: 0, want: false},
			{mode: ParityOne, bit: 1, want: true},
			{mode: ParityEven, bit: 0, want: ones%2 == 0},
			{mode: ParityEven, bit: 1, want: ones%2 == 1},
			{mode: ParityOdd, bit: 0, want: ones%2 == 1},
			{mode: ParityOdd, bit: 1, want: ones%2 == 0},
		} {
			got := ParityOK(tc.mode, tc.bit, v)
			if got != tc.want {
				t.Errorf("ParityOK(%v, %d, 0x%07X): got=%v, want=%v",
					tc.mode, tc.bit, v, got, tc.want,
				)
			}
		}
	}
}

func TestExpectedParity(t *testing.T) {
	// The expected bit must always satisfy the mode it was computed
	// for (ParityIgnore accepts anything and has no expected value).
	for _, v := range parityValues {
		for _, mode := range []Parity{ParityZero, ParityOne, ParityOdd, ParityEven} {
			bit := expectedParity(mode, v)
			if !ParityOK(mode, bit, v) {
				t.Errorf("expectedParity(%v, 0x%07X)=%d does not satisfy its mode",
					mode, v, bit,
				)
			}
		}
	}
}
