// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import "math/bits"

// ParityOK reports whether the parity bit is consistent with the
// decoded data value under the given parity mode. ParityNone is not
// a valid mode here: with no parity bit on the wire there is nothing
// to check.
func ParityOK(mode Parity, parityBit uint8, value uint32) bool {
	switch mode {
	case ParityIgnore:
		return true
	case ParityZero:
		return parityBit == 0
	case ParityOne:
		return parityBit == 1
	}

	ones := bits.OnesCount32(value&DataMask) + int(parityBit)
	switch mode {
	case ParityOdd:
		return ones%2 == 1
	case ParityEven:
		return ones%2 == 0
	}
	return false
}

// expectedParity returns the parity-bit value that would satisfy the
// given mode for value.
func expectedParity(mode Parity, value uint32) uint8 {
	switch mode {
	case ParityZero:
		return 0
	case ParityOne:
		return 1
	case ParityOdd:
		return uint8(1 - bits.OnesCount32(value&DataMask)%2)
	case ParityEven:
		return uint8(bits.OnesCount32(value&DataMask) % 2)
	}
	return 0
}
