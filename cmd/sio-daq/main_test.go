// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sio/siodbg/internal/logic"
	"github.com/go-sio/siodbg/sio"
)

func TestEncodeFrame(t *testing.T) {
	got := encodeFrame(sio.Event{
		Tag:     sio.EvtFrame,
		Channel: sio.TX,
		Start:   0x0102030405060708,
		End:     0x1112131415161718,
		Value:   0x2ABCDEF,
		Valid:   true,
	})
	want := []byte{
		0x01,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		0x02, 0xAB, 0xCD, 0xEF,
		0x01,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("invalid frame record:\ngot= %x\nwant=%x", got, want)
	}
	if got, want := len(got), frameLen; got != want {
		t.Fatalf("invalid frame record length: got=%d, want=%d", got, want)
	}
}

func TestDecode(t *testing.T) {
	// One frame (value 0x15) on the rx line, 16 samples per bit.
	var raw []byte
	add := func(b byte, n int) {
		for i := 0; i < n; i++ {
			raw = append(raw, b)
		}
	}
	add(1, 2*16)
	add(0, 16)
	for i := 0; i < sio.NumDataBits; i++ {
		add(byte(0x15>>i&1), 16)
	}
	add(1, 16)
	add(1, 2*16)

	fname := filepath.Join(t.TempDir(), "capture.bin")
	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	dev := device{
		fname: fname,
		rate:  24e6,
		mask:  logic.LineRX,
		baud:  1.5e6,
		data:  make(chan []byte, 16),
	}
	err = dev.decode(context.Background())
	if err != nil {
		t.Fatalf("could not decode capture: %+v", err)
	}

	if got, want := dev.n, 1; got != want {
		t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
	}
	rec := <-dev.data
	if got, want := rec[0], byte(0); got != want {
		t.Fatalf("invalid channel: got=%d, want=%d", got, want)
	}
	if got, want := rec[17:21], []byte{0, 0, 0, 0x15}; !bytes.Equal(got, want) {
		t.Fatalf("invalid value: got=%x, want=%x", got, want)
	}
	if got, want := rec[21], byte(1); got != want {
		t.Fatalf("invalid validity flag: got=%d, want=%d", got, want)
	}
}

func TestLineMask(t *testing.T) {
	for _, tc := range []struct {
		lines string
		want  uint8
		err   bool
	}{
		{lines: "rx", want: logic.LineRX},
		{lines: "tx", want: logic.LineTX},
		{lines: "rxtx", want: logic.LineRX | logic.LineTX},
		{lines: "bogus", err: true},
	} {
		got, err := lineMask(tc.lines)
		switch {
		case tc.err:
			if err == nil {
				t.Fatalf("%s: expected an error", tc.lines)
			}
		case err != nil:
			t.Fatalf("%s: could not compute line mask: %+v", tc.lines, err)
		default:
			if got != tc.want {
				t.Fatalf("%s: invalid mask: got=%v, want=%v", tc.lines, got, tc.want)
			}
		}
	}
}
