// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sio/siodbg/sio"
)

// frameWave builds a raw one-line capture holding a single frame at
// 16 samples per bit: two bit slots of idle, the frame, two more of
// idle.
func frameWave(v uint32) []byte {
	var lv []byte
	add := func(b byte, n int) {
		for i := 0; i < n; i++ {
			lv = append(lv, b)
		}
	}
	add(1, 2*16)
	add(0, 16) // start bit
	for i := 0; i < sio.NumDataBits; i++ {
		add(byte(v>>i&1), 16)
	}
	add(1, 16) // stop bit
	add(1, 2*16)
	return lv
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "capture.bin")
	err := os.WriteFile(fname, frameWave(0xAA), 0644)
	if err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	p := newParams()
	p.rate = 24e6
	p.lines = "rx"

	dump := filepath.Join(tmp, "rx.bin")
	dumps := [3]*string{new(string), new(string), new(string)}
	*dumps[sio.BinRX] = dump

	out := new(bytes.Buffer)
	sum, err := process(out, fname, p, false, dumps)
	if err != nil {
		t.Fatalf("could not process capture: %+v", err)
	}
	if got, want := sum.frames, int64(1); got != want {
		t.Fatalf("invalid frame count: got=%d, want=%d", got, want)
	}
	if sum.errs != 0 || sum.breaks != 0 {
		t.Fatalf("invalid error counts: errs=%d, breaks=%d", sum.errs, sum.breaks)
	}

	want := strings.Join([]string{
		"32-48 rx STARTBIT bit=0",
		"48-464 rx DATA value=0x00000AA",
		"464-480 rx STOPBIT bit=1",
		"32-480 rx FRAME value=0x00000AA valid=true",
		"",
	}, "\n")
	if got := out.String(); got != want {
		t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s", got, want)
	}

	raw, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("could not read dump file: %+v", err)
	}
	if got, want := raw, []byte{0x00, 0x00, 0x00, 0xAA}; !bytes.Equal(got, want) {
		t.Fatalf("invalid dump: got=%x, want=%x", got, want)
	}
}

func TestProcessAnnotations(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "capture.bin")
	err := os.WriteFile(fname, frameWave(0xAA), 0644)
	if err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	p := newParams()
	p.rate = 24e6
	p.lines = "rx"

	out := new(bytes.Buffer)
	_, err = process(out, fname, p, true, [3]*string{})
	if err != nil {
		t.Fatalf("could not process capture: %+v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	// start bit + 26 data bits + data value + stop bit.
	if got, want := len(lines), 29; got != want {
		t.Fatalf("invalid number of annotations: got=%d, want=%d\n%s", got, want, out.String())
	}
	if got, want := lines[0], "32-48 rx-start: Start bit"; got != want {
		t.Fatalf("invalid first annotation: got=%q, want=%q", got, want)
	}
	found := false
	for _, line := range lines {
		if line == "48-464 rx-data: 00000AA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing data-value annotation:\n%s", out.String())
	}
}

func TestProcessErrors(t *testing.T) {
	p := newParams()
	p.rate = 24e6

	_, err := process(new(bytes.Buffer), "/does/not/exist.bin", p, false, [3]*string{})
	if err == nil {
		t.Fatalf("expected an error for a missing capture")
	}

	tmp := t.TempDir()
	fname := filepath.Join(tmp, "capture.bin")
	if err := os.WriteFile(fname, frameWave(0), 0644); err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	p.lines = "bogus"
	_, err = process(new(bytes.Buffer), fname, p, false, [3]*string{})
	if err == nil {
		t.Fatalf("expected an error for invalid lines")
	}

	p = newParams()
	p.lines = "rx" // no sample rate
	_, err = process(new(bytes.Buffer), fname, p, false, [3]*string{})
	if err == nil {
		t.Fatalf("expected an error for a missing sample rate")
	}
}
