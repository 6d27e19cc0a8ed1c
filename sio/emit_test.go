// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/xerrors"
)

type dumpBuf struct {
	bytes.Buffer
	err    error
	closed bool
}

func (buf *dumpBuf) Close() error {
	buf.closed = true
	return buf.err
}

func TestTextSink(t *testing.T) {
	var (
		ann bytes.Buffer
		evt bytes.Buffer
		dmp dumpBuf
	)
	snk := NewTextSink(&ann, &evt)
	snk.DumpTo(BinRX, &dmp)

	snk.Annotation(Annotation{
		Start: 32, End: 512,
		Class: AnnRXData,
		Text:  []string{"0C0FFEE"},
	})
	snk.Event(Event{Tag: EvtStartBit, Channel: RX, Start: 40, End: 56, Bit: 0})
	snk.Event(Event{Tag: EvtData, Channel: RX, Start: 56, End: 472, Value: 0x0C0FFEE})
	snk.Event(Event{Tag: EvtParityError, Channel: RX, Start: 472, End: 488, Expected: 1, Actual: 0})
	snk.Event(Event{Tag: EvtFrame, Channel: RX, Start: 32, End: 504, Value: 0x0C0FFEE, Valid: false})
	snk.Event(Event{Tag: EvtBreak, Channel: TX, Start: 0, End: 448})
	snk.Binary(BinRX, 56, 472, []byte{0x00, 0xC0, 0xFF, 0xEE})
	snk.Binary(BinTX, 56, 472, []byte{0xDE, 0xAD, 0xBE, 0xEF}) // no writer: dropped

	if got, want := ann.String(), "32-512 rx-data: 0C0FFEE\n"; got != want {
		t.Fatalf("invalid annotation output:\ngot= %q\nwant=%q", got, want)
	}

	want := strings.Join([]string{
		"40-56 rx STARTBIT bit=0",
		"56-472 rx DATA value=0x0C0FFEE",
		"472-488 rx PARITY_ERROR expected=1 actual=0",
		"32-504 rx FRAME value=0x0C0FFEE valid=false",
		"0-448 tx BREAK",
		"",
	}, "\n")
	if got := evt.String(); got != want {
		t.Fatalf("invalid event output:\ngot= %q\nwant=%q", got, want)
	}

	if got, want := dmp.Bytes(), []byte{0x00, 0xC0, 0xFF, 0xEE}; !bytes.Equal(got, want) {
		t.Fatalf("invalid dump: got=%x, want=%x", got, want)
	}

	err := snk.Close()
	if err != nil {
		t.Fatalf("could not close sink: %+v", err)
	}
	if !dmp.closed {
		t.Fatalf("dump writer was not closed")
	}
}

func TestTextSinkCloseError(t *testing.T) {
	snk := NewTextSink(nil, nil)
	dmp := dumpBuf{err: xerrors.New("boom")}
	snk.DumpTo(BinBoth, &dmp)

	err := snk.Close()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), "sio: could not close rxtx dump: boom") {
		t.Fatalf("invalid error: %+v", err)
	}

	// Closing again is a no-op.
	err = snk.Close()
	if err != nil {
		t.Fatalf("second close should not fail: %+v", err)
	}
}
