// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

// Sink receives the three output streams of a Decoder.
// Implementations must be ready to accept records in the order the
// decode loop produces them; the decoder never calls a Sink from more
// than one goroutine.
type Sink interface {
	// Annotation receives one display annotation.
	Annotation(ann Annotation)

	// Event receives one structured protocol event.
	Event(evt Event)

	// Binary receives one raw dump record for the given stream:
	// a decoded value as 4 big-endian bytes.
	Binary(stream BinStream, start, end uint64, data []byte)
}

// TextSink renders annotations and events as text, one record per
// line, and optionally copies binary dumps to per-stream writers.
type TextSink struct {
	ann io.Writer
	evt io.Writer
	bin [3]io.WriteCloser
}

var _ Sink = (*TextSink)(nil)

// NewTextSink returns a sink writing annotations to ann and
// structured events to evt. Either writer may be nil to drop that
// stream.
func NewTextSink(ann, evt io.Writer) *TextSink {
	return &TextSink{ann: ann, evt: evt}
}

// DumpTo copies the raw binary dump of stream to w. The writer is
// closed by Close.
func (snk *TextSink) DumpTo(stream BinStream, w io.WriteCloser) {
	snk.bin[stream] = w
}

func (snk *TextSink) Annotation(ann Annotation) {
	if snk.ann == nil {
		return
	}
	fmt.Fprintf(snk.ann, "%d-%d %s: %s\n", ann.Start, ann.End, ann.Class, ann.Text[0])
}

func (snk *TextSink) Event(evt Event) {
	if snk.evt == nil {
		return
	}
	w := snk.evt
	switch evt.Tag {
	case EvtStartBit, EvtParityBit, EvtStopBit, EvtInvalidStartBit, EvtInvalidStopBit:
		fmt.Fprintf(w, "%d-%d %v %v bit=%d\n", evt.Start, evt.End, evt.Channel, evt.Tag, evt.Bit)
	case EvtData:
		fmt.Fprintf(w, "%d-%d %v %v value=0x%s\n", evt.Start, evt.End, evt.Channel, evt.Tag, FormatValue(evt.Value))
	case EvtParityError:
		fmt.Fprintf(w, "%d-%d %v %v expected=%d actual=%d\n", evt.Start, evt.End, evt.Channel, evt.Tag, evt.Expected, evt.Actual)
	case EvtFrame:
		fmt.Fprintf(w, "%d-%d %v %v value=0x%s valid=%v\n", evt.Start, evt.End, evt.Channel, evt.Tag, FormatValue(evt.Value), evt.Valid)
	default:
		fmt.Fprintf(w, "%d-%d %v %v\n", evt.Start, evt.End, evt.Channel, evt.Tag)
	}
}

func (snk *TextSink) Binary(stream BinStream, start, end uint64, data []byte) {
	w := snk.bin[stream]
	if w == nil {
		return
	}
	_, _ = w.Write(data)
}

// Close closes the binary-dump writers, if any.
func (snk *TextSink) Close() error {
	var err *multierror.Error
	for i, w := range snk.bin {
		if w == nil {
			continue
		}
		e := w.Close()
		if e != nil {
			err = multierror.Append(err, fmt.Errorf(
				"sio: could not close %v dump: %w", BinStream(i), e,
			))
		}
		snk.bin[i] = nil
	}
	return err.ErrorOrNil()
}
