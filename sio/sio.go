// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sio holds functions to decode the Nuvoton Super-I/O 26-bit
// debug UART from logic-analyzer samples.
//
// The decoder consumes logic levels from a Source, one sample per
// computed bit-center point, and publishes three independent streams
// to a Sink: display annotations, structured protocol events and raw
// binary dumps of the decoded values.
package sio // import "github.com/go-sio/siodbg/sio"

import "fmt"

// Channel identifies one of the two monitored UART lines.
type Channel uint8

const (
	RX Channel = 0 // receive line
	TX Channel = 1 // transmit line
)

func (ch Channel) String() string {
	switch ch {
	case RX:
		return "rx"
	case TX:
		return "tx"
	}
	return fmt.Sprintf("Channel(%d)", uint8(ch))
}

const (
	// NumDataBits is the number of data bits in one frame.
	NumDataBits = 26

	numHexDigits = (NumDataBits + 3) / 4 // hex digits per formatted value
	numDumpBytes = (NumDataBits + 7) / 8 // bytes per binary-dump record

	// DataMask masks a decoded value to its 26 significant bits.
	DataMask = 1<<NumDataBits - 1
)

// DataBit is a single decoded data bit together with its half-bit
// padded sample window.
type DataBit struct {
	Value uint8
	Start uint64
	End   uint64
}

// Frame is one complete start + 26 data bits + optional parity +
// stop bit(s) unit.
type Frame struct {
	Start uint64 // sample index of the start-bit edge
	End   uint64 // sample index past the last stop bit
	Value uint32
	Valid bool // false if any structural or parity error was seen
	Bits  []DataBit
}

// EventTag labels a structured protocol event.
type EventTag uint8

const (
	EvtStartBit EventTag = iota
	EvtData
	EvtParityBit
	EvtStopBit
	EvtInvalidStartBit
	EvtInvalidStopBit
	EvtParityError
	EvtBreak
	EvtFrame
	EvtIdle
)

func (tag EventTag) String() string {
	switch tag {
	case EvtStartBit:
		return "STARTBIT"
	case EvtData:
		return "DATA"
	case EvtParityBit:
		return "PARITYBIT"
	case EvtStopBit:
		return "STOPBIT"
	case EvtInvalidStartBit:
		return "INVALID_STARTBIT"
	case EvtInvalidStopBit:
		return "INVALID_STOPBIT"
	case EvtParityError:
		return "PARITY_ERROR"
	case EvtBreak:
		return "BREAK"
	case EvtFrame:
		return "FRAME"
	case EvtIdle:
		return "IDLE"
	}
	return fmt.Sprintf("EventTag(%d)", uint8(tag))
}

// Event is one record of the structured-event stream.
// Which payload fields are meaningful depends on Tag:
//
//	STARTBIT, PARITYBIT, STOPBIT,
//	INVALID_STARTBIT, INVALID_STOPBIT: Bit
//	DATA:                             Value, Bits
//	PARITY_ERROR:                     Expected, Actual
//	FRAME:                            Value, Valid
//	BREAK, IDLE:                      none
type Event struct {
	Tag     EventTag
	Channel Channel
	Start   uint64
	End     uint64

	Bit      uint8
	Value    uint32
	Bits     []DataBit
	Valid    bool
	Expected uint8
	Actual   uint8
}

// AnnClass identifies the display class of an annotation.
// RX and TX variants of a class are adjacent, RX first.
type AnnClass uint8

const (
	AnnRXData AnnClass = iota
	AnnTXData
	AnnRXStart
	AnnTXStart
	AnnRXParityOK
	AnnTXParityOK
	AnnRXParityErr
	AnnTXParityErr
	AnnRXStop
	AnnTXStop
	AnnRXWarn
	AnnTXWarn
	AnnRXBit
	AnnTXBit
	AnnRXBreak
	AnnTXBreak
	AnnRXPacket
	AnnTXPacket
)

var annNames = [...]string{
	"rx-data", "tx-data",
	"rx-start", "tx-start",
	"rx-parity-ok", "tx-parity-ok",
	"rx-parity-err", "tx-parity-err",
	"rx-stop", "tx-stop",
	"rx-warnings", "tx-warnings",
	"rx-data-bits", "tx-data-bits",
	"rx-break", "tx-break",
	"rx-packet", "tx-packet",
}

func (cls AnnClass) String() string {
	if int(cls) < len(annNames) {
		return annNames[cls]
	}
	return fmt.Sprintf("AnnClass(%d)", uint8(cls))
}

// annOf returns the per-channel variant of an annotation class.
func annOf(base AnnClass, ch Channel) AnnClass {
	return base + AnnClass(ch)
}

// Annotation is one record of the annotation stream. Text holds
// alternative renderings, longest first.
type Annotation struct {
	Start uint64
	End   uint64
	Class AnnClass
	Text  []string
}

// BinStream identifies one of the binary-dump streams.
type BinStream uint8

const (
	BinRX   BinStream = iota // RX dump
	BinTX                    // TX dump
	BinBoth                  // combined RX/TX dump
)

func (bs BinStream) String() string {
	switch bs {
	case BinRX:
		return "rx"
	case BinTX:
		return "tx"
	case BinBoth:
		return "rxtx"
	}
	return fmt.Sprintf("BinStream(%d)", uint8(bs))
}

// FormatValue renders a decoded 26-bit value the way annotations and
// packets display it: zero-padded uppercase hex, 7 digits.
func FormatValue(v uint32) string {
	return fmt.Sprintf("%0*X", numHexDigits, v&DataMask)
}
