// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/xerrors"
)

var channels = [2]Channel{RX, TX}

// frameState is the per-line decoding state.
type frameState uint8

const (
	awaitStart frameState = iota // wait for the start-bit edge
	getStart                     // sample the start bit
	getData                      // sample data bit lineState.dataBit
	getParity                    // sample the parity bit
	getStop                      // sample stop bit lineState.stopBit
)

// lineState holds everything one UART line owns while decoding.
// RX and TX states never alias.
type lineState struct {
	state frameState

	frameStart uint64
	frameValid bool

	dataBit      int    // index of the next data bit
	value        uint32 // accumulated (or last completed) data value
	bits         []DataBit
	dataStart    uint64 // middle of the first data bit
	hasDataStart bool

	stopBit int // index of the next stop bit

	breakStart uint64
	inBreak    bool

	idleStart uint64
	idling    bool

	packet      []uint32
	packetStart uint64
}

// Decoder reconstructs 26-bit UART frames from the samples of a
// Source and publishes annotations, events and binary dumps to a
// Sink.
type Decoder struct {
	src Source
	out Sink
	cfg config

	bitWidth float64
	halfBit  float64
	frameLen uint64 // samples per complete frame

	has  [2]bool
	line [2]lineState
}

// NewDecoder creates a decoder reading samples from src and
// publishing to out.
//
// NewDecoder fails if src does not know its sample rate, if neither
// RX nor TX is captured, or if an option value is invalid.
func NewDecoder(src Source, out Sink, opts ...Option) (*Decoder, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	err := cfg.valid()
	if err != nil {
		return nil, err
	}

	bw, err := BitWidth(src.SampleRate(), cfg.baud)
	if err != nil {
		return nil, err
	}

	dec := &Decoder{
		src:      src,
		out:      out,
		cfg:      cfg,
		bitWidth: bw,
		halfBit:  bw / 2,
		frameLen: FrameLength(bw, cfg.parity, cfg.stopBits),
	}
	for _, ch := range channels {
		dec.has[ch] = src.HasLine(ch)
	}
	if !dec.has[RX] && !dec.has[TX] {
		return nil, ErrChannel
	}
	return dec, nil
}

// FrameLen returns the total span of one frame in samples.
func (dec *Decoder) FrameLen() uint64 { return dec.frameLen }

// Run decodes until the source is exhausted.
func (dec *Decoder) Run() error {
	var (
		frameIdx [2]int
		edgeIdx  [2]int
		idleIdx  [2]int
	)

	for {
		conds := make([]Cond, 0, 6)
		for _, ch := range channels {
			frameIdx[ch], edgeIdx[ch], idleIdx[ch] = -1, -1, -1
			if !dec.has[ch] {
				continue
			}
			frameIdx[ch] = len(conds)
			conds = append(conds, dec.waitCond(ch))
			edgeIdx[ch] = len(conds)
			conds = append(conds, EdgeOn(ch))
			if c, ok := dec.idleCond(ch); ok {
				idleIdx[ch] = len(conds)
				conds = append(conds, c)
			}
		}

		fired, err := dec.src.Wait(conds)
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return nil
			}
			return xerrors.Errorf("sio: could not wait for samples: %w", err)
		}

		for _, ch := range channels {
			if !dec.has[ch] {
				continue
			}
			sig := dec.level(ch)
			if fired[frameIdx[ch]] {
				dec.inspectSample(ch, sig)
			}
			if fired[edgeIdx[ch]] {
				dec.inspectEdge(ch, sig)
				dec.inspectIdle(ch, sig)
			}
			if idleIdx[ch] != -1 && fired[idleIdx[ch]] {
				dec.inspectIdle(ch, sig)
			}
		}
	}
}

// level returns the current level of line ch, post-inversion.
func (dec *Decoder) level(ch Channel) uint8 {
	sig := dec.src.Level(ch)
	if dec.cfg.invert[ch] {
		sig ^= 1
	}
	return sig
}

// waitCond returns the condition the frame state machine of line ch
// needs next: the start-bit edge, or the sample point of the next
// bit slot.
func (dec *Decoder) waitCond(ch Channel) Cond {
	ls := &dec.line[ch]
	if ls.state == awaitStart {
		return EdgeOn(ch)
	}

	var bitnum int
	switch ls.state {
	case getStart:
		bitnum = 0
	case getData:
		bitnum = 1 + ls.dataBit
	case getParity:
		bitnum = 1 + NumDataBits
	case getStop:
		bitnum = 1 + NumDataBits + dec.cfg.parityBits() + ls.stopBit
	}
	want := uint64(math.Ceil(SamplePoint(ls.frameStart, dec.bitWidth, bitnum)))
	return SampleAt(want)
}

// idleCond returns the condition matching the expected end of the
// next idle frame, if idle tracking is armed.
func (dec *Decoder) idleCond(ch Channel) (Cond, bool) {
	ls := &dec.line[ch]
	if !ls.idling {
		return Cond{}, false
	}
	end := ls.idleStart + dec.frameLen
	if end < dec.src.Pos() {
		return Cond{}, false
	}
	return SampleAt(end), true
}

// inspectSample drives the frame state machine of line ch with one
// sample taken at its computed bit-center point.
func (dec *Decoder) inspectSample(ch Channel, sig uint8) {
	ls := &dec.line[ch]
	switch ls.state {
	case awaitStart:
		dec.onStartEdge(ch, ls, sig)
	case getStart:
		dec.onStartBit(ch, ls, sig)
	case getData:
		dec.onDataBit(ch, ls, sig)
	case getParity:
		dec.onParityBit(ch, ls, sig)
	case getStop:
		dec.onStopBit(ch, ls, sig)
	}
}

func (dec *Decoder) onStartEdge(ch Channel, ls *lineState, sig uint8) {
	// Only the start transition (to logical low) opens a frame.
	if sig != 0 {
		return
	}
	ls.frameStart = dec.src.Pos()
	ls.frameValid = true
	ls.state = getStart
}

func (dec *Decoder) onStartBit(ch Channel, ls *lineState, sig uint8) {
	pos := dec.src.Pos()

	// The start bit must be 0. If not, the assumed bit timing cannot
	// be trusted: report the error, close the frame right away and
	// resynchronize on the next start-bit edge.
	if sig != 0 {
		dec.event(Event{
			Tag: EvtInvalidStartBit, Channel: ch,
			Start: padLeft(pos, dec.halfBit),
			End:   padRight(pos, dec.halfBit),
			Bit:   sig,
		})
		dec.annotate(ch, AnnRXWarn, pos, "Frame error", "Frame err", "FE")
		ls.frameValid = false
		dec.event(Event{
			Tag: EvtFrame, Channel: ch,
			Start: ls.frameStart,
			End:   padRight(pos, dec.halfBit),
			Value: ls.value,
			Valid: false,
		})
		ls.state = awaitStart
		return
	}

	ls.dataBit = 0
	ls.value = 0
	ls.hasDataStart = false

	dec.event(Event{
		Tag: EvtStartBit, Channel: ch,
		Start: padLeft(pos, dec.halfBit),
		End:   padRight(pos, dec.halfBit),
		Bit:   sig,
	})
	dec.annotate(ch, AnnRXStart, pos, "Start bit", "Start", "S")

	ls.state = getData
}

func (dec *Decoder) onDataBit(ch Channel, ls *lineState, sig uint8) {
	pos := dec.src.Pos()

	if !ls.hasDataStart {
		ls.dataStart = pos
		ls.hasDataStart = true
	}

	dec.annotate(ch, AnnRXBit, pos, fmt.Sprintf("%d", sig))

	hb := uint64(dec.bitWidth / 2)
	lo := uint64(0)
	if pos > hb {
		lo = pos - hb
	}
	ls.bits = append(ls.bits, DataBit{Value: sig, Start: lo, End: pos + hb})

	ls.dataBit++
	if ls.dataBit < NumDataBits {
		return
	}

	// All data bits collected: pack them into a value according to
	// the configured bit order (first-collected bit is the LSB for
	// lsb-first).
	ls.value = packBits(ls.bits, dec.cfg.order)

	bits := ls.bits
	ls.bits = nil

	ss := padLeft(ls.dataStart, dec.halfBit)
	es := padRight(pos, dec.halfBit)

	dec.event(Event{
		Tag: EvtData, Channel: ch,
		Start: ss, End: es,
		Value: ls.value,
		Bits:  bits,
	})
	dec.out.Annotation(Annotation{
		Start: ss, End: es,
		Class: annOf(AnnRXData, ch),
		Text:  []string{FormatValue(ls.value)},
	})

	var dump [numDumpBytes]byte
	binary.BigEndian.PutUint32(dump[:], ls.value)
	dec.out.Binary(BinStream(ch), ss, es, dump[:])
	dec.out.Binary(BinBoth, ss, es, dump[:])

	dec.handlePacket(ch, ls, pos)

	ls.stopBit = 0
	ls.state = getStop
	if dec.cfg.parityBits() != 0 {
		ls.state = getParity
	}
}

func (dec *Decoder) onParityBit(ch Channel, ls *lineState, sig uint8) {
	pos := dec.src.Pos()

	if ParityOK(dec.cfg.parity, sig, ls.value) {
		dec.event(Event{
			Tag: EvtParityBit, Channel: ch,
			Start: padLeft(pos, dec.halfBit),
			End:   padRight(pos, dec.halfBit),
			Bit:   sig,
		})
		dec.annotate(ch, AnnRXParityOK, pos, "Parity bit", "Parity", "P")
	} else {
		dec.event(Event{
			Tag: EvtParityError, Channel: ch,
			Start:    padLeft(pos, dec.halfBit),
			End:      padRight(pos, dec.halfBit),
			Expected: expectedParity(dec.cfg.parity, ls.value),
			Actual:   sig,
		})
		dec.annotate(ch, AnnRXParityErr, pos, "Parity error", "Parity err", "PE")
		ls.frameValid = false
	}

	ls.stopBit = 0
	ls.state = getStop
}

func (dec *Decoder) onStopBit(ch Channel, ls *lineState, sig uint8) {
	pos := dec.src.Pos()

	// Stop bits must be 1. Unlike a bad start bit this is found only
	// after the data bits were parsed, so the frame's value is still
	// reported.
	if sig != 1 {
		dec.event(Event{
			Tag: EvtInvalidStopBit, Channel: ch,
			Start: padLeft(pos, dec.halfBit),
			End:   padRight(pos, dec.halfBit),
			Bit:   sig,
		})
		dec.annotate(ch, AnnRXWarn, pos, "Frame error", "Frame err", "FE")
		ls.frameValid = false
	}

	dec.event(Event{
		Tag: EvtStopBit, Channel: ch,
		Start: padLeft(pos, dec.halfBit),
		End:   padRight(pos, dec.halfBit),
		Bit:   sig,
	})
	dec.annotate(ch, AnnRXStop, pos, "Stop bit", "Stop", "T")

	ls.stopBit++
	if ls.stopBit < dec.cfg.stopBits {
		return
	}

	dec.event(Event{
		Tag: EvtFrame, Channel: ch,
		Start: ls.frameStart,
		End:   padRight(pos, dec.halfBit),
		Value: ls.value,
		Valid: ls.frameValid,
	})

	ls.state = awaitStart
	ls.idleStart = ls.frameStart + dec.frameLen
	ls.idling = true
}

// handlePacket buffers the just-decoded value and closes the packet
// on the configured delimiter or length, whichever comes first.
func (dec *Decoder) handlePacket(ch Channel, ls *lineState, pos uint64) {
	var (
		delim = dec.cfg.packetDelim[ch]
		plen  = dec.cfg.packetLen[ch]
	)
	if delim == packetOff && plen == packetOff {
		return
	}

	if len(ls.packet) == 0 {
		ls.packetStart = ls.dataStart
	}
	ls.packet = append(ls.packet, ls.value)

	if int64(ls.value) != delim && len(ls.packet) != plen {
		return
	}

	text := make([]byte, 0, len(ls.packet)*(numHexDigits+1))
	for i, v := range ls.packet {
		if i > 0 {
			text = append(text, ' ')
		}
		text = append(text, FormatValue(v)...)
	}
	dec.out.Annotation(Annotation{
		Start: padLeft(ls.packetStart, dec.halfBit),
		End:   padRight(pos, dec.halfBit),
		Class: annOf(AnnRXPacket, ch),
		Text:  []string{string(text)},
	})
	ls.packet = ls.packet[:0]
}

// inspectEdge watches raw edges, independently of framing, to detect
// break conditions.
func (dec *Decoder) inspectEdge(ch Channel, sig uint8) {
	ls := &dec.line[ch]
	pos := dec.src.Pos()

	if sig == 0 {
		// Line went low: open an interval.
		ls.breakStart = pos
		ls.inBreak = true
		return
	}

	// Line went high: was the low period at least one frame long?
	if !ls.inBreak {
		return
	}
	if pos-ls.breakStart >= dec.frameLen {
		dec.event(Event{
			Tag: EvtBreak, Channel: ch,
			Start: ls.breakStart, End: pos,
		})
		dec.out.Annotation(Annotation{
			Start: ls.breakStart, End: pos,
			Class: annOf(AnnRXBreak, ch),
			Text:  []string{"Break condition", "Break", "Brk", "B"},
		})
		// A break overrides any frame in progress.
		ls.state = awaitStart
	}
	ls.inBreak = false
}

// inspectIdle watches sustained high periods and re-emits an IDLE
// event every frame length while the line stays idle.
func (dec *Decoder) inspectIdle(ch Channel, sig uint8) {
	ls := &dec.line[ch]
	pos := dec.src.Pos()

	if sig == 0 {
		ls.idling = false
		return
	}
	if !ls.idling {
		ls.idleStart = pos
		ls.idling = true
		return
	}
	if pos < ls.idleStart || pos-ls.idleStart < dec.frameLen {
		return
	}
	dec.event(Event{
		Tag: EvtIdle, Channel: ch,
		Start: ls.idleStart, End: pos,
	})
	ls.idleStart = pos
}

func (dec *Decoder) event(evt Event) {
	dec.out.Event(evt)
}

// annotate emits a one-bit-slot annotation centered on pos.
func (dec *Decoder) annotate(ch Channel, base AnnClass, pos uint64, text ...string) {
	dec.out.Annotation(Annotation{
		Start: padLeft(pos, dec.halfBit),
		End:   padRight(pos, dec.halfBit),
		Class: annOf(base, ch),
		Text:  text,
	})
}

// packBits converts collected data bits to a value. For msb-first the
// collected order is reversed before packing, so the first-sampled
// bit becomes the most-significant one.
func packBits(bits []DataBit, order BitOrder) uint32 {
	var v uint32
	switch order {
	case MSBFirst:
		for _, b := range bits {
			v = v<<1 | uint32(b.Value)
		}
	default:
		for i, b := range bits {
			v |= uint32(b.Value) << i
		}
	}
	return v & DataMask
}
