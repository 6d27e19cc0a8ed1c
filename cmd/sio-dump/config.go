// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/go-sio/siodbg/internal/logic"
	"github.com/go-sio/siodbg/sio"
)

// params collects every decode setting of the command, from flags and
// the optional TOML configuration file.
type params struct {
	rate     float64
	lines    string
	baud     float64
	order    string
	parity   string
	stopBits int
	invert   [2]bool

	packetDelim [2]int64
	packetLen   [2]int
}

func newParams() params {
	return params{
		lines:       "rxtx",
		baud:        sio.DefaultBaudRate,
		order:       sio.LSBFirst.String(),
		parity:      sio.ParityNone.String(),
		stopBits:    1,
		packetDelim: [2]int64{-1, -1},
		packetLen:   [2]int{-1, -1},
	}
}

func (p *params) lineMask() (uint8, error) {
	switch p.lines {
	case "rx":
		return logic.LineRX, nil
	case "tx":
		return logic.LineTX, nil
	case "rxtx":
		return logic.LineRX | logic.LineTX, nil
	}
	return 0, fmt.Errorf("invalid lines value %q", p.lines)
}

func (p *params) options() ([]sio.Option, error) {
	order, err := sio.ParseBitOrder(p.order)
	if err != nil {
		return nil, err
	}
	parity, err := sio.ParseParity(p.parity)
	if err != nil {
		return nil, err
	}

	opts := []sio.Option{
		sio.WithBaudRate(p.baud),
		sio.WithBitOrder(order),
		sio.WithParity(parity),
		sio.WithStopBits(p.stopBits),
		sio.WithInvert(sio.RX, p.invert[sio.RX]),
		sio.WithInvert(sio.TX, p.invert[sio.TX]),
	}
	for _, ch := range []sio.Channel{sio.RX, sio.TX} {
		if v := p.packetDelim[ch]; v >= 0 {
			opts = append(opts, sio.WithPacketDelim(ch, uint32(v)))
		}
		if n := p.packetLen[ch]; n >= 0 {
			opts = append(opts, sio.WithPacketLen(ch, n))
		}
	}
	return opts, nil
}

type fileConfig struct {
	Rate     float64 `toml:"rate"`
	Lines    string  `toml:"lines"`
	Baud     float64 `toml:"baud"`
	BitOrder string  `toml:"bit_order"`
	Parity   string  `toml:"parity"`
	StopBits int     `toml:"stop_bits"`
	InvertRX bool    `toml:"invert_rx"`
	InvertTX bool    `toml:"invert_tx"`

	PacketDelimRX int64 `toml:"packet_delim_rx"`
	PacketDelimTX int64 `toml:"packet_delim_tx"`
	PacketLenRX   int   `toml:"packet_len_rx"`
	PacketLenTX   int   `toml:"packet_len_tx"`
}

// loadParams overlays the settings defined in the TOML file path on
// top of p. Only keys present in the file are applied.
func loadParams(path string, p *params) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("could not decode config: %w", err)
	}

	if meta.IsDefined("rate") {
		p.rate = raw.Rate
	}
	if meta.IsDefined("lines") {
		p.lines = raw.Lines
	}
	if meta.IsDefined("baud") {
		p.baud = raw.Baud
	}
	if meta.IsDefined("bit_order") {
		p.order = raw.BitOrder
	}
	if meta.IsDefined("parity") {
		p.parity = raw.Parity
	}
	if meta.IsDefined("stop_bits") {
		p.stopBits = raw.StopBits
	}
	if meta.IsDefined("invert_rx") {
		p.invert[sio.RX] = raw.InvertRX
	}
	if meta.IsDefined("invert_tx") {
		p.invert[sio.TX] = raw.InvertTX
	}
	if meta.IsDefined("packet_delim_rx") {
		p.packetDelim[sio.RX] = raw.PacketDelimRX
	}
	if meta.IsDefined("packet_delim_tx") {
		p.packetDelim[sio.TX] = raw.PacketDelimTX
	}
	if meta.IsDefined("packet_len_rx") {
		p.packetLen[sio.RX] = raw.PacketLenRX
	}
	if meta.IsDefined("packet_len_tx") {
		p.packetLen[sio.TX] = raw.PacketLenTX
	}

	return nil
}
