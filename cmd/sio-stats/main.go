// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sio-stats summarizes the frames of a Super-I/O debug-UART
// capture and optionally plots the distribution of decoded values.
package main // import "github.com/go-sio/siodbg/cmd/sio-stats"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"

	"github.com/go-sio/siodbg/internal/logic"
	"github.com/go-sio/siodbg/sio"
)

func main() {
	log.SetPrefix("sio-stats: ")
	log.SetFlags(0)

	var (
		rate  = flag.Float64("rate", 0, "sample rate of the capture (Hz)")
		lines = flag.String("lines", "rxtx", "captured lines (rx, tx or rxtx)")
		baud  = flag.Float64("baud", sio.DefaultBaudRate, "baud rate of the link")
		bins  = flag.Int("bins", 64, "number of bins of the values histogram")
		oname = flag.String("o", "", "path to an output plot file (PNG)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: sio-stats [OPTIONS] file.bin

ex:
 $> sio-stats -rate=24e6 -o stats.png ./capture.bin

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input capture file")
	}

	err := process(os.Stdout, flag.Arg(0), *oname, *rate, *lines, *baud, *bins)
	if err != nil {
		log.Fatalf("could not summarize capture %q: %+v", flag.Arg(0), err)
	}
}

func process(w io.Writer, fname, oname string, rate float64, lines string, baud float64, bins int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	mask, err := lineMask(lines)
	if err != nil {
		return err
	}

	src, err := logic.Open(fname, rate, mask)
	if err != nil {
		return fmt.Errorf("could not open capture: %w", err)
	}

	stats := newStats(bins)
	dec, err := sio.NewDecoder(src, stats, sio.WithBaudRate(baud))
	if err != nil {
		return fmt.Errorf("could not create decoder: %w", err)
	}

	err = dec.Run()
	if err != nil {
		return fmt.Errorf("could not decode capture: %w", err)
	}

	for _, ch := range []sio.Channel{sio.RX, sio.TX} {
		if !src.HasLine(ch) {
			continue
		}
		stats.write(wbuf, ch)
	}

	if oname != "" {
		err = stats.plot(oname, mask)
		if err != nil {
			return fmt.Errorf("could not plot stats: %w", err)
		}
	}

	return nil
}

func lineMask(lines string) (uint8, error) {
	switch lines {
	case "rx":
		return logic.LineRX, nil
	case "tx":
		return logic.LineTX, nil
	case "rxtx":
		return logic.LineRX | logic.LineTX, nil
	}
	return 0, fmt.Errorf("invalid lines value %q", lines)
}

// stats accumulates per-channel frame statistics as a decode sink.
type stats struct {
	vals [2]*hbook.H1D

	frames  [2]int
	valid   [2]int
	frmErrs [2]int // invalid start or stop bits
	parErrs [2]int
	breaks  [2]int
	idles   [2]int
}

var _ sio.Sink = (*stats)(nil)

func newStats(bins int) *stats {
	return &stats{
		vals: [2]*hbook.H1D{
			hbook.NewH1D(bins, 0, float64(sio.DataMask)+1),
			hbook.NewH1D(bins, 0, float64(sio.DataMask)+1),
		},
	}
}

func (stats *stats) Annotation(ann sio.Annotation) {}

func (stats *stats) Binary(stream sio.BinStream, start, end uint64, data []byte) {}

func (stats *stats) Event(evt sio.Event) {
	ch := evt.Channel
	switch evt.Tag {
	case sio.EvtFrame:
		stats.frames[ch]++
		if evt.Valid {
			stats.valid[ch]++
		}
		stats.vals[ch].Fill(float64(evt.Value), 1)
	case sio.EvtInvalidStartBit, sio.EvtInvalidStopBit:
		stats.frmErrs[ch]++
	case sio.EvtParityError:
		stats.parErrs[ch]++
	case sio.EvtBreak:
		stats.breaks[ch]++
	case sio.EvtIdle:
		stats.idles[ch]++
	}
}

func (stats *stats) write(w io.Writer, ch sio.Channel) {
	fmt.Fprintf(w, "=== %v ===\n", ch)
	fmt.Fprintf(w, "frames:        %d\n", stats.frames[ch])
	fmt.Fprintf(w, "valid:         %d\n", stats.valid[ch])
	fmt.Fprintf(w, "frame errors:  %d\n", stats.frmErrs[ch])
	fmt.Fprintf(w, "parity errors: %d\n", stats.parErrs[ch])
	fmt.Fprintf(w, "breaks:        %d\n", stats.breaks[ch])
	fmt.Fprintf(w, "idle periods:  %d\n", stats.idles[ch])
	if n := stats.vals[ch].Entries(); n > 0 {
		fmt.Fprintf(w, "value mean:    %.1f\n", stats.vals[ch].XMean())
	}
}

func (stats *stats) plot(oname string, mask uint8) error {
	p := hplot.New()
	p.Title.Text = "Decoded frame values"
	p.X.Label.Text = "value"
	p.Y.Label.Text = "frames"

	for _, ch := range []sio.Channel{sio.RX, sio.TX} {
		if mask&(1<<ch) == 0 {
			continue
		}
		h := hplot.NewH1D(stats.vals[ch])
		p.Add(h)
		p.Legend.Add(ch.String(), h)
	}

	err := p.Save(20*vg.Centimeter, 15*vg.Centimeter, oname)
	if err != nil {
		return fmt.Errorf("could not save plot %q: %w", oname, err)
	}
	return nil
}
