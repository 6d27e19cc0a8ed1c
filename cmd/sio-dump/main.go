// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sio-dump decodes and displays Super-I/O debug-UART captures.
//
// Usage: sio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> sio-dump -rate=24e6 ./testdata/boot.bin
//  32-504 rx FRAME value=0x00000AA valid=true
//  504-976 rx FRAME value=0x3F00001 valid=true
//  [...]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-sio/siodbg/internal/logic"
	"github.com/go-sio/siodbg/rundb"
	"github.com/go-sio/siodbg/sio"
)

func main() {
	log.SetPrefix("sio-dump: ")
	log.SetFlags(0)

	var (
		cfgFile = flag.String("cfg", "", "path to a TOML decode configuration file")
		ann     = flag.Bool("ann", false, "display annotations instead of events")
		dbname  = flag.String("db", "", "run database to record decode summaries into")

		dumps [3]*string
	)
	p := newParams()
	flag.Float64Var(&p.rate, "rate", p.rate, "sample rate of the capture (Hz)")
	flag.StringVar(&p.lines, "lines", p.lines, "captured lines (rx, tx or rxtx)")
	flag.Float64Var(&p.baud, "baud", p.baud, "baud rate of the link")
	flag.StringVar(&p.order, "order", p.order, "data-bit order (lsb-first or msb-first)")
	flag.StringVar(&p.parity, "parity", p.parity, "parity mode (none, ignore, zero, one, odd, even)")
	flag.IntVar(&p.stopBits, "stop-bits", p.stopBits, "number of stop bits")
	flag.BoolVar(&p.invert[sio.RX], "invert-rx", p.invert[sio.RX], "invert the rx line")
	flag.BoolVar(&p.invert[sio.TX], "invert-tx", p.invert[sio.TX], "invert the tx line")
	dumps[sio.BinRX] = flag.String("dump-rx", "", "path to the raw rx values dump")
	dumps[sio.BinTX] = flag.String("dump-tx", "", "path to the raw tx values dump")
	dumps[sio.BinBoth] = flag.String("dump-rxtx", "", "path to the combined raw values dump")

	flag.Usage = func() {
		fmt.Printf(`sio-dump decodes and displays Super-I/O debug-UART captures.

Usage: sio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> sio-dump -rate=24e6 ./testdata/boot.bin
 32-504 rx FRAME value=0x00000AA valid=true
 504-976 rx FRAME value=0x3F00001 valid=true
 [...]

Settings defined in the -cfg file take precedence over flags.

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input capture file")
	}

	if *cfgFile != "" {
		err := loadParams(*cfgFile, &p)
		if err != nil {
			log.Fatalf("could not load config %q: %+v", *cfgFile, err)
		}
	}

	var db *rundb.DB
	if *dbname != "" {
		var err error
		db, err = rundb.Open(*dbname)
		if err != nil {
			log.Fatalf("could not open run db %q: %+v", *dbname, err)
		}
		defer db.Close()
	}

	for _, fname := range flag.Args() {
		sum, err := process(os.Stdout, fname, p, *ann, dumps)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
		if db != nil {
			err = record(db, fname, p, sum)
			if err != nil {
				log.Fatalf("could not record run for %q: %+v", fname, err)
			}
		}
	}
}

// record inserts the summary of one decode run into the run database.
func record(db *rundb.DB, fname string, p params, sum summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runid, err := db.LastRunID(ctx)
	if err != nil {
		return fmt.Errorf("could not get last run-id: %w", err)
	}

	err = db.InsertRun(ctx, rundb.Run{
		ID:      runid + 1,
		Started: sum.started,
		Capture: fname,
		Lines:   p.lines,
		Baud:    p.baud,
		Frames:  sum.frames,
		Errors:  sum.errs,
		Breaks:  sum.breaks,
	})
	if err != nil {
		return fmt.Errorf("could not insert run: %w", err)
	}
	return nil
}

// summary counts the frames of one decode run on top of another sink.
type summary struct {
	sio.Sink

	started time.Time
	frames  int64
	errs    int64 // frames with structural or parity errors
	breaks  int64
}

func (sum *summary) Event(evt sio.Event) {
	switch evt.Tag {
	case sio.EvtFrame:
		sum.frames++
		if !evt.Valid {
			sum.errs++
		}
	case sio.EvtBreak:
		sum.breaks++
	}
	sum.Sink.Event(evt)
}

func process(w io.Writer, fname string, p params, ann bool, dumps [3]*string) (summary, error) {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	sum := summary{started: time.Now()}

	mask, err := p.lineMask()
	if err != nil {
		return sum, err
	}

	src, err := logic.Open(fname, p.rate, mask)
	if err != nil {
		return sum, fmt.Errorf("could not open capture: %w", err)
	}

	var snk *sio.TextSink
	switch {
	case ann:
		snk = sio.NewTextSink(wbuf, nil)
	default:
		snk = sio.NewTextSink(nil, wbuf)
	}
	defer snk.Close()
	sum.Sink = snk

	for i, dump := range dumps {
		if dump == nil || *dump == "" {
			continue
		}
		f, err := os.Create(*dump)
		if err != nil {
			return sum, fmt.Errorf("could not create dump file %q: %w", *dump, err)
		}
		snk.DumpTo(sio.BinStream(i), f)
	}

	opts, err := p.options()
	if err != nil {
		return sum, err
	}

	dec, err := sio.NewDecoder(src, &sum, opts...)
	if err != nil {
		return sum, fmt.Errorf("could not create decoder: %w", err)
	}

	err = dec.Run()
	if err != nil {
		return sum, fmt.Errorf("could not decode capture: %w", err)
	}

	err = snk.Close()
	if err != nil {
		return sum, fmt.Errorf("could not close output sink: %w", err)
	}

	return sum, nil
}
