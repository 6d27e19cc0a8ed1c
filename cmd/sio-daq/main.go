// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sio-daq starts a TDAQ server publishing the frames decoded
// from a Super-I/O debug-UART capture on the /frames output channel.
//
// The capture is replayed in a loop, one pass per second, until the
// run is stopped.
package main // import "github.com/go-sio/siodbg/cmd/sio-daq"

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"golang.org/x/xerrors"

	"github.com/go-sio/siodbg/internal/logic"
	"github.com/go-sio/siodbg/sio"
)

func main() {
	cmd := flags.New()

	if len(cmd.Args) == 0 {
		log.Fatalf("missing path to input capture file")
	}

	dev := device{
		fname: cmd.Args[0],
		rate:  24e6,
		mask:  logic.LineRX | logic.LineTX,
		baud:  sio.DefaultBaudRate,
	}
	if len(cmd.Args) > 1 {
		rate, err := strconv.ParseFloat(cmd.Args[1], 64)
		if err != nil {
			log.Fatalf("could not parse sample rate %q: %+v", cmd.Args[1], err)
		}
		dev.rate = rate
	}
	if len(cmd.Args) > 2 {
		mask, err := lineMask(cmd.Args[2])
		if err != nil {
			log.Fatalf("could not parse lines %q: %+v", cmd.Args[2], err)
		}
		dev.mask = mask
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/frames", dev.frames)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
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
	return 0, xerrors.Errorf("invalid lines value %q", lines)
}

type device struct {
	fname string
	rate  float64
	mask  uint8
	baud  float64

	n    int
	data chan []byte
}

func (dev *device) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	fi, err := os.Stat(dev.fname)
	if err != nil {
		ctx.Msg.Errorf("could not stat capture %q: %+v", dev.fname, err)
		return xerrors.Errorf("could not stat capture %q: %w", dev.fname, err)
	}
	ctx.Msg.Infof("capture %q: %d samples", dev.fname, fi.Size())
	return nil
}

func (dev *device) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	dev.data = make(chan []byte, 1024)
	dev.n = 0
	return nil
}

func (dev *device) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.data = make(chan []byte, 1024)
	dev.n = 0
	return nil
}

func (dev *device) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *device) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	n := dev.n
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (dev *device) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *device) frames(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *device) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
		}
		err := dev.decode(ctx.Ctx)
		if err != nil {
			ctx.Msg.Errorf("could not decode capture %q: %+v", dev.fname, err)
			return err
		}
		time.Sleep(1 * time.Second)
	}
}

func (dev *device) decode(ctx context.Context) error {
	src, err := logic.Open(dev.fname, dev.rate, dev.mask)
	if err != nil {
		return xerrors.Errorf("could not open capture %q: %w", dev.fname, err)
	}

	dec, err := sio.NewDecoder(src, &frameSink{ctx: ctx, data: dev.data, n: &dev.n},
		sio.WithBaudRate(dev.baud),
	)
	if err != nil {
		return xerrors.Errorf("could not create decoder: %w", err)
	}

	return dec.Run()
}

// frameLen is the size of one encoded frame record on the /frames
// output channel: channel, start, end, value, valid.
const frameLen = 1 + 8 + 8 + 4 + 1

// frameSink pushes encoded FRAME events to a data channel, dropping
// them when the channel is full.
type frameSink struct {
	ctx  context.Context
	data chan []byte
	n    *int
}

var _ sio.Sink = (*frameSink)(nil)

func (snk *frameSink) Annotation(ann sio.Annotation) {}

func (snk *frameSink) Binary(stream sio.BinStream, start, end uint64, data []byte) {}

func (snk *frameSink) Event(evt sio.Event) {
	if evt.Tag != sio.EvtFrame {
		return
	}
	select {
	case <-snk.ctx.Done():
	case snk.data <- encodeFrame(evt):
		*snk.n++
	default:
	}
}

func encodeFrame(evt sio.Event) []byte {
	buf := make([]byte, frameLen)
	buf[0] = byte(evt.Channel)
	binary.BigEndian.PutUint64(buf[1:9], evt.Start)
	binary.BigEndian.PutUint64(buf[9:17], evt.End)
	binary.BigEndian.PutUint32(buf[17:21], evt.Value)
	if evt.Valid {
		buf[21] = 1
	}
	return buf
}
