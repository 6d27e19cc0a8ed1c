// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sio-ctl controls a logic-analyzer capture process.
//
// It listens for JSON commands over TCP ("start" and "stop"), spawns
// the capture process, optionally monitors its resource usage with
// pmon, and watches the capture directory: a capture file that stops
// growing triggers an alert.
package main // import "github.com/go-sio/siodbg/cmd/sio-ctl"

import (
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
	mail "gopkg.in/gomail.v2"
)

func main() {
	var (
		name    = flag.String("cmd", "sigrok-cli", "capture command to run")
		addr    = flag.String("addr", ":8877", "[ip]:port to listen on")
		dir     = flag.String("dir", "", "capture directory to monitor")
		freq    = flag.Duration("freq", 30*time.Second, "probing interval")
		doMon   = flag.Bool("pmon", false, "enable pmon monitoring of the capture process")
		monFreq = flag.Duration("pmon-freq", 1*time.Second, "pmon frequency")
	)

	flag.Parse()

	log.SetPrefix("sio-ctl: ")
	log.SetFlags(0)

	run(*name, *addr, *dir, *freq, *doMon, *monFreq)
}

func run(name, addr, dir string, freq time.Duration, doMon bool, monFreq time.Duration) {
	srv, err := newServer(addr, dir, freq, doMon, monFreq)
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}
	log.Printf("running sio-ctl server on %q...", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	var grp errgroup.Group
	grp.Go(func() error {
		srv.run(name)
		return nil
	})
	grp.Go(func() error {
		<-stop
		return srv.conn.Close()
	})

	err = grp.Wait()
	if err != nil {
		log.Fatalf("could not run server: %+v", err)
	}
}

type server struct {
	conn    net.Listener
	cmd     *exec.Cmd
	monKill func() error // stops the pmon monitor, if any

	dir     string
	freq    time.Duration
	doMon   bool
	monFreq time.Duration
	alerts  map[string]int // number of alerts sent per file
}

func newServer(addr, dir string, freq time.Duration, doMon bool, monFreq time.Duration) (*server, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %q: %w", addr, err)
	}
	return &server{
		conn:    conn,
		dir:     dir,
		freq:    freq,
		doMon:   doMon,
		monFreq: monFreq,
		alerts:  make(map[string]int),
	}, nil
}

func (srv *server) run(name string) {
	defer srv.conn.Close()

	for {
		conn, err := srv.conn.Accept()
		if err != nil {
			log.Printf("could not accept connection: %+v", err)
			return
		}
		go srv.handle(conn, name)
	}
}

func (srv *server) handle(conn net.Conn, name string) {
	defer conn.Close()
	done := make(chan int)
	defer close(done)

	for {
		var (
			req Request
			err = json.NewDecoder(conn).Decode(&req)
		)
		if err != nil {
			log.Printf("could not decode command: %+v", err)
			return
		}
		switch req.Name {
		case "start":
			log.Printf("starting capture... %s %v", name, req.Args)
			srv.cmd = exec.Command(name, req.Args...)
			srv.cmd.Stdout = os.Stdout
			srv.cmd.Stderr = os.Stderr
			err = srv.cmd.Start()
			if err != nil {
				log.Printf("could not start %s %s: %+v",
					srv.cmd.Path,
					strings.Join(srv.cmd.Args, " "),
					err,
				)
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				return
			}
			if srv.doMon {
				err = srv.monitorProc(name)
				if err != nil {
					log.Printf("could not monitor %q: %+v", name, err)
				}
			}
			_ = json.NewEncoder(conn).Encode(Reply{Msg: "ok"})
			log.Printf("starting capture... [done]")

			go srv.monitor(req.Run, done)

		case "stop":
			log.Printf("stopping capture...")
			// make sure the process is eventually reaped by PID-1
			go func() { _ = srv.cmd.Wait() }()
			err = srv.cmd.Process.Signal(os.Interrupt)
			if err != nil {
				log.Printf("could not stop %s %s: %+v",
					srv.cmd.Path,
					strings.Join(srv.cmd.Args, " "),
					err,
				)
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				return
			}
			if srv.monKill != nil {
				err = srv.monKill()
				if err != nil {
					log.Printf("could not stop pmon: %+v", err)
				}
				srv.monKill = nil
			}
			_ = json.NewEncoder(conn).Encode(Reply{Msg: "ok"})
			log.Printf("stopping capture... [done]")
			return

		default:
			log.Printf("unknown command %q", req.Name)
			_ = json.NewEncoder(conn).Encode(Reply{Err: "unknown command"})
		}
	}
}

// Request is one JSON control command.
type Request struct {
	Name string   `json:"cmd"`
	Run  string   `json:"run"` // run tag of the capture files
	Args []string `json:"args"`
}

// Reply is the JSON answer to a Request.
type Reply struct {
	Msg string `json:"msg"`
	Err string `json:"err,omitempty"`
}

func (srv *server) monitorProc(name string) error {
	p, err := pmon.Monitor(srv.cmd.Process.Pid)
	if err != nil {
		return fmt.Errorf("could not start monitoring %q (pid=%d): %w",
			name, srv.cmd.Process.Pid, err,
		)
	}
	f, err := os.Create(filepath.Join(srv.dir, name+"-pmon.log"))
	if err != nil {
		return fmt.Errorf("could not create pmon log file for %q: %w", name, err)
	}
	p.W = f
	p.Freq = srv.monFreq
	srv.monKill = p.Kill

	go func() {
		defer f.Close()
		log.Printf("run pmon %q...", name)
		err := p.Run()
		if err != nil {
			log.Printf("could not monitor %q: %+v", name, err)
		}
	}()

	return nil
}

func (srv *server) monitor(run string, quit chan int) {
	var (
		tick  = time.NewTicker(srv.freq)
		table = make(map[string]int64)
	)

	defer tick.Stop()

	for {
		select {
		case <-quit:
			return
		case <-tick.C:
			cur, err := srv.list(srv.dir, run)
			if err != nil {
				log.Printf("could not list files: %+v", err)
				continue
			}
			srv.compare(table, cur)
			table = cur
		}
	}
}

func (srv *server) list(dir, run string) (map[string]int64, error) {
	table := make(map[string]int64)
	glob := filepath.Join(dir, "sio_*"+run+"*bin")
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("could not glob %q: %w", glob, err)
	}
	for _, fname := range files {
		fi, err := os.Stat(fname)
		if err != nil {
			return nil, fmt.Errorf("could not stat %q: %w", fname, err)
		}
		table[fname] = fi.Size()
	}
	return table, nil
}

func (srv *server) compare(ref, chk map[string]int64) {
	for fname := range chk {
		if _, ok := ref[fname]; !ok {
			// file just appeared.
			// nothing to compare against.
			continue
		}
		refsz := ref[fname]
		chksz := chk[fname]
		if refsz == chksz {
			// file didn't grow!
			srv.alert(fname, refsz)
		}
	}
}

func (srv *server) alert(fname string, size int64) {
	log.Printf("file %q didn't change in the last %v (size=%d bytes)",
		fname, srv.freq, size,
	)
	srv.alerts[fname]++

	const maxAlerts = 5
	if srv.alerts[fname] < maxAlerts {
		srv.alertMail(fname, size)
	}
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func (srv *server) alertMail(fname string, size int64) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[sio-ctl] capture alert: %q", fname))
	msg.SetBody("text/plain", fmt.Sprintf("file: %q\nsize: %d bytes\nfreq: %v",
		fname, size, srv.freq,
	))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
