// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sio-sql inspects the decode-run database.
package main // import "github.com/go-sio/siodbg/cmd/sio-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-sio/siodbg/rundb"
	_ "github.com/go-sql-driver/mysql"
)

const (
	dbname = "siodbg"
)

func main() {
	log.SetPrefix("sio-sql: ")
	log.SetFlags(0)

	var (
		n = flag.Int("n", 10, "number of runs to display")
	)

	flag.Parse()

	db, err := rundb.Open(dbname)
	if err != nil {
		log.Fatalf("could not open run db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *n)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *rundb.DB, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runid, err := db.LastRunID(ctx)
	if err != nil {
		return fmt.Errorf("could not get last run-id: %w", err)
	}
	log.Printf("last run: %d", runid)

	runs, err := db.LastRuns(ctx, n)
	if err != nil {
		return fmt.Errorf("could not get last %d runs: %w", n, err)
	}
	log.Printf("runs: %d", len(runs))
	for _, run := range runs {
		log.Printf(">>> run=%03d capture=%q lines=%s frames=%d errs=%d breaks=%d (%s)",
			run.ID, run.Capture, run.Lines,
			run.Frames, run.Errors, run.Breaks,
			run.Started.Format(time.RFC3339),
		)
	}

	return nil
}
