// Copyright 2026 The go-sio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rundb holds types to record and retrieve summaries of
// capture decode runs.
package rundb // import "github.com/go-sio/siodbg/rundb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// Run is the summary of one capture decode run.
type Run struct {
	ID      uint32    // run identifier
	Started time.Time // start of the decode run
	Capture string    // name of the capture file
	Lines   string    // decoded lines ("rx", "tx" or "rxtx")
	Baud    float64
	Frames  int64 // frames decoded
	Errors  int64 // frames with structural or parity errors
	Breaks  int64 // break conditions seen
}

// DB exposes convenience methods to record and retrieve decode-run
// summaries.
type DB struct {
	db   *sql.DB
	name string // name of the run database
}

// Open opens a connection to the run database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("rundb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("rundb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("rundb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastRunID returns the identifier of the most recent decode run.
func (db *DB) LastRunID(ctx context.Context) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runid uint32
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT identifier FROM runs ORDER BY started DESC LIMIT 1",
	)
	if err != nil {
		return runid, fmt.Errorf("rundb: could not query run-id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&runid)
		if err != nil {
			return runid, fmt.Errorf("rundb: could not get run-id value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return runid, fmt.Errorf("rundb: could not scan db for run-id: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runid, fmt.Errorf("rundb: context error while retrieving run-id: %w", err)
	}

	return runid, nil
}

// LastRuns returns the n most recent decode runs, most recent first.
func (db *DB) LastRuns(ctx context.Context, n int) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runs []Run
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT identifier, started, capture, lines, baud, frames, decode_errors, breaks
FROM runs ORDER BY started DESC LIMIT ?
`,
		n,
	)
	if err != nil {
		return runs, fmt.Errorf("rundb: could not run last-runs query: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var run Run
		err = rows.Scan(
			&run.ID, &run.Started, &run.Capture, &run.Lines,
			&run.Baud, &run.Frames, &run.Errors, &run.Breaks,
		)
		if err != nil {
			return runs, fmt.Errorf("rundb: could not scan row %d for last runs: %w", i, err)
		}
		i++

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return runs, fmt.Errorf("rundb: could not scan db for last runs: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("rundb: context error while retrieving last runs: %w", err)
	}

	return runs, nil
}

// InsertRun records the summary of one decode run.
func (db *DB) InsertRun(ctx context.Context, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		`
INSERT INTO runs (identifier, started, capture, lines, baud, frames, decode_errors, breaks)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.ID, run.Started, run.Capture, run.Lines,
		run.Baud, run.Frames, run.Errors, run.Breaks,
	)
	if err != nil {
		return fmt.Errorf("rundb: could not insert run %d: %w", run.ID, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rundb: context error while inserting run %d: %w", run.ID, err)
	}

	return nil
}
