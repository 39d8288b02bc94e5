// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graphstore persists a message map to a SQLite file: one
// concrete realization of the out-of-scope "graph file emitter" contract
// (spec.md §1, §6), grounded on overkam-code-property-graph's db.go,
// which does the same for its own call/code-property graph. The schema
// here (nodes, sites, pairs) is the message-graph analogue of that
// generator's (nodes, edges, sources, metrics) tables.
package graphstore

import (
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/mstrail/msgtrace/internal/pkg/site"
)

const ddl = `
CREATE TABLE nodes (
    scope TEXT PRIMARY KEY
);

CREATE TABLE sites (
    id TEXT PRIMARY KEY,
    scope TEXT NOT NULL,
    kind TEXT NOT NULL,
    carried_type TEXT NOT NULL,
    line INTEGER,
    assignment INTEGER,
    usage TEXT,
    usage_line INTEGER
);

CREATE TABLE pairs (
    send_id TEXT NOT NULL,
    receive_id TEXT NOT NULL,
    sender_scope TEXT NOT NULL,
    receiver_scope TEXT NOT NULL,
    carried_type TEXT NOT NULL
);
`

// Write overwrites the SQLite file at path with mmap's nodes, sites, and
// pairs. Every scope key of mmap becomes a row in nodes, including
// receiver-only scopes with an empty pair bucket (spec.md §4.8), and every
// Pair's two sites are deduplicated into the sites table by Site.ID.
func Write(path string, mmap site.Map) error {
	_ = os.Remove(path)

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("graphstore: open %s: %w", path, err)
	}
	defer func() { _ = conn.Close() }()

	if err := sqlitex.ExecuteScript(conn, ddl, nil); err != nil {
		return fmt.Errorf("graphstore: create schema: %w", err)
	}

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("graphstore: begin transaction: %w", err)
	}

	seenSites := map[string]bool{}
	for scope, pairs := range mmap {
		if err := insertNode(conn, scope); err != nil {
			endFn(&err)
			return err
		}
		for _, p := range pairs {
			if err := insertSiteOnce(conn, p.Send, seenSites); err != nil {
				endFn(&err)
				return err
			}
			if err := insertSiteOnce(conn, p.Receive, seenSites); err != nil {
				endFn(&err)
				return err
			}
			if err := insertPair(conn, p); err != nil {
				endFn(&err)
				return err
			}
		}
	}

	endFn(&err)
	if err != nil {
		return fmt.Errorf("graphstore: commit: %w", err)
	}
	return nil
}

func insertNode(conn *sqlite.Conn, scope string) error {
	stmt, err := conn.Prepare(`INSERT OR IGNORE INTO nodes (scope) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	stmt.BindText(1, scope)
	_, err = stmt.Step()
	return err
}

func insertSiteOnce(conn *sqlite.Conn, s *site.Site, seen map[string]bool) error {
	key := s.ID.String()
	if seen[key] {
		return nil
	}
	seen[key] = true

	stmt, err := conn.Prepare(`INSERT OR IGNORE INTO sites
		(id, scope, kind, carried_type, line, assignment, usage, usage_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare site insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	stmt.BindText(1, key)
	stmt.BindText(2, s.Scope)
	stmt.BindText(3, s.Kind.String())
	stmt.BindText(4, s.CarriedType)
	bindIntOrNull(stmt, 5, s.Line())

	// Missing assignment is persisted as -1, the boundary encoding
	// spec.md §6 specifies for a signed 64-bit slot.
	assignment := int64(-1)
	if s.Assignment != nil {
		assignment = *s.Assignment
	}
	stmt.BindInt64(6, assignment)

	if s.Kind == site.Receive {
		stmt.BindText(7, s.Usage.String())
		if s.UsageInstr != nil {
			if loc, ok := s.UsageInstr.DebugLoc(); ok {
				bindIntOrNull(stmt, 8, loc.Line)
			} else {
				stmt.BindNull(8)
			}
		} else {
			stmt.BindNull(8)
		}
	} else {
		stmt.BindNull(7)
		stmt.BindNull(8)
	}

	_, err = stmt.Step()
	return err
}

func insertPair(conn *sqlite.Conn, p site.Pair) error {
	stmt, err := conn.Prepare(`INSERT INTO pairs
		(send_id, receive_id, sender_scope, receiver_scope, carried_type)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pair insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	stmt.BindText(1, p.Send.ID.String())
	stmt.BindText(2, p.Receive.ID.String())
	stmt.BindText(3, p.Send.Scope)
	stmt.BindText(4, p.Receive.Scope)
	stmt.BindText(5, p.Send.CarriedType)

	_, err = stmt.Step()
	return err
}

func bindIntOrNull(stmt *sqlite.Stmt, col int, v int) {
	if v == 0 {
		stmt.BindNull(col)
		return
	}
	stmt.BindInt64(col, int64(v))
}
