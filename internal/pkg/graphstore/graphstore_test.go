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

package graphstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/mstrail/msgtrace/internal/pkg/irfixture"
	"github.com/mstrail/msgtrace/internal/pkg/site"
)

func TestWritePersistsNodesSitesAndPairs(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	sendInstr := b.Call("send", nil).WithDebugLoc("a.rs", 10)
	recvInstr := b.Call("recv", nil).WithDebugLoc("b.rs", 20)

	send := site.New(sendInstr, site.Send, "u32", "a.rs")
	assignment := int64(3)
	send.Assignment = &assignment

	recv := site.New(recvInstr, site.Receive, "u32", "b.rs")
	recv.Usage = site.UnwrappedToSwitch

	pairs := []site.Pair{{Send: send, Receive: recv}}
	mmap := site.Build(pairs)

	path := filepath.Join(t.TempDir(), "graph.sqlite")
	require.NoError(t, Write(path, mmap))

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var nodeCount, siteCount, pairCount int
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT COUNT(*) FROM nodes", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error { nodeCount = stmt.ColumnInt(0); return nil },
	}))
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT COUNT(*) FROM sites", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error { siteCount = stmt.ColumnInt(0); return nil },
	}))
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT COUNT(*) FROM pairs", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error { pairCount = stmt.ColumnInt(0); return nil },
	}))

	require.Equal(t, 2, nodeCount, "one node for the sender scope, one for the receiver scope")
	require.Equal(t, 2, siteCount)
	require.Equal(t, 1, pairCount)

	var assignmentCol int64
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT assignment FROM sites WHERE kind = 'send'", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error { assignmentCol = stmt.ColumnInt64(0); return nil },
	}))
	require.Equal(t, int64(3), assignmentCol)
}

func TestWriteEncodesMissingAssignmentAsMinusOne(t *testing.T) {
	b := irfixture.NewModuleBuilder("m").Func("f").Block("b")
	sendInstr := b.Call("send", nil)
	recvInstr := b.Call("recv", nil)

	send := site.New(sendInstr, site.Send, "u32", "scope")
	recv := site.New(recvInstr, site.Receive, "u32", "scope")
	mmap := site.Build([]site.Pair{{Send: send, Receive: recv}})

	path := filepath.Join(t.TempDir(), "graph.sqlite")
	require.NoError(t, Write(path, mmap))

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var assignmentCol int64
	require.NoError(t, sqlitex.ExecuteTransient(conn, "SELECT assignment FROM sites WHERE kind = 'send'", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error { assignmentCol = stmt.ColumnInt64(0); return nil },
	}))
	require.Equal(t, int64(-1), assignmentCol)
}
