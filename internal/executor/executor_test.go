package executor

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
)

const testTimeout = 5 * time.Second

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: "error", Output: "stderr", Format: "text"})
}

// startExecutor runs an executor on a pipe and consumes its ready
// handshake.
func startExecutor(t *testing.T, opts Options) channel.Peer {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	peer, host := channel.NewPipe()
	go New(host, opts).Run()
	t.Cleanup(func() { peer.Close() }) //nolint:errcheck // Test cleanup

	res := recvResponse(t, peer)
	if res.Status != protocol.StatusReady {
		t.Fatalf("first response status = %q, want ready", res.Status)
	}
	return peer
}

func recvResponse(t *testing.T, peer channel.Peer) protocol.Response {
	t.Helper()
	select {
	case res := <-peer.Responses():
		return res
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for response")
		return protocol.Response{}
	}
}

// roundTrip sends one request and returns its correlated response.
func roundTrip(t *testing.T, peer channel.Peer, req protocol.Request) protocol.Response {
	t.Helper()
	if err := peer.Send(req); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	res := recvResponse(t, peer)
	if res.ID != req.ID {
		t.Fatalf("response id = %d, want %d", res.ID, req.ID)
	}
	return res
}

func mustSucceed(t *testing.T, peer channel.Peer, req protocol.Request) protocol.Response {
	t.Helper()
	res := roundTrip(t, peer, req)
	if res.Status != protocol.StatusSuccess {
		t.Fatalf("%s response = %q (%s), want success", req.Kind, res.Status, res.Error)
	}
	return res
}

func mustFail(t *testing.T, peer channel.Peer, req protocol.Request, fragment string) {
	t.Helper()
	res := roundTrip(t, peer, req)
	if res.Status != protocol.StatusError {
		t.Fatalf("%s response = %q, want error", req.Kind, res.Status)
	}
	if !strings.Contains(res.Error, fragment) {
		t.Fatalf("%s error = %q, want fragment %q", req.Kind, res.Error, fragment)
	}
}

func memoryConfig() *protocol.EngineConfig {
	return &protocol.EngineConfig{VFS: protocol.VFSConfig{Type: "memory"}}
}

// openMemory brings an executor to the open state against a memory backend.
func openMemory(t *testing.T, peer channel.Peer) {
	t.Helper()
	mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize, Config: memoryConfig()})
	mustSucceed(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: "test.db"})
}

// TestLifecycleOrdering verifies the not-initialized / not-open error
// states around the open lifecycle.
func TestLifecycleOrdering(t *testing.T) {
	peer := startExecutor(t, Options{})

	mustFail(t, peer, protocol.Request{ID: 1, Kind: protocol.KindOpen, Filename: "x.db"}, protocol.MsgNotInitialized)
	mustFail(t, peer, protocol.Request{ID: 2, Kind: protocol.KindQuery, SQL: "SELECT 1"}, protocol.MsgNotOpen)
	mustFail(t, peer, protocol.Request{ID: 3, Kind: protocol.KindClose}, protocol.MsgNotOpen)
	mustFail(t, peer, protocol.Request{ID: 4, Kind: protocol.KindInitialize}, "requires a configuration")

	mustSucceed(t, peer, protocol.Request{ID: 5, Kind: protocol.KindInitialize, Config: memoryConfig()})
	mustSucceed(t, peer, protocol.Request{ID: 6, Kind: protocol.KindOpen, Filename: "x.db"})

	// Re-initializing or re-opening a live connection is an error.
	mustFail(t, peer, protocol.Request{ID: 7, Kind: protocol.KindInitialize, Config: memoryConfig()}, protocol.MsgAlreadyOpen)
	mustFail(t, peer, protocol.Request{ID: 8, Kind: protocol.KindOpen, Filename: "y.db"}, protocol.MsgAlreadyOpen)

	mustSucceed(t, peer, protocol.Request{ID: 9, Kind: protocol.KindClose})
	mustFail(t, peer, protocol.Request{ID: 10, Kind: protocol.KindQuery, SQL: "SELECT 1"}, protocol.MsgNotOpen)
}

// TestDataOperations verifies execute, query and run against the engine.
func TestDataOperations(t *testing.T) {
	peer := startExecutor(t, Options{})
	openMemory(t, peer)

	mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindExecute,
		SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"})
	mustSucceed(t, peer, protocol.Request{ID: 4, Kind: protocol.KindExecute,
		SQL: "INSERT INTO t (v) VALUES (?), (?)", Params: []any{"a", "b"}})

	res := mustSucceed(t, peer, protocol.Request{ID: 5, Kind: protocol.KindQuery,
		SQL: "SELECT id, v FROM t ORDER BY id"})
	rows, err := protocol.Rows(res.Results)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 2 || rows[0]["v"] != "a" || rows[1]["v"] != "b" {
		t.Errorf("query rows = %v, want a then b", rows)
	}

	res = mustSucceed(t, peer, protocol.Request{ID: 6, Kind: protocol.KindRun,
		SQL: "INSERT INTO t (v) VALUES (?)", Params: []any{"c"}})
	meta, err := protocol.Meta(res.Results)
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.Changes != 1 || meta.LastInsertRowID == nil || *meta.LastInsertRowID != 3 {
		t.Errorf("run meta = %+v, want changes 1 id 3", meta)
	}

	res = mustSucceed(t, peer, protocol.Request{ID: 7, Kind: protocol.KindRun,
		SQL: "DELETE FROM t WHERE id = 999"})
	meta, err = protocol.Meta(res.Results)
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.Changes != 0 || meta.LastInsertRowID != nil {
		t.Errorf("run meta = %+v, want zero changes and absent id", meta)
	}

	// Engine errors pass through with their message.
	mustFail(t, peer, protocol.Request{ID: 8, Kind: protocol.KindQuery, SQL: "SELECT * FROM missing"}, "missing")
}

// TestPipelinedRequests verifies back-to-back requests resolve in send
// order, each with its own result.
func TestPipelinedRequests(t *testing.T) {
	peer := startExecutor(t, Options{})
	openMemory(t, peer)

	first := protocol.Request{ID: 10, Kind: protocol.KindQuery, SQL: "SELECT 1"}
	second := protocol.Request{ID: 11, Kind: protocol.KindQuery, SQL: "SELECT 2"}
	if err := peer.Send(first); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := peer.Send(second); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	resA := recvResponse(t, peer)
	resB := recvResponse(t, peer)
	if resA.ID != 10 || resB.ID != 11 {
		t.Fatalf("response order = %d, %d, want 10, 11", resA.ID, resB.ID)
	}
	rowsA, _ := protocol.Rows(resA.Results)
	rowsB, _ := protocol.Rows(resB.Results)
	if rowsA[0]["1"] != int64(1) || rowsB[0]["2"] != int64(2) {
		t.Errorf("pipelined results swapped: %v / %v", rowsA, rowsB)
	}
}

// TestExportImport verifies snapshot support on the file backend and the
// explicit unsupported error on the memory backend.
func TestExportImport(t *testing.T) {
	t.Run("memory backend is unsupported", func(t *testing.T) {
		peer := startExecutor(t, Options{})
		openMemory(t, peer)
		mustFail(t, peer, protocol.Request{ID: 3, Kind: protocol.KindExport}, protocol.MsgUnsupported)
		mustFail(t, peer, protocol.Request{ID: 4, Kind: protocol.KindImport, Filename: "z.db", Data: []byte("x")}, protocol.MsgUnsupported)
	})

	t.Run("file backend round trip", func(t *testing.T) {
		peer := startExecutor(t, Options{})
		dir := t.TempDir()
		path := filepath.Join(dir, "src.db")

		mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize,
			Config: &protocol.EngineConfig{VFS: protocol.VFSConfig{Type: "file"}}})
		mustSucceed(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: path})
		mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindExecute,
			SQL: "CREATE TABLE t (v TEXT)"})
		mustSucceed(t, peer, protocol.Request{ID: 4, Kind: protocol.KindExecute,
			SQL: "INSERT INTO t (v) VALUES ('kept')"})

		res := mustSucceed(t, peer, protocol.Request{ID: 5, Kind: protocol.KindExport})
		blob, err := protocol.Blob(res.Results)
		if err != nil {
			t.Fatalf("Blob() error = %v", err)
		}
		if len(blob) == 0 || !strings.HasPrefix(string(blob), "SQLite format 3") {
			t.Fatalf("export blob does not look like a database (%d bytes)", len(blob))
		}

		// Importing over the open database is rejected; a fresh name works.
		mustFail(t, peer, protocol.Request{ID: 6, Kind: protocol.KindImport, Filename: path, Data: blob},
			"cannot import over")
		copyPath := filepath.Join(dir, "copy.db")
		mustSucceed(t, peer, protocol.Request{ID: 7, Kind: protocol.KindImport, Filename: copyPath, Data: blob})

		// Reopen against the imported copy and check the content survived.
		mustSucceed(t, peer, protocol.Request{ID: 8, Kind: protocol.KindClose})
		mustSucceed(t, peer, protocol.Request{ID: 9, Kind: protocol.KindInitialize,
			Config: &protocol.EngineConfig{VFS: protocol.VFSConfig{Type: "file"}}})
		mustSucceed(t, peer, protocol.Request{ID: 10, Kind: protocol.KindOpen, Filename: copyPath})
		res = mustSucceed(t, peer, protocol.Request{ID: 11, Kind: protocol.KindQuery, SQL: "SELECT v FROM t"})
		rows, err := protocol.Rows(res.Results)
		if err != nil {
			t.Fatalf("Rows() error = %v", err)
		}
		if len(rows) != 1 || rows[0]["v"] != "kept" {
			t.Errorf("imported content = %v, want [{v: kept}]", rows)
		}
	})
}

// TestDelete verifies delete closes, wipes and resets, and works without
// an open connection.
func TestDelete(t *testing.T) {
	peer := startExecutor(t, Options{})
	path := filepath.Join(t.TempDir(), "doomed.db")

	mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize,
		Config: &protocol.EngineConfig{VFS: protocol.VFSConfig{Type: "file"}}})
	mustSucceed(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: path})
	mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindExecute, SQL: "CREATE TABLE t (v)"})
	mustSucceed(t, peer, protocol.Request{ID: 4, Kind: protocol.KindDelete})

	// State is fully reset afterwards.
	mustFail(t, peer, protocol.Request{ID: 5, Kind: protocol.KindQuery, SQL: "SELECT 1"}, protocol.MsgNotOpen)
	mustFail(t, peer, protocol.Request{ID: 6, Kind: protocol.KindDelete}, protocol.MsgNotInitialized)

	// Delete without an open connection: initialize only, then delete.
	mustSucceed(t, peer, protocol.Request{ID: 7, Kind: protocol.KindInitialize,
		Config: &protocol.EngineConfig{VFS: protocol.VFSConfig{Type: "file"}}})
	mustSucceed(t, peer, protocol.Request{ID: 8, Kind: protocol.KindDelete})
}

// TestPragmaApplication verifies pragmas apply in order at open, and that
// the first failure aborts the open.
func TestPragmaApplication(t *testing.T) {
	t.Run("applied after open", func(t *testing.T) {
		peer := startExecutor(t, Options{})
		path := filepath.Join(t.TempDir(), "p.db")
		cfg := &protocol.EngineConfig{
			VFS: protocol.VFSConfig{Type: "file"},
			Pragmas: []protocol.Pragma{
				{Name: "journal_mode", Value: "WAL"},
				{Name: "foreign_keys", Value: true},
			},
		}
		mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize, Config: cfg})
		mustSucceed(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: path})

		res := mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindQuery, SQL: "PRAGMA journal_mode"})
		rows, _ := protocol.Rows(res.Results)
		if len(rows) != 1 || rows[0]["journal_mode"] != "wal" {
			t.Errorf("journal_mode = %v, want wal", rows)
		}
	})

	t.Run("failure aborts open", func(t *testing.T) {
		peer := startExecutor(t, Options{})
		cfg := &protocol.EngineConfig{
			VFS:     protocol.VFSConfig{Type: "memory"},
			Pragmas: []protocol.Pragma{{Name: "not a name", Value: 1}},
		}
		mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize, Config: cfg})
		mustFail(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: "p.db"}, "invalid pragma name")

		// The connection did not half-open.
		mustFail(t, peer, protocol.Request{ID: 3, Kind: protocol.KindQuery, SQL: "SELECT 1"}, protocol.MsgNotOpen)
	})
}

// TestDecodeJSON verifies the opt-in cell reinterpretation.
func TestDecodeJSON(t *testing.T) {
	run := func(t *testing.T, decode bool) protocol.Row {
		t.Helper()
		peer := startExecutor(t, Options{})
		cfg := memoryConfig()
		cfg.DecodeJSON = decode
		mustSucceed(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize, Config: cfg})
		mustSucceed(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen, Filename: "d.db"})
		mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindExecute,
			SQL: "CREATE TABLE t (doc TEXT, braces TEXT)"})
		mustSucceed(t, peer, protocol.Request{ID: 4, Kind: protocol.KindExecute,
			SQL:    "INSERT INTO t (doc, braces) VALUES (?, ?)",
			Params: []any{`{"a":1}`, "{greeting}"}})
		res := mustSucceed(t, peer, protocol.Request{ID: 5, Kind: protocol.KindQuery, SQL: "SELECT doc, braces FROM t"})
		rows, err := protocol.Rows(res.Results)
		if err != nil || len(rows) != 1 {
			t.Fatalf("Rows() = %v, %v, want one row", rows, err)
		}
		return rows[0]
	}

	t.Run("off by default", func(t *testing.T) {
		row := run(t, false)
		if row["doc"] != `{"a":1}` {
			t.Errorf("doc = %v (%T), want raw string", row["doc"], row["doc"])
		}
	})

	t.Run("opt-in decodes valid json", func(t *testing.T) {
		row := run(t, true)
		doc, ok := row["doc"].(map[string]any)
		if !ok {
			t.Fatalf("doc = %T, want decoded map", row["doc"])
		}
		if doc["a"] != float64(1) {
			t.Errorf("doc = %v, want {a: 1}", doc)
		}
		// Parse failures keep the raw string.
		if row["braces"] != "{greeting}" {
			t.Errorf("braces = %v, want raw string kept", row["braces"])
		}
	})
}

// TestOriginVerification verifies mismatched-origin messages are answered
// with an error and not acted upon.
func TestOriginVerification(t *testing.T) {
	peer := startExecutor(t, Options{Origin: "https://app.example"})

	mustFail(t, peer, protocol.Request{ID: 1, Kind: protocol.KindInitialize,
		Config: memoryConfig(), Origin: "https://evil.example"}, protocol.MsgOriginMismatch)

	// The rejected initialize really was ignored.
	mustFail(t, peer, protocol.Request{ID: 2, Kind: protocol.KindOpen,
		Filename: "x.db", Origin: "https://app.example"}, protocol.MsgNotInitialized)

	// Matching origin and absent origin information are both accepted.
	mustSucceed(t, peer, protocol.Request{ID: 3, Kind: protocol.KindInitialize,
		Config: memoryConfig(), Origin: "https://app.example"})
	mustSucceed(t, peer, protocol.Request{ID: 4, Kind: protocol.KindOpen, Filename: "x.db"})
}

// TestUnknownKind verifies a foreign kind is answered, not ignored.
func TestUnknownKind(t *testing.T) {
	peer := startExecutor(t, Options{})
	mustFail(t, peer, protocol.Request{ID: 1, Kind: "explode"}, "unknown operation kind")
}

// TestIndependentExecutors verifies two executors do not share connection
// state.
func TestIndependentExecutors(t *testing.T) {
	peerA := startExecutor(t, Options{})
	peerB := startExecutor(t, Options{})

	openMemory(t, peerA)
	mustSucceed(t, peerA, protocol.Request{ID: 3, Kind: protocol.KindExecute, SQL: "CREATE TABLE only_a (v)"})

	// B was never initialized, let alone opened.
	mustFail(t, peerB, protocol.Request{ID: 1, Kind: protocol.KindQuery, SQL: "SELECT 1"}, protocol.MsgNotOpen)

	openMemory(t, peerB)
	mustFail(t, peerB, protocol.Request{ID: 3, Kind: protocol.KindQuery, SQL: "SELECT * FROM only_a"}, "only_a")
}
