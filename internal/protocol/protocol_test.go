package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

// TestKindValid verifies the closed operation-kind set.
func TestKindValid(t *testing.T) {
	valid := []Kind{
		KindInitialize, KindOpen, KindClose, KindExecute, KindQuery,
		KindRun, KindExport, KindImport, KindDelete,
	}
	for _, k := range valid {
		if !k.Valid() {
			t.Errorf("Valid() = false for %q, want true", k)
		}
	}
	for _, k := range []Kind{"", "vacuum", "QUERY"} {
		if k.Valid() {
			t.Errorf("Valid() = true for %q, want false", k)
		}
	}
}

// TestRequestWireFormat verifies the JSON schema a compatible peer must
// honour.
func TestRequestWireFormat(t *testing.T) {
	req := Request{
		ID:       7,
		Kind:     KindImport,
		Filename: "/session.db",
		Data:     []byte{0x01, 0x02},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Request
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ID != 7 || decoded.Kind != KindImport {
		t.Errorf("round trip = %+v, want id 7 kind import", decoded)
	}
	if !bytes.Equal(decoded.Data, req.Data) {
		t.Errorf("Data round trip = %v, want %v", decoded.Data, req.Data)
	}

	// Unpopulated payload fields must stay off the wire.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, field := range []string{"sql", "params", "config"} {
		if _, ok := raw[field]; ok {
			t.Errorf("field %q present on wire, want omitted", field)
		}
	}
}

// TestRows verifies coercion from both in-process and wire forms.
func TestRows(t *testing.T) {
	t.Run("in-process", func(t *testing.T) {
		in := []Row{{"a": int64(1)}, {"a": int64(2)}}
		rows, err := Rows(in)
		if err != nil {
			t.Fatalf("Rows() error = %v", err)
		}
		if len(rows) != 2 || rows[0]["a"] != int64(1) {
			t.Errorf("Rows() = %v, want %v", rows, in)
		}
	})

	t.Run("raw json", func(t *testing.T) {
		rows, err := Rows(json.RawMessage(`[{"a":1},{"a":2}]`))
		if err != nil {
			t.Fatalf("Rows() error = %v", err)
		}
		if len(rows) != 2 || rows[1]["a"] != float64(2) {
			t.Errorf("Rows() = %v, want two rows with a=2", rows)
		}
	})

	t.Run("nil is empty", func(t *testing.T) {
		rows, err := Rows(nil)
		if err != nil || rows != nil {
			t.Errorf("Rows(nil) = %v, %v, want nil, nil", rows, err)
		}
	})

	t.Run("unexpected type", func(t *testing.T) {
		if _, err := Rows(42); err == nil {
			t.Error("Rows(42) error = nil, want error")
		}
	})
}

// TestMeta verifies run metadata coercion, including absence of the insert
// id when nothing changed.
func TestMeta(t *testing.T) {
	t.Run("in-process", func(t *testing.T) {
		id := int64(12)
		meta, err := Meta(&RunMeta{LastInsertRowID: &id, Changes: 1})
		if err != nil {
			t.Fatalf("Meta() error = %v", err)
		}
		if meta.Changes != 1 || meta.LastInsertRowID == nil || *meta.LastInsertRowID != 12 {
			t.Errorf("Meta() = %+v, want changes 1 id 12", meta)
		}
	})

	t.Run("raw json without insert id", func(t *testing.T) {
		meta, err := Meta(json.RawMessage(`{"changes":0}`))
		if err != nil {
			t.Fatalf("Meta() error = %v", err)
		}
		if meta.Changes != 0 || meta.LastInsertRowID != nil {
			t.Errorf("Meta() = %+v, want zero changes and absent id", meta)
		}
	})
}

// TestBlob verifies binary results survive the wire's base64 encoding.
func TestBlob(t *testing.T) {
	payload := []byte("SQLite format 3\x00")

	direct, err := Blob(payload)
	if err != nil || !bytes.Equal(direct, payload) {
		t.Fatalf("Blob() = %v, %v, want payload back", direct, err)
	}

	wire, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := Blob(json.RawMessage(wire))
	if err != nil {
		t.Fatalf("Blob() error = %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("Blob() = %v, want %v", decoded, payload)
	}
}

// TestResponseHelpers verifies the response constructors.
func TestResponseHelpers(t *testing.T) {
	res := ErrorResponse(3, errors.New("boom"))
	if res.ID != 3 || res.Status != StatusError || res.Error != "boom" {
		t.Errorf("ErrorResponse() = %+v", res)
	}

	res = SuccessResponse(4, "x")
	if res.ID != 4 || res.Status != StatusSuccess || res.Results != "x" {
		t.Errorf("SuccessResponse() = %+v", res)
	}

	res = ReadyResponse()
	if res.ID != 0 || res.Status != StatusReady {
		t.Errorf("ReadyResponse() = %+v", res)
	}
}
