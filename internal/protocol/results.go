package protocol

import (
	"encoding/json"
	"fmt"
)

// Rows coerces a Response's results into a row sequence.
//
// In-process channels deliver []Row directly; remote channels deliver
// undecoded JSON. Both forms are handled. A nil result is an empty sequence.
func Rows(v any) ([]Row, error) {
	switch rv := v.(type) {
	case nil:
		return nil, nil
	case []Row:
		return rv, nil
	case json.RawMessage:
		var rows []Row
		if err := json.Unmarshal(rv, &rows); err != nil {
			return nil, fmt.Errorf("decoding row results: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unexpected row results type %T", v)
	}
}

// Meta coerces a Response's results into run metadata.
func Meta(v any) (RunMeta, error) {
	switch rv := v.(type) {
	case nil:
		return RunMeta{}, nil
	case *RunMeta:
		if rv == nil {
			return RunMeta{}, nil
		}
		return *rv, nil
	case RunMeta:
		return rv, nil
	case json.RawMessage:
		var meta RunMeta
		if err := json.Unmarshal(rv, &meta); err != nil {
			return RunMeta{}, fmt.Errorf("decoding run metadata: %w", err)
		}
		return meta, nil
	default:
		return RunMeta{}, fmt.Errorf("unexpected run metadata type %T", v)
	}
}

// Blob coerces a Response's results into a binary blob. JSON transports
// carry blobs base64-encoded, which is undone here.
func Blob(v any) ([]byte, error) {
	switch rv := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return rv, nil
	case json.RawMessage:
		var data []byte
		if err := json.Unmarshal(rv, &data); err != nil {
			return nil, fmt.Errorf("decoding blob results: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unexpected blob results type %T", v)
	}
}
