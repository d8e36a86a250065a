package executor

import "encoding/json"

// decodeRows reinterprets string cells that look like serialized structured
// data. It is a best-effort convenience applied as an isolated step after
// row assembly: a string cell beginning with '{' or '[' that parses as JSON
// is replaced with the parsed value; on parse failure the raw string is
// kept untouched.
//
// The heuristic can misfire on legitimate text that merely begins with one
// of those characters, which is why it is opt-in via the decode_json
// configuration flag and off by default.
func decodeRows(rows []map[string]any) {
	for _, row := range rows {
		for col, v := range row {
			row[col] = maybeDecodeJSON(v)
		}
	}
}

func maybeDecodeJSON(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	if s[0] != '{' && s[0] != '[' {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	return decoded
}
