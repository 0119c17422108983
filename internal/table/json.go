package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type jsonReader struct{}

func (jsonReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Read loads a top-level array of flat objects. Column order follows
// the first object's key order; keys seen only in later objects are
// appended alphabetically. Numbers keep their literal form.
func (jsonReader) Read(path string, opt ReadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var recs []map[string]any
	if err := dec.Decode(&recs); err != nil {
		return nil, &UnreadableInputError{Path: path, Err: err}
	}
	if len(recs) == 0 {
		return New(filepath.Base(path), nil, nil)
	}

	header := firstObjectKeys(data)
	known := make(map[string]bool, len(header))
	for _, k := range header {
		known[k] = true
	}
	var extra []string
	for _, rec := range recs {
		for k := range rec {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	header = append(header, extra...)

	rows := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(header))
		for j, k := range header {
			v, ok := rec[k]
			if !ok || v == nil {
				continue
			}
			row[j] = jsonScalar(v)
		}
		rows[i] = row
	}
	return New(filepath.Base(path), header, rows)
}

// firstObjectKeys token-scans the first object to recover its key
// order, which json.Unmarshal into a map would lose.
func firstObjectKeys(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return nil
	}
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	depth := 0
	for dec.More() || depth > 0 {
		tok, err = dec.Token()
		if err != nil {
			return keys
		}
		switch d := tok.(type) {
		case json.Delim:
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys
				}
				depth--
			}
		case string:
			if depth == 0 {
				keys = append(keys, d)
				// skip the value
				if err := skipValue(dec); err != nil {
					return keys
				}
			}
		}
	}
	return keys
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		depth := 1
		for depth > 0 {
			tok, err = dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}

func jsonScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		// nested structures are kept as compact JSON text
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
}
