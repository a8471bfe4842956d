package decoders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/criskgs/analiza-camion/internal/core"
)

var errNoRecords = errors.New("no array of records found")

// wrapperKeys are tried in order when the records sit inside an object.
var wrapperKeys = []string{"rows", "records", "data", "items", "vehicles"}

// DecodeJSON reads an array of flat objects, either at the top level or
// under a field of a wrapping object ({"rows": [...]}). Field order is taken
// from the objects as written.
func DecodeJSON(_ string, data []byte) (core.Document, error) {
	text, err := toUTF8(data)
	if err != nil {
		return core.Document{}, err
	}

	items, err := recordArray([]byte(text))
	if err != nil {
		return core.Document{}, err
	}

	doc := core.Document{}
	seen := make(map[string]bool)
	for i, item := range items {
		rec, keys, err := readObject(item)
		if err != nil {
			return core.Document{}, fmt.Errorf("record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				doc.Fields = append(doc.Fields, k)
			}
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

func recordArray(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	for _, k := range wrapperKeys {
		if raw, ok := obj[k]; ok {
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := json.Unmarshal(obj[k], &items); err == nil {
			return items, nil
		}
	}
	return nil, errNoRecords
}

// readObject reads one flat object, returning its keys in source order.
// Nested values are kept as their JSON text.
func readObject(raw json.RawMessage) (core.RawRecord, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("parse json: %w", err)
	}
	if tok != json.Delim('{') {
		return nil, nil, fmt.Errorf("parse json: expected object, got %v", tok)
	}

	rec := core.RawRecord{}
	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parse json: %w", err)
		}
		key, _ := keyTok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, fmt.Errorf("parse json field %q: %w", key, err)
		}
		rec[key] = scalarValue(val)
		keys = append(keys, key)
	}
	return rec, keys, nil
}

func scalarValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch v.(type) {
	case nil, string, float64, bool:
		return v
	default:
		return string(raw)
	}
}
