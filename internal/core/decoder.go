package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Document is what a decoder extracts from one file. Exactly one of Grid,
// Records or Fragments is normally set.
type Document struct {
	Grid      [][]string  // row-major cells of the first sheet
	Records   []RawRecord // field/value records
	Fields    []string    // record fields in source column order, if known
	Fragments []string    // unstructured text, in reading order
}

// Empty reports whether the document carries no content at all.
func (d Document) Empty() bool {
	return len(d.Grid) == 0 && len(d.Records) == 0 && len(d.Fragments) == 0
}

// Decoder turns raw file bytes into a Document.
type Decoder interface {
	Decode(name string, data []byte) (Document, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(name string, data []byte) (Document, error)

func (f DecoderFunc) Decode(name string, data []byte) (Document, error) {
	return f(name, data)
}

var (
	decoders   = make(map[string]Decoder)
	decodersMu sync.RWMutex
)

// RegisterDecoder associates a decoder with a file extension (".xlsx").
// Panics if the extension is already registered.
func RegisterDecoder(ext string, d Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()

	ext = normalizeExt(ext)
	if _, exists := decoders[ext]; exists {
		panic(fmt.Sprintf("decoder already registered: %s", ext))
	}
	decoders[ext] = d
}

// DecoderFor returns the decoder registered for the extension of name.
func DecoderFor(name string) (Decoder, error) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()

	ext := normalizeExt(filepath.Ext(name))
	d, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return d, nil
}

// Extensions returns all registered extensions, sorted.
func Extensions() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()

	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ClearDecoders removes all registered decoders.
// Primarily useful for testing.
func ClearDecoders() {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders = make(map[string]Decoder)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DecodeFile picks a decoder by extension and runs it. A panicking decoder
// is reported as a decode failure.
func DecodeFile(name string, data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return Document{}, ErrEmptyFile
	}

	d, err := DecoderFor(name)
	if err != nil {
		return Document{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = fmt.Errorf("%w: %s: panic: %v", ErrDecodeFailed, name, r)
		}
	}()

	doc, err = d.Decode(name, data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, name, err)
	}
	return doc, nil
}
