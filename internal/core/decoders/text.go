package decoders

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/criskgs/analiza-camion/internal/core"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// toUTF8 returns data as UTF-8 without a byte order mark.
//
// Valid UTF-8 is used as is. Anything else goes through a BOM check, so
// UTF-16 "Unicode text" exports decode correctly, and falls back to
// Windows-1250, the code page of Romanian Windows installs.
func toUTF8(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	t := unicode.BOMOverride(charmap.Windows1250.NewDecoder())
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", fmt.Errorf("encoding error: %w", err)
	}
	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}

// splitLines splits text on any line ending and drops blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodeText reads a plain-text report as free-text fragments, one per
// non-blank line.
func DecodeText(_ string, data []byte) (core.Document, error) {
	text, err := toUTF8(data)
	if err != nil {
		return core.Document{}, err
	}
	return core.Document{Fragments: splitLines(text)}, nil
}
