package table

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText decodes raw file bytes through the encoding ladder:
// UTF-8, then Windows-1252, then ISO-8859-1. Windows-1252 leaves five
// code points undefined, so a decode that produces replacement runes
// falls through; ISO-8859-1 accepts every byte, making the ladder
// total.
func decodeText(data []byte) (text string, encoding string) {
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		s := string(out)
		if !strings.ContainsRune(s, utf8.RuneError) {
			return s, "windows-1252"
		}
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out), "iso-8859-1"
}
