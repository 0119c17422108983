package table

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// Read loads one worksheet (first by default, or opt.Sheet by name).
// The first row is the header; sparse cells pad to null.
func (xlsxReader) Read(path string, opt ReadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &UnreadableInputError{Path: path, Err: err}
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))

	target := ""
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.Sheet) {
				target = normalizeSheetPath(rels[s.RID])
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return nil, &UnreadableInputError{Path: path,
				Err: fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(names, ", "))}
		}
	} else if len(sheets) > 0 {
		target = normalizeSheetPath(rels[sheets[0].RID])
	}
	if target == "" {
		target = "xl/worksheets/sheet1.xml"
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, &UnreadableInputError{Path: path, Err: fmt.Errorf("worksheet %s missing", target)}
	}

	var header []string
	var rows [][]string
	rr := newSheetRowReader(sheetXML, shared)
	for {
		rec, ok := rr.Next()
		if !ok {
			break
		}
		if header == nil {
			header = rec
			continue
		}
		rows = append(rows, rec)
	}
	if rr.err != nil && header == nil {
		return nil, &UnreadableInputError{Path: path, Err: rr.err}
	}
	return New(filepath.Base(path), header, rows)
}

type wbSheet struct {
	Name string
	RID  string
}

func parseWorkbook(data []byte) []wbSheet {
	if data == nil {
		return nil
	}
	var doc struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	out := make([]wbSheet, len(doc.Sheets))
	for i, s := range doc.Sheets {
		out[i] = wbSheet{Name: s.Name, RID: s.RID}
	}
	return out
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if data == nil {
		return out
	}
	var doc struct {
		Rels []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return out
	}
	for _, r := range doc.Rels {
		out[r.ID] = r.Target
	}
	return out
}

func parseSharedStrings(data []byte) []string {
	if data == nil {
		return nil
	}
	var doc struct {
		SI []struct {
			T    string   `xml:"t"`
			Runs []string `xml:"r>t"`
		} `xml:"si"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	out := make([]string, len(doc.SI))
	for i, si := range doc.SI {
		if len(si.Runs) > 0 {
			out[i] = strings.Join(si.Runs, "")
		} else {
			out[i] = si.T
		}
	}
	return out
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				return nil
			}
			return b
		}
	}
	return nil
}

func normalizeSheetPath(rel string) string {
	if rel == "" {
		return ""
	}
	rel = strings.TrimPrefix(rel, "/")
	if !strings.HasPrefix(rel, "xl/") {
		rel = "xl/" + rel
	}
	return rel
}

// sheetRowReader streams <row> elements, resolving shared strings and
// sparse cell references into dense records.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return nil, false
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		return r.readRow(se)
	}
}

func (r *sheetRowReader) readRow(row xml.StartElement) ([]string, bool) {
	var cells []string
	col := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.err = err
			return cells, len(cells) > 0
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "c" {
				continue
			}
			ref, typ := "", ""
			for _, a := range el.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			if idx := colIndexFromRef(ref); idx >= 0 {
				col = idx
			}
			for col >= len(cells) {
				cells = append(cells, "")
			}
			cells[col] = r.readCellValue(typ)
			col++
		case xml.EndElement:
			if el.Name.Local == "row" {
				return cells, true
			}
		}
	}
}

func (r *sheetRowReader) readCellValue(typ string) string {
	var value string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.err = err
			return value
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "v", "t":
				var s string
				if err := r.dec.DecodeElement(&s, &el); err != nil {
					r.err = err
					return value
				}
				if el.Name.Local == "v" && typ == "s" {
					if i := atoiSafe(s); i >= 0 && i < len(r.shared) {
						s = r.shared[i]
					}
				}
				value += s
			}
		case xml.EndElement:
			if el.Name.Local == "c" {
				return value
			}
		}
	}
}

// colIndexFromRef converts a cell reference like "C7" to a zero-based
// column index; -1 when the reference is absent or malformed.
func colIndexFromRef(ref string) int {
	if ref == "" {
		return -1
	}
	idx := 0
	seen := false
	for _, ch := range ref {
		if ch >= 'A' && ch <= 'Z' {
			idx = idx*26 + int(ch-'A') + 1
			seen = true
		} else if ch >= 'a' && ch <= 'z' {
			idx = idx*26 + int(ch-'a') + 1
			seen = true
		} else {
			break
		}
	}
	if !seen {
		return -1
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return -1
		}
		n = n*10 + int(ch-'0')
	}
	if s == "" {
		return -1
	}
	return n
}
