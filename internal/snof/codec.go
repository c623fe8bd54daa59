package snof

import (
	"strings"
)

// On-disk layout: one "key: value" field per line, records separated by
// exactly one blank line. The first ": " on a line splits key from value, so
// values may themselves contain colons. There is no escaping; values holding
// newlines or the separator sequence are a known format limitation.
const (
	fieldSeparator  = ": "
	recordSeparator = "\n\n"
)

// Decode parses file contents into records. Lines without the key/value
// separator and fields with empty keys are silently dropped, never rejected;
// callers that rely on a field must check its presence. Empty input and
// blocks containing no valid field yield nothing.
func Decode(data []byte) []Record {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var records []Record
	for _, block := range strings.Split(text, recordSeparator) {
		var rec Record
		for _, line := range strings.Split(block, "\n") {
			key, value, found := strings.Cut(line, fieldSeparator)
			if !found {
				continue
			}
			rec.Set(strings.TrimSpace(key), strings.TrimSpace(value))
		}
		if rec.Len() > 0 {
			records = append(records, rec)
		}
	}
	return records
}

// Encode renders records back to the file format. Absent fields are simply
// not written; present-but-empty values render as "key: " so that presence
// survives a round-trip. Encode(Decode(x)) is value-equal to x for any
// well-formed input.
func Encode(records []Record) []byte {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		lines := make([]string, 0, rec.Len())
		for _, f := range rec.Fields() {
			lines = append(lines, f.Key+fieldSeparator+f.Value)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return []byte(strings.Join(blocks, recordSeparator))
}
