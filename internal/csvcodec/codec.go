// Package csvcodec converts between inventory records and the CSV text of
// inventario.csv.
//
// Encoding always produces the canonical layout (comma separated, fixed
// header, RFC 4180 quoting). Decoding is tolerant: it detects a semicolon
// delimiter, accepts files with or without a header, and drops rows it cannot
// parse instead of failing. Decode never returns an error.
package csvcodec

import (
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Header is the first line of every encoded file.
const Header = "codigo,quantidade,data_hora_iso"

// headerColumns are compared case-insensitively against the first line.
var headerColumns = [3]string{"codigo", "quantidade", "data_hora_iso"}

const (
	comma     = ','
	semicolon = ';'
	quote     = '"'
	bom       = "\ufeff"
)

// Codec encodes and decodes record sets. The zero value is not usable; call New.
type Codec struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithLocation sets the zone timestamps are written in and the zone used for
// timestamps that carry no offset. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithClock sets the clock used when a timestamp cannot be parsed.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Codec with the given options applied.
func New(opts ...Option) *Codec {
	c := &Codec{loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode renders records as CSV text: the header line followed by one line
// per record in the order given.
func (c *Codec) Encode(records []types.Record) []byte {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(escapeField(r.Code))
		b.WriteByte(comma)
		b.WriteString(strconv.Itoa(r.Quantity))
		b.WriteByte(comma)
		b.WriteString(c.FormatTimestamp(r.Timestamp))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Decode parses CSV text into records. Rows with too few fields, a blank
// code, or an unusable quantity are skipped. When a code repeats, the last
// row's values win and the record keeps the position of the first row.
func (c *Codec) Decode(data []byte) []types.Record {
	text := strings.TrimPrefix(string(data), bom)
	firstLine := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			firstLine = line
			break
		}
	}
	if firstLine == "" {
		return nil
	}
	delim := detectDelimiter(firstLine)
	rows := splitRows(text, delim)

	first := 0
	for first < len(rows) && strings.TrimSpace(rows[first]) == "" {
		first++
	}
	start := first
	if first < len(rows) && isHeader(splitFields(rows[first], delim)) {
		start = first + 1
	}

	var records []types.Record
	index := make(map[string]int)
	for _, row := range rows[start:] {
		if strings.TrimSpace(row) == "" {
			continue
		}
		rec, ok := c.parseRow(row, delim)
		if !ok {
			continue
		}
		if i, seen := index[rec.Code]; seen {
			records[i] = rec
			continue
		}
		index[rec.Code] = len(records)
		records = append(records, rec)
	}
	return records
}

// parseRow converts one data row. ok is false when the row must be skipped.
func (c *Codec) parseRow(row string, delim rune) (types.Record, bool) {
	fields := splitFields(row, delim)
	if len(fields) < 3 {
		return types.Record{}, false
	}

	code := fields[0]
	if strings.TrimSpace(code) == "" {
		return types.Record{}, false
	}
	qty, err := strconv.Atoi(fields[1])
	if err != nil || qty <= 0 {
		return types.Record{}, false
	}

	return types.Record{
		Code:      code,
		Quantity:  qty,
		Timestamp: c.ParseTimestamp(fields[2]),
	}, true
}

// detectDelimiter picks ';' when it outnumbers ',' on the given line.
func detectDelimiter(line string) rune {
	if strings.Count(line, string(semicolon)) > strings.Count(line, string(comma)) {
		return semicolon
	}
	return comma
}

func isHeader(fields []string) bool {
	if len(fields) < len(headerColumns) {
		return false
	}
	for i, col := range headerColumns {
		if !strings.EqualFold(fields[i], col) {
			return false
		}
	}
	return true
}

// splitRows breaks text into rows on line feeds that fall outside quoted
// fields. A trailing carriage return is removed from each row. A malformed
// row ends at its own line feed, so it cannot swallow the rows after it.
func splitRows(text string, delim rune) []string {
	var rows []string
	for text != "" {
		end, ok := rowEnd(text, byte(delim))
		if !ok {
			end = strings.IndexByte(text, '\n')
			if end < 0 {
				end = len(text)
			}
		}
		rows = append(rows, strings.TrimSuffix(text[:end], "\r"))
		if end >= len(text) {
			break
		}
		text = text[end+1:]
	}
	return rows
}

// rowEnd returns the index of the line feed ending the first row of text, or
// len(text) when the row runs to the end. A quote opens a quoted field only
// as the first non-blank character of a field; elsewhere it is literal.
// ok is false when a quoted field is never closed or is followed by anything
// but blanks and a delimiter or line break.
func rowEnd(text string, delim byte) (end int, ok bool) {
	inQuotes, closedQuote, fieldStart := false, false, true
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inQuotes {
			if ch == quote {
				if i+1 < len(text) && text[i+1] == quote {
					i++
					continue
				}
				inQuotes, closedQuote = false, true
			}
			continue
		}
		if closedQuote {
			switch ch {
			case ' ', '\t', '\r':
				continue
			case delim, '\n':
				closedQuote = false
			default:
				return len(text), false
			}
		}
		switch ch {
		case '\n':
			return i, true
		case delim:
			fieldStart = true
		case quote:
			inQuotes = fieldStart
			fieldStart = false
		case ' ', '\t', '\r':
		default:
			fieldStart = false
		}
	}
	return len(text), !inQuotes
}

// splitFields splits a row on delim outside quoted fields and returns the
// trimmed, unquoted fields. Quote handling matches rowEnd.
func splitFields(row string, delim rune) []string {
	d := byte(delim)
	var fields []string
	inQuotes, fieldStart := false, true
	start := 0
	for i := 0; i < len(row); i++ {
		ch := row[i]
		if inQuotes {
			if ch == quote {
				if i+1 < len(row) && row[i+1] == quote {
					i++
					continue
				}
				inQuotes = false
			}
			continue
		}
		switch ch {
		case d:
			fields = append(fields, unquote(row[start:i]))
			start = i + 1
			fieldStart = true
		case quote:
			inQuotes = fieldStart
			fieldStart = false
		case ' ', '\t':
		default:
			fieldStart = false
		}
	}
	return append(fields, unquote(row[start:]))
}

func unquote(field string) string {
	field = strings.TrimSpace(field)
	if len(field) >= 2 && field[0] == quote && field[len(field)-1] == quote {
		return strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)
	}
	return field
}

// escapeField quotes a field when it holds a delimiter, a quote, a line
// break, or surrounding whitespace that the decoder would otherwise trim.
func escapeField(field string) string {
	if strings.ContainsAny(field, ",;\"\n\r") || strings.TrimSpace(field) != field {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
