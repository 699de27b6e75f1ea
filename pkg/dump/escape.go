package dump

import (
	"strings"

	"github.com/volatiletech/null"
)

const (
	Zero        byte = 0
	NewString   byte = '\n'
	NewPage     byte = '\r'
	Esc         byte = '\\'
	Quote       byte = '\''
	DoubleQuote byte = '"'
	Z           byte = '\032'

	ZeroEsc        byte = '0'
	NewStringEsc   byte = 'n'
	NewPageEsc     byte = 'r'
	EscEsc         byte = '\\'
	QuoteEsc       byte = '\''
	DoubleQuoteEsc byte = '"'
	ZEsc           byte = 'Z'

	nullLiteral = "NULL"
)

// Escape escapes raw bytes for a MySQL string literal using backslash
// sequences, the way mysql_real_escape_string does for single-byte safe
// charsets.
func Escape(sql []byte) []byte {
	var (
		n    = len(sql)
		dest = make([]byte, 0, 2*n)
		esc  byte
	)

	for i := 0; i < n; i++ {
		esc = 0

		switch sql[i] {
		case Zero: /* Must be escaped for 'mysql' */
			esc = ZeroEsc
		case NewString: /* Must be escaped for logs */
			esc = NewStringEsc
		case NewPage:
			esc = NewPageEsc
		case Esc:
			esc = EscEsc
		case Quote:
			esc = QuoteEsc
		case DoubleQuote: /* Better safe than sorry */
			esc = DoubleQuoteEsc
		case Z: /* This gives problems on Win32 */
			esc = ZEsc
		}

		if esc != 0 {
			dest = append(dest, '\\', esc)
		} else {
			dest = append(dest, sql[i])
		}
	}

	return dest
}

// EscapeNoBackslash escapes for servers running with NO_BACKSLASH_ESCAPES,
// where the only special character inside a literal is the quote itself.
func EscapeNoBackslash(sql []byte) []byte {
	dest := make([]byte, 0, len(sql)+8)

	for _, c := range sql {
		if c == Quote {
			dest = append(dest, Quote)
		}

		dest = append(dest, c)
	}

	return dest
}

// Escaper escapes a raw value for use inside a quoted literal.
type Escaper interface {
	Escape(value []byte) []byte
}

// EscaperFunc adapts a function to Escaper.
type EscaperFunc func(value []byte) []byte

func (fn EscaperFunc) Escape(value []byte) []byte {
	return fn(value)
}

// RowEscaper renders column values as SQL literals.
type RowEscaper struct {
	// Escaper is usually the connection. Escape is used when nil.
	Escaper Escaper
}

// Render returns NULL for invalid values, the raw text for numeric
// columns and an escaped, single-quoted literal otherwise.
func (e RowEscaper) Render(column Column, value null.Bytes) string {
	if !value.Valid {
		return nullLiteral
	}

	if column.IsNumeric() && len(value.Bytes) > 0 {
		return string(value.Bytes)
	}

	var escaped []byte
	if e.Escaper != nil {
		escaped = e.Escaper.Escape(value.Bytes)
	} else {
		escaped = Escape(value.Bytes)
	}

	var b strings.Builder

	b.Grow(len(escaped) + 2)
	b.WriteByte(Quote)
	b.Write(escaped)
	b.WriteByte(Quote)

	return b.String()
}

// RenderRow renders every value of a row. Columns missing from columns
// are treated as non-numeric.
func (e RowEscaper) RenderRow(columns []Column, values []null.Bytes) []string {
	literals := make([]string, len(values))

	for i, value := range values {
		var column Column
		if i < len(columns) {
			column = columns[i]
		}

		literals[i] = e.Render(column, value)
	}

	return literals
}
