package dump

import (
	"io"
	"strings"
)

// MaxLineSize is the upper bound in bytes of one INSERT statement,
// terminator included.
const MaxLineSize = 1000000

var (
	openParenthesis  = "("
	closeParenthesis = ")"
	comma            = ","
	eol              = ";\n"
)

// LineBatcher packs rows of one table into INSERT statements.
// With extended insert enabled consecutive rows share a statement until
// it would grow past the size limit.
type LineBatcher struct {
	w        io.Writer
	insert   string
	extended bool
	limit    int

	first bool
	size  int
	rows  uint64
}

// NewLineBatcher returns a batcher writing INSERT statements for table to w.
// The table name is quoted but not otherwise rewritten.
func NewLineBatcher(w io.Writer, table string, extended bool) *LineBatcher {
	return &LineBatcher{
		w:        w,
		insert:   "INSERT INTO " + QuoteName(table) + " VALUES ",
		extended: extended,
		limit:    MaxLineSize,
		first:    true,
	}
}

// WriteRow appends one row of already rendered literals.
func (b *LineBatcher) WriteRow(literals []string) error {
	tuple := openParenthesis + strings.Join(literals, comma) + closeParenthesis

	if !b.first && b.size+len(comma)+len(tuple)+len(eol) > b.limit {
		if err := b.terminate(); err != nil {
			return err
		}
	}

	var chunk string
	if b.first {
		chunk = b.insert + tuple
	} else {
		chunk = comma + tuple
	}

	n, err := io.WriteString(b.w, chunk)
	b.size += n
	if err != nil {
		return err
	}

	b.first = false
	b.rows++

	if !b.extended || b.size+len(eol) > b.limit {
		return b.terminate()
	}

	return nil
}

// Close terminates the open statement, if any.
func (b *LineBatcher) Close() error {
	if b.first {
		return nil
	}

	return b.terminate()
}

// Rows returns the number of rows written so far.
func (b *LineBatcher) Rows() uint64 {
	return b.rows
}

func (b *LineBatcher) terminate() error {
	_, err := io.WriteString(b.w, eol)
	if err != nil {
		return err
	}

	b.first = true
	b.size = 0

	return nil
}
