// Package restore replays SQL dumps produced by the dump package.
package restore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var terminator = regexp.MustCompile(`;\s*$`)

// MalformedDumpError reports a statement that could not be replayed,
// either because the input ended before its terminator or because the
// database rejected it.
type MalformedDumpError struct {
	Statement string
	// Line is the input line the statement starts on.
	Line int
	Err  error
}

func (e *MalformedDumpError) Error() string {
	stmt := e.Statement
	if len(stmt) > 200 {
		stmt = stmt[:200] + "..."
	}

	return fmt.Sprintf("malformed dump at line %d: %s: %q", e.Line, e.Err, stmt)
}

func (e *MalformedDumpError) Cause() error  { return e.Err }
func (e *MalformedDumpError) Unwrap() error { return e.Err }

// ErrUnterminated is the cause of a MalformedDumpError raised at end of
// input.
var ErrUnterminated = errors.New("unterminated statement at end of input")

// Reassembler reads a dump line by line and returns complete statements.
// A statement ends on a line whose last non-space character is ';'.
// Dumps written by the dump package never break a literal across lines,
// hand edited dumps with multi-line literals may be split wrongly.
type Reassembler struct {
	r    *bufio.Reader
	buf  bytes.Buffer
	line int
	from int
}

func NewReassembler(r io.Reader) *Reassembler {
	return &Reassembler{
		r: bufio.NewReaderSize(r, 1<<20),
	}
}

// Next returns the next statement verbatim, terminator included.
// It returns io.EOF once the input is exhausted and a *MalformedDumpError
// when the input ends inside a statement.
func (ra *Reassembler) Next() (string, error) {
	for {
		line, err := ra.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", errors.Wrapf(err, "reading line %d failed", ra.line+1)
		}

		if len(line) > 0 {
			ra.line++

			if ra.buf.Len() > 0 || !skippable(line) {
				if ra.buf.Len() == 0 {
					ra.from = ra.line
				}

				ra.buf.WriteString(line)

				if terminator.MatchString(line) {
					stmt := ra.buf.String()
					ra.buf.Reset()

					return stmt, nil
				}
			}
		}

		if err == io.EOF {
			if ra.buf.Len() > 0 {
				return "", &MalformedDumpError{
					Statement: ra.buf.String(),
					Line:      ra.from,
					Err:       ErrUnterminated,
				}
			}

			return "", io.EOF
		}
	}
}

// skippable reports blank and comment lines found between statements.
func skippable(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" || strings.HasPrefix(trimmed, "-- ") || trimmed == "--"
}
