package rewrite

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	createTableStmt = regexp.MustCompile(`^\s*(?i:CREATE\s+TABLE)\b`)
	foreignKey      = regexp.MustCompile(`^(?i:CONSTRAINT\b[\s\S]*\bFOREIGN\s+KEY\b[\s\S]*\bREFERENCES\b)`)
)

// StripConstraints removes every CONSTRAINT ... FOREIGN KEY ... REFERENCES
// clause from a CREATE TABLE statement. The remaining clauses keep their
// layout and the clause list stays comma balanced. Other statements are
// returned unchanged.
func StripConstraints(stmt string) string {
	if !createTableStmt.MatchString(stmt) {
		return stmt
	}

	open, end := definitionBounds(stmt)
	if open < 0 || end < 0 {
		return stmt
	}

	var (
		body    = stmt[open+1 : end]
		clauses = splitClauses(body)
		kept    = make([]string, 0, len(clauses))
	)

	for _, clause := range clauses {
		if foreignKey.MatchString(strings.TrimSpace(clause)) {
			continue
		}

		kept = append(kept, strings.TrimRightFunc(clause, unicode.IsSpace))
	}

	if len(kept) == len(clauses) || len(kept) == 0 {
		return stmt
	}

	last := clauses[len(clauses)-1]
	tail := last[len(strings.TrimRightFunc(last, unicode.IsSpace)):]

	return stmt[:open+1] + strings.Join(kept, ",") + tail + stmt[end:]
}

// definitionBounds returns the positions of the parentheses enclosing the
// table definition.
func definitionBounds(stmt string) (open, end int) {
	var (
		depth int
		quote byte
	)

	open, end = -1, -1

	for i := 0; i < len(stmt); i++ {
		c := stmt[i]

		if quote != 0 {
			switch {
			case c == '\\' && quote != '`':
				i++
			case c == quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '`', '\'', '"':
			quote = c
		case '(':
			if depth == 0 && open < 0 {
				open = i
			}

			depth++
		case ')':
			depth--

			if depth == 0 && open >= 0 {
				return open, i
			}
		}
	}

	return open, -1
}

// splitClauses splits a definition body on top level commas.
func splitClauses(body string) []string {
	var (
		clauses []string
		depth   int
		quote   byte
		start   int
	)

	for i := 0; i < len(body); i++ {
		c := body[i]

		if quote != 0 {
			switch {
			case c == '\\' && quote != '`':
				i++
			case c == quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '`', '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				clauses = append(clauses, body[start:i])
				start = i + 1
			}
		}
	}

	return append(clauses, body[start:])
}
