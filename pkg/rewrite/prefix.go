// Package rewrite renames prefixed tables inside dump statements.
//
// The rewrites are textual. A table name is only touched right after the
// keywords that introduce it at the start of a statement (CREATE TABLE,
// INSERT INTO, DROP TABLE IF EXISTS) or after REFERENCES inside a CREATE
// TABLE body, so row data that happens to contain a prefixed name stays
// intact.
package rewrite

import (
	"regexp"
	"strings"
)

// Prefix replaces the Old table prefix by New.
// A nil *Prefix leaves everything unchanged.
type Prefix struct {
	Old string
	New string

	createTable *regexp.Regexp
	insertInto  *regexp.Regexp
	dropTable   *regexp.Regexp
	references  *regexp.Regexp
	replacement string
}

// NewPrefix returns nil when oldPrefix and newPrefix are equal.
func NewPrefix(oldPrefix, newPrefix string) *Prefix {
	if oldPrefix == newPrefix {
		return nil
	}

	name := "`" + regexp.QuoteMeta(oldPrefix) + "([^`]*)`"

	return &Prefix{
		Old:         oldPrefix,
		New:         newPrefix,
		createTable: regexp.MustCompile(`^(\s*(?i:CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?))` + name),
		insertInto:  regexp.MustCompile(`^(\s*(?i:INSERT\s+INTO\s+))` + name),
		dropTable:   regexp.MustCompile(`^(\s*(?i:DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?))` + name),
		references:  regexp.MustCompile(`((?i:\bREFERENCES\s+))` + name),
		replacement: "${1}`" + strings.ReplaceAll(newPrefix, "$", "$$") + "${2}`",
	}
}

// TableName renames a bare table name.
func (p *Prefix) TableName(name string) string {
	if p == nil || !strings.HasPrefix(name, p.Old) {
		return name
	}

	return p.New + name[len(p.Old):]
}

// CreateTable renames the table created by a CREATE TABLE statement and
// the prefixed tables its foreign keys reference, whatever the name of the
// created table.
func (p *Prefix) CreateTable(stmt string) string {
	if p == nil || !createTableStmt.MatchString(stmt) {
		return stmt
	}

	stmt = p.createTable.ReplaceAllString(stmt, p.replacement)

	return p.references.ReplaceAllString(stmt, p.replacement)
}

// InsertInto renames the target table of an INSERT INTO statement.
func (p *Prefix) InsertInto(stmt string) string {
	if p == nil {
		return stmt
	}

	return p.insertInto.ReplaceAllString(stmt, p.replacement)
}

// DropTable renames the table of a DROP TABLE statement.
func (p *Prefix) DropTable(stmt string) string {
	if p == nil {
		return stmt
	}

	return p.dropTable.ReplaceAllString(stmt, p.replacement)
}

// Statement applies whichever rewrite matches stmt.
func (p *Prefix) Statement(stmt string) string {
	if p == nil {
		return stmt
	}

	switch {
	case p.insertInto.MatchString(stmt):
		return p.InsertInto(stmt)
	case createTableStmt.MatchString(stmt):
		return p.CreateTable(stmt)
	case p.dropTable.MatchString(stmt):
		return p.DropTable(stmt)
	}

	return stmt
}
