package dump

import (
	"context"
	"fmt"
	"io"

	"github.com/partyzanex/sqldump/pkg/rewrite"
	"github.com/pkg/errors"
)

const separator = "-- --------------------------------------------------------\n\n"

// Describer returns the native DDL of a relation.
type Describer interface {
	ShowCreate(ctx context.Context, name string) (*Structure, error)
}

// PendingViews collects rendered view DDL until every table has been
// written, since views may reference tables created later in the dump.
type PendingViews struct {
	texts []string
}

func (v *PendingViews) Add(text string) {
	v.texts = append(v.texts, text)
}

func (v *PendingViews) Len() int {
	return len(v.texts)
}

// WriteTo writes the collected views in discovery order.
func (v *PendingViews) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, text := range v.texts {
		n, err := io.WriteString(w, text)
		total += int64(n)

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// StructureExtractor writes the structure block of one relation.
type StructureExtractor struct {
	Conn         Describer
	AddDropTable bool

	// Prefix renames the table in every emitted line, nil keeps names.
	Prefix           *rewrite.Prefix
	StripConstraints bool
}

// Extract writes the structure of a table to w and reports true.
// For a view nothing is written, the rendered block is added to views and
// false is returned.
func (e *StructureExtractor) Extract(ctx context.Context, w io.Writer, views *PendingViews, name string) (bool, error) {
	structure, err := e.Conn.ShowCreate(ctx, name)
	if err != nil {
		return false, &QueryError{Table: name, Query: "SHOW CREATE TABLE " + QuoteName(name), Err: err}
	}

	if structure.IsView() {
		views.Add(fmt.Sprintf("%s--\n-- Table structure for view %s\n--\n\n%s;\n\n",
			separator, QuoteName(name), structure.SQL,
		))

		return false, nil
	}

	if structure.SQL == "" {
		return false, &QueryError{Table: name, Err: errors.New("empty CREATE TABLE statement")}
	}

	var (
		target = e.Prefix.TableName(name)
		create = e.Prefix.CreateTable(structure.SQL)
	)

	if e.StripConstraints {
		create = rewrite.StripConstraints(create)
	}

	_, err = fmt.Fprintf(w, "%s--\n-- Table structure for table %s\n--\n\n", separator, QuoteName(target))
	if err != nil {
		return false, err
	}

	if e.AddDropTable {
		_, err = fmt.Fprintf(w, "DROP TABLE IF EXISTS %s;\n\n", QuoteName(target))
		if err != nil {
			return false, err
		}
	}

	_, err = fmt.Fprintf(w, "%s;\n\n", create)
	if err != nil {
		return false, err
	}

	return true, nil
}
