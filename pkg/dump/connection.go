package dump

import (
	"context"
	"strings"

	"github.com/volatiletech/null"
)

// Connection is everything a dump run needs from the database.
type Connection interface {
	ListRelations(ctx context.Context, database string) ([]*Table, error)
	ShowCreate(ctx context.Context, name string) (*Structure, error)
	Query(ctx context.Context, query string) (Rows, error)
	Escape(value []byte) []byte
	Execute(ctx context.Context, query string) error
}

// Locker is implemented by connections able to hold a global read lock.
type Locker interface {
	LockTables(ctx context.Context) error
	UnlockTables(ctx context.Context) error
}

// Structure is the native "show create" result for one relation.
type Structure struct {
	Name string
	Type string
	SQL  string
}

func (s Structure) IsView() bool {
	return s.Type == View
}

// Rows iterates over a query result.
// Values returned by Values are only valid until the next call to Next.
type Rows interface {
	Columns() []Column
	Next() bool
	Values() ([]null.Bytes, error)
	Err() error
	Close() error
}

// Column describes one result column.
type Column struct {
	Name string
	Type string
}

var numericTypes = map[string]struct{}{
	"INTEGER": {}, "BIGINT": {}, "TINYINT": {}, "SMALLINT": {}, "MEDIUMINT": {},
	"INT": {}, "INT1": {}, "INT2": {}, "INT3": {}, "INT8": {},
	"FLOAT": {}, "REAL": {}, "DOUBLE": {}, "DOUBLE PRECISION": {},
	"DECIMAL": {}, "NUMERIC": {}, "FIXED": {},
	"BOOL": {}, "BOOLEAN": {},
}

// IsNumeric reports whether values of the column can be written unquoted.
func (c Column) IsNumeric() bool {
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	t = strings.TrimPrefix(t, "UNSIGNED ")

	_, ok := numericTypes[t]

	return ok
}
