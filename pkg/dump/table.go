package dump

import "strings"

const (
	BaseTable = "BASE TABLE"
	View      = "VIEW"
)

// Table is a relation reported by the database.
type Table struct {
	Name string
	Type string
}

func (table Table) IsView() bool {
	return table.Type == View
}

// ResolveTables returns the relations to export, in the order the database
// enumerated them. Include and exclude lists only filter base tables, views
// are always kept. A name present in both lists is excluded.
func ResolveTables(relations []*Table, settings Settings) []*Table {
	var (
		include = toSet(settings.IncludeTables)
		exclude = toSet(settings.ExcludeTables)
		result  = make([]*Table, 0, len(relations))
	)

	for _, table := range relations {
		if table.IsView() {
			result = append(result, table)
			continue
		}

		if len(include) > 0 {
			if _, ok := include[table.Name]; !ok {
				continue
			}
		}

		if _, ok := exclude[table.Name]; ok {
			continue
		}

		result = append(result, table)
	}

	return result
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))

	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// QuoteName returns name as a backtick-quoted identifier.
func QuoteName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
