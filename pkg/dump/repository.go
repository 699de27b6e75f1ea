package dump

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null"
)

// Repository is the MySQL Connection. The *sql.DB should be limited to a
// single open connection so session state (sql_mode, locks) is shared by
// every query of a run.
type Repository struct {
	db *sqlx.DB

	noBackslashEscapes bool
}

func New(db *sql.DB) *Repository {
	return &Repository{
		db: sqlx.NewDb(db, "mysql"),
	}
}

// Ping checks that the server is reachable.
func (repo *Repository) Ping(ctx context.Context) error {
	err := repo.db.PingContext(ctx)
	if err != nil {
		return &ConnectionError{Err: err}
	}

	return nil
}

// LoadSQLMode reads the session sql_mode to choose the escaping rules.
func (repo *Repository) LoadSQLMode(ctx context.Context) error {
	var mode string

	err := repo.db.GetContext(ctx, &mode, "SELECT @@SESSION.sql_mode")
	if err != nil {
		return errors.Wrap(err, "unable to get sql_mode")
	}

	repo.noBackslashEscapes = false

	for _, m := range strings.Split(mode, ",") {
		if strings.EqualFold(strings.TrimSpace(m), "NO_BACKSLASH_ESCAPES") {
			repo.noBackslashEscapes = true
		}
	}

	return nil
}

func (repo *Repository) LockTables(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, "FLUSH TABLES WITH READ LOCK")
	return err
}

func (repo *Repository) UnlockTables(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, "UNLOCK TABLES")
	return err
}

type relation struct {
	Name string `db:"tbl_name"`
	Type string `db:"tbl_type"`
}

// ListRelations returns the tables and views of database ordered by name.
func (repo *Repository) ListRelations(ctx context.Context, database string) ([]*Table, error) {
	var relations []relation

	err := repo.db.SelectContext(ctx, &relations,
		"SELECT TABLE_NAME AS tbl_name, TABLE_TYPE AS tbl_type "+
			"FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME",
		database,
	)
	if err != nil {
		return nil, err
	}

	tables := make([]*Table, 0, len(relations))

	for _, r := range relations {
		tableType := BaseTable
		if r.Type == View {
			tableType = View
		}

		tables = append(tables, &Table{
			Name: r.Name,
			Type: tableType,
		})
	}

	return tables, nil
}

// ShowCreate returns the CREATE TABLE or CREATE VIEW statement of name.
// The kind is taken from the column the server answers with.
func (repo *Repository) ShowCreate(ctx context.Context, name string) (*Structure, error) {
	rows, err := repo.db.QueryContext(ctx, "SHOW CREATE TABLE "+QuoteName(name))
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if len(columns) < 2 {
		return nil, errors.Errorf("unexpected SHOW CREATE result for %s: %v", name, columns)
	}

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}

		return nil, errors.Errorf("no DDL for relation %s", name)
	}

	values := make([]sql.NullString, len(columns))
	args := make([]interface{}, len(columns))

	for i := range values {
		args[i] = &values[i]
	}

	err = rows.Scan(args...)
	if err != nil {
		return nil, err
	}

	structure := &Structure{
		Name: values[0].String,
		SQL:  values[1].String,
	}

	switch columns[1] {
	case "Create Table":
		structure.Type = BaseTable
	case "Create View":
		structure.Type = View
	default:
		return nil, errors.Errorf("unknown SHOW CREATE column %q for %s", columns[1], name)
	}

	return structure, nil
}

// Query runs query and returns its rows as raw nullable bytes.
func (repo *Repository) Query(ctx context.Context, query string) (Rows, error) {
	rs, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	types, err := rs.ColumnTypes()
	if err != nil {
		_ = rs.Close()
		return nil, errors.Wrap(err, "unable to get column types")
	}

	r := &rows{
		rows:    rs,
		columns: make([]Column, len(types)),
		raw:     make([]sql.RawBytes, len(types)),
		args:    make([]interface{}, len(types)),
		values:  make([]null.Bytes, len(types)),
	}

	for i, t := range types {
		r.columns[i] = Column{Name: t.Name(), Type: t.DatabaseTypeName()}
		r.args[i] = &r.raw[i]
	}

	return r, nil
}

// Escape escapes value according to the loaded sql_mode.
func (repo *Repository) Escape(value []byte) []byte {
	if repo.noBackslashEscapes {
		return EscapeNoBackslash(value)
	}

	return Escape(value)
}

func (repo *Repository) Execute(ctx context.Context, query string) error {
	_, err := repo.db.ExecContext(ctx, query)
	return err
}

// TruncateDatabase drops every view and table of database.
func (repo *Repository) TruncateDatabase(ctx context.Context, database string) error {
	relations, err := repo.ListRelations(ctx, database)
	if err != nil {
		return errors.Wrap(err, "unable to list relations")
	}

	conn, err := repo.db.Conn(ctx)
	if err != nil {
		return &ConnectionError{Err: err}
	}

	defer conn.Close()

	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	if err != nil {
		return errors.Wrap(err, "unable to disable foreign key checks")
	}

	for _, view := range relations {
		if !view.IsView() {
			continue
		}

		_, err = conn.ExecContext(ctx, "DROP VIEW IF EXISTS "+QuoteName(view.Name))
		if err != nil {
			return errors.Wrapf(err, "unable to drop view %s", view.Name)
		}
	}

	for _, table := range relations {
		if table.IsView() {
			continue
		}

		_, err = conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteName(table.Name))
		if err != nil {
			return errors.Wrapf(err, "unable to drop table %s", table.Name)
		}
	}

	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	if err != nil {
		return errors.Wrap(err, "unable to enable foreign key checks")
	}

	return nil
}

type rows struct {
	rows    *sql.Rows
	columns []Column
	raw     []sql.RawBytes
	args    []interface{}
	values  []null.Bytes
}

func (r *rows) Columns() []Column {
	return r.columns
}

func (r *rows) Next() bool {
	return r.rows.Next()
}

func (r *rows) Values() ([]null.Bytes, error) {
	err := r.rows.Scan(r.args...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to scan row")
	}

	for i, col := range r.raw {
		r.values[i] = null.NewBytes(col, col != nil)
	}

	return r.values, nil
}

func (r *rows) Err() error {
	return r.rows.Err()
}

func (r *rows) Close() error {
	return r.rows.Close()
}
