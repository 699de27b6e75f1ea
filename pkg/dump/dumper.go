package dump

import (
	"context"
	"fmt"
	"io"
	"time"

	units "github.com/docker/go-units"
	"github.com/partyzanex/sqldump/pkg/rewrite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ToolName = "sqldump"
	ToolURL  = "https://github.com/partyzanex/sqldump"
)

// Dumper exports the schema and data of one database as SQL text.
type Dumper struct {
	Conn     Connection
	Settings Settings

	// Host and Database are written to the dump header. Database is also
	// the schema whose relations are listed.
	Host     string
	Database string

	Verbose bool
	Logger  logrus.FieldLogger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary describes a finished run.
type Summary struct {
	Tables int
	Views  int
	Rows   uint64
	Bytes  int64
	Failed []string
}

// sink counts written bytes and marks write failures as SinkError.
type sink struct {
	w io.Writer
	n int64
}

func (s *sink) Write(b []byte) (int, error) {
	n, err := s.w.Write(b)
	s.n += int64(n)

	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}

	if err != nil {
		return n, &SinkError{Err: err}
	}

	return n, nil
}

// run holds the state of a single Dump call.
type run struct {
	*Dumper

	settings  Settings
	out       *sink
	views     PendingViews
	prefix    *rewrite.Prefix
	extractor *StructureExtractor
	escaper   RowEscaper
	summary   *Summary
}

// Dump writes the header, every selected table and finally the views to w.
// w is neither opened nor closed here.
func (d *Dumper) Dump(ctx context.Context, w io.Writer) (summary *Summary, err error) {
	settings := d.Settings

	err = settings.Validate()
	if err != nil {
		return nil, err
	}

	if d.Conn == nil {
		return nil, &ConfigError{Field: "conn", Reason: "no connection"}
	}

	if settings.LockTables {
		locker, ok := d.Conn.(Locker)
		if !ok {
			return nil, &ConfigError{Field: "lock_tables", Reason: "connection does not support locking"}
		}

		d.logger().Debug("flush tables with read lock")

		err = locker.LockTables(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "flush tables with read lock failed")
		}

		defer func() {
			errUnlock := locker.UnlockTables(ctx)
			if errUnlock != nil {
				d.logger().Error(errUnlock)

				if err == nil {
					err = errors.Wrap(errUnlock, "unlock tables failed")
				}
			}
		}()
	}

	relations, err := d.Conn.ListRelations(ctx, d.Database)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list relations of %s", d.Database)
	}

	prefix := rewrite.NewPrefix(settings.OldPrefix, settings.NewPrefix)

	r := &run{
		Dumper:   d,
		settings: settings,
		out:      &sink{w: w},
		prefix:   prefix,
		extractor: &StructureExtractor{
			Conn:             d.Conn,
			AddDropTable:     settings.AddDropTable,
			Prefix:           prefix,
			StripConstraints: settings.StripConstraints,
		},
		escaper: RowEscaper{Escaper: d.Conn},
		summary: &Summary{},
	}

	err = r.dump(ctx, ResolveTables(relations, settings))
	r.summary.Bytes = r.out.n

	return r.summary, err
}

func (d *Dumper) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}

	return d.Logger
}

func (d *Dumper) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}

	return d.Now()
}

func (d *Dumper) header() string {
	return fmt.Sprintf("-- %s SQL Dump\n-- %s\n--\n-- Host: %s\n-- Generation Time: %s\n\n--\n-- Database: %s\n--\n\n",
		ToolName, ToolURL, d.Host, d.now().Format(time.RFC1123Z), QuoteName(d.Database),
	)
}

func (r *run) dump(ctx context.Context, tables []*Table) error {
	if r.Verbose {
		r.logger().Infof("runs dump for %d relations", len(tables))
	}

	_, err := io.WriteString(r.out, r.header())
	if err != nil {
		return err
	}

	for _, table := range tables {
		err = r.dumpTable(ctx, table)
		if err == nil {
			continue
		}

		if !r.settings.SkipFailedTables || !IsQueryError(err) {
			return err
		}

		r.logger().WithField("table", table.Name).Warnf("table skipped: %s", err)
		r.summary.Failed = append(r.summary.Failed, table.Name)
	}

	_, err = r.views.WriteTo(r.out)
	if err != nil {
		return err
	}

	r.summary.Views = r.views.Len()

	if r.Verbose {
		r.logger().Infof("dump finished: %d tables, %d views, %d rows, %s",
			r.summary.Tables, r.summary.Views, r.summary.Rows, units.HumanSize(float64(r.out.n)),
		)
	}

	return nil
}

func (r *run) dumpTable(ctx context.Context, table *Table) error {
	log := r.logger().WithField("table", table.Name)
	start := r.out.n

	if r.Verbose {
		log.Infof("starting dump for relation '%s'", table.Name)
	}

	isTable, err := r.extractor.Extract(ctx, r.out, &r.views, table.Name)
	if err != nil || !isTable {
		return err
	}

	r.summary.Tables++

	_, hasClause := r.settings.Clause(table.Name)
	if !r.settings.NoData || hasClause {
		err = r.dumpData(ctx, table)
		if err != nil {
			return err
		}
	}

	if r.Verbose {
		log.Infof("finished dump for table '%s' (%s)", table.Name, units.HumanSize(float64(r.out.n-start)))
	}

	return nil
}

func (r *run) dumpData(ctx context.Context, table *Table) (err error) {
	target := r.prefix.TableName(table.Name)

	_, err = fmt.Fprintf(r.out, "--\n-- Dumping data for table %s\n--\n\n", QuoteName(target))
	if err != nil {
		return err
	}

	query := selectQuery(table.Name, r.settings)
	r.logger().WithField("table", table.Name).Debugf("gets values: %s", query)

	rows, err := r.Conn.Query(ctx, query)
	if err != nil {
		return &QueryError{Table: table.Name, Query: query, Err: err}
	}

	defer func() {
		errCl := rows.Close()
		if err == nil && errCl != nil {
			err = &QueryError{Table: table.Name, Query: query, Err: errCl}
		}
	}()

	var (
		batcher = NewLineBatcher(r.out, target, r.settings.ExtendedInsert)
		columns = rows.Columns()
	)

	defer func() {
		r.summary.Rows += batcher.Rows()
	}()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return r.abortData(batcher, &QueryError{Table: table.Name, Query: query, Err: err})
		}

		err = batcher.WriteRow(r.escaper.RenderRow(columns, values))
		if err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return r.abortData(batcher, &QueryError{Table: table.Name, Query: query, Err: err})
	}

	return batcher.Close()
}

// abortData terminates the open statement so the rows written so far stay
// replayable, then returns cause.
func (r *run) abortData(batcher *LineBatcher, cause error) error {
	if err := batcher.Close(); err != nil {
		return err
	}

	return cause
}

func selectQuery(table string, settings Settings) string {
	query := "SELECT * FROM " + QuoteName(table)

	if clause, ok := settings.Clause(table); ok {
		query += " " + clause
	}

	return query
}
