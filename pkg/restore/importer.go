package restore

import (
	"context"
	"io"

	"github.com/partyzanex/sqldump/pkg/rewrite"
	"github.com/sirupsen/logrus"
)

// Executor runs one statement.
type Executor interface {
	Execute(ctx context.Context, query string) error
}

// Importer replays a dump statement by statement.
type Importer struct {
	Exec Executor

	// Prefix renames tables in every statement before it is executed.
	Prefix           *rewrite.Prefix
	StripConstraints bool

	Verbose bool
	Logger  logrus.FieldLogger
}

// Import executes every statement of r and returns how many were run.
// A rejected statement stops the import with a *MalformedDumpError
// carrying the statement text.
func (im *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	var (
		ra    = NewReassembler(r)
		count = 0
	)

	for {
		stmt, err := ra.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return count, err
		}

		stmt = im.Prefix.Statement(stmt)

		if im.StripConstraints {
			stmt = rewrite.StripConstraints(stmt)
		}

		err = im.Exec.Execute(ctx, stmt)
		if err != nil {
			return count, &MalformedDumpError{
				Statement: stmt,
				Line:      ra.from,
				Err:       err,
			}
		}

		count++

		if im.Verbose && count%1000 == 0 {
			im.logger().Infof("%d statements executed", count)
		}
	}

	im.logger().Debugf("import finished: %d statements", count)

	return count, nil
}

func (im *Importer) logger() logrus.FieldLogger {
	if im.Logger == nil {
		return logrus.StandardLogger()
	}

	return im.Logger
}
