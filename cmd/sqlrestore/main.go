package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/partyzanex/sqldump/pkg/dump"
	"github.com/partyzanex/sqldump/pkg/mysql"
	"github.com/partyzanex/sqldump/pkg/restore"
	"github.com/partyzanex/sqldump/pkg/rewrite"
)

var (
	dsn     = pflag.String("dsn", "", "target DSN, ex. 'user:password@tcp(localhost:3306)/target_db'")
	user    = pflag.StringP("user", "u", "", "user")
	pass    = pflag.StringP("password", "p", "", "password")
	host    = pflag.StringP("host", "h", "localhost", "hostname")
	port    = pflag.Uint16P("port", "P", 3306, "port")
	dbname  = pflag.StringP("database", "d", "", "database")
	input   = pflag.StringP("input", "i", "dump.sql", "dump file, '-' for stdin")
	verbose = pflag.BoolP("verbose", "v", false, "verbose progress")

	oldPrefix        = pflag.String("old-prefix", "", "table prefix to replace")
	newPrefix        = pflag.String("new-prefix", "", "table prefix to restore tables under")
	stripConstraints = pflag.Bool("strip-constraints", false, "remove foreign key constraints from CREATE TABLE")
	truncate         = pflag.Bool("truncate", false, "drop every table and view of the database before importing")

	debug = pflag.Bool("debug", false, "debug mode")
)

func main() {
	pflag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		cancel()
	}()

	if err := run(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := mysql.Params{
		DSN:      *dsn,
		User:     *user,
		Password: *pass,
		Host:     *host,
		Port:     *port,
		Database: *dbname,
	}.Config()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			return err
		}

		defer f.Close()

		r = f
	}

	db, err := mysql.Open(ctx, cfg)
	if err != nil {
		return err
	}

	defer db.Close()

	repo := dump.New(db)

	if *truncate {
		if *verbose {
			logrus.Infof("dropping all relations of `%s`", cfg.DBName)
		}

		err = repo.TruncateDatabase(ctx, cfg.DBName)
		if err != nil {
			return err
		}
	}

	im := restore.Importer{
		Exec:             repo,
		Prefix:           rewrite.NewPrefix(*oldPrefix, *newPrefix),
		StripConstraints: *stripConstraints,
		Verbose:          *verbose,
	}

	count, err := im.Import(ctx, r)
	if err != nil {
		return err
	}

	if *verbose {
		logrus.Infof("%d statements imported into `%s`", count, cfg.DBName)
	}

	return nil
}
