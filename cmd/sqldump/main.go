package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	units "github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/partyzanex/sqldump/pkg/dump"
	"github.com/partyzanex/sqldump/pkg/mysql"
)

var (
	dsn     = pflag.String("dsn", "", "source DSN, ex. 'user:password@tcp(localhost:3306)/source_db'")
	user    = pflag.StringP("user", "u", "", "user")
	pass    = pflag.StringP("password", "p", "", "password")
	host    = pflag.StringP("host", "h", "localhost", "hostname")
	port    = pflag.Uint16P("port", "P", 3306, "port")
	dbname  = pflag.StringP("database", "d", "", "database")
	output  = pflag.StringP("output", "o", "dump.sql", "output file, '-' for stdout")
	config  = pflag.StringP("config", "c", "", "YAML settings file")
	verbose = pflag.BoolP("verbose", "v", false, "verbose progress")
	list    = pflag.Bool("list", false, "list tables and views and exit")

	include = pflag.StringSlice("tables", []string{}, "tables to dump (default all)")
	exclude = pflag.StringSlice("exclude-tables", []string{}, "tables to skip")
	clauses = pflag.StringToString("where", map[string]string{}, "per table query clause, ex. --where users='WHERE id > 10'")

	oldPrefix = pflag.String("old-prefix", "", "table prefix to replace")
	newPrefix = pflag.String("new-prefix", "", "table prefix to write instead of --old-prefix")

	addDropTable     = pflag.Bool("add-drop-table", false, "add DROP TABLE IF EXISTS before each CREATE TABLE")
	extendedInsert   = pflag.Bool("extended-insert", true, "pack many rows into one INSERT statement")
	noData           = pflag.Bool("no-data", false, "dump only DDL (without data)")
	stripConstraints = pflag.Bool("strip-constraints", false, "remove foreign key constraints from CREATE TABLE")
	lockTables       = pflag.Bool("lock-tables", false, "hold a global read lock while dumping")
	skipFailed       = pflag.Bool("skip-failed", false, "skip tables whose queries fail instead of aborting")

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

func run(ctx context.Context) (err error) {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	err = settings.Validate()
	if err != nil {
		return err
	}

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

	db, err := mysql.Open(ctx, cfg)
	if err != nil {
		return err
	}

	defer db.Close()

	repo := dump.New(db)

	if *list {
		return listRelations(ctx, repo, cfg.DBName)
	}

	err = repo.LoadSQLMode(ctx)
	if err != nil {
		return err
	}

	var w io.WriteCloser = os.Stdout
	if *output != "-" {
		w, err = dump.NewFileWriter(*output)
		if err != nil {
			return err
		}

		defer func() {
			errCl := w.Close()
			if err == nil && errCl != nil {
				err = &dump.SinkError{Err: errCl}
			}
		}()
	}

	d := dump.Dumper{
		Conn:     repo,
		Settings: settings,
		Host:     mysql.Hostname(cfg),
		Database: cfg.DBName,
		Verbose:  *verbose,
	}

	summary, err := d.Dump(ctx, w)
	if dump.IsSinkError(err) {
		return errors.Wrapf(err, "unable to write dump to %s", *output)
	}

	if err != nil {
		return err
	}

	if len(summary.Failed) > 0 {
		logrus.Warnf("skipped tables: %v", summary.Failed)
	}

	if *verbose {
		logrus.Infof("%d tables, %d views, %d rows, %s written",
			summary.Tables, summary.Views, summary.Rows, units.HumanSize(float64(summary.Bytes)),
		)
	}

	return nil
}

// loadSettings merges the settings file with the flags set on the command line.
func loadSettings() (dump.Settings, error) {
	settings := dump.DefaultSettings()

	if *config != "" {
		var err error

		settings, err = dump.LoadSettings(*config)
		if err != nil {
			return settings, err
		}
	}

	flags := pflag.CommandLine

	if flags.Changed("tables") {
		settings.IncludeTables = *include
	}

	if flags.Changed("exclude-tables") {
		settings.ExcludeTables = *exclude
	}

	if flags.Changed("where") {
		if settings.Clauses == nil {
			settings.Clauses = make(map[string]string)
		}

		for table, clause := range *clauses {
			settings.Clauses[table] = clause
		}
	}

	if flags.Changed("old-prefix") {
		settings.OldPrefix = *oldPrefix
	}

	if flags.Changed("new-prefix") {
		settings.NewPrefix = *newPrefix
	}

	if flags.Changed("add-drop-table") {
		settings.AddDropTable = *addDropTable
	}

	if flags.Changed("extended-insert") {
		settings.ExtendedInsert = *extendedInsert
	}

	if flags.Changed("no-data") {
		settings.NoData = *noData
	}

	if flags.Changed("strip-constraints") {
		settings.StripConstraints = *stripConstraints
	}

	if flags.Changed("lock-tables") {
		settings.LockTables = *lockTables
	}

	if flags.Changed("skip-failed") {
		settings.SkipFailedTables = *skipFailed
	}

	return settings, nil
}

func listRelations(ctx context.Context, repo *dump.Repository, database string) error {
	relations, err := repo.ListRelations(ctx, database)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Type"})

	for _, r := range relations {
		table.Append([]string{r.Name, r.Type})
	}

	table.Render()
	fmt.Printf("%d relations in `%s`\n", len(relations), database)

	return nil
}
