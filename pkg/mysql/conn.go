// Package mysql opens the single connection used by a dump or restore run.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/partyzanex/sqldump/pkg/dump"
	"github.com/pkg/errors"
)

// Params represents connection parameters. DSN, when set, wins over the
// individual fields.
type Params struct {
	DSN string

	User     string
	Password string
	Host     string
	Port     uint16
	Database string
}

// Config returns the driver configuration described by p.
func (p Params) Config() (*mysql.Config, error) {
	if p.DSN != "" {
		cfg, err := mysql.ParseDSN(p.DSN)
		if err != nil {
			return nil, &dump.ConfigError{Field: "dsn", Reason: err.Error()}
		}

		return cfg, nil
	}

	if p.User == "" {
		return nil, &dump.ConfigError{Field: "user", Reason: "required"}
	}

	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	cfg.DBName = p.Database

	return cfg, nil
}

// Open connects to the server and checks the connection. The pool is
// limited to one connection so every statement of a run shares a session.
func Open(ctx context.Context, cfg *mysql.Config) (*sql.DB, error) {
	if cfg.DBName == "" {
		return nil, &dump.ConfigError{Field: "database", Reason: "required"}
	}

	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}

	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, &dump.ConnectionError{Err: errors.Wrap(err, "unable to open database")}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = dump.New(db).Ping(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Hostname returns the host part of the configured address.
func Hostname(cfg *mysql.Config) string {
	if cfg.Net == "unix" {
		return "localhost"
	}

	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		host = cfg.Addr
	}

	if host == "" {
		return "localhost"
	}

	return host
}
