package dump

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConnectionError is returned when the database cannot be reached or
// authenticated against. No output is produced after it.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %s", e.Err)
}

func (e *ConnectionError) Cause() error  { return e.Err }
func (e *ConnectionError) Unwrap() error { return e.Err }

// SinkError is returned when the output destination rejects a write.
// It is always fatal, partial output is left as-is.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("writing dump failed: %s", e.Err)
}

func (e *SinkError) Cause() error  { return e.Err }
func (e *SinkError) Unwrap() error { return e.Err }

// QueryError reports a failed per-table query.
type QueryError struct {
	Table string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("table `%s`: %s", e.Table, e.Err)
	}

	return fmt.Sprintf("table `%s`: query '%s' failed: %s", e.Table, e.Query, e.Err)
}

func (e *QueryError) Cause() error  { return e.Err }
func (e *QueryError) Unwrap() error { return e.Err }

// ConfigError reports an invalid Settings value, caught before any I/O.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid settings: %s: %s", e.Field, e.Reason)
}

// IsSinkError reports whether err (or any error it wraps) is a SinkError.
func IsSinkError(err error) bool {
	var target *SinkError
	return errors.As(err, &target)
}

// IsQueryError reports whether err (or any error it wraps) is a QueryError.
func IsQueryError(err error) bool {
	var target *QueryError
	return errors.As(err, &target)
}
