package dump

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings controls one dump run. It is copied when the run starts and
// not read again afterwards.
type Settings struct {
	// IncludeTables limits the dump to these tables, empty means all.
	IncludeTables []string `yaml:"include_tables"`
	ExcludeTables []string `yaml:"exclude_tables"`

	NoData         bool `yaml:"no_data"`
	AddDropTable   bool `yaml:"add_drop_table"`
	ExtendedInsert bool `yaml:"extended_insert"`

	// OldPrefix and NewPrefix rename tables in the produced dump.
	OldPrefix string `yaml:"old_prefix"`
	NewPrefix string `yaml:"new_prefix"`

	// StripConstraints removes FOREIGN KEY constraints from CREATE TABLE.
	StripConstraints bool `yaml:"strip_constraints"`

	// LockTables holds a global read lock for the duration of the run.
	LockTables bool `yaml:"lock_tables"`

	// SkipFailedTables logs and skips tables whose queries fail instead of
	// aborting the run.
	SkipFailedTables bool `yaml:"skip_failed_tables"`

	// Clauses maps a table name to an SQL fragment appended to its SELECT,
	// e.g. "WHERE id > 100 ORDER BY id".
	Clauses map[string]string `yaml:"clauses"`
}

// DefaultSettings returns the settings used when nothing else is set.
func DefaultSettings() Settings {
	return Settings{
		ExtendedInsert: true,
	}
}

// LoadSettings reads YAML settings from path on top of DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return settings, errors.Wrapf(err, "unable to read settings file %s", path)
	}

	err = yaml.Unmarshal(data, &settings)
	if err != nil {
		return settings, errors.Wrapf(err, "unable to parse settings file %s", path)
	}

	return settings, nil
}

// Clause returns the query clause configured for table.
func (s Settings) Clause(table string) (string, bool) {
	clause, ok := s.Clauses[table]
	if !ok || strings.TrimSpace(clause) == "" {
		return "", false
	}

	return clause, true
}

// Validate checks the settings before any I/O happens.
func (s Settings) Validate() error {
	for _, name := range s.IncludeTables {
		if err := validateName("include_tables", name); err != nil {
			return err
		}
	}

	for _, name := range s.ExcludeTables {
		if err := validateName("exclude_tables", name); err != nil {
			return err
		}
	}

	if strings.ContainsRune(s.OldPrefix, '`') {
		return &ConfigError{Field: "old_prefix", Reason: "must not contain a backtick"}
	}

	if strings.ContainsRune(s.NewPrefix, '`') {
		return &ConfigError{Field: "new_prefix", Reason: "must not contain a backtick"}
	}

	for table, clause := range s.Clauses {
		if err := validateName("clauses", table); err != nil {
			return err
		}

		if strings.ContainsRune(clause, ';') {
			return &ConfigError{
				Field:  "clauses",
				Reason: "clause for table `" + table + "` must not contain ';'",
			}
		}
	}

	return nil
}

func validateName(field, name string) error {
	if name == "" {
		return &ConfigError{Field: field, Reason: "empty table name"}
	}

	if strings.ContainsRune(name, '`') {
		return &ConfigError{Field: field, Reason: "table name " + name + " contains a backtick"}
	}

	return nil
}
