package dump_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/partyzanex/sqldump/pkg/dump"
	"github.com/partyzanex/testutils"
	"github.com/pkg/errors"
)

func TestSettings_Validate(t *testing.T) {
	data := []struct {
		Name     string
		Settings dump.Settings
		Field    string
	}{
		{Name: "defaults", Settings: dump.DefaultSettings()},
		{Name: "overlap allowed", Settings: dump.Settings{IncludeTables: []string{"a"}, ExcludeTables: []string{"a"}}},
		{Name: "empty include", Settings: dump.Settings{IncludeTables: []string{""}}, Field: "include_tables"},
		{Name: "backtick exclude", Settings: dump.Settings{ExcludeTables: []string{"a`b"}}, Field: "exclude_tables"},
		{Name: "backtick prefix", Settings: dump.Settings{OldPrefix: "wp`"}, Field: "old_prefix"},
		{Name: "backtick new prefix", Settings: dump.Settings{NewPrefix: "`"}, Field: "new_prefix"},
		{Name: "semicolon clause", Settings: dump.Settings{Clauses: map[string]string{"a": "WHERE 1; DROP TABLE a"}}, Field: "clauses"},
		{Name: "clause", Settings: dump.Settings{Clauses: map[string]string{"a": "WHERE id > 1"}}},
	}

	for _, item := range data {
		t.Run(item.Name, func(t *testing.T) {
			err := item.Settings.Validate()

			if item.Field == "" {
				testutils.FatalErr(t, "Validate", err)
				return
			}

			var configErr *dump.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}

			testutils.AssertEqual(t, "field", item.Field, configErr.Field)
		})
	}
}

func TestSettings_Clause(t *testing.T) {
	settings := dump.Settings{Clauses: map[string]string{"a": "LIMIT 10", "b": "  "}}

	clause, ok := settings.Clause("a")
	testutils.AssertEqual(t, "ok", true, ok)
	testutils.AssertEqual(t, "clause", "LIMIT 10", clause)

	_, ok = settings.Clause("b")
	testutils.AssertEqual(t, "blank", false, ok)

	_, ok = settings.Clause("c")
	testutils.AssertEqual(t, "missing", false, ok)
}

func TestLoadSettings(t *testing.T) {
	dir, err := ioutil.TempDir("", "settings")
	testutils.FatalErr(t, "ioutil.TempDir", err)

	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "dump.yaml")
	content := `
include_tables: [wp_posts, wp_users]
exclude_tables:
  - wp_users
add_drop_table: true
old_prefix: wp_
new_prefix: blog_
clauses:
  wp_posts: WHERE post_status = 'publish'
`

	err = ioutil.WriteFile(path, []byte(content), 0644)
	testutils.FatalErr(t, "ioutil.WriteFile", err)

	settings, err := dump.LoadSettings(path)
	testutils.FatalErr(t, "dump.LoadSettings", err)

	expected := dump.Settings{
		IncludeTables:  []string{"wp_posts", "wp_users"},
		ExcludeTables:  []string{"wp_users"},
		AddDropTable:   true,
		ExtendedInsert: true,
		OldPrefix:      "wp_",
		NewPrefix:      "blog_",
		Clauses:        map[string]string{"wp_posts": "WHERE post_status = 'publish'"},
	}

	if diff := deep.Equal(settings, expected); diff != nil {
		t.Error(diff)
	}

	_, err = dump.LoadSettings(filepath.Join(dir, "missing.yaml"))
	testutils.AssertEqual(t, "missing file", true, err != nil)
}
