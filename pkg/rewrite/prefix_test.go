package rewrite_test

import (
	"strings"
	"testing"

	"github.com/partyzanex/sqldump/pkg/rewrite"
	"github.com/partyzanex/testutils"
)

func lines(s ...string) string {
	return strings.Join(s, "\n")
}

func createTable(name, referenced string) string {
	return lines(
		"CREATE TABLE `"+name+"` (",
		"    `id` int(11) NOT NULL AUTO_INCREMENT,",
		"    `post_id` bigint(20) unsigned NOT NULL,",
		"    `ddd` varchar(20) NOT NULL,",
		"    PRIMARY KEY (`id`),",
		"    KEY `post_id` (`post_id`),",
		"    CONSTRAINT `wp_test_ibfk_1` FOREIGN KEY (`post_id`) REFERENCES `"+referenced+"` (`ID`)",
		") ENGINE=InnoDB DEFAULT CHARSET=latin1",
	)
}

func TestPrefix_TableName(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "SERVMASK_PREFIX_")

	testutils.AssertEqual(t, "prefixed", "SERVMASK_PREFIX_test", p.TableName("blog_test"))
	testutils.AssertEqual(t, "other", "wp_test", p.TableName("wp_test"))
	testutils.AssertEqual(t, "inner", "test_blog_", p.TableName("test_blog_"))
}

func TestPrefix_CreateTable(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "SERVMASK_PREFIX_")

	got := p.CreateTable(createTable("blog_test", "wp_posts"))
	testutils.AssertEqual(t, "foreign reference kept", createTable("SERVMASK_PREFIX_test", "wp_posts"), got)

	got = p.CreateTable(createTable("blog_test", "blog_posts"))
	testutils.AssertEqual(t, "reference renamed", createTable("SERVMASK_PREFIX_test", "SERVMASK_PREFIX_posts"), got)

	p = rewrite.NewPrefix("blog_", "X_")

	got = p.CreateTable("CREATE TABLE `blog_test` (`id` int, `ref` varchar(10) DEFAULT 'blog_test')")
	testutils.AssertEqual(t, "X_", "CREATE TABLE `X_test` (`id` int, `ref` varchar(10) DEFAULT 'blog_test')", got)

	got = p.CreateTable("CREATE TABLE IF NOT EXISTS `blog_test` (`id` int)")
	testutils.AssertEqual(t, "if not exists", "CREATE TABLE IF NOT EXISTS `X_test` (`id` int)", got)

	got = p.CreateTable("CREATE TABLE `wp_posts` (`id` int)")
	testutils.AssertEqual(t, "unprefixed", "CREATE TABLE `wp_posts` (`id` int)", got)

	got = p.CreateTable(createTable("other", "blog_posts"))
	testutils.AssertEqual(t, "unprefixed table referencing prefixed", createTable("other", "X_posts"), got)

	got = p.Statement(createTable("other", "blog_posts") + ";\n")
	testutils.AssertEqual(t, "statement", createTable("other", "X_posts")+";\n", got)
}

func TestPrefix_InsertInto(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "SERVMASK_PREFIX_")

	values := " VALUES ('1','1','Mr WordPress','','https://wordpress.org/','','2014-05-09 02:16:16'," +
		"'2014-05-09 02:16:16','Hi, this is a comment.\nTo delete a comment, just log in and view the post&#039;s comments." +
		" INSERT INTO `blog_comments` is not a statement here.','0','1','','','0','0');"

	got := p.InsertInto("INSERT INTO `blog_comments`" + values)
	testutils.AssertEqual(t, "insert", "INSERT INTO `SERVMASK_PREFIX_comments`"+values, got)

	got = p.InsertInto("INSERT INTO `wp_comments`" + values)
	testutils.AssertEqual(t, "other table", "INSERT INTO `wp_comments`"+values, got)
}

func TestPrefix_DropTable(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "X_")

	testutils.AssertEqual(t, "drop", "DROP TABLE IF EXISTS `X_test`;",
		p.DropTable("DROP TABLE IF EXISTS `blog_test`;"),
	)
}

func TestPrefix_Statement(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "new$1_")

	cases := []struct {
		name, in, out string
	}{
		{"create", "CREATE TABLE `blog_a` (`id` int);\n", "CREATE TABLE `new$1_a` (`id` int);\n"},
		{"insert", "INSERT INTO `blog_a` VALUES (1);\n", "INSERT INTO `new$1_a` VALUES (1);\n"},
		{"drop", "DROP TABLE IF EXISTS `blog_a`;\n", "DROP TABLE IF EXISTS `new$1_a`;\n"},
		{"view", "CREATE VIEW `blog_v` AS select 1;\n", "CREATE VIEW `blog_v` AS select 1;\n"},
		{"set", "SET NAMES utf8mb4;\n", "SET NAMES utf8mb4;\n"},
	}

	for _, c := range cases {
		testutils.AssertEqual(t, c.name, c.out, p.Statement(c.in))
	}
}

func TestPrefix_Nil(t *testing.T) {
	p := rewrite.NewPrefix("blog_", "blog_")
	if p != nil {
		t.Fatalf("expected nil prefix, got %+v", p)
	}

	stmt := "INSERT INTO `blog_a` VALUES (1);"

	testutils.AssertEqual(t, "Statement", stmt, p.Statement(stmt))
	testutils.AssertEqual(t, "TableName", "blog_a", p.TableName("blog_a"))
	testutils.AssertEqual(t, "CreateTable", stmt, p.CreateTable(stmt))
}
