package command

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER)`,
		`INSERT INTO users (id, name, age) VALUES (1, 'ann', 41), (2, 'bo', 25), (3, 'cy', 37)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func testMeta() (Meta, *cli.MockUi, *bytes.Buffer) {
	ui := cli.NewMockUi()
	var stdout, stderr bytes.Buffer
	return Meta{Ui: ui, Ctx: context.Background(), Stdout: &stdout, Stderr: &stderr}, ui, &stdout
}

func TestQueryCommand(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, stdout := testMeta()
	c := &QueryCommand{Meta: meta}

	code := c.Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-select", "SELECT id, name",
		"-from", "FROM users",
		"-where", "age > ?",
		"-arg", "30",
		"-order-by", "name", "-asc",
		"-allow-sort", "name",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, "id,name\n1,ann\n3,cy\n", stdout.String())
}

func TestQueryCommand_DisallowedSortIsDropped(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, stdout := testMeta()

	code := (&QueryCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-select", "SELECT id", "-from", "FROM users",
		"-where", "id = ?", "-arg", "2",
		"-order-by", "name; DROP TABLE users",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, "id\n2\n", stdout.String())
}

func TestQueryCommand_StrictOrderFailsBeforeConnecting(t *testing.T) {
	meta, ui, _ := testMeta()

	code := (&QueryCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", filepath.Join(t.TempDir(), "never-created.db"),
		"-select", "SELECT id", "-from", "FROM users",
		"-order-by", "email", "-allow-sort", "name", "-strict-order",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "allow-list")
}

func TestQueryCommand_OutFile(t *testing.T) {
	path := fixtureDB(t)
	out := filepath.Join(t.TempDir(), "users.csv")
	meta, ui, stdout := testMeta()

	code := (&QueryCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-select", "SELECT name", "-from", "FROM users",
		"-order-by", "id", "-allow-sort", "id",
		"-out", out, "-delimiter", ";", "-index",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ";name\n0;cy\n1;bo\n2;ann\n", string(data))
	assert.Contains(t, ui.OutputWriter.String(), "Wrote 3 rows")
}

func TestQueryCommand_UploadNeedsStore(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, _ := testMeta()

	code := (&QueryCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-select", "SELECT id", "-from", "FROM users",
		"-upload", "exports/users.csv",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "store")
}

func TestQueryCommand_BadFlags(t *testing.T) {
	meta, _, _ := testMeta()
	assert.Equal(t, cli.RunResultHelp, (&QueryCommand{Meta: meta}).Run([]string{"-nope"}))

	meta, _, _ = testMeta()
	assert.Equal(t, cli.RunResultHelp, (&QueryCommand{Meta: meta}).Run([]string{"stray"}))
}

func TestQueryCommand_ExecutionError(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, _ := testMeta()

	code := (&QueryCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-select", "SELECT missing", "-from", "FROM users",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "query_failed")
}

func TestTemplateCommand(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, stdout := testMeta()

	code := (&TemplateCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path,
		"-text", "SELECT name FROM {{.table}} WHERE id = ?",
		"-set", "table=users",
		"-arg", "3",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, "name\ncy\n", stdout.String())
}

func TestTemplateCommand_FromFile(t *testing.T) {
	path := fixtureDB(t)
	tmpl := filepath.Join(t.TempDir(), "q.sql.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("SELECT count(*) AS n FROM {{.table}}"), 0o600))
	meta, ui, stdout := testMeta()

	code := (&TemplateCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", path, "-file", tmpl, "-set", "table=users",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, "n\n3\n", stdout.String())
}

func TestTemplateCommand_MissingValue(t *testing.T) {
	meta, ui, _ := testMeta()

	code := (&TemplateCommand{Meta: meta}).Run([]string{
		"-driver", "sqlite", "-dsn", "unused.db",
		"-text", "SELECT * FROM {{.schema}}.{{.table}}",
		"-set", "schema=main",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), `"table"`)
	assert.Contains(t, ui.ErrorWriter.String(), "-set table=")
}

func TestTemplateCommand_Source(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "neither", args: nil},
		{name: "both", args: []string{"-text", "SELECT 1", "-file", "q.sql"}},
		{name: "missing file", args: []string{"-file", filepath.Join(os.TempDir(), "querykit-absent.sql")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, _, _ := testMeta()
			code := (&TemplateCommand{Meta: meta}).Run(append([]string{"-driver", "sqlite", "-dsn", "x.db"}, tt.args...))
			assert.Equal(t, 1, code)
		})
	}
}

func TestPingCommand(t *testing.T) {
	path := fixtureDB(t)
	meta, ui, _ := testMeta()

	code := (&PingCommand{Meta: meta}).Run([]string{"-driver", "sqlite", "-dsn", path, "-policy", "once"})
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), "sqlite database is reachable")
}

func TestPingCommand_InvalidConfig(t *testing.T) {
	meta, ui, _ := testMeta()

	code := (&PingCommand{Meta: meta}).Run([]string{"-driver", "oracle", "-dsn", "x"})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "unsupported driver")
}

func TestPingCommand_PasswordSyntax(t *testing.T) {
	meta, ui, _ := testMeta()

	code := (&PingCommand{Meta: meta}).Run([]string{
		"-driver", "postgres", "-dsn", "host=db password={{.password}}", "-password", "hunter2",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "env://")
}

func TestCommands(t *testing.T) {
	meta, _, _ := testMeta()
	cmds := Commands(meta)
	for _, name := range []string{"ping", "query", "template"} {
		factory, ok := cmds[name]
		require.True(t, ok, name)
		c, err := factory()
		require.NoError(t, err)
		assert.NotEmpty(t, c.Synopsis())
		assert.Contains(t, c.Help(), "querykit "+name)
	}
}
