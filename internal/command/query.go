package command

import (
	"fmt"

	"github.com/koustreak/querykit/internal/database"
	"github.com/mitchellh/cli"
)

var _ cli.Command = (*QueryCommand)(nil)

// QueryCommand builds a query from trusted clause fragments and prints the
// result as CSV.
type QueryCommand struct {
	Meta

	conn       connectionFlags
	output     outputFlags
	projection string
	source     string
	where      stringSlice
	orderBy    string
	asc        bool
	allowSort  stringSlice
	strict     bool
	args       stringSlice
}

func (c *QueryCommand) Synopsis() string {
	return "Run a query assembled from clause fragments"
}

func (c *QueryCommand) Help() string {
	return helpText(`
Usage: querykit query [options]

  Assemble a SELECT from trusted fragments, bind -arg values to its ?
  markers and print the rows as CSV:

      $ querykit query -config querykit.yaml -password env://PGPASSWORD \
          -select "SELECT id, name" -from "FROM users" \
          -where "age > ?" -arg 30 -order-by name -allow-sort name

  Fragments are inserted verbatim and must never contain end-user input.
  -order-by is ignored unless the column is listed with -allow-sort.

Query Options:

  -select=<sql>          Projection clause, e.g. "SELECT id, name".
  -from=<sql>            Source clause including joins.
  -where=<sql>           Predicate with ? markers. Repeatable; joined by AND.
  -arg=<value>           Positional parameter. Repeatable. Integers, floats,
                         true/false and NULL are typed; quote to force text.
  -order-by=<column>     Sort column.
  -asc                   Sort ascending (default descending).
  -allow-sort=<column>   Column allowed for sorting. Repeatable.
  -strict-order          Fail instead of dropping a disallowed -order-by.
` + outputHelp + connectionHelp)
}

func (c *QueryCommand) Run(args []string) int {
	fs := c.flagSet("query", &c.conn)
	c.output.register(fs)
	fs.StringVar(&c.projection, "select", "", "")
	fs.StringVar(&c.source, "from", "", "")
	fs.Var(&c.where, "where", "")
	fs.StringVar(&c.orderBy, "order-by", "", "")
	fs.BoolVar(&c.asc, "asc", false, "")
	fs.Var(&c.allowSort, "allow-sort", "")
	fs.BoolVar(&c.strict, "strict-order", false, "")
	fs.Var(&c.args, "arg", "")
	if err := fs.Parse(args); err != nil {
		return c.usage(err)
	}
	if fs.NArg() > 0 {
		return c.usage(fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}

	spec := database.Select(c.projection).
		From(c.source).
		Where(c.where...).
		AllowSort(c.allowSort...)
	if c.orderBy != "" {
		dir := database.Desc
		if c.asc {
			dir = database.Asc
		}
		spec.OrderBy(c.orderBy, dir)
	}
	if c.strict {
		spec.Strict()
	}

	// Reject a bad spec before any connection or prompt.
	if _, err := spec.Build(); err != nil {
		return c.fail(err)
	}

	return runSpec(&c.Meta, &c.conn, &c.output, spec, parseArgs(c.args))
}

// runSpec is shared by query and template: connect per config, run spec
// once and emit the result.
func runSpec(m *Meta, cf *connectionFlags, o *outputFlags, spec database.Spec, args []any) int {
	ctx := m.context()

	rt, err := m.setup(cf)
	if err != nil {
		return m.fail(err)
	}
	defer closeManager(ctx, rt)

	s := database.NewSession(rt.mgr, rt.exec, rt.log)
	res, err := s.Run(ctx, spec, args...)
	if res == nil {
		return m.fail(err)
	}

	// A release failure still carries the result; write it before reporting.
	if eerr := m.emit(ctx, rt, o, res); eerr != nil {
		return m.fail(eerr)
	}
	if err != nil {
		return m.fail(err)
	}
	return 0
}
