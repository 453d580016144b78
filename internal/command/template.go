package command

import (
	"fmt"
	"os"

	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/mitchellh/cli"
)

var _ cli.Command = (*TemplateCommand)(nil)

// TemplateCommand renders a SQL template with -set values and prints the
// result as CSV.
type TemplateCommand struct {
	Meta

	conn   connectionFlags
	output outputFlags
	file   string
	text   string
	values keyValues
	args   stringSlice
}

func (c *TemplateCommand) Synopsis() string {
	return "Run a SQL template with named substitutions"
}

func (c *TemplateCommand) Help() string {
	return helpText(`
Usage: querykit template [options]

  Render a SQL template and run it:

      $ querykit template -config querykit.yaml \
          -text "SELECT * FROM {{.schema}}.orders WHERE total > ?" \
          -set schema=sales -arg 100

  Substituted values become SQL text. Use them for trusted identifiers such
  as schema or table names only; pass user values with -arg.

Template Options:

  -file=<path>           Read the template from a file.
  -text=<sql>            Template given inline. Exactly one of -file and
                         -text is required.
  -set=<key=value>       Template value. Repeatable.
  -arg=<value>           Positional parameter for ? markers. Repeatable.
` + outputHelp + connectionHelp)
}

func (c *TemplateCommand) Run(args []string) int {
	c.values = keyValues{}
	fs := c.flagSet("template", &c.conn)
	c.output.register(fs)
	fs.StringVar(&c.file, "file", "", "")
	fs.StringVar(&c.text, "text", "", "")
	fs.Var(c.values, "set", "")
	fs.Var(&c.args, "arg", "")
	if err := fs.Parse(args); err != nil {
		return c.usage(err)
	}
	if fs.NArg() > 0 {
		return c.usage(fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}

	text, err := c.templateText()
	if err != nil {
		return c.fail(err)
	}

	spec := &database.TemplateSpec{Text: text, Values: c.values}
	if _, err := spec.Build(); err != nil {
		return c.fail(err)
	}

	return runSpec(&c.Meta, &c.conn, &c.output, spec, parseArgs(c.args))
}

func (c *TemplateCommand) templateText() (string, error) {
	switch {
	case c.file != "" && c.text != "":
		return "", errs.New(errs.ErrKindInvalidInput, "use either -file or -text, not both")
	case c.text != "":
		return c.text, nil
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("cannot read template %s", c.file), err)
		}
		return string(data), nil
	default:
		return "", errs.New(errs.ErrKindInvalidInput, "a template is required: pass -file or -text")
	}
}
