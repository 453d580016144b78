package command

import (
	"fmt"

	"github.com/koustreak/querykit/internal/database"
	"github.com/mitchellh/cli"
)

var _ cli.Command = (*PingCommand)(nil)

// PingCommand opens a connection, pings it and closes it again.
type PingCommand struct {
	Meta

	conn connectionFlags
}

func (c *PingCommand) Synopsis() string {
	return "Check that the configured database is reachable"
}

func (c *PingCommand) Help() string {
	return helpText(`
Usage: querykit ping [options]

  Open a connection with the configured template and secret, ping the
  server and close the connection:

      $ querykit ping -driver postgres -password env://PGPASSWORD \
          -dsn "host=db user=app password={{.password}} dbname=sales"
` + connectionHelp)
}

func (c *PingCommand) Run(args []string) int {
	fs := c.flagSet("ping", &c.conn)
	if err := fs.Parse(args); err != nil {
		return c.usage(err)
	}
	if fs.NArg() > 0 {
		return c.usage(fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}

	ctx := c.context()
	rt, err := c.setup(&c.conn)
	if err != nil {
		return c.fail(err)
	}

	err = rt.mgr.With(ctx, func(*database.Handle) error {
		return rt.mgr.Ping(ctx)
	})
	if err != nil {
		return c.fail(err)
	}

	c.Ui.Output(fmt.Sprintf("%s database is reachable", rt.cfg.Database.Driver))
	return 0
}
