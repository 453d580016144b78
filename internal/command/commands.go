package command

import (
	"github.com/mitchellh/cli"
)

// Commands returns the command table for cli.CLI.
func Commands(meta Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"ping": func() (cli.Command, error) {
			return &PingCommand{Meta: meta}, nil
		},
		"query": func() (cli.Command, error) {
			return &QueryCommand{Meta: meta}, nil
		},
		"template": func() (cli.Command, error) {
			return &TemplateCommand{Meta: meta}, nil
		},
	}
}
