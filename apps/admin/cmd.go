package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/semillero/core/profile"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	profiles profile.Store
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate - create or update the profile tables")
	fmt.Fprintln(cli.out, "  profiles [-json] - list stored notification profiles")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	profilesCmd := flag.NewFlagSet("profiles", flag.ContinueOnError)
	profilesCmd.SetOutput(cli.out)
	profilesJSON := profilesCmd.Bool("json", false, "Print JSON even on a terminal.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "profiles":
		if err := profilesCmd.Parse(args[2:]); err != nil {
			if err == flag.ErrHelp {
				return errHelp
			}
			return err
		}
		return cli.listProfiles(*profilesJSON || !isTerminalFunc())
	default:
		cli.printUsage()
		return errHelp
	}
}
