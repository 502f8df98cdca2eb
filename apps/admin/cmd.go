package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/tutor/core/tutor"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc tutor.Service
	db  *sql.DB // nil unless the postgres driver is used
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  check - check the record store and look for shared passwords")
	fmt.Fprintln(cli.out, "  whoami - tell who a password logs in as (prompted)")
	fmt.Fprintln(cli.out, "  report -name NAME [-month YYYY-MM] - monthly metrics of a student")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run postgres migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportCmd.SetOutput(cli.out)
	reportName := reportCmd.String("name", "", "The student's name.")
	reportMonth := reportCmd.String("month", "", "The month as YYYY-MM (default: current month).")

	switch args[1] {
	case "check":
		return cli.check()
	case "whoami":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.whoami(string(pwd))
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportName == "" {
			reportCmd.Usage()
			return errHelp
		}
		return cli.report(*reportName, *reportMonth)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
