package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errSharedPasswords = errors.New("some students share a password")

// check pings the store and lists students sharing a password (they cannot log in).
func (cli *commandLine) check() error {
	ctx := context.Background()
	if err := cli.svc.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "record store: OK")

	groups, err := cli.svc.FindDuplicatePasswords(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(cli.out, "passwords: OK")
		return nil
	}
	for _, names := range groups {
		fmt.Fprintf(cli.out, "shared password: %s\n", strings.Join(names, ", "))
	}
	return errSharedPasswords
}

func (cli *commandLine) whoami(pwd string) error {
	id, err := cli.svc.Login(context.Background(), pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s (%s)\n", id.Name, id.Role)
	return nil
}

var nowFunc = time.Now // mockable

func (cli *commandLine) report(name, month string) error {
	ref := nowFunc()
	if month != "" {
		var err error
		if ref, err = time.Parse("2006-01", month); err != nil {
			return fmt.Errorf("invalid month %q: must be formatted as YYYY-MM", month)
		}
	}
	m, err := cli.svc.MonthlyReport(context.Background(), name, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s %s\n", name, m.Month)
	fmt.Fprintf(cli.out, "  study time: %s\n", m.TotalDisplay())
	fmt.Fprintf(cli.out, "  homework completion: %s\n", m.RateDisplay())
	if m.Skipped > 0 {
		fmt.Fprintf(cli.out, "  malformed rows skipped: %d\n", m.Skipped)
	}
	return nil
}
