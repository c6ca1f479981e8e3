package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/bolingo/apps/di"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNoDatabase    = errors.New("migrations need the postgres storage")
	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	c   *di.Container
	db  *sql.DB // nil with the memory storage
	out io.Writer
}

func newCommandLine(c *di.Container, out io.Writer) *commandLine {
	cli := &commandLine{c: c, out: out}
	if c.SQLDB != nil {
		cli.db = c.SQLDB.DB
	}
	return cli
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.c.Conf.AppName + " administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCatalogCmd(),
	)
	return root
}

// run executes the command line args (program name included).
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}

	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(cli.out, "\nerror: %s\n", err)
	}
	return err
}

// readPassword prompts for a password without echoing it.
func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}
