package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	acad *academy.Academy
	out  io.Writer
	// migrations need a real database; nil on the memory engine
	migrator func(command string, args ...string) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  resetpassword -role student|teacher -id ID - set an account's password; an empty password resets it to the mobile number")
	fmt.Fprintln(cli.out, "  hashpassword - print the bcrypt hash to configure as the administrator password")
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordRole := resetPasswordCmd.String("role", auth.RoleStudent, "The account's role: student or teacher.")
	resetPasswordID := resetPasswordCmd.String("id", "", "The account's id. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordID == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password (empty to reset to the mobile number):")
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordRole, *resetPasswordID, pwd)

	case "hashpassword":
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cli.printUsage()
			return errHelp
		}
		hash, err := auth.HashAdminPassword(pwd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, hash)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
