package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/identity"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	migrateFunc func(command string, args ...string) error
	identitySvc *identity.Service
	accountSvc  *account.Service
	passwords   *credential.Generator
	validate    *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, up-to VERSION, ...)")
	fmt.Println("  addschool -email EMAIL -name NAME [-city CITY] - register a school and its administrator")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password")
	fmt.Println("  genpassword -first FIRST -last LAST [-discriminator D] - print a default password")
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolEmail := addSchoolCmd.String("email", "", "The administrator's email. The password will be prompted next.")
	addSchoolName := addSchoolCmd.String("name", "", "The school's name.")
	addSchoolCity := addSchoolCmd.String("city", "", "The school's city.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	genPasswordCmd := flag.NewFlagSet("genpassword", flag.ContinueOnError)
	genPasswordFirst := genPasswordCmd.String("first", "", "The first name.")
	genPasswordLast := genPasswordCmd.String("last", "", "The last name.")
	genPasswordDisc := genPasswordCmd.String("discriminator", "", "A registration number or class name.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrateFunc(args[2], args[3:]...)

	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolEmail == "" || *addSchoolName == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolEmail, pwd, *addSchoolName, *addSchoolCity)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "genpassword":
		if err := genPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genPasswordFirst == "" || *genPasswordLast == "" {
			genPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.passwords.Generate(*genPasswordFirst, *genPasswordLast, *genPasswordDisc)
		if err != nil {
			return err
		}
		fmt.Println(pwd)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
