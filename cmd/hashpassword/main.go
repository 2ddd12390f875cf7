/*
Command hashpassword prints an argon2id hash suitable for ADMIN_PASSWORD_HASH.
*/
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/adampresley/photogallery/pkg/services"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		err      error
		password string
		hash     string
	)

	fs := flag.NewFlagSet("hashpassword", flag.ContinueOnError)
	fromEnv := fs.Bool("env", false, "read the password from ADMIN_PASSWORD instead of prompting")

	if err = fs.Parse(args); err != nil {
		return err
	}

	if *fromEnv {
		password = os.Getenv("ADMIN_PASSWORD")
	} else if password, err = promptPassword(); err != nil {
		return err
	}

	if password == "" {
		return errors.New("password cannot be empty")
	}

	if hash, err = services.HashPassword(password, services.DefaultArgon2Params()); err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')

		if err != nil && line == "" {
			return "", err
		}

		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	return strings.TrimSpace(string(first)), nil
}
