// snofctl is an operator tool for inspecting and maintaining a .snof record
// file directly, without going through the HTTP surface.
//
// Usage:
//
//	snofctl -f users.database.snof list
//	snofctl -f users.database.snof add -u alice -e a@x.com
//	snofctl -f users.database.snof check -u alice
//
// add and check prompt for the password without echoing it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/snoofz/snofbase/internal/server/auth"
	"github.com/snoofz/snofbase/internal/server/directory"
	"github.com/snoofz/snofbase/internal/snof"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "snofctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("snofctl", flag.ExitOnError)
	file := fs.String("f", "users.database.snof", "record database file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("missing command (list, add, check)")
	}

	dir := directory.New(snof.NewStore(*file))

	switch rest[0] {
	case "list":
		return list(dir)
	case "add":
		return add(dir, rest[1:])
	case "check":
		return check(dir, rest[1:])
	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func list(dir *directory.Directory) error {
	records, err := dir.All(context.Background())
	if err != nil {
		return err
	}

	for _, rec := range records {
		username, _ := rec.Get(snof.FieldUsername)
		email, _ := rec.Get(snof.FieldEmail)
		flags := ""
		if rec.Has(snof.FieldAvatar) {
			flags += " pfp"
		}
		if rec.Has(snof.FieldResetToken) {
			flags += " reset-pending"
		}
		fmt.Printf("%-20s %-30s%s\n", username, email, flags)
	}
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}

func add(dir *directory.Directory, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	username := fs.String("u", "", "username (required)")
	email := fs.String("e", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("add: -u is required")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(0)
	digest, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	rec := snof.NewRecord(
		snof.Field{Key: snof.FieldUsername, Value: *username},
		snof.Field{Key: snof.FieldPassword, Value: digest},
	)
	if *email != "" {
		rec.Set(snof.FieldEmail, *email)
	}

	if err := dir.InsertIfAbsent(context.Background(), rec); err != nil {
		return fmt.Errorf("adding %q: %w", *username, err)
	}
	fmt.Printf("added %q\n", *username)
	return nil
}

func check(dir *directory.Directory, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	username := fs.String("u", "", "username (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("check: -u is required")
	}

	rec, found, err := dir.FindByUsername(context.Background(), *username)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no record for %q", *username)
	}
	digest, ok := rec.Get(snof.FieldPassword)
	if !ok {
		return fmt.Errorf("record %q has no password", *username)
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	match, err := auth.NewBcryptHasher(0).Verify(password, digest)
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("password does not match")
	}
	fmt.Println("password ok")
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
