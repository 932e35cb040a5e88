// Command approvalctl administers accounts directly against the configured
// store: it bootstraps admin accounts and approves pending registrations.
//
// Usage:
//
//	approvalctl create-admin -username NAME -email ADDR -phone NUMBER
//	approvalctl list-pending
//	approvalctl approve ID
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/msomdec/approval-gate/internal/config"
	"github.com/msomdec/approval-gate/internal/notify"
	"github.com/msomdec/approval-gate/internal/repository"
	"github.com/msomdec/approval-gate/internal/service"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errUsage = errors.New("usage: approvalctl create-admin|list-pending|approve <id>")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type command func(ctx context.Context, accounts *service.AccountService, args []string, out io.Writer) error

var commands = map[string]command{
	"create-admin": createAdmin,
	"list-pending": listPending,
	"approve":      approve,
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	accounts := service.NewAccountService(
		store.Users(),
		service.NewBcryptHasher(cfg.BcryptCost),
		service.NewJWTIssuer(cfg.JWTSecret),
		notify.NewLogNotifier(cfg.AdminEmail),
		service.WithPhoneRegion(cfg.PhoneRegion),
	)
	return cmd(ctx, accounts, args[1:], out)
}

func createAdmin(ctx context.Context, accounts *service.AccountService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "admin username")
	email := fs.String("email", "", "admin email address")
	phone := fs.String("phone", "", "admin phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := promptPassword(out, "Enter password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(out, "Confirm password: ")
	if err != nil {
		return err
	}
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	user, err := accounts.CreateAdmin(ctx, *username, *email, *phone, string(password))
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "created admin %s (%s)\n", user.Username, user.ID)
	return nil
}

func listPending(ctx context.Context, accounts *service.AccountService, args []string, out io.Writer) error {
	if len(args) != 0 {
		return errUsage
	}

	users, err := accounts.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "no pending registrations")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tPHONE\tREGISTERED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.PhoneNumber, u.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func approve(ctx context.Context, accounts *service.AccountService, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}

	user, err := accounts.Approve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("approve %s: %w", args[0], err)
	}

	fmt.Fprintf(out, "approved %s (%s)\n", user.Username, user.ID)
	return nil
}

func promptPassword(out io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
