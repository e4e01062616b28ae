// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/client"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// readPassword is replaced in tests.
var readPassword = func() (string, error) {
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	return string(pw), err
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "accountctl",
		Usage: "Manage accounts through the accountd API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Value:   "http://localhost:8080",
				Usage:   "Base URL of the accountd service",
				Sources: cli.EnvVars("ACCOUNTD_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "auth",
				Aliases: []string{"a"},
				Value:   "application:secret",
				Usage:   "Application key (name:secret)",
				Sources: cli.EnvVars("ACCOUNTD_AUTH"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Request timeout",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log requests",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelWarn
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(cmd.Root().ErrWriter, &tint.Options{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "add-user",
				Usage:     "Create a user from a JSON file ({email, password, properties})",
				ArgsUsage: "<file.json>",
				Action:    addUser,
			},
			{
				Name:      "get-user",
				Usage:     "Show a user",
				ArgsUsage: "<email> [password]",
				Action:    getUser,
			},
			{
				Name:      "delete-user",
				Usage:     "Delete a user",
				ArgsUsage: "<email> [password]",
				Action:    deleteUser,
			},
		},
	}
}

func newClient(cmd *cli.Command) (*client.Client, error) {
	return client.New(cmd.String("endpoint"), cmd.String("auth"), cmd.Duration("timeout"))
}

func addUser(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one argument: <file.json>")
	}
	path := cmd.Args().First()

	body, err := os.ReadFile(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !json.Valid(body) {
		return fmt.Errorf("%s does not contain valid JSON", path)
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	slog.Debug("creating user", "endpoint", cmd.String("endpoint"), "file", path)
	out, err := c.CreateUser(ctx, body)
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, out)
}

// credentials returns the email argument and the password argument, prompting
// for the password when it was not given.
func credentials(cmd *cli.Command) (string, string, error) {
	args := cmd.Args()
	if args.Len() < 1 || args.Len() > 2 {
		return "", "", fmt.Errorf("expected arguments: <email> [password]")
	}
	email, password := args.Get(0), args.Get(1)
	if password == "" {
		if _, err := fmt.Fprint(cmd.Root().ErrWriter, "Enter password: "); err != nil {
			return "", "", err
		}
		pw, err := readPassword()
		_, _ = fmt.Fprintln(cmd.Root().ErrWriter)
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = pw
	}
	return email, password, nil
}

func getUser(ctx context.Context, cmd *cli.Command) error {
	email, password, err := credentials(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	slog.Debug("fetching user", "email", email)
	out, err := c.GetUser(ctx, email, password)
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, out)
}

func deleteUser(ctx context.Context, cmd *cli.Command) error {
	email, password, err := credentials(cmd)
	if err != nil {
		return err
	}
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	slog.Debug("deleting user", "email", email)
	out, err := c.DeleteUser(ctx, email, password)
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, out)
}

func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = w.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
