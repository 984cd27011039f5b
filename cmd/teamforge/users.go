// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/teamforge/teamforge/internal/auth"
)

// NewUsersCmd creates the users command.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var (
		email string
		role  string
	)
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			password, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			user, err := a.auth.Register(ctx, auth.RegisterRequest{
				Username: args[0],
				Email:    email,
				Password: password,
				Role:     auth.Role(role),
			}).Unpack()
			if err != nil {
				return err
			}
			cmd.Printf("Created user %s (%s)\n", user.Username, user.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&email, "email", "", "email address")
	add.Flags().StringVar(&role, "role", string(auth.RoleMember), "role (member or admin)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "request-reset <email>",
		Short: "Start a password reset and print the one-time token",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			token, err := a.resets.RequestReset(ctx, args[0]).Unpack()
			if err != nil {
				return err
			}
			if token == "" {
				cmd.Println("No account uses that email address")
				return nil
			}
			cmd.Println(token)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-password <token>",
		Short: "Complete a password reset; the new password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			password, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if _, err := a.resets.ResetPassword(ctx, args[0], password).Unpack(); err != nil {
				return err
			}
			cmd.Println("Password updated; existing sessions were revoked")
			return nil
		}),
	})

	return cmd
}

// readSecret reads the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INPUT_READ_FAILED").Wrap(err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", oops.Code("INVALID_ARGUMENT").Errorf("password must be provided on stdin")
	}
	return line, nil
}
