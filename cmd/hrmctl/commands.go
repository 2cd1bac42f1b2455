package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cityhr/internal/app/server"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/reports"
	"cityhr/internal/platform/config"
	"cityhr/internal/platform/db"
	"cityhr/internal/platform/export"
	"cityhr/internal/platform/ocr"
)

func withApp(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, app *server.App) error) error {
	ctx := cmd.Context()
	app, err := server.New(ctx, *cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app, err := server.New(ctx, *cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides APP_ADDR")
	return cmd
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			conn, err := db.Open(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			if seed {
				return db.Seed(cmd.Context(), conn, *cfg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "also create the default administrator and leave types")
	return cmd
}

func newBackupCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the database file into the backup directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, app *server.App) error {
				b, err := app.Services.System.Backup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", b.Path, b.SizeBytes)
				if b.StoredRef != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "stored as %s\n", b.StoredRef)
				}
				return nil
			})
		},
	}
}

func newRestoreCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the database with a backup file or a name from the backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(_ context.Context, app *server.App) error {
				restore := app.Services.System.RestoreNamed
				if _, err := os.Stat(args[0]); err == nil {
					restore = app.Services.System.Restore
				}
				res, err := restore(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s, restart the server to use it\n", res.Source)
				return nil
			})
		},
	}
}

func newUserCmd(cfg *config.Config) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage application accounts"}

	var role, password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}
			return withApp(cmd, cfg, func(ctx context.Context, app *server.App) error {
				u, err := app.Services.Auth.CreateUser(ctx, auth.NewUser{Username: args[0], Password: password, Role: role})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Username, u.Role)
				return nil
			})
		},
	}
	add.Flags().StringVar(&role, "role", auth.RoleUser, "account role: admin or user")
	add.Flags().StringVar(&password, "password", "", "password; prompted for when omitted")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, app *server.App) error {
				users, err := app.Services.Auth.ListUsers(ctx)
				if err != nil {
					return err
				}
				for _, u := range users {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Username, u.Role)
				}
				return nil
			})
		},
	}
	user.AddCommand(add, list)
	return user
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password on standard input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	var req reports.Request
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a PDF or Excel report into the reports directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, app *server.App) error {
				gen, err := app.Services.Reports.Generate(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), gen.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Kind, "kind", reports.KindStaffList, "one of "+strings.Join(reports.Kinds, ", "))
	cmd.Flags().StringVar(&req.Format, "format", export.FormatPDF, "one of "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVar(&req.EmployeeID, "employee", "", "employee ID for the employee sheet")
	cmd.Flags().IntVar(&req.Year, "year", 0, "reference year, defaults to the current year")
	return cmd
}

func newOCRCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "ocr <file>",
		Short: "Extract text from a scanned image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := ocr.New(*cfg).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			return os.WriteFile(out, []byte(text+"\n"), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the text to this file instead of standard output")
	return cmd
}
