// Package cli implements the adminctl commands on top of the wired console.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/app"
	"github.com/utafrali/ApartmentAdmin/internal/config"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

const flushTimeout = 5 * time.Second

// Builder constructs the console. Notifications are written to notices.
type Builder func(ctx context.Context, notices io.Writer) (*app.App, error)

// CLI owns the command tree and the console it drives. The console is built
// on first use so commands such as mock-server never touch the session.
type CLI struct {
	cfg    *config.Config
	logger *slog.Logger
	build  Builder

	app    *app.App
	reader *bufio.Reader
}

// New creates the CLI.
func New(cfg *config.Config, logger *slog.Logger, build Builder) *CLI {
	return &CLI{cfg: cfg, logger: logger, build: build}
}

// Command returns the root command.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Administer apartment residents from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx := logger.WithCommand(cmd.Context(), cmd.CommandPath())
			ctx = logger.WithCorrelationID(ctx, uuid.NewString())
			cmd.SetContext(ctx)
			c.reader = bufio.NewReader(cmd.InOrStdin())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), flushTimeout)
			defer cancel()
			return c.Flush(ctx)
		},
	}

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.passwordResetCommand(),
		c.dashboardCommand(),
		c.usersCommand(),
		c.profileCommand(),
		c.notificationsCommand(),
		c.mediaCommand(),
		c.prefsCommand(),
		c.doctorCommand(),
		c.mockServerCommand(),
	)
	return root
}

// console returns the wired app, building it on first use.
func (c *CLI) console(cmd *cobra.Command) (*app.App, error) {
	if c.app == nil {
		a, err := c.build(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		c.app = a
	}
	if u, ok := c.app.Session.UserInfo(); ok {
		cmd.SetContext(logger.WithUserID(cmd.Context(), u.ID.String()))
	}
	return c.app, nil
}

// admin returns the app after checking that an admin is signed in.
func (c *CLI) admin(cmd *cobra.Command) (*app.App, error) {
	a, err := c.console(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.Session.RequireAdmin(); err != nil {
		return nil, err
	}
	return a, nil
}

// Flush waits for pending notifications to be written.
func (c *CLI) Flush(ctx context.Context) error {
	if c.app == nil {
		return nil
	}
	return c.app.Bus.Flush(ctx)
}

// Close releases the console.
func (c *CLI) Close(ctx context.Context) error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close(ctx)
	c.app = nil
	return err
}

// prompt reads one trimmed line from the command's input.
func (c *CLI) prompt(cmd *cobra.Command, label string) (string, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := c.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. Anything but y or yes is no.
func (c *CLI) confirm(cmd *cobra.Command, question string) (bool, error) {
	answer, err := c.prompt(cmd, question+" [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func idArg(args []string) domain.FlexID {
	return domain.FlexID(strings.TrimSpace(args[0]))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Report prints err for the operator unless it was already shown as a
// notification by the API client.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	var netErr *apiclient.NetworkError
	var srvErr *apiclient.ServerError
	if errors.As(err, &netErr) || errors.As(err, &srvErr) {
		return
	}
	fmt.Fprintln(w, "Error:", ErrorText(err))
}

// ErrorText is the operator-facing text of err.
func ErrorText(err error) string {
	var (
		valErr *validator.ValidationError
		appErr *apperrors.AppError
		netErr *apiclient.NetworkError
		srvErr *apiclient.ServerError
	)
	if errors.As(err, &valErr) || errors.As(err, &appErr) || errors.As(err, &netErr) || errors.As(err, &srvErr) {
		return apiclient.Message(err)
	}
	return err.Error()
}
