package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/ApartmentAdmin/internal/app"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/service"
	"github.com/utafrali/ApartmentAdmin/internal/userlist"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/pagination"
)

func (c *CLI) dashboardCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the system counters and unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			data, _, err := a.System.Data(ctx)
			if err != nil {
				return err
			}
			unread, _, err := a.Notifications.UnreadCount(ctx)
			if err != nil {
				return err
			}

			tw := table(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Users:\t%d\n", data.UsersCount)
			fmt.Fprintf(tw, "Apartments:\t%d\n", data.ApartmentsCount)
			fmt.Fprintf(tw, "Reservations:\t%d\n", data.ReservationsCount)
			fmt.Fprintf(tw, "Unread notifications:\t%d\n", unread)
			if err := tw.Flush(); err != nil {
				return err
			}

			if watch {
				return c.watchUnread(cmd, a, unread)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling the unread counter until interrupted")
	return cmd
}

// watchUnread prints the unread counter whenever it changes until the
// command is interrupted.
func (c *CLI) watchUnread(cmd *cobra.Command, a *app.App, last int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	metricsErr := make(chan error, 1)
	go func() { metricsErr <- a.ServeMetrics(ctx) }()

	out := cmd.OutOrStdout()
	a.Notifications.WatchUnread(ctx, c.cfg.PollInterval, func(count int, err error) {
		if err != nil {
			return
		}
		if count != last {
			fmt.Fprintf(out, "%s  unread notifications: %d\n", time.Now().Format(time.TimeOnly), count)
			last = count
		}
	})
	cancel()
	return <-metricsErr
}

func (c *CLI) notificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read the admin inbox",
	}
	cmd.AddCommand(
		c.notificationsListCommand(),
		c.notificationsUnreadCommand(),
		c.notificationsOpenCommand(),
		c.notificationsReadAllCommand(),
	)
	return cmd
}

func (c *CLI) notificationsListCommand() *cobra.Command {
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}

			res, _, err := a.Notifications.List(cmd.Context(), page, perPage)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := table(out)
			fmt.Fprintln(tw, " \tID\tTITLE\tRECEIVED")
			for _, n := range res.Data {
				mark := "*"
				if n.IsRead() {
					mark = " "
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, n.ID, orDash(n.Title), n.CreatedAt.Local().Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Page %d of %d, %d notifications\n", res.Page, max(pagination.TotalPages(res.Total, res.PerPage), 1), res.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", service.DefaultNotificationPage, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultNotificationPerPage, "notifications per page")
	return cmd
}

func (c *CLI) notificationsUnreadCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Show the unread counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			count, _, err := a.Notifications.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			if watch {
				return c.watchUnread(cmd, a, count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until interrupted")
	return cmd
}

func (c *CLI) notificationsOpenCommand() *cobra.Command {
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "open ID",
		Short: "Mark a notification read and show what it points at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			ctx := cmd.Context()
			id := idArg(args)

			res, _, err := a.Notifications.List(ctx, page, perPage)
			if err != nil {
				return err
			}
			var found *domain.Notification
			for i := range res.Data {
				if res.Data[i].ID == id {
					found = &res.Data[i]
					break
				}
			}
			if found == nil {
				return apperrors.NotFound("notification", id.String())
			}

			userID, linked, err := a.Notifications.Open(ctx, *found)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, orDash(found.Title))
			if found.Body != "" {
				fmt.Fprintln(out, found.Body)
			}
			if !linked {
				return nil
			}

			list := a.NewUserList()
			list.Highlight(userID)
			fmt.Fprintf(out, "Linked user: %s (adminctl users list --view '%s')\n", userID, list.ToQuery().Encode())
			if !a.Session.IsAdmin() {
				return nil
			}
			u, err := list.Get(ctx, userID)
			if err != nil {
				return err
			}
			return printUser(cmd, u)
		},
	}
	cmd.Flags().IntVar(&page, "page", service.DefaultNotificationPage, "page the notification is on")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultNotificationPerPage, "notifications per page")
	return cmd
}

func (c *CLI) notificationsReadAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			return a.Notifications.MarkAllRead(cmd.Context())
		},
	}
}

func (c *CLI) mediaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Upload and list media files",
	}

	var page, perPage int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show uploaded media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			res, _, err := a.Media.List(cmd.Context(), domain.ListParams{Page: page, PerPage: perPage})
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tFOR\tURL")
			for _, m := range res.Data {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, orDash(m.For), m.URL)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&perPage, "per-page", userlist.DefaultPageSize, "files per page")

	upload := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file and print its media id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer f.Close()

			m, err := a.Media.Upload(cmd.Context(), service.Upload{FileName: filepath.Base(f.Name()), Content: f})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as media %s (%s)\n", filepath.Base(f.Name()), m.ID, m.URL)
			return nil
		},
	}

	cmd.AddCommand(list, upload)
	return cmd
}
