package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
)

func (c *CLI) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your own account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			u, _, err := a.Profile.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printUser(cmd, u)
		},
	}

	var firstName, lastName, email, phone string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name, email or phone; only the given flags are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			flags := cmd.Flags()
			in := domain.ProfileUpdate{
				FirstName: changed(flags, "first-name", firstName),
				LastName:  changed(flags, "last-name", lastName),
				Email:     changed(flags, "email", email),
				Phone:     changed(flags, "phone", phone),
			}
			if in == (domain.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update, pass at least one flag")
			}

			u, err := a.Profile.Update(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printUser(cmd, u)
		},
	}
	f := update.Flags()
	f.StringVar(&firstName, "first-name", "", "first name")
	f.StringVar(&lastName, "last-name", "", "last name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&phone, "phone", "", "phone number")

	cmd.AddCommand(update)
	return cmd
}

func (c *CLI) prefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the display mode and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Mode:\t%s\n", a.Prefs.Mode())
			fmt.Fprintf(tw, "Language:\t%s\n", a.Prefs.Language())
			return tw.Flush()
		},
	}

	mode := &cobra.Command{
		Use:   "toggle-mode",
		Short: "Switch between light and dark mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			next, err := a.Prefs.ToggleMode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mode: %s\n", next)
			return nil
		},
	}

	language := &cobra.Command{
		Use:   "language LANG",
		Short: "Set the language sent to the API, e.g. en or ar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Prefs.SetLanguage(cmd.Context(), args[0]); err != nil {
				return err
			}
			// Cached responses carry messages in the previous language.
			a.Cache.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "Language: %s\n", a.Prefs.Language())
			return nil
		},
	}

	cmd.AddCommand(mode, language)
	return cmd
}
