package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/userlist"
	"github.com/utafrali/ApartmentAdmin/pkg/pagination"
)

func (c *CLI) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and manage resident accounts",
	}
	cmd.AddCommand(
		c.usersListCommand(),
		c.usersGetCommand(),
		c.usersCreateCommand(),
		c.usersUpdateCommand(),
		c.usersStatusCommand("approve", domain.StatusApproved),
		c.usersStatusCommand("reject", domain.StatusRejected),
		c.usersDeleteCommand(),
	)
	return cmd
}

func (c *CLI) usersListCommand() *cobra.Command {
	var (
		view    string
		status  string
		keyword string
		page    int
		perPage int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of the users table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			list := a.NewUserList()

			if view != "" {
				q, err := url.ParseQuery(view)
				if err != nil {
					return fmt.Errorf("parse --view: %w", err)
				}
				list.FromQuery(q)
			}
			flags := cmd.Flags()
			if flags.Changed("status") {
				f, err := userlist.ParseStatusFilter(status)
				if err != nil {
					return err
				}
				if err := list.SetStatus(f); err != nil {
					return err
				}
			}
			if flags.Changed("q") {
				list.SetKeyword(keyword)
			}
			if flags.Changed("per-page") {
				if err := list.SetPageSize(perPage); err != nil {
					return err
				}
			}
			if flags.Changed("page") {
				if err := list.SetPageIndex(page - 1); err != nil {
					return err
				}
			}

			res, _, err := list.Load(cmd.Context())
			if err != nil {
				return err
			}
			highlight, _ := list.Highlighted()

			out := cmd.OutOrStdout()
			tw := table(out)
			fmt.Fprintln(tw, " \tID\tNAME\tPHONE\tROLE\tSTATUS")
			for _, u := range res.Data {
				mark := " "
				if !highlight.IsZero() && u.ID == highlight {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", mark, u.ID, orDash(u.FullName()), u.Phone, u.Role, u.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			params := list.Params()
			fmt.Fprintf(out, "Page %d of %d, %d users\n", params.Page, max(pagination.TotalPages(res.Total, params.PerPage), 1), res.Total)
			if q := list.ToQuery(); len(q) > 0 {
				fmt.Fprintf(out, "View: %s\n", q.Encode())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "restore a view printed by a previous listing")
	cmd.Flags().StringVar(&status, "status", string(userlist.FilterAll), "all, pending, approved or rejected")
	cmd.Flags().StringVar(&keyword, "q", "", "search names, username and phone")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", userlist.DefaultPageSize, "rows per page: 5, 10, 25 or 50")
	return cmd
}

func (c *CLI) usersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			u, err := a.NewUserList().Get(cmd.Context(), idArg(args))
			if err != nil {
				return err
			}
			return printUser(cmd, u)
		},
	}
}

func printUser(cmd *cobra.Command, u *domain.User) error {
	tw := table(cmd.OutOrStdout())
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", orDash(u.FullName()))
	fmt.Fprintf(tw, "Username:\t%s\n", orDash(u.Username))
	fmt.Fprintf(tw, "Phone:\t%s\n", u.Phone)
	fmt.Fprintf(tw, "Email:\t%s\n", orDash(u.Email))
	fmt.Fprintf(tw, "Date of birth:\t%s\n", orDash(u.DateOfBirth))
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "Status:\t%s\n", u.Status)
	if u.PersonalPhoto != nil {
		fmt.Fprintf(tw, "Personal photo:\t%s\n", orDash(u.PersonalPhoto.URL))
	}
	if u.IDPhoto != nil {
		fmt.Fprintf(tw, "ID photo:\t%s\n", orDash(u.IDPhoto.URL))
	}
	return tw.Flush()
}

func (c *CLI) usersCreateCommand() *cobra.Command {
	var (
		in            domain.CreateUserInput
		role          string
		personalPhoto string
		idPhoto       string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new resident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			in.Role = domain.Role(role)
			in.PersonalPhotoID = domain.FlexID(personalPhoto)
			in.IDPhotoID = domain.FlexID(idPhoto)

			u, err := a.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.ID, u.Status)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.Username, "username", "", "username")
	f.StringVar(&in.Phone, "phone", "", "phone number, 9639 followed by eight digits")
	f.StringVar(&in.Password, "password", "", "initial password")
	f.StringVar(&in.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&role, "role", string(domain.RoleUser), "user or admin")
	f.StringVar(&personalPhoto, "personal-photo", "", "media id of the personal photo")
	f.StringVar(&idPhoto, "id-photo", "", "media id of the ID document photo")
	return cmd
}

func (c *CLI) usersUpdateCommand() *cobra.Command {
	var firstName, lastName, username, phone, role, status, dob string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a user; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			in := domain.UpdateUserInput{
				ID:          idArg(args),
				FirstName:   changed(flags, "first-name", firstName),
				LastName:    changed(flags, "last-name", lastName),
				Username:    changed(flags, "username", username),
				Phone:       changed(flags, "phone", phone),
				DateOfBirth: changed(flags, "dob", dob),
			}
			if flags.Changed("role") {
				r := domain.Role(role)
				in.Role = &r
			}
			if flags.Changed("status") {
				s := domain.Status(status)
				in.Status = &s
			}

			u, err := a.Users.Update(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printUser(cmd, u)
		},
	}
	f := cmd.Flags()
	f.StringVar(&firstName, "first-name", "", "first name")
	f.StringVar(&lastName, "last-name", "", "last name")
	f.StringVar(&username, "username", "", "username")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&dob, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&role, "role", "", "user or admin")
	f.StringVar(&status, "status", "", "pending, approved or rejected")
	return cmd
}

// changed returns a pointer to v when the flag was set on the command line.
func changed(flags *pflag.FlagSet, name, v string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}

func (c *CLI) usersStatusCommand(verb string, status domain.Status) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID",
		Short: fmt.Sprintf("Mark a user as %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			list := a.NewUserList()
			id := idArg(args)

			var u *domain.User
			if status == domain.StatusApproved {
				u, err = list.Approve(cmd.Context(), id)
			} else {
				u, err = list.Reject(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s\n", u.ID, u.Status)
			return nil
		},
	}
}

func (c *CLI) usersDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.admin(cmd)
			if err != nil {
				return err
			}
			list := a.NewUserList()
			id := idArg(args)
			if err := list.RequestDelete(id); err != nil {
				return err
			}

			if !yes {
				ok, err := c.confirm(cmd, fmt.Sprintf("Delete user %s?", id))
				if err != nil {
					list.CancelDelete()
					return err
				}
				if !ok {
					list.CancelDelete()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := list.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}
