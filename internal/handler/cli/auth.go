package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/otp"
)

// maxAttempts bounds the retries of one password-reset step.
const maxAttempts = 3

func (c *CLI) loginCommand() *cobra.Command {
	var phone, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with phone number and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireGuest(); err != nil {
				return err
			}
			if phone == "" {
				if phone, err = c.prompt(cmd, "Phone: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = c.prompt(cmd, "Password: "); err != nil {
					return err
				}
			}

			res, err := a.Auth.Login(cmd.Context(), domain.LoginInput{Phone: phone, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", orDash(res.User.Name), res.User.EffectiveRole())
			return nil
		},
	}
	cmd.Flags().StringVarP(&phone, "phone", "p", "", "phone number, prompted when omitted")
	cmd.Flags().StringVar(&password, "password", "", "password, prompted when omitted")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if !a.Session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err := a.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.RequireAuthenticated(); err != nil {
				return err
			}
			u, _ := a.Session.UserInfo()

			tw := table(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Name:\t%s\n", orDash(u.Name))
			fmt.Fprintf(tw, "Phone:\t%s\n", orDash(u.Phone))
			fmt.Fprintf(tw, "Email:\t%s\n", orDash(u.Email))
			fmt.Fprintf(tw, "Role:\t%s\n", u.EffectiveRole())
			if exp, ok := a.Session.TokenExpiry(); ok {
				fmt.Fprintf(tw, "Token expires:\t%s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
			}
			return tw.Flush()
		},
	}
}

func (c *CLI) passwordResetCommand() *cobra.Command {
	var phone, code, password string
	cmd := &cobra.Command{
		Use:   "password-reset",
		Short: "Reset a password with a one-time code sent by SMS",
		Long: "Walks through the three steps of the reset: request a code, verify it, set the new password.\n" +
			"Values not given as flags are prompted for. An empty code returns to the first step.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			flow := a.NewPasswordReset()
			ctx := cmd.Context()

			// take uses a flag value once, then falls back to prompting.
			take := func(v *string, label string) (string, error) {
				if *v != "" {
					s := *v
					*v = ""
					return s, nil
				}
				return c.prompt(cmd, label)
			}

			attempts := 0
			for flow.Step() != otp.StepCompleted {
				step := flow.Step()
				var err error
				switch step {
				case otp.StepRequestCode:
					var p string
					if p, err = take(&phone, "Phone: "); err != nil {
						return err
					}
					err = flow.SendCode(ctx, p)
				case otp.StepAwaitingVerification:
					var v string
					if v, err = take(&code, "Code (empty to start over): "); err != nil {
						return err
					}
					if v == "" {
						if err := flow.Back(); err != nil {
							return err
						}
						continue
					}
					err = flow.Verify(ctx, v)
				case otp.StepSetNewPassword:
					given := password != ""
					var pw, confirmation string
					if pw, err = take(&password, "New password: "); err != nil {
						return err
					}
					confirmation = pw
					if !given {
						if confirmation, err = c.prompt(cmd, "Confirm password: "); err != nil {
							return err
						}
					}
					err = flow.ResetPassword(ctx, pw, confirmation)
				}

				if err == nil {
					attempts = 0
					continue
				}
				if errors.Is(err, otp.ErrBusy) || errors.Is(err, otp.ErrWrongStep) {
					return err
				}
				Report(cmd.ErrOrStderr(), err)
				if attempts++; attempts >= maxAttempts {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password changed. Sign in with `adminctl login`.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&phone, "phone", "p", "", "phone number of the account")
	cmd.Flags().StringVar(&code, "code", "", "one-time code received by SMS")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}
