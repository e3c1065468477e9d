package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			a.v.Set("token", "")
			resp, err := a.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			path, err := a.configPath()
			if err != nil {
				return err
			}
			a.v.Set("token", resp.Token.AccessToken)
			if err := a.v.WriteConfigAs(path); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Logged in as %s <%s>\n", color.New(color.FgGreen).Sprint("OK"), resp.User.Name, resp.User.Email)
			fmt.Fprintf(out, "Token saved to %s (expires in %ds)\n", path, resp.Token.ExpiresIn)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			if err := a.client().Logout(cmd.Context()); err != nil {
				return err
			}

			path, err := a.configPath()
			if err != nil {
				return err
			}
			a.v.Set("token", "")
			if err := a.v.WriteConfigAs(path); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Logged out\n", color.New(color.FgGreen).Sprint("OK"))
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user behind the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			u, err := a.client().Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n  id: %s\n", u.Name, u.Email, u.ID)
			return nil
		},
	}
}
