package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wilhg/persephone/pkg/model"
)

// PasswordEnv supplies the password when --password is not given.
const PasswordEnv = "PERSEPHONE_PASSWORD"

func passwordOr(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(PasswordEnv)
}

func newLoginCmd(g *globals) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				a.coord.Login(cmd.Context(), a.store, email, passwordOr(password))
				u := a.store.State().User
				if u.Error != nil {
					return a.out.Fault(u.Error)
				}
				a.out.User(u)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (default $"+PasswordEnv+")")
	return cmd
}

func newSignupCmd(g *globals) *cobra.Command {
	var form model.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				form.Password = passwordOr(form.Password)
				a.coord.Signup(cmd.Context(), a.store, form)
				s := a.store.State().Signup
				if s.Error != nil {
					return a.out.Fault(s.Error)
				}
				a.out.User(s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (default $"+PasswordEnv+")")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				a.coord.Logout(cmd.Context(), a.store)
				a.out.User(a.store.State().User)
				return nil
			})
		},
	}
}

func newThemeCmd(g *globals) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the light and dark theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				if !show {
					a.coord.ToggleTheme(cmd.Context(), a.store)
				}
				a.out.Theme(a.store.State().Theme)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the current theme without toggling")
	return cmd
}
