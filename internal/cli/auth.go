package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/output"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

// passwordEnv - пароль можно передать через окружение, а не флагом.
const passwordEnv = "SLIDES_PASSWORD"

func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if _, err := c.client.Router.Navigate(ctx, c.client.Router.LoginPath()); err != nil {
				return err
			}

			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			u, resumed, err := c.client.Login(ctx, models.LoginRequest{Username: username, Password: pw})
			if err != nil {
				return credentialHint(c, err)
			}

			c.printer.Success("logged in as %s", u.Username)
			c.resumed(resumed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			u, resumed, err := c.client.Register(cmd.Context(), models.RegisterRequest{
				Username: username, Email: email, Password: pw,
			})
			if err != nil {
				return credentialHint(c, err)
			}

			c.printer.Success("registered and logged in as %s", u.Username)
			c.resumed(resumed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// resumed сообщает, куда вернул вход после редиректа guard.
func (c *cli) resumed(target string) {
	if target != "" {
		c.printer.Info("back to %s", target)
	}
}

// credentialHint - подсказка под "формой": отличает отказ в логине от прочих ошибок.
func credentialHint(c *cli, err error) error {
	var pe *pipeline.Error
	if errors.As(err, &pe) && pe.IsCredentialRejection() {
		c.printer.Warning("check username and password")
	}

	return err
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.client.Session.Logout(cmd.Context())
			c.printer.Success("logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, "/profile"); err != nil {
				return err
			}

			u := c.client.State.User()
			if refresh || u == nil {
				var err error
				if u, err = c.client.Session.FetchProfile(ctx); err != nil {
					return err
				}
			}

			return output.User(c.printer.Writer(), u)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the API")

	return cmd
}
