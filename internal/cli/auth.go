package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cvforge/internal/editor"
	"cvforge/internal/errors"
	"cvforge/internal/store/local"
	"cvforge/internal/types"

	"github.com/spf13/cobra"
)

var authFlags struct {
	email    string
	password string
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your backend session",
}

var authSignUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a backend account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, func(ctx context.Context, r *remote, email, password string) (*types.Session, error) {
			svc, err := r.authService(getConfigFromContext(ctx))
			if err != nil {
				return nil, err
			}
			return svc.SignUp(ctx, email, password)
		})
	},
}

var authSignInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in to the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, func(ctx context.Context, r *remote, email, password string) (*types.Session, error) {
			svc, err := r.authService(getConfigFromContext(ctx))
			if err != nil {
				return nil, err
			}
			return svc.SignIn(ctx, email, password)
		})
	},
}

var authSignOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			if err := ws.store.Delete(cmd.Context(), local.KeySession); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		})
	},
}

var authWhoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			sess, err := signedInSession(cmd.Context(), ws.store)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (session valid until %s)\n",
				sess.Email, sess.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		})
	},
}

type authFunc func(ctx context.Context, r *remote, email, password string) (*types.Session, error)

// authenticate collects credentials, runs fn against the backend and saves
// the resulting session locally.
func authenticate(cmd *cobra.Command, fn authFunc) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	email, password, err := credentials(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	r, err := openRemote(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	sess, err := fn(ctx, r, email, password)
	if err != nil {
		return err
	}

	return withWorkspace(cmd, func(ws *workspace) error {
		if err := editor.SaveAuthSession(ctx, ws.store, sess); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", sess.Email)
		return nil
	})
}

// credentials takes the email and password from the flags, prompting on in
// for whatever is missing.
func credentials(in io.Reader, prompt io.Writer) (string, string, error) {
	email, password := authFlags.email, authFlags.password
	reader := bufio.NewReader(in)

	ask := func(label string) (string, error) {
		fmt.Fprintf(prompt, "%s: ", label)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read "+strings.ToLower(label), err)
		}
		return strings.TrimSpace(line), nil
	}

	var err error
	if email == "" {
		if email, err = ask("Email"); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = ask("Password"); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "email and password are required", nil)
	}
	return email, password, nil
}

func init() {
	for _, c := range []*cobra.Command{authSignUpCmd, authSignInCmd} {
		c.Flags().StringVar(&authFlags.email, "email", "", "Account email")
		c.Flags().StringVar(&authFlags.password, "password", "", "Account password (prompted when omitted)")
	}

	authCmd.AddCommand(authSignUpCmd)
	authCmd.AddCommand(authSignInCmd)
	authCmd.AddCommand(authSignOutCmd)
	authCmd.AddCommand(authWhoAmICmd)
}
