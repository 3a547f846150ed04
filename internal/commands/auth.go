package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/output"
	"github.com/dotcommander/playbook/internal/session"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newAuthSignInCmd())
	cmd.AddCommand(newAuthSignOutCmd())
	cmd.AddCommand(newAuthWhoAmICmd())
	namespaceIndex(cmd)
	return cmd
}

type sessionResp struct {
	SignedIn bool             `json:"signed_in"`
	Session  *session.Session `json:"session,omitempty"`
}

func redact(s *session.Session) *session.Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Token = ""
	return &out
}

func newAuthSignInCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with an identity-provider access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				token = os.Getenv("PLAYBOOK_TOKEN")
			}
			if strings.TrimSpace(token) == "" {
				return cmdErr(errors.New("--token is required (or set PLAYBOOK_TOKEN)"))
			}

			mgr, err := newSessionManager()
			if err != nil {
				return cmdErr(err)
			}
			s, err := mgr.SignIn(token)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(sessionResp{SignedIn: true, Session: redact(s)})
		},
	}
	cmd.Flags().String("token", "", "Access token (JWT) whose sub claim is the user id (required)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newAuthSignOutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newSessionManager()
			if err != nil {
				return cmdErr(err)
			}
			if err := mgr.SignOut(); err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(sessionResp{SignedIn: false})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newAuthWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newSessionManager()
			if err != nil {
				return cmdErr(err)
			}
			s, err := mgr.Restore()
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(sessionResp{SignedIn: s != nil, Session: redact(s)})
		},
	}
}
