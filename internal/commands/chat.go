package commands

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/actions"
	"github.com/dotcommander/playbook/internal/app"
	"github.com/dotcommander/playbook/internal/assistant"
	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/models"
	"github.com/dotcommander/playbook/internal/output"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to the planning assistant and apply its actions",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return cmdErr(errors.New("message is required"))
			}
			if err := assistant.ValidateMessage(text); err != nil {
				return cmdErr(err)
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			rt := app.EffectiveRuntimeSettings()
			client, err := assistant.NewClient(rt.AssistantURL, assistant.WithTimeout(rt.AssistantTimeout))
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Transcript []models.ActionLog `json:"transcript"`
				Report     *actions.Report    `json:"report,omitempty"`
				Score      int                `json:"score"`
			}
			var out resp
			if err := withEngine(cmdContext(cmd), func(e *engine.Engine) error {
				now := time.Now()
				logs, err := client.Send(cmdContext(cmd), text, assistant.NewLocalContext(now))
				if err != nil {
					return err
				}
				out.Transcript = append([]models.ActionLog{assistant.NewUserNote(text, now)}, logs...)
				if !dryRun {
					rep := actions.NewInterpreter(e).Apply(cmdContext(cmd), logs)
					out.Report = &rep
				}
				out.Score = e.Score()
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(out)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show the assistant's actions without applying them")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
