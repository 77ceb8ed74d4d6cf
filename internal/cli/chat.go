package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drewdunne/difftale/internal/chat"
)

// ChatFlags holds chat command flag values
type ChatFlags struct {
	Question string
	Context  string
	Files    bool
	Dir      string
}

var chatFlags ChatFlags

// NewChatCommand creates the chat command
func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the model about a report or a project's files",
		RunE:  runChat,
	}

	cmd.Flags().StringVarP(&chatFlags.Question, "question", "q", "", "question to ask (required)")
	cmd.Flags().StringVar(&chatFlags.Context, "context", "", "file whose contents are sent as context, e.g. a report")
	cmd.Flags().BoolVar(&chatFlags.Files, "files", false, "let the model pick files of --dir to answer from")
	cmd.Flags().StringVar(&chatFlags.Dir, "dir", ".", "project checkout used with --files")
	cmd.MarkFlagRequired("question")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.chat()
	if err != nil {
		return err
	}

	var ans *chat.Answer
	if chatFlags.Files {
		ans, err = svc.AskAboutFiles(cmd.Context(), chatFlags.Dir, chatFlags.Question)
	} else {
		var extra []byte
		if chatFlags.Context != "" {
			if extra, err = os.ReadFile(chatFlags.Context); err != nil {
				return fmt.Errorf("reading context: %w", err)
			}
		}
		ans, err = svc.Ask(cmd.Context(), chatFlags.Question, string(extra))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ans.Files) > 0 {
		fmt.Fprintf(out, "Files consulted: %v\n\n", ans.Files)
	}
	fmt.Fprintln(out, ans.Text)
	return nil
}
