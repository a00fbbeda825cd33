package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/provider"
)

// messageHit is the JSON shape for a message lookup: the message plus
// enough of the owning conversation to locate it.
type messageHit struct {
	Message           *model.Message `json:"message"`
	ConversationID    string         `json:"conversation_id"`
	ConversationTitle string         `json:"conversation_title"`
}

func newMessageCmd() *cobra.Command {
	var (
		hint       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "message <archive> <message-id>",
		Short: "Show one message and its owning conversation",
		Long: `Look up a single message by id across the whole archive.

The id match follows the same rules as conversation lookup: case-insensitive,
prefixes of at least four characters. Passing --conversation restricts the
scan to one conversation, which also disambiguates prefix collisions.`,
		Example: `  chatsift message export.json e9f0a1b2-3c4d-5e6f-7a8b-9c0d1e2f3a4b
  chatsift message export.json e9f0a1b2 --conversation 67d1a2b4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessage(cmd.Context(), cmd, args[0], args[1], hint, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&hint, "conversation", "", "Only search inside this conversation (id or prefix)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the message as JSON")

	return cmd
}

func runMessage(ctx context.Context, cmd *cobra.Command, archive, id, hint string, jsonOutput bool) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}

	msg, conv, err := p.GetMessageByID(ctx, archive, id, hint)
	if err != nil {
		return err
	}
	if msg == nil {
		nf := sifterrors.NotFound("message", id)
		if hint != "" {
			return nf.WithDetail("conversation", hint).
				WithSuggestion("drop --conversation to search the whole archive")
		}
		return nf.WithSuggestion("message ids come from 'chatsift show <archive> <conversation-id>'")
	}

	if jsonOutput {
		return rt.out.JSON(messageHit{
			Message:           msg,
			ConversationID:    conv.ID,
			ConversationTitle: conv.Title,
		})
	}

	rt.out.Print(fmt.Sprintf("in %s (%s)", conv.Title, conv.ID))
	rt.out.Newline()
	rt.out.Message(msg)
	return nil
}
