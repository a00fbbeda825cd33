package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/provider"
)

// maxSuggestions caps the "did you mean" list on a failed lookup.
const maxSuggestions = 3

func newShowCmd() *cobra.Command {
	var (
		thread     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "show <archive> <conversation-id>",
		Short: "Show one conversation",
		Long: `Show a single conversation with all of its messages.

The id match is case-insensitive, and prefixes of at least four characters
resolve to the first conversation in file order that starts with them. When
nothing matches, close ids and titles are suggested.`,
		Example: `  chatsift show export.json 67d1a2b4-1f0c-4a95-bf2e-5a1d2c3e4f56
  chatsift show export.json 67d1a2b4
  chatsift show export.json 67d1a2b4 --thread e9f0a1b2
  chatsift show export.json 67d1a2b4 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd, args[0], args[1], thread, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&thread, "thread", "", "Show only the parent chain ending at this message id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the conversation as JSON")

	return cmd
}

func runShow(ctx context.Context, cmd *cobra.Command, archive, id, thread string, jsonOutput bool) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}

	conv, err := p.GetConversationByID(ctx, archive, id)
	if err != nil {
		return err
	}
	if conv == nil {
		nf := sifterrors.NotFound("conversation", id)
		if s := suggestConversations(ctx, p, archive, id, rt.log); len(s) > 0 {
			return nf.WithSuggestion("did you mean: " + strings.Join(s, ", "))
		}
		return nf.WithSuggestion("run 'chatsift list' to see conversation ids")
	}

	if thread != "" {
		chain := conv.ThreadToRoot(thread)
		if chain == nil {
			return sifterrors.NotFound("message", thread).
				WithDetail("conversation", conv.ID).
				WithSuggestion("show the conversation without --thread to see its message ids")
		}
		if jsonOutput {
			return rt.out.JSON(chain)
		}
		for i := range chain {
			rt.out.Message(&chain[i])
		}
		return nil
	}

	if jsonOutput {
		return rt.out.JSON(conv)
	}
	rt.out.ConversationDetail(conv)
	return nil
}

// suggestConversations scans the archive once more and fuzzy-matches the
// failed lookup against every conversation id and title. Best effort: scan
// errors just mean no suggestions.
func suggestConversations(ctx context.Context, p provider.Provider, archive, query string, log *slog.Logger) []string {
	stream, err := p.StreamConversations(ctx, archive, provider.WithLogger(log))
	if err != nil {
		return nil
	}
	defer func() { _ = stream.Close() }()

	var ids, titles []string
	for stream.Next() {
		conv := stream.Conversation()
		ids = append(ids, conv.ID)
		titles = append(titles, conv.Title)
	}

	seen := make(map[string]bool, maxSuggestions)
	var out []string
	for _, m := range fuzzy.Find(query, ids) {
		if len(out) == maxSuggestions {
			return out
		}
		seen[m.Str] = true
		out = append(out, m.Str)
	}
	for _, m := range fuzzy.Find(query, titles) {
		if len(out) == maxSuggestions {
			return out
		}
		id := ids[m.Index]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, fmt.Sprintf("%s (%s)", id, m.Str))
	}
	return out
}
