package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/provider"
)

// listEntry is the JSON row for one conversation.
type listEntry struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Messages  int        `json:"messages"`
}

func newListCmd() *cobra.Command {
	var (
		limit      int
		title      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List conversations in an exported archive",
		Long: `List conversations in an archive in file order, one row per
conversation: id, title, message count, and last activity.`,
		Example: `  chatsift list export.json
  chatsift list export.json --limit 20
  chatsift list export.json --title kafka
  chatsift list export.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd, args[0], limit, title, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many conversations (0 = all)")
	cmd.Flags().StringVar(&title, "title", "", "Only list conversations whose title contains this text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output rows as JSON")

	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, archive string, limit int, title string, jsonOutput bool) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}
	stream, err := p.StreamConversations(ctx, archive, provider.WithLogger(rt.log))
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	// Text rows render as the stream advances; only the JSON rows
	// accumulate, and those are summaries without message bodies.
	titleNeedle := strings.ToLower(title)
	entries := []listEntry{}
	shown := 0
	for stream.Next() {
		conv := stream.Conversation()
		if titleNeedle != "" && !strings.Contains(strings.ToLower(conv.Title), titleNeedle) {
			continue
		}
		shown++
		if jsonOutput {
			entries = append(entries, listEntry{
				ID:        conv.ID,
				Title:     conv.Title,
				CreatedAt: conv.CreatedAt,
				UpdatedAt: conv.UpdatedAt,
				Messages:  conv.MessageCount(),
			})
		} else {
			rt.out.ConversationRows([]model.Conversation{*conv})
		}
		if limit > 0 && shown >= limit {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}

	if jsonOutput {
		return rt.out.JSON(entries)
	}
	if shown == 0 {
		rt.out.Print("no conversations")
	}
	return nil
}
