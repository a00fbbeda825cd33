package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/output"
	"github.com/Aman-CERP/chatsift/internal/provider"
	"github.com/Aman-CERP/chatsift/internal/stats"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats <archive>",
		Short: "Show archive statistics",
		Long: `Aggregate an archive in one streaming pass: conversation and message
counts, per-role breakdown, activity range, typical gap between messages,
and the longest conversations.`,
		Example: `  chatsift stats export.json
  chatsift stats export.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, archive string, jsonOutput bool) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}

	streamOpts := []provider.StreamOption{provider.WithLogger(rt.log)}
	showProgress := output.IsTTY(cmd.ErrOrStderr())
	if showProgress {
		streamOpts = append(streamOpts, provider.WithProgressFunc(func(n int) {
			rt.status.Progress(n, "conversations")
		}))
	}
	stream, err := p.StreamConversations(ctx, archive, streamOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	report, err := stats.Collect(ctx, stream)
	if err != nil {
		return err
	}
	if showProgress {
		rt.status.Done()
	}

	if jsonOutput {
		return rt.out.JSON(report)
	}

	renderStats(rt, report)
	return nil
}

func renderStats(rt *runtime, r *stats.Report) {
	out := rt.out

	out.Printf("Conversations   %s", humanize.Comma(int64(r.Conversations)))
	out.Printf("Messages        %s", humanize.Comma(int64(r.Messages)))
	for _, role := range []model.Role{model.RoleUser, model.RoleAssistant, model.RoleSystem} {
		if n, ok := r.ByRole[role]; ok {
			out.Printf("  %-13s %s", role, humanize.Comma(int64(n)))
		}
	}
	if r.Skipped > 0 {
		out.Printf("Skipped entries %s", humanize.Comma(int64(r.Skipped)))
	}

	if r.Conversations == 0 {
		return
	}

	out.Newline()
	out.Printf("First activity  %s (%s)", r.Earliest.Format("2006-01-02"), humanize.Time(r.Earliest))
	out.Printf("Last activity   %s (%s)", r.Latest.Format("2006-01-02"), humanize.Time(r.Latest))
	if r.AvgGapSeconds > 0 {
		gap := time.Duration(r.AvgGapSeconds * float64(time.Second))
		out.Printf("Typical gap     %s between messages", relDuration(gap))
	}

	out.Newline()
	for i, ref := range r.Longest {
		label := "                "
		if i == 0 {
			label = "Longest         "
		}
		out.Printf("%s%s (%s, %d messages)", label, ref.Title, ref.ID, ref.Messages)
	}
	out.Printf("Average         %.1f messages per conversation", r.AvgMessages)
}

// relDuration renders a duration in humanize's coarse units ("2 days",
// "3 weeks").
func relDuration(d time.Duration) string {
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
}
