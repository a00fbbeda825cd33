package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Aman-CERP/chatsift/internal/config"
	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/provider"
	"github.com/Aman-CERP/chatsift/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	phrases      []string
	excludes     []string
	role         string
	title        string
	from         string
	to           string
	minMessages  int
	maxMessages  int
	matchMode    string
	sortBy       string
	sortOrder    string
	limit        int
	snippetWidth int
	jsonOutput   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <archive> [keywords...]",
		Short: "Search conversations in an exported archive",
		Long: `Search an exported chat archive with ranked full-text search.

Keywords are scored with BM25 and combined per --match. Phrases match as
literal substrings. Structural filters (role, title, dates, message counts)
narrow which conversations are considered at all. Without keywords or
phrases, every conversation passing the filters is returned.`,
		Example: `  chatsift search export.json goroutines channels
  chatsift search export.json error --match all --role user
  chatsift search export.json --phrase "consumer group" --exclude kafka
  chatsift search export.json --from 2024-01-01 --to 2024-03-31 --sort date
  chatsift search export.json deadlock --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.phrases, "phrase", nil, "Exact phrase to match (repeatable)")
	cmd.Flags().StringArrayVar(&opts.excludes, "exclude", nil, "Keyword that must not appear (repeatable)")
	cmd.Flags().StringVar(&opts.role, "role", "", "Only match messages with this role: user, assistant, system")
	cmd.Flags().StringVar(&opts.title, "title", "", "Substring filter on the conversation title")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only conversations created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only conversations created on or before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.minMessages, "min-messages", 0, "Minimum message count")
	cmd.Flags().IntVar(&opts.maxMessages, "max-messages", 0, "Maximum message count")
	cmd.Flags().StringVar(&opts.matchMode, "match", "", "Keyword combination: any, all")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "Sort field: score, date, title, messages")
	cmd.Flags().StringVar(&opts.sortOrder, "order", "", "Sort order: asc, desc")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", model.DefaultLimit, "Maximum number of results")
	cmd.Flags().IntVar(&opts.snippetWidth, "snippet-width", search.DefaultSnippetWidth, "Snippet preview width in display cells")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, archive string, keywords []string, opts searchOptions) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	query, err := buildQuery(rt.cfg.Search, cmd.Flags(), keywords, opts)
	if err != nil {
		return err
	}

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}
	stream, err := p.StreamConversations(ctx, archive, provider.WithLogger(rt.log))
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	width := rt.cfg.Search.SnippetWidth
	if cmd.Flags().Changed("snippet-width") {
		width = opts.snippetWidth
	}

	results, err := search.Run(ctx, stream, query,
		search.WithLogger(rt.log), search.WithSnippetWidth(width))
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return rt.out.JSON(results)
	}
	rt.out.SearchResults(results)
	return nil
}

// buildQuery layers config defaults under the explicit flags. Field-level
// validation (ranges, enums, date ordering) happens inside the search
// pipeline; only flag syntax is checked here.
func buildQuery(defaults config.SearchConfig, flags *pflag.FlagSet, keywords []string, opts searchOptions) (model.SearchQuery, error) {
	q := model.NewSearchQuery()

	if defaults.Limit > 0 {
		q.Limit = defaults.Limit
	}
	if defaults.MatchMode != "" {
		q.MatchMode = model.MatchMode(defaults.MatchMode)
	}
	if defaults.SortBy != "" {
		q.SortBy = model.SortField(defaults.SortBy)
	}
	if defaults.SortOrder != "" {
		q.SortOrder = model.SortOrder(defaults.SortOrder)
	}

	q.Keywords = keywords
	q.Phrases = opts.phrases
	q.ExcludeKeywords = opts.excludes
	q.TitleFilter = opts.title

	if opts.role != "" {
		role := model.Role(opts.role)
		q.RoleFilter = &role
	}
	if opts.from != "" {
		t, err := parseDate(opts.from)
		if err != nil {
			return q, err
		}
		q.FromDate = t
	}
	if opts.to != "" {
		t, err := parseDate(opts.to)
		if err != nil {
			return q, err
		}
		q.ToDate = t
	}

	if flags.Changed("min-messages") {
		v := opts.minMessages
		q.MinMessages = &v
	}
	if flags.Changed("max-messages") {
		v := opts.maxMessages
		q.MaxMessages = &v
	}
	if flags.Changed("limit") {
		q.Limit = opts.limit
	}
	if opts.matchMode != "" {
		q.MatchMode = model.MatchMode(opts.matchMode)
	}
	if opts.sortBy != "" {
		q.SortBy = model.SortField(opts.sortBy)
	}
	if opts.sortOrder != "" {
		q.SortOrder = model.SortOrder(opts.sortOrder)
	}

	return q, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC instant.
func parseDate(s string) (*time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, sifterrors.New(sifterrors.ErrCodeQueryInvalid,
		fmt.Sprintf("cannot parse date %q", s), nil).
		WithSuggestion("use YYYY-MM-DD or an RFC3339 timestamp")
}
