package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
)

// Source is the stream surface the pipeline consumes. *provider.Stream
// satisfies it. The pipeline never opens or closes files; the source's
// owner does.
type Source interface {
	// Next advances to the next conversation, returning false at the end
	// of the stream or on error.
	Next() bool

	// Conversation returns the conversation produced by the last Next.
	Conversation() *model.Conversation

	// Err returns the first fatal stream error, if any.
	Err() error
}

// unrankedScore is assigned to hits that carry no BM25 evidence: phrase-only
// matches and every survivor of a pure metadata query. Unlike BM25 scores it
// is already final and skips normalization, so an unconstrained query
// reports exactly 1.0.
const unrankedScore = 1.0

// Option configures one pipeline run.
type Option func(*runner)

// WithLogger sets the logger for search events. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithSnippetWidth overrides the snippet budget in user-perceived characters.
func WithSnippetWidth(width int) Option {
	return func(r *runner) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithSearchID sets the correlation id attached to this run's log events.
// A fresh UUID is generated when unset.
func WithSearchID(id string) Option {
	return func(r *runner) {
		r.searchID = id
	}
}

type runner struct {
	log      *slog.Logger
	width    int
	searchID string
}

// candidate is one structurally-surviving conversation, buffered because
// relevance ranking needs the whole corpus before it can score anything.
type candidate struct {
	conv   *model.Conversation
	scoped []model.Message // messages passing the role filter
	text   string          // per-conversation search text
}

type hit struct {
	candidate
	score  float64
	ranked bool // true when score is raw BM25 and still needs normalizing
}

// Run executes one search over src: structural filters, role scoping, corpus
// build, keyword/phrase matching, BM25 scoring, exclusion, deterministic
// sort, score normalization, limit, and snippet extraction. It drains src
// fully (ranking requires corpus statistics) and returns materialized
// results. File-level errors from src abort the run; per-entry skips are
// the stream's concern and never surface here.
func Run(ctx context.Context, src Source, query model.SearchQuery, opts ...Option) ([]model.SearchResult, error) {
	r := &runner{log: slog.Default(), width: DefaultSnippetWidth}
	for _, opt := range opts {
		opt(r)
	}
	if r.searchID == "" {
		r.searchID = uuid.NewString()
	}
	log := r.log.With(slog.String("search_id", r.searchID))

	if err := query.Validate(); err != nil {
		return nil, sifterrors.QueryInvalid(err)
	}

	start := time.Now()
	log.Info("search_started",
		slog.Int("keywords", len(query.Keywords)),
		slog.Int("phrases", len(query.Phrases)),
		slog.String("match_mode", string(query.MatchMode)),
		slog.String("sort_by", string(query.SortBy)),
		slog.String("sort_order", string(query.SortOrder)),
		slog.Int("limit", query.Limit))

	candidates, scanned, err := collect(ctx, src, query)
	if err != nil {
		log.Error("search_failed",
			slog.Int("scanned", scanned),
			slog.String("error", err.Error()))
		return nil, err
	}

	var results []model.SearchResult
	if len(candidates) > 0 {
		hits := matchAndScore(candidates, query)
		sortHits(hits, query)
		normalizeScores(hits)
		if len(hits) > query.Limit {
			hits = hits[:query.Limit]
		}
		results = r.materialize(hits, query)
	}

	log.Info("search_completed",
		slog.Int("scanned", scanned),
		slog.Int("corpus", len(candidates)),
		slog.Int("results", len(results)),
		slog.Duration("took", time.Since(start)))

	return results, nil
}

// collect drains the source, keeping the conversations that survive the
// structural filters and role scoping, paired with their search text.
func collect(ctx context.Context, src Source, query model.SearchQuery) ([]candidate, int, error) {
	filters := buildStructuralFilters(query)

	var out []candidate
	scanned := 0
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return nil, scanned, err
		}
		scanned++

		conv := src.Conversation()
		if !matchesAllFilters(conv, filters) {
			continue
		}

		scoped := scopeMessages(conv, query.RoleFilter)
		if len(scoped) == 0 {
			// A role filter with no matching messages drops the conversation.
			continue
		}

		out = append(out, candidate{
			conv:   conv,
			scoped: scoped,
			text:   buildSearchText(conv, scoped, query.RoleFilter != nil),
		})
	}
	if err := src.Err(); err != nil {
		return nil, scanned, err
	}
	return out, scanned, nil
}

// filterFunc checks one structural criterion. Filters use AND logic:
// conversations must match all of them.
type filterFunc func(*model.Conversation) bool

func buildStructuralFilters(q model.SearchQuery) []filterFunc {
	var filters []filterFunc

	if q.TitleFilter != "" {
		needle := strings.ToLower(q.TitleFilter)
		filters = append(filters, func(c *model.Conversation) bool {
			return strings.Contains(strings.ToLower(c.Title), needle)
		})
	}
	if q.FromDate != nil {
		from := utcDate(*q.FromDate)
		filters = append(filters, func(c *model.Conversation) bool {
			return !utcDate(c.CreatedAt).Before(from)
		})
	}
	if q.ToDate != nil {
		to := utcDate(*q.ToDate)
		filters = append(filters, func(c *model.Conversation) bool {
			return !utcDate(c.CreatedAt).After(to)
		})
	}
	if q.MinMessages != nil {
		min := *q.MinMessages
		filters = append(filters, func(c *model.Conversation) bool {
			return c.MessageCount() >= min
		})
	}
	if q.MaxMessages != nil {
		max := *q.MaxMessages
		filters = append(filters, func(c *model.Conversation) bool {
			return c.MessageCount() <= max
		})
	}

	return filters
}

func matchesAllFilters(conv *model.Conversation, filters []filterFunc) bool {
	for _, f := range filters {
		if !f(conv) {
			return false
		}
	}
	return true
}

// utcDate truncates t to its UTC calendar date, so date bounds compare
// inclusively on the day rather than the instant.
func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scopeMessages selects the messages a role filter admits; nil admits all.
func scopeMessages(conv *model.Conversation, role *model.Role) []model.Message {
	if role == nil {
		return conv.Messages
	}
	var scoped []model.Message
	for _, m := range conv.Messages {
		if m.Role == *role {
			scoped = append(scoped, m)
		}
	}
	return scoped
}

// buildSearchText joins the scoped message contents, prefixed by the title
// only when no role filter is active: a title is metadata, not attributable
// to any speaker.
func buildSearchText(conv *model.Conversation, scoped []model.Message, roleFiltered bool) string {
	parts := make([]string, 0, len(scoped)+1)
	if !roleFiltered {
		parts = append(parts, conv.Title)
	}
	for _, m := range scoped {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, " ")
}

// matchAndScore builds the scorer once over the whole corpus, then keeps the
// candidates that match the query's text criteria and survive exclusion.
func matchAndScore(cands []candidate, q model.SearchQuery) []hit {
	corpus := make([]string, len(cands))
	for i := range cands {
		corpus[i] = cands[i].text
	}
	scorer := NewBM25(corpus)

	var hits []hit
	for i := range cands {
		score, ranked, matched := scoreCandidate(scorer, i, cands[i].text, q)
		if !matched {
			continue
		}
		if ExcludeMatches(cands[i].text, q.ExcludeKeywords) {
			continue
		}
		hits = append(hits, hit{candidate: cands[i], score: score, ranked: ranked})
	}
	return hits
}

// scoreCandidate decides whether one candidate is a hit and what score it
// carries. Keyword and phrase evidence are evaluated independently: keywords
// follow the match mode, phrases are always OR. Keyword hits carry a raw
// BM25 score (ranked); phrase-only hits and every survivor of a query with
// no text criteria carry the final unrankedScore.
func scoreCandidate(scorer *BM25, i int, text string, q model.SearchQuery) (score float64, ranked, matched bool) {
	if !q.HasTextCriteria() {
		return unrankedScore, false, true
	}

	keywordHit := false
	if len(q.Keywords) > 0 {
		score = scorer.ScoreAt(i, q.Keywords)
		if q.MatchMode == model.MatchAll {
			keywordHit = KeywordsAllPresent(text, q.Keywords)
		} else {
			keywordHit = score > 0
		}
	}

	switch {
	case keywordHit:
		return score, true, true
	case PhraseMatches(text, q.Phrases):
		return unrankedScore, false, true
	default:
		return 0, false, false
	}
}

// sortHits orders hits by the primary sort key, with the conversation id
// ascending as the tie-break regardless of sort order.
func sortHits(hits []hit, q model.SearchQuery) {
	desc := q.SortOrder == model.SortDesc
	sort.SliceStable(hits, func(i, j int) bool {
		var less, equal bool
		switch q.SortBy {
		case model.SortByDate:
			ti, tj := sortDate(hits[i].conv), sortDate(hits[j].conv)
			less, equal = ti.Before(tj), ti.Equal(tj)
		case model.SortByTitle:
			si, sj := strings.ToLower(hits[i].conv.Title), strings.ToLower(hits[j].conv.Title)
			less, equal = si < sj, si == sj
		case model.SortByMessages:
			ni, nj := hits[i].conv.MessageCount(), hits[j].conv.MessageCount()
			less, equal = ni < nj, ni == nj
		default: // score
			less, equal = hits[i].score < hits[j].score, hits[i].score == hits[j].score
		}
		if equal {
			return hits[i].conv.ID < hits[j].conv.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

// sortDate is the date sort key: UpdatedAt falling back to CreatedAt.
func sortDate(c *model.Conversation) time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// normalizeScores maps raw BM25 scores into [0, 1) via s/(s+1), preserving
// rank order among them. Assigned scores (phrase-only, metadata-only) are
// final already and stay at 1.0. Applied after sorting, so the sort sees
// the raw values.
func normalizeScores(hits []hit) {
	for i := range hits {
		if !hits[i].ranked {
			continue
		}
		if hits[i].score > 0 {
			hits[i].score = hits[i].score / (hits[i].score + 1)
		} else {
			hits[i].score = 0
		}
	}
}

// materialize attaches matched message ids and snippets to the final hits.
func (r *runner) materialize(hits []hit, q model.SearchQuery) []model.SearchResult {
	keywordTokens := FlattenKeywordTokens(q.Keywords)

	// Snippet needles: keyword tokens plus the raw phrases. Tokens are the
	// right needles for keywords (a hyphenated keyword never appears
	// verbatim), while phrases match exactly as typed.
	needles := make([]string, 0, len(keywordTokens)+len(q.Phrases))
	needles = append(needles, keywordTokens...)
	for _, p := range q.Phrases {
		if p != "" {
			needles = append(needles, strings.ToLower(p))
		}
	}

	results := make([]model.SearchResult, 0, len(hits))
	for _, h := range hits {
		var (
			matchedIDs []string
			snippet    string
		)
		if q.HasTextCriteria() {
			matchedIDs = matchedMessageIDs(h.scoped, keywordTokens, q.Phrases)
			snippet, _ = extractSnippetFromMessages(h.scoped, needles, matchedIDs, r.width)
		} else {
			// Pure metadata query: preview the first role-scoped message.
			snippet = extractSnippet(h.scoped[0].Content, nil, 0, r.width)
		}

		results = append(results, model.SearchResult{
			Conversation:      h.conv,
			Score:             h.score,
			MatchedMessageIDs: matchedIDs,
			Snippet:           snippet,
		})
	}
	return results
}

// matchedMessageIDs returns the ids of the scoped messages whose content
// contains any keyword token or phrase, in message order.
func matchedMessageIDs(messages []model.Message, keywordTokens []string, phrases []string) []string {
	var ids []string
	for i := range messages {
		if messageMatches(messages[i].Content, keywordTokens, phrases) {
			ids = append(ids, messages[i].ID)
		}
	}
	return ids
}

func messageMatches(content string, keywordTokens []string, phrases []string) bool {
	if len(keywordTokens) > 0 {
		set := TokenSet(content)
		for _, t := range keywordTokens {
			if _, ok := set[t]; ok {
				return true
			}
		}
	}
	return PhraseMatches(content, phrases)
}
