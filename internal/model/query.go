package model

import (
	"fmt"
	"time"
)

// MatchMode controls how multiple keywords combine.
type MatchMode string

const (
	// MatchAny accepts a conversation when any keyword matches (OR).
	MatchAny MatchMode = "any"
	// MatchAll requires every keyword to match (AND).
	MatchAll MatchMode = "all"
)

// SortField selects the primary sort key for search results.
type SortField string

const (
	SortByScore    SortField = "score"
	SortByDate     SortField = "date"
	SortByTitle    SortField = "title"
	SortByMessages SortField = "messages"
)

// SortOrder selects the direction of the primary sort key. The id tie-break
// is always ascending, regardless of order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Limit bounds for a single search call.
const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 1000
)

// SearchQuery is the immutable configuration for one search call. The same
// query value re-issued against the same file yields identical results.
type SearchQuery struct {
	// Keywords are tokenized and scored with BM25. Empty means no keyword
	// constraint.
	Keywords []string `json:"keywords,omitempty"`

	// Phrases are matched as case-insensitive literal substrings, never
	// tokenized, OR across entries.
	Phrases []string `json:"phrases,omitempty"`

	// MatchMode governs keyword combination only; phrases are always OR.
	MatchMode MatchMode `json:"match_mode"`

	// ExcludeKeywords drop a conversation when any of their tokens appear
	// in its search text.
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`

	// RoleFilter narrows which messages contribute search text. Nil means
	// all roles.
	RoleFilter *Role `json:"role_filter,omitempty"`

	// TitleFilter is a case-insensitive substring filter on the title.
	// Empty means no title constraint.
	TitleFilter string `json:"title_filter,omitempty"`

	// FromDate and ToDate bound CreatedAt by its UTC date, inclusive.
	FromDate *time.Time `json:"from_date,omitempty"`
	ToDate   *time.Time `json:"to_date,omitempty"`

	// MinMessages and MaxMessages bound the raw message count, inclusive,
	// before any role filtering.
	MinMessages *int `json:"min_messages,omitempty"`
	MaxMessages *int `json:"max_messages,omitempty"`

	SortBy    SortField `json:"sort_by"`
	SortOrder SortOrder `json:"sort_order"`

	// Limit truncates the final ranked results. Valid range 1-1000.
	Limit int `json:"limit"`
}

// NewSearchQuery returns a query with the documented defaults: match any,
// sort by score descending, limit 10.
func NewSearchQuery() SearchQuery {
	return SearchQuery{
		MatchMode: MatchAny,
		SortBy:    SortByScore,
		SortOrder: SortDesc,
		Limit:     DefaultLimit,
	}
}

// HasTextCriteria reports whether the query constrains message text at all.
// Without text criteria every structurally-matching conversation is a hit.
func (q SearchQuery) HasTextCriteria() bool {
	return len(q.Keywords) > 0 || len(q.Phrases) > 0
}

// Validate checks the query's own field constraints. Callers validate
// anything beyond these (flag syntax, date parsing) before construction.
func (q SearchQuery) Validate() error {
	if q.Limit < MinLimit || q.Limit > MaxLimit {
		return fmt.Errorf("limit %d out of range [%d, %d]", q.Limit, MinLimit, MaxLimit)
	}
	switch q.MatchMode {
	case MatchAny, MatchAll:
	default:
		return fmt.Errorf("invalid match mode %q", q.MatchMode)
	}
	switch q.SortBy {
	case SortByScore, SortByDate, SortByTitle, SortByMessages:
	default:
		return fmt.Errorf("invalid sort field %q", q.SortBy)
	}
	switch q.SortOrder {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("invalid sort order %q", q.SortOrder)
	}
	if q.RoleFilter != nil {
		if _, ok := ParseRole(string(*q.RoleFilter)); !ok {
			return fmt.Errorf("invalid role filter %q", *q.RoleFilter)
		}
	}
	if q.FromDate != nil && q.ToDate != nil && q.FromDate.After(*q.ToDate) {
		return fmt.Errorf("from date %s is after to date %s",
			q.FromDate.Format("2006-01-02"), q.ToDate.Format("2006-01-02"))
	}
	if q.MinMessages != nil && *q.MinMessages < 0 {
		return fmt.Errorf("min messages %d is negative", *q.MinMessages)
	}
	if q.MaxMessages != nil && *q.MaxMessages < 0 {
		return fmt.Errorf("max messages %d is negative", *q.MaxMessages)
	}
	if q.MinMessages != nil && q.MaxMessages != nil && *q.MinMessages > *q.MaxMessages {
		return fmt.Errorf("min messages %d exceeds max messages %d", *q.MinMessages, *q.MaxMessages)
	}
	return nil
}

// SearchResult is one ranked hit. Results are constructed only inside the
// search pipeline, after scoring and limiting.
type SearchResult struct {
	Conversation *Conversation `json:"conversation"`

	// Score is in [0.0, 1.0]: BM25 scores are normalized via s/(s+1);
	// phrase-only and metadata-only hits carry exactly 1.0.
	Score float64 `json:"score"`

	// MatchedMessageIDs lists the role-scoped messages whose content
	// matched a keyword or phrase, in message order.
	MatchedMessageIDs []string `json:"matched_message_ids,omitempty"`

	// Snippet is a bounded preview of the first matched content. Always
	// set; fixed fallback strings cover the no-content cases.
	Snippet string `json:"snippet"`
}
