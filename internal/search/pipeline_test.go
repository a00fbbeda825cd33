package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// sliceSource feeds conversations from memory and optionally fails after
// draining, standing in for a file-backed stream.
type sliceSource struct {
	convs []*model.Conversation
	pos   int
	err   error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.convs) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Conversation() *model.Conversation { return s.convs[s.pos-1] }
func (s *sliceSource) Err() error                        { return s.err }

func conv(id, title string, created time.Time, msgs ...model.Message) *model.Conversation {
	return &model.Conversation{ID: id, Title: title, CreatedAt: created, Messages: msgs}
}

func msg(id string, role model.Role, content string) model.Message {
	return model.Message{ID: id, Role: role, Content: content, Timestamp: day(2024, 1, 1)}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rolePtr(r model.Role) *model.Role { return &r }
func intPtr(n int) *int                { return &n }

// testCorpus covers the common cases: distinct topics, an update timestamp,
// and a placeholder-titled conversation.
func testCorpus() []*model.Conversation {
	updated := day(2024, 4, 1)

	goConv := conv("conv-a", "Go Concurrency Patterns", day(2024, 1, 10),
		msg("a1", model.RoleUser, "How do goroutines and channels work together?"),
		msg("a2", model.RoleAssistant, "Goroutines are lightweight threads and channels carry values between them."),
	)
	goConv.UpdatedAt = &updated

	return []*model.Conversation{
		goConv,
		conv("conv-b", "Python List Comprehensions", day(2024, 2, 5),
			msg("b1", model.RoleUser, "Explain python list comprehensions to me"),
			msg("b2", model.RoleAssistant, "A list comprehension builds a list from an iterable in one expression."),
		),
		conv("conv-c", "Rust Borrow Checker", day(2024, 3, 20),
			msg("c1", model.RoleUser, "Why does the borrow checker reject this code?"),
			msg("c2", model.RoleAssistant, "You are holding a mutable borrow across an await point."),
			msg("c3", model.RoleUser, "How do I restructure it?"),
		),
		conv("conv-d", model.UntitledTitle, day(2024, 1, 10),
			msg("d1", model.RoleSystem, "You are a helpful assistant."),
		),
	}
}

func runSearch(t *testing.T, query model.SearchQuery, convs ...*model.Conversation) []model.SearchResult {
	t.Helper()
	results, err := Run(context.Background(), &sliceSource{convs: convs}, query, WithLogger(testLogger))
	require.NoError(t, err)
	return results
}

func resultIDs(results []model.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Conversation.ID
	}
	return ids
}

func TestRun_KeywordSearch(t *testing.T) {
	// Given: a corpus where only one conversation mentions goroutines
	query := model.NewSearchQuery()
	query.Keywords = []string{"goroutines"}

	// When: searching
	results := runSearch(t, query, testCorpus()...)

	// Then: exactly that conversation, scored and annotated
	require.Len(t, results, 1)
	hit := results[0]
	assert.Equal(t, "conv-a", hit.Conversation.ID)
	assert.Greater(t, hit.Score, 0.0)
	assert.Less(t, hit.Score, 1.0)
	assert.Equal(t, []string{"a1", "a2"}, hit.MatchedMessageIDs)
	assert.Contains(t, hit.Snippet, "oroutines")
}

func TestRun_EmptyQueryMatchesEverything(t *testing.T) {
	results := runSearch(t, model.NewSearchQuery(), testCorpus()...)

	// All survive with the full assigned score, so the id tie-break orders
	// them.
	require.Len(t, results, 4)
	assert.Equal(t, []string{"conv-a", "conv-b", "conv-c", "conv-d"}, resultIDs(results))
	for _, r := range results {
		assert.Equal(t, 1.0, r.Score)
		assert.Empty(t, r.MatchedMessageIDs)
	}
}

func TestRun_MatchModes(t *testing.T) {
	corpus := append(testCorpus(),
		conv("conv-e", "Porting a Python Tool to Go", day(2024, 5, 1),
			msg("e1", model.RoleUser, "Rewriting my python scripts with goroutines, where do I start?"),
		),
	)

	t.Run("any mode ORs keywords", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"python", "goroutines"}

		results := runSearch(t, query, corpus...)

		assert.ElementsMatch(t, []string{"conv-a", "conv-b", "conv-e"}, resultIDs(results))
	})

	t.Run("all mode ANDs keywords", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"python", "goroutines"}
		query.MatchMode = model.MatchAll

		results := runSearch(t, query, corpus...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-e", results[0].Conversation.ID)
	})
}

func TestRun_PhraseSearch(t *testing.T) {
	t.Run("literal substring matches", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Phrases = []string{"list comprehension"}

		results := runSearch(t, query, testCorpus()...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-b", results[0].Conversation.ID)
		// Phrase-only hits carry the assigned score unnormalized.
		assert.Equal(t, 1.0, results[0].Score)
	})

	t.Run("phrases are not tokenized", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Phrases = []string{"goroutines channels"} // words present, contiguity absent

		results := runSearch(t, query, testCorpus()...)

		assert.Empty(t, results)
	})

	t.Run("phrase rescues a failed all-mode keyword match", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"goroutines", "terraform"}
		query.MatchMode = model.MatchAll
		query.Phrases = []string{"mutable borrow"}

		results := runSearch(t, query, testCorpus()...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-c", results[0].Conversation.ID)
		assert.Equal(t, 1.0, results[0].Score)
	})
}

func TestRun_ExcludeKeywords(t *testing.T) {
	t.Run("drops hits containing the excluded token", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"python", "goroutines"}
		query.ExcludeKeywords = []string{"comprehensions"}

		results := runSearch(t, query, testCorpus()...)

		// conv-b matches "python" but its text contains the excluded token.
		require.Len(t, results, 1)
		assert.Equal(t, "conv-a", results[0].Conversation.ID)
	})

	t.Run("excluding every matched term leaves nothing", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"python", "goroutines"}
		query.ExcludeKeywords = []string{"python", "goroutines"}

		results := runSearch(t, query, testCorpus()...)

		assert.Empty(t, results)
	})
}

func TestRun_RoleFilter(t *testing.T) {
	titleOnly := conv("conv-t", "Goroutines Deep Dive", day(2024, 6, 1),
		msg("t1", model.RoleAssistant, "Nothing on that subject in the body."),
	)
	corpus := append(testCorpus(), titleOnly)

	t.Run("scopes matching to one role", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"goroutines"}
		query.RoleFilter = rolePtr(model.RoleAssistant)

		results := runSearch(t, query, corpus...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-a", results[0].Conversation.ID)
		assert.Equal(t, []string{"a2"}, results[0].MatchedMessageIDs)
	})

	t.Run("title is out of scope under a role filter", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"dive"}
		query.RoleFilter = rolePtr(model.RoleAssistant)

		results := runSearch(t, query, corpus...)

		assert.Empty(t, results)
	})

	t.Run("title is in scope without a role filter", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.Keywords = []string{"dive"}

		results := runSearch(t, query, corpus...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-t", results[0].Conversation.ID)
		// The hit came from the title alone: no message matched.
		assert.Empty(t, results[0].MatchedMessageIDs)
		assert.Equal(t, FallbackNoMatch, results[0].Snippet)
	})

	t.Run("conversations without the role drop out", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.RoleFilter = rolePtr(model.RoleSystem)

		results := runSearch(t, query, corpus...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-d", results[0].Conversation.ID)
	})
}

func TestRun_MetadataOnlyQuery(t *testing.T) {
	query := model.NewSearchQuery()
	query.TitleFilter = "concurrency"

	results := runSearch(t, query, testCorpus()...)

	require.Len(t, results, 1)
	hit := results[0]
	assert.Equal(t, "conv-a", hit.Conversation.ID)
	assert.Equal(t, 1.0, hit.Score)
	assert.Empty(t, hit.MatchedMessageIDs)
	// Without text criteria the snippet previews the first scoped message.
	assert.Equal(t, "How do goroutines and channels work together?", hit.Snippet)
}

func TestRun_DateFilters(t *testing.T) {
	t.Run("from date is an inclusive day bound", func(t *testing.T) {
		query := model.NewSearchQuery()
		from := day(2024, 2, 5)
		query.FromDate = &from
		query.SortBy = model.SortByDate
		query.SortOrder = model.SortAsc

		results := runSearch(t, query, testCorpus()...)

		assert.Equal(t, []string{"conv-b", "conv-c"}, resultIDs(results))
	})

	t.Run("to date is an inclusive day bound", func(t *testing.T) {
		query := model.NewSearchQuery()
		to := day(2024, 2, 5)
		query.ToDate = &to

		results := runSearch(t, query, testCorpus()...)

		assert.ElementsMatch(t, []string{"conv-a", "conv-b", "conv-d"}, resultIDs(results))
	})

	t.Run("time of day does not shift the bound", func(t *testing.T) {
		late := conv("conv-x", "Late Night", time.Date(2024, 2, 5, 23, 59, 59, 0, time.UTC),
			msg("x1", model.RoleUser, "still the fifth"),
		)
		query := model.NewSearchQuery()
		from := day(2024, 2, 5)
		to := day(2024, 2, 5)
		query.FromDate = &from
		query.ToDate = &to

		results := runSearch(t, query, late)

		require.Len(t, results, 1)
	})
}

func TestRun_MessageCountFilters(t *testing.T) {
	t.Run("min messages", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.MinMessages = intPtr(3)

		results := runSearch(t, query, testCorpus()...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-c", results[0].Conversation.ID)
	})

	t.Run("max messages", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.MaxMessages = intPtr(1)

		results := runSearch(t, query, testCorpus()...)

		require.Len(t, results, 1)
		assert.Equal(t, "conv-d", results[0].Conversation.ID)
	})
}

func TestRun_TitleFilter(t *testing.T) {
	query := model.NewSearchQuery()
	query.TitleFilter = "RUST"

	results := runSearch(t, query, testCorpus()...)

	require.Len(t, results, 1)
	assert.Equal(t, "conv-c", results[0].Conversation.ID)
}

func TestRun_SortOrders(t *testing.T) {
	t.Run("date ascending uses updated_at when present", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.SortBy = model.SortByDate
		query.SortOrder = model.SortAsc

		results := runSearch(t, query, testCorpus()...)

		// conv-a created 01-10 but updated 04-01, so it sorts last.
		assert.Equal(t, []string{"conv-d", "conv-b", "conv-c", "conv-a"}, resultIDs(results))
	})

	t.Run("title sort is case insensitive", func(t *testing.T) {
		corpus := []*model.Conversation{
			conv("conv-1", "zebra", day(2024, 1, 1), msg("m1", model.RoleUser, "a")),
			conv("conv-2", "Apple", day(2024, 1, 2), msg("m2", model.RoleUser, "b")),
			conv("conv-3", "mango", day(2024, 1, 3), msg("m3", model.RoleUser, "c")),
		}
		query := model.NewSearchQuery()
		query.SortBy = model.SortByTitle
		query.SortOrder = model.SortAsc

		results := runSearch(t, query, corpus...)

		assert.Equal(t, []string{"conv-2", "conv-3", "conv-1"}, resultIDs(results))
	})

	t.Run("message count descending", func(t *testing.T) {
		query := model.NewSearchQuery()
		query.SortBy = model.SortByMessages
		query.SortOrder = model.SortDesc

		results := runSearch(t, query, testCorpus()...)

		assert.Equal(t, []string{"conv-c", "conv-a", "conv-b", "conv-d"}, resultIDs(results))
	})

	t.Run("ties break by id ascending even when descending", func(t *testing.T) {
		// Same creation date, no updates: the primary key ties.
		corpus := []*model.Conversation{
			conv("conv-9", "Later Id", day(2024, 1, 1), msg("m1", model.RoleUser, "a")),
			conv("conv-1", "Earlier Id", day(2024, 1, 1), msg("m2", model.RoleUser, "b")),
		}
		query := model.NewSearchQuery()
		query.SortBy = model.SortByDate
		query.SortOrder = model.SortDesc

		results := runSearch(t, query, corpus...)

		assert.Equal(t, []string{"conv-1", "conv-9"}, resultIDs(results))
	})
}

func TestRun_RankingOrdersByRelevance(t *testing.T) {
	corpus := []*model.Conversation{
		conv("conv-low", "Notes", day(2024, 1, 1),
			msg("l1", model.RoleUser, "docker came up once in passing today"),
		),
		conv("conv-high", "Notes", day(2024, 1, 2),
			msg("h1", model.RoleUser, "docker compose and docker swarm compared in detail"),
		),
	}
	query := model.NewSearchQuery()
	query.Keywords = []string{"docker"}

	results := runSearch(t, query, corpus...)

	require.Len(t, results, 2)
	assert.Equal(t, "conv-high", results[0].Conversation.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRun_IdenticalScoresTieBreakByID(t *testing.T) {
	// Identical text means identical BM25 scores; feed them in reverse id
	// order to prove the tie-break is not insertion order.
	corpus := []*model.Conversation{
		conv("conv-b", "Same", day(2024, 1, 1), msg("m1", model.RoleUser, "identical words here")),
		conv("conv-a", "Same", day(2024, 1, 1), msg("m2", model.RoleUser, "identical words here")),
	}
	query := model.NewSearchQuery()
	query.Keywords = []string{"identical"}

	results := runSearch(t, query, corpus...)

	assert.Equal(t, []string{"conv-a", "conv-b"}, resultIDs(results))
}

func TestRun_LimitTruncatesAfterSort(t *testing.T) {
	query := model.NewSearchQuery()
	query.Limit = 2

	results := runSearch(t, query, testCorpus()...)

	assert.Equal(t, []string{"conv-a", "conv-b"}, resultIDs(results))
}

func TestRun_SameQueryIsDeterministic(t *testing.T) {
	query := model.NewSearchQuery()
	query.Keywords = []string{"goroutines", "python", "borrow"}

	first := runSearch(t, query, testCorpus()...)
	second := runSearch(t, query, testCorpus()...)

	require.Equal(t, resultIDs(first), resultIDs(second))
	for i := range first {
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].MatchedMessageIDs, second[i].MatchedMessageIDs)
		assert.Equal(t, first[i].Snippet, second[i].Snippet)
	}
}

func TestRun_InvalidQueryRejected(t *testing.T) {
	query := model.NewSearchQuery()
	query.Limit = 0

	_, err := Run(context.Background(), &sliceSource{}, query, WithLogger(testLogger))

	require.Error(t, err)
	assert.Equal(t, sifterrors.ErrCodeQueryInvalid, sifterrors.GetCode(err))
}

func TestRun_SourceErrorPropagates(t *testing.T) {
	src := &sliceSource{
		convs: testCorpus(),
		err:   sifterrors.ParseFailed("/tmp/export.json", assert.AnError),
	}

	_, err := Run(context.Background(), src, model.NewSearchQuery(), WithLogger(testLogger))

	require.Error(t, err)
	assert.Equal(t, sifterrors.ErrCodeJSONSyntax, sifterrors.GetCode(err))
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &sliceSource{convs: testCorpus()}, model.NewSearchQuery(), WithLogger(testLogger))

	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_EmptySource(t *testing.T) {
	results, err := Run(context.Background(), &sliceSource{}, model.NewSearchQuery(), WithLogger(testLogger))

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_SnippetWidthOption(t *testing.T) {
	long := conv("conv-long", "Long", day(2024, 1, 1),
		msg("m1", model.RoleUser, "needle followed by a very long tail that keeps going and going and going well past any narrow budget"),
	)
	query := model.NewSearchQuery()
	query.Keywords = []string{"needle"}

	results, err := Run(context.Background(), &sliceSource{convs: []*model.Conversation{long}}, query,
		WithLogger(testLogger), WithSnippetWidth(20))

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "needle")
	assert.Contains(t, results[0].Snippet, "...")
}

func BenchmarkRun_KeywordSearch(b *testing.B) {
	convs := make([]*model.Conversation, 500)
	for i := range convs {
		convs[i] = conv(fmt.Sprintf("conv-%04d", i), "Benchmark fixture", day(2024, 1, 1),
			msg("m1", model.RoleUser, "How do I tune garbage collection pauses for a latency sensitive service?"),
			msg("m2", model.RoleAssistant, "Start with GOGC and the soft memory limit, then profile allocation hot spots."),
		)
	}
	query := model.NewSearchQuery()
	query.Keywords = []string{"garbage", "latency"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Run(context.Background(), &sliceSource{convs: convs}, query, WithLogger(testLogger))
		if err != nil {
			b.Fatal(err)
		}
	}
}
