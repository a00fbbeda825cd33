package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/chatsift/internal/model"
)

func plainWriter() (*Writer, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, WithColorMode("never")), &buf
}

func sampleConversation() model.Conversation {
	created := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	return model.Conversation{
		ID:        "conv-alpha",
		Title:     "Go Concurrency Patterns",
		CreatedAt: created,
		UpdatedAt: &updated,
		Messages: []model.Message{
			{ID: "m1", Role: model.RoleUser, Content: "How do goroutines work?", Timestamp: created},
			{ID: "m2", Role: model.RoleAssistant, Content: "They are lightweight threads.", Timestamp: created.Add(time.Minute)},
		},
	}
}

func TestSearchResults_RendersRankedHits(t *testing.T) {
	w, buf := plainWriter()
	conv := sampleConversation()

	w.SearchResults([]model.SearchResult{
		{
			Conversation:      &conv,
			Score:             0.8734,
			MatchedMessageIDs: []string{"m1"},
			Snippet:           "...goroutines work...",
		},
	})

	out := buf.String()
	assert.Contains(t, out, " 1.")
	assert.Contains(t, out, "Go Concurrency Patterns")
	assert.Contains(t, out, "conv-alpha")
	assert.Contains(t, out, "0.873")
	assert.Contains(t, out, "2024-01-10 · 2 messages · 1 matched")
	assert.Contains(t, out, "...goroutines work...")
}

func TestSearchResults_EmptySaysSo(t *testing.T) {
	w, buf := plainWriter()

	w.SearchResults(nil)

	assert.Contains(t, buf.String(), "no matches")
}

func TestConversationRows_AlignsColumns(t *testing.T) {
	w, buf := plainWriter()
	short := sampleConversation()
	long := sampleConversation()
	long.ID = "conv-beta"
	long.Title = strings.Repeat("Long Title ", 10)

	w.ConversationRows([]model.Conversation{short, long})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	// Columns line up in display cells even though the truncated title's
	// ellipsis is multibyte.
	cellsBeforeCounter := func(line string) int {
		return runewidth.StringWidth(line[:strings.Index(line, "msgs")])
	}
	assert.Equal(t, cellsBeforeCounter(lines[0]), cellsBeforeCounter(lines[1]))
	assert.Contains(t, lines[0], "ago")
}

func TestConversationDetail_RendersAllMessages(t *testing.T) {
	w, buf := plainWriter()
	conv := sampleConversation()

	w.ConversationDetail(&conv)

	out := buf.String()
	assert.Contains(t, out, "Go Concurrency Patterns")
	assert.Contains(t, out, "created 2024-01-10")
	assert.Contains(t, out, "updated 2024-04-01")
	assert.Contains(t, out, "[user]")
	assert.Contains(t, out, "[assistant]")
	assert.Contains(t, out, "How do goroutines work?")
	assert.Contains(t, out, "They are lightweight threads.")
}

func TestTruncate_CountsDisplayCells(t *testing.T) {
	// CJK runes are two cells wide; ten of them exceed a 12-cell budget.
	wide := strings.Repeat("猫", 10)

	got := truncate(wide, 12)

	assert.LessOrEqual(t, runewidth.StringWidth(got), 12)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, wide, truncate(wide, 0))
}

func TestJSON_PrettyPrints(t *testing.T) {
	w, buf := plainWriter()

	require.NoError(t, w.JSON(map[string]int{"total": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["total"])
	assert.Contains(t, buf.String(), "\n")
}

func TestStatusLines(t *testing.T) {
	w, buf := plainWriter()

	w.Success("exported 3 conversations")
	w.Warning("2 entries skipped")
	w.Error("archive not found")

	out := buf.String()
	assert.Contains(t, out, "✓ exported 3 conversations")
	assert.Contains(t, out, "! 2 entries skipped")
	assert.Contains(t, out, "✗ archive not found")
}

func TestWithQuiet(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, WithColorMode("never"), WithQuiet(true))

	w.Success("exported 3 conversations")
	w.Warning("2 entries skipped")
	w.Progress(10, "conversations")
	w.Done()

	assert.Empty(t, buf.String(), "quiet drops status decorations")

	w.Print("conv-alpha")
	w.Error("archive not found")
	assert.Contains(t, buf.String(), "conv-alpha", "results still print")
	assert.Contains(t, buf.String(), "✗ archive not found", "errors still print")
}

func TestColorMode(t *testing.T) {
	t.Run("never disables styling", func(t *testing.T) {
		var buf bytes.Buffer
		w := New(&buf, WithColorMode("never"))

		w.Success("done")

		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("auto is plain for non-terminal writers", func(t *testing.T) {
		var buf bytes.Buffer
		w := New(&buf, WithColorMode("auto"))

		w.Success("done")

		assert.NotContains(t, buf.String(), "\x1b[")
	})
}

func TestWithWidth(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, defaultWidth, New(&buf).Width())
	assert.Equal(t, 72, New(&buf, WithWidth(72)).Width())
	assert.Equal(t, defaultWidth, New(&buf, WithWidth(0)).Width())
}
