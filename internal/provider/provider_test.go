package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
)

func TestProviderNames(t *testing.T) {
	assert.Equal(t, "openai", NewOpenAIProvider().Name())
	assert.Equal(t, "claude", NewClaudeProvider().Name())
}

func TestMatchesID(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		query     string
		want      bool
	}{
		{"exact match", "conv-alpha", "conv-alpha", true},
		{"exact match ignores case", "conv-alpha", "CONV-ALPHA", true},
		{"four character prefix", "conv-alpha", "conv", true},
		{"prefix ignores case", "conv-alpha", "CONV-AL", true},
		{"three characters only match in full", "conv-alpha", "con", false},
		{"short full id still matches", "ab1", "ab1", true},
		{"short full id ignores case", "ab1", "AB1", true},
		{"query longer than candidate", "conv", "conv-alpha", false},
		{"empty query never matches", "conv-alpha", "", false},
		{"empty candidate", "", "conv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesID(tt.candidate, tt.query))
		})
	}
}

func TestGetConversationByID(t *testing.T) {
	ctx := context.Background()
	path := writeArchive(t, openaiTwoConvs)
	p := NewOpenAIProvider()

	t.Run("full id", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "conv-beta")

		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "Shell Tips", conv.Title)
	})

	t.Run("case-insensitive full id", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "CONV-ALPHA")

		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "conv-alpha", conv.ID)
	})

	t.Run("prefix takes the first match in file order", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "conv")

		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "conv-alpha", conv.ID)
	})

	t.Run("longer prefix narrows the match", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "conv-b")

		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "conv-beta", conv.ID)
	})

	t.Run("prefix shorter than four characters finds nothing", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "con")

		require.NoError(t, err)
		assert.Nil(t, conv)
	})

	t.Run("not found is nil without error", func(t *testing.T) {
		conv, err := p.GetConversationByID(ctx, path, "conv-gamma")

		require.NoError(t, err)
		assert.Nil(t, conv)
	})

	t.Run("open failures propagate", func(t *testing.T) {
		_, err := p.GetConversationByID(ctx, "/nonexistent/export.json", "conv-alpha")

		assert.ErrorIs(t, err, sifterrors.ErrFileNotFound)
	})
}

func TestGetMessageByID(t *testing.T) {
	ctx := context.Background()
	path := writeArchive(t, openaiTwoConvs)
	p := NewOpenAIProvider()

	t.Run("found with owning conversation", func(t *testing.T) {
		msg, conv, err := p.GetMessageByID(ctx, path, "msg-a2", "")

		require.NoError(t, err)
		require.NotNil(t, msg)
		require.NotNil(t, conv)
		assert.Equal(t, "They are lightweight threads.", msg.Content)
		assert.Equal(t, "conv-alpha", conv.ID)
	})

	t.Run("message prefix takes the first match in scan order", func(t *testing.T) {
		msg, conv, err := p.GetMessageByID(ctx, path, "msg-a", "")

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "msg-a1", msg.ID)
		assert.Equal(t, "conv-alpha", conv.ID)
	})

	t.Run("hint restricts the scan", func(t *testing.T) {
		msg, conv, err := p.GetMessageByID(ctx, path, "msg-a1", "conv-beta")

		require.NoError(t, err)
		assert.Nil(t, msg)
		assert.Nil(t, conv)
	})

	t.Run("hint accepts a prefix", func(t *testing.T) {
		msg, conv, err := p.GetMessageByID(ctx, path, "msg-b1", "conv-b")

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "msg-b1", msg.ID)
		assert.Equal(t, "conv-beta", conv.ID)
	})

	t.Run("not found is nil without error", func(t *testing.T) {
		msg, conv, err := p.GetMessageByID(ctx, path, "msg-zz", "")

		require.NoError(t, err)
		assert.Nil(t, msg)
		assert.Nil(t, conv)
	})
}

func TestProviderSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("unconstrained query returns everything at full score", func(t *testing.T) {
		path := writeArchive(t, openaiTwoConvs)

		results, err := NewOpenAIProvider().Search(ctx, path, model.NewSearchQuery(), WithLogger(testLogger))

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "conv-alpha", results[0].Conversation.ID)
		assert.Equal(t, "conv-beta", results[1].Conversation.ID)
		assert.Equal(t, 1.0, results[0].Score)
		assert.Equal(t, 1.0, results[1].Score)
		assert.Equal(t, 2, results[0].Conversation.MessageCount())
		assert.Equal(t, 1, results[1].Conversation.MessageCount())
	})

	t.Run("keyword search ranks and snips", func(t *testing.T) {
		path := writeArchive(t, openaiTwoConvs)
		query := model.NewSearchQuery()
		query.Keywords = []string{"goroutines"}

		results, err := NewOpenAIProvider().Search(ctx, path, query, WithLogger(testLogger))

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "conv-alpha", results[0].Conversation.ID)
		assert.Greater(t, results[0].Score, 0.0)
		assert.LessOrEqual(t, results[0].Score, 1.0)
		assert.Contains(t, results[0].Snippet, "goroutines")
		assert.Equal(t, []string{"msg-a1"}, results[0].MatchedMessageIDs)
	})

	t.Run("works over claude archives", func(t *testing.T) {
		path := writeArchive(t, claudeTwoConvs)
		query := model.NewSearchQuery()
		query.Keywords = []string{"coordinator"}

		results, err := NewClaudeProvider().Search(ctx, path, query, WithLogger(testLogger))

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "claude-conv-0001", results[0].Conversation.ID)
		assert.Equal(t, []string{"m-two"}, results[0].MatchedMessageIDs)
	})

	t.Run("invalid query is rejected", func(t *testing.T) {
		path := writeArchive(t, openaiTwoConvs)
		query := model.NewSearchQuery()
		query.Limit = 0

		_, err := NewOpenAIProvider().Search(ctx, path, query, WithLogger(testLogger))

		require.Error(t, err)
		assert.Equal(t, sifterrors.ErrCodeQueryInvalid, sifterrors.GetCode(err))
	})

	t.Run("open failures propagate", func(t *testing.T) {
		_, err := NewOpenAIProvider().Search(ctx, "/nonexistent/export.json", model.NewSearchQuery(), WithLogger(testLogger))

		assert.ErrorIs(t, err, sifterrors.ErrFileNotFound)
	})
}
