// Package provider normalizes exported chat archives into the shared
// conversation model. Each provider adapter understands one export schema
// and feeds a memory-bounded stream: one conversation in memory at a time,
// no index, no persistence.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/search"
)

// Provider is the capability surface of one export schema. Implementations
// are stateless and safe to share; the streams they hand out are not.
type Provider interface {
	// StreamConversations opens path and returns a single-use iterator over
	// its normalized conversations. The caller owns the stream and must
	// close it.
	StreamConversations(ctx context.Context, path string, opts ...StreamOption) (*Stream, error)

	// Search runs one ranked search over path.
	Search(ctx context.Context, path string, query model.SearchQuery, opts ...StreamOption) ([]model.SearchResult, error)

	// GetConversationByID scans for the first conversation whose id matches
	// idOrPrefix (case-insensitive; prefixes need at least four characters).
	// Not found is (nil, nil).
	GetConversationByID(ctx context.Context, path, idOrPrefix string) (*model.Conversation, error)

	// GetMessageByID scans for a message by id, optionally restricted to a
	// hinted conversation, and returns it with its owning conversation.
	// Not found is (nil, nil, nil).
	GetMessageByID(ctx context.Context, path, messageID, conversationHint string) (*model.Message, *model.Conversation, error)

	// Name returns the provider's schema name ("openai", "claude").
	Name() string
}

// StreamOption configures one streaming call.
type StreamOption func(*streamConfig)

// WithLogger sets the logger for stream events. Defaults to slog.Default().
func WithLogger(log *slog.Logger) StreamOption {
	return func(c *streamConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithProgressFunc registers a callback invoked with the running count every
// progressInterval conversations and once more at exhaustion.
func WithProgressFunc(fn func(count int)) StreamOption {
	return func(c *streamConfig) {
		c.progressFn = fn
	}
}

// WithSkipFunc registers a callback invoked for every entry the stream
// skips, with the entry's best-effort id and the reason.
func WithSkipFunc(fn func(id, reason string)) StreamOption {
	return func(c *streamConfig) {
		c.skipFn = fn
	}
}

type streamConfig struct {
	log        *slog.Logger
	progressFn func(count int)
	skipFn     func(id, reason string)
}

func newStreamConfig(opts ...StreamOption) streamConfig {
	cfg := streamConfig{log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// minIDPrefix is the shortest id prefix a lookup accepts. Shorter queries
// only match a full id of the same length.
const minIDPrefix = 4

// MatchesID reports whether candidate matches the queried id: equal ignoring
// case, or a case-insensitive prefix of at least minIDPrefix characters.
func MatchesID(candidate, query string) bool {
	if query == "" {
		return false
	}
	c, q := strings.ToLower(candidate), strings.ToLower(query)
	if c == q {
		return true
	}
	return len(q) >= minIDPrefix && strings.HasPrefix(c, q)
}

// base carries the shared streaming, search, and lookup behavior; adapters
// contribute only their schema name and entry decoder.
type base struct {
	name    string
	decoder func(log *slog.Logger) entryDecoder
}

func (b base) Name() string {
	return b.name
}

func (b base) StreamConversations(ctx context.Context, path string, opts ...StreamOption) (*Stream, error) {
	cfg := newStreamConfig(opts...)
	return newStream(ctx, path, b.name, b.decoder(cfg.log), cfg)
}

func (b base) Search(ctx context.Context, path string, query model.SearchQuery, opts ...StreamOption) ([]model.SearchResult, error) {
	cfg := newStreamConfig(opts...)
	stream, err := newStream(ctx, path, b.name, b.decoder(cfg.log), cfg)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	return search.Run(ctx, stream, query, search.WithLogger(cfg.log))
}

func (b base) GetConversationByID(ctx context.Context, path, idOrPrefix string) (*model.Conversation, error) {
	stream, err := b.StreamConversations(ctx, path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for stream.Next() {
		if conv := stream.Conversation(); MatchesID(conv.ID, idOrPrefix) {
			return conv, nil
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b base) GetMessageByID(ctx context.Context, path, messageID, conversationHint string) (*model.Message, *model.Conversation, error) {
	stream, err := b.StreamConversations(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	for stream.Next() {
		conv := stream.Conversation()
		if conversationHint != "" && !MatchesID(conv.ID, conversationHint) {
			continue
		}
		for i := range conv.Messages {
			if MatchesID(conv.Messages[i].ID, messageID) {
				return &conv.Messages[i], conv, nil
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}
