package provider

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/chatsift/internal/model"
)

// ClaudeProvider reads Claude.ai exports: a JSON array of conversations with
// a flat chat_messages list, no threading.
type ClaudeProvider struct {
	base
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider returns the adapter for the Claude export schema.
func NewClaudeProvider() *ClaudeProvider {
	return &ClaudeProvider{base{name: "claude", decoder: claudeDecoder}}
}

func claudeDecoder(log *slog.Logger) entryDecoder {
	return func(dec *json.Decoder) (*model.Conversation, error) {
		var raw claudeConversation
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		return normalizeClaude(&raw, log)
	}
}

type claudeConversation struct {
	UUID         string              `json:"uuid"`
	Name         string              `json:"name"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
	ChatMessages []claudeChatMessage `json:"chat_messages"`
}

type claudeChatMessage struct {
	UUID      string        `json:"uuid"`
	Sender    string        `json:"sender"`
	Text      string        `json:"text"`
	Content   []claudeBlock `json:"content"`
	CreatedAt string        `json:"created_at"`
}

type claudeBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func normalizeClaude(raw *claudeConversation, log *slog.Logger) (*model.Conversation, error) {
	if raw.UUID == "" {
		return nil, &skipError{reason: "conversation uuid is empty"}
	}
	if raw.ChatMessages == nil {
		return nil, &skipError{id: raw.UUID, reason: "missing chat_messages"}
	}
	created, err := parseRFC3339(raw.CreatedAt)
	if err != nil {
		return nil, &skipError{id: raw.UUID, reason: "bad created_at: " + err.Error()}
	}

	conv := &model.Conversation{
		ID:        raw.UUID,
		Title:     raw.Name,
		CreatedAt: created,
	}
	if conv.Title == "" {
		conv.Title = model.UntitledTitle
	}
	if raw.UpdatedAt != "" {
		// updated_at is optional metadata: unparseable values are dropped,
		// not skipped over.
		if updated, err := parseRFC3339(raw.UpdatedAt); err == nil {
			if updated.Before(created) {
				log.Warn("updated_at precedes created_at, dropping it",
					slog.String("conversation_id", raw.UUID))
			} else {
				conv.UpdatedAt = &updated
			}
		}
	}

	for i := range raw.ChatMessages {
		rawMsg := &raw.ChatMessages[i]
		if rawMsg.UUID == "" {
			continue
		}

		role, meta := mapClaudeSender(rawMsg.Sender)
		ts := created
		if rawMsg.CreatedAt != "" {
			if t, err := parseRFC3339(rawMsg.CreatedAt); err == nil {
				ts = t
			}
		}

		conv.Messages = append(conv.Messages, model.Message{
			ID:        rawMsg.UUID,
			Content:   claudeText(rawMsg),
			Role:      role,
			Timestamp: ts,
			Metadata:  meta,
		})
	}
	if len(conv.Messages) == 0 {
		conv.Messages = []model.Message{model.PlaceholderMessage(created)}
	}

	if err := conv.Validate(); err != nil {
		return nil, &skipError{id: raw.UUID, reason: err.Error()}
	}
	return conv, nil
}

// claudeText extracts the readable text: text blocks joined by blank lines,
// with tool_use and tool_result blocks skipped. When block extraction yields
// nothing the flat text field stands in.
func claudeText(m *claudeChatMessage) string {
	var parts []string
	for _, block := range m.Content {
		if block.Type != "text" {
			continue
		}
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return m.Text
	}
	return strings.Join(parts, "\n\n")
}

func mapClaudeSender(sender string) (model.Role, map[string]any) {
	switch sender {
	case "human":
		return model.RoleUser, nil
	case "assistant":
		return model.RoleAssistant, nil
	}
	if r, ok := model.ParseRole(sender); ok {
		return r, nil
	}
	return model.RoleAssistant, map[string]any{model.MetadataKeyOriginalRole: sender}
}

// parseRFC3339 parses Claude's timestamps, tolerating fractional seconds,
// and normalizes to UTC.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
