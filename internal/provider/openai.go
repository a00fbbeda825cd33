package provider

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Aman-CERP/chatsift/internal/model"
)

// OpenAIProvider reads ChatGPT exports: a JSON array of conversations, each
// carrying its messages as a node tree under "mapping".
type OpenAIProvider struct {
	base
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider returns the adapter for the OpenAI export schema.
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{base{name: "openai", decoder: openaiDecoder}}
}

func openaiDecoder(log *slog.Logger) entryDecoder {
	return func(dec *json.Decoder) (*model.Conversation, error) {
		var raw openaiConversation
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		return normalizeOpenAI(&raw, log)
	}
}

type openaiConversation struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Title          string                 `json:"title"`
	CreateTime     *float64               `json:"create_time"`
	UpdateTime     *float64               `json:"update_time"`
	Mapping        map[string]*openaiNode `json:"mapping"`
}

type openaiNode struct {
	ID       string         `json:"id"`
	Message  *openaiMessage `json:"message"`
	Parent   *string        `json:"parent"`
	Children []string       `json:"children"`
}

type openaiMessage struct {
	ID         string        `json:"id"`
	Author     openaiAuthor  `json:"author"`
	CreateTime *float64      `json:"create_time"`
	Content    openaiContent `json:"content"`
}

type openaiAuthor struct {
	Role string `json:"role"`
}

type openaiContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
}

func normalizeOpenAI(raw *openaiConversation, log *slog.Logger) (*model.Conversation, error) {
	id := raw.ID
	if id == "" {
		// Older exports carry conversation_id instead of id.
		id = raw.ConversationID
	}
	if id == "" {
		return nil, &skipError{reason: "conversation id is empty"}
	}
	if raw.Mapping == nil {
		return nil, &skipError{id: id, reason: "missing mapping"}
	}
	if raw.CreateTime == nil || *raw.CreateTime == 0 {
		return nil, &skipError{id: id, reason: "missing create_time"}
	}

	conv := &model.Conversation{
		ID:        id,
		Title:     raw.Title,
		CreatedAt: unixTime(*raw.CreateTime),
	}
	if conv.Title == "" {
		conv.Title = model.UntitledTitle
	}
	if raw.UpdateTime != nil && *raw.UpdateTime != 0 {
		updated := unixTime(*raw.UpdateTime)
		if updated.Before(conv.CreatedAt) {
			log.Warn("update_time precedes create_time, dropping it",
				slog.String("conversation_id", id))
		} else {
			conv.UpdatedAt = &updated
		}
	}

	conv.Messages = messagesFromMapping(raw.Mapping)
	if len(conv.Messages) == 0 {
		conv.Messages = []model.Message{model.PlaceholderMessage(conv.CreatedAt)}
	}

	if err := conv.Validate(); err != nil {
		return nil, &skipError{id: id, reason: err.Error()}
	}
	return conv, nil
}

// messagesFromMapping flattens the node tree into messages sorted by
// timestamp. Nodes whose message is null are navigation scaffolding (the
// synthetic root, branch points) and are filtered out; parent references
// through them collapse to the nearest surviving ancestor.
func messagesFromMapping(mapping map[string]*openaiNode) []model.Message {
	// Map iteration order is randomized; sorted node ids make the traversal,
	// and therefore timestamp ties, deterministic.
	nodeIDs := make([]string, 0, len(mapping))
	for nodeID := range mapping {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	// Message id per surviving node, the target space for parent references.
	resolvedID := make(map[string]string, len(mapping))
	for _, nodeID := range nodeIDs {
		node := mapping[nodeID]
		if node == nil || node.Message == nil {
			continue
		}
		msgID := node.Message.ID
		if msgID == "" {
			msgID = nodeID
		}
		if msgID != "" {
			resolvedID[nodeID] = msgID
		}
	}

	var messages []model.Message
	for _, nodeID := range nodeIDs {
		msgID, ok := resolvedID[nodeID]
		if !ok {
			continue
		}
		node := mapping[nodeID]
		m := node.Message

		role, meta := mapOpenAIRole(m.Author.Role)

		// Missing message timestamps become the Unix epoch rather than a
		// skip: system and tool turns in real exports frequently omit them.
		ts := time.Unix(0, 0).UTC()
		if m.CreateTime != nil && *m.CreateTime != 0 {
			ts = unixTime(*m.CreateTime)
		}

		messages = append(messages, model.Message{
			ID:        msgID,
			Content:   joinStringParts(m.Content.Parts),
			Role:      role,
			Timestamp: ts,
			ParentID:  resolveParent(mapping, resolvedID, node.Parent),
			Metadata:  meta,
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages
}

// resolveParent walks parent pointers upward until it reaches a node that
// survived filtering. Nil for roots, unknown parents, and pointer cycles.
func resolveParent(mapping map[string]*openaiNode, resolvedID map[string]string, parent *string) *string {
	seen := make(map[string]struct{})
	for parent != nil {
		nodeID := *parent
		if _, dup := seen[nodeID]; dup {
			return nil
		}
		seen[nodeID] = struct{}{}

		if msgID, ok := resolvedID[nodeID]; ok {
			return &msgID
		}
		node, ok := mapping[nodeID]
		if !ok || node == nil {
			return nil
		}
		parent = node.Parent
	}
	return nil
}

// joinStringParts joins the string-typed parts with newlines. Structured
// parts (image pointers, multimodal payloads) decode as objects and are
// ignored.
func joinStringParts(parts []json.RawMessage) string {
	var texts []string
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err != nil {
			continue
		}
		if s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n")
}

func mapOpenAIRole(role string) (model.Role, map[string]any) {
	if r, ok := model.ParseRole(role); ok {
		return r, nil
	}
	// "tool" and anything newer folds into assistant, keeping the original.
	return model.RoleAssistant, map[string]any{model.MetadataKeyOriginalRole: role}
}

// unixTime converts fractional unix seconds to UTC.
func unixTime(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
