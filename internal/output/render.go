package output

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Aman-CERP/chatsift/internal/model"
)

const (
	idColumn    = 20
	titleColumn = 48
)

// SearchResults renders ranked hits, one block per conversation.
func (w *Writer) SearchResults(results []model.SearchResult) {
	if len(results) == 0 {
		w.Print(w.styles.Meta.Render("no matches"))
		return
	}

	for i, res := range results {
		conv := res.Conversation
		w.Printf("%s %s  %s  %s",
			w.styles.Meta.Render(fmt.Sprintf("%2d.", i+1)),
			w.styles.Title.Render(truncate(conv.Title, titleColumn)),
			w.styles.ID.Render(conv.ID),
			w.styles.Score.Render(fmt.Sprintf("%.3f", res.Score)))

		meta := fmt.Sprintf("%s · %d messages",
			conv.CreatedAt.Format("2006-01-02"), conv.MessageCount())
		if n := len(res.MatchedMessageIDs); n > 0 {
			meta = fmt.Sprintf("%s · %d matched", meta, n)
		}
		w.Printf("    %s", w.styles.Meta.Render(meta))

		if res.Snippet != "" {
			w.Printf("    %s", w.styles.Snippet.Render(res.Snippet))
		}
		if i < len(results)-1 {
			w.Newline()
		}
	}
}

// ConversationRows renders one aligned row per conversation, for listings.
func (w *Writer) ConversationRows(convs []model.Conversation) {
	for i := range convs {
		conv := &convs[i]
		w.Printf("%s  %s  %s  %s",
			w.styles.ID.Render(pad(conv.ID, idColumn)),
			w.styles.Title.Render(pad(conv.Title, titleColumn)),
			w.styles.Meta.Render(fmt.Sprintf("%4d msgs", conv.MessageCount())),
			w.styles.Meta.Render(humanize.Time(lastActivity(conv))))
	}
}

// ConversationDetail renders a full conversation with all its messages.
func (w *Writer) ConversationDetail(conv *model.Conversation) {
	w.Print(w.styles.Title.Render(conv.Title))

	meta := fmt.Sprintf("%s · created %s", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04 MST"))
	if conv.UpdatedAt != nil {
		meta = fmt.Sprintf("%s · updated %s", meta, conv.UpdatedAt.Format("2006-01-02 15:04 MST"))
	}
	meta = fmt.Sprintf("%s · %d messages", meta, conv.MessageCount())
	w.Print(w.styles.Meta.Render(meta))
	w.Rule()

	for i := range conv.Messages {
		w.Message(&conv.Messages[i])
		if i < len(conv.Messages)-1 {
			w.Newline()
		}
	}
}

// Message renders a single message with its role header.
func (w *Writer) Message(msg *model.Message) {
	header := fmt.Sprintf("[%s] %s", msg.Role, msg.Timestamp.Format("2006-01-02 15:04:05 MST"))
	w.Print(w.styles.Role.Render(header))
	w.Print(msg.Content)
}

// lastActivity is the conversation's most recent timestamp.
func lastActivity(conv *model.Conversation) time.Time {
	if conv.UpdatedAt != nil {
		return *conv.UpdatedAt
	}
	return conv.CreatedAt
}

// truncate shortens s to at most width terminal cells, ellipsized. Widths
// are display cells, so CJK text truncates correctly.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// pad truncates then right-pads s to exactly width cells.
func pad(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}
