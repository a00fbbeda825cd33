package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
)

// writeMarkdown renders conversations as one markdown document, separated by
// thematic breaks.
func writeMarkdown(ctx context.Context, w io.Writer, src Source) (Summary, error) {
	var sum Summary
	bw := bufio.NewWriter(w)

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if sum.Conversations > 0 {
			bw.WriteString("\n---\n\n")
		}
		conv := src.Conversation()
		writeConversationMarkdown(bw, conv)
		sum.Conversations++
		sum.Messages += conv.MessageCount()
	}
	if err := src.Err(); err != nil {
		return sum, err
	}

	return sum, bw.Flush()
}

// ToDirectory writes one markdown file per conversation into dir, creating
// it when needed. Filenames combine a title slug with an id fragment so
// same-titled conversations do not clobber each other.
func (e *Exporter) ToDirectory(ctx context.Context, src Source, dir string) (Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot create export directory %s", dir), err)
	}
	e.log.Info("export_started",
		slog.String("format", string(FormatMarkdown)),
		slog.String("destination", dir))

	var sum Summary
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		conv := src.Conversation()
		if err := writeConversationFile(filepath.Join(dir, conversationFilename(conv)), conv); err != nil {
			return sum, err
		}
		sum.Conversations++
		sum.Messages += conv.MessageCount()
	}
	if err := src.Err(); err != nil {
		return sum, err
	}

	e.log.Info("export_completed",
		slog.String("format", string(FormatMarkdown)),
		slog.String("destination", dir),
		slog.Int("conversations", sum.Conversations),
		slog.Int("messages", sum.Messages))
	return sum, nil
}

func writeConversationFile(path string, conv *model.Conversation) error {
	file, err := os.Create(path)
	if err != nil {
		return sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot create export file %s", path), err)
	}

	bw := bufio.NewWriter(file)
	writeConversationMarkdown(bw, conv)
	err = bw.Flush()
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot finish export file %s", path), err)
	}
	return nil
}

// conversationFilename is <slug(title)>-<short id>.md.
func conversationFilename(conv *model.Conversation) string {
	return slugify(conv.Title) + "-" + shortID(conv.ID) + ".md"
}

// slugMaxLen caps slug bytes so titles cannot produce unwieldy filenames.
const slugMaxLen = 60

// slugify lowercases the title, keeps letters and digits, and folds every
// other run of characters into a single hyphen.
func slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if b.Len() >= slugMaxLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

// shortID keeps the first eight filename-safe characters of an id.
func shortID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if b.Len() >= 8 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func writeConversationMarkdown(bw *bufio.Writer, conv *model.Conversation) {
	fmt.Fprintf(bw, "# %s\n\n", conv.Title)
	fmt.Fprintf(bw, "- ID: %s\n", conv.ID)
	fmt.Fprintf(bw, "- Created: %s\n", conv.CreatedAt.Format(time.RFC3339))
	if conv.UpdatedAt != nil {
		fmt.Fprintf(bw, "- Updated: %s\n", conv.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(bw, "- Messages: %d\n", conv.MessageCount())

	for i := range conv.Messages {
		msg := &conv.Messages[i]
		fmt.Fprintf(bw, "\n## [%s] %s\n\n", msg.Role, msg.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(bw, "%s\n", msg.Content)
	}
}
