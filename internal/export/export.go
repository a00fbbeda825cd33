// Package export writes normalized conversations out to portable formats.
// Exports consume a stream, so memory stays bounded by one conversation
// regardless of archive size.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
)

// Format identifies an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatSQLite   Format = "sqlite"
)

// ParseFormat maps a user-supplied format name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, FormatJSON, FormatCSV, FormatSQLite:
		return Format(s), nil
	default:
		return "", sifterrors.New(sifterrors.ErrCodeExportInvalid,
			fmt.Sprintf("unknown export format %q", s), nil).
			WithSuggestion("valid export formats are markdown, json, csv, and sqlite")
	}
}

// Source yields conversations one at a time. *provider.Stream satisfies it.
type Source interface {
	Next() bool
	Conversation() *model.Conversation
	Err() error
}

// Summary reports what an export produced.
type Summary struct {
	Conversations int
	Messages      int
}

// Exporter writes conversations in a chosen format.
type Exporter struct {
	log *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Exporter) {
		if log != nil {
			e.log = log
		}
	}
}

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToWriter streams src into w. SQLite cannot target a writer; use ToFile.
func (e *Exporter) ToWriter(ctx context.Context, src Source, format Format, w io.Writer) (Summary, error) {
	e.log.Info("export_started",
		slog.String("format", string(format)),
		slog.String("destination", "writer"))

	var (
		sum Summary
		err error
	)
	switch format {
	case FormatMarkdown:
		sum, err = writeMarkdown(ctx, w, src)
	case FormatJSON:
		sum, err = writeJSON(ctx, w, src)
	case FormatCSV:
		sum, err = writeCSV(ctx, w, src)
	case FormatSQLite:
		return Summary{}, sifterrors.New(sifterrors.ErrCodeExportInvalid,
			"sqlite export needs a file destination", nil).
			WithSuggestion("pass an output path for sqlite exports")
	default:
		return Summary{}, sifterrors.New(sifterrors.ErrCodeExportInvalid,
			fmt.Sprintf("unknown export format %q", format), nil)
	}
	if err != nil {
		return sum, err
	}

	e.log.Info("export_completed",
		slog.String("format", string(format)),
		slog.Int("conversations", sum.Conversations),
		slog.Int("messages", sum.Messages))
	return sum, nil
}

// ToFile streams src into the file at path, creating or truncating it.
func (e *Exporter) ToFile(ctx context.Context, src Source, format Format, path string) (Summary, error) {
	if format == FormatSQLite {
		e.log.Info("export_started",
			slog.String("format", string(format)),
			slog.String("destination", path))
		sum, err := writeSQLite(ctx, path, src)
		if err != nil {
			return sum, err
		}
		e.log.Info("export_completed",
			slog.String("format", string(format)),
			slog.String("destination", path),
			slog.Int("conversations", sum.Conversations),
			slog.Int("messages", sum.Messages))
		return sum, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return Summary{}, sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot create export file %s", path), err)
	}

	sum, err := e.ToWriter(ctx, src, format, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot finish export file %s", path), closeErr)
	}
	return sum, err
}
