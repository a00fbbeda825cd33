package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/export"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/output"
	"github.com/Aman-CERP/chatsift/internal/provider"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		id      string
	)

	cmd := &cobra.Command{
		Use:   "export <archive>",
		Short: "Convert an archive to another format",
		Long: `Convert an archive to markdown, JSON, CSV, or a SQLite database.

Text formats stream to stdout unless --out is set. For markdown, --out names
a directory and each conversation becomes its own file; other formats write
a single file. The sqlite format always writes a file; without --out it
lands in the working directory (or the configured export directory) named
after the archive. --id narrows the export to one conversation.`,
		Example: `  chatsift export export.json --format markdown > archive.md
  chatsift export export.json --format markdown --out notes/
  chatsift export export.json --format csv --out messages.csv
  chatsift export export.json --format sqlite
  chatsift export export.json --id conv-123 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd, args[0], format, outPath, id)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: markdown, json, csv, sqlite")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination file, or directory for markdown (default: stdout for text formats)")
	cmd.Flags().StringVar(&id, "id", "", "Export only the conversation with this id (or unique prefix)")

	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, archive, format, outPath, id string) error {
	rt, err := initRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if format == "" {
		format = rt.cfg.Export.Format
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if outPath == "" && f == export.FormatSQLite {
		outPath = defaultSQLitePath(rt.cfg.Export.Directory, archive)
	}

	p, err := provider.Resolve(rt.cfg.Provider, archive)
	if err != nil {
		return err
	}

	streamOpts := []provider.StreamOption{provider.WithLogger(rt.log)}
	showProgress := outPath != "" && output.IsTTY(cmd.ErrOrStderr())
	if showProgress {
		streamOpts = append(streamOpts, provider.WithProgressFunc(func(n int) {
			rt.status.Progress(n, "conversations")
		}))
	}
	stream, err := p.StreamConversations(ctx, archive, streamOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	var src export.Source = stream
	if id != "" {
		src = &idFilterSource{stream: stream, id: id}
	}

	exporter := export.New(export.WithLogger(rt.log))

	var summary export.Summary
	switch {
	case outPath == "":
		summary, err = exporter.ToWriter(ctx, src, f, cmd.OutOrStdout())
	case f == export.FormatMarkdown && id == "":
		summary, err = exporter.ToDirectory(ctx, src, outPath)
	default:
		summary, err = exporter.ToFile(ctx, src, f, outPath)
	}
	if err != nil {
		return err
	}
	if showProgress {
		rt.status.Done()
	}

	if id != "" && summary.Conversations == 0 {
		return sifterrors.NotFound("conversation", id).
			WithSuggestion("run 'chatsift list' to see conversation ids")
	}

	if outPath != "" {
		rt.status.Success(fmt.Sprintf("exported %s conversations (%s messages) to %s",
			humanize.Comma(int64(summary.Conversations)),
			humanize.Comma(int64(summary.Messages)),
			outPath))
	}
	return nil
}

// idFilterSource narrows a stream to the conversations matching one id
// query, so exports can target a single conversation without materializing
// the rest.
type idFilterSource struct {
	stream *provider.Stream
	id     string
	conv   *model.Conversation
}

func (s *idFilterSource) Next() bool {
	for s.stream.Next() {
		conv := s.stream.Conversation()
		if provider.MatchesID(conv.ID, s.id) {
			s.conv = conv
			return true
		}
	}
	return false
}

func (s *idFilterSource) Conversation() *model.Conversation { return s.conv }

func (s *idFilterSource) Err() error { return s.stream.Err() }

// defaultSQLitePath derives the database path from the archive name:
// export.json becomes export.sqlite, inside dir when one is configured.
func defaultSQLitePath(dir, archive string) string {
	base := filepath.Base(archive)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".sqlite"
	if dir == "" {
		return base
	}
	return filepath.Join(dir, base)
}
