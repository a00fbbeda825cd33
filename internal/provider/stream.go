package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/search"
)

// progressInterval is how many yielded conversations pass between progress
// callbacks.
const progressInterval = 100

// streamBufSize is the read buffer in front of the JSON decoder.
const streamBufSize = 64 * 1024

// entryDecoder consumes exactly one array element from dec and normalizes
// it. A *skipError means the element was consumed but cannot join the
// stream; any other error is a fatal syntax failure.
type entryDecoder func(dec *json.Decoder) (*model.Conversation, error)

// skipError marks a consumed element that failed normalization.
type skipError struct {
	id     string // best-effort, may be empty
	reason string
}

func (e *skipError) Error() string {
	return fmt.Sprintf("entry %q skipped: %s", e.id, e.reason)
}

// Stream iterates one export file, decoding one conversation per Next so
// memory stays bounded by the largest single conversation. It owns the file
// handle and closes it on exhaustion, on error, and on Close. Single-use
// and not goroutine-safe; every caller gets its own.
type Stream struct {
	ctx    context.Context
	path   string
	log    *slog.Logger
	file   *os.File
	dec    *json.Decoder
	decode entryDecoder
	cfg    streamConfig

	pending *model.Conversation // first element, decoded at construction
	current *model.Conversation
	count   int
	skipped int
	err     error
	done    bool
}

var _ search.Source = (*Stream)(nil)

func newStream(ctx context.Context, path, providerName string, decode entryDecoder, cfg streamConfig) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}

	dec := json.NewDecoder(bufio.NewReaderSize(file, streamBufSize))
	tok, err := dec.Token()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, sifterrors.ParseFailed(path, errors.New("empty file"))
		}
		return nil, sifterrors.ParseFailed(path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		file.Close()
		return nil, sifterrors.ParseFailed(path, fmt.Errorf("expected a top-level JSON array, got %v", tok))
	}

	s := &Stream{
		ctx:  ctx,
		path: path,
		log: cfg.log.With(
			slog.String("provider", providerName),
			slog.String("path", path)),
		file:   file,
		dec:    dec,
		decode: decode,
		cfg:    cfg,
	}

	// The first element is decoded eagerly: a file whose first entry cannot
	// normalize is not this schema, and the caller learns that before any
	// iteration starts.
	if dec.More() {
		conv, err := decode(dec)
		if err != nil {
			file.Close()
			var skip *skipError
			if errors.As(err, &skip) {
				return nil, sifterrors.SchemaUnsupported(path, skip.reason)
			}
			return nil, sifterrors.ParseFailed(path, err)
		}
		s.pending = conv
	}

	return s, nil
}

func openError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return sifterrors.FileNotFound(path)
	case errors.Is(err, fs.ErrPermission):
		return sifterrors.FilePermission(path, err)
	default:
		return sifterrors.FileRead(path, err)
	}
}

// Next advances to the next conversation. It returns false at the end of
// the archive, on a fatal error (see Err), and after Close. Entries that
// fail normalization are skipped, reported, and do not stop iteration.
func (s *Stream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.fail(err)
		return false
	}

	if s.pending != nil {
		s.current, s.pending = s.pending, nil
		s.advance()
		return true
	}

	for s.dec.More() {
		conv, err := s.decode(s.dec)
		if err != nil {
			var skip *skipError
			if errors.As(err, &skip) {
				s.skip(skip)
				continue
			}
			s.fail(sifterrors.ParseFailed(s.path, err))
			return false
		}
		s.current = conv
		s.advance()
		return true
	}

	s.finish()
	return false
}

// Conversation returns the conversation produced by the last successful
// Next. The stream holds no reference afterwards; callers may keep it.
func (s *Stream) Conversation() *model.Conversation {
	return s.current
}

// Err returns the error that stopped iteration, nil after a clean
// exhaustion. Context cancellation surfaces here unwrapped.
func (s *Stream) Err() error {
	return s.err
}

// Count returns how many conversations the stream has yielded so far.
func (s *Stream) Count() int {
	return s.count
}

// Skipped returns how many entries failed normalization and were dropped.
func (s *Stream) Skipped() int {
	return s.skipped
}

// Close releases the file. Idempotent; safe after exhaustion or error.
func (s *Stream) Close() error {
	s.done = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return sifterrors.FileRead(s.path, err)
	}
	return nil
}

// Seq adapts the stream for range-over-func consumers. The file closes when
// the loop ends, early breaks included; check Err afterwards.
func (s *Stream) Seq() iter.Seq[*model.Conversation] {
	return func(yield func(*model.Conversation) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.current) {
				return
			}
		}
	}
}

func (s *Stream) advance() {
	s.count++
	if s.cfg.progressFn != nil && s.count%progressInterval == 0 {
		s.cfg.progressFn(s.count)
	}
}

func (s *Stream) skip(e *skipError) {
	s.skipped++
	entryErr := sifterrors.EntryInvalid(e.id, errors.New(e.reason))
	s.log.Warn("entry_skipped",
		slog.String("entry_id", e.id),
		slog.String("error_code", entryErr.Code),
		slog.String("reason", e.reason))
	if s.cfg.skipFn != nil {
		s.cfg.skipFn(e.id, e.reason)
	}
}

// finish consumes the closing bracket so a truncated archive still fails,
// then reports the final count and releases the file.
func (s *Stream) finish() {
	if _, err := s.dec.Token(); err != nil {
		s.fail(sifterrors.ParseFailed(s.path, err))
		return
	}
	s.done = true
	if s.cfg.progressFn != nil {
		s.cfg.progressFn(s.count)
	}
	s.log.Debug("stream_exhausted",
		slog.Int("conversations", s.count),
		slog.Int("skipped", s.skipped))
	s.closeFile()
}

func (s *Stream) fail(err error) {
	s.err = err
	s.closeFile()
}

func (s *Stream) closeFile() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}
