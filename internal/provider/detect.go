package provider

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
)

// Kind identifies an export schema.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindClaude Kind = "claude"
)

// detectCacheSize bounds the in-process detection cache.
const detectCacheSize = 128

// Detector sniffs export schemas from the first array element, caching
// verdicts per file identity so repeated calls over one file sniff once.
type Detector struct {
	log   *slog.Logger
	cache *lru.Cache[detectKey, Kind]
}

// detectKey identifies file contents without hashing: a modified file gets
// a different key and re-sniffs.
type detectKey struct {
	path  string
	size  int64
	mtime int64
}

// NewDetector returns a detector with its own cache. A nil logger means
// slog.Default().
func NewDetector(log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	cache, _ := lru.New[detectKey, Kind](detectCacheSize)
	return &Detector{log: log, cache: cache}
}

var defaultDetector = NewDetector(nil)

// Detect sniffs path's schema using the process-wide shared detector.
func Detect(path string) (Kind, error) {
	return defaultDetector.Detect(path)
}

// Detect returns the schema kind of the archive at path.
func (d *Detector) Detect(path string) (Kind, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", openError(path, err)
	}
	key := detectKey{path: abs, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if kind, ok := d.cache.Get(key); ok {
		return kind, nil
	}

	kind, err := sniff(path)
	if err != nil {
		return "", err
	}
	d.cache.Add(key, kind)
	d.log.Debug("schema_detected",
		slog.String("path", path),
		slog.String("schema", string(kind)))
	return kind, nil
}

// schemaProbe decodes only the discriminating keys of the first element.
type schemaProbe struct {
	Mapping      json.RawMessage `json:"mapping"`
	ChatMessages json.RawMessage `json:"chat_messages"`
}

func sniff(path string) (Kind, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", openError(path, err)
	}
	defer file.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(file, streamBufSize))
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", sifterrors.ParseFailed(path, errors.New("empty file"))
		}
		return "", sifterrors.ParseFailed(path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return "", sifterrors.ParseFailed(path, fmt.Errorf("expected a top-level JSON array, got %v", tok))
	}
	if !dec.More() {
		return "", sifterrors.SchemaUnsupported(path, "archive is empty, nothing to detect")
	}

	var probe schemaProbe
	if err := dec.Decode(&probe); err != nil {
		return "", sifterrors.ParseFailed(path, err)
	}
	switch {
	case jsonPresent(probe.Mapping):
		return KindOpenAI, nil
	case jsonPresent(probe.ChatMessages):
		return KindClaude, nil
	default:
		return "", sifterrors.SchemaUnsupported(path, "first entry has neither mapping nor chat_messages")
	}
}

// jsonPresent reports whether a raw field was present and non-null.
func jsonPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// ForKind returns the stateless adapter for a detected schema.
func ForKind(kind Kind) Provider {
	if kind == KindClaude {
		return NewClaudeProvider()
	}
	return NewOpenAIProvider()
}

// Resolve maps a provider selection onto an adapter. Empty and "auto" sniff
// the file; explicit names bypass detection.
func Resolve(name, path string) (Provider, error) {
	switch name {
	case "", "auto":
		kind, err := Detect(path)
		if err != nil {
			return nil, err
		}
		return ForKind(kind), nil
	case string(KindOpenAI):
		return NewOpenAIProvider(), nil
	case string(KindClaude):
		return NewClaudeProvider(), nil
	default:
		return nil, sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown provider %q", name), nil).
			WithSuggestion("valid providers are auto, openai, and claude")
	}
}
