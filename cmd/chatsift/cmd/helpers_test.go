package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openaiArchive is a two-conversation OpenAI export: alpha has a user and an
// assistant message under a null-message root node, beta has one message.
const openaiArchive = `[
  {
    "id": "conv-alpha",
    "title": "Go Concurrency",
    "create_time": 1704103200.0,
    "update_time": 1704189600.0,
    "mapping": {
      "client-created-root": {"id": "client-created-root", "message": null, "parent": null, "children": ["node-1"]},
      "node-1": {"id": "node-1", "message": {"id": "msg-a1", "author": {"role": "user"}, "create_time": 1704103200.0, "content": {"content_type": "text", "parts": ["How do goroutines work?"]}}, "parent": "client-created-root", "children": ["node-2"]},
      "node-2": {"id": "node-2", "message": {"id": "msg-a2", "author": {"role": "assistant"}, "create_time": 1704103260.0, "content": {"content_type": "text", "parts": ["They are lightweight threads."]}}, "parent": "node-1", "children": []}
    }
  },
  {
    "id": "conv-beta",
    "title": "Shell Tips",
    "create_time": 1706781600.0,
    "mapping": {
      "root": {"id": "root", "message": null, "parent": null, "children": ["node-3"]},
      "node-3": {"id": "node-3", "message": {"id": "msg-b1", "author": {"role": "user"}, "create_time": 1706781600.0, "content": {"content_type": "text", "parts": ["Best way to find large files?"]}}, "parent": "root", "children": []}
    }
  }
]`

// claudeArchive is a one-conversation Claude export.
const claudeArchive = `[
  {
    "uuid": "claude-conv-0001",
    "name": "Kafka Consumers",
    "created_at": "2024-03-01T09:00:00Z",
    "updated_at": "2024-03-02T09:00:00Z",
    "chat_messages": [
      {"uuid": "m-one", "sender": "human", "text": "How do consumer groups rebalance?", "created_at": "2024-03-01T09:00:00Z"},
      {"uuid": "m-two", "sender": "assistant", "text": "Partitions are reassigned by the group coordinator.", "created_at": "2024-03-01T09:01:00Z"}
    ]
  }
]`

// isolateHome points the XDG directories at temp space so tests never read
// or write the real user config and log files.
func isolateHome(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
}

// writeArchive drops an export fixture into temp space.
func writeArchive(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCLI executes a fresh root command and captures both output streams.
// Building a new command tree per call resets every flag to its default.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}
