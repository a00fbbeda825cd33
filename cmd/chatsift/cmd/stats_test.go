package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmd_TextOutput(t *testing.T) {
	isolateHome(t)
	archive := writeArchive(t, openaiArchive)

	stdout, _, err := runCLI(t, "stats", archive)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Conversations   2")
	assert.Contains(t, stdout, "Messages        3")
	assert.Contains(t, stdout, "user")
	assert.Contains(t, stdout, "assistant")
	assert.Contains(t, stdout, "First activity  2024-01-01")
	assert.Contains(t, stdout, "Typical gap     1 minute between messages",
		"alpha's two messages are sixty seconds apart")
	assert.Contains(t, stdout, "Longest         Go Concurrency (conv-alpha, 2 messages)")
	assert.Contains(t, stdout, "Shell Tips (conv-beta, 1 messages)")
	assert.Contains(t, stdout, "1.5 messages per conversation")
}

func TestStatsCmd_JSONOutput(t *testing.T) {
	isolateHome(t)
	archive := writeArchive(t, openaiArchive)

	stdout, _, err := runCLI(t, "stats", archive, "--json")

	require.NoError(t, err)
	var got struct {
		Conversations int            `json:"conversations"`
		Messages      int            `json:"messages"`
		ByRole        map[string]int `json:"by_role"`
		Longest       []struct {
			ID       string `json:"id"`
			Messages int    `json:"messages"`
		} `json:"longest"`
		AvgMessages   float64 `json:"avg_messages"`
		AvgGapSeconds float64 `json:"avg_gap_seconds"`
		Skipped       int     `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))

	assert.Equal(t, 2, got.Conversations)
	assert.Equal(t, 3, got.Messages)
	assert.Equal(t, 2, got.ByRole["user"])
	assert.Equal(t, 1, got.ByRole["assistant"])
	require.Len(t, got.Longest, 2)
	assert.Equal(t, "conv-alpha", got.Longest[0].ID)
	assert.Equal(t, 2, got.Longest[0].Messages)
	assert.Equal(t, "conv-beta", got.Longest[1].ID)
	assert.InDelta(t, 1.5, got.AvgMessages, 0.0001)
	assert.InDelta(t, 60.0, got.AvgGapSeconds, 0.0001,
		"only alpha has two or more messages, sixty seconds apart")
	assert.Zero(t, got.Skipped)
}

func TestStatsCmd_CountsSkippedEntries(t *testing.T) {
	isolateHome(t)
	// The middle entry has no create_time, so it is skipped, not fatal.
	archive := writeArchive(t, `[
	  {"id": "conv-ok", "title": "Fine", "create_time": 1704103200.0, "mapping": {}},
	  {"id": "conv-bad", "title": "Broken", "mapping": {}},
	  {"id": "conv-ok-2", "title": "Also Fine", "create_time": 1704103300.0, "mapping": {}}
	]`)

	stdout, _, err := runCLI(t, "stats", archive, "--json")

	require.NoError(t, err)
	var got struct {
		Conversations int `json:"conversations"`
		Skipped       int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 2, got.Conversations)
	assert.Equal(t, 1, got.Skipped)
}
