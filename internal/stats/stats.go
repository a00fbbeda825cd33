// Package stats aggregates archive-wide numbers in one streaming pass.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/Aman-CERP/chatsift/internal/model"
)

// Source yields conversations one at a time and counts the entries it had
// to skip. *provider.Stream satisfies it.
type Source interface {
	Next() bool
	Conversation() *model.Conversation
	Skipped() int
	Err() error
}

// ConversationRef names a conversation inside a Report.
type ConversationRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
}

// topLongest caps how many conversations the Longest list keeps.
const topLongest = 5

// Report summarizes one archive.
type Report struct {
	Conversations int                `json:"conversations"`
	Messages      int                `json:"messages"`
	Skipped       int                `json:"skipped"`
	ByRole        map[model.Role]int `json:"by_role"`

	// Earliest is the first conversation start; Latest is the most recent
	// activity, counting updates.
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`

	// Longest lists the most message-heavy conversations, best first.
	Longest     []ConversationRef `json:"longest"`
	AvgMessages float64           `json:"avg_messages"`

	// AvgGapSeconds is the mean of AverageGap across conversations that
	// have at least two messages.
	AvgGapSeconds float64 `json:"avg_gap_seconds"`
}

// Collect streams src to completion and aggregates. Memory stays bounded:
// only counters and the top handful of conversation refs are retained.
func Collect(ctx context.Context, src Source) (*Report, error) {
	r := &Report{ByRole: make(map[model.Role]int)}
	var (
		gapTotal time.Duration
		gapConvs int
	)

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conv := src.Conversation()

		r.Conversations++
		r.Messages += conv.MessageCount()
		for i := range conv.Messages {
			r.ByRole[conv.Messages[i].Role]++
		}

		if r.Earliest.IsZero() || conv.CreatedAt.Before(r.Earliest) {
			r.Earliest = conv.CreatedAt
		}
		last := conv.CreatedAt
		if conv.UpdatedAt != nil {
			last = *conv.UpdatedAt
		}
		if last.After(r.Latest) {
			r.Latest = last
		}

		r.Longest = append(r.Longest, ConversationRef{
			ID:       conv.ID,
			Title:    conv.Title,
			Messages: conv.MessageCount(),
		})
		sort.SliceStable(r.Longest, func(i, j int) bool {
			return r.Longest[i].Messages > r.Longest[j].Messages
		})
		if len(r.Longest) > topLongest {
			r.Longest = r.Longest[:topLongest]
		}

		if conv.MessageCount() >= 2 {
			gapTotal += AverageGap(conv)
			gapConvs++
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}

	r.Skipped = src.Skipped()
	if r.Conversations > 0 {
		r.AvgMessages = float64(r.Messages) / float64(r.Conversations)
	}
	if gapConvs > 0 {
		r.AvgGapSeconds = gapTotal.Seconds() / float64(gapConvs)
	}
	return r, nil
}

// AverageGap returns the mean spacing between consecutive message
// timestamps in time order. The mean of consecutive gaps telescopes to the
// endpoints' span, so only the extremes matter. Fewer than two messages
// means no gap.
func AverageGap(conv *model.Conversation) time.Duration {
	if conv == nil || conv.MessageCount() < 2 {
		return 0
	}
	earliest := conv.Messages[0].Timestamp
	latest := earliest
	for i := 1; i < len(conv.Messages); i++ {
		ts := conv.Messages[i].Timestamp
		if ts.Before(earliest) {
			earliest = ts
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest.Sub(earliest) / time.Duration(conv.MessageCount()-1)
}
