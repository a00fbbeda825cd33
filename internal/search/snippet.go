package search

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/Aman-CERP/chatsift/internal/model"
)

const (
	// DefaultSnippetWidth is the preview budget, counted in user-perceived
	// characters (grapheme clusters), not bytes.
	DefaultSnippetWidth = 100

	// FallbackUnavailable is the snippet for empty or whitespace-only content.
	FallbackUnavailable = "[Content unavailable]"

	// FallbackNoMatch is the snippet when no message matched the query text
	// (the hit came from title or date criteria alone).
	FallbackNoMatch = "[No content matched]"
)

// ExtractSnippet returns a bounded preview of text. With matchCount 0 the
// preview is the head of the text; otherwise it is a window opening shortly
// before the first case-insensitive occurrence of any keyword. "..." marks a
// window that ends before the text does, and matchCount > 1 appends
// " (+N more matches)".
func ExtractSnippet(text string, keywords []string, matchCount int) string {
	return extractSnippet(text, keywords, matchCount, DefaultSnippetWidth)
}

// ExtractSnippetFromMessages builds the snippet for a hit from the first
// message (in messages order) whose ID is in matchedIDs, and returns it with
// the match count. An empty matchedIDs yields the no-match fallback.
func ExtractSnippetFromMessages(messages []model.Message, keywords []string, matchedIDs []string) (string, int) {
	return extractSnippetFromMessages(messages, keywords, matchedIDs, DefaultSnippetWidth)
}

func extractSnippetFromMessages(messages []model.Message, keywords []string, matchedIDs []string, width int) (string, int) {
	if len(matchedIDs) == 0 {
		return FallbackNoMatch, 0
	}

	matched := make(map[string]struct{}, len(matchedIDs))
	for _, id := range matchedIDs {
		matched[id] = struct{}{}
	}
	for i := range messages {
		if _, ok := matched[messages[i].ID]; ok {
			return extractSnippet(messages[i].Content, keywords, len(matchedIDs), width), len(matchedIDs)
		}
	}
	return FallbackNoMatch, 0
}

func extractSnippet(text string, keywords []string, matchCount int, width int) string {
	if strings.TrimSpace(text) == "" {
		return FallbackUnavailable
	}
	if width <= 0 {
		width = DefaultSnippetWidth
	}

	offs := graphemeOffsets(text)
	clusters := len(offs) - 1

	start := 0
	if matchCount > 0 {
		if at := firstOccurrence(text, keywords); at >= 0 {
			// Open the window a little before the match for context.
			start = clusterIndexAt(offs, at) - width*2/5
			if start < 0 {
				start = 0
			}
		}
	}

	end := start + width
	if end > clusters {
		end = clusters
		if start > end-width {
			start = end - width // keep the window full near the text's end
		}
		if start < 0 {
			start = 0
		}
	}

	snippet := text[offs[start]:offs[end]]
	if end < clusters {
		snippet += "..."
	}
	if matchCount > 1 {
		snippet += fmt.Sprintf(" (+%d more matches)", matchCount-1)
	}
	return snippet
}

// firstOccurrence returns the byte offset of the earliest case-insensitive
// occurrence of any keyword in text, or -1.
func firstOccurrence(text string, keywords []string) int {
	lower := strings.ToLower(text)
	best := -1
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if at := strings.Index(lower, strings.ToLower(kw)); at >= 0 && (best < 0 || at < best) {
			best = at
		}
	}
	if best > len(text) {
		// Lowercasing changed byte lengths; clamp into the original text.
		best = len(text)
	}
	return best
}

// graphemeOffsets returns the byte offset of every grapheme cluster start in
// s, plus len(s) as the final sentinel.
func graphemeOffsets(s string) []int {
	offs := make([]int, 0, len(s)+1)
	state := -1
	rest := s
	pos := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		offs = append(offs, pos)
		pos += len(cluster)
	}
	return append(offs, len(s))
}

// clusterIndexAt maps a byte offset to the index of the cluster containing
// it (snapping mid-cluster offsets back to the cluster start).
func clusterIndexAt(offs []int, at int) int {
	lo, hi := 0, len(offs)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offs[mid] <= at {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == len(offs)-1 && lo > 0 {
		lo-- // offset at end of text belongs to the last cluster
	}
	return lo
}
