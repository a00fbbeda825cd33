// Package search implements the ranked-search core: tokenization, BM25
// scoring, keyword/phrase/exclude matching, snippet extraction, and the
// pipeline that orchestrates them over a conversation stream.
//
// The tokenizer is shared verbatim by the scorer, the matchers, and the
// snippet extractor so that ranking and match reporting always agree on
// what "contains a keyword" means.
package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenPattern matches lowercase ASCII alphanumeric runs, or any single
// non-ASCII character (covers CJK and other non-space-delimited scripts).
// Input is lowercased before matching.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+|[^\x00-\x7f]`)

// Tokenize splits text into ordered lowercase tokens: maximal runs of ASCII
// letters/digits, plus one token per non-ASCII character. No stemming, no
// stop words. Deterministic and total; empty input yields no tokens.
//
// Examples:
//   - "Hello, Python3!" -> ["hello", "python3"]
//   - "你好"             -> ["你", "好"]
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := matches[:0]
	for _, m := range matches {
		// Single non-ASCII whitespace (ideographic space, NBSP) is a
		// separator, not a token.
		if r, size := utf8.DecodeRuneInString(m); size == len(m) && unicode.IsSpace(r) {
			continue
		}
		tokens = append(tokens, m)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenSet returns the unique tokens of text for membership checks.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// FlattenKeywordTokens tokenizes every keyword and returns the unique tokens
// in first-seen order. A multi-word keyword contributes all of its tokens.
func FlattenKeywordTokens(keywords []string) []string {
	var flat []string
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		for _, t := range Tokenize(kw) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			flat = append(flat, t)
		}
	}
	return flat
}
