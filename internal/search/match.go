package search

import "strings"

// KeywordsAllPresent reports whether every keyword has at least one of its
// tokens in text's token set. A multi-word keyword counts as present when
// any of its tokens is; keywords that tokenize to nothing impose no
// constraint. An empty keyword list is trivially satisfied.
func KeywordsAllPresent(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	set := TokenSet(text)
	for _, kw := range keywords {
		tokens := Tokenize(kw)
		if len(tokens) == 0 {
			continue
		}
		found := false
		for _, t := range tokens {
			if _, ok := set[t]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PhraseMatches reports whether any phrase occurs in text as a
// case-insensitive literal substring. Phrases are never tokenized: hyphens,
// punctuation, and spacing inside a phrase must match exactly. An empty
// phrase list never matches.
func PhraseMatches(text string, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}

	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ExcludeMatches reports whether any exclude keyword's tokens appear in
// text's token set; true means "drop this conversation". Applied after
// keyword/phrase matching, before ranking.
func ExcludeMatches(text string, excludeKeywords []string) bool {
	if len(excludeKeywords) == 0 {
		return false
	}

	set := TokenSet(text)
	for _, kw := range excludeKeywords {
		for _, t := range Tokenize(kw) {
			if _, ok := set[t]; ok {
				return true
			}
		}
	}
	return false
}
