package search

import "math"

// BM25Config configures the scorer.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default: 1.5)
	K1 float64

	// B is the length normalization parameter (default: 0.75)
	B float64
}

// DefaultBM25Config returns the standard constants.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

// BM25 ranks documents against keyword tokens using corpus-wide statistics.
// A scorer is local to one search call: built once over that call's corpus,
// then discarded. The zero-document case is the caller's concern (the
// pipeline short-circuits to empty results before constructing one).
type BM25 struct {
	cfg       BM25Config
	termFreq  []map[string]int // per document
	docLen    []int            // token count per document
	docFreq   map[string]int   // documents containing term
	avgDocLen float64
}

// NewBM25 builds a scorer over corpus with the default constants. Every
// document is tokenized exactly once at construction.
func NewBM25(corpus []string) *BM25 {
	return NewBM25WithConfig(corpus, DefaultBM25Config())
}

// NewBM25WithConfig builds a scorer over corpus with explicit constants.
func NewBM25WithConfig(corpus []string, cfg BM25Config) *BM25 {
	b := &BM25{
		cfg:      cfg,
		termFreq: make([]map[string]int, len(corpus)),
		docLen:   make([]int, len(corpus)),
		docFreq:  make(map[string]int),
	}

	total := 0
	for i, doc := range corpus {
		tokens := Tokenize(doc)
		freq := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freq[t]++
		}
		b.termFreq[i] = freq
		b.docLen[i] = len(tokens)
		total += len(tokens)
		for t := range freq {
			b.docFreq[t]++
		}
	}
	if len(corpus) > 0 {
		b.avgDocLen = float64(total) / float64(len(corpus))
	}
	return b
}

// Len returns the corpus size.
func (b *BM25) Len() int {
	return len(b.termFreq)
}

// AvgDocLen returns the mean token count across the corpus.
func (b *BM25) AvgDocLen() float64 {
	return b.avgDocLen
}

// ScoreAt scores the i'th corpus document against keywords, using the term
// frequencies computed at construction.
func (b *BM25) ScoreAt(i int, keywords []string) float64 {
	if i < 0 || i >= len(b.termFreq) {
		return 0
	}
	return b.score(b.termFreq[i], b.docLen[i], keywords)
}

// Score tokenizes text and scores it against keywords using this corpus's
// statistics. The text does not have to be a corpus member.
func (b *BM25) Score(text string, keywords []string) float64 {
	tokens := Tokenize(text)
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return b.score(freq, len(tokens), keywords)
}

// score sums the classic BM25 term score over the unique keyword tokens:
//
//	IDF(t) * (tf*(k1+1)) / (tf + k1*(1 - b + b*docLen/avgDocLen))
//
// A term absent from the document contributes 0, never a penalty.
func (b *BM25) score(freq map[string]int, docLen int, keywords []string) float64 {
	terms := FlattenKeywordTokens(keywords)
	if len(terms) == 0 {
		return 0
	}

	lenRatio := 1.0 // corpus of empty documents scores as average length
	if b.avgDocLen > 0 {
		lenRatio = float64(docLen) / b.avgDocLen
	}

	var sum float64
	for _, term := range terms {
		tf := float64(freq[term])
		if tf == 0 {
			continue
		}
		sum += b.idf(term) * (tf * (b.cfg.K1 + 1)) /
			(tf + b.cfg.K1*(1-b.cfg.B+b.cfg.B*lenRatio))
	}
	return sum
}

// idf uses +1 smoothing so scores stay non-negative even for terms present
// in every document.
func (b *BM25) idf(term string) float64 {
	n := float64(len(b.termFreq))
	df := float64(b.docFreq[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}
