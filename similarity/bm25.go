package similarity

import "math"

// BM25 defaults.
const (
	DefaultK1           = 1.2
	DefaultB            = 0.75
	DefaultAvgDocLength = 100.0

	// Raw BM25 sums are divided by len(terms)*bm25Scale before clamping.
	bm25Scale = 1.5
)

// BM25Params configures BM25 scoring. The zero value is not usable; start
// from DefaultBM25Params.
type BM25Params struct {
	K1           float64
	B            float64
	AvgDocLength float64
}

// DefaultBM25Params returns k1=1.2, b=0.75 and an average document length of
// 100 words.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: DefaultK1, B: DefaultB, AvgDocLength: DefaultAvgDocLength}
}

// IDFFunc returns the inverse document frequency of a term.
type IDFFunc func(term string) float64

// BM25 scores terms against text using the default parameters and one IDF
// value for every term. The result is normalized to [0,1].
func BM25(terms []string, text string, idf float64) float64 {
	return DefaultBM25Params().Score(terms, text, func(string) float64 { return idf })
}

// Score computes the normalized BM25 score of terms against text.
// Term frequency counts whole-token matches; document length is the token
// count of text. The raw sum is divided by len(terms)*1.5 and clamped to
// [0,1]. No terms, empty text, or no matches yield 0.
func (p BM25Params) Score(terms []string, text string, idf IDFFunc) float64 {
	if len(terms) == 0 {
		return 0
	}
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return 0
	}
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}

	avg := p.AvgDocLength
	if avg <= 0 {
		avg = DefaultAvgDocLength
	}
	norm := p.K1 * (1 - p.B + p.B*float64(len(tokens))/avg)

	var raw float64
	for _, term := range terms {
		tf := float64(freq[term])
		if tf == 0 {
			continue
		}
		w := idf(term)
		if w <= 0 || math.IsNaN(w) {
			continue
		}
		raw += w * (tf * (p.K1 + 1)) / (tf + norm)
	}
	return Clamp01(raw / (float64(len(terms)) * bm25Scale))
}

// IDF returns ln(1 + (N - df + 0.5)/(df + 0.5)), the non-negative BM25 IDF.
// df is clamped to [0, N].
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 {
		return 0
	}
	df := min(max(docFreq, 0), totalDocs)
	n := float64(totalDocs)
	d := float64(df)
	return math.Log(1 + (n-d+0.5)/(d+0.5))
}
