package filtering

import (
	"sort"
	"strings"
)

// Match returns the description keywords of p that occur in text as whole words.
func Match(text string, p *Policy) []string {
	return p.MatchSummary(text)
}

// MatchSummary matches the description keyword lists against a summary.
func (p *Policy) MatchSummary(text string) []string {
	return p.description.match(text)
}

// MatchProducts matches the product keyword lists against the rendered product list.
func (p *Policy) MatchProducts(text string) []string {
	return p.product.match(text)
}

type hit struct {
	pos  int
	rank int
	word string
}

// match returns each keyword found in text once. Case-insensitive matches
// come first, then case-sensitive ones, each group in order of first
// occurrence. Keywords found at the same position keep configuration order.
func (s keywordSet) match(text string) []string {
	if text == "" || len(s.sensitive)+len(s.insensitive) == 0 {
		return nil
	}

	var words []string
	if len(s.insensitive) > 0 {
		words = append(words, find(s.insensitive, strings.ToLower(text))...)
	}
	words = append(words, find(s.sensitive, text)...)
	return Unique(words)
}

func find(keywords []keyword, text string) []string {
	var hits []hit
	for rank, k := range keywords {
		if loc := k.pattern.FindStringSubmatchIndex(text); loc != nil {
			hits = append(hits, hit{pos: loc[2], rank: rank, word: k.text})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].rank < hits[j].rank
	})

	words := make([]string, 0, len(hits))
	for _, h := range hits {
		words = append(words, h.word)
	}
	return words
}

// Unique removes repeated strings, keeping the first occurrence.
func Unique(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
