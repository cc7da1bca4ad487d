// Package source holds the body representations used to compare code
// fragments between two versions of a codebase.
package source

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Representation is the capability the detection layer needs from a code
// body. The model stores these handles but never interprets them.
type Representation interface {
	Combine(others ...Representation) Representation
	Minus(other Representation) Representation
	Similarity(other Representation) float64
	PartialSimilarity(other Representation) float64
	Len() int
}

// Tokens is a multiset of token hashes kept sorted so that set operations
// are linear merges.
type Tokens struct {
	hashes []uint64
}

var _ Representation = (*Tokens)(nil)

// Empty returns a representation without tokens.
func Empty() *Tokens {
	return &Tokens{}
}

// FromTokens hashes each token with xxhash.
func FromTokens(tokens []string) *Tokens {
	hashes := make([]uint64, 0, len(tokens))
	for _, tok := range tokens {
		hashes = append(hashes, xxhash.Sum64String(tok))
	}
	return fromHashes(hashes)
}

// FromLines hashes each trimmed, non-blank line of text.
func FromLines(text string) *Tokens {
	var hashes []uint64
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hashes = append(hashes, xxhash.Sum64String(line))
	}
	return fromHashes(hashes)
}

func fromHashes(hashes []uint64) *Tokens {
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return &Tokens{hashes: hashes}
}

func hashesOf(r Representation) []uint64 {
	if t, ok := r.(*Tokens); ok && t != nil {
		return t.hashes
	}
	return nil
}

func (t *Tokens) Len() int {
	if t == nil {
		return 0
	}
	return len(t.hashes)
}

// Combine returns the multiset sum of t and others.
func (t *Tokens) Combine(others ...Representation) Representation {
	all := make([]uint64, 0, t.Len())
	all = append(all, hashesOf(t)...)
	for _, o := range others {
		all = append(all, hashesOf(o)...)
	}
	return fromHashes(all)
}

// Minus returns the multiset difference t - other.
func (t *Tokens) Minus(other Representation) Representation {
	a, b := hashesOf(t), hashesOf(other)
	out := make([]uint64, 0, len(a))
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			j++
		default:
			i++
			j++
		}
	}
	return &Tokens{hashes: out}
}

// Similarity is the multiset Jaccard index. Two empty bodies are identical.
func (t *Tokens) Similarity(other Representation) float64 {
	a, b := hashesOf(t), hashesOf(other)
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	common := intersection(a, b)
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}

// PartialSimilarity is the fraction of t found in other.
func (t *Tokens) PartialSimilarity(other Representation) float64 {
	a, b := hashesOf(t), hashesOf(other)
	if len(a) == 0 {
		return 0
	}
	return float64(intersection(a, b)) / float64(len(a))
}

func intersection(a, b []uint64) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}
