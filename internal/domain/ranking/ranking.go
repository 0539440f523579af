// Package ranking orders labelled values and keeps the best K of them.
package ranking

import (
	"slices"
	"strings"
)

// Ranker orders items by Score descending, breaking ties by Key ascending,
// so every ranking is total and reproducible.
type Ranker[T any] struct {
	Score func(T) float64
	Key   func(T) string
}

// Compare returns a negative number when a ranks above b.
func (r Ranker[T]) Compare(a, b T) int {
	sa, sb := r.Score(a), r.Score(b)
	switch {
	case sa > sb:
		return -1
	case sa < sb:
		return 1
	}
	return strings.Compare(r.Key(a), r.Key(b))
}

// Sort ranks items in place.
func (r Ranker[T]) Sort(items []T) {
	slices.SortStableFunc(items, r.Compare)
}

// Top returns the k highest-ranked items in rank order. items is not
// modified. k <= 0 keeps everything.
func (r Ranker[T]) Top(items []T, k int) []T {
	out := slices.Clone(items)
	r.Sort(out)
	return Truncate(out, k)
}

// Truncate keeps the first k entries of an already ranked slice. k <= 0 keeps everything.
func Truncate[T any](ranked []T, k int) []T {
	if k <= 0 || len(ranked) <= k {
		return ranked
	}
	return ranked[:k:k]
}
