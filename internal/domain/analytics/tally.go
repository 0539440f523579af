package analytics

import "strings"

// tally counts source -> target observations.
type tally map[string]map[string]int

func (t tally) add(source, target string) {
	m, ok := t[source]
	if !ok {
		m = make(map[string]int)
		t[source] = m
	}
	m[target]++
}

// distributions turns the counts into ranked distributions. When top > 0 only
// the top targets are kept and probabilities are shares of the kept counts.
func (t tally) distributions(top int) []Distribution {
	out := make([]Distribution, 0, len(t))
	for source, targets := range t {
		shares := make([]Share, 0, len(targets))
		observations := 0
		for label, n := range targets {
			shares = append(shares, Share{Label: label, Count: n})
			observations += n
		}
		// Rank by count first; probabilities follow the same order.
		countRanker.Sort(shares)
		if top > 0 && len(shares) > top {
			shares = shares[:top:top]
		}
		total := 0
		for _, s := range shares {
			total += s.Count
		}
		for i := range shares {
			shares[i].Probability = float64(shares[i].Count) / float64(total)
		}
		out = append(out, Distribution{Source: source, Observations: observations, Targets: shares})
	}
	DistributionRanker.Sort(out)
	return out
}

func joinPath(path []string) string {
	return strings.Join(path, "\x1f")
}
