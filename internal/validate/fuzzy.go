package validate

import (
	"sort"
	"strings"

	"trialspec/internal/canon"
)

// Fuzzy matching thresholds. Model-produced quotes frequently carry
// micro-edits relative to the source (smart quotes, stray punctuation),
// so exact matching alone would reject valid evidence. A single longest
// match would still fail quotes split by one mid-string edit; summing
// ordered matching blocks tolerates both.
const (
	// shortQuoteLen is the length below which only exact substring
	// matches count — short strings are too easy to match spuriously.
	shortQuoteLen = 20
	// coverageThreshold is the minimum fraction of the quote covered by
	// ordered matching blocks.
	coverageThreshold = 0.85
)

// VerifyQuoteFuzzy reports whether target appears, exactly or
// approximately, inside source. Both strings are canonicalized first so
// verification operates on the same bytes the model was shown.
func VerifyQuoteFuzzy(target, source string) bool {
	t := []rune(canon.NormText(target))
	s := []rune(canon.NormText(source))

	if len(t) == 0 {
		// An empty quote is "found"; the emptiness itself is flagged by
		// the validator's non-empty check.
		return true
	}
	if strings.Contains(string(s), string(t)) {
		return true
	}
	if len(t) < shortQuoteLen {
		return false
	}

	matched := 0
	for _, m := range matchingBlocks(t, s) {
		matched += m.Size
	}
	return float64(matched)/float64(len(t)) >= coverageThreshold
}

// match is one maximal run of equal runes at a[A:A+Size] == b[B:B+Size].
type match struct {
	A, B, Size int
}

// matchingBlocks returns the non-overlapping matching runs between a
// and b in increasing position order in both sequences, longest-first
// recursion on the gaps. Order preservation is the point: a quote whose
// halves appear swapped in the source must not accumulate full coverage.
func matchingBlocks(a, b []rune) []match {
	b2j := buildIndex(b)

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	var matches []match

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.Size == 0 {
			continue
		}
		matches = append(matches, m)
		if s.alo < m.A && s.blo < m.B {
			queue = append(queue, span{s.alo, m.A, s.blo, m.B})
		}
		if m.A+m.Size < s.ahi && m.B+m.Size < s.bhi {
			queue = append(queue, span{m.A + m.Size, s.ahi, m.B + m.Size, s.bhi})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].A != matches[j].A {
			return matches[i].A < matches[j].A
		}
		return matches[i].B < matches[j].B
	})
	return coalesce(matches)
}

type runeIndex struct {
	positions map[rune][]int
	popular   map[rune]bool
}

// buildIndex maps each rune of b to its positions. For long sources,
// runes occurring in more than 1% of positions are treated as popular
// and excluded from seeding matches (they may still extend one); this
// keeps the inner loop near-linear on prose where spaces and vowels
// dominate.
func buildIndex(b []rune) runeIndex {
	idx := runeIndex{
		positions: make(map[rune][]int),
		popular:   make(map[rune]bool),
	}
	for j, r := range b {
		idx.positions[r] = append(idx.positions[r], j)
	}
	if n := len(b); n >= 200 {
		limit := n/100 + 1
		for r, js := range idx.positions {
			if len(js) > limit {
				idx.popular[r] = true
				delete(idx.positions, r)
			}
		}
	}
	return idx
}

// longestMatch finds the longest matching run of a[alo:ahi] within
// b[blo:bhi], then widens it over popular runes at both ends.
func longestMatch(a, b []rune, idx runeIndex, alo, ahi, blo, bhi int) match {
	besti, bestj, bestSize := alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range idx.positions[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	// Widen in two phases: first across indexed runes, then across the
	// popular runes excluded from the index.
	for besti > alo && bestj > blo && !idx.popular[b[bestj-1]] && a[besti-1] == b[bestj-1] {
		besti, bestj, bestSize = besti-1, bestj-1, bestSize+1
	}
	for besti+bestSize < ahi && bestj+bestSize < bhi &&
		!idx.popular[b[bestj+bestSize]] && a[besti+bestSize] == b[bestj+bestSize] {
		bestSize++
	}
	for besti > alo && bestj > blo && idx.popular[b[bestj-1]] && a[besti-1] == b[bestj-1] {
		besti, bestj, bestSize = besti-1, bestj-1, bestSize+1
	}
	for besti+bestSize < ahi && bestj+bestSize < bhi &&
		idx.popular[b[bestj+bestSize]] && a[besti+bestSize] == b[bestj+bestSize] {
		bestSize++
	}

	return match{A: besti, B: bestj, Size: bestSize}
}

// coalesce merges adjacent matches into single blocks.
func coalesce(ms []match) []match {
	var out []match
	for _, m := range ms {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.A+last.Size == m.A && last.B+last.Size == m.B {
				last.Size += m.Size
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
