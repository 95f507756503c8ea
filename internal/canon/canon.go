// Package canon implements the ranking and selection core: it partitions
// a row set by account identifier, orders each partition by a composite
// priority key, and keeps the single best-ranked row per account. It also
// builds the four canonical contact views on top of that core.
package canon

import (
	"fmt"
	"sort"
)

// Key is one column of a composite ordering, with an explicit direction.
// Compare returns a negative, zero, or positive number in the usual way;
// Desc inverts it.
type Key[T any] struct {
	Name    string
	Compare func(a, b T) int
	Desc    bool
}

// Ordering is an ordered list of sort keys. The first key that
// distinguishes two rows decides their relative order.
type Ordering[T any] []Key[T]

// Less reports whether a ranks strictly before b.
func (o Ordering[T]) Less(a, b T) bool {
	for _, k := range o {
		c := k.Compare(a, b)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// SelectBest groups rows by key, orders each group by ord, and returns the
// winning row per group. Rows that tie on every ordering key keep their
// input order (stable sort), so the selection is deterministic for a given
// input sequence. The result is sorted by group key so repeated runs over
// identical input produce identical output.
func SelectBest[T any](rows []T, key func(T) string, ord Ordering[T]) []T {
	ranked := make([]T, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ord.Less(ranked[i], ranked[j])
	})

	seen := make(map[string]struct{}, len(ranked))
	out := make([]T, 0, len(ranked))
	for _, r := range ranked {
		k := key(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) < key(out[j])
	})
	return out
}

// VerifyUnique checks the canonicalization post-condition: at most one row
// per group key. A violation signals a ranking-logic defect and fails the
// run loudly rather than being silently accepted.
func VerifyUnique[T any](name string, rows []T, key func(T) string) error {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		k := key(r)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("view %s: duplicate account %s after canonicalization", name, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Comparison helpers shared by the view and report orderings.

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
