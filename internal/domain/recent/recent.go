package recent

import (
	"errors"
	"strings"
)

// MaxTerms is the maximum number of terms a list keeps.
const MaxTerms = 5

// ErrEmptyTerm is returned for terms that are empty after trimming.
var ErrEmptyTerm = errors.New("search term is required")

// List is an ordered set of recent search terms, most recent first (immutable value object).
// It never holds duplicates and never grows past MaxTerms.
type List struct {
	terms []string
}

// Empty returns a list with no terms.
func Empty() List {
	return List{}
}

// Reconstruct rebuilds a List from stored terms (storage hydration).
// Empty terms and duplicates are dropped and the result is truncated to MaxTerms,
// so a hand-edited or older payload still yields a valid list.
func Reconstruct(terms []string) List {
	out := make([]string, 0, min(len(terms), MaxTerms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTerms {
			break
		}
	}
	return List{terms: out}
}

// NormalizeTerm trims surrounding whitespace and rejects empty terms.
// Case is preserved: "Dune" and "dune" are different terms.
func NormalizeTerm(term string) (string, error) {
	t := strings.TrimSpace(term)
	if t == "" {
		return "", ErrEmptyTerm
	}
	return t, nil
}

// InsertOrPromote returns a new list with term at index 0.
// Any earlier occurrence is removed first and the result is truncated to MaxTerms.
func (l List) InsertOrPromote(term string) List {
	out := make([]string, 0, MaxTerms)
	out = append(out, term)
	for _, t := range l.terms {
		if t == term {
			continue
		}
		if len(out) == MaxTerms {
			break
		}
		out = append(out, t)
	}
	return List{terms: out}
}

// Clear returns an empty list.
func (l List) Clear() List {
	return Empty()
}

// Terms returns a copy of the terms, most recent first.
func (l List) Terms() []string {
	out := make([]string, len(l.terms))
	copy(out, l.terms)
	return out
}

// IsEmpty reports whether the list has no terms.
func (l List) IsEmpty() bool { return len(l.terms) == 0 }

// Snapshot is a list together with the version it was committed under.
// An owner's versions strictly increase with every successful mutation.
type Snapshot struct {
	Owner   string
	Version uint64
	List    List
}
