// Package scope implements the normalized scope-set model used by the
// authorization decisions: parsing, union and subset comparison over the
// discrete scope tokens of an OAuth2 scope string.
package scope

import (
	"sort"
	"strings"
)

// Policy defines how scope tokens are compared. The same policy must be used
// for parsing, union and subset testing or membership checks become
// inconsistent.
type Policy int

const (
	// CaseSensitive compares tokens byte-for-byte. Default.
	CaseSensitive Policy = iota

	// CaseFold lowercases tokens before comparing.
	CaseFold
)

func (p Policy) normalize(tok string) string {
	if p == CaseFold {
		return strings.ToLower(tok)
	}
	return tok
}

// Set is a set of scope tokens under a single comparison policy.
// The zero value is an empty, case-sensitive set.
type Set struct {
	policy Policy
	tokens map[string]struct{}
}

// Parse splits a scope string on whitespace and dedupes, case-sensitive.
// Never fails: empty or blank input yields the empty set.
func Parse(s string) Set {
	return ParsePolicy(s, CaseSensitive)
}

// ParsePolicy is Parse under an explicit comparison policy.
func ParsePolicy(s string, p Policy) Set {
	set := Set{policy: p, tokens: map[string]struct{}{}}
	for _, tok := range strings.Fields(s) {
		set.tokens[p.normalize(tok)] = struct{}{}
	}
	return set
}

// FromSlice builds a Set from already-split tokens (case-sensitive).
// Blank entries are skipped.
func FromSlice(tokens []string) Set {
	return Parse(strings.Join(tokens, " "))
}

// Empty returns an empty set under the given policy.
func Empty(p Policy) Set {
	return Set{policy: p, tokens: map[string]struct{}{}}
}

// Policy returns the comparison policy of the set.
func (s Set) Policy() Policy { return s.policy }

// Len returns the number of tokens.
func (s Set) Len() int { return len(s.tokens) }

// IsEmpty reports whether the set has no tokens.
func (s Set) IsEmpty() bool { return len(s.tokens) == 0 }

// Contains reports membership of a single token under the set's policy.
func (s Set) Contains(tok string) bool {
	_, ok := s.tokens[s.policy.normalize(tok)]
	return ok
}

// Union returns a new set with the tokens of both inputs. Inputs are not
// mutated. The receiver's policy wins; under CaseFold the other set's tokens
// are re-normalized.
func (s Set) Union(other Set) Set {
	out := Set{policy: s.policy, tokens: make(map[string]struct{}, len(s.tokens)+len(other.tokens))}
	for tok := range s.tokens {
		out.tokens[tok] = struct{}{}
	}
	for tok := range other.tokens {
		out.tokens[s.policy.normalize(tok)] = struct{}{}
	}
	return out
}

// SubsetOf reports whether every token of s appears in granted.
// The empty set is a subset of anything.
func (s Set) SubsetOf(granted Set) bool {
	for tok := range s.tokens {
		if !granted.Contains(tok) {
			return false
		}
	}
	return true
}

// Slice returns the tokens sorted. Useful for persistence and logs.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s.tokens))
	for tok := range s.tokens {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// String serializes the set as a sorted, space-joined scope string.
// Parse(s.String()) always reproduces s.
func (s Set) String() string {
	return strings.Join(s.Slice(), " ")
}

// Equal reports whether both sets hold the same tokens under the receiver's
// policy.
func (s Set) Equal(other Set) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	return s.SubsetOf(other)
}
