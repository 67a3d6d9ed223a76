package scope

import "testing"

func TestParse_EmptyAndBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n "} {
		if got := Parse(in); !got.IsEmpty() {
			t.Fatalf("Parse(%q) = %v, want empty", in, got.Slice())
		}
	}
}

func TestParse_DedupesAndSplits(t *testing.T) {
	s := Parse("openid profile  email profile\topenid")
	if s.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", s.Len(), s.Slice())
	}
	for _, tok := range []string{"openid", "profile", "email"} {
		if !s.Contains(tok) {
			t.Fatalf("missing token %q", tok)
		}
	}
}

func TestParse_RoundTripIdempotent(t *testing.T) {
	cases := []string{
		"",
		"read",
		"write read",
		"a b c a b c",
		"profile:read email:read openid",
	}
	for _, in := range cases {
		first := Parse(in)
		second := Parse(first.String())
		if !first.Equal(second) {
			t.Fatalf("round trip changed set for %q: %v vs %v", in, first.Slice(), second.Slice())
		}
		if first.String() != second.String() {
			t.Fatalf("serialization unstable for %q", in)
		}
	}
}

func TestUnion_CommutativeNoMutation(t *testing.T) {
	a := Parse("read")
	b := Parse("write admin")

	ab := a.Union(b)
	ba := b.Union(a)
	if !ab.Equal(ba) {
		t.Fatalf("union not commutative: %v vs %v", ab.Slice(), ba.Slice())
	}
	if a.Len() != 1 || b.Len() != 2 {
		t.Fatal("union mutated its inputs")
	}
	if ab.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %v", ab.Slice())
	}
}

func TestUnion_Associative(t *testing.T) {
	a, b, c := Parse("x"), Parse("y"), Parse("z x")
	if !a.Union(b).Union(c).Equal(a.Union(b.Union(c))) {
		t.Fatal("union not associative")
	}
}

func TestSubsetOf(t *testing.T) {
	a := Parse("read write")
	b := Parse("admin")

	if !a.SubsetOf(a.Union(b)) {
		t.Fatal("A must be a subset of union(A,B)")
	}
	if a.SubsetOf(b) {
		t.Fatal("A is not a subset of B when B lacks A's tokens")
	}
	if !Parse("").SubsetOf(b) {
		t.Fatal("empty set is a subset of anything")
	}
	if Parse("read").SubsetOf(Parse("")) {
		t.Fatal("non-empty set is not a subset of the empty set")
	}
}

func TestPolicy_CaseSensitiveDefault(t *testing.T) {
	granted := Parse("Read")
	if Parse("read").SubsetOf(granted) {
		t.Fatal("case-sensitive policy must distinguish Read from read")
	}
}

func TestPolicy_CaseFold(t *testing.T) {
	granted := ParsePolicy("READ write", CaseFold)
	if !ParsePolicy("read WRITE", CaseFold).SubsetOf(granted) {
		t.Fatal("case-fold policy must match regardless of casing")
	}
	if granted.String() != "read write" {
		t.Fatalf("case-fold normalizes on parse, got %q", granted.String())
	}
}

func TestFromSlice(t *testing.T) {
	s := FromSlice([]string{"read", "", "write", "read"})
	if s.Len() != 2 {
		t.Fatalf("expected 2 tokens, got %v", s.Slice())
	}
}
