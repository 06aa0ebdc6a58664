package docstore

import (
	"fmt"
	"testing"
	"time"

	perr "unievents/internal/platform/errors"
)

func doc(id string, kv ...any) Document {
	f := Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[kv[i].(string)] = kv[i+1]
	}
	return Document{ID: id, Fields: f}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestCompare(t *testing.T) {
	t.Parallel()
	cases := []struct {
		a, b any
		want int
	}{
		{nil, false, -1},
		{true, int64(0), -1},
		{int64(5), "a", -1},
		{int64(2), float64(2.5), -1},
		{float64(3), int64(3), 0},
		{"b", "a", 1},
		{"computo", "computo" + PrefixSentinel, -1},
		{false, true, -1},
		{nil, nil, 0},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Fatalf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPrefixRange(t *testing.T) {
	t.Parallel()
	docs := []Document{
		doc("1", "n", "work"),
		doc("2", "n", "workshop a"),
		doc("3", "n", "wor"),
		doc("4", "n", "worl"),
		doc("5", "n", int64(7)),
		doc("6"),
	}
	got := Apply(docs, From("c").Prefix("n", "work").Asc("n"))
	if fmt.Sprint(ids(got)) != "[1 2]" {
		t.Fatalf("prefix work = %v", ids(got))
	}
	if len(Apply(docs, From("c").Prefix("n", ""))) != len(docs) {
		t.Fatalf("empty prefix must not filter")
	}
}

func TestMatchesMissingAndMixedTypes(t *testing.T) {
	t.Parallel()
	f := Fields{"start": int64(100), "dept": "d1"}
	cases := []struct {
		filters []Filter
		want    bool
	}{
		{[]Filter{{"start", Gte, int64(100)}}, true},
		{[]Filter{{"start", Gt, int64(100)}}, false},
		{[]Filter{{"start", Lte, time.UnixMilli(100)}}, true},
		{[]Filter{{"start", Lt, "zzz"}}, false},
		{[]Filter{{"missing", Eq, nil}}, false},
		{[]Filter{{"dept", Eq, "d1"}, {"start", Lt, int64(50)}}, false},
		{nil, true},
	}
	for i, c := range cases {
		if got := Matches(f, c.filters); got != c.want {
			t.Fatalf("case %d: Matches = %v, want %v", i, got, c.want)
		}
	}
}

func TestApplyOrdersAndLimits(t *testing.T) {
	t.Parallel()
	docs := []Document{
		doc("c", "s", int64(2)),
		doc("a", "s", int64(2)),
		doc("b", "s", int64(1)),
	}
	if got := fmt.Sprint(ids(Apply(docs, From("x").Asc("s")))); got != "[b a c]" {
		t.Fatalf("asc with id tiebreak = %s", got)
	}
	if got := fmt.Sprint(ids(Apply(docs, From("x").Desc("s").Take(2)))); got != "[a c]" {
		t.Fatalf("desc limit = %s", got)
	}
}

func TestValidateAndValue(t *testing.T) {
	t.Parallel()
	if err := From("").Validate(); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing collection: %v", err)
	}
	if err := From("c").Where("f", "!=", "x").Validate(); err == nil {
		t.Fatalf("unsupported operator should fail")
	}
	if err := From("c").Where("f", Eq, []string{"x"}).Validate(); err == nil {
		t.Fatalf("unsupported value should fail")
	}
	if err := From("c").Where("f", Eq, 3).Asc("f").Take(1).Validate(); err != nil {
		t.Fatalf("valid query: %v", err)
	}

	f, err := Normalize(Fields{"n": 3, "t": time.UnixMilli(42), "s": "x"})
	if err != nil || f["n"] != int64(3) || f["t"] != int64(42) {
		t.Fatalf("Normalize = %v, %v", f, err)
	}
	if _, err := Normalize(Fields{"bad": struct{}{}}); err == nil {
		t.Fatalf("struct value should be rejected")
	}
}

func TestSameDoc(t *testing.T) {
	t.Parallel()
	a := doc("1", "x", int64(1), "y", "s")
	b := doc("1", "x", float64(1), "y", "s")
	if !SameDoc(&a, &b) {
		t.Fatalf("numerically equal docs should match")
	}
	c := doc("1", "x", int64(1))
	if SameDoc(&a, &c) || SameDoc(&a, nil) || !SameDoc(nil, nil) {
		t.Fatalf("SameDoc mismatch")
	}
	if !SameDocs([]Document{a}, []Document{b}) || SameDocs([]Document{a}, nil) {
		t.Fatalf("SameDocs mismatch")
	}
}

func TestBatchHelpers(t *testing.T) {
	t.Parallel()
	big := make([]string, 1201)
	for i := range big {
		big[i] = fmt.Sprint(i)
	}
	chunks := Chunk(big)
	if len(chunks) != 3 || len(chunks[0]) != MaxBatchSize || len(chunks[2]) != 201 {
		t.Fatalf("Chunk sizes wrong: %d", len(chunks))
	}
	if Chunk(nil) != nil {
		t.Fatalf("Chunk(nil) should be nil")
	}
	if err := CheckBatch(big); err == nil {
		t.Fatalf("oversized batch should fail")
	}
	if err := CheckBatch([]string{"a", ""}); err == nil {
		t.Fatalf("blank id should fail")
	}
	if err := CheckBatch(chunks[1]); err != nil {
		t.Fatalf("CheckBatch: %v", err)
	}
}

func TestFieldAccessors(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := Fields{"s": "x", "i": int64(3), "fl": 2.5, "b": true, "t": Millis(now), "n": nil}
	if f.Str("s") != "x" || f.Int("i") != 3 || f.Float("i") != 3 || f.Float("fl") != 2.5 || !f.Bool("b") {
		t.Fatalf("accessors mismatch")
	}
	if !f.Time("t").Equal(now) || f.Has("n") || !f.Has("s") || f.Str("missing") != "" {
		t.Fatalf("time/has mismatch")
	}
	d := Document{ID: "1", Fields: f}
	cl := d.Clone()
	cl.Fields["s"] = "y"
	if f.Str("s") != "x" {
		t.Fatalf("Clone shares the map")
	}
}
