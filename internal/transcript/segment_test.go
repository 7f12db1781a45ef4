package transcript

import (
	"context"
	"reflect"
	"testing"
)

func TestParseSegments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []Segment
	}{
		{
			name: "bare timestamps",
			raw:  "0:05 first claim\n1:30 second claim",
			want: []Segment{{Start: 5, Text: "first claim"}, {Start: 90, Text: "second claim"}},
		},
		{
			name: "bracketed and parenthesised",
			raw:  "[12:34] bracketed\n(1:02:03) over an hour",
			want: []Segment{{Start: 754, Text: "bracketed"}, {Start: 3723, Text: "over an hour"}},
		},
		{
			name: "continuation lines fold into previous segment",
			raw:  "0:10 a claim that\ncontinues here\n0:20 next",
			want: []Segment{{Start: 10, Text: "a claim that continues here"}, {Start: 20, Text: "next"}},
		},
		{
			name: "leading untimestamped text starts at zero",
			raw:  "intro words\n0:30 timed",
			want: []Segment{{Start: 0, Text: "intro words"}, {Start: 30, Text: "timed"}},
		},
		{
			name: "blank lines skipped",
			raw:  "0:05 one\n\n\n0:10 two",
			want: []Segment{{Start: 5, Text: "one"}, {Start: 10, Text: "two"}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseSegments(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseSegments() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	t.Parallel()
	segs := []Segment{
		{Start: 10, Text: "a"},
		{Start: 70, Text: "b"},
		{Start: 130, Text: "c"},
		{Start: 200, Text: "d"},
	}

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"both bounds", "1:00", "3:00", []string{"b", "c"}},
		{"open end", "2:00", "", []string{"c", "d"}},
		{"open start", "", "1:10", []string{"a", "b"}},
		{"unparseable bound is open", "garbage", "nonsense", []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Clip(segs, tt.from, tt.to)
			var texts []string
			for _, s := range got {
				texts = append(texts, s.Text)
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Fatalf("Clip(%q, %q) = %v, want %v", tt.from, tt.to, texts, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	segs := []Segment{{Start: 5, Text: "one"}, {Start: 3905, Text: "two"}}
	want := "[00:05] one\n[01:05:05] two"
	if got := Render(segs); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestWindowProvider(t *testing.T) {
	t.Parallel()
	w := Window{
		Source: Static("0:10 early claim\n2:00 middle claim\n5:00 late claim"),
		From:   "1:00",
		To:     "4:00",
	}
	got, err := w.SourceText(context.Background())
	if err != nil {
		t.Fatalf("SourceText: %v", err)
	}
	if got != "[02:00] middle claim" {
		t.Fatalf("SourceText() = %q", got)
	}
}
