package transcript

import (
	"context"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   Static
		want string
	}{
		{name: "plain text", in: "a transcript", want: "a transcript"},
		{name: "trims whitespace", in: "  padded \n", want: "padded"},
		{name: "empty stays empty", in: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.SourceText(context.Background())
			if err != nil {
				t.Fatalf("SourceText: %v", err)
			}
			if got != tt.want {
				t.Fatalf("SourceText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageProviderRejectsEmptyURL(t *testing.T) {
	t.Parallel()
	p := PageProvider{URL: "   "}
	if _, err := p.SourceText(context.Background()); err == nil {
		t.Fatal("expected error for empty url")
	}
}
