package transcript

import (
	"context"
	"regexp"
	"strings"

	"github.com/factlens/factlens/internal/timecode"
)

// Segment is one timestamped slice of a transcript.
type Segment struct {
	Start int // seconds from the beginning
	Text  string
}

// Lines like "12:34 text", "[12:34] text" or "(1:02:03) text" start a new
// segment; anything else continues the current one.
var segmentStartRe = regexp.MustCompile(`^\s*[\[(]?(\d{1,2}(?::\d{2}){1,2})[\])]?\s+(.*)$`)

// ParseSegments splits raw transcript text into timestamped segments.
// Leading text before the first timestamp becomes a segment at 0.
func ParseSegments(raw string) []Segment {
	var segs []Segment
	for _, line := range strings.Split(raw, "\n") {
		if m := segmentStartRe.FindStringSubmatch(line); m != nil {
			segs = append(segs, Segment{Start: timecode.ParseTimestamp(m[1]), Text: strings.TrimSpace(m[2])})
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(segs) == 0 {
			segs = append(segs, Segment{Start: 0, Text: line})
			continue
		}
		last := &segs[len(segs)-1]
		last.Text = strings.TrimSpace(last.Text + " " + line)
	}
	return segs
}

// Clip keeps segments within [from, to]. Bounds are timestamp strings; a
// bound that is empty or parses to 0 is open on that side.
func Clip(segs []Segment, from, to string) []Segment {
	lo := timecode.ParseTimestamp(from)
	hi := timecode.ParseTimestamp(to)
	var out []Segment
	for _, s := range segs {
		if s.Start < lo {
			continue
		}
		if hi > 0 && s.Start > hi {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Render joins segments back into "[MM:SS] text" lines.
func Render(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + timecode.FormatTimestamp(s.Start) + "] " + s.Text)
	}
	return b.String()
}

// Window narrows another provider's transcript to a timestamp range,
// supporting sub-range checks keyed by content id plus bounds.
type Window struct {
	Source   SourceProvider
	From, To string
}

func (w Window) SourceText(ctx context.Context) (string, error) {
	raw, err := w.Source.SourceText(ctx)
	if err != nil {
		return "", err
	}
	segs := Clip(ParseSegments(raw), w.From, w.To)
	return Render(segs), nil
}
