// Package verdict derives a tri-state accuracy verdict from fact-check
// analysis text. Classification is heuristic string matching against the
// analysis format the model is prompted for; it is an accepted
// approximation, not a parser, and drifts if the prompt format drifts.
package verdict

import (
	"regexp"
	"strings"
)

// Verdict is the tri-state classification of analyzed text. It is always
// derived from text, never authored directly.
type Verdict string

const (
	Accurate   Verdict = "accurate"
	Inaccurate Verdict = "inaccurate"
	Mixed      Verdict = "mixed"
)

// Rendered labels as the analysis text prints them in its overall
// assessment section.
const (
	labelAccurate   = "Factually Accurate"
	labelInaccurate = "Factually Inaccurate"
	labelPartial    = "Partially Accurate"
)

const (
	finalMarker   = "FINAL VERDICT"
	overallMarker = "OVERALL ASSESSMENT"
)

// finalPhraseWindow bounds how far past the final-verdict marker the short
// verdict phrase is expected to sit.
const finalPhraseWindow = 120

var claimVerdictRe = regexp.MustCompile(`(?i)^\s*(?:[*#>\-\s]*)VERDICT\s*:\s*(.+)$`)

// Classify maps analysis text, partial or complete, to a Verdict. It is
// deterministic per input but not monotonic across growing prefixes: the
// running majority over per-claim verdicts can differ from the final call
// once the terminal marker streams in.
//
// Precedence: final-verdict phrase, then overall-assessment labels, then
// majority over per-claim VERDICT lines, then Mixed.
func Classify(text string) Verdict {
	if v, ok := classifyFinal(text); ok {
		return v
	}
	if v, ok := classifyOverall(text); ok {
		return v
	}
	return classifyClaims(text)
}

// classifyFinal inspects the short phrase following the final-verdict
// marker. The final call is authoritative and overrides the running vote.
func classifyFinal(text string) (Verdict, bool) {
	idx := indexFold(text, finalMarker)
	if idx < 0 {
		return Mixed, false
	}
	phrase := text[idx+len(finalMarker):]
	if len(phrase) > finalPhraseWindow {
		phrase = phrase[:finalPhraseWindow]
	}
	phrase = strings.ToLower(phrase)
	switch {
	case strings.Contains(phrase, "inaccurate"):
		return Inaccurate, true
	case containsAccurateAlone(phrase):
		return Accurate, true
	case strings.Contains(phrase, "partial"),
		strings.Contains(phrase, "mixture"),
		strings.Contains(phrase, "mixed"):
		return Mixed, true
	}
	return Mixed, false
}

// classifyOverall searches the text from the overall-assessment marker
// onward for the exact rendered labels.
func classifyOverall(text string) (Verdict, bool) {
	idx := indexFold(text, overallMarker)
	if idx < 0 {
		return Mixed, false
	}
	tail := text[idx:]
	switch {
	case strings.Contains(tail, labelInaccurate):
		return Inaccurate, true
	case strings.Contains(tail, labelPartial):
		return Mixed, true
	case strings.Contains(tail, labelAccurate):
		return Accurate, true
	}
	return Mixed, false
}

// classifyClaims takes the majority over per-claim VERDICT lines. With no
// terminal marker present the stream is still mid-flight, so this is a
// running vote over whatever claims have arrived. Ties and zero verdicts
// both land on Mixed.
func classifyClaims(text string) Verdict {
	var correct, incorrect, partial int
	for _, line := range strings.Split(text, "\n") {
		if indexFold(line, finalMarker) >= 0 {
			continue
		}
		m := claimVerdictRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := strings.ToLower(m[1])
		switch {
		case strings.Contains(rest, "incorrect"),
			strings.Contains(rest, "misleading"),
			strings.Contains(rest, "false"),
			strings.Contains(rest, "inaccurate"),
			strings.Contains(rest, "unsupported"):
			incorrect++
		case strings.Contains(rest, "partial"),
			strings.Contains(rest, "uncertain"),
			strings.Contains(rest, "mixed"):
			partial++
		case strings.Contains(rest, "correct"),
			strings.Contains(rest, "true"),
			strings.Contains(rest, "confirmed"),
			containsAccurateAlone(rest):
			correct++
		}
	}
	switch {
	case correct > incorrect && correct > partial:
		return Accurate
	case incorrect > correct && incorrect > partial:
		return Inaccurate
	default:
		return Mixed
	}
}

// containsAccurateAlone reports whether lowercased s contains "accurate"
// not preceded by "in".
func containsAccurateAlone(s string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], "accurate")
		if j < 0 {
			return false
		}
		j += i
		if !strings.HasSuffix(s[:j], "in") {
			return true
		}
		i = j + len("accurate")
	}
}

// indexFold is a case-insensitive strings.Index. Only ASCII letters are
// folded, which keeps the returned offset valid as an index into s even
// when multi-byte runes precede the match (full Unicode upper-casing can
// change byte lengths, e.g. ß). The markers searched for are ASCII.
func indexFold(s, sub string) int {
	return strings.Index(asciiUpper(s), asciiUpper(sub))
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
