// Package transcript supplies the text a fact-check session analyzes.
// Acquisition is a collaborator boundary: the checker only sees a
// SourceProvider, and an empty result is the caller's problem to surface,
// not a defect here. Extraction from third-party pages is best effort.
package transcript

import (
	"context"
	"strings"
)

// SourceProvider resolves the raw text to analyze. Implementations may
// poll or retry internally before returning.
type SourceProvider interface {
	SourceText(ctx context.Context) (string, error)
}

// Static is a provider for text the caller already holds, such as a
// transcript pasted straight into a check request.
type Static string

func (s Static) SourceText(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}
