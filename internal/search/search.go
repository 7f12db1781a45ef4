// Package search maintains a bleve full-text index over completed
// fact-check analyses so past results are findable by the claims they
// discuss.
package search

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/factlens/factlens/internal/verdict"
)

const snippetLen = 300

// Document is one indexed analysis.
type Document struct {
	ContentKey string          `json:"content_key"`
	ResultText string          `json:"result_text"`
	Status     verdict.Verdict `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Hit is one search result, snippet trimmed for listing.
type Hit struct {
	ContentKey string          `json:"content_key"`
	Status     verdict.Verdict `json:"status"`
	Snippet    string          `json:"snippet"`
	Score      float64         `json:"score"`
	Rank       int             `json:"rank"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Index wraps a bleve index plus a metadata map keyed by content key.
// Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
	meta  map[string]Document
}

// NewMemOnly builds an in-process index that lives and dies with the
// daemon.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx, meta: make(map[string]Document)}, nil
}

// Open opens the on-disk index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, err
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, err
		}
	}
	return &Index{bleve: idx, meta: make(map[string]Document)}, nil
}

func (i *Index) Close() error { return i.bleve.Close() }

// IndexResult adds or replaces the analysis for contentKey.
func (i *Index) IndexResult(_ context.Context, contentKey, resultText string, status verdict.Verdict, createdAt time.Time) error {
	doc := Document{
		ContentKey: contentKey,
		ResultText: resultText,
		Status:     status,
		CreatedAt:  createdAt,
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.meta[contentKey] = doc
	return i.bleve.Index(contentKey, doc)
}

// Search runs a query-string search and returns up to k ranked hits.
func (i *Index) Search(_ context.Context, q string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")

	i.mu.RLock()
	defer i.mu.RUnlock()
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(res.Hits))
	for n, hit := range res.Hits {
		doc := i.meta[hit.ID]
		out = append(out, Hit{
			ContentKey: hit.ID,
			Status:     doc.Status,
			Snippet:    snippet(doc.ResultText),
			Score:      hit.Score,
			Rank:       n + 1,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return out, nil
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	return s[:snippetLen] + "..."
}
