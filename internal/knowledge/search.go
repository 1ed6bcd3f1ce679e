package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// Document kinds returned by Search.
const (
	KindIdiom    = "idiom"
	KindPackage  = "package"
	KindStrategy = "testing_strategy"
)

// SearchResult is one full-text hit across the knowledge tables.
type SearchResult struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// searchDoc is the shape indexed into bleve. Content carries every
// searchable string flattened together; the default analyzer handles
// tokenization.
type searchDoc struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// searchIndex pairs an in-memory bleve index with the documents behind
// it, so hits can be rendered without stored fields.
type searchIndex struct {
	idx  bleve.Index
	docs map[string]searchDoc
}

// buildIndex indexes the idiom, package, and strategy tables into a
// fresh in-memory bleve index.
func buildIndex(tab *tables) (*searchIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	docs := make(map[string]searchDoc)
	add := func(id string, doc searchDoc) {
		docs[id] = doc
	}
	for _, i := range tab.idioms {
		add(KindIdiom+":"+i.ID, searchDoc{
			Kind:    KindIdiom,
			Title:   i.Name,
			Content: strings.Join([]string{i.Name, i.Category, i.Python, i.TypeScript, i.Description}, "\n"),
		})
	}
	for _, p := range tab.packages {
		add(KindPackage+":"+p.PythonPackage, searchDoc{
			Kind:    KindPackage,
			Title:   p.PythonPackage,
			Content: strings.Join(append([]string{p.PythonPackage, p.Notes}, p.TSEquivalents...), "\n"),
		})
	}
	for _, st := range tab.strategies {
		add(KindStrategy+":"+st.ID, searchDoc{
			Kind:    KindStrategy,
			Title:   st.Name,
			Content: strings.Join([]string{st.Name, strings.Join(st.AppliesTo, " "), st.Strategy, strings.Join(st.Tools, " "), st.Notes}, "\n"),
		})
	}

	batch := idx.NewBatch()
	for id, doc := range docs {
		if err := batch.Index(id, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("failed to index document %s: %w", id, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}

	return &searchIndex{idx: idx, docs: docs}, nil
}

func (si *searchIndex) Close() error {
	return si.idx.Close()
}

// Search runs a full-text query over idioms, packages, and testing
// strategies. An empty query returns no hits rather than an error.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	si := s.index
	s.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	res, err := si.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := si.docs[hit.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			ID:      hit.ID,
			Kind:    doc.Kind,
			Title:   doc.Title,
			Snippet: snippet(doc.Content, 200),
			Score:   hit.Score,
		})
	}
	return results, nil
}

// snippet truncates content to at most n runes on a word boundary.
func snippet(content string, n int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= n {
		return content
	}
	cut := content[:n]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
