// Package astmetrics computes structural metrics for Python source:
// definition counts, a cyclomatic complexity approximation, nesting
// depth, and the dynamic-language features that complicate a
// TypeScript port. Parsing uses the tree-sitter Python grammar.
package astmetrics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

// Metrics is the structural profile of one Python source unit.
type Metrics struct {
	Lines                int      `json:"lines"`
	Functions            int      `json:"functions"`
	AsyncFunctions       int      `json:"asyncFunctions"`
	Classes              int      `json:"classes"`
	Decorators           int      `json:"decorators"`
	CyclomaticComplexity int      `json:"cyclomaticComplexity"`
	MaxNestingDepth      int      `json:"maxNestingDepth"`
	DynamicFeatures      []string `json:"dynamicFeatures"`
	RiskNotes            []string `json:"riskNotes"`
	HasSyntaxErrors      bool     `json:"hasSyntaxErrors"`
}

// Options configures an Analyzer. Zero values pick defaults.
type Options struct {
	// CacheSize is the number of analyzed sources to keep, keyed by
	// content hash.
	CacheSize int

	// MaxSourceBytes rejects sources larger than this. Zero means the
	// default limit.
	MaxSourceBytes int
}

const (
	defaultCacheSize      = 256
	defaultMaxSourceBytes = 1 << 20
)

// Analyzer parses Python sources and derives Metrics. The underlying
// tree-sitter parser is not safe for concurrent use, so calls are
// serialized; cache hits skip the lock.
type Analyzer struct {
	mu             sync.Mutex
	parser         *sitter.Parser
	cache          *lru.Cache[string, *Metrics]
	maxSourceBytes int
}

// New creates an Analyzer with the Python grammar loaded.
func New(opts Options) (*Analyzer, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = defaultMaxSourceBytes
	}
	cache, err := lru.New[string, *Metrics](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics cache: %w", err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	return &Analyzer{
		parser:         parser,
		cache:          cache,
		maxSourceBytes: opts.MaxSourceBytes,
	}, nil
}

// Analyze parses source and returns its metrics. Results are cached by
// content hash, so re-analyzing an unchanged file is free.
func (a *Analyzer) Analyze(ctx context.Context, source []byte) (*Metrics, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, tsberrors.New(tsberrors.ErrCodeEmptyInput, "source code is empty", nil).
			WithSuggestion("provide the Python source to analyze")
	}
	if len(source) > a.maxSourceBytes {
		return nil, tsberrors.New(tsberrors.ErrCodeInputTooLong,
			fmt.Sprintf("source is %d bytes, limit is %d", len(source), a.maxSourceBytes), nil).
			WithSuggestion("analyze one module at a time")
	}

	key := cacheKey(source)
	if m, ok := a.cache.Get(key); ok {
		return m, nil
	}

	a.mu.Lock()
	tree, err := a.parser.ParseCtx(ctx, nil, source)
	a.mu.Unlock()
	if err != nil {
		return nil, tsberrors.New(tsberrors.ErrCodeInternal, "tree-sitter parse failed", err)
	}
	if tree == nil {
		return nil, tsberrors.New(tsberrors.ErrCodeInternal, "tree-sitter returned no tree", nil)
	}
	defer tree.Close()

	m := collect(tree.RootNode(), source)
	a.cache.Add(key, m)
	return m, nil
}

// Close releases the parser.
func (a *Analyzer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.parser != nil {
		a.parser.Close()
		a.parser = nil
	}
}

func cacheKey(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
