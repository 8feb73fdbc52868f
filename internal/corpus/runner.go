// Package corpus runs schema inference over a file or a directory tree.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/dredger/internal/cache"
	"github.com/usestring/dredger/internal/indexer"
	"github.com/usestring/dredger/internal/query"
	"github.com/usestring/dredger/pkg/document"
	"github.com/usestring/dredger/pkg/dredge"
	"github.com/usestring/dredger/pkg/types"
)

// Options control one run.
type Options struct {
	Lists      []string // list designator keys
	Extensions []string // extensions considered when walking a directory
	Select     string   // optional jq expression; each result is one document
	Workers    int      // parallel file analyses, at least 1
}

// Skipped records a file or document left out of the aggregate.
type Skipped struct {
	Path     string `json:"path"`
	Document int    `json:"document"` // -1 when the whole file was skipped
	Reason   string `json:"reason"`
}

// Result is the outcome of a run.
type Result struct {
	Target  string
	Files   int // files read
	Schema  *dredge.Schema
	Skipped []Skipped
	Index   *indexer.Indexer
}

// Summary describes the run for output.
func (r *Result) Summary() types.RunSummary {
	summary := types.RunSummary{
		Target:    r.Target,
		Files:     r.Files,
		Documents: r.Schema.Documents,
	}
	for _, s := range r.Skipped {
		summary.Skipped = append(summary.Skipped, types.SkippedFile{Path: s.Path, Document: s.Document, Reason: s.Reason})
	}
	return summary
}

// Runner analyses corpora. It may be shared between runs; the fragment
// cache, when present, lets unchanged files skip parsing and analysis.
type Runner struct {
	cache   *cache.FragmentCache
	queries *query.Engine
}

// NewRunner creates a runner. c may be nil.
func NewRunner(c *cache.FragmentCache) *Runner {
	return &Runner{cache: c, queries: query.NewEngine()}
}

// fileResult is the analysis of one file. forests[i] is nil when document i
// was skipped.
type fileResult struct {
	forests cache.Fragments
	skipped []Skipped
}

// Run discovers the files under target, analyses them in parallel and folds
// them into one schema in path order. Unreadable or malformed files and
// documents that are not maps are skipped with a warning. A broken
// aggregation invariant or a cancelled context aborts the run.
func (r *Runner) Run(ctx context.Context, target string, opts Options) (*Result, error) {
	start := time.Now()

	var selector *query.Selector
	if opts.Select != "" {
		sel, err := r.queries.Compile(opts.Select)
		if err != nil {
			return nil, err
		}
		selector = sel
	}

	files, err := Discover(target, opts.Extensions)
	if err != nil {
		return nil, err
	}

	analyzer := dredge.NewAnalyzer(opts.Lists...)
	results := make([]fileResult, len(files))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.analyzeFile(path, analyzer, selector)
			if err != nil {
				slog.Warn("skipping file",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				results[i] = fileResult{skipped: []Skipped{{Path: path, Document: -1, Reason: err.Error()}}}
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Target:  target,
		Skipped: make([]Skipped, 0),
		Index:   indexer.New(),
	}

	ag := dredge.NewAggregator()
	for i, res := range results {
		result.Skipped = append(result.Skipped, res.skipped...)
		if res.forests == nil {
			continue
		}
		result.Files++

		for pos, forest := range res.forests {
			if forest == nil {
				continue
			}
			if err := ag.Add(forest); err != nil {
				return nil, fmt.Errorf("aggregating %s: %w", files[i], err)
			}
			result.Index.Index(files[i], pos, forest)
		}
	}
	result.Schema = ag.Schema()

	slog.Info("run completed",
		slog.String("target", target),
		slog.Int("files", result.Files),
		slog.Int("documents", result.Schema.Documents),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return result, nil
}

// analyzeFile returns one forest per document of the file. A file-level
// error means nothing in the file could be used.
func (r *Runner) analyzeFile(path string, analyzer *dredge.Analyzer, selector *query.Selector) (fileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("reading file: %w", err)
	}

	key := cache.KeyFor(path, info, cacheOptions(analyzer, selector)...)
	if r.cache != nil {
		if forests, ok := r.cache.Get(key); ok {
			slog.Debug("analysis cache hit", slog.String("path", path))
			return fileResult{forests: forests}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("reading file: %w", err)
	}

	docs, err := decode(path, data)
	if err != nil {
		return fileResult{}, err
	}

	if selector != nil {
		var selected []document.Node
		for _, doc := range docs {
			nodes, err := selector.Select(doc)
			if err != nil {
				return fileResult{}, fmt.Errorf("selecting records: %w", err)
			}
			selected = append(selected, nodes...)
		}
		docs = selected
	}

	res := fileResult{forests: make(cache.Fragments, len(docs))}
	for i, doc := range docs {
		forest, err := analyzer.Analyze(doc)
		if err != nil {
			if !dredge.IsInputShape(err) {
				return fileResult{}, err
			}
			slog.Warn("skipping document",
				slog.String("path", path),
				slog.Int("document", i),
				slog.String("error", err.Error()),
			)
			res.skipped = append(res.skipped, Skipped{Path: path, Document: i, Reason: err.Error()})
			continue
		}
		res.forests[i] = forest
	}

	slog.Debug("analysed file",
		slog.String("path", path),
		slog.Int("documents", len(docs)),
		slog.Int("skipped", len(res.skipped)),
	)

	if r.cache != nil && len(res.skipped) == 0 {
		r.cache.Put(key, res.forests)
	}
	return res, nil
}

func decode(path string, data []byte) ([]document.Node, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		doc, err := document.DecodeJSON(data)
		if err != nil {
			return nil, err
		}
		return []document.Node{doc}, nil
	}
	return document.DecodeYAML(data)
}

func cacheOptions(analyzer *dredge.Analyzer, selector *query.Selector) []string {
	opts := []string{strings.Join(analyzer.Lists(), ",")}
	if selector != nil {
		opts = append(opts, selector.Expression())
	}
	return opts
}

// IsAborted reports whether err ended a run early rather than describing a
// bad input.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || dredge.IsInvariant(err)
}
