package pipeline

import (
	"context"
	"fmt"

	"github.com/theirongolddev/crpush/internal/source"
	"github.com/theirongolddev/crpush/internal/store"
)

// ImportResult reports an incremental directory import.
type ImportResult struct {
	TotalFiles  int
	CacheHits   int
	Reparsed    int
	FileErrors  int
	ParseErrors int
	Inserted    int
}

// ImportDir imports the exports under dir into the cache for tag, parsing
// only files whose mtime or size changed since the last import.
func ImportDir(ctx context.Context, dir string, cache *store.Cache, tag string, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	for _, f := range files {
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == f.ModTime.UnixNano() && cached.SizeBytes == f.Size {
			result.CacheHits++
			continue
		}
		toReparse = append(toReparse, f)
	}
	result.Reparsed = len(toReparse)
	if len(toReparse) == 0 {
		return result, nil
	}

	for i, pr := range parseAll(toReparse, result.CacheHits, progressFn) {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParseErrors += pr.ParseErrors

		n, err := cache.SaveBattles(ctx, tag, pr.Battles)
		if err != nil {
			return result, fmt.Errorf("saving %s: %w", toReparse[i].Path, err)
		}
		result.Inserted += n

		f := toReparse[i]
		if err := cache.TrackFile(ctx, f.Path, store.FileInfo{MtimeNs: f.ModTime.UnixNano(), SizeBytes: f.Size}); err != nil {
			return result, fmt.Errorf("tracking %s: %w", f.Path, err)
		}
	}

	return result, nil
}
