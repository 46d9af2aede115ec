package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

// LoadResult holds the output of loading battle-log exports from disk.
type LoadResult struct {
	Battles      []model.Battle // deduped, newest first
	TotalFiles   int
	ParsedFiles  int
	ParseErrors  int
	InvalidTimes int
	FileErrors   int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadFiles decodes the given exports in parallel and merges them.
func LoadFiles(files []source.DiscoveredFile, progressFn ProgressFunc) *LoadResult {
	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		result.Battles = []model.Battle{}
		return result
	}

	var merged []model.Battle
	for _, pr := range parseAll(files, 0, progressFn) {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		result.InvalidTimes += pr.InvalidTimes
		merged = append(merged, pr.Battles...)
	}

	result.Battles = Dedupe(NewestFirst(merged))
	return result
}

// LoadPaths stats each path and loads the files that exist.
// Missing paths count as file errors.
func LoadPaths(paths []string, progressFn ProgressFunc) *LoadResult {
	var files []source.DiscoveredFile
	missing := 0
	for _, p := range paths {
		df, err := source.Stat(p)
		if err != nil {
			missing++
			continue
		}
		files = append(files, df)
	}
	result := LoadFiles(files, progressFn)
	result.TotalFiles += missing
	result.FileErrors += missing
	return result
}

// LoadDir discovers and loads every export under dir.
func LoadDir(dir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return LoadFiles(files, progressFn), nil
}

// parseAll parses files with a bounded worker pool. Results are index
// aligned with files. offset is added to the progress count.
func parseAll(files []source.DiscoveredFile, offset int, progressFn ProgressFunc) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+offset, len(files)+offset)
				}
			}
		}()
	}

	wg.Wait()
	return results
}
