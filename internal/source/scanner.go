package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DiscoveredFile represents a battle-log export found on disk.
type DiscoveredFile struct {
	Path    string
	Name    string // file name without extension
	ModTime time.Time
	Size    int64
}

// Stat builds a DiscoveredFile for a single path.
func Stat(path string) (DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	return DiscoveredFile{
		Path:    path,
		Name:    strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// ScanDir walks dir and returns every .json or .jsonl export, sorted by path.
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".json", ".jsonl":
		default:
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		files = append(files, DiscoveredFile{
			Path:    path,
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}
