package scene

import (
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Fetcher retrieves the raw bytes of a mesh or texture by path.
type Fetcher interface {
	Fetch(name string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(name string) ([]byte, error)

// Fetch calls f(name).
func (f FetcherFunc) Fetch(name string) ([]byte, error) { return f(name) }

// FSFetcher reads assets from a file system. Names are slash-separated and
// relative to the root of FS.
type FSFetcher struct {
	FS fs.FS
}

// Dir returns a fetcher reading from the directory root.
func Dir(root string) FSFetcher {
	return FSFetcher{FS: os.DirFS(root)}
}

// Fetch reads the named file.
func (f FSFetcher) Fetch(name string) ([]byte, error) {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("fetch %s: %w", name, fs.ErrInvalid)
	}
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return data, nil
}
