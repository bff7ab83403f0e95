package loader

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
)

// PathLoader resolves classes against an ordered classpath: each entry is
// either a directory of loose .class files or a jar/zip archive. Entries
// are tried in the order given; the first one holding the requested class
// wins.
type PathLoader struct {
	roots []pathRoot
	cache map[string]*classfile.ClassModel
}

type pathRoot struct {
	dir    string // set when this entry is a directory
	zipper *zip.ReadCloser
}

// NewPathLoader builds a PathLoader over classpath entries, each either a
// directory or a path to a .jar/.zip archive.
func NewPathLoader(entries ...string) (*PathLoader, error) {
	pl := &PathLoader{cache: make(map[string]*classfile.ClassModel)}
	for _, entry := range entries {
		info, err := os.Stat(entry)
		if err != nil {
			return nil, fmt.Errorf("classpath entry %q: %w", entry, err)
		}
		if info.IsDir() {
			pl.roots = append(pl.roots, pathRoot{dir: entry})
			continue
		}
		zr, err := zip.OpenReader(entry)
		if err != nil {
			return nil, fmt.Errorf("classpath entry %q: opening archive: %w", entry, err)
		}
		pl.roots = append(pl.roots, pathRoot{zipper: zr})
	}
	return pl, nil
}

// Close releases any open archive handles.
func (pl *PathLoader) Close() error {
	var firstErr error
	for _, r := range pl.roots {
		if r.zipper != nil {
			if err := r.zipper.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (pl *PathLoader) LoadClass(name string) (*classfile.ClassModel, error) {
	if cm, ok := pl.cache[name]; ok {
		return cm, nil
	}

	relative := name + ".class"
	for _, root := range pl.roots {
		if root.dir != "" {
			cm, err := classfile.ParseFile(filepath.Join(root.dir, filepath.FromSlash(relative)))
			if err != nil {
				continue
			}
			pl.cache[name] = cm
			return cm, nil
		}

		for _, f := range root.zipper.File {
			if f.Name != relative {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("path loader: opening %s: %w", relative, err)
			}
			cm, err := classfile.Parse(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("path loader: parsing %s: %w", name, err)
			}
			pl.cache[name] = cm
			return cm, nil
		}
	}

	return nil, &ClassNotFoundError{ClassName: name}
}
