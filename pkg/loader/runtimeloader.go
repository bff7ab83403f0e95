package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
)

// RuntimeLoader resolves java.*/jdk.* classes out of a JDK's java.base.jmod:
// a jmod is a zip archive prefixed with a 4-byte "JM\x01\x00" header.
//
// When no jmod path is configured, or the class isn't present in it,
// RuntimeLoader falls back to a small built-in set of synthetic classes
// (java/lang/Object and friends) so the interpreter can still run simple
// programs without a full JDK install.
type RuntimeLoader struct {
	JmodPath  string
	cache     map[string]*classfile.ClassModel
	zipReader *zip.Reader
	zipData   []byte
}

// NewRuntimeLoader creates a RuntimeLoader. jmodPath may be empty, in which
// case only the synthetic fallback classes are available.
func NewRuntimeLoader(jmodPath string) *RuntimeLoader {
	return &RuntimeLoader{
		JmodPath: jmodPath,
		cache:    make(map[string]*classfile.ClassModel),
	}
}

func (rl *RuntimeLoader) ensureZipReader() error {
	if rl.zipReader != nil || rl.JmodPath == "" {
		return nil
	}

	f, err := os.Open(rl.JmodPath)
	if err != nil {
		return fmt.Errorf("jmod: opening %s: %w", rl.JmodPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("jmod: stat %s: %w", rl.JmodPath, err)
	}

	data := make([]byte, stat.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("jmod: reading %s: %w", rl.JmodPath, err)
	}

	rl.zipData = data[4:] // skip "JM\x01\x00" header
	rl.zipReader, err = zip.NewReader(bytes.NewReader(rl.zipData), int64(len(rl.zipData)))
	if err != nil {
		return fmt.Errorf("jmod: opening zip: %w", err)
	}
	return nil
}

func (rl *RuntimeLoader) LoadClass(name string) (*classfile.ClassModel, error) {
	if cm, ok := rl.cache[name]; ok {
		return cm, nil
	}

	if rl.JmodPath != "" {
		if err := rl.ensureZipReader(); err == nil {
			target := "classes/" + name + ".class"
			for _, file := range rl.zipReader.File {
				if file.Name != target {
					continue
				}
				rc, err := file.Open()
				if err != nil {
					return nil, fmt.Errorf("jmod: opening %s: %w", target, err)
				}
				cm, err := classfile.Parse(rc)
				rc.Close()
				if err != nil {
					return nil, fmt.Errorf("jmod: parsing %s: %w", name, err)
				}
				rl.cache[name] = cm
				return cm, nil
			}
		}
	}

	if cm, ok := syntheticClasses[name]; ok {
		rl.cache[name] = cm
		return cm, nil
	}

	return nil, &ClassNotFoundError{ClassName: name}
}
