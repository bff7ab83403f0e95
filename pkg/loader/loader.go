// Package loader resolves class names to parsed classfile.ClassModel
// values from the filesystem, jar/zip archives, and the JDK runtime image.
package loader

import (
	"fmt"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
)

// Loader loads one class by its internal (slash-separated) name.
type Loader interface {
	LoadClass(name string) (*classfile.ClassModel, error)
}

// ClassNotFoundError reports that no loader in the search order could
// produce bytes for the requested class. It corresponds to a
// NoClassDefFoundError at the Java level.
type ClassNotFoundError struct {
	ClassName string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class not found: %s", e.ClassName)
}

// CompositeLoader queries a fixed, ordered list of child loaders and
// returns the first hit. Unlike a parent-delegating scheme, no child is
// privileged over another except by position in Children.
type CompositeLoader struct {
	Children []Loader
	cache    map[string]*classfile.ClassModel
}

// NewCompositeLoader builds a CompositeLoader over children, queried in
// the given order.
func NewCompositeLoader(children ...Loader) *CompositeLoader {
	return &CompositeLoader{
		Children: children,
		cache:    make(map[string]*classfile.ClassModel),
	}
}

func (cl *CompositeLoader) LoadClass(name string) (*classfile.ClassModel, error) {
	if cm, ok := cl.cache[name]; ok {
		return cm, nil
	}

	var lastErr error
	for _, child := range cl.Children {
		cm, err := child.LoadClass(name)
		if err == nil {
			cl.cache[name] = cm
			return cm, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, &ClassNotFoundError{ClassName: name}
	}
	return nil, &ClassNotFoundError{ClassName: name}
}
