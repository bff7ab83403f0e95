// Package classarea implements the method area: the registry of loaded
// classes, their linkage/initialization state, and static field storage.
// It mirrors JVMS §5.3-5.5 without owning the bytecode interpreter itself
// — running <clinit> is delegated back to the caller via a callback, so
// this package never needs to import pkg/vm.
package classarea

import (
	"fmt"

	"github.com/ymtdzzz/jjvm/pkg/classfile"
	"github.com/ymtdzzz/jjvm/pkg/descriptor"
	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/loader"
)

// Phase is a class's position in the JVMS 5.3-5.5 lifecycle.
type Phase int

const (
	NotLoaded Phase = iota
	Loaded
	Initializing
	Initialized
	Erroneous
)

func (p Phase) String() string {
	switch p {
	case NotLoaded:
		return "NotLoaded"
	case Loaded:
		return "Loaded"
	case Initializing:
		return "Initializing"
	case Initialized:
		return "Initialized"
	case Erroneous:
		return "Erroneous"
	default:
		return "Unknown"
	}
}

// Class is one entry in the method area: a loaded class file plus its
// current lifecycle phase and static field storage.
type Class struct {
	Model        *classfile.ClassModel
	Phase        Phase
	StaticFields map[string]heap.Value
	InitError    error // set when Phase == Erroneous
}

func (c *Class) Name() string { return c.Model.ThisClass }

// LinkageError reports that a class could not be verified, prepared, or
// resolved — the Go analogue of java.lang.LinkageError and its subtypes.
type LinkageError struct {
	ClassName string
	Reason    string
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("linkage error for %s: %s", e.ClassName, e.Reason)
}

// Area is the method area: every class the running program has touched,
// keyed by internal name.
type Area struct {
	Loader  loader.Loader
	classes map[string]*Class
}

// NewArea creates an Area backed by the given class loader.
func NewArea(l loader.Loader) *Area {
	return &Area{Loader: l, classes: make(map[string]*Class)}
}

// EnsureLoaded returns the Class for name, loading and linking it via the
// configured Loader on first reference. A class that previously failed to
// load stays Erroneous and re-reports the same LinkageError rather than
// retrying the loader (JVMS 5.3: a failed loading attempt is permanent).
func (a *Area) EnsureLoaded(name string) (*Class, error) {
	if c, ok := a.classes[name]; ok {
		if c.Phase == Erroneous {
			return c, c.InitError
		}
		return c, nil
	}

	model, err := a.Loader.LoadClass(name)
	if err != nil {
		c := &Class{Model: &classfile.ClassModel{ThisClass: name}, Phase: Erroneous, InitError: err}
		a.classes[name] = c
		return c, err
	}

	c := &Class{
		Model:        model,
		Phase:        Loaded,
		StaticFields: make(map[string]heap.Value),
	}
	for _, f := range model.Fields {
		if f.AccessFlags.Has(classfile.AccStatic) {
			c.StaticFields[f.Name] = defaultValueFor(f)
		}
	}
	a.classes[name] = c
	return c, nil
}

func defaultValueFor(f classfile.ClassField) heap.Value {
	switch f.Signature.Kind {
	case descriptor.KindLong:
		return heap.LongValue(0)
	case descriptor.KindFloat:
		return heap.FloatValue(0)
	case descriptor.KindDouble:
		return heap.DoubleValue(0)
	default:
		return heap.IntValue(0)
	}
}

// EnsureInitialized runs a class's <clinit> (and its superclass's, and so
// on up the chain) exactly once, per JVMS 5.5. Before running a class's own
// <clinit>, every static field backed by a ConstantValue attribute is
// assigned its constant (JVMS 5.5 step 7's prerequisite preparation),
// overriding the type-default value EnsureLoaded installed — a `static
// final` field with no explicit assignment in <clinit> would otherwise
// read back as 0/null forever. h resolves ConstString constant values to
// interned heap.Ref string instances; it is never touched for classes with
// no String ConstantValue fields. runClinit is invoked with the
// already-Loaded class and must execute its <clinit> method if one is
// present; classarea only manages the reentrancy guard, constant-value
// assignment, and phase transitions, not bytecode execution.
func (a *Area) EnsureInitialized(name string, h *heap.Heap, runClinit func(*Class) error) (*Class, error) {
	c, err := a.EnsureLoaded(name)
	if err != nil {
		return c, err
	}
	if c.Phase == Initialized {
		return c, nil
	}
	if c.Phase == Initializing {
		// A class initializing itself (directly or via a cycle) observes
		// itself as already-initialized, per JVMS 5.5 step 2.
		return c, nil
	}

	c.Phase = Initializing

	if c.Model.SuperClass != "" {
		if _, err := a.EnsureInitialized(c.Model.SuperClass, h, runClinit); err != nil {
			c.Phase = Erroneous
			c.InitError = err
			return c, err
		}
	}

	applyConstantValues(c, h)

	if err := runClinit(c); err != nil {
		c.Phase = Erroneous
		c.InitError = err
		return c, err
	}

	c.Phase = Initialized
	return c, nil
}

// applyConstantValues overwrites c's static fields that carry a
// ConstantValue attribute with that constant, ahead of <clinit> running.
func applyConstantValues(c *Class, h *heap.Heap) {
	for _, f := range c.Model.Fields {
		if !f.AccessFlags.Has(classfile.AccStatic) || f.ConstantValue == nil {
			continue
		}
		c.StaticFields[f.Name] = constantValueToHeapValue(*f.ConstantValue, h)
	}
}

func constantValueToHeapValue(cc classfile.ClassConstant, h *heap.Heap) heap.Value {
	switch cc.Tag {
	case classfile.ConstLong:
		return heap.LongValue(cc.Int64)
	case classfile.ConstFloat:
		return heap.FloatValue(float32(cc.Float64))
	case classfile.ConstDouble:
		return heap.DoubleValue(cc.Float64)
	case classfile.ConstString:
		return heap.RefValue(h.Intern(cc.Str))
	default: // ConstInteger: covers int, and the byte/short/char/boolean
		// static finals the parser also represents as ConstInteger.
		return heap.IntValue(int32(cc.Int64))
	}
}

// ResolveMethod looks up name/desc starting at class, then its superclass
// chain, then (for default methods) its interfaces — JVMS 5.4.3.3.
func (a *Area) ResolveMethod(class *Class, name, desc string) (*Class, *classfile.ClassMethod) {
	var chain []*Class
	for c := class; c != nil; {
		if m := c.Model.FindMethod(name, desc); m != nil {
			return c, m
		}
		chain = append(chain, c)
		if c.Model.SuperClass == "" {
			break
		}
		super, err := a.EnsureLoaded(c.Model.SuperClass)
		if err != nil {
			return nil, nil
		}
		c = super
	}
	for _, c := range chain {
		if m, owner := a.resolveInterfaceMethod(c, name, desc); m != nil {
			return owner, m
		}
	}
	return nil, nil
}

func (a *Area) resolveInterfaceMethod(class *Class, name, desc string) (*classfile.ClassMethod, *Class) {
	for _, ifaceName := range class.Model.Interfaces {
		iface, err := a.EnsureLoaded(ifaceName)
		if err != nil {
			continue
		}
		if m := iface.Model.FindMethod(name, desc); m != nil && m.Code != nil {
			return m, iface
		}
		if m, owner := a.resolveInterfaceMethod(iface, name, desc); m != nil {
			return m, owner
		}
	}
	return nil, nil
}

// ResolveField looks up a field starting at class, then its superclass
// chain (JVMS 5.4.3.2 ignores interfaces for instance field resolution in
// the subset this interpreter supports).
func (a *Area) ResolveField(class *Class, name string) (*Class, *classfile.ClassField) {
	for c := class; c != nil; {
		if f := c.Model.FindField(name); f != nil {
			return c, f
		}
		if c.Model.SuperClass == "" {
			break
		}
		super, err := a.EnsureLoaded(c.Model.SuperClass)
		if err != nil {
			return nil, nil
		}
		c = super
	}
	return nil, nil
}

// IsSubclassOf reports whether class is className or a transitive
// subclass/implementor of it.
func (a *Area) IsSubclassOf(class *Class, className string) bool {
	return a.isSubclassOfVisited(class, className, make(map[string]bool))
}

func (a *Area) isSubclassOfVisited(class *Class, className string, visited map[string]bool) bool {
	if class == nil || visited[class.Name()] {
		return false
	}
	visited[class.Name()] = true
	if class.Name() == className {
		return true
	}
	for _, ifaceName := range class.Model.Interfaces {
		iface, err := a.EnsureLoaded(ifaceName)
		if err == nil && a.isSubclassOfVisited(iface, className, visited) {
			return true
		}
	}
	if class.Model.SuperClass == "" {
		return false
	}
	super, err := a.EnsureLoaded(class.Model.SuperClass)
	if err != nil {
		return false
	}
	return a.isSubclassOfVisited(super, className, visited)
}
