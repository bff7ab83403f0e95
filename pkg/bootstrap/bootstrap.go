// Package bootstrap populates a *vm.VM with the native method table and
// class-object wiring the synthetic java.lang/java.io classes declared in
// pkg/loader's built-in fallback set need in order to run. Without it, any
// program touching println, string concatenation, or boxed arithmetic
// would hit "no native registered for ..." the moment it called one of
// these methods, since pkg/vm itself carries no knowledge of any
// particular class library.
package bootstrap

import "github.com/ymtdzzz/jjvm/pkg/vm"

// Register installs every native method this interpreter understands onto
// vm. Call it once, after constructing the VM and before Execute.
func Register(v *vm.VM) {
	registerObjectNatives(v)
	registerSystemNatives(v)
	registerStringNatives(v)
	registerBoxingNatives(v)
	registerMathNatives(v)
	registerThreadNatives(v)
	registerClassNatives(v)
}
