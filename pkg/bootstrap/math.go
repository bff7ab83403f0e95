package bootstrap

import (
	"math"

	"github.com/ymtdzzz/jjvm/pkg/vm"
)

// registerMathNatives wires java/lang/Math's static methods.
func registerMathNatives(v *vm.VM) {
	v.RegisterNative("java/lang/Math.sqrt", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.DoubleValue(math.Sqrt(args[0].Double)), nil
	})
	v.RegisterNative("java/lang/Math.pow", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.DoubleValue(math.Pow(args[0].Double, args[1].Double)), nil
	})
	v.RegisterNative("java/lang/Math.abs:(I)I", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		n := args[0].Int
		if n < 0 {
			n = -n
		}
		return vm.IntValue(n), nil
	})
	v.RegisterNative("java/lang/Math.abs:(J)J", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		n := args[0].Long
		if n < 0 {
			n = -n
		}
		return vm.LongValue(n), nil
	})
	v.RegisterNative("java/lang/Math.abs:(D)D", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.DoubleValue(math.Abs(args[0].Double)), nil
	})
	v.RegisterNative("java/lang/Math.max:(II)I", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		if args[0].Int > args[1].Int {
			return vm.IntValue(args[0].Int), nil
		}
		return vm.IntValue(args[1].Int), nil
	})
	v.RegisterNative("java/lang/Math.min:(II)I", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		if args[0].Int < args[1].Int {
			return vm.IntValue(args[0].Int), nil
		}
		return vm.IntValue(args[1].Int), nil
	})
	v.RegisterNative("java/lang/Math.max:(DD)D", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.DoubleValue(math.Max(args[0].Double, args[1].Double)), nil
	})
	v.RegisterNative("java/lang/Math.min:(DD)D", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.DoubleValue(math.Min(args[0].Double, args[1].Double)), nil
	})
}
