package bootstrap

import "github.com/ymtdzzz/jjvm/pkg/vm"

// registerThreadNatives wires just enough of java/lang/Thread for a
// single-threaded program to read its own thread's name; Thread.start
// stays unimplemented, so there is deliberately no native registered for
// it — calling it surfaces the ordinary "no native registered" interpreter
// bug rather than a silent no-op that would make a genuinely concurrent
// program appear to work.
func registerThreadNatives(v *vm.VM) {
	mainThread := v.Heap.AllocInstance("java/lang/Thread", map[string]vm.Value{
		"name": vm.RefValue(v.Heap.NewString("Thread-0")),
	})
	v.RegisterNative("java/lang/Thread.currentThread", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.RefValue(mainThread), nil
	})
	v.RegisterNative("java/lang/Thread.setPriority", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{}, nil
	})
	v.RegisterNative("java/lang/Thread.getName", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return inst.Fields["name"], nil
	})
}
