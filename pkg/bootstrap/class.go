package bootstrap

import (
	"strings"

	"github.com/ymtdzzz/jjvm/pkg/vm"
)

var primitiveTypeNames = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// registerClassNatives wires the minimal reflection surface java.lang.Class
// needs for bootstrap classes: name/array/primitive/assignability queries,
// not a full reflection API.
func registerClassNatives(v *vm.VM) {
	v.RegisterNative("java/lang/Class.getName", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		nameRef := inst.Fields["name"]
		internal, _ := v.Heap.StringValue(nameRef.Ref)
		return vm.RefValue(v.Heap.NewString(strings.ReplaceAll(internal, "/", "."))), nil
	})
	v.RegisterNative("java/lang/Class.isArray", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		name, err := classInternalName(v, args[0])
		if err != nil {
			return vm.Value{}, err
		}
		if strings.HasPrefix(name, "[") {
			return vm.IntValue(1), nil
		}
		return vm.IntValue(0), nil
	})
	v.RegisterNative("java/lang/Class.isPrimitive", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		name, err := classInternalName(v, args[0])
		if err != nil {
			return vm.Value{}, err
		}
		if primitiveTypeNames[name] {
			return vm.IntValue(1), nil
		}
		return vm.IntValue(0), nil
	})
	v.RegisterNative("java/lang/Class.isAssignableFrom", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		selfName, err := classInternalName(v, args[0])
		if err != nil {
			return vm.Value{}, err
		}
		otherName, err := classInternalName(v, args[1])
		if err != nil {
			return vm.Value{}, err
		}
		other, err := v.Classes.EnsureLoaded(otherName)
		if err != nil {
			return vm.IntValue(0), nil
		}
		if v.Classes.IsSubclassOf(other, selfName) {
			return vm.IntValue(1), nil
		}
		return vm.IntValue(0), nil
	})
	v.RegisterNative("java/lang/Class.forName", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		binaryName, ok := v.Heap.StringValue(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		internal := strings.ReplaceAll(binaryName, ".", "/")
		if _, err := v.Classes.EnsureLoaded(internal); err != nil {
			return vm.Value{}, throwNative(v, "java/lang/ClassNotFoundException", binaryName)
		}
		return vm.RefValue(v.ClassObjectFor(internal)), nil
	})
}

func classInternalName(v *vm.VM, classObj vm.Value) (string, error) {
	inst, ok := v.Heap.Deref(classObj.Ref)
	if !ok {
		return "", throwNative(v, "java/lang/NullPointerException", "")
	}
	s, _ := v.Heap.StringValue(inst.Fields["name"].Ref)
	return s, nil
}
