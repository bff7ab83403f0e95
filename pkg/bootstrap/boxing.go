package bootstrap

import (
	"strconv"

	"github.com/ymtdzzz/jjvm/pkg/heap"
	"github.com/ymtdzzz/jjvm/pkg/vm"
)

// registerBoxingNatives wires Integer/Long/Float/Double/Boolean/Character/
// Byte/Short: <init>, valueOf, the four *Value accessors, toString,
// equals, hashCode, compare.
//
// Each box stores its primitive payload in a single "value" field using
// whichever heap.Value kind the wrapped primitive naturally has (Int for
// byte/short/char/boolean/int, Long, Float, Double) — there's no need for
// a distinct Go type per wrapper, since heap.Value already carries the
// right kind.
func registerBoxingNatives(v *vm.VM) {
	for _, w := range boxedTypes {
		registerBoxedType(v, w)
	}
}

type boxedType struct {
	class     string
	primDesc  string // the single-char primitive descriptor this box wraps
	parseText func(s string) (vm.Value, error)
	format    func(vm.Value) string
	compare   func(a, b vm.Value) int32
}

var boxedTypes = []boxedType{
	{
		class: "java/lang/Integer", primDesc: "I",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseInt(s, 10, 32)
			return vm.IntValue(int32(n)), err
		},
		format:  func(v vm.Value) string { return strconv.FormatInt(int64(v.Int), 10) },
		compare: func(a, b vm.Value) int32 { return int32(sign(int64(a.Int) - int64(b.Int))) },
	},
	{
		class: "java/lang/Long", primDesc: "J",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			return vm.LongValue(n), err
		},
		format:  func(v vm.Value) string { return strconv.FormatInt(v.Long, 10) },
		compare: func(a, b vm.Value) int32 { return int32(sign(a.Long - b.Long)) },
	},
	{
		class: "java/lang/Float", primDesc: "F",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseFloat(s, 32)
			return vm.FloatValue(float32(n)), err
		},
		format: func(v vm.Value) string { return strconv.FormatFloat(float64(v.Float), 'g', -1, 32) },
		compare: func(a, b vm.Value) int32 {
			switch {
			case a.Float < b.Float:
				return -1
			case a.Float > b.Float:
				return 1
			default:
				return 0
			}
		},
	},
	{
		class: "java/lang/Double", primDesc: "D",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseFloat(s, 64)
			return vm.DoubleValue(n), err
		},
		format: func(v vm.Value) string { return strconv.FormatFloat(v.Double, 'g', -1, 64) },
		compare: func(a, b vm.Value) int32 {
			switch {
			case a.Double < b.Double:
				return -1
			case a.Double > b.Double:
				return 1
			default:
				return 0
			}
		},
	},
	{
		class: "java/lang/Boolean", primDesc: "Z",
		parseText: func(s string) (vm.Value, error) {
			if s == "true" {
				return vm.IntValue(1), nil
			}
			return vm.IntValue(0), nil
		},
		format:  func(v vm.Value) string { return strconv.FormatBool(v.Int != 0) },
		compare: func(a, b vm.Value) int32 { return int32(sign(int64(a.Int) - int64(b.Int))) },
	},
	{
		class: "java/lang/Character", primDesc: "C",
		parseText: func(s string) (vm.Value, error) {
			r := []rune(s)
			if len(r) == 0 {
				return vm.IntValue(0), nil
			}
			return vm.IntValue(int32(r[0])), nil
		},
		format:  func(v vm.Value) string { return string(rune(v.Int)) },
		compare: func(a, b vm.Value) int32 { return int32(sign(int64(a.Int) - int64(b.Int))) },
	},
	{
		class: "java/lang/Byte", primDesc: "B",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseInt(s, 10, 8)
			return vm.IntValue(int32(n)), err
		},
		format:  func(v vm.Value) string { return strconv.FormatInt(int64(v.Int), 10) },
		compare: func(a, b vm.Value) int32 { return int32(sign(int64(a.Int) - int64(b.Int))) },
	},
	{
		class: "java/lang/Short", primDesc: "S",
		parseText: func(s string) (vm.Value, error) {
			n, err := strconv.ParseInt(s, 10, 16)
			return vm.IntValue(int32(n)), err
		},
		format:  func(v vm.Value) string { return strconv.FormatInt(int64(v.Int), 10) },
		compare: func(a, b vm.Value) int32 { return int32(sign(int64(a.Int) - int64(b.Int))) },
	},
}

func sign(n int64) int64 {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func registerBoxedType(v *vm.VM, w boxedType) {
	class := w.class

	v.RegisterNative(class+".<init>:("+w.primDesc+")V", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		if inst.Fields == nil {
			inst.Fields = map[string]vm.Value{}
		}
		inst.Fields["value"] = args[1]
		return vm.Value{}, nil
	})
	v.RegisterNative(class+".valueOf:("+w.primDesc+")L"+class+";", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		ref := v.Heap.AllocInstance(class, map[string]vm.Value{"value": args[0]})
		return vm.RefValue(ref), nil
	})
	v.RegisterNative(class+".valueOf:(Ljava/lang/String;)L"+class+";", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		s, ok := v.Heap.StringValue(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		val, err := w.parseText(s)
		if err != nil {
			return vm.Value{}, throwNative(v, "java/lang/NumberFormatException", `For input string: "`+s+`"`)
		}
		ref := v.Heap.AllocInstance(class, map[string]vm.Value{"value": val})
		return vm.RefValue(ref), nil
	})

	unboxers := map[string]func(vm.Value) vm.Value{
		"intValue":    func(v vm.Value) vm.Value { return vm.IntValue(int32(primAsInt64(v))) },
		"longValue":   func(v vm.Value) vm.Value { return vm.LongValue(primAsInt64(v)) },
		"floatValue":  func(v vm.Value) vm.Value { return vm.FloatValue(float32(primAsFloat64(v))) },
		"doubleValue": func(v vm.Value) vm.Value { return vm.DoubleValue(primAsFloat64(v)) },
	}
	for name, convert := range unboxers {
		convert := convert
		v.RegisterNative(class+"."+name, func(v *vm.VM, args []vm.Value) (vm.Value, error) {
			inst, ok := v.Heap.Deref(args[0].Ref)
			if !ok {
				return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
			}
			return convert(inst.Fields["value"]), nil
		})
	}

	v.RegisterNative(class+".toString", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return vm.RefValue(v.Heap.NewString(w.format(inst.Fields["value"]))), nil
	})
	v.RegisterNative(class+".equals", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		self, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		other, ok := v.Heap.Deref(args[1].Ref)
		if !ok || other.ClassName != class {
			return vm.IntValue(0), nil
		}
		if w.compare(self.Fields["value"], other.Fields["value"]) == 0 {
			return vm.IntValue(1), nil
		}
		return vm.IntValue(0), nil
	})
	v.RegisterNative(class+".hashCode", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		inst, ok := v.Heap.Deref(args[0].Ref)
		if !ok {
			return vm.Value{}, throwNative(v, "java/lang/NullPointerException", "")
		}
		return vm.IntValue(int32(primAsInt64(inst.Fields["value"]))), nil
	})
	v.RegisterNative(class+".compare", func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.IntValue(w.compare(args[0], args[1])), nil
	})
}

func primAsInt64(v vm.Value) int64 {
	switch v.Kind {
	case heap.KindLong:
		return v.Long
	case heap.KindFloat:
		return int64(v.Float)
	case heap.KindDouble:
		return int64(v.Double)
	default:
		return int64(v.Int)
	}
}

func primAsFloat64(v vm.Value) float64 {
	switch v.Kind {
	case heap.KindLong:
		return float64(v.Long)
	case heap.KindFloat:
		return float64(v.Float)
	case heap.KindDouble:
		return v.Double
	default:
		return float64(v.Int)
	}
}
