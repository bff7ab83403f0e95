package loader

import (
	"bytes"
	"encoding/binary"
)

// buildMinimalClassNamed hand-assembles a minimal well-formed .class byte
// stream naming the given class, with java/lang/Object as its superclass
// and no methods or fields. Used to exercise PathLoader/RuntimeLoader
// without a javac-produced fixture.
func buildMinimalClassNamed(name string) []byte {
	var cp bytes.Buffer
	next := uint16(1)
	addUtf8 := func(s string) uint16 {
		binary.Write(&cp, binary.BigEndian, uint8(1))
		binary.Write(&cp, binary.BigEndian, uint16(len(s)))
		cp.WriteString(s)
		idx := next
		next++
		return idx
	}
	addClass := func(nameIdx uint16) uint16 {
		binary.Write(&cp, binary.BigEndian, uint8(7))
		binary.Write(&cp, binary.BigEndian, nameIdx)
		idx := next
		next++
		return idx
	}

	thisNameIdx := addUtf8(name)
	thisIdx := addClass(thisNameIdx)
	superNameIdx := addUtf8("java/lang/Object")
	superIdx := addClass(superNameIdx)

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(61))
	binary.Write(&out, binary.BigEndian, next)
	out.Write(cp.Bytes())
	binary.Write(&out, binary.BigEndian, uint16(0x0021)) // AccPublic|AccSuper
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // methods_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count

	return out.Bytes()
}
