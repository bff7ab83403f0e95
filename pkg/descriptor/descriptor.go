// Package descriptor parses and formats JVM field and method descriptors.
//
// Grammar:
//
//	FieldType  = 'B'|'C'|'D'|'F'|'I'|'J'|'S'|'Z' | 'L' ClassName ';' | '[' FieldType
//	MethodDesc = '(' FieldType* ')' ( FieldType | 'V' )
package descriptor

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a TypeSignature.
type Kind int

const (
	KindVoid Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindClass
	KindArray
)

// TypeSignature is a decoded field-type descriptor.
type TypeSignature struct {
	Kind    Kind
	Class   string         // set when Kind == KindClass: the internal class name (e.g. "java/lang/String")
	Element *TypeSignature // set when Kind == KindArray: the element type
}

// MethodSignature is a decoded method descriptor.
type MethodSignature struct {
	Parameters []TypeSignature
	Return     TypeSignature
}

var primitiveKinds = map[byte]Kind{
	'B': KindByte,
	'C': KindChar,
	'D': KindDouble,
	'F': KindFloat,
	'I': KindInt,
	'J': KindLong,
	'S': KindShort,
	'Z': KindBoolean,
}

// BadDescriptor reports that a descriptor string deviates from the JVM grammar.
type BadDescriptor struct {
	Descriptor string
	Reason     string
}

func (e *BadDescriptor) Error() string {
	return fmt.Sprintf("bad descriptor %q: %s", e.Descriptor, e.Reason)
}

// ParseType parses a single field-type descriptor, e.g. "I" or "[Ljava/lang/String;".
func ParseType(s string) (TypeSignature, error) {
	t, rest, err := parseType(s)
	if err != nil {
		return TypeSignature{}, err
	}
	if rest != "" {
		return TypeSignature{}, &BadDescriptor{Descriptor: s, Reason: "trailing characters after type"}
	}
	return t, nil
}

// parseType parses one FieldType from the front of s and returns the unconsumed remainder.
func parseType(s string) (TypeSignature, string, error) {
	if s == "" {
		return TypeSignature{}, "", &BadDescriptor{Descriptor: s, Reason: "empty descriptor"}
	}

	switch s[0] {
	case 'V':
		return TypeSignature{Kind: KindVoid}, s[1:], nil
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return TypeSignature{Kind: primitiveKinds[s[0]]}, s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return TypeSignature{}, "", &BadDescriptor{Descriptor: s, Reason: "unterminated class name"}
		}
		return TypeSignature{Kind: KindClass, Class: s[1:end]}, s[end+1:], nil
	case '[':
		elem, rest, err := parseType(s[1:])
		if err != nil {
			return TypeSignature{}, "", err
		}
		return TypeSignature{Kind: KindArray, Element: &elem}, rest, nil
	default:
		return TypeSignature{}, "", &BadDescriptor{Descriptor: s, Reason: fmt.Sprintf("unexpected character %q", s[0])}
	}
}

// ParseMethod parses a full method descriptor, e.g. "(ID)V".
func ParseMethod(s string) (MethodSignature, error) {
	if len(s) == 0 || s[0] != '(' {
		return MethodSignature{}, &BadDescriptor{Descriptor: s, Reason: "method descriptor must start with '('"}
	}
	rest := s[1:]
	var params []TypeSignature
	for {
		if rest == "" {
			return MethodSignature{}, &BadDescriptor{Descriptor: s, Reason: "unterminated parameter list"}
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		t, next, err := parseType(rest)
		if err != nil {
			return MethodSignature{}, err
		}
		if t.Kind == KindVoid {
			return MethodSignature{}, &BadDescriptor{Descriptor: s, Reason: "'V' is not valid as a parameter type"}
		}
		params = append(params, t)
		rest = next
	}

	ret, rest, err := parseType(rest)
	if err != nil {
		return MethodSignature{}, err
	}
	if rest != "" {
		return MethodSignature{}, &BadDescriptor{Descriptor: s, Reason: "trailing characters after return type"}
	}
	return MethodSignature{Parameters: params, Return: ret}, nil
}

// Format renders a TypeSignature back into its descriptor string.
// parse(format(t)) == t for every TypeSignature.
func (t TypeSignature) Format() string {
	switch t.Kind {
	case KindVoid:
		return "V"
	case KindBoolean:
		return "Z"
	case KindByte:
		return "B"
	case KindChar:
		return "C"
	case KindShort:
		return "S"
	case KindInt:
		return "I"
	case KindLong:
		return "J"
	case KindFloat:
		return "F"
	case KindDouble:
		return "D"
	case KindClass:
		return "L" + t.Class + ";"
	case KindArray:
		return "[" + t.Element.Format()
	default:
		return "?"
	}
}

func (t TypeSignature) String() string { return t.Format() }

// Format renders a MethodSignature back into its descriptor string.
func (m MethodSignature) Format() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Parameters {
		b.WriteString(p.Format())
	}
	b.WriteByte(')')
	b.WriteString(m.Return.Format())
	return b.String()
}

func (m MethodSignature) String() string { return m.Format() }

// IsCategory2 reports whether values of this type occupy two stack/local slots.
func (t TypeSignature) IsCategory2() bool {
	return t.Kind == KindLong || t.Kind == KindDouble
}

// ParamSlotCount returns the number of local-variable/operand-stack slots
// occupied by this method's parameters, counting category-2 types as 2.
func (m MethodSignature) ParamSlotCount() int {
	count := 0
	for _, p := range m.Parameters {
		if p.IsCategory2() {
			count += 2
		} else {
			count++
		}
	}
	return count
}
