package classfile

import "fmt"

// MalformedClassError reports that the decoder rejected the input bytes.
// It corresponds to a ClassFormatError at the Java level.
type MalformedClassError struct {
	Offset int64
	Reason string
}

func (e *MalformedClassError) Error() string {
	return fmt.Sprintf("malformed class at offset %d: %s", e.Offset, e.Reason)
}

func malformed(offset int64, format string, args ...interface{}) error {
	return &MalformedClassError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
