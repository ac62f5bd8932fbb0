package hal

import (
	"fmt"
	"strconv"
)

// DecodeKind tells what a decoder made of its input.
type DecodeKind int

const (
	// Decoded means State holds a valid device state.
	Decoded DecodeKind = iota
	// Ignored means the input is not meant for this driver. Not an error.
	Ignored
	// Malformed means the input was meant for this driver but could not be decoded.
	Malformed
)

func (k DecodeKind) String() string {
	switch k {
	case Decoded:
		return "decoded"
	case Ignored:
		return "ignored"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("DecodeKind(%d)", int(k))
	}
}

// DecodeResult is the outcome of decoding one signal or poll.
type DecodeResult[T any] struct {
	Kind  DecodeKind
	State T
	// Err is set when Kind is Malformed.
	Err error
}

func Ok[T any](state T) DecodeResult[T] {
	return DecodeResult[T]{Kind: Decoded, State: state}
}

func Ignore[T any]() DecodeResult[T] {
	return DecodeResult[T]{Kind: Ignored}
}

func Malform[T any](format string, a ...any) DecodeResult[T] {
	return DecodeResult[T]{Kind: Malformed, Err: fmt.Errorf(format, a...)}
}

// Atoi parses the leading decimal integer of s, skipping leading white space
// and accepting an optional sign. Anything it cannot parse yields 0.
// Hardware attributes and bus payloads are parsed this way so that trailing
// newlines or units do not turn a value into an error.
func Atoi(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\v' || s[i] == '\f') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0
	}
	return n
}
