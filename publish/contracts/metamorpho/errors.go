package metamorpho

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownSelector  = errors.New("unknown selector")
	ErrShortCalldata    = errors.New("calldata shorter than selector")
	ErrNilArgument      = errors.New("nil argument")
	ErrNilInteger       = errors.New("nil integer")
	ErrIntegerOverflow  = errors.New("integer wider than 256 bits")
	ErrNegativeInteger  = errors.New("negative value for unsigned integer")
)

// EncodingError is returned when arguments or calldata do not structurally
// match the schema. Op is empty when the operation could not be resolved.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("metamorpho: %v", e.Err)
	}
	return fmt.Sprintf("metamorpho: %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
