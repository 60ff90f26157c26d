package metamorpho

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type (
	DecodedArg struct {
		Name  string
		Type  string
		Value any
	}

	// DecodedCall is a call resolved against a Schema.
	DecodedCall struct {
		Name      string
		Signature string
		Args      []DecodedArg
	}
)

// Decode resolves the operation encoded in data and unpacks its arguments.
func (e *Encoder) Decode(data []byte) (*DecodedCall, error) {
	method, err := e.schema.MethodBySelector(data)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	values, err := method.Inputs.Unpack(data[SelectorLength:])
	if err != nil {
		return nil, &EncodingError{Op: method.Name, Err: err}
	}

	call := &DecodedCall{
		Name:      method.Name,
		Signature: method.Sig,
		Args:      make([]DecodedArg, len(values)),
	}
	for i, v := range values {
		call.Args[i] = DecodedArg{
			Name:  method.Inputs[i].Name,
			Type:  method.Inputs[i].Type.String(),
			Value: v,
		}
	}
	return call, nil
}

// Scan copies the decoded arguments, in order, into the pointers in dst.
// Fewer destinations than arguments is allowed; extra ones are an error.
func (c *DecodedCall) Scan(dst ...any) (err error) {
	if len(dst) > len(c.Args) {
		return &EncodingError{Op: c.Name, Err: fmt.Errorf("scan: %d destinations for %d arguments", len(dst), len(c.Args))}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &EncodingError{Op: c.Name, Err: fmt.Errorf("scan: %v", r)}
		}
	}()
	for i, d := range dst {
		if d == nil {
			continue
		}
		// ConvertType returns instead of assigning when the types convert directly.
		if bi, ok := d.(*big.Int); ok {
			v, ok := c.Args[i].Value.(*big.Int)
			if !ok {
				return &EncodingError{Op: c.Name, Err: fmt.Errorf("scan: argument %d is %T, not *big.Int", i, c.Args[i].Value)}
			}
			bi.Set(v)
			continue
		}
		abi.ConvertType(c.Args[i].Value, d)
	}
	return nil
}
