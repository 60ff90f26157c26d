package metamorpho

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/lmittmann/w3"
)

//go:embed MetaMorpho.abi.json
var abiJSON []byte

// Schema is the immutable interface description calls are encoded against.
// It pairs the parsed JSON ABI with one w3 function per method.
type Schema struct {
	abi   abi.ABI
	funcs map[string]*w3.Func
	names []string
}

// NewSchema parses the embedded vault ABI. Every call returns a fresh Schema.
func NewSchema() (*Schema, error) {
	return ParseSchema(bytes.NewReader(abiJSON))
}

// MustNewSchema is like NewSchema but panics on error.
func MustNewSchema() *Schema {
	s, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchema builds a Schema from a JSON ABI. Only functions are retained.
func ParseSchema(r io.Reader) (*Schema, error) {
	parsed, err := abi.JSON(r)
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	s := &Schema{
		abi:   parsed,
		funcs: make(map[string]*w3.Func, len(parsed.Methods)),
		names: make([]string, 0, len(parsed.Methods)),
	}
	for name, method := range parsed.Methods {
		// overloads share RawName; the map key is go-ethereum's deduplicated name
		sig := method.RawName + "(" + renderArgs(method.Inputs) + ")"
		fn, err := w3.NewFunc(sig, renderArgs(method.Outputs))
		if err != nil {
			return nil, fmt.Errorf("build func %s: %w", name, err)
		}
		if !bytes.Equal(fn.Selector[:], method.ID) {
			return nil, fmt.Errorf("selector mismatch for %s: %x != %x", method.Sig, fn.Selector, method.ID)
		}
		s.funcs[name] = fn
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Operations returns the sorted operation names.
func (s *Schema) Operations() []string {
	return append([]string(nil), s.names...)
}

// Signature returns the canonical signature of op, e.g. "setFee(uint256)".
func (s *Schema) Signature(op string) (string, bool) {
	m, ok := s.abi.Methods[op]
	if !ok {
		return "", false
	}
	return m.Sig, true
}

// Selector returns the 4-byte function selector of op.
func (s *Schema) Selector(op string) ([SelectorLength]byte, bool) {
	fn, ok := s.funcs[op]
	if !ok {
		return [SelectorLength]byte{}, false
	}
	return fn.Selector, true
}

// Inputs returns the declared parameters of op.
func (s *Schema) Inputs(op string) (abi.Arguments, bool) {
	m, ok := s.abi.Methods[op]
	if !ok {
		return nil, false
	}
	return m.Inputs, true
}

// MethodBySelector resolves the method whose id prefixes data.
func (s *Schema) MethodBySelector(data []byte) (*abi.Method, error) {
	if len(data) < SelectorLength {
		return nil, ErrShortCalldata
	}
	m, err := s.abi.MethodById(data[:SelectorLength])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownSelector, data[:SelectorLength])
	}
	return m, nil
}

// renderArgs renders arguments as a named, comma separated type list that
// w3 can parse, including nested tuple components.
func renderArgs(args abi.Arguments) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = withName(renderType(arg.Type), arg.Name)
	}
	return strings.Join(parts, ", ")
}

func renderType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		parts := make([]string, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			parts[i] = withName(renderType(*elem), t.TupleRawNames[i])
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case abi.SliceTy:
		return renderType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return renderType(*t.Elem) + "[" + strconv.Itoa(t.Size) + "]"
	default:
		return t.String()
	}
}

func withName(typ, name string) string {
	if name == "" {
		return typ
	}
	return typ + " " + name
}
