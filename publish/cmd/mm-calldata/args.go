package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Sergjinio/metamorpho/publish"
	"github.com/Sergjinio/metamorpho/publish/amount"
)

// go-ethereum maps only 8, 16, 32 and 64 bit integers to native Go types.
var bigIntType = reflect.TypeOf((*big.Int)(nil))

// parseArg converts a command line string into the Go value the ABI
// encoder expects for t.
func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return parseAddress(strings.TrimSpace(s))

	case abi.BoolTy:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid bool: %s", s)
		}
		return b, nil

	case abi.UintTy:
		v, err := amount.Parse(s)
		if err != nil {
			return nil, err
		}
		if v.BitLen() > t.Size {
			return nil, fmt.Errorf("%s does not fit %s", v, t)
		}
		if t.GetType() == bigIntType {
			return v, nil
		}
		return reflect.ValueOf(v.Uint64()).Convert(t.GetType()).Interface(), nil

	case abi.IntTy:
		v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer: %s", s)
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s does not fit %s", v, t)
		}
		if t.GetType() == bigIntType {
			return v, nil
		}
		return reflect.ValueOf(v.Int64()).Convert(t.GetType()).Interface(), nil

	case abi.FixedBytesTy:
		b, err := publish.DecodeHex(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("%s wants %d bytes, got %d", t, t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.BytesTy:
		return publish.DecodeHex(s)

	case abi.StringTy:
		return s, nil

	case abi.TupleTy:
		return parseJSON(t, s)

	case abi.SliceTy, abi.ArrayTy:
		if t.Elem.T == abi.TupleTy {
			return parseJSON(t, s)
		}
		parts, err := splitList(s)
		if err != nil {
			return nil, err
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			if len(parts) != t.Size {
				return nil, fmt.Errorf("%s wants %d elements, got %d", t, t.Size, len(parts))
			}
			out = reflect.New(t.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(t.GetType(), len(parts), len(parts))
		}
		for i, part := range parts {
			v, err := parseArg(*t.Elem, part)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported argument type %s", t)
}

func parseJSON(t abi.Type, s string) (any, error) {
	ptr := reflect.New(t.GetType())
	if err := json.Unmarshal([]byte(s), ptr.Interface()); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", t, err)
	}
	return ptr.Elem().Interface(), nil
}

// splitList accepts "a,b,c" or a JSON array.
func splitList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return splitCSV(s), nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("invalid list: %w", err)
	}
	out := make([]string, len(raw))
	for i, r := range raw {
		var str string
		if err := json.Unmarshal(r, &str); err == nil {
			out[i] = str
			continue
		}
		out[i] = string(r)
	}
	return out, nil
}

func parseAddress(v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid address: %s", v)
	}
	return common.HexToAddress(v), nil
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// displayValue turns a decoded argument into something that reads well as
// JSON: integers as decimal strings, byte arrays as hex, tuples as objects.
func displayValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case []byte:
		return hexutil.Bytes(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = displayValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Type().Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" {
				name = f.Name
			}
			out[name] = displayValue(rv.Field(i).Interface())
		}
		return out
	}
	return v
}
