package metamorpho

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Encoder encodes vault calls against the Schema it was built with. It holds
// no mutable state and is safe for concurrent use.
type Encoder struct {
	schema *Schema
}

func NewEncoder(schema *Schema) *Encoder {
	return &Encoder{schema: schema}
}

func (e *Encoder) Schema() *Schema { return e.schema }

// Encode packs args for op. Arguments must match the declared parameter types
// structurally; their values are not otherwise validated.
func (e *Encoder) Encode(op string, args ...any) (call Call, err error) {
	fn, ok := e.schema.funcs[op]
	if !ok {
		return nil, &EncodingError{Op: op, Err: ErrUnknownOperation}
	}
	inputs := e.schema.abi.Methods[op].Inputs
	for i, arg := range args {
		// surplus arguments are left to the packer's count check
		if i >= len(inputs) {
			break
		}
		name := inputs[i].Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		if err := checkArg(name, inputs[i].Type, reflect.ValueOf(arg)); err != nil {
			return nil, &EncodingError{Op: op, Err: err}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			call, err = nil, &EncodingError{Op: op, Err: fmt.Errorf("%v", r)}
		}
	}()
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return nil, &EncodingError{Op: op, Err: err}
	}
	return Call(data), nil
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// checkArg rejects values the declared type's wire format cannot carry.
func checkArg(path string, t abi.Type, v reflect.Value) error {
	if !v.IsValid() {
		return fmt.Errorf("%s: %w", path, ErrNilArgument)
	}
	if v.Type() == bigIntType {
		if v.IsNil() {
			return fmt.Errorf("%s: %w", path, ErrNilInteger)
		}
		n := v.Interface().(*big.Int)
		if n.BitLen() > 256 {
			return fmt.Errorf("%s: %w", path, ErrIntegerOverflow)
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return fmt.Errorf("%s: %w", path, ErrNegativeInteger)
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return fmt.Errorf("%s: %w", path, ErrNilArgument)
		}
		return checkArg(path, t, v.Elem())
	case reflect.Struct:
		if t.T != abi.TupleTy {
			return nil
		}
		for i, elem := range t.TupleElems {
			field, ok := tupleField(v, t.TupleRawNames[i])
			if !ok {
				continue
			}
			if err := checkArg(path+"."+t.TupleRawNames[i], *elem, field); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 || t.Elem == nil {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkArg(fmt.Sprintf("%s[%d]", path, i), *t.Elem, v.Index(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// tupleField finds the struct field the packer binds to a tuple component:
// an abi tag naming it, else the camel-cased component name.
func tupleField(v reflect.Value, rawName string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() && t.Field(i).Tag.Get("abi") == rawName {
			return v.Field(i), true
		}
	}
	if f, ok := t.FieldByName(abi.ToCamelCase(rawName)); ok && f.IsExported() {
		return v.FieldByIndex(f.Index), true
	}
	return reflect.Value{}, false
}

/* CONFIGURATION */

func (e *Encoder) SetCurator(newCurator common.Address) (Call, error) {
	return e.Encode("setCurator", newCurator)
}

// SetIsAllocator enables or disables allocator.
func (e *Encoder) SetIsAllocator(allocator common.Address, isAllocator bool) (Call, error) {
	return e.Encode("setIsAllocator", allocator, isAllocator)
}

func (e *Encoder) SetFeeRecipient(feeRecipient common.Address) (Call, error) {
	return e.Encode("setFeeRecipient", feeRecipient)
}

func (e *Encoder) SetSkimRecipient(skimRecipient common.Address) (Call, error) {
	return e.Encode("setSkimRecipient", skimRecipient)
}

// SetFee sets the performance fee, expressed in WAD (1e18 = 100%).
func (e *Encoder) SetFee(fee *big.Int) (Call, error) {
	return e.Encode("setFee", fee)
}

/* TIMELOCK */

// SubmitTimelock submits a new timelock, in seconds.
func (e *Encoder) SubmitTimelock(timelock *big.Int) (Call, error) {
	return e.Encode("submitTimelock", timelock)
}

func (e *Encoder) AcceptTimelock() (Call, error) {
	return e.Encode("acceptTimelock")
}

func (e *Encoder) RevokePendingTimelock() (Call, error) {
	return e.Encode("revokePendingTimelock")
}

/* SUPPLY CAP */

func (e *Encoder) SubmitCap(marketParams MarketParams, supplyCap *big.Int) (Call, error) {
	return e.Encode("submitCap", marketParams, supplyCap)
}

func (e *Encoder) AcceptCap(marketParams MarketParams) (Call, error) {
	return e.Encode("acceptCap", marketParams)
}

func (e *Encoder) RevokePendingCap(id MarketID) (Call, error) {
	return e.Encode("revokePendingCap", [32]byte(id))
}

/* FORCED MARKET REMOVAL */

func (e *Encoder) SubmitMarketRemoval(marketParams MarketParams) (Call, error) {
	return e.Encode("submitMarketRemoval", marketParams)
}

func (e *Encoder) RevokePendingMarketRemoval(id MarketID) (Call, error) {
	return e.Encode("revokePendingMarketRemoval", [32]byte(id))
}

/* GUARDIAN */

func (e *Encoder) SubmitGuardian(guardian common.Address) (Call, error) {
	return e.Encode("submitGuardian", guardian)
}

func (e *Encoder) AcceptGuardian() (Call, error) {
	return e.Encode("acceptGuardian")
}

func (e *Encoder) RevokePendingGuardian() (Call, error) {
	return e.Encode("revokePendingGuardian")
}

/* MANAGEMENT */

// Skim transfers the vault's balance of token to the skim recipient.
func (e *Encoder) Skim(token common.Address) (Call, error) {
	return e.Encode("skim", token)
}

func (e *Encoder) SetSupplyQueue(supplyQueue []MarketID) (Call, error) {
	return e.Encode("setSupplyQueue", toBytes32Slice(supplyQueue))
}

// UpdateWithdrawQueue takes, in the new order, the index of each market in
// the previous withdraw queue. An empty list is valid.
func (e *Encoder) UpdateWithdrawQueue(indexes []*big.Int) (Call, error) {
	if indexes == nil {
		indexes = []*big.Int{}
	}
	return e.Encode("updateWithdrawQueue", indexes)
}

func (e *Encoder) Reallocate(allocations []MarketAllocation) (Call, error) {
	if allocations == nil {
		allocations = []MarketAllocation{}
	}
	return e.Encode("reallocate", allocations)
}

// Multicall batches calls into a single vault call.
func (e *Encoder) Multicall(calls ...Call) (Call, error) {
	data := make([][]byte, len(calls))
	for i, c := range calls {
		data[i] = c
	}
	return e.Encode("multicall", data)
}

/* ERC4626 */

func (e *Encoder) Mint(shares *big.Int, receiver common.Address) (Call, error) {
	return e.Encode("mint", shares, receiver)
}

func (e *Encoder) Deposit(assets *big.Int, receiver common.Address) (Call, error) {
	return e.Encode("deposit", assets, receiver)
}

// Withdraw withdraws assets from owner's shares to receiver.
func (e *Encoder) Withdraw(assets *big.Int, receiver, owner common.Address) (Call, error) {
	return e.Encode("withdraw", assets, receiver, owner)
}

// Redeem redeems owner's shares, sending the assets to receiver.
func (e *Encoder) Redeem(shares *big.Int, receiver, owner common.Address) (Call, error) {
	return e.Encode("redeem", shares, receiver, owner)
}
