// Package amount converts user supplied numbers into the uint256 integers
// vault calls are encoded with.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// WadDecimals is the number of decimals of a WAD fixed-point value (1e18 = 1).
const WadDecimals = 18

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNegative      = errors.New("negative amount")
	ErrOverflow      = errors.New("amount exceeds uint256")
	ErrPrecision     = errors.New("too many decimals")

	wad = uint256.NewInt(1_000_000_000_000_000_000)
)

// Parse reads a base-10 or 0x-prefixed base-16 unsigned integer.
func Parse(s string) (*big.Int, error) {
	v, err := parseUint256(s)
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) *big.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseWad reads a decimal fraction into its WAD representation,
// e.g. "0.1" → 100000000000000000.
func ParseWad(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(frac) > WadDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrPrecision, s, WadDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	if strings.HasPrefix(whole, "0x") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	w, err := parseUint256(whole)
	if err != nil {
		return nil, err
	}
	result, overflow := new(uint256.Int).MulOverflow(w, wad)
	if overflow {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	if frac != "" {
		f, err := parseUint256(frac + strings.Repeat("0", WadDecimals-len(frac)))
		if err != nil {
			return nil, err
		}
		if _, overflow = result.AddOverflow(result, f); overflow {
			return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
	}
	return result.ToBig(), nil
}

func FromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func FromUint256(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

// ToUint256 reports an error for nil, negative or out of range values.
func ToUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidAmount)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, v)
	}
	return u, nil
}

func parseUint256(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	case strings.HasPrefix(s, "-"):
		return nil, fmt.Errorf("%w: %s", ErrNegative, s)
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		b, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		return ToUint256(b)
	}

	v, err := uint256.FromDecimal(s)
	if err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return nil, fmt.Errorf("%w: %s", ErrOverflow, s)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAmount, s, err)
	}
	return v, nil
}
