package core

// numeric.go - a fixed-point decimal suitable for asset quantities. Values are
// represented as mantissa * 10^-scale, mirroring the bounded decimal used by
// the reference data model: the mantissa fits in 96 bits and the scale is
// capped at 28, which keeps arithmetic exact (no rounding) and comparable
// without floating point.

import (
	"fmt"
	"math/big"
)

const (
	// MaxScale bounds how many fractional digits a Numeric may carry.
	MaxScale = 28
)

// maxMantissa is 2^96 - 1, the largest value a mantissa may take.
var maxMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// Numeric is an exact decimal value: Mantissa * 10^-Scale. The zero value
// represents 0.
type Numeric struct {
	Mantissa *big.Int
	Scale    uint8
}

// NewNumeric constructs a Numeric from an integer mantissa and scale,
// rejecting values that would overflow the bounded representation.
func NewNumeric(mantissa *big.Int, scale uint8) (Numeric, error) {
	if scale > MaxScale {
		return Numeric{}, fmt.Errorf("numeric: scale %d exceeds max %d", scale, MaxScale)
	}
	abs := new(big.Int).Abs(mantissa)
	if abs.Cmp(maxMantissa) > 0 {
		return Numeric{}, fmt.Errorf("numeric: mantissa overflows 96 bits")
	}
	if mantissa.Sign() < 0 {
		return Numeric{}, fmt.Errorf("numeric: negative quantities are not representable")
	}
	return Numeric{Mantissa: new(big.Int).Set(mantissa), Scale: scale}, nil
}

// NumericZero returns the additive identity.
func NumericZero() Numeric {
	return Numeric{Mantissa: big.NewInt(0), Scale: 0}
}

// NumericFromUint64 builds a whole-number Numeric (scale 0).
func NumericFromUint64(v uint64) Numeric {
	return Numeric{Mantissa: new(big.Int).SetUint64(v), Scale: 0}
}

// IsZero reports whether the value is exactly zero, independent of scale.
func (n Numeric) IsZero() bool {
	return n.Mantissa == nil || n.Mantissa.Sign() == 0
}

// rescale returns both operands' mantissas expressed at the larger of the two
// scales, so they become directly comparable/addable.
func rescale(a, b Numeric) (*big.Int, *big.Int, uint8, error) {
	scale := a.Scale
	if b.Scale > scale {
		scale = b.Scale
	}
	am, err := scaleUp(a, scale)
	if err != nil {
		return nil, nil, 0, err
	}
	bm, err := scaleUp(b, scale)
	if err != nil {
		return nil, nil, 0, err
	}
	return am, bm, scale, nil
}

func scaleUp(n Numeric, to uint8) (*big.Int, error) {
	if to < n.Scale {
		return nil, fmt.Errorf("numeric: cannot scale down without loss")
	}
	diff := to - n.Scale
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(diff)), nil)
	m := n.Mantissa
	if m == nil {
		m = big.NewInt(0)
	}
	return new(big.Int).Mul(m, factor), nil
}

// Add returns a+b at the finer of the two scales, erroring on mantissa
// overflow beyond the 96-bit bound.
func (a Numeric) Add(b Numeric) (Numeric, error) {
	am, bm, scale, err := rescale(a, b)
	if err != nil {
		return Numeric{}, err
	}
	return NewNumeric(new(big.Int).Add(am, bm), scale)
}

// Sub returns a-b, erroring if the result would be negative (quantities are
// unsigned) or would overflow.
func (a Numeric) Sub(b Numeric) (Numeric, error) {
	am, bm, scale, err := rescale(a, b)
	if err != nil {
		return Numeric{}, err
	}
	if am.Cmp(bm) < 0 {
		return Numeric{}, fmt.Errorf("numeric: subtraction underflow")
	}
	return NewNumeric(new(big.Int).Sub(am, bm), scale)
}

// Cmp compares two Numeric values after rescaling to a common exponent.
func (a Numeric) Cmp(b Numeric) (int, error) {
	am, bm, _, err := rescale(a, b)
	if err != nil {
		return 0, err
	}
	return am.Cmp(bm), nil
}

// String renders the value in plain decimal notation.
func (n Numeric) String() string {
	if n.Mantissa == nil {
		return "0"
	}
	if n.Scale == 0 {
		return n.Mantissa.String()
	}
	s := new(big.Int).Abs(n.Mantissa).String()
	for len(s) <= int(n.Scale) {
		s = "0" + s
	}
	intPart := s[:len(s)-int(n.Scale)]
	fracPart := s[len(s)-int(n.Scale):]
	sign := ""
	if n.Mantissa.Sign() < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%s", sign, intPart, fracPart)
}

// MarshalJSON encodes the Numeric as its canonical decimal string so that
// canonical-JSON hashing (see codec.go) never observes big.Int internals.
func (n Numeric) MarshalJSON() ([]byte, error) {
	return []byte(`"` + n.String() + `"`), nil
}
