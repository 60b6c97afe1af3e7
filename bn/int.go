// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bn

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

var big0 = new(big.Int)

// Int wraps big.Int.
// It can be used as a value without state sharing. Every arithmetic method
// returns a fresh value and leaves both operands untouched.
type Int struct {
	value *big.Int
}

// FromBig create a bn.Int object from big.Int.
func FromBig(bi *big.Int) Int {
	i := Int{}
	i.SetBig(bi)
	return i
}

// FromUint64 create a bn.Int from uint64.
func FromUint64(v uint64) Int {
	return FromBig(new(big.Int).SetUint64(v))
}

// FromInt64 create a bn.Int from int64.
func FromInt64(v int64) Int {
	return FromBig(big.NewInt(v))
}

// Parse parses a base 10 string.
func Parse(s string) (Int, error) {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, fmt.Errorf("bn: invalid integer %q", s)
	}
	return FromBig(bi), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Int {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

// ToBig convert to big.Int.
func (i Int) ToBig() *big.Int {
	if i.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.value)
}

// SetBig set big.Int.
func (i *Int) SetBig(bi *big.Int) {
	if bi == nil || bi.Sign() == 0 {
		i.value = nil
		return
	}
	i.value = new(big.Int).Set(bi)
}

func (i Int) ref() *big.Int {
	if i.value == nil {
		return big0
	}
	return i.value
}

func wrap(bi *big.Int) Int {
	if bi.Sign() == 0 {
		return Int{}
	}
	return Int{bi}
}

// IsZero returns true if bn.Int presents a zero value.
func (i Int) IsZero() bool {
	return i.value == nil || i.value.Sign() == 0
}

// Sign returns -1, 0 or +1.
func (i Int) Sign() int {
	return i.ref().Sign()
}

// Add returns i + other.
func (i Int) Add(other Int) Int {
	return wrap(new(big.Int).Add(i.ref(), other.ref()))
}

// Sub returns i - other.
func (i Int) Sub(other Int) Int {
	return wrap(new(big.Int).Sub(i.ref(), other.ref()))
}

// Mul returns i * other.
func (i Int) Mul(other Int) Int {
	return wrap(new(big.Int).Mul(i.ref(), other.ref()))
}

// MulUint64 returns i * v.
func (i Int) MulUint64(v uint64) Int {
	return wrap(new(big.Int).Mul(i.ref(), new(big.Int).SetUint64(v)))
}

// DivUint64 returns i / v, truncated toward zero.
// It panics if v is zero.
func (i Int) DivUint64(v uint64) Int {
	return wrap(new(big.Int).Quo(i.ref(), new(big.Int).SetUint64(v)))
}

// ModUint64 returns the remainder of i / v with the sign of i.
// It panics if v is zero.
func (i Int) ModUint64(v uint64) Int {
	return wrap(new(big.Int).Rem(i.ref(), new(big.Int).SetUint64(v)))
}

// Neg returns -i.
func (i Int) Neg() Int {
	return wrap(new(big.Int).Neg(i.ref()))
}

// Min returns the smaller of i and other.
func (i Int) Min(other Int) Int {
	if i.Cmp(other) <= 0 {
		return i
	}
	return other
}

// Cmp compares with another bn.Int.
// Returns:
//
//	-1 if i <  other
//	 0 if i == other
//	+1 if i >  other
func (i Int) Cmp(other Int) int {
	if i.value == nil {
		if other.value == nil {
			return 0
		}
		return -other.value.Sign()
	}

	if other.value == nil {
		return i.value.Sign()
	}
	return i.value.Cmp(other.value)
}

// CmpBig compares with big.Int value.
// Returns:
//
//	-1 if i <  bi
//	 0 if i == bi
//	+1 if i >  bi
func (i Int) CmpBig(bi *big.Int) int {
	if i.value == nil {
		return -bi.Sign()
	}
	return i.value.Cmp(bi)
}

// Uint64 returns the low 64 bits of i. The result is undefined if i does not fit.
func (i Int) Uint64() uint64 {
	return i.ref().Uint64()
}

// EncodeRLP implements rlp.Encoder.
// Negative values are not encodable.
func (i Int) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, i.ref())
}

// DecodeRLP implements rlp.Decoder.
func (i *Int) DecodeRLP(s *rlp.Stream) error {
	var bi big.Int
	if err := s.Decode(&bi); err != nil {
		return err
	}
	i.SetBig(&bi)
	return nil
}

// String implements Stringer.
func (i Int) String() string {
	return i.ref().String()
}

// Format see big.Int.Format.
func (i Int) Format(s fmt.State, ch rune) {
	i.ref().Format(s, ch)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (i Int) MarshalText() (text []byte, err error) {
	return i.ref().MarshalText()
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (i *Int) UnmarshalText(text []byte) error {
	bi := new(big.Int)
	if err := bi.UnmarshalText(text); err != nil {
		return err
	}
	i.SetBig(bi)
	return nil
}

// MarshalJSON encodes the value as a decimal string, keeping precision for
// JSON consumers limited to float64.
func (i Int) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal numbers.
func (i *Int) UnmarshalJSON(text []byte) error {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	bi := new(big.Int)
	if err := bi.UnmarshalJSON(text); err != nil {
		return err
	}
	i.SetBig(bi)
	return nil
}
