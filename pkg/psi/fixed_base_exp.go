package psi

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-psi-crypto/internal/crypto/bignum"
)

// twoKAryExp selects the windowed exponentiation strategy. Tests flip it
// to cross-check the two implementations against each other.
var twoKAryExp = true

// expWindowBits is the window width w of the 2^k-ary strategy. Each window
// position caches 2^w values, so w trades memory for fewer online
// multiplications.
const expWindowBits = 5

// FixedBaseExp computes base^exp mod modulus for one fixed (base, modulus)
// pair and many exponents, amortizing precomputation done at construction
// over the queries. Which strategy backs a given instance is not
// observable through the results.
//
// Not safe for concurrent use; the scratch context is mutated per call.
type FixedBaseExp struct {
	impl fixedBaseExpImpl
}

type fixedBaseExpImpl interface {
	modExp(exp *big.Int) *big.Int
}

// GetFixedBaseExp builds an exponentiator for the given base and modulus.
// The base is reduced modulo the modulus; both are copied and immutable
// afterwards.
func GetFixedBaseExp(base, modulus *big.Int) (*FixedBaseExp, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ErrInvalidArgument)
	}
	b := new(big.Int).Mod(base, modulus)
	m := new(big.Int).Set(modulus)
	if twoKAryExp {
		return &FixedBaseExp{impl: newTwoKAryFixedBaseExp(b, m)}, nil
	}
	return &FixedBaseExp{impl: &simpleBaseExp{base: b, modulus: m}}, nil
}

// ModExp returns base^exp mod modulus. Negative exponents are rejected;
// the precomputation assumes a sign-free exponent space.
func (f *FixedBaseExp) ModExp(exp *big.Int) (*big.Int, error) {
	if exp == nil || exp.Sign() < 0 {
		return nil, fmt.Errorf("%w: exponent must be non-negative", ErrInvalidArgument)
	}
	return f.impl.modExp(exp), nil
}

// simpleBaseExp is the no-precomputation baseline, a correctness reference
// for the windowed strategy.
type simpleBaseExp struct {
	base    *big.Int
	modulus *big.Int
}

func (s *simpleBaseExp) modExp(exp *big.Int) *big.Int {
	return new(big.Int).Exp(s.base, exp, s.modulus)
}

// twoKAryFixedBaseExp partitions exponents into expWindowBits-wide windows.
// table[i][d] caches base^(d * 2^(i*w)) mod modulus for every window
// position i covering the modulus bit length and every digit d, so a query
// is one modular multiplication per nonzero window digit instead of one
// squaring per exponent bit.
type twoKAryFixedBaseExp struct {
	modulus *big.Int
	ctx     *bignum.Context
	table   [][]*big.Int
	// carryBase is base^(2^(len(table)*w)), for exponents wider than the
	// precomputed table.
	carryBase *big.Int
}

func newTwoKAryFixedBaseExp(base, modulus *big.Int) *twoKAryFixedBaseExp {
	windows := (modulus.BitLen() + expWindowBits - 1) / expWindowBits
	if windows == 0 {
		windows = 1
	}
	table := make([][]*big.Int, windows)
	b := new(big.Int).Set(base)
	for i := range table {
		row := make([]*big.Int, 1<<expWindowBits)
		row[0] = big.NewInt(1)
		for d := 1; d < len(row); d++ {
			row[d] = new(big.Int).Mul(row[d-1], b)
			row[d].Mod(row[d], modulus)
		}
		table[i] = row
		// b^(2^w) = row[2^w - 1] * b, the base for the next position.
		b = new(big.Int).Mul(row[len(row)-1], b)
		b.Mod(b, modulus)
	}
	return &twoKAryFixedBaseExp{
		modulus:   modulus,
		ctx:       bignum.NewContext(),
		table:     table,
		carryBase: b,
	}
}

func (t *twoKAryFixedBaseExp) modExp(exp *big.Int) *big.Int {
	result := big.NewInt(1)
	for i := range t.table {
		if d := windowDigit(exp, i); d != 0 {
			result.Mul(result, t.table[i][d])
			result.Mod(result, t.modulus)
		}
	}
	covered := len(t.table) * expWindowBits
	if exp.BitLen() > covered {
		high := t.ctx.Int()
		defer t.ctx.Release(high)
		high.Rsh(exp, uint(covered))
		result.Mul(result, new(big.Int).Exp(t.carryBase, high, t.modulus))
	}
	return result.Mod(result, t.modulus)
}

// windowDigit extracts window i of the exponent's bit representation.
func windowDigit(exp *big.Int, i int) uint {
	var d uint
	for j := 0; j < expWindowBits; j++ {
		d |= exp.Bit(i*expWindowBits+j) << j
	}
	return d
}
