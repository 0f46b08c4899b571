package bignum

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Context is a scratch space for big.Int temporaries, reused across calls
// to avoid repeated allocation in hot arithmetic paths. Each cipher or
// exponentiator instance owns exactly one Context; it must not be shared
// between goroutines.
type Context struct {
	free []*big.Int
}

// NewContext creates an empty scratch context.
func NewContext() *Context {
	return &Context{}
}

// Int returns a zeroed temporary from the free list, allocating one if the
// list is empty. The caller returns it with Release when done.
func (c *Context) Int() *big.Int {
	n := len(c.free)
	if n == 0 {
		return new(big.Int)
	}
	x := c.free[n-1]
	c.free = c.free[:n-1]
	return x.SetInt64(0)
}

// Release puts a temporary back on the free list for reuse.
func (c *Context) Release(x *big.Int) {
	c.free = append(c.free, x)
}

// ToFixedBytes encodes v as a big-endian byte string of exactly length
// bytes, padding with leading zeros. Returns an error if v is negative or
// does not fit.
func ToFixedBytes(v *big.Int, length int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, errors.New("bignum: cannot encode negative value")
	}
	if (v.BitLen()+7)/8 > length {
		return nil, fmt.Errorf("bignum: value needs %d bytes, want %d", (v.BitLen()+7)/8, length)
	}
	buf := make([]byte, length)
	v.FillBytes(buf)
	return buf, nil
}

// FromBytes decodes a big-endian byte string into a non-negative integer.
func FromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// RandomInRange returns a uniform random integer in [min, max) using a
// cryptographically secure source.
func RandomInRange(min, max *big.Int) (*big.Int, error) {
	if min.Cmp(max) >= 0 {
		return nil, fmt.Errorf("bignum: empty range [%s, %s)", min, max)
	}
	span := new(big.Int).Sub(max, min)
	r, err := rand.Int(rand.Reader, span)
	if err != nil {
		return nil, err
	}
	return r.Add(r, min), nil
}

// ModInverse returns a^-1 mod n. Returns an error if a is not invertible
// modulo n.
func ModInverse(a, n *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(a, n)
	if inv == nil {
		return nil, fmt.Errorf("bignum: %s is not invertible mod %s", a, n)
	}
	return inv, nil
}
