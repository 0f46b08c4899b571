// Package ecgroup wraps the supported elliptic-curve groups behind a small
// capability surface: curve lookup by identifier, scalar multiplication,
// deterministic hash-to-curve, and the ANSI X9.62 compressed point codec.
package ecgroup

import (
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/smallyu/go-psi-crypto/internal/crypto/bignum"
)

// CurveID selects one of the supported named curves.
type CurveID int

const (
	Secp224r1 CurveID = iota + 1
	Prime256v1
	Secp384r1
	Secp256k1
)

func (id CurveID) String() string {
	switch id {
	case Secp224r1:
		return "secp224r1"
	case Prime256v1:
		return "prime256v1"
	case Secp384r1:
		return "secp384r1"
	case Secp256k1:
		return "secp256k1"
	}
	return fmt.Sprintf("CurveID(%d)", int(id))
}

var (
	ErrUnknownCurve  = errors.New("ecgroup: unknown curve")
	ErrInvalidPoint  = errors.New("ecgroup: invalid point encoding")
	ErrInvalidScalar = errors.New("ecgroup: invalid scalar")
)

// Point is an affine point on the bound curve. Points are treated as
// immutable values; operations return fresh points.
type Point struct {
	X, Y *big.Int
}

// Group provides arithmetic on one named curve. The zero value is not
// usable; construct with NewGroup.
type Group struct {
	id    CurveID
	curve elliptic.Curve
	p     *big.Int // field prime
	n     *big.Int // group order
	a     *big.Int // short-Weierstrass a coefficient
	b     *big.Int // short-Weierstrass b coefficient
}

// NewGroup resolves a curve identifier to a Group. NIST curves come from
// crypto/elliptic; secp256k1 from the decred elliptic.Curve adaptor.
func NewGroup(id CurveID) (*Group, error) {
	var curve elliptic.Curve
	koblitz := false
	switch id {
	case Secp224r1:
		curve = elliptic.P224()
	case Prime256v1:
		curve = elliptic.P256()
	case Secp384r1:
		curve = elliptic.P384()
	case Secp256k1:
		curve = secp256k1.S256()
		koblitz = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurve, id)
	}
	params := curve.Params()
	a := big.NewInt(0)
	if !koblitz {
		// The NIST prime curves all use a = -3.
		a = new(big.Int).Sub(params.P, big.NewInt(3))
	}
	return &Group{
		id:    id,
		curve: curve,
		p:     params.P,
		n:     params.N,
		a:     a,
		b:     params.B,
	}, nil
}

// ID returns the curve identifier the group was built from.
func (g *Group) ID() CurveID {
	return g.id
}

// Order returns the group order n. The caller must not modify it.
func (g *Group) Order() *big.Int {
	return g.n
}

// ScalarBytes returns the fixed byte width of a canonically encoded scalar.
func (g *Group) ScalarBytes() int {
	return (g.n.BitLen() + 7) / 8
}

// ElementBytes returns the byte width of a field element, i.e. the length
// of the x coordinate in a compressed point encoding.
func (g *Group) ElementBytes() int {
	return (g.p.BitLen() + 7) / 8
}

// RandomScalar samples a uniform scalar in [1, n-1].
func (g *Group) RandomScalar() (*big.Int, error) {
	return bignum.RandomInRange(big.NewInt(1), g.n)
}

// CheckScalar decodes b as a fixed-width big-endian scalar, rejecting
// wrong-length input, zero, and values >= n.
func (g *Group) CheckScalar(b []byte) (*big.Int, error) {
	if len(b) != g.ScalarBytes() {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidScalar, g.ScalarBytes(), len(b))
	}
	k := bignum.FromBytes(b)
	if k.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero", ErrInvalidScalar)
	}
	if k.Cmp(g.n) >= 0 {
		return nil, fmt.Errorf("%w: not below group order", ErrInvalidScalar)
	}
	return k, nil
}

// ScalarMult returns k * pt.
func (g *Group) ScalarMult(pt Point, k *big.Int) Point {
	x, y := g.curve.ScalarMult(pt.X, pt.Y, k.Bytes())
	return Point{X: x, Y: y}
}

// BaseMult returns k * G for the curve generator G.
func (g *Group) BaseMult(k *big.Int) Point {
	x, y := g.curve.ScalarBaseMult(k.Bytes())
	return Point{X: x, Y: y}
}

// Add returns p1 + p2.
func (g *Group) Add(p1, p2 Point) Point {
	x, y := g.curve.Add(p1.X, p1.Y, p2.X, p2.Y)
	return Point{X: x, Y: y}
}

// Neg returns -pt.
func (g *Group) Neg(pt Point) Point {
	if pt.Y.Sign() == 0 {
		return Point{X: new(big.Int).Set(pt.X), Y: new(big.Int)}
	}
	return Point{X: new(big.Int).Set(pt.X), Y: new(big.Int).Sub(g.p, pt.Y)}
}

// polynomial evaluates the curve equation right-hand side
// x^3 + a*x + b mod p. The scratch context supplies the temporary.
func (g *Group) polynomial(ctx *bignum.Context, x *big.Int) *big.Int {
	t := ctx.Int()
	defer ctx.Release(t)
	y2 := new(big.Int).Mul(x, x)
	y2.Mod(y2, g.p)
	y2.Mul(y2, x)
	t.Mul(g.a, x)
	y2.Add(y2, t)
	y2.Add(y2, g.b)
	y2.Mod(y2, g.p)
	return y2
}

// EncodePoint returns the compressed ANSI X9.62 encoding of pt: a parity
// prefix byte (0x02 for even y, 0x03 for odd) followed by the fixed-width
// big-endian x coordinate.
func (g *Group) EncodePoint(pt Point) []byte {
	buf := make([]byte, 1+g.ElementBytes())
	buf[0] = 2 | byte(pt.Y.Bit(0))
	pt.X.FillBytes(buf[1:])
	return buf
}

// DecodePoint parses a compressed point encoding, validating the length,
// the prefix, the coordinate range, and curve membership. A byte string
// that is not a valid point on this curve is rejected, never coerced.
func (g *Group) DecodePoint(ctx *bignum.Context, b []byte) (Point, error) {
	want := 1 + g.ElementBytes()
	if len(b) != want {
		return Point{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPoint, want, len(b))
	}
	prefix := b[0]
	if prefix != 2 && prefix != 3 {
		return Point{}, fmt.Errorf("%w: bad prefix 0x%02x", ErrInvalidPoint, prefix)
	}
	x := bignum.FromBytes(b[1:])
	if x.Cmp(g.p) >= 0 {
		return Point{}, fmt.Errorf("%w: x not a field element", ErrInvalidPoint)
	}
	y := new(big.Int).ModSqrt(g.polynomial(ctx, x), g.p)
	if y == nil {
		return Point{}, fmt.Errorf("%w: x is not on the curve", ErrInvalidPoint)
	}
	if y.Sign() == 0 && prefix == 3 {
		return Point{}, fmt.Errorf("%w: no odd square root", ErrInvalidPoint)
	}
	if y.Bit(0) != uint(prefix&1) {
		y.Sub(g.p, y)
	}
	return Point{X: x, Y: y}, nil
}

// maxHashIterations bounds the try-and-increment loop. Each candidate x is
// a square with probability 1/2, so failing this bound is unreachable in
// practice.
const maxHashIterations = 1000

// HashToPoint deterministically maps arbitrary bytes onto the curve.
// The message is hashed to an x candidate with SHA-256, and x is
// incremented until the curve polynomial has a square root; the even root
// is taken as y. The same input always yields the same point.
func (g *Group) HashToPoint(ctx *bignum.Context, msg []byte) (Point, error) {
	sum := sha256.Sum256(msg)
	x := new(big.Int).SetBytes(sum[:])
	x.Mod(x, g.p)
	one := big.NewInt(1)
	for i := 0; i < maxHashIterations; i++ {
		if y := new(big.Int).ModSqrt(g.polynomial(ctx, x), g.p); y != nil {
			if y.Bit(0) == 1 {
				y.Sub(g.p, y)
			}
			return Point{X: x, Y: y}, nil
		}
		x.Add(x, one)
		if x.Cmp(g.p) >= 0 {
			x.Sub(x, g.p)
		}
	}
	return Point{}, errors.New("ecgroup: hash to point did not converge")
}

// IsOnCurve reports whether pt satisfies the curve equation.
func (g *Group) IsOnCurve(pt Point) bool {
	return g.curve.IsOnCurve(pt.X, pt.Y)
}
