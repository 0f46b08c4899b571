package psi

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-psi-crypto/internal/crypto/bignum"
	"github.com/smallyu/go-psi-crypto/internal/crypto/ecgroup"
)

// ElGamalCiphertext is an ordered pair of independently encoded compressed
// curve points (c1, c2) = (r*G, m + r*Y) encrypting a message point m under
// an ElGamal public key Y. Both halves must decode successfully for any
// operation on the pair to succeed.
type ElGamalCiphertext struct {
	C1 []byte
	C2 []byte
}

// ElGamalPublicKey encrypts curve points under EC-ElGamal. The message
// space is the set of encoded points on the key's curve, which is also the
// ciphertext space of ECCommutativeCipher on the same curve.
//
// Not safe for concurrent use; see ECCommutativeCipher.
type ElGamalPublicKey struct {
	ctx   *bignum.Context
	group *ecgroup.Group
	y     ecgroup.Point
}

// ElGamalSecretKey decrypts EC-ElGamal ciphertext pairs.
//
// Not safe for concurrent use.
type ElGamalSecretKey struct {
	ctx   *bignum.Context
	group *ecgroup.Group
	x     *big.Int
}

// ElGamalKeyPair holds the two halves of a freshly generated ElGamal key.
type ElGamalKeyPair struct {
	PublicKey *ElGamalPublicKey
	SecretKey *ElGamalSecretKey
}

// NewElGamalKeyPair generates an ElGamal key pair on the given curve:
// a uniform secret x in [1, n-1] and the public point Y = x*G.
func NewElGamalKeyPair(curve CurveID) (*ElGamalKeyPair, error) {
	group, err := ecgroup.NewGroup(curve)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	x, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: sampling key: %v", ErrInternal, err)
	}
	// The public and secret halves may end up with different owners, so
	// each gets its own group handle and scratch context.
	pubGroup, err := ecgroup.NewGroup(curve)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &ElGamalKeyPair{
		PublicKey: &ElGamalPublicKey{
			ctx:   bignum.NewContext(),
			group: pubGroup,
			y:     pubGroup.BaseMult(x),
		},
		SecretKey: &ElGamalSecretKey{
			ctx:   bignum.NewContext(),
			group: group,
			x:     x,
		},
	}, nil
}

// Encrypt encrypts an encoded curve point: it samples fresh randomness r
// and returns the pair (r*G, m + r*Y). Encrypting the same message twice
// yields different ciphertexts.
func (pk *ElGamalPublicKey) Encrypt(message []byte) (ElGamalCiphertext, error) {
	m, err := pk.group.DecodePoint(pk.ctx, message)
	if err != nil {
		return ElGamalCiphertext{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	r, err := pk.group.RandomScalar()
	if err != nil {
		return ElGamalCiphertext{}, fmt.Errorf("%w: sampling randomness: %v", ErrInternal, err)
	}
	c1 := pk.group.BaseMult(r)
	c2 := pk.group.Add(m, pk.group.ScalarMult(pk.y, r))
	return ElGamalCiphertext{
		C1: pk.group.EncodePoint(c1),
		C2: pk.group.EncodePoint(c2),
	}, nil
}

// Decrypt recovers the message point: m = c2 - x*c1.
func (sk *ElGamalSecretKey) Decrypt(ct ElGamalCiphertext) ([]byte, error) {
	c1, err := sk.group.DecodePoint(sk.ctx, ct.C1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	c2, err := sk.group.DecodePoint(sk.ctx, ct.C2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	shared := sk.group.ScalarMult(c1, sk.x)
	m := sk.group.Add(c2, sk.group.Neg(shared))
	return sk.group.EncodePoint(m), nil
}
