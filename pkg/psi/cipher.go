// Package psi implements the cryptographic core of two-party private
// matching protocols: a commutative elliptic-curve cipher with the property
// K1(K2(a)) = K2(K1(a)), an EC-ElGamal layer it can homomorphically
// re-encrypt, and a fixed-base modular exponentiation accelerator.
// See https://eprint.iacr.org/2008/356.pdf for the underlying scheme.
package psi

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-psi-crypto/internal/crypto/bignum"
	"github.com/smallyu/go-psi-crypto/internal/crypto/ecgroup"
)

// CurveID selects the elliptic curve a cipher is bound to.
type CurveID = ecgroup.CurveID

// Supported curves. Secp224r1 gives 112-bit security; the bit security of
// the cipher is half the bit length of the underlying curve.
const (
	Secp224r1  = ecgroup.Secp224r1
	Prime256v1 = ecgroup.Prime256v1
	Secp384r1  = ecgroup.Secp384r1
	Secp256k1  = ecgroup.Secp256k1
)

// ECCommutativeCipher encrypts curve points by scalar multiplication with a
// private key, so that two parties applying their keys in either order
// arrive at the same doubly-encrypted point. This lets the parties test
// hidden values for equality without revealing them.
//
// Encryption is deterministic: the same (key, plaintext) pair always yields
// the same ciphertext. That is what makes equality testing work, and it
// also means the scheme is only safe when the messages it is applied to
// are pseudorandom or used within a single session.
//
// An ECCommutativeCipher is not safe for concurrent use; its scratch
// context is mutated on every call. Distinct instances are independent
// and may be used from different goroutines.
type ECCommutativeCipher struct {
	ctx        *bignum.Context
	group      *ecgroup.Group
	key        *big.Int
	keyInverse *big.Int // k^-1 mod n, cached for Decrypt
}

// NewCipher creates a cipher on the given curve with a fresh private key
// sampled uniformly from [1, n-1].
func NewCipher(curve CurveID) (*ECCommutativeCipher, error) {
	group, err := ecgroup.NewGroup(curve)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	key, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: sampling key: %v", ErrInternal, err)
	}
	return newCipher(group, key)
}

// NewCipherFromKey creates a cipher from a previously stored private key,
// encoded as the fixed-width big-endian scalar produced by
// PrivateKeyBytes. Keys that are zero, not below the group order, or of
// the wrong length are rejected.
func NewCipherFromKey(curve CurveID, keyBytes []byte) (*ECCommutativeCipher, error) {
	group, err := ecgroup.NewGroup(curve)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	key, err := group.CheckScalar(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return newCipher(group, key)
}

func newCipher(group *ecgroup.Group, key *big.Int) (*ECCommutativeCipher, error) {
	// n is prime for all supported curves, so any key in [1, n-1] is
	// invertible; a failure here means the key range check was bypassed.
	inv, err := bignum.ModInverse(key, group.Order())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &ECCommutativeCipher{
		ctx:        bignum.NewContext(),
		group:      group,
		key:        key,
		keyInverse: inv,
	}, nil
}

// Encrypt hashes plaintext deterministically onto the curve and multiplies
// the resulting point by the private key. The ciphertext is the compressed
// encoding of the product.
func (c *ECCommutativeCipher) Encrypt(plaintext []byte) ([]byte, error) {
	pt, err := c.group.HashToPoint(c.ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return c.group.EncodePoint(c.group.ScalarMult(pt, c.key)), nil
}

// ReEncrypt multiplies an already-encoded curve point by the private key,
// layering this cipher's key on top of whatever encryption the point
// already carries. The input is not hashed; it must be a valid compressed
// point on the bound curve.
func (c *ECCommutativeCipher) ReEncrypt(ciphertext []byte) ([]byte, error) {
	return c.apply(ciphertext, c.key)
}

// Decrypt multiplies an encoded point by the inverse of the private key,
// stripping one layer of this cipher's encryption. A point encrypted once
// under this key decrypts to the original (still hashed) point; a point
// encrypted under this key and another remains encrypted under the other.
// Hashing to the curve is not reversed.
func (c *ECCommutativeCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	return c.apply(ciphertext, c.keyInverse)
}

// ReEncryptElGamalCiphertext multiplies both halves of an ElGamal pair by
// the private key. If the pair encrypted a message point m, the result is
// a valid ElGamal ciphertext of k*m under the same public key and
// randomness. No fresh randomness is introduced: this transforms the
// encrypted value, it does not re-randomize the ciphertext, so it is only
// secure when the underlying messages are pseudorandom.
func (c *ECCommutativeCipher) ReEncryptElGamalCiphertext(ct ElGamalCiphertext) (ElGamalCiphertext, error) {
	c1, err := c.apply(ct.C1, c.key)
	if err != nil {
		return ElGamalCiphertext{}, err
	}
	c2, err := c.apply(ct.C2, c.key)
	if err != nil {
		return ElGamalCiphertext{}, err
	}
	return ElGamalCiphertext{C1: c1, C2: c2}, nil
}

// PrivateKeyBytes returns the private key in the canonical fixed-width
// big-endian encoding accepted by NewCipherFromKey, so the key can be
// stored and the cipher reconstructed in a later session.
func (c *ECCommutativeCipher) PrivateKeyBytes() []byte {
	b, err := bignum.ToFixedBytes(c.key, c.group.ScalarBytes())
	if err != nil {
		// The key is validated to lie in [1, n-1] at construction.
		panic("psi: stored key does not fit its canonical width: " + err.Error())
	}
	return b
}

// Curve returns the identifier of the curve this cipher is bound to.
func (c *ECCommutativeCipher) Curve() CurveID {
	return c.group.ID()
}

// apply decodes a compressed point, multiplies it by scalar, and re-encodes
// the product.
func (c *ECCommutativeCipher) apply(encoded []byte, scalar *big.Int) ([]byte, error) {
	pt, err := c.group.DecodePoint(c.ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return c.group.EncodePoint(c.group.ScalarMult(pt, scalar)), nil
}
