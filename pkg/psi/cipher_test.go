package psi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/smallyu/go-psi-crypto/internal/crypto/bignum"
	"github.com/smallyu/go-psi-crypto/internal/crypto/ecgroup"
)

// testKeyBytes is a deterministic secp224r1 private key: the bytes
// 0x01..0x1c, well below the group order.
func testKeyBytes() []byte {
	b := make([]byte, 28)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func TestEncryptDeterministic(t *testing.T) {
	cipher, err := NewCipherFromKey(Secp224r1, testKeyBytes())
	if err != nil {
		t.Fatalf("NewCipherFromKey failed: %v", err)
	}

	c1, err := cipher.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	c2, err := cipher.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !bytes.Equal(c1, c2) {
		t.Error("Same key and plaintext produced different ciphertexts")
	}

	c3, err := cipher.Encrypt([]byte("hellp"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(c1, c3) {
		t.Error("Different plaintexts produced the same ciphertext")
	}
}

func TestDecryptReturnsHashedPoint(t *testing.T) {
	cipher, err := NewCipherFromKey(Secp224r1, testKeyBytes())
	if err != nil {
		t.Fatalf("NewCipherFromKey failed: %v", err)
	}

	ciphertext, err := cipher.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	decrypted, err := cipher.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	// Decrypt undoes the key multiplication but not the hash to the
	// curve: the result is the hashed plaintext point, not "hello".
	group, err := ecgroup.NewGroup(ecgroup.Secp224r1)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	hashed, err := group.HashToPoint(bignum.NewContext(), []byte("hello"))
	if err != nil {
		t.Fatalf("HashToPoint failed: %v", err)
	}
	if !bytes.Equal(decrypted, group.EncodePoint(hashed)) {
		t.Error("Decrypt(Encrypt(p)) is not the hash-to-curve point of p")
	}
}

func TestCommutativity(t *testing.T) {
	cipher1, err := NewCipher(Prime256v1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	cipher2, err := NewCipher(Prime256v1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	plaintext := []byte("shared secret value")

	e1, err := cipher1.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	e12, err := cipher2.ReEncrypt(e1)
	if err != nil {
		t.Fatalf("ReEncrypt failed: %v", err)
	}

	e2, err := cipher2.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	e21, err := cipher1.ReEncrypt(e2)
	if err != nil {
		t.Fatalf("ReEncrypt failed: %v", err)
	}

	if !bytes.Equal(e12, e21) {
		t.Error("k2(k1(p)) != k1(k2(p))")
	}
}

func TestDecryptStripsOneLayer(t *testing.T) {
	cipher1, err := NewCipher(Secp224r1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	cipher2, err := NewCipher(Secp224r1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	plaintext := []byte("double encrypted")

	single, err := cipher2.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	double, err := cipher1.ReEncrypt(single)
	if err != nil {
		t.Fatalf("ReEncrypt failed: %v", err)
	}

	// Stripping cipher1's layer from the doubly encrypted point leaves
	// the point encrypted only under cipher2.
	stripped, err := cipher1.Decrypt(double)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(stripped, single) {
		t.Error("Decrypt did not strip exactly one encryption layer")
	}
}

func TestKeyPersistenceRoundTrip(t *testing.T) {
	original, err := NewCipher(Secp256k1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	keyBytes := original.PrivateKeyBytes()
	restored, err := NewCipherFromKey(Secp256k1, keyBytes)
	if err != nil {
		t.Fatalf("NewCipherFromKey failed: %v", err)
	}

	plaintext := []byte("persisted key")
	c1, err := original.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	c2, err := restored.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !bytes.Equal(c1, c2) {
		t.Error("Restored cipher does not behave like the original")
	}
	if !bytes.Equal(keyBytes, restored.PrivateKeyBytes()) {
		t.Error("Key bytes changed across the round trip")
	}
}

func TestNewCipherFromKeyRejects(t *testing.T) {
	width := 28 // secp224r1 scalar width

	cases := []struct {
		name string
		key  []byte
	}{
		{"zero scalar", make([]byte, width)},
		{"too short", make([]byte, width-1)},
		{"too long", make([]byte, width+1)},
		{"above group order", bytes.Repeat([]byte{0xff}, width)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCipherFromKey(Secp224r1, tc.key)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestUnknownCurveRejected(t *testing.T) {
	if _, err := NewCipher(CurveID(42)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewCipherFromKey(CurveID(42), testKeyBytes()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestMalformedPointRejected(t *testing.T) {
	cipher, err := NewCipherFromKey(Secp224r1, testKeyBytes())
	if err != nil {
		t.Fatalf("NewCipherFromKey failed: %v", err)
	}

	valid, err := cipher.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	bad := [][]byte{
		nil,
		{},
		valid[:len(valid)-1],
		append(append([]byte{}, valid...), 0),
		append([]byte{0x04}, valid[1:]...),
		make([]byte, len(valid)),
	}
	for _, input := range bad {
		if _, err := cipher.ReEncrypt(input); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ReEncrypt(%x): expected ErrInvalidArgument, got %v", input, err)
		}
		if _, err := cipher.Decrypt(input); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Decrypt(%x): expected ErrInvalidArgument, got %v", input, err)
		}
	}
}

func TestCrossCurveCiphertextRejected(t *testing.T) {
	small, err := NewCipher(Secp224r1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	large, err := NewCipher(Prime256v1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	ct, err := small.Encrypt([]byte("wrong curve"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := large.ReEncrypt(ct); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for cross-curve ciphertext, got %v", err)
	}
}

func TestReEncryptElGamalCiphertext(t *testing.T) {
	keys, err := NewElGamalKeyPair(Prime256v1)
	if err != nil {
		t.Fatalf("NewElGamalKeyPair failed: %v", err)
	}
	cipher, err := NewCipher(Prime256v1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	// The message point is the canonical hash of some identifier.
	group, err := ecgroup.NewGroup(ecgroup.Prime256v1)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	m, err := group.HashToPoint(bignum.NewContext(), []byte("message"))
	if err != nil {
		t.Fatalf("HashToPoint failed: %v", err)
	}
	message := group.EncodePoint(m)

	ct, err := keys.PublicKey.Encrypt(message)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	reencrypted, err := cipher.ReEncryptElGamalCiphertext(ct)
	if err != nil {
		t.Fatalf("ReEncryptElGamalCiphertext failed: %v", err)
	}

	// ElGamal decryption of the transformed pair yields k*m, the same
	// point the commutative cipher produces from the message directly.
	decrypted, err := keys.SecretKey.Decrypt(reencrypted)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	km, err := cipher.ReEncrypt(message)
	if err != nil {
		t.Fatalf("ReEncrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, km) {
		t.Error("Re-encrypted ElGamal pair does not decrypt to k*m")
	}
}

func TestReEncryptElGamalCiphertextRejectsBadHalf(t *testing.T) {
	cipher, err := NewCipher(Prime256v1)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	valid, err := cipher.Encrypt([]byte("half"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Either half failing to decode fails the whole operation.
	_, err = cipher.ReEncryptElGamalCiphertext(ElGamalCiphertext{C1: []byte{1, 2, 3}, C2: valid})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for bad c1, got %v", err)
	}
	_, err = cipher.ReEncryptElGamalCiphertext(ElGamalCiphertext{C1: valid, C2: []byte{1, 2, 3}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for bad c2, got %v", err)
	}
}
