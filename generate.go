package afkey

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const secp256k1GenerateAttempts = 16

// GenerateKey creates a fresh key of the given algorithm. Randomness comes from WithRandom.
func GenerateKey(algorithm KeyAlgorithm, opts ...Option) (key *KeyMaterial, err error) {
	options, optErr := newOptions(opts)
	if optErr != nil {
		err = optErr
		return
	}
	switch algorithm {
	case Ed25519:
		public, pri, genErr := ed25519.GenerateKey(options.random)
		if genErr != nil {
			err = fmt.Errorf("afkey: generate ed25519 key failed, %v", genErr)
			return
		}
		key = &KeyMaterial{
			Algorithm: Ed25519,
			Secret:    append([]byte{}, pri.Seed()...),
			Public:    append([]byte{}, public...),
		}
		clear(pri)
	case EcdsaSecp256k1:
		secret, genErr := generateSecp256k1Secret(options.random)
		if genErr != nil {
			err = genErr
			return
		}
		scalar, scalarErr := secp256k1Scalar(secret)
		if scalarErr != nil {
			clear(secret)
			err = scalarErr
			return
		}
		key = &KeyMaterial{
			Algorithm: EcdsaSecp256k1,
			Secret:    secret,
			Public:    secp256k1.NewPrivateKey(scalar).PubKey().SerializeCompressed(),
		}
		scalar.Zero()
	default:
		err = keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", algorithm)
		return
	}
	options.logger.Debug("afkey: key generated", "algorithm", string(algorithm))
	return
}

// generateSecp256k1Secret draws 32 byte candidates until one is a scalar in [1, n-1].
func generateSecp256k1Secret(random io.Reader) ([]byte, error) {
	secret := make([]byte, Secp256k1SecretSize)
	for i := 0; i < secp256k1GenerateAttempts; i++ {
		if _, err := io.ReadFull(random, secret); err != nil {
			clear(secret)
			return nil, fmt.Errorf("afkey: generate secp256k1 key failed, %v", err)
		}
		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(secret)
		valid := !overflow && !scalar.IsZero()
		scalar.Zero()
		if valid {
			return secret, nil
		}
	}
	clear(secret)
	return nil, fmt.Errorf("afkey: generate secp256k1 key failed, random source yields no valid scalar")
}

// EncodeKey returns the private key as a "PRIVATE KEY" PEM, or as an "ENCRYPTED PRIVATE KEY"
// PEM when password is not empty, together with its "PUBLIC KEY" PEM.
func EncodeKey(key *KeyMaterial, password []byte, opts ...Option) (privatePEM []byte, publicPEM []byte, err error) {
	if len(password) == 0 {
		privatePEM, err = MarshalPrivateKey(key)
	} else {
		privatePEM, err = EncryptPrivateKey(key, password, opts...)
	}
	if err != nil {
		return
	}
	public, publicErr := key.PublicKey()
	if publicErr != nil {
		privatePEM = nil
		err = publicErr
		return
	}
	publicPEM, err = MarshalPublicKey(public)
	if err != nil {
		privatePEM = nil
		return
	}
	return
}

// ParseKeyAlgorithm accepts "ed25519" and "secp256k1" in any case, and the KeyAlgorithm names.
func ParseKeyAlgorithm(name string) (KeyAlgorithm, error) {
	switch KeyAlgorithm(strings.ToUpper(strings.TrimSpace(name))) {
	case Ed25519:
		return Ed25519, nil
	case EcdsaSecp256k1, "SECP256K1":
		return EcdsaSecp256k1, nil
	default:
		return "", keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", name)
	}
}
