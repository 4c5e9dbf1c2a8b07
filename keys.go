package afkey

import (
	"bytes"
	"crypto/ed25519"
	"crypto/subtle"

	"github.com/aacfactory/afkey/digest"
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

type KeyAlgorithm string

const (
	Ed25519        = KeyAlgorithm("ED25519")
	EcdsaSecp256k1 = KeyAlgorithm("ECDSA_SECP256K1")
)

const (
	Ed25519SecretSize          = ed25519.SeedSize
	Ed25519PublicSize          = ed25519.PublicKeySize
	Secp256k1SecretSize        = secp256k1.PrivKeyBytesLen
	Secp256k1PublicSize        = secp256k1.PubKeyBytesLenCompressed
	Secp256k1SignatureSize     = 64
	secp256k1CompactHeaderSize = 1
)

// KeyMaterial is the raw private key handed to the signing key wrappers.
// Secret is the Ed25519 seed or the secp256k1 scalar, both 32 bytes.
// Public is set only when the source structure carried a public key; it has already been
// checked against Secret and is normalised to 32 bytes (Ed25519) or a 33 byte compressed
// point (secp256k1).
type KeyMaterial struct {
	Algorithm KeyAlgorithm
	Secret    []byte
	Public    []byte
}

type PublicKeyMaterial struct {
	Algorithm KeyAlgorithm
	Public    []byte
}

func (key *KeyMaterial) Ed25519() (ed25519.PrivateKey, error) {
	if key.Algorithm != Ed25519 {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: %s key is not an ed25519 key", key.Algorithm)
	}
	if len(key.Secret) != Ed25519SecretSize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 seed must be %d bytes, got %d", Ed25519SecretSize, len(key.Secret))
	}
	return ed25519.NewKeyFromSeed(key.Secret), nil
}

func (key *KeyMaterial) Secp256k1() (*secp256k1.PrivateKey, error) {
	if key.Algorithm != EcdsaSecp256k1 {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: %s key is not a secp256k1 key", key.Algorithm)
	}
	scalar, err := secp256k1Scalar(key.Secret)
	if err != nil {
		return nil, err
	}
	return secp256k1.NewPrivateKey(scalar), nil
}

// PublicKey derives the public key from Secret.
func (key *KeyMaterial) PublicKey() (*PublicKeyMaterial, error) {
	switch key.Algorithm {
	case Ed25519:
		pri, err := key.Ed25519()
		if err != nil {
			return nil, err
		}
		return &PublicKeyMaterial{
			Algorithm: Ed25519,
			Public:    append([]byte{}, pri.Public().(ed25519.PublicKey)...),
		}, nil
	case EcdsaSecp256k1:
		pri, err := key.Secp256k1()
		if err != nil {
			return nil, err
		}
		return &PublicKeyMaterial{
			Algorithm: EcdsaSecp256k1,
			Public:    pri.PubKey().SerializeCompressed(),
		}, nil
	default:
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", key.Algorithm)
	}
}

// Sign produces the ledger signature of message: plain Ed25519 for Ed25519 keys, and the
// 64 byte r||s ECDSA signature over Keccak-256(message) for secp256k1 keys.
func (key *KeyMaterial) Sign(message []byte) ([]byte, error) {
	switch key.Algorithm {
	case Ed25519:
		pri, err := key.Ed25519()
		if err != nil {
			return nil, err
		}
		return ed25519.Sign(pri, message), nil
	case EcdsaSecp256k1:
		pri, err := key.Secp256k1()
		if err != nil {
			return nil, err
		}
		defer pri.Zero()
		compact := ecdsa.SignCompact(pri, digest.Keccak256(message), true)
		return compact[secp256k1CompactHeaderSize:], nil
	default:
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", key.Algorithm)
	}
}

// Zero overwrites the secret in place.
func (key *KeyMaterial) Zero() {
	clear(key.Secret)
}

func (pub *PublicKeyMaterial) Verify(message []byte, signature []byte) bool {
	switch pub.Algorithm {
	case Ed25519:
		if len(pub.Public) != Ed25519PublicSize {
			return false
		}
		return ed25519.Verify(pub.Public, message, signature)
	case EcdsaSecp256k1:
		if len(signature) != Secp256k1SignatureSize {
			return false
		}
		point, parseErr := secp256k1.ParsePubKey(pub.Public)
		if parseErr != nil {
			return false
		}
		var r, s secp256k1.ModNScalar
		if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) || r.IsZero() || s.IsZero() {
			return false
		}
		return ecdsa.NewSignature(&r, &s).Verify(digest.Keccak256(message), point)
	default:
		return false
	}
}

func (pub *PublicKeyMaterial) Equal(other *PublicKeyMaterial) bool {
	return other != nil && pub.Algorithm == other.Algorithm && bytes.Equal(pub.Public, other.Public)
}

func secp256k1Scalar(secret []byte) (*secp256k1.ModNScalar, error) {
	if len(secret) != Secp256k1SecretSize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: secp256k1 private key must be %d bytes, got %d", Secp256k1SecretSize, len(secret))
	}
	scalar := new(secp256k1.ModNScalar)
	if overflow := scalar.SetByteSlice(secret); overflow || scalar.IsZero() {
		scalar.Zero()
		return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: secp256k1 private key is outside [1, n-1]")
	}
	return scalar, nil
}

func newEd25519Material(seed []byte, embedded ...[]byte) (*KeyMaterial, error) {
	if len(seed) != Ed25519SecretSize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 seed must be %d bytes, got %d", Ed25519SecretSize, len(seed))
	}
	derived := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	var public []byte
	for _, candidate := range embedded {
		if candidate == nil {
			continue
		}
		if len(candidate) != Ed25519PublicSize {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 public key must be %d bytes, got %d", Ed25519PublicSize, len(candidate))
		}
		if subtle.ConstantTimeCompare(candidate, derived) != 1 {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: embedded ed25519 public key does not match the private key")
		}
		public = append([]byte{}, candidate...)
	}
	return &KeyMaterial{
		Algorithm: Ed25519,
		Secret:    append([]byte{}, seed...),
		Public:    public,
	}, nil
}

func newSecp256k1Material(secret []byte, embedded ...[]byte) (*KeyMaterial, error) {
	scalar, err := secp256k1Scalar(secret)
	if err != nil {
		return nil, err
	}
	defer scalar.Zero()
	derived := secp256k1.NewPrivateKey(scalar).PubKey()
	var public []byte
	for _, candidate := range embedded {
		if candidate == nil {
			continue
		}
		point, parseErr := secp256k1.ParsePubKey(candidate)
		if parseErr != nil {
			return nil, keyerrors.Wrap(keyerrors.DerStructureKind, parseErr, "afkey: invalid embedded secp256k1 public key")
		}
		if !point.IsEqual(derived) {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: embedded secp256k1 public key does not match the private key")
		}
		public = point.SerializeCompressed()
	}
	return &KeyMaterial{
		Algorithm: EcdsaSecp256k1,
		Secret:    append([]byte{}, secret...),
		Public:    public,
	}, nil
}

func newEd25519PublicMaterial(raw []byte) (*PublicKeyMaterial, error) {
	if len(raw) != Ed25519PublicSize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 public key must be %d bytes, got %d", Ed25519PublicSize, len(raw))
	}
	return &PublicKeyMaterial{
		Algorithm: Ed25519,
		Public:    append([]byte{}, raw...),
	}, nil
}

func newSecp256k1PublicMaterial(raw []byte) (*PublicKeyMaterial, error) {
	point, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, err, "afkey: invalid secp256k1 public key")
	}
	return &PublicKeyMaterial{
		Algorithm: EcdsaSecp256k1,
		Public:    point.SerializeCompressed(),
	}, nil
}
