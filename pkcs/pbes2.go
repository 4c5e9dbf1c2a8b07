package pkcs

import (
	"crypto/aes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	DefaultSaltSize       = 16
	DefaultIterationCount = 2048
)

// EncryptionScheme is the encryptionAlgorithm of an EncryptedPrivateKeyInfo.
// PBES2 is the only scheme recognised.
type EncryptionScheme interface {
	AddTo(b *cryptobyte.Builder)
	Decrypt(password []byte, ciphertext []byte) ([]byte, error)
	Encrypt(password []byte, plaintext []byte) ([]byte, error)
}

func ParseEncryptionScheme(alg AlgorithmIdentifier, opts ...Option) (EncryptionScheme, error) {
	if !alg.Is(oid.PBES2) {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported encryption scheme %v", alg.Algorithm)
	}
	if alg.Parameters == nil {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbes2 parameters are missing")
	}
	return ParsePbes2Params(alg.Parameters, opts...)
}

// Pbes2Params is PBES2-params from RFC 8018 A.4.
type Pbes2Params struct {
	KDF    KeyDerivationFunc
	Scheme Pbes2EncryptionScheme
}

func NewPbes2Params(kdf KeyDerivationFunc, scheme Pbes2EncryptionScheme) (*Pbes2Params, error) {
	if kdf == nil || scheme == nil {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbes2 needs both a key derivation function and an encryption scheme")
	}
	return &Pbes2Params{
		KDF:    kdf,
		Scheme: scheme,
	}, nil
}

// GeneratePbes2Params returns PBKDF2-HMAC-SHA256 + AES-128-CBC parameters with a fresh salt and IV.
func GeneratePbes2Params(random io.Reader, iterationCount uint32, opts ...Option) (*Pbes2Params, error) {
	if random == nil {
		random = rand.Reader
	}
	salt := make([]byte, DefaultSaltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("pkcs: read random salt failed, %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, fmt.Errorf("pkcs: read random iv failed, %w", err)
	}
	kdf, kdfErr := NewPbkdf2Params(salt, iterationCount, 0, oid.HMACWithSHA256)
	if kdfErr != nil {
		return nil, kdfErr
	}
	scheme, schemeErr := NewAes128Cbc(iv, opts...)
	if schemeErr != nil {
		return nil, schemeErr
	}
	return NewPbes2Params(kdf, scheme)
}

func ParsePbes2Params(der []byte, opts ...Option) (*Pbes2Params, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbes2 parameters, want SEQUENCE")
	}
	kdfAlg, kdfAlgErr := ReadAlgorithmIdentifier(&inner)
	if kdfAlgErr != nil {
		return nil, kdfAlgErr
	}
	schemeAlg, schemeAlgErr := ReadAlgorithmIdentifier(&inner)
	if schemeAlgErr != nil {
		return nil, schemeAlgErr
	}
	if !inner.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: trailing data in pbes2 parameters")
	}
	kdf, kdfErr := GetKeyDerivationFunc(kdfAlg)
	if kdfErr != nil {
		return nil, kdfErr
	}
	scheme, schemeErr := GetCipher(schemeAlg, opts...)
	if schemeErr != nil {
		return nil, schemeErr
	}
	return NewPbes2Params(kdf, scheme)
}

func (params *Pbes2Params) deriveKey(password []byte) ([]byte, error) {
	return params.KDF.Derive(password, params.Scheme.KeySize())
}

func (params *Pbes2Params) Decrypt(password []byte, ciphertext []byte) ([]byte, error) {
	key, err := params.deriveKey(password)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	return params.Scheme.Decrypt(key, ciphertext)
}

func (params *Pbes2Params) Encrypt(password []byte, plaintext []byte) ([]byte, error) {
	key, err := params.deriveKey(password)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	return params.Scheme.Encrypt(key, plaintext)
}

func (params *Pbes2Params) addParameters(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		params.KDF.AddTo(b)
		params.Scheme.AddTo(b)
	})
}

// AddTo writes the complete AlgorithmIdentifier {PBES2, params}.
func (params *Pbes2Params) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid.PBES2.OID())
		params.addParameters(b)
	})
}

// Marshal returns the DER of PBES2-params alone.
func (params *Pbes2Params) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	params.addParameters(&b)
	return b.Bytes()
}
