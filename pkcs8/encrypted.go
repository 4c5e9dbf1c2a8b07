package pkcs8

import (
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/pkcs"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type EncryptedPrivateKeyInfo struct {
	Scheme        pkcs.EncryptionScheme
	EncryptedData []byte
}

// ParseEncryptedPrivateKeyInfo decodes the envelope only. Unsupported key derivation
// functions or ciphers fail here, before any password is involved.
func ParseEncryptedPrivateKeyInfo(der []byte, opts ...pkcs.Option) (*EncryptedPrivateKeyInfo, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid encrypted private key info, want SEQUENCE")
	}
	alg, algErr := pkcs.ReadAlgorithmIdentifier(&inner)
	if algErr != nil {
		return nil, algErr
	}
	var encryptedData cryptobyte.String
	if !inner.ReadASN1(&encryptedData, cryptobyte_asn1.OCTET_STRING) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid encrypted data, want OCTET STRING")
	}
	if !inner.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: trailing data in encrypted private key info")
	}
	scheme, schemeErr := pkcs.ParseEncryptionScheme(alg, opts...)
	if schemeErr != nil {
		return nil, schemeErr
	}
	return &EncryptedPrivateKeyInfo{
		Scheme:        scheme,
		EncryptedData: append([]byte{}, encryptedData...),
	}, nil
}

// EncryptPrivateKeyInfo seals info under password with the given scheme.
func EncryptPrivateKeyInfo(info *PrivateKeyInfo, password []byte, scheme pkcs.EncryptionScheme) (*EncryptedPrivateKeyInfo, error) {
	if len(password) == 0 {
		return nil, keyerrors.New(keyerrors.MissingPasswordKind, "pkcs8: password is required to encrypt a private key")
	}
	plaintext, marshalErr := info.Marshal()
	if marshalErr != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, marshalErr, "pkcs8: marshal private key info failed")
	}
	defer clear(plaintext)
	ciphertext, encryptErr := scheme.Encrypt(password, plaintext)
	if encryptErr != nil {
		return nil, encryptErr
	}
	return &EncryptedPrivateKeyInfo{
		Scheme:        scheme,
		EncryptedData: ciphertext,
	}, nil
}

// Decrypt returns the DER of the inner PrivateKeyInfo.
func (info *EncryptedPrivateKeyInfo) Decrypt(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, keyerrors.New(keyerrors.MissingPasswordKind, "pkcs8: password is required to decrypt an encrypted private key")
	}
	return info.Scheme.Decrypt(password, info.EncryptedData)
}

// DecryptPrivateKeyInfo decrypts and parses the inner PrivateKeyInfo. Plaintext that does not
// parse is reported as a decryption failure.
func (info *EncryptedPrivateKeyInfo) DecryptPrivateKeyInfo(password []byte) (*PrivateKeyInfo, error) {
	plaintext, err := info.Decrypt(password)
	if err != nil {
		return nil, err
	}
	defer clear(plaintext)
	inner, parseErr := ParsePrivateKeyInfo(plaintext)
	if parseErr != nil {
		// a wrong password can still leave valid padding; parseErr stays out of the chain
		return nil, keyerrors.New(keyerrors.DecryptionKind, "pkcs8: decrypted data is not a private key info, %v", parseErr)
	}
	return inner, nil
}

func (info *EncryptedPrivateKeyInfo) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		info.Scheme.AddTo(b)
		b.AddASN1OctetString(info.EncryptedData)
	})
}

func (info *EncryptedPrivateKeyInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	info.AddTo(&b)
	return b.Bytes()
}
