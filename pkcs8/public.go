package pkcs8

import (
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/pkcs"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type SubjectPublicKeyInfo struct {
	Algorithm pkcs.AlgorithmIdentifier
	PublicKey []byte
}

func ParseSubjectPublicKeyInfo(der []byte) (*SubjectPublicKeyInfo, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid subject public key info, want SEQUENCE")
	}
	alg, algErr := pkcs.ReadAlgorithmIdentifier(&inner)
	if algErr != nil {
		return nil, algErr
	}
	var publicKey []byte
	if !inner.ReadASN1BitStringAsBytes(&publicKey) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid subject public key, want octet aligned BIT STRING")
	}
	if !inner.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs8: trailing data in subject public key info")
	}
	return &SubjectPublicKeyInfo{
		Algorithm: alg,
		PublicKey: append([]byte{}, publicKey...),
	}, nil
}

func (info *SubjectPublicKeyInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		info.Algorithm.AddTo(b)
		b.AddASN1BitString(info.PublicKey)
	})
	return b.Bytes()
}
