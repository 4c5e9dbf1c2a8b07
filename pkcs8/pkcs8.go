// Package pkcs8 decodes and encodes the PKCS#8 containers of RFC 5208 and RFC 5958:
// PrivateKeyInfo (OneAsymmetricKey), EncryptedPrivateKeyInfo and SubjectPublicKeyInfo.
package pkcs8

import (
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/pkcs"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type Version int

const (
	V1 = Version(0)
	V2 = Version(1)
)

var (
	attributesTag = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()
	publicKeyTag  = cryptobyte_asn1.Tag(1).ContextSpecific()
)

// PrivateKeyInfo is a OneAsymmetricKey. The version is not stored: it is V2 exactly when
// PublicKey is non-nil.
type PrivateKeyInfo struct {
	Algorithm  pkcs.AlgorithmIdentifier
	PrivateKey []byte
	PublicKey  []byte
}

func (info *PrivateKeyInfo) Version() Version {
	if info.PublicKey != nil {
		return V2
	}
	return V1
}

func ParsePrivateKeyInfo(der []byte) (info *PrivateKeyInfo, err error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid private key info, want SEQUENCE")
		return
	}
	if !input.Empty() {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: trailing data after private key info")
		return
	}
	var version int64
	if !inner.ReadASN1Integer(&version) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid private key info version, want INTEGER")
		return
	}
	if version != int64(V1) && version != int64(V2) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: unsupported private key info version %d", version)
		return
	}
	alg, algErr := pkcs.ReadAlgorithmIdentifier(&inner)
	if algErr != nil {
		err = algErr
		return
	}
	var privateKey cryptobyte.String
	if !inner.ReadASN1(&privateKey, cryptobyte_asn1.OCTET_STRING) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid private key, want OCTET STRING")
		return
	}
	if !inner.SkipOptionalASN1(attributesTag) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid private key attributes")
		return
	}
	var publicKey cryptobyte.String
	var hasPublicKey bool
	if !inner.ReadOptionalASN1(&publicKey, &hasPublicKey, publicKeyTag) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: invalid public key, want [1] BIT STRING")
		return
	}
	if !inner.Empty() {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: trailing data in private key info")
		return
	}
	info = &PrivateKeyInfo{
		Algorithm:  alg,
		PrivateKey: append([]byte{}, privateKey...),
	}
	if hasPublicKey {
		if len(publicKey) == 0 || publicKey[0] != 0 {
			info = nil
			err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: public key BIT STRING must be octet aligned")
			return
		}
		info.PublicKey = append([]byte{}, publicKey[1:]...)
	}
	if Version(version) != info.Version() {
		info = nil
		if hasPublicKey {
			err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: version 1 private key info must not carry a public key")
		} else {
			err = keyerrors.New(keyerrors.DerStructureKind, "pkcs8: version 2 private key info must carry a public key")
		}
		return
	}
	return
}

func (info *PrivateKeyInfo) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(int64(info.Version()))
		info.Algorithm.AddTo(b)
		b.AddASN1OctetString(info.PrivateKey)
		if info.PublicKey != nil {
			b.AddASN1(publicKeyTag, func(b *cryptobyte.Builder) {
				b.AddUint8(0)
				b.AddBytes(info.PublicKey)
			})
		}
	})
}

func (info *PrivateKeyInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	info.AddTo(&b)
	return b.Bytes()
}
