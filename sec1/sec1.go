package sec1

import (
	"encoding/asn1"

	"github.com/aacfactory/afkey/keyerrors"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	Version        = 1
	PrivateKeySize = 32
)

var (
	parametersTag = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()
	publicKeyTag  = cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()
)

// ECPrivateKey reflects RFC 5915 / SEC1 C.4. Only the namedCurve choice of ECParameters
// is accepted; NamedCurve and PublicKey are nil when absent.
type ECPrivateKey struct {
	PrivateKey []byte
	NamedCurve asn1.ObjectIdentifier
	PublicKey  []byte
}

func ParseECPrivateKey(der []byte) (*ECPrivateKey, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid ec private key, want SEQUENCE")
	}
	var version int64
	if !inner.ReadASN1Integer(&version) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid ec private key version, want INTEGER")
	}
	if version != Version {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: unsupported ec private key version %d", version)
	}
	var privateKey cryptobyte.String
	if !inner.ReadASN1(&privateKey, cryptobyte_asn1.OCTET_STRING) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid ec private key, want OCTET STRING")
	}
	if len(privateKey) != PrivateKeySize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: ec private key must be %d bytes, got %d", PrivateKeySize, len(privateKey))
	}
	key := &ECPrivateKey{
		PrivateKey: append([]byte{}, privateKey...),
	}
	var parameters cryptobyte.String
	var hasParameters bool
	if !inner.ReadOptionalASN1(&parameters, &hasParameters, parametersTag) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid ec parameters")
	}
	if hasParameters {
		if !parameters.PeekASN1Tag(cryptobyte_asn1.OBJECT_IDENTIFIER) {
			return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "sec1: only named curve parameters are supported")
		}
		var curve asn1.ObjectIdentifier
		if !parameters.ReadASN1ObjectIdentifier(&curve) || !parameters.Empty() {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid named curve")
		}
		key.NamedCurve = curve
	}
	var publicKey cryptobyte.String
	var hasPublicKey bool
	if !inner.ReadOptionalASN1(&publicKey, &hasPublicKey, publicKeyTag) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid public key")
	}
	if hasPublicKey {
		var point []byte
		if !publicKey.ReadASN1BitStringAsBytes(&point) || !publicKey.Empty() {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: invalid public key, want octet aligned BIT STRING")
		}
		key.PublicKey = append([]byte{}, point...)
	}
	if !inner.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "sec1: trailing data in ec private key")
	}
	return key, nil
}

func (key *ECPrivateKey) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(Version)
		b.AddASN1OctetString(key.PrivateKey)
		if key.NamedCurve != nil {
			b.AddASN1(parametersTag, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(key.NamedCurve)
			})
		}
		if key.PublicKey != nil {
			b.AddASN1(publicKeyTag, func(b *cryptobyte.Builder) {
				b.AddASN1BitString(key.PublicKey)
			})
		}
	})
	return b.Bytes()
}
