package pkcs

import (
	"bytes"
	"encoding/asn1"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var nullParameters = []byte{0x05, 0x00}

// AlgorithmIdentifier is the (OID, optional ANY) pair of RFC 5280.
// Parameters holds the complete DER element of the ANY value and is nil when absent.
type AlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters []byte
}

func NewAlgorithmIdentifier(name oid.Name, parameters []byte) AlgorithmIdentifier {
	return AlgorithmIdentifier{
		Algorithm:  name.OID(),
		Parameters: parameters,
	}
}

func ParseAlgorithmIdentifier(der []byte) (alg AlgorithmIdentifier, err error) {
	input := cryptobyte.String(der)
	alg, err = ReadAlgorithmIdentifier(&input)
	if err != nil {
		return
	}
	if !input.Empty() {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs: trailing data after algorithm identifier")
		return
	}
	return
}

func ReadAlgorithmIdentifier(input *cryptobyte.String) (alg AlgorithmIdentifier, err error) {
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid algorithm identifier, want SEQUENCE")
		return
	}
	if !inner.ReadASN1ObjectIdentifier(&alg.Algorithm) {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid algorithm identifier, want OBJECT IDENTIFIER")
		return
	}
	if inner.Empty() {
		return
	}
	var parameters cryptobyte.String
	var tag cryptobyte_asn1.Tag
	if !inner.ReadAnyASN1Element(&parameters, &tag) || !inner.Empty() {
		err = keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid algorithm identifier parameters")
		return
	}
	alg.Parameters = append([]byte{}, parameters...)
	return
}

func (alg AlgorithmIdentifier) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(alg.Algorithm)
		if alg.Parameters != nil {
			b.AddBytes(alg.Parameters)
		}
	})
}

func (alg AlgorithmIdentifier) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	alg.AddTo(&b)
	return b.Bytes()
}

// Name resolves the algorithm through the OID registry.
func (alg AlgorithmIdentifier) Name() (name oid.Name, err error) {
	name, has := oid.Lookup(alg.Algorithm)
	if !has {
		err = keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported algorithm %v", alg.Algorithm)
		return
	}
	return
}

func (alg AlgorithmIdentifier) Is(name oid.Name) bool {
	return oid.Is(alg.Algorithm, name)
}

func (alg AlgorithmIdentifier) HasParameters() bool {
	return alg.Parameters != nil
}

func (alg AlgorithmIdentifier) HasNullParameters() bool {
	return bytes.Equal(alg.Parameters, nullParameters)
}

// ParametersOID decodes the parameters as a single OBJECT IDENTIFIER, as used by named curves.
func (alg AlgorithmIdentifier) ParametersOID() (id asn1.ObjectIdentifier, ok bool) {
	if alg.Parameters == nil {
		return
	}
	input := cryptobyte.String(alg.Parameters)
	if !input.ReadASN1ObjectIdentifier(&id) || !input.Empty() {
		id = nil
		return
	}
	ok = true
	return
}

func (alg AlgorithmIdentifier) Equal(other AlgorithmIdentifier) bool {
	return alg.Algorithm.Equal(other.Algorithm) && bytes.Equal(alg.Parameters, other.Parameters) && (alg.Parameters == nil) == (other.Parameters == nil)
}
