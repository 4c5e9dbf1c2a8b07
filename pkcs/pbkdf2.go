package pkcs

import (
	"math"

	"github.com/aacfactory/afkey/digest"
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/pbkdf2"
)

const (
	MinIterationCount = 1
	// MaxIterationCount caps the work a single key file can demand from PBKDF2.
	MaxIterationCount = 10_000_000
	DefaultPRF        = oid.HMACWithSHA1
)

func init() {
	RegisterKeyDerivationFunc(oid.PBKDF2.OID(), func(parameters []byte) (KeyDerivationFunc, error) {
		if parameters == nil {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 parameters are missing")
		}
		return ParsePbkdf2Params(parameters)
	})
}

// Pbkdf2Params is PBKDF2-params from RFC 8018 A.2. Values are validated on construction
// and immutable afterwards.
type Pbkdf2Params struct {
	salt           []byte
	iterationCount uint32
	keyLength      uint16
	prf            oid.Name
}

// NewPbkdf2Params builds parameters; keyLength 0 means the field is absent
// and prf "" selects the DEFAULT hmacWithSHA1.
func NewPbkdf2Params(salt []byte, iterationCount uint32, keyLength uint16, prf oid.Name) (*Pbkdf2Params, error) {
	if iterationCount < MinIterationCount || iterationCount > MaxIterationCount {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 iteration count %d is outside [%d, %d]", iterationCount, MinIterationCount, MaxIterationCount)
	}
	if prf == "" {
		prf = DefaultPRF
	}
	if !digest.IsHMAC(prf) {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported pbkdf2 prf %s", prf)
	}
	return &Pbkdf2Params{
		salt:           append([]byte(nil), salt...),
		iterationCount: iterationCount,
		keyLength:      keyLength,
		prf:            prf,
	}, nil
}

func ParsePbkdf2Params(der []byte) (*Pbkdf2Params, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbkdf2 parameters, want SEQUENCE")
	}
	if !inner.PeekASN1Tag(cryptobyte_asn1.OCTET_STRING) {
		if inner.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
			return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: pbkdf2 salt from otherSource is not supported")
		}
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbkdf2 salt, want OCTET STRING")
	}
	var salt cryptobyte.String
	if !inner.ReadASN1(&salt, cryptobyte_asn1.OCTET_STRING) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbkdf2 salt")
	}
	var iterationCount int64
	if !inner.ReadASN1Integer(&iterationCount) {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbkdf2 iteration count, want INTEGER")
	}
	if iterationCount < MinIterationCount || iterationCount > MaxIterationCount {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 iteration count %d is outside [%d, %d]", iterationCount, MinIterationCount, MaxIterationCount)
	}
	var keyLength int64
	if inner.PeekASN1Tag(cryptobyte_asn1.INTEGER) {
		if !inner.ReadASN1Integer(&keyLength) {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: invalid pbkdf2 key length, want INTEGER")
		}
		if keyLength < 1 || keyLength > math.MaxUint16 {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 key length %d is outside [1, %d]", keyLength, math.MaxUint16)
		}
	}
	prf := DefaultPRF
	if !inner.Empty() {
		alg, algErr := ReadAlgorithmIdentifier(&inner)
		if algErr != nil {
			return nil, algErr
		}
		name, nameErr := alg.Name()
		if nameErr != nil {
			return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported pbkdf2 prf %v", alg.Algorithm)
		}
		if !digest.IsHMAC(name) {
			return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported pbkdf2 prf %s", name)
		}
		if !alg.HasNullParameters() {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 prf %s parameters must be NULL", name)
		}
		if name == DefaultPRF {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: pbkdf2 prf %s is the DEFAULT and must be omitted", name)
		}
		prf = name
	}
	if !inner.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: trailing data in pbkdf2 parameters")
	}
	return NewPbkdf2Params(salt, uint32(iterationCount), uint16(keyLength), prf)
}

func (params *Pbkdf2Params) Salt() []byte {
	return append([]byte(nil), params.salt...)
}

func (params *Pbkdf2Params) IterationCount() uint32 {
	return params.iterationCount
}

func (params *Pbkdf2Params) KeyLength() (keyLength uint16, has bool) {
	keyLength = params.keyLength
	has = keyLength > 0
	return
}

func (params *Pbkdf2Params) PRF() oid.Name {
	return params.prf
}

// Derive runs PBKDF2 for keySize bytes. An explicit keyLength that disagrees with keySize
// is an error rather than a hint.
func (params *Pbkdf2Params) Derive(password []byte, keySize int) ([]byte, error) {
	if keySize < 1 {
		return nil, keyerrors.New(keyerrors.KeySizeMismatchKind, "pkcs: pbkdf2 key size must be positive, got %d", keySize)
	}
	if params.keyLength != 0 && int(params.keyLength) != keySize {
		return nil, keyerrors.New(keyerrors.KeySizeMismatchKind, "pkcs: pbkdf2 key length %d does not match required key size %d", params.keyLength, keySize)
	}
	fn, err := digest.New(params.prf)
	if err != nil {
		return nil, err
	}
	return pbkdf2.Key(password, params.salt, int(params.iterationCount), keySize, fn), nil
}

func (params *Pbkdf2Params) addParameters(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1OctetString(params.salt)
		b.AddASN1Uint64(uint64(params.iterationCount))
		if params.keyLength != 0 {
			b.AddASN1Uint64(uint64(params.keyLength))
		}
		if params.prf != DefaultPRF {
			NewAlgorithmIdentifier(params.prf, nullParameters).AddTo(b)
		}
	})
}

// AddTo writes the complete AlgorithmIdentifier {PBKDF2, params}.
func (params *Pbkdf2Params) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid.PBKDF2.OID())
		params.addParameters(b)
	})
}

// Marshal returns the DER of PBKDF2-params alone.
func (params *Pbkdf2Params) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	params.addParameters(&b)
	return b.Bytes()
}
