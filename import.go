package afkey

import (
	"log/slog"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"github.com/aacfactory/afkey/pem"
	"github.com/aacfactory/afkey/pkcs"
	"github.com/aacfactory/afkey/pkcs8"
	"github.com/aacfactory/afkey/sec1"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	PemPrivateKey          = "PRIVATE KEY"
	PemEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PemECPrivateKey        = "EC PRIVATE KEY"
	PemPublicKey           = "PUBLIC KEY"
)

// Imported is the result of Import. Exactly one of PrivateKey and PublicKey is set.
type Imported struct {
	Type       string
	PrivateKey *KeyMaterial
	PublicKey  *PublicKeyMaterial
}

// ImportPrivateKey decodes a "PRIVATE KEY", "ENCRYPTED PRIVATE KEY" or "EC PRIVATE KEY" PEM document.
// password is only consulted for encrypted documents.
func ImportPrivateKey(text []byte, password []byte, opts ...Option) (key *KeyMaterial, err error) {
	options, optErr := newOptions(opts)
	if optErr != nil {
		err = optErr
		return
	}
	im := newImporter(options)
	doc, decodeErr := im.decode(text)
	if decodeErr != nil {
		err = decodeErr
		return
	}
	if doc.Type == PemPublicKey {
		err = im.fail(keyerrors.New(keyerrors.PemFormatKind, "afkey: pem type %q is not a private key", doc.Type))
		return
	}
	key, err = im.privateKey(doc.Type, doc.Bytes, password)
	return
}

// ImportPublicKey decodes a "PUBLIC KEY" PEM document.
func ImportPublicKey(text []byte, opts ...Option) (key *PublicKeyMaterial, err error) {
	options, optErr := newOptions(opts)
	if optErr != nil {
		err = optErr
		return
	}
	im := newImporter(options)
	doc, decodeErr := im.decode(text)
	if decodeErr != nil {
		err = decodeErr
		return
	}
	switch doc.Type {
	case PemPublicKey:
		key, err = im.publicKey(doc.Bytes)
	case PemPrivateKey, PemEncryptedPrivateKey, PemECPrivateKey:
		err = im.fail(keyerrors.New(keyerrors.PemFormatKind, "afkey: pem type %q is not a public key", doc.Type))
	default:
		err = im.fail(unsupportedPemType(doc.Type))
	}
	return
}

// Import accepts any of the four supported PEM types.
func Import(text []byte, password []byte, opts ...Option) (imported *Imported, err error) {
	options, optErr := newOptions(opts)
	if optErr != nil {
		err = optErr
		return
	}
	im := newImporter(options)
	doc, decodeErr := im.decode(text)
	if decodeErr != nil {
		err = decodeErr
		return
	}
	imported = &Imported{
		Type: doc.Type,
	}
	if doc.Type == PemPublicKey {
		imported.PublicKey, err = im.publicKey(doc.Bytes)
	} else {
		imported.PrivateKey, err = im.privateKey(doc.Type, doc.Bytes, password)
	}
	if err != nil {
		imported = nil
	}
	return
}

// ImportPrivateKeyDER decodes an unarmored PrivateKeyInfo, EncryptedPrivateKeyInfo or SEC1 ECPrivateKey.
// The structure is recognised from its first fields.
func ImportPrivateKeyDER(der []byte, password []byte, opts ...Option) (key *KeyMaterial, err error) {
	options, optErr := newOptions(opts)
	if optErr != nil {
		err = optErr
		return
	}
	im := newImporter(options)
	label, sniffErr := sniffPrivateKeyDER(der)
	if sniffErr != nil {
		err = im.fail(sniffErr)
		return
	}
	im.pemType = label
	im.transit(DecodedEnvelope, slog.String("encoding", "der"))
	key, err = im.privateKey(label, der, password)
	return
}

func unsupportedPemType(label string) error {
	return keyerrors.New(keyerrors.PemFormatKind, "afkey: unsupported pem type %q", label)
}

func (im *importer) decode(text []byte) (doc *pem.Document, err error) {
	doc, err = pem.Decode(text)
	if err != nil {
		doc = nil
		err = im.fail(err)
		return
	}
	im.pemType = doc.Type
	im.transit(DecodedEnvelope, slog.Int("headers", len(doc.Headers)))
	return
}

func (im *importer) privateKey(label string, der []byte, password []byte) (key *KeyMaterial, err error) {
	switch label {
	case PemPrivateKey:
		info, parseErr := pkcs8.ParsePrivateKeyInfo(der)
		if parseErr != nil {
			err = im.fail(parseErr)
			return
		}
		key, err = im.fromPrivateKeyInfo(info)
	case PemEncryptedPrivateKey:
		// envelope errors take precedence over a missing password
		encrypted, parseErr := pkcs8.ParseEncryptedPrivateKeyInfo(der, pkcs.WithBackend(im.options.backend))
		if parseErr != nil {
			err = im.fail(parseErr)
			return
		}
		if len(password) == 0 {
			err = im.fail(keyerrors.New(keyerrors.MissingPasswordKind, "afkey: password is required for an encrypted private key"))
			return
		}
		im.transit(Decrypting, slog.String("backend", im.options.backend.Name()))
		info, decryptErr := encrypted.DecryptPrivateKeyInfo(password)
		if decryptErr != nil {
			err = im.fail(decryptErr)
			return
		}
		key, err = im.fromPrivateKeyInfo(info)
	case PemECPrivateKey:
		ec, parseErr := sec1.ParseECPrivateKey(der)
		if parseErr != nil {
			err = im.fail(parseErr)
			return
		}
		key, err = im.fromECPrivateKey(ec)
	default:
		err = im.fail(unsupportedPemType(label))
		return
	}
	if err != nil {
		key = nil
		return
	}
	im.transit(DecodedKey, slog.String("algorithm", string(key.Algorithm)))
	return
}

func (im *importer) publicKey(der []byte) (key *PublicKeyMaterial, err error) {
	info, parseErr := pkcs8.ParseSubjectPublicKeyInfo(der)
	if parseErr != nil {
		err = im.fail(parseErr)
		return
	}
	switch {
	case info.Algorithm.Is(oid.Ed25519):
		if info.Algorithm.HasParameters() {
			err = im.fail(keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 algorithm parameters must be absent"))
			return
		}
		key, err = newEd25519PublicMaterial(info.PublicKey)
	case info.Algorithm.Is(oid.ECPublicKey):
		if curveErr := checkSecp256k1Parameters(info.Algorithm); curveErr != nil {
			err = im.fail(curveErr)
			return
		}
		key, err = newSecp256k1PublicMaterial(info.PublicKey)
	default:
		err = im.fail(keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported public key algorithm %v", info.Algorithm.Algorithm))
		return
	}
	if err != nil {
		key = nil
		err = im.fail(err)
		return
	}
	im.transit(DecodedKey, slog.String("algorithm", string(key.Algorithm)))
	return
}

func (im *importer) fromPrivateKeyInfo(info *pkcs8.PrivateKeyInfo) (key *KeyMaterial, err error) {
	defer clear(info.PrivateKey)
	switch {
	case info.Algorithm.Is(oid.Ed25519):
		if info.Algorithm.HasParameters() {
			err = im.fail(keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 algorithm parameters must be absent"))
			return
		}
		input := cryptobyte.String(info.PrivateKey)
		var seed cryptobyte.String
		if !input.ReadASN1(&seed, cryptobyte_asn1.OCTET_STRING) || !input.Empty() {
			err = im.fail(keyerrors.New(keyerrors.DerStructureKind, "afkey: invalid ed25519 private key, want OCTET STRING"))
			return
		}
		key, err = newEd25519Material(seed, info.PublicKey)
	case info.Algorithm.Is(oid.ECPublicKey):
		if curveErr := checkSecp256k1Parameters(info.Algorithm); curveErr != nil {
			err = im.fail(curveErr)
			return
		}
		ec, parseErr := sec1.ParseECPrivateKey(info.PrivateKey)
		if parseErr != nil {
			err = im.fail(parseErr)
			return
		}
		defer clear(ec.PrivateKey)
		if ec.NamedCurve != nil && !oid.Is(ec.NamedCurve, oid.Secp256k1) {
			err = im.fail(keyerrors.New(keyerrors.DerStructureKind, "afkey: ec private key curve %v does not match the algorithm curve", ec.NamedCurve))
			return
		}
		key, err = newSecp256k1Material(ec.PrivateKey, ec.PublicKey, info.PublicKey)
	default:
		err = im.fail(keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported private key algorithm %v", info.Algorithm.Algorithm))
		return
	}
	if err != nil {
		key = nil
		err = im.fail(err)
	}
	return
}

func (im *importer) fromECPrivateKey(ec *sec1.ECPrivateKey) (key *KeyMaterial, err error) {
	defer clear(ec.PrivateKey)
	curve := ec.NamedCurve
	if curve == nil {
		if im.options.implicitCurve == nil {
			err = im.fail(keyerrors.New(keyerrors.DerStructureKind, "afkey: ec private key does not name its curve"))
			return
		}
		curve = im.options.implicitCurve
		im.options.logger.Debug("afkey: ec private key uses the implicit curve", slog.String("curve", curve.String()))
	}
	if !oid.Is(curve, oid.Secp256k1) {
		err = im.fail(keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported ec curve %v", curve))
		return
	}
	key, err = newSecp256k1Material(ec.PrivateKey, ec.PublicKey)
	if err != nil {
		key = nil
		err = im.fail(err)
	}
	return
}

// checkSecp256k1Parameters validates the ECParameters of an id-ecPublicKey AlgorithmIdentifier.
func checkSecp256k1Parameters(alg pkcs.AlgorithmIdentifier) error {
	if !alg.HasParameters() {
		return keyerrors.New(keyerrors.DerStructureKind, "afkey: ec algorithm parameters are missing")
	}
	curve, ok := alg.ParametersOID()
	if !ok {
		return keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: only named curve parameters are supported")
	}
	if !oid.Is(curve, oid.Secp256k1) {
		return keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported ec curve %v", curve)
	}
	return nil
}

// sniffPrivateKeyDER tells the three private key structures apart:
// EncryptedPrivateKeyInfo opens with SEQUENCE then OCTET STRING, PrivateKeyInfo with INTEGER
// then SEQUENCE, ECPrivateKey with INTEGER then OCTET STRING.
func sniffPrivateKeyDER(der []byte) (label string, err error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) {
		err = keyerrors.New(keyerrors.DerStructureKind, "afkey: invalid private key, want SEQUENCE")
		return
	}
	if inner.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
		if !inner.SkipASN1(cryptobyte_asn1.SEQUENCE) || !inner.PeekASN1Tag(cryptobyte_asn1.OCTET_STRING) {
			err = keyerrors.New(keyerrors.DerStructureKind, "afkey: unrecognised private key structure, want AlgorithmIdentifier then OCTET STRING")
			return
		}
		label = PemEncryptedPrivateKey
		return
	}
	if !inner.SkipASN1(cryptobyte_asn1.INTEGER) {
		err = keyerrors.New(keyerrors.DerStructureKind, "afkey: invalid private key, want INTEGER version")
		return
	}
	switch {
	case inner.PeekASN1Tag(cryptobyte_asn1.SEQUENCE):
		label = PemPrivateKey
	case inner.PeekASN1Tag(cryptobyte_asn1.OCTET_STRING):
		label = PemECPrivateKey
	default:
		err = keyerrors.New(keyerrors.DerStructureKind, "afkey: unrecognised private key structure")
	}
	return
}
