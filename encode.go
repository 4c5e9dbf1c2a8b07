package afkey

import (
	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"github.com/aacfactory/afkey/pem"
	"github.com/aacfactory/afkey/pkcs"
	"github.com/aacfactory/afkey/pkcs8"
	"github.com/aacfactory/afkey/sec1"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/cryptobyte"
)

// MarshalPrivateKey writes key as an unencrypted "PRIVATE KEY" PEM document.
func MarshalPrivateKey(key *KeyMaterial) ([]byte, error) {
	der, err := marshalPrivateKeyInfo(key)
	if err != nil {
		return nil, err
	}
	defer clear(der)
	return pem.Encode(&pem.Document{
		Type:  PemPrivateKey,
		Bytes: der,
	}), nil
}

// EncryptPrivateKey writes key as an "ENCRYPTED PRIVATE KEY" PEM document protected by
// PBES2 with PBKDF2-HMAC-SHA256 and AES-128-CBC.
func EncryptPrivateKey(key *KeyMaterial, password []byte, opts ...Option) ([]byte, error) {
	if len(password) == 0 {
		return nil, keyerrors.New(keyerrors.MissingPasswordKind, "afkey: password is required to encrypt a private key")
	}
	options, optErr := newOptions(opts)
	if optErr != nil {
		return nil, optErr
	}
	info, infoErr := privateKeyInfo(key)
	if infoErr != nil {
		return nil, infoErr
	}
	defer clear(info.PrivateKey)
	scheme, schemeErr := pkcs.GeneratePbes2Params(options.random, options.iterationCount, pkcs.WithBackend(options.backend))
	if schemeErr != nil {
		return nil, schemeErr
	}
	encrypted, encryptErr := pkcs8.EncryptPrivateKeyInfo(info, password, scheme)
	if encryptErr != nil {
		return nil, encryptErr
	}
	der, marshalErr := encrypted.Marshal()
	if marshalErr != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, marshalErr, "afkey: marshal encrypted private key info failed")
	}
	options.logger.Debug("afkey: private key encrypted",
		"algorithm", string(key.Algorithm),
		"iterations", options.iterationCount,
		"backend", options.backend.Name(),
	)
	return pem.Encode(&pem.Document{
		Type:  PemEncryptedPrivateKey,
		Bytes: der,
	}), nil
}

// MarshalPublicKey writes key as a "PUBLIC KEY" PEM document. secp256k1 points are written uncompressed.
func MarshalPublicKey(key *PublicKeyMaterial) ([]byte, error) {
	var info pkcs8.SubjectPublicKeyInfo
	switch key.Algorithm {
	case Ed25519:
		if len(key.Public) != Ed25519PublicSize {
			return nil, keyerrors.New(keyerrors.DerStructureKind, "afkey: ed25519 public key must be %d bytes, got %d", Ed25519PublicSize, len(key.Public))
		}
		info.Algorithm = pkcs.NewAlgorithmIdentifier(oid.Ed25519, nil)
		info.PublicKey = key.Public
	case EcdsaSecp256k1:
		point, parseErr := secp256k1.ParsePubKey(key.Public)
		if parseErr != nil {
			return nil, keyerrors.Wrap(keyerrors.DerStructureKind, parseErr, "afkey: invalid secp256k1 public key")
		}
		parameters, parametersErr := secp256k1Parameters()
		if parametersErr != nil {
			return nil, parametersErr
		}
		info.Algorithm = pkcs.NewAlgorithmIdentifier(oid.ECPublicKey, parameters)
		info.PublicKey = point.SerializeUncompressed()
	default:
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", key.Algorithm)
	}
	der, err := info.Marshal()
	if err != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, err, "afkey: marshal subject public key info failed")
	}
	return pem.Encode(&pem.Document{
		Type:  PemPublicKey,
		Bytes: der,
	}), nil
}

func marshalPrivateKeyInfo(key *KeyMaterial) ([]byte, error) {
	info, err := privateKeyInfo(key)
	if err != nil {
		return nil, err
	}
	defer clear(info.PrivateKey)
	der, marshalErr := info.Marshal()
	if marshalErr != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, marshalErr, "afkey: marshal private key info failed")
	}
	return der, nil
}

// privateKeyInfo builds a version 1 PrivateKeyInfo, the layout OpenSSL writes for both key types.
func privateKeyInfo(key *KeyMaterial) (*pkcs8.PrivateKeyInfo, error) {
	switch key.Algorithm {
	case Ed25519:
		if _, err := key.Ed25519(); err != nil {
			return nil, err
		}
		var b cryptobyte.Builder
		b.AddASN1OctetString(key.Secret)
		inner, err := b.Bytes()
		if err != nil {
			return nil, keyerrors.Wrap(keyerrors.DerStructureKind, err, "afkey: marshal ed25519 private key failed")
		}
		return &pkcs8.PrivateKeyInfo{
			Algorithm:  pkcs.NewAlgorithmIdentifier(oid.Ed25519, nil),
			PrivateKey: inner,
		}, nil
	case EcdsaSecp256k1:
		pri, err := key.Secp256k1()
		if err != nil {
			return nil, err
		}
		defer pri.Zero()
		ec := sec1.ECPrivateKey{
			PrivateKey: key.Secret,
			PublicKey:  pri.PubKey().SerializeUncompressed(),
		}
		inner, marshalErr := ec.Marshal()
		if marshalErr != nil {
			return nil, keyerrors.Wrap(keyerrors.DerStructureKind, marshalErr, "afkey: marshal ec private key failed")
		}
		parameters, parametersErr := secp256k1Parameters()
		if parametersErr != nil {
			clear(inner)
			return nil, parametersErr
		}
		return &pkcs8.PrivateKeyInfo{
			Algorithm:  pkcs.NewAlgorithmIdentifier(oid.ECPublicKey, parameters),
			PrivateKey: inner,
		}, nil
	default:
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "afkey: unsupported key algorithm %q", key.Algorithm)
	}
}

func secp256k1Parameters() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid.Secp256k1.OID())
	parameters, err := b.Bytes()
	if err != nil {
		return nil, keyerrors.Wrap(keyerrors.DerStructureKind, err, "afkey: marshal secp256k1 parameters failed")
	}
	return parameters, nil
}
