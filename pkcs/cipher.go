package pkcs

import (
	"encoding/asn1"
	"sync"

	"github.com/aacfactory/afkey/keyerrors"
	"golang.org/x/crypto/cryptobyte"
)

// Pbes2EncryptionScheme is one arm of the PBES2 encryptionScheme choice.
type Pbes2EncryptionScheme interface {
	AddTo(b *cryptobyte.Builder)
	KeySize() int
	Decrypt(key []byte, ciphertext []byte) ([]byte, error)
	Encrypt(key []byte, plaintext []byte) ([]byte, error)
}

// KeyDerivationFunc is one arm of the PBES2 keyDerivationFunc choice.
type KeyDerivationFunc interface {
	AddTo(b *cryptobyte.Builder)
	Derive(password []byte, keySize int) ([]byte, error)
}

type CipherParser func(parameters []byte, options *Options) (Pbes2EncryptionScheme, error)

type KeyDerivationFuncParser func(parameters []byte) (KeyDerivationFunc, error)

var (
	registryLock sync.RWMutex
	ciphers      = make(map[string]CipherParser)
	kdfs         = make(map[string]KeyDerivationFuncParser)
)

// RegisterCipher makes an encryption scheme available to PBES2 parsing.
// Registration happens from init functions; lookups after that are read only.
func RegisterCipher(id asn1.ObjectIdentifier, parser CipherParser) {
	registryLock.Lock()
	ciphers[id.String()] = parser
	registryLock.Unlock()
}

func RegisterKeyDerivationFunc(id asn1.ObjectIdentifier, parser KeyDerivationFuncParser) {
	registryLock.Lock()
	kdfs[id.String()] = parser
	registryLock.Unlock()
}

func GetCipher(alg AlgorithmIdentifier, opts ...Option) (Pbes2EncryptionScheme, error) {
	registryLock.RLock()
	parser, has := ciphers[alg.Algorithm.String()]
	registryLock.RUnlock()
	if !has {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported pbes2 encryption scheme %v", alg.Algorithm)
	}
	return parser(alg.Parameters, newOptions(opts))
}

func GetKeyDerivationFunc(alg AlgorithmIdentifier) (KeyDerivationFunc, error) {
	registryLock.RLock()
	parser, has := kdfs[alg.Algorithm.String()]
	registryLock.RUnlock()
	if !has {
		return nil, keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "pkcs: unsupported pbes2 key derivation function %v", alg.Algorithm)
	}
	return parser(alg.Parameters)
}
