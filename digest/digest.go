package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"golang.org/x/crypto/sha3"
)

const Keccak256Size = 32

var hashes = map[oid.Name]func() hash.Hash{
	oid.HMACWithSHA1:   sha1.New,
	oid.HMACWithSHA224: sha256.New224,
	oid.HMACWithSHA256: sha256.New,
	oid.HMACWithSHA384: sha512.New384,
	oid.HMACWithSHA512: sha512.New,
	oid.SHA256:         sha256.New,
	oid.SHA384:         sha512.New384,
	oid.SHA512:         sha512.New,
}

// New returns the hash constructor behind a digest or HMAC algorithm name.
// For the hmacWith* names it is the underlying hash the HMAC is keyed over.
func New(name oid.Name) (fn func() hash.Hash, err error) {
	fn, has := hashes[name]
	if !has {
		err = keyerrors.New(keyerrors.UnsupportedAlgorithmKind, "digest: %s is not a supported hash", name)
		return
	}
	return
}

func IsHMAC(name oid.Name) bool {
	switch name {
	case oid.HMACWithSHA1, oid.HMACWithSHA224, oid.HMACWithSHA256, oid.HMACWithSHA384, oid.HMACWithSHA512:
		return true
	default:
		return false
	}
}

func NewKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// Keccak256 is the pre-standard Keccak variant used by the ledger for ECDSA message digests.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range data {
		h.Write(p)
	}
	return h.Sum(nil)
}

func Sum(name oid.Name, data []byte) ([]byte, error) {
	fn, err := New(name)
	if err != nil {
		return nil, err
	}
	h := fn()
	if _, writeErr := h.Write(data); writeErr != nil {
		return nil, fmt.Errorf("digest: write failed, %v", writeErr)
	}
	return h.Sum(nil), nil
}
