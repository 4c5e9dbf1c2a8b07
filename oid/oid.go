package oid

import (
	"encoding/asn1"
)

type Name string

const (
	Ed25519        = Name("Ed25519")
	ECPublicKey    = Name("id-ecPublicKey")
	Secp256k1      = Name("secp256k1")
	PBKDF2         = Name("PBKDF2")
	PBES2          = Name("PBES2")
	AES128CBC      = Name("aes128-CBC-PAD")
	HMACWithSHA1   = Name("hmacWithSHA1")
	HMACWithSHA224 = Name("hmacWithSHA224")
	HMACWithSHA256 = Name("hmacWithSHA256")
	HMACWithSHA384 = Name("hmacWithSHA384")
	HMACWithSHA512 = Name("hmacWithSHA512")
	SHA256         = Name("sha256")
	SHA384         = Name("sha384")
	SHA512         = Name("sha512")
)

var registry = map[Name]asn1.ObjectIdentifier{
	Ed25519:        {1, 3, 101, 112},
	ECPublicKey:    {1, 2, 840, 10045, 2, 1},
	Secp256k1:      {1, 3, 132, 0, 10},
	PBKDF2:         {1, 2, 840, 113549, 1, 5, 12},
	PBES2:          {1, 2, 840, 113549, 1, 5, 13},
	AES128CBC:      {2, 16, 840, 1, 101, 3, 4, 1, 2},
	HMACWithSHA1:   {1, 2, 840, 113549, 2, 7},
	HMACWithSHA224: {1, 2, 840, 113549, 2, 8},
	HMACWithSHA256: {1, 2, 840, 113549, 2, 9},
	HMACWithSHA384: {1, 2, 840, 113549, 2, 10},
	HMACWithSHA512: {1, 2, 840, 113549, 2, 11},
	SHA256:         {2, 16, 840, 1, 101, 3, 4, 2, 1},
	SHA384:         {2, 16, 840, 1, 101, 3, 4, 2, 2},
	SHA512:         {2, 16, 840, 1, 101, 3, 4, 2, 3},
}

var names = func() map[string]Name {
	m := make(map[string]Name, len(registry))
	for name, id := range registry {
		m[id.String()] = name
	}
	return m
}()

// OID returns a copy of the registered identifier, nil for names outside the registry.
func (name Name) OID() asn1.ObjectIdentifier {
	id, has := registry[name]
	if !has {
		return nil
	}
	v := make(asn1.ObjectIdentifier, len(id))
	copy(v, id)
	return v
}

func (name Name) Known() bool {
	_, has := registry[name]
	return has
}

func (name Name) String() string {
	if name == "" {
		return "unknown"
	}
	return string(name)
}

func Lookup(id asn1.ObjectIdentifier) (name Name, has bool) {
	if len(id) == 0 {
		return
	}
	name, has = names[id.String()]
	return
}

func Is(id asn1.ObjectIdentifier, name Name) bool {
	registered, has := registry[name]
	if !has {
		return false
	}
	return registered.Equal(id)
}
