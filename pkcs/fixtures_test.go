package pkcs_test

import (
	"encoding/hex"
	"testing"

	"github.com/aacfactory/afkey/pkcs"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// EncryptedPrivateKeyInfo written by `openssl pkcs8 -topk8 -v2 aes-128-cbc -v2prf hmacWithSHA256`
// for an Ed25519 key, password "test".
const encryptedEd25519Hex = "30819b305706092a864886f70d01050d304a302906092a864886f70d01050c301c0408952862cbaa277f0d" +
	"02020800300c06082a864886f70d02090500301d0609608648016503040102041005c87e6337b6ea22eeb2e9" +
	"5666d1bf930440b24ba7795d7eccc581d9b21544e5b33be83053d7208e4664beb371aff191533a49bd1477c3" +
	"f861d7a4de42db59fce07391affca39c7fb7df348d6f6ba8fe6f55"

const ed25519PrivateKeyInfoHex = "302e020100300506032b657004220420db484b828e64b2d8f12ce3c0a0e93a0b8cce7af1bb8f39c97732394482538e10"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	p, err := hex.DecodeString(s)
	require.NoError(t, err)
	return p
}

// splitEncrypted returns the encryptionAlgorithm and encryptedData of an EncryptedPrivateKeyInfo.
func splitEncrypted(t *testing.T, der []byte) (pkcs.AlgorithmIdentifier, []byte) {
	t.Helper()
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	require.True(t, input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE))
	alg, err := pkcs.ReadAlgorithmIdentifier(&inner)
	require.NoError(t, err)
	var data cryptobyte.String
	require.True(t, inner.ReadASN1(&data, cryptobyte_asn1.OCTET_STRING))
	return alg, data
}

func build(t *testing.T, fn func(b *cryptobyte.Builder)) []byte {
	t.Helper()
	var b cryptobyte.Builder
	fn(&b)
	p, err := b.Bytes()
	require.NoError(t, err)
	return p
}
