package pkcs_test

import (
	"encoding/hex"
	"testing"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"github.com/aacfactory/afkey/pkcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

func TestPbkdf2KnownAnswer(t *testing.T) {
	params, err := pkcs.NewPbkdf2Params(make([]byte, 16), 1000, 0, oid.HMACWithSHA256)
	require.NoError(t, err)
	key, deriveErr := params.Derive([]byte("password"), 32)
	require.NoError(t, deriveErr)
	assert.Equal(t, "7460518eb1741d7be7b2914828b97011abdb01f2e6e94ff954490a5c74be5554", hex.EncodeToString(key))
}

func TestPbkdf2IterationBounds(t *testing.T) {
	salt := []byte("saltsalt")
	for _, n := range []uint32{pkcs.MinIterationCount, 2048, pkcs.MaxIterationCount} {
		params, err := pkcs.NewPbkdf2Params(salt, n, 0, "")
		require.NoError(t, err, n)
		der, marshalErr := params.Marshal()
		require.NoError(t, marshalErr)
		parsed, parseErr := pkcs.ParsePbkdf2Params(der)
		require.NoError(t, parseErr, n)
		assert.Equal(t, n, parsed.IterationCount())
	}
	for _, n := range []uint32{0, pkcs.MaxIterationCount + 1} {
		_, err := pkcs.NewPbkdf2Params(salt, n, 0, "")
		assert.ErrorIs(t, err, keyerrors.ErrDerStructure, n)

		der := build(t, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(salt)
				b.AddASN1Uint64(uint64(n))
			})
		})
		_, err = pkcs.ParsePbkdf2Params(der)
		assert.ErrorIs(t, err, keyerrors.ErrDerStructure, n)
	}
}

func TestPbkdf2RoundTrip(t *testing.T) {
	cases := []struct {
		keyLength uint16
		prf       oid.Name
	}{
		{0, ""},
		{16, ""},
		{0, oid.HMACWithSHA256},
		{32, oid.HMACWithSHA512},
	}
	for _, c := range cases {
		params, err := pkcs.NewPbkdf2Params([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 4096, c.keyLength, c.prf)
		require.NoError(t, err)
		der, marshalErr := params.Marshal()
		require.NoError(t, marshalErr)
		parsed, parseErr := pkcs.ParsePbkdf2Params(der)
		require.NoError(t, parseErr)
		assert.Equal(t, params.Salt(), parsed.Salt())
		assert.Equal(t, params.IterationCount(), parsed.IterationCount())
		assert.Equal(t, params.PRF(), parsed.PRF())
		keyLength, has := parsed.KeyLength()
		assert.Equal(t, c.keyLength != 0, has)
		assert.Equal(t, c.keyLength, keyLength)
		again, _ := parsed.Marshal()
		assert.Equal(t, der, again)
	}
}

func TestPbkdf2OpenSSLParameters(t *testing.T) {
	der := mustHex(t, "301c0408952862cbaa277f0d02020800300c06082a864886f70d02090500")
	params, err := pkcs.ParsePbkdf2Params(der)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "952862cbaa277f0d"), params.Salt())
	assert.Equal(t, uint32(2048), params.IterationCount())
	assert.Equal(t, oid.HMACWithSHA256, params.PRF())
	_, has := params.KeyLength()
	assert.False(t, has)
	again, marshalErr := params.Marshal()
	require.NoError(t, marshalErr)
	assert.Equal(t, der, again)

	// prf omitted, so hmacWithSHA1 applies
	der = mustHex(t, "300e0408aca6b857337c2396020203e8")
	params, err = pkcs.ParsePbkdf2Params(der)
	require.NoError(t, err)
	assert.Equal(t, oid.HMACWithSHA1, params.PRF())
	assert.Equal(t, uint32(1000), params.IterationCount())
	again, marshalErr = params.Marshal()
	require.NoError(t, marshalErr)
	assert.Equal(t, der, again)
}

func TestPbkdf2KeyLengthMismatch(t *testing.T) {
	params, err := pkcs.NewPbkdf2Params([]byte("salt"), 1, 32, "")
	require.NoError(t, err)
	_, err = params.Derive([]byte("pw"), 16)
	assert.ErrorIs(t, err, keyerrors.ErrKeySizeMismatch)
	key, deriveErr := params.Derive([]byte("pw"), 32)
	require.NoError(t, deriveErr)
	assert.Len(t, key, 32)
}

func TestPbkdf2MalformedParameters(t *testing.T) {
	salt := []byte("saltsalt")
	prf := func(id []byte, parameters func(b *cryptobyte.Builder)) []byte {
		return build(t, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(salt)
				b.AddASN1Uint64(2048)
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddBytes(id)
					if parameters != nil {
						parameters(b)
					}
				})
			})
		})
	}
	hmacSHA1 := mustHex(t, "06082a864886f70d0207")
	hmacSHA256 := mustHex(t, "06082a864886f70d0209")
	md5 := mustHex(t, "06082a864886f70d0205")
	sha256 := mustHex(t, "0609608648016503040201")

	_, err := pkcs.ParsePbkdf2Params(prf(hmacSHA256, func(b *cryptobyte.Builder) { b.AddASN1OctetString(nil) }))
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
	_, err = pkcs.ParsePbkdf2Params(prf(hmacSHA256, nil))
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
	_, err = pkcs.ParsePbkdf2Params(prf(md5, func(b *cryptobyte.Builder) { b.AddASN1NULL() }))
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)
	_, err = pkcs.ParsePbkdf2Params(prf(sha256, func(b *cryptobyte.Builder) { b.AddASN1NULL() }))
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)
	params, parseErr := pkcs.ParsePbkdf2Params(prf(hmacSHA256, func(b *cryptobyte.Builder) { b.AddASN1NULL() }))
	require.NoError(t, parseErr)
	assert.Equal(t, oid.HMACWithSHA256, params.PRF())
	// DER leaves a DEFAULT value out
	_, err = pkcs.ParsePbkdf2Params(prf(hmacSHA1, func(b *cryptobyte.Builder) { b.AddASN1NULL() }))
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)

	otherSource := build(t, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			pkcs.NewAlgorithmIdentifier(oid.SHA256, nil).AddTo(b)
			b.AddASN1Uint64(2048)
		})
	})
	_, err = pkcs.ParsePbkdf2Params(otherSource)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)

	for _, keyLength := range []int64{0, -1, 65536} {
		der := build(t, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(salt)
				b.AddASN1Uint64(2048)
				b.AddASN1Int64(keyLength)
			})
		})
		_, err = pkcs.ParsePbkdf2Params(der)
		assert.ErrorIs(t, err, keyerrors.ErrDerStructure, keyLength)
	}

	trailing := build(t, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1OctetString(salt)
			b.AddASN1Uint64(2048)
			pkcs.NewAlgorithmIdentifier(oid.HMACWithSHA256, []byte{0x05, 0x00}).AddTo(b)
			b.AddASN1Uint64(1)
		})
	})
	_, err = pkcs.ParsePbkdf2Params(trailing)
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)

	_, err = pkcs.NewPbkdf2Params(salt, 1, 0, oid.SHA256)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)
}
