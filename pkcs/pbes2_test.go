package pkcs_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/asn1"
	"testing"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"github.com/aacfactory/afkey/pkcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type countingBackend struct {
	blocks int
}

func (backend *countingBackend) Name() string {
	return "counting"
}

func (backend *countingBackend) NewBlock(key []byte) (cipher.Block, error) {
	backend.blocks++
	return aes.NewCipher(key)
}

func TestPbes2OpenSSLFixture(t *testing.T) {
	alg, ciphertext := splitEncrypted(t, mustHex(t, encryptedEd25519Hex))
	backend := &countingBackend{}
	scheme, err := pkcs.ParseEncryptionScheme(alg, pkcs.WithBackend(backend))
	require.NoError(t, err)

	params, ok := scheme.(*pkcs.Pbes2Params)
	require.True(t, ok)
	kdf, ok := params.KDF.(*pkcs.Pbkdf2Params)
	require.True(t, ok)
	assert.Equal(t, uint32(2048), kdf.IterationCount())
	aesCbc, ok := params.Scheme.(*pkcs.Aes128Cbc)
	require.True(t, ok)
	assert.Equal(t, mustHex(t, "05c87e6337b6ea22eeb2e95666d1bf93"), aesCbc.IV())

	derived, deriveErr := kdf.Derive([]byte("test"), aesCbc.KeySize())
	require.NoError(t, deriveErr)
	assert.Equal(t, mustHex(t, "5ae38cd1e5f96790e20a35b84e94a2ab"), derived)

	plaintext, decryptErr := scheme.Decrypt([]byte("test"), ciphertext)
	require.NoError(t, decryptErr)
	assert.Equal(t, mustHex(t, ed25519PrivateKeyInfoHex), plaintext)
	assert.Equal(t, 1, backend.blocks)

	again, againErr := scheme.Decrypt([]byte("test"), ciphertext)
	require.NoError(t, againErr)
	assert.Equal(t, plaintext, again)

	_, err = scheme.Decrypt([]byte("wrong"), ciphertext)
	assert.ErrorIs(t, err, keyerrors.ErrDecryption)

	flipped := bytes.Clone(ciphertext)
	flipped[40] ^= 0x01
	_, err = scheme.Decrypt([]byte("test"), flipped)
	assert.ErrorIs(t, err, keyerrors.ErrDecryption)

	_, err = scheme.Decrypt([]byte("test"), ciphertext[:33])
	assert.ErrorIs(t, err, keyerrors.ErrDecryption)

	var b cryptobyte.Builder
	scheme.AddTo(&b)
	der, marshalErr := b.Bytes()
	require.NoError(t, marshalErr)
	reparsed, reparseErr := pkcs.ParseAlgorithmIdentifier(der)
	require.NoError(t, reparseErr)
	assert.True(t, alg.Equal(reparsed))
}

func TestPbes2RoundTrip(t *testing.T) {
	params, err := pkcs.GeneratePbes2Params(rand.Reader, 1000)
	require.NoError(t, err)
	plaintext := []byte("a plaintext that spans more than one aes block")
	ciphertext, encryptErr := params.Encrypt([]byte("hunter2"), plaintext)
	require.NoError(t, encryptErr)
	assert.Zero(t, len(ciphertext)%aes.BlockSize)

	der, marshalErr := params.Marshal()
	require.NoError(t, marshalErr)
	parsed, parseErr := pkcs.ParsePbes2Params(der)
	require.NoError(t, parseErr)
	decrypted, decryptErr := parsed.Decrypt([]byte("hunter2"), ciphertext)
	require.NoError(t, decryptErr)
	assert.Equal(t, plaintext, decrypted)
	again, _ := parsed.Marshal()
	assert.Equal(t, der, again)

	kdf := parsed.KDF.(*pkcs.Pbkdf2Params)
	assert.Equal(t, oid.HMACWithSHA256, kdf.PRF())
	assert.Len(t, kdf.Salt(), pkcs.DefaultSaltSize)
}

func TestGeneratePbes2ParamsRandomFailure(t *testing.T) {
	for _, random := range [][]byte{nil, make([]byte, pkcs.DefaultSaltSize)} {
		_, err := pkcs.GeneratePbes2Params(bytes.NewReader(random), 1000)
		require.Error(t, err)
		assert.NotErrorIs(t, err, keyerrors.ErrDecryption)
		assert.Equal(t, keyerrors.UnknownKind, keyerrors.KindOf(err))
	}
}

func TestPbes2BlockAlignedPlaintext(t *testing.T) {
	scheme, err := pkcs.NewAes128Cbc(make([]byte, 16))
	require.NoError(t, err)
	key := make([]byte, 16)
	ciphertext, encryptErr := scheme.Encrypt(key, make([]byte, 32))
	require.NoError(t, encryptErr)
	assert.Len(t, ciphertext, 48)
	plaintext, decryptErr := scheme.Decrypt(key, ciphertext)
	require.NoError(t, decryptErr)
	assert.Equal(t, make([]byte, 32), plaintext)

	_, err = scheme.Decrypt(make([]byte, 32), ciphertext)
	assert.ErrorIs(t, err, keyerrors.ErrKeySizeMismatch)
}

func TestPbes2KeyLengthMismatch(t *testing.T) {
	kdf, err := pkcs.NewPbkdf2Params([]byte("saltsalt"), 1, 32, oid.HMACWithSHA256)
	require.NoError(t, err)
	scheme, schemeErr := pkcs.NewAes128Cbc(make([]byte, 16))
	require.NoError(t, schemeErr)
	params, paramsErr := pkcs.NewPbes2Params(kdf, scheme)
	require.NoError(t, paramsErr)
	_, err = params.Decrypt([]byte("pw"), make([]byte, 16))
	assert.ErrorIs(t, err, keyerrors.ErrKeySizeMismatch)
}

func TestAes128CbcIV(t *testing.T) {
	_, err := pkcs.NewAes128Cbc(make([]byte, 15))
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
	_, err = pkcs.NewAes128Cbc(make([]byte, 17))
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)

	short := pkcs.AlgorithmIdentifier{Algorithm: oid.AES128CBC.OID(), Parameters: mustHex(t, "040f000102030405060708090a0b0c0d0e")}
	_, err = pkcs.GetCipher(short)
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
	_, err = pkcs.GetCipher(pkcs.AlgorithmIdentifier{Algorithm: oid.AES128CBC.OID()})
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
	_, err = pkcs.GetCipher(pkcs.AlgorithmIdentifier{Algorithm: oid.AES128CBC.OID(), Parameters: []byte{0x05, 0x00}})
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)
}

func TestUnsupportedAlgorithms(t *testing.T) {
	aes256Cbc := pkcs.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}, Parameters: mustHex(t, "0410000102030405060708090a0b0c0d0e0f")}
	_, err := pkcs.GetCipher(aes256Cbc)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)

	scrypt := pkcs.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11591, 4, 11}}
	_, err = pkcs.GetKeyDerivationFunc(scrypt)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)

	pbes1 := pkcs.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 3}, Parameters: []byte{0x05, 0x00}}
	_, err = pkcs.ParseEncryptionScheme(pbes1)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)

	_, err = pkcs.ParseEncryptionScheme(pkcs.AlgorithmIdentifier{Algorithm: oid.PBES2.OID()})
	assert.ErrorIs(t, err, keyerrors.ErrDerStructure)

	// PBES2 with an aes-256-cbc encryption scheme fails while parsing, before any password is used.
	kdf, kdfErr := pkcs.NewPbkdf2Params([]byte("saltsalt"), 2048, 0, "")
	require.NoError(t, kdfErr)
	der := build(t, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			kdf.AddTo(b)
			aes256Cbc.AddTo(b)
		})
	})
	_, err = pkcs.ParsePbes2Params(der)
	assert.ErrorIs(t, err, keyerrors.ErrUnsupportedAlgorithm)
}

func TestDefaultBackend(t *testing.T) {
	backend := pkcs.DefaultBackend()
	require.NotNil(t, backend)
	assert.Contains(t, []string{"aes-ni", "armv8-aes", "aes-generic", "aes-s390x", "aes-ppc64", "aes-ppc64le"}, backend.Name())
	if !pkcs.HardwareAES() {
		assert.Equal(t, "aes-generic", backend.Name())
	}
	block, err := backend.NewBlock(make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, aes.BlockSize, block.BlockSize())
}
