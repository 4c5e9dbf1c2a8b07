package pkcs

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/aacfactory/afkey/keyerrors"
	"github.com/aacfactory/afkey/oid"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const aes128KeySize = 16

func init() {
	RegisterCipher(oid.AES128CBC.OID(), parseAes128Cbc)
}

// Aes128Cbc is aes128-CBC-PAD from RFC 8018 B.2.5: a 16 byte key, a 16 byte IV carried
// as the OCTET STRING parameter, and PKCS#7 padding.
type Aes128Cbc struct {
	iv      [aes.BlockSize]byte
	backend Backend
}

func NewAes128Cbc(iv []byte, opts ...Option) (*Aes128Cbc, error) {
	if len(iv) != aes.BlockSize {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: aes-128-cbc iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	c := &Aes128Cbc{
		backend: newOptions(opts).Backend,
	}
	copy(c.iv[:], iv)
	return c, nil
}

func parseAes128Cbc(parameters []byte, options *Options) (Pbes2EncryptionScheme, error) {
	if parameters == nil {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: aes-128-cbc parameters are missing")
	}
	input := cryptobyte.String(parameters)
	var iv cryptobyte.String
	if !input.ReadASN1(&iv, cryptobyte_asn1.OCTET_STRING) || !input.Empty() {
		return nil, keyerrors.New(keyerrors.DerStructureKind, "pkcs: aes-128-cbc parameters must be an OCTET STRING")
	}
	return NewAes128Cbc(iv, WithBackend(options.Backend))
}

func (c *Aes128Cbc) IV() []byte {
	iv := make([]byte, aes.BlockSize)
	copy(iv, c.iv[:])
	return iv
}

func (c *Aes128Cbc) KeySize() int {
	return aes128KeySize
}

func (c *Aes128Cbc) AddTo(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid.AES128CBC.OID())
		b.AddASN1OctetString(c.iv[:])
	})
}

func (c *Aes128Cbc) block(key []byte) (cipher.Block, error) {
	if len(key) != aes128KeySize {
		return nil, keyerrors.New(keyerrors.KeySizeMismatchKind, "pkcs: aes-128-cbc needs a %d byte key, got %d", aes128KeySize, len(key))
	}
	backend := c.backend
	if backend == nil {
		backend = defaultBackend
	}
	block, err := backend.NewBlock(key)
	if err != nil {
		return nil, keyerrors.Wrap(keyerrors.DecryptionKind, err, "pkcs: %s backend failed", backend.Name())
	}
	return block, nil
}

func (c *Aes128Cbc) Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	block, err := c.block(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, keyerrors.New(keyerrors.DecryptionKind, "pkcs: aes-128-cbc ciphertext length %d is not a positive multiple of the block size", len(ciphertext))
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, c.iv[:]).CryptBlocks(plaintext, ciphertext)
	unpadded, unpadErr := pkcs7UnPadding(plaintext, block.BlockSize())
	if unpadErr != nil {
		return nil, keyerrors.Wrap(keyerrors.DecryptionKind, unpadErr, "pkcs: aes-128-cbc decrypt failed")
	}
	return unpadded, nil
}

func (c *Aes128Cbc) Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	block, err := c.block(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Padding(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv[:]).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}
