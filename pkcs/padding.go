package pkcs

import (
	"bytes"
	"crypto/subtle"
	"errors"
)

var (
	errPaddingEmpty   = errors.New("pkcs: invalid pkcs7 padding (len(padtext) == 0)")
	errPaddingLength  = errors.New("pkcs: invalid pkcs7 padding (unpadding > blockSize || unpadding == 0)")
	errPaddingContent = errors.New("pkcs: invalid pkcs7 padding (pad[i] != unpadding)")
)

func pkcs7Padding(src []byte, blockSize int) []byte {
	padding := blockSize - len(src)%blockSize
	padtext := bytes.Repeat([]byte{byte(padding)}, padding)
	dst := make([]byte, 0, len(src)+padding)
	dst = append(dst, src...)
	return append(dst, padtext...)
}

func pkcs7UnPadding(src []byte, blockSize int) ([]byte, error) {
	length := len(src)
	if length == 0 || length%blockSize != 0 {
		return nil, errPaddingEmpty
	}
	unpadding := int(src[length-1])
	if unpadding > blockSize || unpadding == 0 {
		return nil, errPaddingLength
	}
	pad := src[length-unpadding:]
	good := 1
	for i := 0; i < unpadding; i++ {
		good &= subtle.ConstantTimeByteEq(pad[i], byte(unpadding))
	}
	if good != 1 {
		return nil, errPaddingContent
	}
	return src[:(length - unpadding)], nil
}
