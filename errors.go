package afkey

import "github.com/aacfactory/afkey/keyerrors"

var (
	ErrPemFormat            = keyerrors.ErrPemFormat
	ErrDerStructure         = keyerrors.ErrDerStructure
	ErrUnsupportedAlgorithm = keyerrors.ErrUnsupportedAlgorithm
	ErrMissingPassword      = keyerrors.ErrMissingPassword
	ErrDecryption           = keyerrors.ErrDecryption
	ErrKeySizeMismatch      = keyerrors.ErrKeySizeMismatch
)
