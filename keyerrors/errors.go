package keyerrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	UnknownKind Kind = iota
	PemFormatKind
	DerStructureKind
	UnsupportedAlgorithmKind
	MissingPasswordKind
	DecryptionKind
	KeySizeMismatchKind
)

func (k Kind) String() string {
	switch k {
	case PemFormatKind:
		return "pem format"
	case DerStructureKind:
		return "der structure"
	case UnsupportedAlgorithmKind:
		return "unsupported algorithm"
	case MissingPasswordKind:
		return "missing password"
	case DecryptionKind:
		return "decryption"
	case KeySizeMismatchKind:
		return "key size mismatch"
	default:
		return "unknown"
	}
}

var (
	ErrPemFormat            = errors.New("pem format error")
	ErrDerStructure         = errors.New("der structure error")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrMissingPassword      = errors.New("missing password")
	ErrDecryption           = errors.New("decryption failed")
	ErrKeySizeMismatch      = errors.New("key size mismatch")
)

func (k Kind) sentinel() error {
	switch k {
	case PemFormatKind:
		return ErrPemFormat
	case DerStructureKind:
		return ErrDerStructure
	case UnsupportedAlgorithmKind:
		return ErrUnsupportedAlgorithm
	case MissingPasswordKind:
		return ErrMissingPassword
	case DecryptionKind:
		return ErrDecryption
	case KeySizeMismatchKind:
		return ErrKeySizeMismatch
	default:
		return nil
	}
}

// Error is the only error type produced by the key import packages.
// errors.Is matches it against the sentinel of its Kind, errors.As exposes the Kind itself.
// Messages never carry passwords or derived key material.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s, %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

func New(kind Kind, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownKind
}
