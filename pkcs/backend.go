package pkcs

import (
	"crypto/aes"
	"crypto/cipher"
	"runtime"

	"golang.org/x/sys/cpu"
)

// Backend supplies block ciphers to the PBES2 encryption schemes.
// Implementations own their buffers; callers never see a short-buffer condition.
type Backend interface {
	Name() string
	NewBlock(key []byte) (cipher.Block, error)
}

type aesBackend struct {
	name string
}

func (backend *aesBackend) Name() string {
	return backend.name
}

func (backend *aesBackend) NewBlock(key []byte) (cipher.Block, error) {
	return aes.NewCipher(key)
}

var defaultBackend Backend = &aesBackend{
	name: aesBackendName(),
}

// DefaultBackend is the crypto/aes backend. Its name reports whether
// the processor's AES instructions are in use.
func DefaultBackend() Backend {
	return defaultBackend
}

// HardwareAES reports whether the processor has AES instructions. It only drives the
// backend name used in logs; crypto/aes picks its own implementation.
func HardwareAES() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ
	case "arm64":
		return cpu.ARM64.HasAES
	case "s390x":
		return cpu.S390X.HasAES
	case "ppc64", "ppc64le":
		return true
	default:
		return false
	}
}

func aesBackendName() string {
	if !HardwareAES() {
		return "aes-generic"
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		return "aes-ni"
	case "arm64":
		return "armv8-aes"
	default:
		return "aes-" + runtime.GOARCH
	}
}

type Options struct {
	Backend Backend
}

type Option func(*Options)

func WithBackend(backend Backend) Option {
	return func(options *Options) {
		if backend != nil {
			options.Backend = backend
		}
	}
}

func newOptions(opts []Option) *Options {
	options := &Options{
		Backend: defaultBackend,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
