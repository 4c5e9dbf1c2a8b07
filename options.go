package afkey

import (
	"crypto/rand"
	"encoding/asn1"
	"fmt"
	"io"
	"log/slog"

	"github.com/aacfactory/afkey/oid"
	"github.com/aacfactory/afkey/pkcs"
)

type Option func(*Options) error

func WithLogger(logger *slog.Logger) Option {
	return func(options *Options) error {
		if logger == nil {
			return fmt.Errorf("logger is nil")
		}
		options.logger = logger
		return nil
	}
}

// WithImplicitCurve names the curve assumed for an "EC PRIVATE KEY" whose ECParameters are
// absent. Without it such keys are rejected. secp256k1 is the only curve accepted.
func WithImplicitCurve(curve asn1.ObjectIdentifier) Option {
	return func(options *Options) error {
		if !oid.Is(curve, oid.Secp256k1) {
			return fmt.Errorf("implicit curve %v is not supported", curve)
		}
		options.implicitCurve = curve
		return nil
	}
}

func WithCipherBackend(backend pkcs.Backend) Option {
	return func(options *Options) error {
		if backend == nil {
			return fmt.Errorf("cipher backend is nil")
		}
		options.backend = backend
		return nil
	}
}

// WithIterationCount sets the PBKDF2 iteration count used by EncryptPrivateKey.
func WithIterationCount(iterationCount uint32) Option {
	return func(options *Options) error {
		if iterationCount < pkcs.MinIterationCount || iterationCount > pkcs.MaxIterationCount {
			return fmt.Errorf("iteration count %d is outside [%d, %d]", iterationCount, pkcs.MinIterationCount, pkcs.MaxIterationCount)
		}
		options.iterationCount = iterationCount
		return nil
	}
}

// WithRandom sets the salt and IV source used by EncryptPrivateKey.
func WithRandom(random io.Reader) Option {
	return func(options *Options) error {
		if random == nil {
			return fmt.Errorf("random reader is nil")
		}
		options.random = random
		return nil
	}
}

type Options struct {
	logger         *slog.Logger
	implicitCurve  asn1.ObjectIdentifier
	backend        pkcs.Backend
	iterationCount uint32
	random         io.Reader
}

func newOptions(opts []Option) (options *Options, err error) {
	options = &Options{
		logger:         slog.Default(),
		implicitCurve:  nil,
		backend:        pkcs.DefaultBackend(),
		iterationCount: pkcs.DefaultIterationCount,
		random:         rand.Reader,
	}
	for _, option := range opts {
		optErr := option(options)
		if optErr != nil {
			err = fmt.Errorf("afkey: invalid option, %v", optErr)
			options = nil
			return
		}
	}
	return
}
