package afkey

import (
	"context"
	"log/slog"

	"github.com/aacfactory/afkey/keyerrors"
)

type State int

const (
	AwaitingPem State = iota
	DecodedEnvelope
	Decrypting
	DecodedKey
	Failed
)

func (state State) String() string {
	switch state {
	case AwaitingPem:
		return "awaiting_pem"
	case DecodedEnvelope:
		return "decoded_envelope"
	case Decrypting:
		return "decrypting"
	case DecodedKey:
		return "decoded_key"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// importer walks one import call through its states. It is never shared between calls.
type importer struct {
	options *Options
	state   State
	pemType string
}

func newImporter(options *Options) *importer {
	return &importer{
		options: options,
		state:   AwaitingPem,
	}
}

func (im *importer) transit(next State, attrs ...slog.Attr) {
	logger := im.options.logger
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		all := make([]slog.Attr, 0, len(attrs)+3)
		all = append(all, slog.String("from", im.state.String()), slog.String("to", next.String()))
		if im.pemType != "" {
			all = append(all, slog.String("pem_type", im.pemType))
		}
		all = append(all, attrs...)
		logger.LogAttrs(context.Background(), slog.LevelDebug, "afkey: import state changed", all...)
	}
	im.state = next
}

func (im *importer) fail(err error) error {
	im.transit(Failed, slog.String("kind", keyerrors.KindOf(err).String()))
	return err
}
