package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/dotrun/packages/listener"
)

// ErrUnknownFormat is returned for stream formats this package cannot decode.
var ErrUnknownFormat = errors.New("unknown stream format")

// Format names a result stream encoding.
type Format string

const (
	FormatGo    Format = "go"
	FormatTAP   Format = "tap"
	FormatJUnit Format = "junit"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatGo, FormatTAP, FormatJUnit}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "go", "gotest", "json", "test2json":
		return FormatGo, nil
	case "tap":
		return FormatTAP, nil
	case "junit", "xml":
		return FormatJUnit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Event is a single finished test.
type Event struct {
	Kind   listener.Kind
	Result *listener.Result
}

// EmitFunc receives decoded events in stream order. Returning an error stops
// decoding and the error is returned from Decode unchanged.
type EmitFunc func(Event) error

// Decoder reads a result stream and emits one Event per finished test.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader, emit EmitFunc) error
}

// NewDecoder returns the decoder for format.
func NewDecoder(format Format, opts ...DecoderOption) (Decoder, error) {
	o := &decoderOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch format {
	case FormatGo:
		return &GoTestDecoder{rawLine: o.rawLine}, nil
	case FormatTAP:
		return &TAPDecoder{rawLine: o.rawLine}, nil
	case FormatJUnit:
		return &JUnitDecoder{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}

type decoderOptions struct {
	rawLine func(string)
}

type DecoderOption func(*decoderOptions)

// WithRawLineHandler receives stream lines that are not part of the format,
// such as build output interleaved with go test -json.
func WithRawLineHandler(fn func(line string)) DecoderOption {
	return func(o *decoderOptions) {
		o.rawLine = fn
	}
}

// maxLineSize bounds a single stream line; test2json output lines can be long.
const maxLineSize = 4 * 1024 * 1024
