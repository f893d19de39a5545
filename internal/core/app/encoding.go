package app

import (
	"fmt"
	"strings"

	coreerrors "xref/internal/core/errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// codec converts between the configured file encodings and UTF-8. UTF-8
// input is passed through untouched so that invalid bytes still reach the
// tokenizer verbatim.
type codec struct {
	inputName  string
	outputName string
	input      encoding.Encoding
	output     encoding.Encoding
}

func newCodec(inputName, outputName string) (*codec, error) {
	in, err := lookupEncoding(inputName)
	if err != nil {
		return nil, err
	}
	out, err := lookupEncoding(outputName)
	if err != nil {
		return nil, err
	}
	return &codec{inputName: inputName, outputName: outputName, input: in, output: out}, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeEncoding, fmt.Sprintf("unknown encoding %q", name))
	}
	if enc == nil {
		return nil, coreerrors.New(coreerrors.CodeEncoding, fmt.Sprintf("unsupported encoding %q", name))
	}
	return enc, nil
}

func isUTF8(enc encoding.Encoding) bool {
	return enc == unicode.UTF8 || enc == encoding.Nop
}

func (c *codec) decode(data []byte) (string, error) {
	if isUTF8(c.input) {
		return string(data), nil
	}
	out, err := c.input.NewDecoder().Bytes(data)
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CodeEncoding, "decode from "+c.inputName)
	}
	return string(out), nil
}

// encode converts a rendered page to the output encoding. Characters the
// encoding cannot represent become numeric character references.
func (c *codec) encode(page string) ([]byte, error) {
	if isUTF8(c.output) {
		return []byte(page), nil
	}
	out, err := encoding.HTMLEscapeUnsupported(c.output.NewEncoder()).Bytes([]byte(page))
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeEncoding, "encode to "+c.outputName)
	}
	return out, nil
}

// charset is the name announced in the generated pages.
func (c *codec) charset() string {
	if name, err := ianaindex.IANA.Name(c.output); err == nil && name != "" {
		return name
	}
	return c.outputName
}
