package app

import (
	"testing"

	coreerrors "xref/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_UTF8PassesBytesThrough(t *testing.T) {
	c, err := newCodec("UTF-8", "utf-8")
	require.NoError(t, err)

	raw := []byte("bad \xff byte")
	text, err := c.decode(raw)
	require.NoError(t, err)
	assert.Equal(t, string(raw), text)

	out, err := c.encode(text)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestCodec_EncodeEscapesUnsupported(t *testing.T) {
	c, err := newCodec("UTF-8", "ISO-8859-1")
	require.NoError(t, err)

	out, err := c.encode("snow ☃")
	require.NoError(t, err)
	assert.Equal(t, "snow &#9731;", string(out))
}

func TestCodec_UnknownEncoding(t *testing.T) {
	_, err := newCodec("klingon-8", "UTF-8")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeEncoding))
}
